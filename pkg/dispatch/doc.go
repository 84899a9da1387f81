// Package dispatch delivers finished runs to external systems.
//
// The engine calls a ports.Dispatcher synchronously when a run finishes.
// Async turns that call into a queue hand-off so the engine never waits
// on the network; Webhook and Multi are the deliverers behind it.
package dispatch
