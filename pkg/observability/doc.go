/*
Package observability provides tools for monitoring the quiz engine.

It turns engine lifecycle hooks into Prometheus metrics and structured
audit logs, and merges several hook sets into one.
*/
package observability
