package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/internal/logging"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/ports"
)

// Event names written on the SSE stream.
const (
	EventDiff = "diff"
	EventHost = "host"
)

// Frame is one SSE frame.
type Frame struct {
	Event string
	Data  []byte
}

// StreamManager handles active SSE connections, keyed by run id. It is
// also the EventSink the engine reports host events to.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Frame]struct{}
	logger      *slog.Logger
}

var _ ports.EventSink = (*StreamManager)(nil)

// NewStreamManager creates an empty manager. A nil logger discards.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan Frame]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a listener for runID and returns its channel and a
// cancel func that must be called once.
func (sm *StreamManager) Subscribe(runID string) (<-chan Frame, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Frame, 16)
	if _, ok := sm.subscribers[runID]; !ok {
		sm.subscribers[runID] = make(map[chan Frame]struct{})
	}
	sm.subscribers[runID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[runID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, runID)
			}
		}
	}
}

// Subscribers returns the number of listeners for runID.
func (sm *StreamManager) Subscribers(runID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[runID])
}

// Broadcast sends a frame to every listener of runID. Slow listeners
// lose the frame.
func (sm *StreamManager) Broadcast(runID, event string, data []byte) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[runID] {
		select {
		case ch <- Frame{Event: event, Data: data}:
		default:
			sm.logger.Warn("SSE: client buffer full, dropping message", "run", runID, "event", event)
		}
	}
}

// Emit implements ports.EventSink.
func (sm *StreamManager) Emit(_ context.Context, ev domain.HostEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		sm.logger.Error("SSE: encode host event", "err", err)
		return
	}
	sm.Broadcast(ev.RunID, EventHost, data)
}

// BroadcastDiff sends the changes between two states, if any.
func (sm *StreamManager) BroadcastDiff(before, after *domain.RunState) *domain.StateDiff {
	diff := domain.Diff(before, after)
	if diff == nil {
		return nil
	}
	if data, err := json.Marshal(diff); err == nil {
		sm.Broadcast(after.RunID, EventDiff, data)
	}
	return diff
}
