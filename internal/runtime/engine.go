package runtime

import (
	"context"
	"io"
	"log/slog"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/ports"
)

// DefaultMaxSteps bounds automatic advancement through passive content in
// one transition, so a loop of content-only nodes cannot spin forever.
const DefaultMaxSteps = 1000

// Engine is the quiz traversal state machine.
type Engine struct {
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	dispatcher ports.Dispatcher
	sink       ports.EventSink
	maxSteps   int
	// replaying skips lead field validation: recorded leads were checked
	// when captured and may since have been masked by storage.
	replaying bool
}

// EngineOption defines a functional option for configuring the Engine.
type EngineOption func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithDispatcher sets the destination for finished runs.
func WithDispatcher(d ports.Dispatcher) EngineOption {
	return func(e *Engine) {
		e.dispatcher = d
	}
}

// WithEventSink sets the receiver of runtime-to-host events.
func WithEventSink(s ports.EventSink) EngineOption {
	return func(e *Engine) {
		e.sink = s
	}
}

// WithMaxSteps overrides DefaultMaxSteps.
func WithMaxSteps(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxSteps = n
		}
	}
}

// NewEngine creates a new engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxSteps: DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// quiet returns a copy of the engine with no side effects: no hooks, no
// dispatch and no host events. Replays use it.
func (e *Engine) quiet() *Engine {
	return &Engine{logger: e.logger, maxSteps: e.maxSteps, replaying: true}
}

// Start creates the initial state of a run and advances it to the first
// element that needs input, or to a result if there is none.
func (e *Engine) Start(ctx context.Context, q *Quiz, runID string) (*domain.RunState, error) {
	start, ok := q.Graph.StartNode()
	if !ok {
		return nil, &domain.StructuralError{Code: "missing_start", Detail: "graph has no start node"}
	}

	st := domain.NewRunState(runID, q.Graph.ID, start.ID)
	st.GraphVersion = q.Graph.Version
	st.Gamification = q.overlay.Init()

	e.logger.Debug("run started", "run", runID, "quiz", q.Graph.ID)
	if e.hooks.OnRunStart != nil {
		e.hooks.OnRunStart(ctx, &domain.NodeEvent{RunID: runID, QuizID: q.Graph.ID, NodeID: start.ID, Kind: start.Kind})
	}
	e.nodeEntered(ctx, st, start)

	e.advance(ctx, q, st)
	return st, nil
}

// Replay rebuilds a run from scratch by feeding inputs in order. It has no
// side effects: hooks, dispatch and host events are suppressed. The same
// quiz and inputs always produce the same state. Lead field values are not
// revalidated; they never affect score or routing.
func (e *Engine) Replay(ctx context.Context, q *Quiz, runID string, inputs []domain.Input) (*domain.RunState, error) {
	quiet := e.quiet()
	st, err := quiet.Start(ctx, q, runID)
	if err != nil {
		return nil, err
	}
	for i, in := range inputs {
		st, err = quiet.Submit(ctx, q, st, in)
		if err != nil {
			return nil, &ReplayError{Step: i, Err: err}
		}
	}
	return st, nil
}

// InputsFromLog extracts the replayable inputs of an answer log. Records
// of passive content are skipped; replay completes those on its own.
func InputsFromLog(answers []domain.AnswerRecord) []domain.Input {
	inputs := make([]domain.Input, 0, len(answers))
	for _, a := range answers {
		if a.Passive() {
			continue
		}
		inputs = append(inputs, domain.Input{Outcome: a.Outcome, Elapsed: a.Elapsed})
	}
	return inputs
}

func (e *Engine) nodeEntered(ctx context.Context, st *domain.RunState, n *domain.Node) {
	e.logger.Debug("node entered", "run", st.RunID, "node", n.ID, "kind", n.Kind)
	if e.hooks.OnNodeEnter != nil {
		e.hooks.OnNodeEnter(ctx, &domain.NodeEvent{RunID: st.RunID, QuizID: st.QuizID, NodeID: n.ID, Kind: n.Kind})
	}
}
