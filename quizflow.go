package quizflow

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/internal/logging"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/internal/runtime"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/internal/validator"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/adapters/file"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/ports"
)

// Engine is the high-level entry point of the library. It loads quizzes
// through a GraphLoader, validates them once and drives runs over them.
// State is owned by the caller and passed in on every step.
type Engine struct {
	runtime *runtime.Engine
	loader  ports.GraphLoader
	logger  *slog.Logger

	hooks       domain.LifecycleHooks
	dispatcher  ports.Dispatcher
	sink        ports.EventSink
	runtimeOpts []runtime.EngineOption

	mu    sync.RWMutex
	cache map[string]*runtime.Quiz

	Name string
}

var _ ports.StatelessEngine = (*Engine)(nil)

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLoader injects a custom GraphLoader, bypassing the default directory loader.
func WithLoader(l ports.GraphLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithDispatcher sets where finished runs are sent.
func WithDispatcher(d ports.Dispatcher) Option {
	return func(e *Engine) {
		e.dispatcher = d
	}
}

// WithEventSink sets the receiver of host events.
func WithEventSink(s ports.EventSink) Option {
	return func(e *Engine) {
		e.sink = s
	}
}

// WithMaxSteps bounds automatic advancement through passive content.
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithMaxSteps(n))
	}
}

// New initializes an Engine. By default quizzes are read from graphsDir;
// with WithLoader the directory only names the engine and may be empty.
func New(graphsDir string, opts ...Option) (*Engine, error) {
	eng := &Engine{cache: make(map[string]*runtime.Quiz)}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	if eng.loader == nil {
		if graphsDir == "" {
			return nil, fmt.Errorf("graphsDir is required when no custom loader is provided")
		}
		abs, err := filepath.Abs(graphsDir)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		l := file.NewLoader(abs)
		l.Logger = eng.logger
		eng.loader = l
		eng.Name = filepath.Base(abs)
	} else if graphsDir != "" {
		eng.Name = filepath.Base(graphsDir)
	}

	if eng.Name != "" {
		eng.logger = eng.logger.With("source", eng.Name)
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
	}
	if eng.dispatcher != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithDispatcher(eng.dispatcher))
	}
	if eng.sink != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithEventSink(eng.sink))
	}
	eng.runtime = runtime.NewEngine(append(runtimeOpts, eng.runtimeOpts...)...)

	return eng, nil
}

// Quiz returns the validated quiz for quizID, loading and compiling it on
// first use.
func (e *Engine) Quiz(ctx context.Context, quizID string) (*runtime.Quiz, error) {
	e.mu.RLock()
	q, ok := e.cache[quizID]
	e.mu.RUnlock()
	if ok {
		return q, nil
	}

	g, err := e.loader.LoadGraph(ctx, quizID)
	if err != nil {
		return nil, err
	}
	q, err = runtime.Compile(g)
	if err != nil {
		return nil, fmt.Errorf("quiz %q: %w", quizID, err)
	}
	for _, d := range q.Report.Diagnostics {
		e.logger.Warn("quiz diagnostic", "quiz", quizID, "code", d.Code, "node", d.NodeID, "msg", d.Message)
	}

	e.mu.Lock()
	e.cache[quizID] = q
	e.mu.Unlock()
	return q, nil
}

// Invalidate drops cached quizzes. With no ids every quiz is dropped.
func (e *Engine) Invalidate(quizIDs ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(quizIDs) == 0 {
		clear(e.cache)
		return
	}
	for _, id := range quizIDs {
		delete(e.cache, id)
	}
}

// Start begins a run of quizID. An empty runID gets a fresh UUID.
func (e *Engine) Start(ctx context.Context, quizID, runID string) (*domain.RunState, error) {
	q, err := e.Quiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if runID == "" {
		runID = uuid.NewString()
	}
	return e.runtime.Start(ctx, q, runID)
}

// Current describes what the host should render for state.
func (e *Engine) Current(ctx context.Context, state *domain.RunState) (*domain.Prompt, error) {
	q, err := e.Quiz(ctx, state.QuizID)
	if err != nil {
		return nil, err
	}
	return e.runtime.Current(q, state)
}

// Submit applies one respondent input and returns the new state. The
// given state is never modified.
func (e *Engine) Submit(ctx context.Context, state *domain.RunState, input domain.Input) (*domain.RunState, error) {
	q, err := e.Quiz(ctx, state.QuizID)
	if err != nil {
		return nil, err
	}
	return e.runtime.Submit(ctx, q, state, input)
}

// Timeout reports that the countdown of the current element expired.
func (e *Engine) Timeout(ctx context.Context, state *domain.RunState) (*domain.RunState, error) {
	q, err := e.Quiz(ctx, state.QuizID)
	if err != nil {
		return nil, err
	}
	return e.runtime.Timeout(ctx, q, state)
}

// Replay rebuilds a run of quizID from an ordered input log without side
// effects.
func (e *Engine) Replay(ctx context.Context, quizID, runID string, inputs []domain.Input) (*domain.RunState, error) {
	q, err := e.Quiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	return e.runtime.Replay(ctx, q, runID, inputs)
}

// Inspect returns the validated graph of a quiz.
func (e *Engine) Inspect(ctx context.Context, quizID string) (*domain.Graph, error) {
	q, err := e.Quiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	return q.Graph, nil
}

// Validate loads quizID and validates it without caching.
func (e *Engine) Validate(ctx context.Context, quizID string) (*validator.Report, error) {
	g, err := e.loader.LoadGraph(ctx, quizID)
	if err != nil {
		return nil, err
	}
	return validator.Validate(g)
}

// Quizzes lists the quiz ids the loader knows.
func (e *Engine) Quizzes(ctx context.Context) ([]string, error) {
	return e.loader.ListGraphs(ctx)
}

// Watch returns a channel that receives the id of each quiz that changed.
// Cached quizzes are invalidated before the id is delivered.
// Returns an error if the loader does not support watching.
func (e *Engine) Watch(ctx context.Context) (<-chan string, error) {
	w, ok := e.loader.(ports.Watchable)
	if !ok {
		return nil, fmt.Errorf("current loader does not support watching")
	}
	src, err := w.Watch(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan string)
	go func() {
		defer close(out)
		for id := range src {
			if id == "" {
				e.Invalidate()
			} else {
				e.Invalidate(id)
			}
			e.logger.Info("quiz changed", "quiz", id)
			select {
			case out <- id:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Loader returns the underlying GraphLoader used by the engine.
func (e *Engine) Loader() ports.GraphLoader {
	return e.loader
}
