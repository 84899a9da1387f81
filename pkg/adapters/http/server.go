// Package http is the embed-host transport: a JSON API over chi that lets
// a page start runs, submit outcomes and follow a run over Server-Sent
// Events.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/internal/logging"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/internal/presentation/graph"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/codec"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/ports"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/session"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 64 << 10

// Engine is the engine surface the transport drives.
type Engine interface {
	ports.StatelessEngine
	Timeout(ctx context.Context, state *domain.RunState) (*domain.RunState, error)
	Quizzes(ctx context.Context) ([]string, error)
	Watch(ctx context.Context) (<-chan string, error)
}

// Server serves the API.
type Server struct {
	Engine   Engine
	Sessions *session.Manager
	Streams  *StreamManager

	logger  *slog.Logger
	metrics http.Handler
	version string
}

// Option configures a Server.
type Option func(*Server)

// WithStreams shares a StreamManager, typically the one given to the
// engine as its EventSink.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics mounts h on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithVersion is reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = strings.TrimSpace(v)
	}
}

// NewServer creates a Server. Runs are kept in sessions.
func NewServer(engine Engine, sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		Engine:   engine,
		Sessions: sessions,
		logger:   logging.NewNop(),
		version:  "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}
	return s
}

// NewHandler creates the HTTP handler for engine.
func NewHandler(engine Engine, sessions *session.Manager, opts ...Option) http.Handler {
	return NewServer(engine, sessions, opts...).Handler()
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/events", s.WatchQuizzes)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/quizzes", func(r chi.Router) {
		r.Get("/", s.ListQuizzes)
		r.Get("/{quizID}", s.GetQuiz)
		r.Get("/{quizID}/mermaid", s.GetMermaid)
		r.Post("/{quizID}/runs", s.StartRun)
	})
	r.Route("/runs/{runID}", func(r chi.Router) {
		r.Get("/", s.GetRun)
		r.Post("/answers", s.SubmitAnswer)
		r.Post("/timeout", s.SubmitTimeout)
		r.Get("/events", s.SubscribeEvents)
		r.Post("/events", s.PostHostEvent)
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RunResponse is returned by every run endpoint.
type RunResponse struct {
	State  *domain.RunState  `json:"state"`
	Prompt *domain.Prompt    `json:"prompt,omitempty"`
	Diff   *domain.StateDiff `json:"diff,omitempty"`
}

// StartRequest is the body of POST /quizzes/{quizID}/runs.
type StartRequest struct {
	RunID string `json:"runId,omitempty"`
}

// AnswerRequest is the body of POST /runs/{runID}/answers. Outcome uses
// the tagged form, for example {"kind":"choice","optionIds":["a"]}.
type AnswerRequest struct {
	Outcome   json.RawMessage `json:"outcome"`
	ElapsedMS int64           `json:"elapsedMs,omitempty"`
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"app": "quizflow-http", "version": s.version})
}

// ListQuizzes handles GET /quizzes.
func (s *Server) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Engine.Quizzes(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// GetQuiz handles GET /quizzes/{quizID} with the canonical JSON document.
func (s *Server) GetQuiz(w http.ResponseWriter, r *http.Request) {
	g, err := s.Engine.Inspect(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	data, err := codec.Encode(g, codec.FormatJSON)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// GetMermaid handles GET /quizzes/{quizID}/mermaid. With ?run=<id> the
// run's path is highlighted.
func (s *Server) GetMermaid(w http.ResponseWriter, r *http.Request) {
	g, err := s.Engine.Inspect(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var overlay *graph.GraphOverlay
	if runID := r.URL.Query().Get("run"); runID != "" {
		st, err := s.Sessions.Load(r.Context(), runID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		overlay = graph.OverlayFromRun(st)
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, graph.GenerateMermaid(g, overlay))
}

// StartRun handles POST /quizzes/{quizID}/runs. Starting with the id of an
// existing run returns that run unchanged.
func (s *Server) StartRun(w http.ResponseWriter, r *http.Request) {
	var body StartRequest
	if err := s.decode(r, &body); err != nil {
		s.badRequest(w, r, err)
		return
	}
	quizID := chi.URLParam(r, "quizID")
	if body.RunID == "" {
		body.RunID = uuid.NewString()
	}

	created := false
	st, err := s.Sessions.LoadOrStart(r.Context(), body.RunID, func(ctx context.Context) (*domain.RunState, error) {
		created = true
		return s.Engine.Start(ctx, quizID, body.RunID)
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if st.QuizID != quizID {
		s.writeError(w, http.StatusConflict, fmt.Sprintf("run %s belongs to quiz %s", st.RunID, st.QuizID))
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		s.logger.Info("run started", "run", st.RunID, "quiz", quizID)
	}
	s.respondRun(w, r, status, st, nil)
}

// GetRun handles GET /runs/{runID}.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	st, err := s.Sessions.Load(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondRun(w, r, http.StatusOK, st, nil)
}

// SubmitAnswer handles POST /runs/{runID}/answers.
func (s *Server) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var body AnswerRequest
	if err := s.decode(r, &body); err != nil {
		s.badRequest(w, r, err)
		return
	}
	if len(body.Outcome) == 0 {
		s.badRequest(w, r, errors.New("outcome is required"))
		return
	}
	outcome, err := domain.UnmarshalOutcome(body.Outcome)
	if err != nil || outcome == nil {
		s.badRequest(w, r, fmt.Errorf("invalid outcome: %v", err))
		return
	}
	in := domain.Input{Outcome: outcome, Elapsed: time.Duration(body.ElapsedMS) * time.Millisecond}

	s.step(w, r, func(ctx context.Context, st *domain.RunState) (*domain.RunState, error) {
		return s.Engine.Submit(ctx, st, in)
	})
}

// SubmitTimeout handles POST /runs/{runID}/timeout.
func (s *Server) SubmitTimeout(w http.ResponseWriter, r *http.Request) {
	s.step(w, r, s.Engine.Timeout)
}

func (s *Server) step(w http.ResponseWriter, r *http.Request, apply func(context.Context, *domain.RunState) (*domain.RunState, error)) {
	runID := chi.URLParam(r, "runID")
	var before *domain.RunState
	after, err := s.Sessions.Update(r.Context(), runID, func(ctx context.Context, st *domain.RunState) (*domain.RunState, error) {
		before = st
		return apply(ctx, st)
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	diff := s.Streams.BroadcastDiff(before, after)
	s.respondRun(w, r, http.StatusOK, after, diff)
}

// PostHostEvent handles POST /runs/{runID}/events. The embedding page
// reports size changes here and they are relayed to every subscriber.
func (s *Server) PostHostEvent(w http.ResponseWriter, r *http.Request) {
	var ev domain.HostEvent
	if err := s.decode(r, &ev); err != nil {
		s.badRequest(w, r, err)
		return
	}
	if ev.Type != domain.HostSizeChanged {
		s.writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("hosts may only send %q events", domain.HostSizeChanged))
		return
	}
	if ev.Height <= 0 {
		s.badRequest(w, r, errors.New("height must be positive"))
		return
	}
	s.Streams.Emit(r.Context(), domain.SizeChanged(chi.URLParam(r, "runID"), ev.Height))
	w.WriteHeader(http.StatusAccepted)
}

// SubscribeEvents handles GET /runs/{runID}/events (SSE). The stream
// carries "diff" frames after each step and "host" frames for host events.
// ?watch=score,status,answers,result,gamification,host narrows it.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	runID := chi.URLParam(r, "runID")

	var watch []string
	if v := r.URL.Query().Get("watch"); v != "" {
		for _, f := range strings.Split(v, ",") {
			watch = append(watch, strings.TrimSpace(f))
		}
	}

	ch, cancel := s.Streams.Subscribe(runID)
	defer cancel()

	sseHeaders(w)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.logger.Debug("SSE: subscribed", "run", runID)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE: client disconnected", "run", runID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watch) > 0 && !wanted(msg, watch) {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, msg.Data)
			flusher.Flush()
		}
	}
}

// WatchQuizzes handles GET /events: one frame per changed quiz id, for
// authoring tools that reload on save.
func (s *Server) WatchQuizzes(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	events, err := s.Engine.Watch(r.Context())
	if err != nil {
		s.writeError(w, http.StatusNotImplemented, err.Error())
		return
	}

	sseHeaders(w)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case id, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: reload\ndata: %s\n\n", id)
			flusher.Flush()
		}
	}
}

func sseHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}

// wanted applies the ?watch filter to a frame.
func wanted(msg Frame, fields []string) bool {
	if msg.Event == EventHost {
		for _, f := range fields {
			if f == EventHost {
				return true
			}
		}
		return false
	}

	var diff domain.StateDiff
	if err := json.Unmarshal(msg.Data, &diff); err != nil {
		return true
	}
	for _, f := range fields {
		switch f {
		case "score":
			if diff.Score != nil {
				return true
			}
		case "status":
			if diff.Status != nil {
				return true
			}
		case "answers":
			if len(diff.Answers) > 0 {
				return true
			}
		case "result":
			if diff.Result != nil {
				return true
			}
		case "gamification":
			if diff.Gamification != nil {
				return true
			}
		}
	}
	return false
}

func (s *Server) respondRun(w http.ResponseWriter, r *http.Request, status int, st *domain.RunState, diff *domain.StateDiff) {
	resp := RunResponse{State: st, Diff: diff}
	prompt, err := s.Engine.Current(r.Context(), st)
	switch {
	case err == nil:
		resp.Prompt = prompt
	case !errors.Is(err, domain.ErrNotAwaitingInput):
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) decode(r *http.Request, v any) error {
	if r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, MaxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Warn("bad request", "path", r.URL.Path, "err", err)
	s.writeError(w, http.StatusBadRequest, err.Error())
}

// fail maps engine and storage errors onto status codes.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		invalid    *domain.InvalidInputError
		structural *domain.StructuralError
	)
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrRunNotFound), errors.Is(err, domain.ErrQuizNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrRunFinished), errors.Is(err, domain.ErrNotAwaitingInput):
		status = http.StatusConflict
	case errors.As(err, &invalid), errors.As(err, &structural):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	}
	s.writeError(w, status, err.Error())
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
