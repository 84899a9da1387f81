package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	quizflow "github.com/marcobahe/quiz-maker-fullfunnel-sub001"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/internal/config"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/adapters/file"
	quizhttp "github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/adapters/http"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/adapters/memory"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/adapters/redis"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/dispatch"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/observability"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/persistence/middleware"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/ports"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/session"
)

// Stack is everything a long-running command needs, built from config.
type Stack struct {
	Engine     *quizflow.Engine
	Sessions   *session.Manager
	Streams    *quizhttp.StreamManager
	Registry   *prometheus.Registry
	Metrics    *observability.Metrics
	Dispatcher *dispatch.Async

	closers []func(context.Context) error
}

// Close drains the dispatcher and releases backends.
func (s *Stack) Close(ctx context.Context) error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i](ctx))
	}
	return errors.Join(errs...)
}

// createStack wires loader, store, dispatch and metrics around an engine.
func createStack(cfg *config.Config, logger *slog.Logger) (*Stack, error) {
	s := &Stack{Registry: prometheus.NewRegistry()}

	metrics, err := observability.NewMetrics(s.Registry)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	s.Metrics = metrics
	s.Registry.MustRegister(prometheus.NewGoCollector())

	store, locker, closeStore, err := createStore(cfg)
	if err != nil {
		return nil, err
	}
	if closeStore != nil {
		s.closers = append(s.closers, closeStore)
	}
	var sessOpts []session.Option
	if locker != nil {
		sessOpts = append(sessOpts, session.WithLocker(locker))
	}
	s.Sessions = session.NewManager(store, append(sessOpts, session.WithLogger(logger))...)

	s.Dispatcher = dispatch.NewAsync(createDeliverer(cfg, logger),
		dispatch.WithQueueSize(cfg.Dispatch.QueueSize),
		dispatch.WithWorkers(cfg.Dispatch.Workers),
		dispatch.WithLogger(logger),
		dispatch.WithDropHandler(metrics.DropHandler),
		dispatch.WithErrorHandler(metrics.ErrorHandler),
	)
	s.closers = append(s.closers, s.Dispatcher.Close)

	s.Streams = quizhttp.NewStreamManager(logger)

	s.Engine, err = quizflow.New(cfg.Graphs.Dir,
		quizflow.WithLogger(logger),
		quizflow.WithLifecycleHooks(observability.Combine(metrics.Hooks(), observability.LogHooks(logger))),
		quizflow.WithDispatcher(s.Dispatcher),
		quizflow.WithEventSink(s.Streams),
	)
	if err != nil {
		s.Close(context.Background())
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return s, nil
}

// createStore builds the configured RunStore with its middlewares.
func createStore(cfg *config.Config) (ports.RunStore, ports.DistributedLocker, func(context.Context) error, error) {
	var (
		store  ports.RunStore
		locker ports.DistributedLocker
		closer func(context.Context) error
	)
	switch cfg.Store.Backend {
	case config.StoreFile:
		store = file.NewStore(cfg.Store.Dir)
	case config.StoreRedis:
		var opts []redis.Option
		if cfg.Redis.TTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.Redis.TTL))
		}
		if cfg.Redis.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Redis.Prefix))
		}
		rs := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		if cfg.Redis.Lock {
			locker = redis.NewLocker(rs.Client(), "")
		}
		store = rs
		closer = func(context.Context) error { return rs.Close() }
	default:
		store = memory.NewStore()
	}

	var mws []middleware.Middleware
	if len(cfg.Privacy.PIIPatterns) > 0 {
		pii, err := middleware.NewPIIMiddleware(cfg.Privacy.PIIPatterns)
		if err != nil {
			return nil, nil, closer, fmt.Errorf("privacy.piiPatterns: %w", err)
		}
		mws = append(mws, pii)
	}
	if cfg.Privacy.EncryptionKey != "" {
		active, err := middleware.ParseKey(cfg.Privacy.EncryptionKey)
		if err != nil {
			return nil, nil, closer, fmt.Errorf("privacy.encryptionKey: %w", err)
		}
		ec := middleware.EncryptionConfig{ActiveKey: active}
		for i, k := range cfg.Privacy.FallbackKeys {
			key, err := middleware.ParseKey(k)
			if err != nil {
				return nil, nil, closer, fmt.Errorf("privacy.fallbackKeys[%d]: %w", i, err)
			}
			ec.FallbackKeys = append(ec.FallbackKeys, key)
		}
		enc, err := middleware.NewEncryptionMiddleware(ec)
		if err != nil {
			return nil, nil, closer, err
		}
		mws = append(mws, enc)
	}
	return middleware.Chain(store, mws...), locker, closer, nil
}

// createDeliverer always logs submissions and posts them to the webhook
// when one is configured.
func createDeliverer(cfg *config.Config, logger *slog.Logger) ports.Deliverer {
	targets := dispatch.Multi{dispatch.Log(logger)}
	if cfg.Webhook.URL == "" {
		return targets
	}
	opts := []dispatch.WebhookOption{dispatch.WithWebhookLogger(logger)}
	if cfg.Webhook.Timeout > 0 {
		opts = append(opts, dispatch.WithHTTPClient(&http.Client{Timeout: cfg.Webhook.Timeout}))
	}
	if cfg.Webhook.MaxAttempts > 0 {
		opts = append(opts, dispatch.WithMaxAttempts(cfg.Webhook.MaxAttempts))
	}
	if cfg.Webhook.Rate > 0 {
		opts = append(opts, dispatch.WithRateLimit(cfg.Webhook.Rate, cfg.Webhook.Burst))
	}
	for k, v := range cfg.Webhook.Headers {
		opts = append(opts, dispatch.WithHeader(k, v))
	}
	return append(targets, dispatch.NewWebhook(cfg.Webhook.URL, opts...))
}
