package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	quizflow "github.com/marcobahe/quiz-maker-fullfunnel-sub001"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/internal/config"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/internal/logging"
)

// SignalContext is cancelled on SIGINT or SIGTERM and remembers which
// signal arrived, so commands can tell an interrupt from a failure.
type SignalContext struct {
	context.Context
	Cancel context.CancelFunc

	mu  sync.Mutex
	sig os.Signal
}

// NewSignalContext derives a SignalContext from parent.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{Context: ctx, Cancel: cancel}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(ch)
		select {
		case sig := <-ch:
			sc.mu.Lock()
			sc.sig = sig
			sc.mu.Unlock()
			cancel()
		case <-ctx.Done():
		}
	}()
	return sc
}

// Signal returns the signal that cancelled the context, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sig
}

// createLogger configures the application logger from cfg. It writes to
// w, which is stderr for commands so stdout stays clean for output.
func createLogger(w io.Writer, cfg config.Log) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	return logging.NewWithWriter(w, level, format), nil
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, quizflow.ErrQuit) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}

// handleExecutionError maps interruptions to a clean exit.
func handleExecutionError(err error) error {
	if err == nil || isInterrupted(err) {
		return nil
	}
	return err
}

// InterruptibleReader fails reads with context.Canceled once done is
// closed. A read already blocked in the underlying reader still completes,
// but its data is discarded.
type InterruptibleReader struct {
	r    io.Reader
	done <-chan struct{}
}

func NewInterruptibleReader(r io.Reader, done <-chan struct{}) *InterruptibleReader {
	return &InterruptibleReader{r: r, done: done}
}

func (ir *InterruptibleReader) Read(p []byte) (int, error) {
	if ir.cancelled() {
		return 0, context.Canceled
	}
	n, err := ir.r.Read(p)
	if ir.cancelled() {
		return 0, context.Canceled
	}
	return n, err
}

func (ir *InterruptibleReader) cancelled() bool {
	select {
	case <-ir.done:
		return true
	default:
		return false
	}
}
