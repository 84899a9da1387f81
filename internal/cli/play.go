package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	quizflow "github.com/marcobahe/quiz-maker-fullfunnel-sub001"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/internal/config"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/internal/presentation/tui"
)

// PlayOptions configures the play command.
type PlayOptions struct {
	Config   *config.Config
	QuizID   string
	RunID    string
	Save     bool
	Headless bool

	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Play runs a quiz in the terminal. Finished runs go through the configured
// dispatch targets; with Save the final state is written to the run store
// so it can be replayed later.
func Play(ctx context.Context, opts PlayOptions) (err error) {
	logger, err := createLogger(opts.Err, opts.Config.Log)
	if err != nil {
		return err
	}

	stack, err := createStack(opts.Config, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stack.Close(context.Background()); cerr != nil && err == nil {
			err = cerr
		}
	}()

	r := &quizflow.Runner{
		Input:    NewInterruptibleReader(opts.In, ctx.Done()),
		Output:   opts.Out,
		Headless: opts.Headless || !isTerminal(opts.In) || !isTerminal(opts.Out),
	}
	if !r.Headless {
		tui.PrintBanner(opts.Out, quizflow.Version)
		if render, rerr := tui.NewRenderer(0); rerr == nil {
			r.Renderer = render
		}
	}

	state, err := r.Run(ctx, stack.Engine, opts.QuizID, opts.RunID)
	if err != nil {
		if isInterrupted(err) && state != nil {
			printSystemMessage(opts.Out, "Stopped at '%s' node.", state.CurrentNodeID)
		}
		return handleExecutionError(err)
	}

	if opts.Save {
		if err := stack.Sessions.Save(ctx, state.RunID, state); err != nil {
			return fmt.Errorf("save run: %w", err)
		}
		printSystemMessage(opts.Out, "Run saved as '%s'.", state.RunID)
	}
	return nil
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
