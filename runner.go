package quizflow

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/internal/presentation/tui"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
)

// ErrQuit is returned by Runner.Run when the respondent types "quit".
var ErrQuit = errors.New("quit")

// Runner plays a quiz over a line-oriented terminal.
// This allows for easy testing and integration with different frontends.
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer ContentRenderer

	// Now measures answer time. Defaults to time.Now.
	Now func() time.Time
}

// ContentRenderer transforms markdown before it is printed, for example to
// ANSI through glamour.
type ContentRenderer func(string) (string, error)

// Run plays quizID until the run finishes and returns the final state.
// Invalid answers are reported and asked again.
func (r *Runner) Run(ctx context.Context, engine *Engine, quizID, runID string) (*domain.RunState, error) {
	if r.Input == nil {
		return nil, fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return nil, fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	now := r.Now
	if now == nil {
		now = time.Now
	}
	lines := bufio.NewReader(r.Input)

	state, err := engine.Start(ctx, quizID, runID)
	if err != nil {
		return nil, err
	}

	for !state.Finished() {
		prompt, err := engine.Current(ctx, state)
		if err != nil {
			return state, fmt.Errorf("render error: %w", err)
		}
		r.print(tui.PromptMarkdown(prompt))

		shown := now()
		if !r.Headless {
			fmt.Fprint(r.Output, "> ")
		}
		text, err := lines.ReadString('\n')
		if err != nil && (err != io.EOF || text == "") {
			if err == io.EOF {
				return state, io.ErrUnexpectedEOF
			}
			return state, fmt.Errorf("input error: %w", err)
		}
		text = strings.TrimSpace(text)
		if text == "quit" || text == "exit" {
			return state, ErrQuit
		}

		elapsed := now().Sub(shown)
		var next *domain.RunState
		if prompt.TimeLimit > 0 && elapsed > prompt.TimeLimit {
			fmt.Fprintln(r.Output, "Time is up.")
			next, err = engine.Timeout(ctx, state)
		} else {
			var outcome domain.Outcome
			outcome, err = ParseAnswer(prompt.Element, text)
			if err == nil {
				next, err = engine.Submit(ctx, state, domain.Input{Outcome: outcome, Elapsed: elapsed})
			}
		}

		var invalid *domain.InvalidInputError
		if errors.As(err, &invalid) || errors.Is(err, errUnparsable) {
			fmt.Fprintf(r.Output, "Invalid answer: %v\n", err)
			continue
		}
		if err != nil {
			return state, fmt.Errorf("submit error: %w", err)
		}
		state = next
	}

	r.print(tui.ResultMarkdown(state))
	return state, nil
}

func (r *Runner) print(md string) {
	out := md
	if r.Renderer != nil {
		if rendered, err := r.Renderer(md); err == nil {
			out = rendered
		}
	}
	fmt.Fprintln(r.Output, strings.TrimSpace(out))
}

var errUnparsable = errors.New("unparsable answer")

// ParseAnswer turns a typed line into an outcome for el.
//
//   - choice: option numbers, comma separated for multi choice
//   - rating: the value
//   - open text: the text, capped at the element's limit
//   - lead form: name=value pairs separated by ";", each capped by field type
//   - game: a segment number, or empty to let the game pick the first
//   - swipe: "l" or "r"
//
// An empty line skips optional elements.
func ParseAnswer(el domain.Element, line string) (domain.Outcome, error) {
	switch v := el.(type) {
	case *domain.ChoiceElement:
		if line == "" {
			return domain.SkipOutcome{}, nil
		}
		var ids []string
		for _, part := range strings.Split(line, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || n < 1 || n > len(v.Options) {
				return nil, fmt.Errorf("%w: %q is not an option number", errUnparsable, part)
			}
			ids = append(ids, v.Options[n-1].ID)
		}
		return domain.ChoiceOutcome{OptionIDs: ids}, nil
	case *domain.RatingElement:
		n, err := strconv.Atoi(line)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", errUnparsable, line)
		}
		return domain.RatingOutcome{Value: n}, nil
	case *domain.OpenTextElement:
		text, err := cleanAnswer(line, v.Limit(), v.Multiline)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errUnparsable, err)
		}
		if text == "" {
			return domain.SkipOutcome{}, nil
		}
		return domain.TextOutcome{Text: text}, nil
	case *domain.LeadFormElement:
		if line == "" {
			return domain.SkipOutcome{}, nil
		}
		fields := map[string]string{}
		for _, pair := range strings.Split(line, ";") {
			k, val, ok := strings.Cut(pair, "=")
			if !ok {
				return nil, fmt.Errorf("%w: expected name=value, got %q", errUnparsable, pair)
			}
			fields[strings.TrimSpace(k)] = val
		}
		if err := cleanLead(v, fields); err != nil {
			return nil, fmt.Errorf("%w: %w", errUnparsable, err)
		}
		return domain.LeadOutcome{Fields: fields}, nil
	case *domain.GameElement:
		if len(v.Segments) == 0 {
			text, err := cleanAnswer(line, maxGameText, false)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", errUnparsable, err)
			}
			return domain.GameOutcome{Text: text}, nil
		}
		n := 1
		if line != "" {
			var err error
			if n, err = strconv.Atoi(line); err != nil || n < 1 || n > len(v.Segments) {
				return nil, fmt.Errorf("%w: %q is not a segment number", errUnparsable, line)
			}
		}
		return domain.GameOutcome{SegmentID: v.Segments[n-1].ID}, nil
	case *domain.SwipeElement:
		switch strings.ToLower(line) {
		case "l", "left":
			return domain.SwipeOutcome{Direction: domain.SwipeLeft}, nil
		case "r", "right":
			return domain.SwipeOutcome{Direction: domain.SwipeRight}, nil
		}
		return nil, fmt.Errorf("%w: swipe with l or r", errUnparsable)
	}
	return nil, fmt.Errorf("%w: element %T takes no answer", errUnparsable, el)
}
