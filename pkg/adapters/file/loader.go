package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/codec"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
)

// DefaultDebounce coalesces the burst of events editors emit on save.
const DefaultDebounce = 150 * time.Millisecond

var extensions = []string{".json", ".yaml", ".yml"}

// rangesSuffix marks a sidecar file holding the score ranges of a quiz,
// e.g. "intro.ranges.yaml" next to "intro.json".
const rangesSuffix = ".ranges"

// Loader implements ports.GraphLoader and ports.Watchable over a directory
// of quiz documents. The file name without extension is the quiz id. A
// "<id>.ranges.*" sidecar, when present, replaces the document's ranges.
type Loader struct {
	Dir      string
	Debounce time.Duration
	Logger   *slog.Logger
}

// NewLoader creates a Loader rooted at dir.
func NewLoader(dir string) *Loader {
	return &Loader{
		Dir:      dir,
		Debounce: DefaultDebounce,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (l *Loader) find(name string) (string, bool) {
	for _, ext := range extensions {
		p := filepath.Join(l.Dir, name+ext)
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

// LoadGraph reads and decodes the quiz document. Legacy documents are
// upgraded in memory; the file on disk is left alone.
func (l *Loader) LoadGraph(_ context.Context, quizID string) (*domain.Graph, error) {
	if quizID == "" || strings.ContainsAny(quizID, `/\`) || quizID == "." || quizID == ".." || strings.HasSuffix(quizID, rangesSuffix) {
		return nil, fmt.Errorf("%w: invalid id %q", domain.ErrQuizNotFound, quizID)
	}
	path, ok := l.find(quizID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrQuizNotFound, quizID)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read quiz %s: %w", quizID, err)
	}
	g, rep, err := codec.Decode(data, codec.FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to decode quiz %s: %w", quizID, err)
	}
	if rep.Changed() {
		l.Logger.Info("quiz upgraded on load", "quiz", quizID, "from", rep.From, "nodes", rep.NodesUpgraded)
	}
	if g.ID == "" {
		g.ID = quizID
	}

	if rpath, ok := l.find(quizID + rangesSuffix); ok {
		data, err := os.ReadFile(rpath)
		if err != nil {
			return nil, fmt.Errorf("failed to read ranges of %s: %w", quizID, err)
		}
		ranges, err := codec.DecodeRanges(data, codec.FormatFromPath(rpath))
		if err != nil {
			return nil, fmt.Errorf("failed to decode ranges of %s: %w", quizID, err)
		}
		g.Ranges = ranges
	}
	return g, nil
}

// ListGraphs returns the ids of every quiz document in Dir.
func (l *Loader) ListGraphs(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}
	seen := map[string]bool{}
	ids := []string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if id, ok := quizID(e.Name()); ok && !strings.HasSuffix(id, rangesSuffix) && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func quizID(name string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	for _, known := range extensions {
		if ext == known {
			return strings.TrimSuffix(name, filepath.Ext(name)), true
		}
	}
	return "", false
}

// owner maps a changed file to the quiz it belongs to.
func owner(name string) (string, bool) {
	id, ok := quizID(name)
	if !ok {
		return "", false
	}
	return strings.TrimSuffix(id, rangesSuffix), true
}

// Watch implements ports.Watchable. It emits the id of each quiz whose
// file was written, created, renamed or removed. The channel is closed
// when ctx is done.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to start watcher: %w", err)
	}
	if err := w.Add(l.Dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", l.Dir, err)
	}

	ch := make(chan string, 1)
	go func() {
		defer close(ch)
		defer w.Close()

		pending := map[string]bool{}
		timer := time.NewTimer(time.Hour)
		timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-w.Events:
				if !ok {
					return
				}
				if evt.Op == fsnotify.Chmod {
					continue
				}
				id, ok := owner(filepath.Base(evt.Name))
				if !ok {
					continue
				}
				pending[id] = true
				timer.Reset(l.Debounce)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				if errors.Is(err, fsnotify.ErrEventOverflow) {
					// Changes were lost; tell the caller to reload everything.
					pending[""] = true
					timer.Reset(l.Debounce)
					continue
				}
				l.Logger.Warn("watcher error", "err", err)
			case <-timer.C:
				ids := make([]string, 0, len(pending))
				for id := range pending {
					ids = append(ids, id)
				}
				sort.Strings(ids)
				clear(pending)
				for _, id := range ids {
					select {
					case ch <- id:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()
	return ch, nil
}
