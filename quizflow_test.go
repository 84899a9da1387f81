package quizflow_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	quizflow "github.com/marcobahe/quiz-maker-fullfunnel-sub001"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/dsl"
)

func colourQuiz() *dsl.Builder {
	b := dsl.New("colours")
	b.Start("start").Go("q1")
	b.Composite("q1").
		Single("fav", "Favourite colour?", dsl.Opt("red", "Red", 1), dsl.Opt("blue", "Blue", 4)).
		Go("done")
	b.Result("done")
	b.Range(0, 2, "Warm").Range(3, 4, "Cool")
	return b
}

func TestEngine_WithLoader(t *testing.T) {
	eng, err := quizflow.New("", quizflow.WithLoader(colourQuiz().Loader()))
	require.NoError(t, err)
	ctx := context.Background()

	st, err := eng.Start(ctx, "colours", "")
	require.NoError(t, err)
	assert.NotEmpty(t, st.RunID, "a run id is generated")

	prompt, err := eng.Current(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, "fav", prompt.Element.ElementID())

	final, err := eng.Submit(ctx, st, domain.Input{Outcome: domain.ChoiceOutcome{OptionIDs: []string{"blue"}}})
	require.NoError(t, err)
	assert.True(t, final.Finished())
	assert.Equal(t, "Cool", final.Result.Category)

	replayed, err := eng.Replay(ctx, "colours", st.RunID, []domain.Input{{Outcome: domain.ChoiceOutcome{OptionIDs: []string{"blue"}}}})
	require.NoError(t, err)
	assert.Equal(t, final.Score, replayed.Score)
	assert.Equal(t, final.Result, replayed.Result)
}

func TestEngine_UnknownQuiz(t *testing.T) {
	eng, err := quizflow.New("", quizflow.WithLoader(colourQuiz().Loader()))
	require.NoError(t, err)

	_, err = eng.Start(context.Background(), "nope", "")
	assert.ErrorIs(t, err, domain.ErrQuizNotFound)
}

func TestEngine_RequiresDirWithoutLoader(t *testing.T) {
	_, err := quizflow.New("")
	assert.Error(t, err)
}

func TestEngine_StructuralErrorBlocksStart(t *testing.T) {
	b := dsl.New("broken")
	b.Composite("q1").Single("e", "?", dsl.Opt("a", "A", 1)).Go("done")
	b.Result("done")

	eng, err := quizflow.New("", quizflow.WithLoader(b.Loader()))
	require.NoError(t, err)

	_, err = eng.Start(context.Background(), "broken", "")
	var structural *domain.StructuralError
	require.ErrorAs(t, err, &structural)
	assert.Equal(t, "missing_start", structural.Code)
}

func TestEngine_DirectoryWatchInvalidatesCache(t *testing.T) {
	dir := t.TempDir()
	data, err := os.ReadFile(filepath.Join("pkg", "codec", "testdata", "quiz.json"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sample.json"), data, 0o644))

	eng, err := quizflow.New(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(dir), eng.Name)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ids, err := eng.Quizzes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"sample"}, ids)

	first, err := eng.Quiz(ctx, "sample")
	require.NoError(t, err)
	cached, err := eng.Quiz(ctx, "sample")
	require.NoError(t, err)
	assert.Same(t, first, cached)

	events, err := eng.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "sample.json"), data, 0o644))
	select {
	case id := <-events:
		assert.Equal(t, "sample", id)
	case <-time.After(5 * time.Second):
		t.Fatal("no change event")
	}

	reloaded, err := eng.Quiz(ctx, "sample")
	require.NoError(t, err)
	assert.NotSame(t, first, reloaded)
}

func TestEngine_WatchUnsupported(t *testing.T) {
	eng, err := quizflow.New("", quizflow.WithLoader(colourQuiz().Loader()))
	require.NoError(t, err)
	_, err = eng.Watch(context.Background())
	assert.Error(t, err)
}
