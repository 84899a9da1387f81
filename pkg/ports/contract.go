package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
)

// RunStoreContract runs a suite of tests to verify that a RunStore
// implementation adheres to the interface contract.
func RunStoreContract(t *testing.T, store RunStore) {
	ctx := context.Background()
	runID := "contract-test-run-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.NewRunState(runID, "quiz", "start")
		state.Score = 7
		state.Contact = map[string]string{"email": "ada@example.com"}
		state.Answers = append(state.Answers, domain.AnswerRecord{
			NodeID:    "q1",
			ElementID: "e1",
			Outcome:   domain.ChoiceOutcome{OptionIDs: []string{"a"}},
			Delta:     7,
		})

		err := store.Save(ctx, runID, state)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, state.CurrentNodeID, loaded.CurrentNodeID)
		assert.Equal(t, 7, loaded.Score)
		require.Len(t, loaded.Answers, 1)
		assert.Equal(t, domain.ChoiceOutcome{OptionIDs: []string{"a"}}, loaded.Answers[0].Outcome)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, runID, domain.NewRunState(runID, "quiz", "start"))
		require.NoError(t, err)

		err = store.Delete(ctx, runID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound, "Load after Delete should return ErrRunNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := runID + "-1"
		id2 := runID + "-2"
		_ = store.Save(ctx, id1, domain.NewRunState(id1, "quiz", "start"))
		_ = store.Save(ctx, id2, domain.NewRunState(id2, "quiz", "start"))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		runs, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, runs, id1)
		assert.Contains(t, runs, id2)
	})
}

// GraphLoaderContract verifies that a GraphLoader serves every expected
// quiz and reports unknown ids with domain.ErrQuizNotFound.
func GraphLoaderContract(t *testing.T, loader GraphLoader, expected ...string) {
	t.Helper()
	ctx := context.Background()

	t.Run("LoadGraph", func(t *testing.T) {
		for _, id := range expected {
			g, err := loader.LoadGraph(ctx, id)
			require.NoError(t, err, "quiz %s", id)
			assert.NotEmpty(t, g.Nodes, "quiz %s has no nodes", id)
		}
	})

	t.Run("LoadGraph NotFound", func(t *testing.T) {
		_, err := loader.LoadGraph(ctx, "non-existent-quiz")
		assert.ErrorIs(t, err, domain.ErrQuizNotFound)
	})

	t.Run("ListGraphs", func(t *testing.T) {
		ids, err := loader.ListGraphs(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, expected, ids)
	})
}
