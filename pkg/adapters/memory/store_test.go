package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/adapters/memory"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	st := domain.NewRunState("r", "q", "start")
	require.NoError(t, store.Save(ctx, "r", st))

	st.Score = 99
	loaded, err := store.Load(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.Score)

	loaded.History = append(loaded.History, "mutated")
	again, _ := store.Load(ctx, "r")
	assert.Equal(t, []string{"start"}, again.History)
}
