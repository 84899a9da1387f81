package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/adapters/memory"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/persistence/middleware"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, 32)
	_, err := rand.Read(k)
	require.NoError(t, err)
	return k
}

func sealed(t *testing.T, next ports.RunStore, cfg middleware.EncryptionConfig) ports.RunStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	require.NoError(t, err)
	return mw(next)
}

func contactState() *domain.RunState {
	st := domain.NewRunState("run", "quiz", "start")
	st.Score = 12
	st.Contact = map[string]string{"email": "ada@example.com"}
	return st
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	secure := sealed(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ctx := context.Background()

	require.NoError(t, secure.Save(ctx, "run", contactState()))

	raw, err := underlying.Load(ctx, "run")
	require.NoError(t, err)
	assert.NotEmpty(t, raw.Sealed)
	assert.Empty(t, raw.Contact)
	assert.Zero(t, raw.Score)
	assert.Equal(t, "quiz", raw.QuizID)

	loaded, err := secure.Load(ctx, "run")
	require.NoError(t, err)
	assert.Equal(t, 12, loaded.Score)
	assert.Equal(t, "ada@example.com", loaded.Contact["email"])
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	ports.RunStoreContract(t, sealed(t, memory.NewStore(), middleware.EncryptionConfig{ActiveKey: generateKey(t)}))
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)
	ctx := context.Background()

	require.NoError(t, sealed(t, underlying, middleware.EncryptionConfig{ActiveKey: oldKey}).Save(ctx, "run", contactState()))

	rotated := sealed(t, underlying, middleware.EncryptionConfig{ActiveKey: newKey, FallbackKeys: [][]byte{oldKey}})
	loaded, err := rotated.Load(ctx, "run")
	require.NoError(t, err)
	assert.Equal(t, 12, loaded.Score)

	_, err = sealed(t, underlying, middleware.EncryptionConfig{ActiveKey: newKey}).Load(ctx, "run")
	assert.Error(t, err, "an unknown key cannot open the envelope")
}

func TestEncryptionMiddleware_RejectsPlainState(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, underlying.Save(ctx, "run", contactState()))

	_, err := sealed(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)}).Load(ctx, "run")
	assert.Error(t, err)
}

func TestParseKey(t *testing.T) {
	key := generateKey(t)
	got, err := middleware.ParseKey(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	_, err = middleware.ParseKey(base64.StdEncoding.EncodeToString(key[:16]))
	assert.Error(t, err)

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key[:16]})
	assert.Error(t, err)
}
