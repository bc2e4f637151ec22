package middleware_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"testing"

	"github.com/aretw0/quoteflow/pkg/domain"
	"github.com/aretw0/quoteflow/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSession(id string) *domain.Session {
	s := domain.NewSession(id)
	s.Channel = "autospec"
	s.ActiveStepID = "contact"
	s.Snapshot.StepSelections["vehicle"] = []string{"hilux-2020"}
	s.Snapshot.FieldValues["contact"] = map[string]string{"email": "ada@example.com"}
	return s
}

func TestEncryptionMiddleware_RoundTrip(t *testing.T) {
	ctx := context.Background()
	key := bytes.Repeat([]byte("k"), 32)

	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
	require.NoError(t, err)

	underlying := NewMockStore()
	secure := mw(underlying)

	original := sampleSession("s1")
	require.NoError(t, secure.Save(ctx, "s1", original))

	// The underlying record must not leak anything but the id.
	raw, err := underlying.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, middleware.EnvelopeVersion, raw.Snapshot.Version)
	assert.Empty(t, raw.Snapshot.StepSelections)
	assert.Empty(t, raw.Channel)
	assert.Empty(t, raw.ActiveStepID)
	assert.NotContains(t, raw.Snapshot.FieldValues["__encrypted__"]["data"], "ada@example.com")

	loaded, err := secure.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, original.Snapshot, loaded.Snapshot)
	assert.Equal(t, "autospec", loaded.Channel)
	assert.Equal(t, "contact", loaded.ActiveStepID)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	ctx := context.Background()
	oldKey := bytes.Repeat([]byte("o"), 32)
	newKey := bytes.Repeat([]byte("n"), 32)
	underlying := NewMockStore()

	mwOld, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})
	require.NoError(t, err)
	secureOld := mwOld(underlying)
	require.NoError(t, secureOld.Save(ctx, "s1", sampleSession("s1")))

	mwNew, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})
	require.NoError(t, err)
	secureNew := mwNew(underlying)

	loaded, err := secureNew.Load(ctx, "s1")
	require.NoError(t, err, "fallback key should decrypt old records")
	assert.Equal(t, []string{"hilux-2020"}, loaded.Snapshot.StepSelections["vehicle"])

	// Re-saving seals with the new key, so the old-only middleware fails.
	require.NoError(t, secureNew.Save(ctx, "s1", loaded))
	_, err = secureOld.Load(ctx, "s1")
	assert.Error(t, err)
}

func TestEncryptionMiddleware_RejectsPlainRecords(t *testing.T) {
	ctx := context.Background()
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: bytes.Repeat([]byte("k"), 32)})
	require.NoError(t, err)

	underlying := NewMockStore()
	require.NoError(t, underlying.Save(ctx, "plain", sampleSession("plain")))

	_, err = mw(underlying).Load(ctx, "plain")
	assert.ErrorContains(t, err, "envelope")
}

func TestEncryptionMiddleware_PassesThrough(t *testing.T) {
	ctx := context.Background()
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: bytes.Repeat([]byte("k"), 32)})
	require.NoError(t, err)

	underlying := NewMockStore()
	secure := mw(underlying)
	require.NoError(t, secure.Save(ctx, "b", sampleSession("b")))
	require.NoError(t, secure.Save(ctx, "a", sampleSession("a")))

	ids, err := secure.(interface {
		List(context.Context) ([]string, error)
	}).List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	require.NoError(t, secure.Delete(ctx, "a"))
	_, err = secure.Load(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	assert.Error(t, err)
}

func TestDecodeKey(t *testing.T) {
	key := bytes.Repeat([]byte("k"), 32)
	decoded, err := middleware.DecodeKey(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, decoded)

	_, err = middleware.DecodeKey(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.Error(t, err)
	_, err = middleware.DecodeKey("%%%")
	assert.Error(t, err)
}
