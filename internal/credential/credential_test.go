package credential

import (
	"context"
	"testing"

	"github.com/daedal00/muse/internal/provider"
	"github.com/daedal00/muse/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	key, err := GenerateKey()
	require.NoError(t, err)

	s, err := NewStore(context.Background(), storage.NewMemoryOpener(), key)
	require.NoError(t, err)
	return s
}

func TestPutThenGetRoundTripsCredentials(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	want := provider.Credentials{
		Kind:     provider.CredentialsToken,
		Username: "alice",
	}
	require.NoError(t, s.Put(ctx, "fake", want))

	got, err := s.Get(ctx, "fake")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.Kind, got.Kind)
	assert.Equal(t, want.Username, got.Username)
}

func TestGetMissingTagReturnsNilNotError(t *testing.T) {
	s := newTestStore(t)
	got, err := s.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStoredCredentialsAreNotPlaintextOnDisk(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	secret := "super-secret-password"
	require.NoError(t, s.Put(ctx, "fake", provider.Credentials{
		Kind:     provider.CredentialsPassword,
		Username: "bob",
		Password: secret,
	}))

	raw, err := s.collection.Get(ctx, "fake")
	require.NoError(t, err)
	assert.NotContains(t, string(raw), secret)
}

func TestWrongKeyFailsToDecrypt(t *testing.T) {
	opener := storage.NewMemoryOpener()
	key1, err := GenerateKey()
	require.NoError(t, err)
	key2, err := GenerateKey()
	require.NoError(t, err)

	s1, err := NewStore(context.Background(), opener, key1)
	require.NoError(t, err)
	s2, err := NewStore(context.Background(), opener, key2)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s1.Put(ctx, "fake", provider.Credentials{Kind: provider.CredentialsToken}))

	_, err = s2.Get(ctx, "fake")
	assert.Error(t, err)
}

func TestDeleteMissingIsNoOp(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Delete(context.Background(), "absent"))
}

func TestNewStoreRejectsMalformedKey(t *testing.T) {
	_, err := NewStore(context.Background(), storage.NewMemoryOpener(), "not-base64!!")
	assert.Error(t, err)

	_, err = NewStore(context.Background(), storage.NewMemoryOpener(), "dG9vc2hvcnQ=")
	assert.Error(t, err)
}
