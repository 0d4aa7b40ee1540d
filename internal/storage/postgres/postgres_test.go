package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/daedal00/muse/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testOpener *Opener

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		fmt.Println("No DATABASE_URL or TEST_DATABASE_URL set, skipping postgres storage tests")
		os.Exit(0)
	}

	var err error
	testOpener, err = NewOpener(context.Background(), dsn)
	if err != nil {
		fmt.Printf("Warning: could not connect to test database: %v\n", err)
		fmt.Println("Skipping postgres storage tests")
		os.Exit(0)
	}
	defer testOpener.Close()

	os.Exit(m.Run())
}

func TestCollectionPutGet(t *testing.T) {
	if testOpener == nil {
		t.Skip("database not available")
	}
	ctx := context.Background()
	col, err := testOpener.Collection(ctx, "test_put_get")
	require.NoError(t, err)

	require.NoError(t, col.Put(ctx, "k1", []byte("v1")))
	v, err := col.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), v)

	_ = col.Delete(ctx, "k1")
}

func TestCollectionGetMissingReturnsErrNotFound(t *testing.T) {
	if testOpener == nil {
		t.Skip("database not available")
	}
	ctx := context.Background()
	col, err := testOpener.Collection(ctx, "test_missing")
	require.NoError(t, err)

	_, err = col.Get(ctx, "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCollectionPutOverwritesOnConflict(t *testing.T) {
	if testOpener == nil {
		t.Skip("database not available")
	}
	ctx := context.Background()
	col, err := testOpener.Collection(ctx, "test_overwrite")
	require.NoError(t, err)
	defer col.Delete(ctx, "k")

	require.NoError(t, col.Put(ctx, "k", []byte("first")))
	require.NoError(t, col.Put(ctx, "k", []byte("second")))

	v, err := col.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), v)
}

func TestCollectionKeysIsolatedPerCollection(t *testing.T) {
	if testOpener == nil {
		t.Skip("database not available")
	}
	ctx := context.Background()
	a, err := testOpener.Collection(ctx, "test_keys_a")
	require.NoError(t, err)
	b, err := testOpener.Collection(ctx, "test_keys_b")
	require.NoError(t, err)
	defer a.Delete(ctx, "x")

	require.NoError(t, a.Put(ctx, "x", []byte("1")))

	keysB, err := b.Keys(ctx)
	require.NoError(t, err)
	assert.NotContains(t, keysB, "x")
}

func TestCollectionDeleteMissingIsNoOp(t *testing.T) {
	if testOpener == nil {
		t.Skip("database not available")
	}
	ctx := context.Background()
	col, err := testOpener.Collection(ctx, "test_delete_missing")
	require.NoError(t, err)
	assert.NoError(t, col.Delete(ctx, "never-existed"))
}
