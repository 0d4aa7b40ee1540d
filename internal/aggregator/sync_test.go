package aggregator_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/daedal00/muse/internal/aggregator"
	"github.com/daedal00/muse/internal/library"
	"github.com/daedal00/muse/internal/provider/providertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSyncWithOneFailingProvider covers the observed sync-state sequence
// when one of two registered providers fails: both providers sync
// independently, the failing one ending in SyncError rather than aborting
// the whole tick.
func TestSyncWithOneFailingProvider(t *testing.T) {
	lib := library.NewMemStore()
	t.Cleanup(func() { _ = lib.Close() })
	agg := aggregator.New(lib, nil, nil, time.Hour)

	failing := providertest.New("fail", "fail")
	failing.SyncErr = errors.New("network unreachable")

	okProv := providertest.New("ok", "ok")
	agg.RegisterProvider(okProv)
	agg.RegisterProvider(failing)

	events, cancel := agg.SubscribeSyncState()
	defer cancel()

	agg.RunSyncNow(context.Background())

	var sawError, sawDone, sawIdle bool
	deadline := time.After(time.Second)
	for !sawIdle {
		select {
		case e := <-events:
			if e.Kind == aggregator.SyncEventIdle {
				sawIdle = true
				continue
			}
			for _, s := range e.Statuses {
				if s.Tag == "ok" && s.State == aggregator.SyncDone {
					sawDone = true
				}
				if s.Tag == "fail" && s.State == aggregator.SyncError {
					sawError = true
				}
			}
		case <-deadline:
			t.Fatal("timed out waiting for sync tick to finish")
		}
	}

	assert.True(t, sawDone, "expected the healthy provider to reach Done")
	assert.True(t, sawError, "expected the failing provider to reach Error")
	assert.Equal(t, 1, okProv.SyncCalls)
	assert.Equal(t, 1, failing.SyncCalls)
}

func TestSyncIncludesNoAuthNeededProviders(t *testing.T) {
	lib := library.NewMemStore()
	t.Cleanup(func() { _ = lib.Close() })
	agg := aggregator.New(lib, nil, nil, time.Hour)

	p := providertest.New("local", "local")
	p.Authenticated = false
	p.NoAuthNeeded = true
	agg.RegisterProvider(p)

	agg.RunSyncNow(context.Background())

	require.Equal(t, 1, p.SyncCalls)
}

func TestSyncSkipsUnauthenticatedProviders(t *testing.T) {
	lib := library.NewMemStore()
	t.Cleanup(func() { _ = lib.Close() })
	agg := aggregator.New(lib, nil, nil, time.Hour)

	p := providertest.New("unauth", "unauth")
	p.Authenticated = false
	agg.RegisterProvider(p)

	agg.RunSyncNow(context.Background())

	require.Equal(t, 0, p.SyncCalls)
}
