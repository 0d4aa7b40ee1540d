package aggregator

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/daedal00/muse/internal/provider"
)

// SyncState discriminates a single provider's status within a sync tick.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncSyncing
	SyncDone
	SyncError
)

func (s SyncState) String() string {
	switch s {
	case SyncSyncing:
		return "syncing"
	case SyncDone:
		return "done"
	case SyncError:
		return "error"
	default:
		return "idle"
	}
}

// ProviderStatus pairs a provider tag with its status in the current tick.
type ProviderStatus struct {
	Tag   provider.Tag
	State SyncState
	Err   error
}

// SyncEventKind discriminates the two-variant sync-state event.
type SyncEventKind int

const (
	SyncEventSynchronizing SyncEventKind = iota
	SyncEventIdle
)

// SyncEvent is {Synchronizing(list) | Idle}.
type SyncEvent struct {
	Kind     SyncEventKind
	Statuses []ProviderStatus
}

// syncEventBuffer bounds how many pending events a late subscriber holds.
const syncEventBuffer = 8

// syncBroadcaster fans sync-state events out to subscribers, non-blocking,
// following the same pattern as player/bus.Bus's event side: late
// subscribers only ever see future events.
type syncBroadcaster struct {
	mu          sync.RWMutex
	subscribers map[chan SyncEvent]struct{}
}

func newSyncBroadcaster() *syncBroadcaster {
	return &syncBroadcaster{subscribers: make(map[chan SyncEvent]struct{})}
}

func (b *syncBroadcaster) subscribe() (<-chan SyncEvent, func()) {
	ch := make(chan SyncEvent, syncEventBuffer)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subscribers[ch]; ok {
			delete(b.subscribers, ch)
			close(ch)
		}
	}
	return ch, cancel
}

func (b *syncBroadcaster) publish(e SyncEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subscribers {
		select {
		case ch <- e:
		default:
		}
	}
}

// SubscribeSyncState exposes the aggregator's sync-state broadcast channel.
func (a *Aggregator) SubscribeSyncState() (<-chan SyncEvent, func()) {
	return a.broadcaster.subscribe()
}

// StartSyncLoop starts the periodic sync task on its own goroutine.
// Calling it twice is a caller error; Stop cancels the loop at its next
// await point (cooperative cancellation).
func (a *Aggregator) StartSyncLoop() {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.done = make(chan struct{})
	go a.runSyncLoop(ctx)
}

// Stop cancels the sync loop. An in-flight provider sync is allowed to
// finish before the loop observes cancellation; it blocks until the
// loop goroutine has exited.
func (a *Aggregator) Stop() {
	if a.cancel == nil {
		return
	}
	a.cancel()
	<-a.done
}

func (a *Aggregator) runSyncLoop(ctx context.Context) {
	defer close(a.done)
	ticker := time.NewTicker(a.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.runSyncTick(ctx)
		}
	}
}

// RunSyncNow performs a single sync tick immediately, independent of the
// ticker -- the seam cmd/musectl's "sync" operator command drives.
func (a *Aggregator) RunSyncNow(ctx context.Context) {
	a.runSyncTick(ctx)
}

func (a *Aggregator) runSyncTick(ctx context.Context) {
	providers := a.Providers()

	statuses := make([]ProviderStatus, len(providers))
	for i, p := range providers {
		statuses[i] = ProviderStatus{Tag: p.ProviderTag(), State: SyncIdle}
	}
	a.broadcaster.publish(SyncEvent{Kind: SyncEventSynchronizing, Statuses: cloneStatuses(statuses)})

	for i, p := range providers {
		if ctx.Err() != nil {
			return
		}

		state, err := p.AuthState(ctx)
		if err != nil || (state.Kind != provider.AuthAuthenticated && state.Kind != provider.AuthNoneNeeded) {
			continue // unauthenticated providers are skipped
		}

		statuses[i].State = SyncSyncing
		a.broadcaster.publish(SyncEvent{Kind: SyncEventSynchronizing, Statuses: cloneStatuses(statuses)})

		_, syncErr := p.Sync(ctx, a.lib)
		if syncErr != nil {
			statuses[i].State = SyncError
			statuses[i].Err = syncErr
			log.Printf("[SYNC] provider %s: sync failed: %v", p.ProviderTag(), syncErr)
		} else {
			statuses[i].State = SyncDone
		}
		a.broadcaster.publish(SyncEvent{Kind: SyncEventSynchronizing, Statuses: cloneStatuses(statuses)})
	}

	if err := a.lib.Flush(ctx); err != nil {
		log.Printf("[SYNC] library flush failed: %v", err)
	}
	a.broadcaster.publish(SyncEvent{Kind: SyncEventIdle})
}

func cloneStatuses(in []ProviderStatus) []ProviderStatus {
	out := make([]ProviderStatus, len(in))
	copy(out, in)
	return out
}
