// Package store keeps the ordered receipt list for one client: an
// authoritative local cache in front of a remote system of record. Local
// operations never surface remote failures; callers get empty or partial
// results instead of errors. This trades strictness for availability, which
// is the right call for a consumer capture flow.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/autopilot-america/evidence.report/internal/monitoring"
	"github.com/autopilot-america/evidence.report/internal/receipt"
)

// DefaultRetentionCap bounds the local list; the oldest receipts beyond it
// are evicted.
const DefaultRetentionCap = 120

// DefaultRemoteTimeout bounds every remote call so the local-cache path is
// never blocked indefinitely by the network.
const DefaultRemoteTimeout = 5 * time.Second

// Remote is the system-of-record boundary. *db.DB satisfies it.
type Remote interface {
	PutReceipt(ctx context.Context, identity string, r receipt.Receipt) error
	ListReceipts(ctx context.Context, identity string, limit int) ([]receipt.Receipt, error)
	ListReceiptsWindow(ctx context.Context, identity string, fromMs, toMs int64, limit int) ([]receipt.Receipt, error)
	GetReceipt(ctx context.Context, identity, id string) (*receipt.Receipt, error)
}

// Notifier receives the "receipts updated" signal. Injected so the store
// never reaches into global pub/sub state.
type Notifier interface {
	ReceiptsUpdated()
}

// Store is the receipt cache for one client identity. Writes to the local
// list are serialized: prepend-and-cap is a single logical read-modify-write.
type Store struct {
	remote   Remote
	notifier Notifier
	// identity scopes remote rows to this client. Empty means the caller is
	// unauthenticated and remote reads are skipped entirely.
	identity string

	cap           int
	remoteTimeout time.Duration

	mu    sync.Mutex
	local []receipt.Receipt

	mirrors sync.WaitGroup
}

// Option configures a Store.
type Option func(*Store)

// WithRetentionCap overrides the local retention cap.
func WithRetentionCap(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.cap = n
		}
	}
}

// WithRemoteTimeout overrides the per-call remote deadline.
func WithRemoteTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.remoteTimeout = d
		}
	}
}

// New creates a Store. remote and notifier may be nil, which disables the
// remote fallback and change notifications respectively.
func New(remote Remote, notifier Notifier, identity string, opts ...Option) *Store {
	s := &Store{
		remote:        remote,
		notifier:      notifier,
		identity:      identity,
		cap:           DefaultRetentionCap,
		remoteTimeout: DefaultRemoteTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add builds a receipt from params, prepends it to the local list, trims to
// the retention cap, notifies observers, and mirrors the receipt to the
// remote store in the background. Mirror failures are logged, never
// surfaced; the local operation always succeeds.
func (s *Store) Add(ctx context.Context, p receipt.Params) receipt.Receipt {
	r := receipt.Build(p)

	s.mu.Lock()
	s.local = append([]receipt.Receipt{r}, s.local...)
	if len(s.local) > s.cap {
		s.local = s.local[:s.cap]
	}
	s.mu.Unlock()

	s.notify()

	if s.remote != nil {
		s.mirrors.Add(1)
		go func() {
			defer s.mirrors.Done()
			mctx, cancel := context.WithTimeout(context.Background(), s.remoteTimeout)
			defer cancel()
			if err := s.remote.PutReceipt(mctx, s.identity, r); err != nil {
				monitoring.Logf("receipt mirror failed for %s: %v", r.ID, err)
			}
		}()
	}

	return r
}

// GetAll returns the local list when non-empty. Otherwise, for an
// authenticated caller, it reads through to the remote store, repopulates
// the local cache, and returns the result. Remote failure yields an empty
// result, never an error.
func (s *Store) GetAll(ctx context.Context) []receipt.Receipt {
	s.mu.Lock()
	if len(s.local) > 0 {
		out := make([]receipt.Receipt, len(s.local))
		copy(out, s.local)
		s.mu.Unlock()
		return out
	}
	s.mu.Unlock()

	if s.remote == nil || s.identity == "" {
		return nil
	}

	rctx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	defer cancel()
	receipts, err := s.remote.ListReceipts(rctx, s.identity, s.cap)
	if err != nil {
		monitoring.Logf("remote receipt list failed: %v", err)
		return nil
	}

	s.mu.Lock()
	// Only repopulate if nothing arrived while the remote call was in flight.
	if len(s.local) == 0 {
		s.local = make([]receipt.Receipt, len(receipts))
		copy(s.local, receipts)
	}
	s.mu.Unlock()

	return receipts
}

// Get returns the receipt with the given id: local list first, then the
// remote store for authenticated callers. Returns nil when not found.
func (s *Store) Get(ctx context.Context, id string) *receipt.Receipt {
	s.mu.Lock()
	for i := range s.local {
		if s.local[i].ID == id {
			r := s.local[i]
			s.mu.Unlock()
			return &r
		}
	}
	s.mu.Unlock()

	if s.remote == nil || s.identity == "" {
		return nil
	}

	rctx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	defer cancel()
	r, err := s.remote.GetReceipt(rctx, s.identity, id)
	if err != nil {
		monitoring.Logf("remote receipt get failed for %s: %v", id, err)
		return nil
	}
	return r
}

// Clear empties the local cache and notifies observers. The remote copy is
// untouched.
func (s *Store) Clear() {
	s.mu.Lock()
	s.local = nil
	s.mu.Unlock()
	s.notify()
}

// Snapshot returns a copy of the local list without touching the remote
// store. Used by the matcher, which has its own remote fallback.
func (s *Store) Snapshot() []receipt.Receipt {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]receipt.Receipt, len(s.local))
	copy(out, s.local)
	return out
}

// QueryWindow asks the remote store for receipts within [fromMs, toMs].
// Unauthenticated callers and remote failures yield an empty result.
func (s *Store) QueryWindow(ctx context.Context, fromMs, toMs int64, limit int) []receipt.Receipt {
	if s.remote == nil || s.identity == "" {
		return nil
	}

	rctx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	defer cancel()
	receipts, err := s.remote.ListReceiptsWindow(rctx, s.identity, fromMs, toMs, limit)
	if err != nil {
		monitoring.Logf("remote receipt window query failed: %v", err)
		return nil
	}
	return receipts
}

// WaitMirrors blocks until in-flight background mirrors finish. Intended for
// tests and shutdown.
func (s *Store) WaitMirrors() {
	s.mirrors.Wait()
}

func (s *Store) notify() {
	if s.notifier != nil {
		s.notifier.ReceiptsUpdated()
	}
}
