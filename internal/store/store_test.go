package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/autopilot-america/evidence.report/internal/receipt"
	"github.com/autopilot-america/evidence.report/internal/trace"
)

// fakeRemote is an in-memory Remote with controllable failures.
type fakeRemote struct {
	mu       sync.Mutex
	rows     map[string][]receipt.Receipt // identity -> receipts
	failPut  bool
	failList bool
	puts     int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{rows: make(map[string][]receipt.Receipt)}
}

func (f *fakeRemote) PutReceipt(_ context.Context, identity string, r receipt.Receipt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.failPut {
		return errors.New("remote unavailable")
	}
	f.rows[identity] = append([]receipt.Receipt{r}, f.rows[identity]...)
	return nil
}

func (f *fakeRemote) ListReceipts(_ context.Context, identity string, limit int) ([]receipt.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failList {
		return nil, errors.New("remote unavailable")
	}
	rs := f.rows[identity]
	if len(rs) > limit {
		rs = rs[:limit]
	}
	out := make([]receipt.Receipt, len(rs))
	copy(out, rs)
	return out, nil
}

func (f *fakeRemote) ListReceiptsWindow(_ context.Context, identity string, fromMs, toMs int64, limit int) ([]receipt.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failList {
		return nil, errors.New("remote unavailable")
	}
	var out []receipt.Receipt
	for _, r := range f.rows[identity] {
		if r.DeviceTimestampMs >= fromMs && r.DeviceTimestampMs <= toMs {
			out = append(out, r)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeRemote) GetReceipt(_ context.Context, identity, id string) (*receipt.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows[identity] {
		if r.ID == id {
			out := r
			return &out, nil
		}
	}
	return nil, errors.New("not found")
}

type countingNotifier struct {
	mu    sync.Mutex
	count int
}

func (n *countingNotifier) ReceiptsUpdated() {
	n.mu.Lock()
	n.count++
	n.mu.Unlock()
}

func (n *countingNotifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.count
}

func captureParams(ts int64) receipt.Params {
	return receipt.Params{
		CameraAddress:     "Ashland Ave & Irving Park Rd",
		CameraLatitude:    41.954321,
		CameraLongitude:   -87.668812,
		DeviceTimestampMs: ts,
		Trace: []trace.TracePoint{
			{TimestampMs: ts, SpeedMps: 8.0},
			{TimestampMs: ts + 1000, SpeedMps: 0.1},
			{TimestampMs: ts + 3000, SpeedMps: 0.1},
		},
	}
}

func TestAddPrependsNewestFirst(t *testing.T) {
	s := New(nil, nil, "")

	s.Add(context.Background(), captureParams(1700000000000))
	s.Add(context.Background(), captureParams(1700000060000))

	got := s.GetAll(context.Background())
	if len(got) != 2 {
		t.Fatalf("expected 2 receipts, got %d", len(got))
	}
	if got[0].DeviceTimestampMs != 1700000060000 {
		t.Errorf("newest receipt not first: got %d", got[0].DeviceTimestampMs)
	}
}

func TestAddEnforcesRetentionCap(t *testing.T) {
	s := New(nil, nil, "", WithRetentionCap(3))

	for i := int64(0); i < 5; i++ {
		s.Add(context.Background(), captureParams(1700000000000+i*60000))
	}

	got := s.GetAll(context.Background())
	if len(got) != 3 {
		t.Fatalf("expected cap of 3, got %d receipts", len(got))
	}
	// Oldest evicted: the newest three remain.
	if got[2].DeviceTimestampMs != 1700000120000 {
		t.Errorf("oldest surviving receipt = %d, want 1700000120000", got[2].DeviceTimestampMs)
	}
}

func TestAddMirrorsToRemote(t *testing.T) {
	remote := newFakeRemote()
	s := New(remote, nil, "device-1")

	r := s.Add(context.Background(), captureParams(1700000000000))
	s.WaitMirrors()

	stored, err := remote.ListReceipts(context.Background(), "device-1", 10)
	if err != nil {
		t.Fatalf("remote list failed: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected 1 mirrored receipt, got %d", len(stored))
	}
	if diff := cmp.Diff(r, stored[0]); diff != "" {
		t.Errorf("mirrored receipt differs (-built +mirrored):\n%s", diff)
	}
}

func TestAddMirrorFailureDoesNotSurface(t *testing.T) {
	remote := newFakeRemote()
	remote.failPut = true
	s := New(remote, nil, "device-1")

	r := s.Add(context.Background(), captureParams(1700000000000))
	s.WaitMirrors()

	if r.ID == "" {
		t.Error("Add must succeed locally even when the mirror fails")
	}
	if got := s.GetAll(context.Background()); len(got) != 1 {
		t.Errorf("local list has %d receipts, want 1", len(got))
	}
}

func TestGetAllRoundTrip(t *testing.T) {
	remote := newFakeRemote()
	s := New(remote, nil, "device-1")

	built := s.Add(context.Background(), captureParams(1700000000000))
	s.WaitMirrors()

	got := s.GetAll(context.Background())
	if len(got) != 1 {
		t.Fatalf("expected 1 receipt, got %d", len(got))
	}
	if diff := cmp.Diff(built, got[0]); diff != "" {
		t.Errorf("round-trip mismatch (-built +retrieved):\n%s", diff)
	}
}

func TestGetAllReadsThroughWhenLocalEmpty(t *testing.T) {
	remote := newFakeRemote()
	seed := New(remote, nil, "device-1")
	seed.Add(context.Background(), captureParams(1700000000000))
	seed.WaitMirrors()

	// Fresh store with an empty local cache.
	s := New(remote, nil, "device-1")
	got := s.GetAll(context.Background())
	if len(got) != 1 {
		t.Fatalf("expected remote fallback to return 1 receipt, got %d", len(got))
	}

	// Local cache is repopulated: a remote outage no longer matters.
	remote.failList = true
	again := s.GetAll(context.Background())
	if len(again) != 1 {
		t.Errorf("expected repopulated local cache to serve 1 receipt, got %d", len(again))
	}
}

func TestGetAllUnauthenticatedSkipsRemote(t *testing.T) {
	remote := newFakeRemote()
	seed := New(remote, nil, "device-1")
	seed.Add(context.Background(), captureParams(1700000000000))
	seed.WaitMirrors()

	s := New(remote, nil, "") // no identity
	if got := s.GetAll(context.Background()); len(got) != 0 {
		t.Errorf("unauthenticated GetAll returned %d receipts, want 0", len(got))
	}
}

func TestGetAllRemoteFailureReturnsEmpty(t *testing.T) {
	remote := newFakeRemote()
	remote.failList = true
	s := New(remote, nil, "device-1")

	if got := s.GetAll(context.Background()); len(got) != 0 {
		t.Errorf("expected empty result on remote failure, got %d receipts", len(got))
	}
}

func TestClearNotifies(t *testing.T) {
	n := &countingNotifier{}
	s := New(nil, n, "")

	s.Add(context.Background(), captureParams(1700000000000))
	s.Clear()

	if got := s.GetAll(context.Background()); len(got) != 0 {
		t.Errorf("expected empty list after Clear, got %d", len(got))
	}
	if n.Count() != 2 { // one for Add, one for Clear
		t.Errorf("notifier fired %d times, want 2", n.Count())
	}
}

func TestChannelNotifierCoalesces(t *testing.T) {
	n := NewChannelNotifier()
	s := New(nil, n, "")

	s.Add(context.Background(), captureParams(1700000000000))
	s.Add(context.Background(), captureParams(1700000060000))

	select {
	case <-n.C:
	default:
		t.Fatal("expected a pending update signal")
	}
	select {
	case <-n.C:
		t.Fatal("expected burst updates to coalesce into one signal")
	default:
	}
}

func TestGetFallsBackToRemote(t *testing.T) {
	remote := newFakeRemote()
	seed := New(remote, nil, "device-1")
	built := seed.Add(context.Background(), captureParams(1700000000000))
	seed.WaitMirrors()

	s := New(remote, nil, "device-1")
	got := s.Get(context.Background(), built.ID)
	if got == nil {
		t.Fatal("expected remote fallback to find the receipt")
	}
	if got.ID != built.ID {
		t.Errorf("got receipt %s, want %s", got.ID, built.ID)
	}

	if miss := s.Get(context.Background(), "nope"); miss != nil {
		t.Errorf("expected nil for unknown id, got %v", miss.ID)
	}
}

func TestConcurrentAddsSerialized(t *testing.T) {
	s := New(nil, nil, "", WithRetentionCap(200))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Add(context.Background(), captureParams(1700000000000+int64(i)*1000))
		}(i)
	}
	wg.Wait()

	if got := s.GetAll(context.Background()); len(got) != 50 {
		t.Errorf("expected 50 receipts after concurrent adds, got %d", len(got))
	}
}
