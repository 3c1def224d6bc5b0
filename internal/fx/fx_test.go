package fx

import (
    "context"
    "fmt"
    "os"
    "path/filepath"
    "sync"
    "sync/atomic"
    "testing"
    "time"

    "github.com/stretchr/testify/require"
)

// fakeSource returns a fixed rate or error and counts its calls.
type fakeSource struct {
    rate  float64
    err   error
    delay time.Duration
    calls atomic.Int64
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Rate(ctx context.Context, _ string) (float64, error) {
    f.calls.Add(1)
    if f.delay > 0 {
        select {
        case <-time.After(f.delay):
        case <-ctx.Done():
            return 0, ctx.Err()
        }
    }
    if f.err != nil {
        return 0, f.err
    }
    return f.rate, nil
}

func TestRate_CachedWithinTTL_NoSecondCall(t *testing.T) {
    t.Parallel()

    src := &fakeSource{rate: 83.0}
    c := New(Config{TTL: time.Minute}, []Source{src}, nil, nil)

    r1 := c.Rate(t.Context())
    r2 := c.Rate(t.Context())
    require.Equal(t, 83.0, r1)
    require.Equal(t, r1, r2)
    require.Equal(t, int64(1), src.calls.Load())
}

func TestRate_FallsThroughToSecondSource(t *testing.T) {
    t.Parallel()

    first := &fakeSource{err: fmt.Errorf("GET https://example.invalid -> 500")}
    second := &fakeSource{rate: 82.5}
    c := New(Config{}, []Source{first, second}, nil, nil)

    require.Equal(t, 82.5, c.Rate(t.Context()))
    require.Equal(t, int64(1), first.calls.Load())
    require.Equal(t, int64(1), second.calls.Load())
}

func TestRate_AllSourcesFail_UsesLastCachedValue(t *testing.T) {
    t.Parallel()

    src := &fakeSource{rate: 83.0}
    c := New(Config{TTL: time.Nanosecond}, []Source{src}, nil, nil)

    require.Equal(t, 83.0, c.Rate(t.Context()))

    // Now every refresh fails; the stale value must come back unchanged.
    src.err = fmt.Errorf("connection refused")
    time.Sleep(time.Millisecond)
    require.Equal(t, 83.0, c.Rate(t.Context()))
}

func TestRate_NothingEverWorked_NeutralRate(t *testing.T) {
    t.Parallel()

    c := New(Config{}, []Source{&fakeSource{err: fmt.Errorf("down")}}, nil, nil)
    require.Equal(t, 1.0, c.Rate(t.Context()))
}

func TestRate_ConcurrentMissesCollapse(t *testing.T) {
    t.Parallel()

    src := &fakeSource{rate: 80.0, delay: 50 * time.Millisecond}
    c := New(Config{TTL: time.Minute}, []Source{src}, nil, nil)

    var wg sync.WaitGroup
    rates := make([]float64, 8)
    for i := range rates {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            rates[i] = c.Rate(context.Background())
        }(i)
    }
    wg.Wait()

    for _, r := range rates {
        require.Equal(t, 80.0, r)
    }
    require.Equal(t, int64(1), src.calls.Load(), "concurrent misses must share one refresh")
}

func TestPersistence_WarmStartFromStore(t *testing.T) {
    t.Parallel()

    path := filepath.Join(t.TempDir(), "fx_rate.json")
    store := &FileStore{Path: path}

    src := &fakeSource{rate: 83.0}
    c := New(Config{TTL: time.Minute}, []Source{src}, store, nil)
    require.Equal(t, 83.0, c.Rate(t.Context()))

    // A fresh cache over the same store serves the rate with no network.
    down := &fakeSource{err: fmt.Errorf("unreachable")}
    c2 := New(Config{TTL: time.Minute}, []Source{down}, store, nil)
    require.Equal(t, 83.0, c2.Rate(t.Context()))
    require.Equal(t, int64(0), down.calls.Load())
}

func TestPersistence_CorruptRecordIsNoCache(t *testing.T) {
    t.Parallel()

    path := filepath.Join(t.TempDir(), "fx_rate.json")
    require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

    c := New(Config{}, []Source{&fakeSource{err: fmt.Errorf("down")}}, &FileStore{Path: path}, nil)
    require.Equal(t, 1.0, c.Rate(t.Context()))
}

func TestFormatSync(t *testing.T) {
    t.Parallel()

    store := &FileStore{Path: filepath.Join(t.TempDir(), "fx_rate.json")}
    require.NoError(t, store.Save(t.Context(), Record{
        Rate: 83.0,
        At:   time.Now().Add(-time.Minute).UnixMilli(),
    }))

    c := New(Config{Currency: "INR", Symbol: "₹", Locale: "en-IN", TTL: 5 * time.Minute},
        []Source{&fakeSource{err: fmt.Errorf("must not be called")}}, store, nil)

    s, ok := c.FormatSync(100)
    require.True(t, ok)
    require.Equal(t, "₹8,300.00", s)

    rate, ok := c.CachedRate()
    require.True(t, ok)
    require.Equal(t, 83.0, rate)
}

func TestFormatSync_NotReady(t *testing.T) {
    t.Parallel()

    c := New(Config{}, nil, nil, nil)
    _, ok := c.FormatSync(100)
    require.False(t, ok)
    _, ok = c.CachedRate()
    require.False(t, ok)
}
