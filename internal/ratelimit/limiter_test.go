package ratelimit

import (
	"fmt"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeClock is a settable clock for deterministic window tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(t *testing.T) (*Limiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	return New(10, time.Hour, WithClock(clock.Now)), clock
}

func TestCheckAllowsUpToLimit(t *testing.T) {
	l, _ := newTestLimiter(t)

	for i := 0; i < 10; i++ {
		dec := l.Check("1.2.3.4")
		require.True(t, dec.Allowed, "check %d should be allowed", i+1)
		require.Equal(t, 9-i, dec.Remaining)
	}

	dec := l.Check("1.2.3.4")
	require.False(t, dec.Allowed)
	require.Equal(t, 0, dec.Remaining)
}

func TestDeniedCheckReportsResetAt(t *testing.T) {
	l, clock := newTestLimiter(t)
	start := clock.Now()

	for i := 0; i < 10; i++ {
		l.Check("1.2.3.4")
	}

	dec := l.Check("1.2.3.4")
	require.False(t, dec.Allowed)
	require.Equal(t, start.Add(time.Hour), dec.ResetAt)
}

func TestDenialDoesNotIncrementCount(t *testing.T) {
	l, _ := newTestLimiter(t)

	for i := 0; i < 10; i++ {
		l.Check("1.2.3.4")
	}

	// Repeated denials must be idempotent: same ResetAt every time.
	first := l.Check("1.2.3.4")
	for i := 0; i < 5; i++ {
		dec := l.Check("1.2.3.4")
		require.False(t, dec.Allowed)
		require.Equal(t, first.ResetAt, dec.ResetAt)
	}
}

func TestWindowExpiryResetsCount(t *testing.T) {
	l, clock := newTestLimiter(t)

	for i := 0; i < 11; i++ {
		l.Check("1.2.3.4")
	}
	require.False(t, l.Check("1.2.3.4").Allowed)

	clock.Advance(time.Hour + time.Millisecond)

	dec := l.Check("1.2.3.4")
	require.True(t, dec.Allowed)
	require.Equal(t, 9, dec.Remaining)
}

func TestIdentitiesAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(t)

	for i := 0; i < 10; i++ {
		l.Check("1.2.3.4")
	}
	require.False(t, l.Check("1.2.3.4").Allowed)

	dec := l.Check("5.6.7.8")
	require.True(t, dec.Allowed)
	require.Equal(t, 9, dec.Remaining)
}

func TestCheckIsSafeUnderConcurrency(t *testing.T) {
	l := New(1000, time.Hour)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				l.Check(fmt.Sprintf("client-%d", w%2))
			}
		}(w)
	}
	wg.Wait()

	require.Equal(t, 2, l.Size())
}

func TestNewAppliesDefaults(t *testing.T) {
	l := New(0, 0)
	require.Equal(t, DefaultLimit, l.Limit())
	require.Equal(t, DefaultWindow, l.Window())
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{
			name:    "forwarded-for single",
			headers: map[string]string{"X-Forwarded-For": "1.2.3.4"},
			want:    "1.2.3.4",
		},
		{
			name:    "forwarded-for list takes first",
			headers: map[string]string{"X-Forwarded-For": "1.2.3.4, 10.0.0.1, 10.0.0.2"},
			want:    "1.2.3.4",
		},
		{
			name:    "real-ip fallback",
			headers: map[string]string{"X-Real-IP": "9.8.7.6"},
			want:    "9.8.7.6",
		},
		{
			name:    "forwarded-for wins over real-ip",
			headers: map[string]string{"X-Forwarded-For": "1.2.3.4", "X-Real-IP": "9.8.7.6"},
			want:    "1.2.3.4",
		},
		{
			name: "no metadata collapses to unknown",
			want: UnknownClient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/api/chat", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			require.Equal(t, tt.want, ClientKey(r))
		})
	}
}
