package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// frozen returns a limiter without a sweeper whose clock only moves when the
// returned advance func is called.
func frozen(t *testing.T, cfg *Config) (*Limiter, func(time.Duration)) {
	t.Helper()
	cfg.CleanupInterval = 0
	l := NewLimiter(cfg)
	t.Cleanup(l.Stop)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, func(d time.Duration) { now = now.Add(d) }
}

var anon = Client{IP: "127.0.0.1"}

func TestClient_Key(t *testing.T) {
	assert.Equal(t, "sub:ci", Client{Subject: "ci", IP: "10.0.0.1"}.Key())
	assert.Equal(t, "ip:10.0.0.1", Client{IP: "10.0.0.1"}.Key())
}

func TestLimiter_Allow(t *testing.T) {
	l, _ := frozen(t, &Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute})

	for i := 0; i < 10; i++ {
		allowed, info := l.Allow(anon, "/code", "POST")
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 10, info.Limit)
		assert.Equal(t, 9-i, info.Remaining)
	}

	allowed, info := l.Allow(anon, "/code", "POST")
	assert.False(t, allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.Equal(t, 6*time.Second, info.RetryAfter)
	assert.Equal(t, l.now().Add(time.Minute), info.ResetTime, "the bucket is full again one window later")
}

func TestLimiter_Refill(t *testing.T) {
	l, advance := frozen(t, &Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute})

	for i := 0; i < 10; i++ {
		l.Allow(anon, "/faq", "POST")
	}
	allowed, _ := l.Allow(anon, "/faq", "POST")
	require.False(t, allowed)

	advance(6 * time.Second)
	allowed, _ = l.Allow(anon, "/faq", "POST")
	assert.True(t, allowed, "one token refills every window/limit")
	allowed, _ = l.Allow(anon, "/faq", "POST")
	assert.False(t, allowed)
}

func TestLimiter_SubjectSharesBudgetAcrossIPs(t *testing.T) {
	l, _ := frozen(t, &Config{Enabled: true, DefaultLimit: 2, DefaultWindow: time.Minute})

	allowed, _ := l.Allow(Client{Subject: "ci", IP: "10.0.0.1"}, "/audit", "POST")
	require.True(t, allowed)
	allowed, _ = l.Allow(Client{Subject: "ci", IP: "10.0.0.2"}, "/audit", "POST")
	require.True(t, allowed)
	allowed, _ = l.Allow(Client{Subject: "ci", IP: "10.0.0.3"}, "/audit", "POST")
	assert.False(t, allowed, "the subject is out of tokens whatever its address")

	allowed, _ = l.Allow(Client{Subject: "editor", IP: "10.0.0.1"}, "/audit", "POST")
	assert.True(t, allowed, "another subject on the same address has its own budget")
	allowed, _ = l.Allow(Client{IP: "10.0.0.1"}, "/audit", "POST")
	assert.True(t, allowed, "anonymous callers are keyed by address")
}

func TestLimiter_WhitelistAndBlacklist(t *testing.T) {
	l, _ := frozen(t, &Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
		Whitelist:     map[string]bool{"127.0.0.1": true, "ci": true},
		Blacklist:     map[string]bool{"192.168.1.1": true, "scraper": true},
	})

	for i := 0; i < 20; i++ {
		allowed, info := l.Allow(anon, "/audit", "POST")
		require.True(t, allowed)
		assert.Zero(t, info.Limit)

		allowed, _ = l.Allow(Client{Subject: "ci", IP: "10.1.1.1"}, "/audit", "POST")
		require.True(t, allowed)
	}

	allowed, _ := l.Allow(Client{IP: "192.168.1.1"}, "/health", "GET")
	assert.False(t, allowed, "blacklisted clients are refused everywhere")
	allowed, _ = l.Allow(Client{Subject: "scraper", IP: "10.1.1.2"}, "/articles", "GET")
	assert.False(t, allowed)
}

func TestLimiter_Disabled(t *testing.T) {
	l := NewLimiter(&Config{Enabled: false})
	defer l.Stop()

	for i := 0; i < 50; i++ {
		allowed, info := l.Allow(anon, "/pipeline", "POST")
		require.True(t, allowed)
		assert.Zero(t, info.Limit)
	}
}

func TestLimiter_EndpointRules(t *testing.T) {
	l, _ := frozen(t, &Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		EndpointConfigs: []EndpointConfig{
			{Path: "/pipeline", Method: "POST", Limit: 5, Window: time.Hour, Burst: 5},
		},
	})

	for i := 0; i < 5; i++ {
		allowed, info := l.Allow(anon, "/pipeline", "POST")
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 5, info.Limit)
	}
	allowed, _ := l.Allow(anon, "/pipeline", "POST")
	assert.False(t, allowed)

	allowed, info := l.Allow(anon, "/articles", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 1000, info.Limit, "unmatched endpoints use the default")

	allowed, _ = l.Allow(Client{IP: "10.0.0.2"}, "/pipeline", "POST")
	assert.True(t, allowed, "buckets are per client")
}

func TestLimiter_PrefixRuleSharesBucket(t *testing.T) {
	l, _ := frozen(t, &Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		EndpointConfigs: []EndpointConfig{
			{Path: "/projects/", Method: "POST", Limit: 2, Window: time.Minute},
		},
	})

	allowed, _ := l.Allow(anon, "/projects/Bakery/assets", "POST")
	require.True(t, allowed)
	allowed, _ = l.Allow(anon, "/projects/Cafe/assets", "POST")
	require.True(t, allowed)
	allowed, _ = l.Allow(anon, "/projects/Deli/assets", "POST")
	assert.False(t, allowed, "every project path draws on the same rule budget")
}

func TestLimiter_Burst(t *testing.T) {
	l, _ := frozen(t, &Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
		EndpointConfigs: []EndpointConfig{
			{Path: "/sitemap/ingest", Method: "POST", Limit: 10, Window: time.Minute, Burst: 5},
		},
	})

	for i := 0; i < 5; i++ {
		allowed, info := l.Allow(anon, "/sitemap/ingest", "POST")
		require.True(t, allowed, "burst request %d", i+1)
		assert.Equal(t, 4-i, info.Remaining)
	}
	allowed, _ := l.Allow(anon, "/sitemap/ingest", "POST")
	assert.False(t, allowed)
}

func TestLimiter_Unlimited(t *testing.T) {
	l, _ := frozen(t, &Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute})

	for _, path := range []string{"/health", "/metrics"} {
		for i := 0; i < 20; i++ {
			allowed, _ := l.Allow(anon, path, "GET")
			require.True(t, allowed, "%s request %d", path, i+1)
		}
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	l, _ := frozen(t, &Config{Enabled: true, DefaultLimit: 100, DefaultWindow: time.Minute})

	var wg sync.WaitGroup
	var allowedCount atomic.Int32
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if allowed, _ := l.Allow(anon, "/outline", "POST"); allowed {
				allowedCount.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(100), allowedCount.Load())
}

func TestLimiter_SweepDropsFullBuckets(t *testing.T) {
	l, advance := frozen(t, &Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute})

	l.Allow(Client{IP: "10.0.0.1"}, "/faq", "POST")
	advance(59 * time.Second)
	l.Allow(Client{IP: "10.0.0.2"}, "/faq", "POST")
	advance(time.Second)

	l.sweep()

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.buckets, "ip:10.0.0.1 POST /faq")
	assert.Contains(t, l.buckets, "ip:10.0.0.2 POST /faq")
}

func TestLimiter_SweeperStops(t *testing.T) {
	l := NewLimiter(&Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute, CleanupInterval: 10 * time.Millisecond})
	l.Allow(anon, "/faq", "POST")
	time.Sleep(30 * time.Millisecond)

	l.Stop()
	assert.NotPanics(t, l.Stop)
}

func TestNewLimiter_NilConfig(t *testing.T) {
	l := NewLimiter(nil)
	defer l.Stop()

	allowed, info := l.Allow(anon, "/projects", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 1000, info.Limit)
}

func TestConfig_Match(t *testing.T) {
	cfg := &Config{EndpointConfigs: DefaultEndpointConfigs()}

	tests := []struct {
		name   string
		path   string
		method string
		limit  int
		found  bool
	}{
		{"exact", "/pipeline", "POST", 10, true},
		{"stream", "/pipeline/stream", "POST", 10, true},
		{"prefix", "/tov/refine", "POST", 30, true},
		{"asset upload", "/projects/Bakery/assets", "POST", 100, true},
		{"delete project", "/projects/Bakery", "DELETE", 100, true},
		{"health", "/health", "GET", 0, true},
		{"metrics", "/metrics", "GET", 0, true},
		{"method mismatch", "/pipeline", "GET", 0, false},
		{"read", "/articles", "GET", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, ok := cfg.Match(tt.path, tt.method)
			require.Equal(t, tt.found, ok)
			assert.Equal(t, tt.limit, rule.Limit)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_DEFAULT_LIMIT", "42")
	t.Setenv("RATE_LIMIT_DEFAULT_WINDOW", "not-a-duration")
	t.Setenv("RATE_LIMIT_WHITELIST", "10.0.0.1, ci-bot")

	cfg := LoadConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 42, cfg.DefaultLimit)
	assert.Equal(t, time.Minute, cfg.DefaultWindow, "malformed values keep the default")
	assert.Equal(t, map[string]bool{"10.0.0.1": true, "ci-bot": true}, cfg.Whitelist)
	assert.Empty(t, cfg.Blacklist)
	assert.NotEmpty(t, cfg.EndpointConfigs)
}

func TestLoadConfig_Disabled(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	assert.False(t, LoadConfig().Enabled)
}
