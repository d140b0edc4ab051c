// Package ratelimit throttles API callers per endpoint rule. A caller is
// identified by its token subject when the request is authenticated and by
// its IP address otherwise.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Client identifies the caller of one request.
type Client struct {
	Subject string
	IP      string
}

// Key is the bucket identity. An authenticated subject shares its budget
// across every address it calls from.
func (c Client) Key() string {
	if c.Subject != "" {
		return "sub:" + c.Subject
	}
	return "ip:" + c.IP
}

// listedIn reports whether the subject or the IP is in set.
func (c Client) listedIn(set map[string]bool) bool {
	return (c.Subject != "" && set[c.Subject]) || (c.IP != "" && set[c.IP])
}

// Info describes the bucket state after a decision.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Limiter holds one token bucket per client and rule.
type Limiter struct {
	cfg *Config
	now func() time.Time

	mu      sync.Mutex
	buckets map[string]*rate.Limiter

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewLimiter starts a limiter. A nil config allows 1000 requests a minute on
// every endpoint.
func NewLimiter(cfg *Config) *Limiter {
	if cfg == nil {
		cfg = &Config{
			Enabled:         true,
			DefaultLimit:    1000,
			DefaultWindow:   time.Minute,
			CleanupInterval: 5 * time.Minute,
		}
	}
	l := &Limiter{
		cfg:     cfg,
		now:     time.Now,
		buckets: make(map[string]*rate.Limiter),
	}
	if cfg.Enabled && cfg.CleanupInterval > 0 {
		l.stop = make(chan struct{})
		l.done = make(chan struct{})
		go l.sweepLoop(cfg.CleanupInterval)
	}
	return l
}

// Allow spends one token of the client's budget for the rule matching path
// and method.
func (l *Limiter) Allow(c Client, path, method string) (bool, Info) {
	if !l.cfg.Enabled || c.listedIn(l.cfg.Whitelist) {
		return true, Info{Allowed: true}
	}
	if c.listedIn(l.cfg.Blacklist) {
		return false, Info{}
	}

	rule, ok := l.cfg.Match(path, method)
	if !ok {
		rule = EndpointConfig{Path: path, Method: method, Limit: l.cfg.DefaultLimit, Window: l.cfg.DefaultWindow}
	}
	if rule.Limit <= 0 || rule.Window <= 0 {
		return true, Info{Allowed: true}
	}

	now := l.now()
	b := l.bucket(c.Key()+" "+rule.Method+" "+rule.Path, rule)
	allowed := b.AllowN(now, 1)
	tokens := b.TokensAt(now)

	perToken := float64(rule.Window) / float64(rule.Limit)
	info := Info{
		Allowed:   allowed,
		Limit:     rule.Limit,
		Remaining: max(0, int(tokens)),
		ResetTime: now.Add(time.Duration((float64(b.Burst()) - tokens) * perToken)),
	}
	if !allowed {
		info.RetryAfter = time.Duration((1 - tokens) * perToken)
	}
	return allowed, info
}

func (l *Limiter) bucket(key string, rule EndpointConfig) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.buckets[key]; ok {
		return b
	}
	burst := rule.Burst
	if burst <= 0 {
		burst = rule.Limit
	}
	b := rate.NewLimiter(rate.Every(rule.Window/time.Duration(rule.Limit)), burst)
	l.buckets[key] = b
	return b
}

func (l *Limiter) sweepLoop(every time.Duration) {
	defer close(l.done)
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.stop:
			return
		}
	}
}

// sweep drops buckets that have refilled completely; a full bucket is
// indistinguishable from a new one.
func (l *Limiter) sweep() {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, b := range l.buckets {
		if b.TokensAt(now) >= float64(b.Burst()) {
			delete(l.buckets, key)
		}
	}
}

// Stop ends the sweeper and waits for it. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() {
		if l.stop != nil {
			close(l.stop)
			<-l.done
		}
	})
}
