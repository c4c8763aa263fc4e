package bot

import (
	"sync"
	"time"
)

// tokenGuard enforces single use of reply tokens so a re-delivered or
// re-routed event never produces a second reply send.
type tokenGuard struct {
	mu   sync.Mutex
	used map[string]time.Time
}

func newTokenGuard() *tokenGuard {
	return &tokenGuard{used: make(map[string]time.Time)}
}

// acquire marks token as used. It returns false if the token was already
// acquired.
func (g *tokenGuard) acquire(token string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.used[token]; ok {
		return false
	}
	g.used[token] = time.Now()
	return true
}

// cleanup removes entries older than maxAge to prevent unbounded growth;
// reply tokens expire upstream long before that.
func (g *tokenGuard) cleanup(maxAge time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	for token, at := range g.used {
		if now.Sub(at) > maxAge {
			delete(g.used, token)
		}
	}
}
