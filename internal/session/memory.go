// Package session implements short-term conversational memory for follow-up
// questions. Each session keeps a bounded log of recent question/answer
// exchanges; idle sessions expire after a TTL and are swept periodically.
// Memory is in-process only and acceptable to lose on restart.
package session

import (
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	// DefaultMaxTurns bounds the retained exchanges per session.
	DefaultMaxTurns = 5

	// DefaultTTL evicts sessions idle for longer than this.
	DefaultTTL = 30 * time.Minute

	// DefaultSweepInterval is how often expired sessions are purged,
	// independent of reads.
	DefaultSweepInterval = time.Hour

	maxQuestionLen = 200
	maxAnswerLen   = 300
)

// Exchange is one retained question/answer pair, both truncated.
type Exchange struct {
	Question string
	Answer   string
}

// Memory is a TTL-evicted per-session exchange log, safe for concurrent use.
type Memory struct {
	cache    *cache.Cache
	maxTurns int

	// mu serializes read-modify-write of a session record; the cache's own
	// lock only covers individual map operations.
	mu sync.Mutex
}

// New creates a Memory with the given per-session turn bound, idle TTL and
// sweep interval.
func New(maxTurns int, ttl, sweepInterval time.Duration) *Memory {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Memory{
		cache:    cache.New(ttl, sweepInterval),
		maxTurns: maxTurns,
	}
}

// NewDefault creates a Memory with the standard bounds (5 turns, 30 minute
// TTL, hourly sweep).
func NewDefault() *Memory {
	return New(DefaultMaxTurns, DefaultTTL, DefaultSweepInterval)
}

// AddExchange appends a truncated exchange to the session, creating it if
// absent, trimming to the turn bound and refreshing the idle TTL.
func (m *Memory) AddExchange(sessionID, question, answerSummary string) {
	if sessionID == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var exchanges []Exchange
	if v, ok := m.cache.Get(sessionID); ok {
		exchanges = v.([]Exchange)
	}

	exchanges = append(exchanges, Exchange{
		Question: truncate(question, maxQuestionLen),
		Answer:   truncate(answerSummary, maxAnswerLen),
	})
	if len(exchanges) > m.maxTurns {
		exchanges = exchanges[len(exchanges)-m.maxTurns:]
	}

	// Set refreshes the expiration, so the TTL measures idle time
	m.cache.Set(sessionID, exchanges, cache.DefaultExpiration)
}

// GetContext renders the retained exchanges as alternating previous
// question / previous answer lines. An expired or unknown session yields
// the empty string; expired entries are dropped lazily on read.
func (m *Memory) GetContext(sessionID string) string {
	if sessionID == "" {
		return ""
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.cache.Get(sessionID)
	if !ok {
		return ""
	}

	var lines []string
	for _, ex := range v.([]Exchange) {
		lines = append(lines, "سوال قبلی: "+ex.Question)
		lines = append(lines, "پاسخ قبلی: "+ex.Answer)
	}
	return strings.Join(lines, "\n")
}

// ClearSession drops a session immediately.
func (m *Memory) ClearSession(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Delete(sessionID)
}

// Len reports the number of live sessions (expired but unswept sessions may
// be counted).
func (m *Memory) Len() int {
	return m.cache.ItemCount()
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
