package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters shared by the HTTP layer and the
// validation client.
type Metrics struct {
	mu              sync.Mutex
	requestCount    map[string]int64
	errorCount      map[string]int64
	cacheHits       int64
	cacheMisses     int64
	upstreamCalls   int64
	upstreamErrors  int64
	verdictsDenied  int64
	verdictsAllowed int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + strconv.Itoa(status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters keyed by taxonomy code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordCacheHit counts verdict cache hits.
func (m *Metrics) RecordCacheHit() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheHits++
}

// RecordCacheMiss counts verdict cache misses.
func (m *Metrics) RecordCacheMiss() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheMisses++
}

// RecordUpstreamCall counts live calls to the identity service and whether the
// call itself failed (network/timeout, not a negative verdict).
func (m *Metrics) RecordUpstreamCall(failed bool) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upstreamCalls++
	if failed {
		m.upstreamErrors++
	}
}

// RecordVerdict counts validation outcomes seen by the resource service.
func (m *Metrics) RecordVerdict(valid bool) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if valid {
		m.verdictsAllowed++
	} else {
		m.verdictsDenied++
	}
}
