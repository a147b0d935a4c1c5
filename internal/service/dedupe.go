// dedupe.go — подавление повторных заявок в пределах окна.
// Обёртка над hashicorp/golang-lru/v2/expirable: ключ — отпечаток заявки,
// запись живёт окно дедупликации и вытесняется по LRU при переполнении.
package service

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus-метрики дедупликации.
var (
	dedupeHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cm_lead_dedupe_hits_total",
		Help: "Количество заявок, признанных повтором.",
	})
	dedupeMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cm_lead_dedupe_misses_total",
		Help: "Количество новых заявок.",
	})
)

// LeadDeduper — in-memory реестр недавних заявок (per-instance).
type LeadDeduper struct {
	// expirable.LRU потокобезопасен поштучно; Reserve требует атомарной пары Contains+Add
	mu    sync.Mutex
	cache *expirable.LRU[string, time.Time]
}

// NewLeadDeduper создаёт реестр на maxSize отпечатков с окном window.
func NewLeadDeduper(maxSize int, window time.Duration) *LeadDeduper {
	return &LeadDeduper{
		cache: expirable.NewLRU[string, time.Time](maxSize, nil, window),
	}
}

// Reserve регистрирует отпечаток. Возвращает false, если он уже
// встречался в пределах окна.
func (d *LeadDeduper) Reserve(fingerprint string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cache.Contains(fingerprint) {
		dedupeHitsTotal.Inc()
		return false
	}
	dedupeMissesTotal.Inc()
	d.cache.Add(fingerprint, time.Now())
	return true
}

// Release снимает отпечаток, чтобы недоставленную заявку можно было отправить повторно.
func (d *LeadDeduper) Release(fingerprint string) {
	d.cache.Remove(fingerprint)
}
