// Пакет cache — кэш списков активных документов владельца с TTL.
// Обёртка над hashicorp/golang-lru/v2/expirable.
//
// Кэш — только оптимизация чтения, никогда не источник истины.
// Контракт согласованности: инвалидация явная только при создании документа
// (Populate перезаписывает снимок), остальные мутации полагаются на истечение
// TTL — ограниченное окно устаревания является осознанным компромиссом.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/arturkryukov/docstore/internal/domain/model"
)

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ds_cache_hits_total",
		Help: "Общее количество попаданий в кэш списков документов.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ds_cache_misses_total",
		Help: "Общее количество промахов кэша списков документов.",
	})
)

// ListingCache — кэш снимков списка активных документов по владельцу.
// Каждый экземпляр процесса имеет собственный in-memory кэш.
type ListingCache struct {
	cache *expirable.LRU[string, []*model.DocumentRecord]
}

// New создаёт кэш с указанным максимальным числом владельцев и TTL снимка.
// maxOwners — максимальное количество записей в кэше.
// ttl — время жизни снимка после записи (DS_CACHE_TTL).
func New(maxOwners int, ttl time.Duration) *ListingCache {
	c := expirable.NewLRU[string, []*model.DocumentRecord](maxOwners, nil, ttl)
	return &ListingCache{cache: c}
}

// Populate сохраняет снимок списка активных документов владельца.
// Вызывается при создании документа и при чтении из репозитория после промаха.
func (c *ListingCache) Populate(ownerID string, records []*model.DocumentRecord) {
	c.cache.Add(ownerID, records)
}

// Fetch возвращает снимок списка по владельцу.
// Возвращает (снимок, true) при попадании или (nil, false) при промахе —
// вызывающий код обязан упасть обратно в репозиторий.
func (c *ListingCache) Fetch(ownerID string) ([]*model.DocumentRecord, bool) {
	val, ok := c.cache.Get(ownerID)
	if ok {
		cacheHitsTotal.Inc()
		return val, true
	}
	cacheMissesTotal.Inc()
	return nil, false
}

// Invalidate явно удаляет снимок владельца из кэша.
func (c *ListingCache) Invalidate(ownerID string) {
	c.cache.Remove(ownerID)
}

// Len возвращает текущее количество снимков в кэше.
func (c *ListingCache) Len() int {
	return c.cache.Len()
}
