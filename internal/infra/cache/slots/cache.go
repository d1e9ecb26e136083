// Package slots caches computed availability in Redis.
//
// One hash per provider and date holds the slot lists keyed by service duration,
// so a single DEL drops everything computed for that day.
//
// Every invalidation also bumps a generation counter (per provider and per day).
// A fill computed before an invalidation carries the old generation and is dropped,
// so a slow reader cannot put back slots that a concurrent booking already took.
package slots

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

const (
	keyPrefix = "scheduling:slots"
	genPrefix = "scheduling:slotgen"

	// счетчик поколений должен пережить любой конкурентный пересчет слотов
	generationTTL = 7 * 24 * time.Hour
)

var (
	// ErrCacheRead возвращается при ошибке чтения из Redis
	ErrCacheRead = errors.New("slots.cache: failed to read")

	// ErrCacheWrite возвращается при ошибке записи в Redis
	ErrCacheWrite = errors.New("slots.cache: failed to write")

	// ErrStale возвращается из Set, если после чтения поколения кэш был инвалидирован
	ErrStale = errors.New("slots.cache: generation changed, fill dropped")
)

// setIfUnchanged пишет слоты, только если оба счетчика поколений не изменились
// KEYS: gen исполнителя, gen дня, hash дня; ARGV: поколение, поле, данные, ttl в мс
var setIfUnchanged = redis.NewScript(`
local pg = redis.call('GET', KEYS[1]) or '0'
local dg = redis.call('GET', KEYS[2]) or '0'
if pg .. ':' .. dg ~= ARGV[1] then
	return 0
end
redis.call('HSET', KEYS[3], ARGV[2], ARGV[3])
if tonumber(ARGV[4]) > 0 then
	redis.call('PEXPIRE', KEYS[3], ARGV[4])
end
return 1
`)

// Cache кэш доступных слотов поверх Redis
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache создает кэш слотов
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

type cachedSlot struct {
	StartTime            types.TimeString `json:"start_time"`
	EndTime              types.TimeString `json:"end_time"`
	IsAvailable          bool             `json:"is_available"`
	SourceAvailabilityID *int64           `json:"source_availability_id,omitempty"`
}

func dayKey(providerID int64, date time.Time) string {
	return fmt.Sprintf("%s:%d:%s", keyPrefix, providerID, date.Format(domain.DateFormat))
}

func providerGenKey(providerID int64) string {
	return fmt.Sprintf("%s:%d", genPrefix, providerID)
}

func dayGenKey(providerID int64, date time.Time) string {
	return fmt.Sprintf("%s:%d:%s", genPrefix, providerID, date.Format(domain.DateFormat))
}

// Generation возвращает текущее поколение слотов исполнителя на дату
// Его нужно прочитать до расчета слотов и передать в Set
func (c *Cache) Generation(ctx context.Context, providerID int64, date time.Time) (string, error) {
	values, err := c.client.MGet(ctx, providerGenKey(providerID), dayGenKey(providerID, date)).Result()
	if err != nil {
		return "", fmt.Errorf("%w: Generation - provider_id=%d: %w", ErrCacheRead, providerID, err)
	}

	parts := [2]string{"0", "0"}
	for i, v := range values {
		if s, ok := v.(string); ok {
			parts[i] = s
		}
	}

	return parts[0] + ":" + parts[1], nil
}

// Get возвращает слоты из кэша; второй результат false, если записи нет
func (c *Cache) Get(ctx context.Context, providerID int64, date time.Time, durationMinutes int) ([]domain.TimeSlot, bool, error) {
	data, err := c.client.HGet(ctx, dayKey(providerID, date), strconv.Itoa(durationMinutes)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: Get - provider_id=%d: %v", ErrCacheRead, providerID, err)
	}

	var cached []cachedSlot
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false, fmt.Errorf("%w: Get - decode: %v", ErrCacheRead, err)
	}

	result := make([]domain.TimeSlot, len(cached))
	for i, s := range cached {
		result[i] = domain.TimeSlot{
			StartTime:            s.StartTime,
			EndTime:              s.EndTime,
			IsAvailable:          s.IsAvailable,
			SourceAvailabilityID: s.SourceAvailabilityID,
		}
	}

	return result, true, nil
}

// Set сохраняет слоты, если с момента чтения generation кэш не инвалидировали
// Иначе возвращает ErrStale и ничего не пишет. TTL выставляется на весь день исполнителя
func (c *Cache) Set(ctx context.Context, providerID int64, date time.Time, durationMinutes int, slots []domain.TimeSlot, generation string) error {
	cached := make([]cachedSlot, len(slots))
	for i, s := range slots {
		cached[i] = cachedSlot{
			StartTime:            s.StartTime,
			EndTime:              s.EndTime,
			IsAvailable:          s.IsAvailable,
			SourceAvailabilityID: s.SourceAvailabilityID,
		}
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("%w: Set - encode: %v", ErrCacheWrite, err)
	}

	keys := []string{providerGenKey(providerID), dayGenKey(providerID, date), dayKey(providerID, date)}
	stored, err := setIfUnchanged.Run(ctx, c.client, keys,
		generation, strconv.Itoa(durationMinutes), data, c.ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("%w: Set - provider_id=%d: %w", ErrCacheWrite, providerID, err)
	}
	if stored == 0 {
		return fmt.Errorf("%w: Set - provider_id=%d date=%s", ErrStale, providerID, date.Format(domain.DateFormat))
	}

	return nil
}

// Invalidate удаляет все слоты исполнителя на дату и сдвигает поколение дня
func (c *Cache) Invalidate(ctx context.Context, providerID int64, date time.Time) error {
	genKey := dayGenKey(providerID, date)

	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, genKey)
	pipe.Expire(ctx, genKey, generationTTL)
	pipe.Del(ctx, dayKey(providerID, date))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: Invalidate - provider_id=%d: %v", ErrCacheWrite, providerID, err)
	}
	return nil
}

// InvalidateProvider удаляет слоты исполнителя на все даты (после изменения расписания)
func (c *Cache) InvalidateProvider(ctx context.Context, providerID int64) error {
	genKey := providerGenKey(providerID)

	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, genKey)
	pipe.Expire(ctx, genKey, generationTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: InvalidateProvider - bump generation: %v", ErrCacheWrite, err)
	}

	pattern := fmt.Sprintf("%s:%d:*", keyPrefix, providerID)

	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	keys := make([]string, 0)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("%w: InvalidateProvider - scan: %v", ErrCacheRead, err)
	}

	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: InvalidateProvider - provider_id=%d: %v", ErrCacheWrite, providerID, err)
	}

	return nil
}

// Noop кэш-заглушка для конфигурации без Redis
type Noop struct{}

func (Noop) Get(context.Context, int64, time.Time, int) ([]domain.TimeSlot, bool, error) {
	return nil, false, nil
}

func (Noop) Generation(context.Context, int64, time.Time) (string, error) { return "", nil }

func (Noop) Set(context.Context, int64, time.Time, int, []domain.TimeSlot, string) error { return nil }

func (Noop) Invalidate(context.Context, int64, time.Time) error { return nil }

func (Noop) InvalidateProvider(context.Context, int64) error { return nil }
