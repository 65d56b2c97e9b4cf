package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"hms-backend/domain"
	"hms-backend/models"
)

const availabilityCacheTTL = 60 * time.Second

// AvailabilityCache is an optional Redis read cache for available-room
// queries. Keys are tracked per room type in a set so a lifecycle transition
// touching a room can drop every cached query for that type at once. A nil
// cache is a no-op; misses and Redis errors fall through to the index.
type AvailabilityCache struct {
	rdb *redis.Client
}

func NewAvailabilityCache(rdb *redis.Client) *AvailabilityCache {
	return &AvailabilityCache{rdb: rdb}
}

func availabilityKey(roomTypeID uint, iv domain.Interval) string {
	return fmt.Sprintf("avail:%d:%s:%s", roomTypeID,
		iv.CheckIn.Format(domain.DateLayout), iv.CheckOut.Format(domain.DateLayout))
}

func availabilityKeySet(roomTypeID uint) string {
	return fmt.Sprintf("avail:keys:%d", roomTypeID)
}

func (c *AvailabilityCache) Get(ctx context.Context, roomTypeID uint, iv domain.Interval) ([]models.Room, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, availabilityKey(roomTypeID, iv)).Bytes()
	if err != nil {
		return nil, false
	}
	var rooms []models.Room
	if err := json.Unmarshal(raw, &rooms); err != nil {
		return nil, false
	}
	return rooms, true
}

func (c *AvailabilityCache) Set(ctx context.Context, roomTypeID uint, iv domain.Interval, rooms []models.Room) {
	if c == nil || c.rdb == nil {
		return
	}
	raw, err := json.Marshal(rooms)
	if err != nil {
		return
	}
	key := availabilityKey(roomTypeID, iv)
	if err := c.rdb.Set(ctx, key, raw, availabilityCacheTTL).Err(); err != nil {
		log.Printf("availability cache set %s: %v", key, err)
		return
	}
	if err := c.rdb.SAdd(ctx, availabilityKeySet(roomTypeID), key).Err(); err != nil {
		log.Printf("availability cache track %s: %v", key, err)
	}
}

// Invalidate drops every cached availability query for the room type.
func (c *AvailabilityCache) Invalidate(ctx context.Context, roomTypeID uint) {
	if c == nil || c.rdb == nil {
		return
	}
	setKey := availabilityKeySet(roomTypeID)
	keys, err := c.rdb.SMembers(ctx, setKey).Result()
	if err != nil {
		log.Printf("availability cache invalidate %s: %v", setKey, err)
		return
	}
	keys = append(keys, setKey)
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Printf("availability cache invalidate %s: %v", setKey, err)
	}
}
