package redis

import (
	"context"
	"errors"
	"time"

	"github.com/lifequest/lifequest-hub/internal/application/query"
	"github.com/lifequest/lifequest-hub/internal/domain/shared"
)

// SheetCache caches assembled character sheets. Sheets are read on every
// dashboard load but change only on XP writes, so the command side
// invalidates and the query side repopulates.
type SheetCache struct {
	cache *Cache
	ttl   time.Duration
}

// NewSheetCache creates a SheetCache backed by the given cache client.
func NewSheetCache(cache *Cache) *SheetCache {
	return &SheetCache{
		cache: cache,
		ttl:   TTLSheetCache,
	}
}

// GetSheet returns the cached sheet, or nil on a miss. Redis failures are
// reported but callers treat them as misses.
func (s *SheetCache) GetSheet(ctx context.Context, characterID shared.CharacterID) (*query.CharacterSheet, error) {
	var sheet query.CharacterSheet
	err := s.cache.Get(ctx, SheetKey(characterID.String()), &sheet)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}
	return &sheet, nil
}

// SetSheet stores the sheet under its character's key.
func (s *SheetCache) SetSheet(ctx context.Context, sheet *query.CharacterSheet) error {
	if sheet == nil {
		return ErrCacheNilValue
	}
	return s.cache.Set(ctx, SheetKey(sheet.CharacterID), sheet, s.ttl)
}

// InvalidateSheet drops the cached sheet after an XP write.
func (s *SheetCache) InvalidateSheet(ctx context.Context, characterID shared.CharacterID) error {
	return s.cache.Delete(ctx, SheetKey(characterID.String()))
}
