package engagement

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"flyerflix/internal/domain"
)

// Keys follow the flyerflix-<kind>-<userID> namespace.
const keyPrefix = "flyerflix"

const (
	kindFavorites = "favorites"
	kindDownloads = "downloads"
	kindHistory   = "history"
	kindProfile   = "profile"
)

func userKey(kind, userID string) string {
	return fmt.Sprintf("%s-%s-%s", keyPrefix, kind, userID)
}

// Store maintains the per-user favorites set, download list and activity
// history. The lists are best-effort UX caches, not source-of-truth: the
// favorite write and its activity entry are two separate writes on purpose,
// and a failure of the second is logged rather than returned.
type Store struct {
	kv     KV
	logger zerolog.Logger
	now    func() time.Time
	newID  func() string
}

// NewStore builds a Store over the given KV backend.
func NewStore(kv KV, logger zerolog.Logger) *Store {
	return &Store{
		kv:     kv,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

func (s *Store) readList(key string, out any) error {
	raw, ok, err := s.kv.Get(key)
	if err != nil {
		return err
	}
	if !ok || len(raw) == 0 {
		return nil
	}
	// Stored payloads are duck-typed JSON written by older clients; a blob
	// that fails to decode is treated as absent rather than fatal.
	if err := json.Unmarshal(raw, out); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("engagement payload unreadable, starting fresh")
	}
	return nil
}

func (s *Store) writeList(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("engagement: encode %q: %w", key, err)
	}
	return s.kv.Set(key, raw)
}

// Favorites returns the user's favorite template IDs. Absent storage reads
// as an empty set.
func (s *Store) Favorites(ctx context.Context, userID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var ids []string
	if err := s.readList(userKey(kindFavorites, userID), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// ToggleFavorite flips membership of the template in the user's favorite set
// and reports the new state. Adding appends a favorite activity entry
// fire-and-forget.
func (s *Store) ToggleFavorite(ctx context.Context, userID string, tmpl domain.Template) (bool, error) {
	ids, err := s.Favorites(ctx, userID)
	if err != nil {
		return false, err
	}

	found := -1
	for i, id := range ids {
		if id == tmpl.ID {
			found = i
			break
		}
	}

	isFavorite := found < 0
	if isFavorite {
		ids = append(ids, tmpl.ID)
	} else {
		ids = append(ids[:found], ids[found+1:]...)
	}
	if err := s.writeList(userKey(kindFavorites, userID), ids); err != nil {
		return false, err
	}

	if isFavorite {
		if err := s.RecordHistory(ctx, userID, domain.ActivityFavorite, tmpl); err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("favorite activity write failed")
		}
	}
	return isFavorite, nil
}

// RecordHistory prepends an activity entry and truncates the list to the
// HistoryLimit newest entries. Entries are never deduplicated: viewing the
// same template twice produces two entries.
func (s *Store) RecordHistory(ctx context.Context, userID string, typ domain.ActivityType, tmpl domain.Template) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var items []domain.ActivityItem
	key := userKey(kindHistory, userID)
	if err := s.readList(key, &items); err != nil {
		return err
	}

	entry := domain.ActivityItem{
		ID:            s.newID(),
		Type:          typ,
		TemplateID:    tmpl.ID,
		TemplateTitle: tmpl.Title,
		ImageURL:      tmpl.ImageURL,
		Date:          s.now().Format(time.RFC3339),
		CanvaURL:      tmpl.CanvaURL,
	}
	items = append([]domain.ActivityItem{entry}, items...)
	if len(items) > domain.HistoryLimit {
		items = items[:domain.HistoryLimit]
	}
	return s.writeList(key, items)
}

// History returns the user's activity log, newest first.
func (s *Store) History(ctx context.Context, userID string) ([]domain.ActivityItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var items []domain.ActivityItem
	if err := s.readList(userKey(kindHistory, userID), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// RecordDownload prepends a download record. The list is uncapped and
// re-downloads are kept as distinct records.
func (s *Store) RecordDownload(ctx context.Context, userID string, tmpl domain.Template) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var records []domain.DownloadRecord
	key := userKey(kindDownloads, userID)
	if err := s.readList(key, &records); err != nil {
		return err
	}

	record := domain.DownloadRecord{
		ID:            s.newID(),
		TemplateID:    tmpl.ID,
		TemplateTitle: tmpl.Title,
		ImageURL:      tmpl.ImageURL,
		DownloadDate:  s.now().Format(time.RFC3339),
		CanvaURL:      tmpl.CanvaURL,
		Category:      tmpl.Category,
	}
	records = append([]domain.DownloadRecord{record}, records...)
	return s.writeList(key, records)
}

// Downloads returns the user's download records as stored, newest first.
func (s *Store) Downloads(ctx context.Context, userID string) ([]domain.DownloadRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var records []domain.DownloadRecord
	if err := s.readList(userKey(kindDownloads, userID), &records); err != nil {
		return nil, err
	}
	return records, nil
}

// CacheProfile stores a small profile snapshot (welcome flags and the like)
// alongside the engagement lists so sign-out can wipe everything in one pass.
func (s *Store) CacheProfile(ctx context.Context, userID string, snapshot []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.kv.Set(userKey(kindProfile, userID), snapshot)
}

// ClearUser removes every key of the given user. Other users' data on the
// same backend is left untouched.
func (s *Store) ClearUser(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, kind := range []string{kindFavorites, kindDownloads, kindHistory, kindProfile} {
		if err := s.kv.Delete(userKey(kind, userID)); err != nil {
			return err
		}
	}
	return nil
}
