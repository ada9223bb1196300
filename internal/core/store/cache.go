package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/domainscout/domainscout/internal/core"
)

// GetAvailability returns the cached entry for a domain if it has not
// expired. A nil entry with a nil error is a cache miss.
func (s *Store) GetAvailability(ctx context.Context, domain string) (*core.CacheEntry, error) {
	if err := s.requireDB(); err != nil {
		return nil, err
	}

	if ctx == nil {
		ctx = context.Background()
	}

	key := strings.ToLower(strings.TrimSpace(domain))
	if key == "" {
		return nil, errors.New("cache domain is required")
	}

	var (
		available int
		premium   sql.NullInt64
		message   sql.NullString
		source    string
		checkedAt int64
		expiresAt int64
	)

	row := s.DB.QueryRowContext(ctx, `
		SELECT available, premium, message, source, checked_at, expires_at
		FROM availability_cache
		WHERE domain = ? AND expires_at > ?
	`, key, time.Now().UTC().Unix())

	if err := row.Scan(&available, &premium, &message, &source, &checkedAt, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch cached availability: %w", err)
	}

	entry := &core.CacheEntry{
		Domain:     key,
		Available:  available != 0,
		Message:    message.String,
		Source:     source,
		ObservedAt: time.Unix(checkedAt, 0).UTC(),
		ExpiresAt:  time.Unix(expiresAt, 0).UTC(),
	}
	if premium.Valid {
		entry.Premium = core.BoolPtr(premium.Int64 != 0)
	}

	return entry, nil
}

// PutAvailability stores an availability entry, replacing any previous
// observation for the same domain.
func (s *Store) PutAvailability(ctx context.Context, entry core.CacheEntry) error {
	if err := s.requireDB(); err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}

	key := strings.ToLower(strings.TrimSpace(entry.Domain))
	if key == "" {
		return errors.New("cache domain is required")
	}
	if !entry.ExpiresAt.After(entry.ObservedAt) {
		return nil
	}

	available := 0
	if entry.Available {
		available = 1
	}

	var premium sql.NullInt64
	if entry.Premium != nil {
		premium = sql.NullInt64{Valid: true}
		if *entry.Premium {
			premium.Int64 = 1
		}
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO availability_cache (domain, available, premium, message, source, checked_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(domain) DO UPDATE SET
			available = excluded.available,
			premium = excluded.premium,
			message = excluded.message,
			source = excluded.source,
			checked_at = excluded.checked_at,
			expires_at = excluded.expires_at
	`, key, available, premium, entry.Message, entry.Source, entry.ObservedAt.UTC().Unix(), entry.ExpiresAt.UTC().Unix())
	if err != nil {
		return fmt.Errorf("store cached availability: %w", err)
	}

	return nil
}

// PurgeExpiredAvailability drops cache rows whose TTL has passed and
// returns how many were removed.
func (s *Store) PurgeExpiredAvailability(ctx context.Context) (int64, error) {
	if err := s.requireDB(); err != nil {
		return 0, err
	}

	if ctx == nil {
		ctx = context.Background()
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM availability_cache WHERE expires_at <= ?`, time.Now().UTC().Unix())
	if err != nil {
		return 0, fmt.Errorf("purge availability cache: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge availability cache: %w", err)
	}
	return affected, nil
}
