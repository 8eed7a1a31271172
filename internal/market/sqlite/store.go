/*
Copyright 2025 The VoltFleet Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package sqlite provides a SQLite-backed secondary-market registry.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	fleetv1alpha1 "github.com/voltfleet/fleet-core/api/v1alpha1"
	"github.com/voltfleet/fleet-core/internal/engines/common"
	"github.com/voltfleet/fleet-core/internal/market"
	"github.com/voltfleet/fleet-core/internal/market/sqlite/migrations"
)

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

// Store persists listings in SQLite. Membership checks are answered from an
// in-process index that mirrors the asset_id column.
type Store struct {
	sqlDB *sql.DB

	// mu serialises Add so that the index and the table move together.
	mu    sync.Mutex
	index *common.ListingIndex
}

func toNanos(value time.Time) int64 {
	if value.IsZero() {
		return 0
	}
	return value.UTC().UnixNano()
}

func fromNanos(value int64) time.Time {
	if value == 0 {
		return time.Time{}
	}
	return time.Unix(0, value).UTC()
}

// Open opens a SQLite listing store, applies embedded migrations and loads
// the listing index.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite dsn is required")
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// An in-memory database lives and dies with its connection.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxIdleTime(0)
	sqlDB.SetConnMaxLifetime(0)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := &Store{sqlDB: sqlDB, index: common.NewListingIndex()}
	existing, err := s.List(ctx)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	for _, l := range existing {
		s.index.Insert(l.AssetID)
	}
	return s, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Add implements market.Registry. All inserts of one call share a
// transaction; rows rejected by the unique asset_id constraint are skipped.
func (s *Store) Add(ctx context.Context, listings []fleetv1alpha1.SLXListing) ([]fleetv1alpha1.SLXListing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if err := market.ValidateListings(listings); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin add listings: %w", err)
	}

	var added []fleetv1alpha1.SLXListing
	for _, l := range listings {
		_, err := tx.ExecContext(
			ctx,
			`INSERT INTO slx_listings (asset_id, soh, salvage_value, listed_at)
			 VALUES (?, ?, ?, ?)`,
			l.AssetID,
			l.Soh,
			l.SalvageValue.String(),
			toNanos(l.ListedAt),
		)
		if err != nil {
			if isListingUniqueViolation(err) {
				continue
			}
			_ = tx.Rollback()
			return nil, fmt.Errorf("insert listing %s: %w", l.AssetID, err)
		}
		added = append(added, l)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit listings: %w", err)
	}

	for _, l := range added {
		s.index.Insert(l.AssetID)
	}
	return added, nil
}

// List implements market.Registry.
func (s *Store) List(ctx context.Context) ([]fleetv1alpha1.SLXListing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT asset_id, soh, salvage_value, listed_at
		   FROM slx_listings
		  ORDER BY seq`,
	)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]fleetv1alpha1.SLXListing, 0, s.index.Len())
	for rows.Next() {
		var (
			l        fleetv1alpha1.SLXListing
			salvage  string
			listedAt int64
		)
		if err := rows.Scan(&l.AssetID, &l.Soh, &salvage, &listedAt); err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		l.SalvageValue, err = decimal.NewFromString(salvage)
		if err != nil {
			return nil, fmt.Errorf("listing %s: parse salvage value: %w", l.AssetID, err)
		}
		l.ListedAt = fromNanos(listedAt)
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listings: %w", err)
	}
	return out, nil
}

// Contains implements interfaces.ListingLookup.
func (s *Store) Contains(assetID string) bool {
	return s.index.Contains(assetID)
}

// Len implements market.Registry.
func (s *Store) Len() int {
	return s.index.Len()
}

func isListingUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint failed") &&
		strings.Contains(message, "slx_listings.asset_id")
}

var _ market.Registry = (*Store)(nil)
