package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lachiem1/giddycycles/internal/cycles"
)

const (
	configKeyLastObligation  = "ui.last_obligation_id"
	configKeyTolerancePrefix = "tolerance."
)

// AppConfigRepo holds local preferences that are not part of any backend
// resource.
type AppConfigRepo struct {
	db *sql.DB
}

func NewAppConfigRepo(db *sql.DB) *AppConfigRepo {
	return &AppConfigRepo{db: db}
}

func (r *AppConfigRepo) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM app_config WHERE key = ?", key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get app config %q: %w", key, err)
	}
	return value, true, nil
}

func (r *AppConfigRepo) UpsertMany(ctx context.Context, values map[string]string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin app config upsert transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for key, value := range values {
		if _, err = tx.ExecContext(
			ctx,
			`INSERT INTO app_config (key, value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			key,
			value,
			now,
		); err != nil {
			return fmt.Errorf("upsert app config %q: %w", key, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit app config upsert transaction: %w", err)
	}
	return nil
}

// LastObligation is the obligation the TUI had open when it last exited.
func (r *AppConfigRepo) LastObligation(ctx context.Context) (string, bool, error) {
	return r.Get(ctx, configKeyLastObligation)
}

func (r *AppConfigRepo) SetLastObligation(ctx context.Context, obligationID string) error {
	return r.UpsertMany(ctx, map[string]string{configKeyLastObligation: strings.TrimSpace(obligationID)})
}

// ToleranceDays returns the user's default tolerance for a kind, if set.
func (r *AppConfigRepo) ToleranceDays(ctx context.Context, kind cycles.Kind) (int, bool, error) {
	raw, ok, err := r.Get(ctx, configKeyTolerancePrefix+string(kind))
	if err != nil || !ok {
		return 0, false, err
	}
	days, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false, fmt.Errorf("app config %q: %w", configKeyTolerancePrefix+string(kind), err)
	}
	return days, true, nil
}

func (r *AppConfigRepo) SetToleranceDays(ctx context.Context, kind cycles.Kind, days int) error {
	if days < 0 {
		return fmt.Errorf("tolerance for %s cannot be negative", kind)
	}
	return r.UpsertMany(ctx, map[string]string{configKeyTolerancePrefix + string(kind): strconv.Itoa(days)})
}
