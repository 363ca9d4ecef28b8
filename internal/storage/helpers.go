package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// deactivateMissing flags rows whose ids were not part of the latest fetch.
// When scopeColumn is set only rows with scopeColumn = scopeValue are touched.
func deactivateMissing(ctx context.Context, tx *sql.Tx, table string, keep []string, scopeColumn string, scopeValue any) error {
	where := []string{}
	args := []any{}
	if scopeColumn != "" {
		where = append(where, scopeColumn+" = ?")
		args = append(args, scopeValue)
	}
	if len(keep) > 0 {
		placeholders := make([]string, len(keep))
		for i, id := range keep {
			placeholders[i] = "?"
			args = append(args, id)
		}
		where = append(where, fmt.Sprintf("id NOT IN (%s)", strings.Join(placeholders, ",")))
	}

	q := fmt.Sprintf("UPDATE %s SET is_active = 0", table)
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("deactivate missing %s: %w", table, err)
	}
	return nil
}

func ptrString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func ptrInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func ptrDecimal(v *decimal.Decimal) any {
	if v == nil {
		return nil
	}
	return v.String()
}

func ptrStringValue(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func nullStringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
