package syncer

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lachiem1/giddycycles/internal/storage"
)

// runSyncAttempt wraps collection sync work with sync_state bookkeeping.
// The work function returns the timestamp that should be recorded as success.
func runSyncAttempt(
	ctx context.Context,
	syncState *storage.SyncStateRepo,
	collection string,
	work func(context.Context) (time.Time, error),
) error {
	attemptAt := time.Now().UTC()
	if err := syncState.RecordAttempt(ctx, collection, attemptAt); err != nil {
		return err
	}

	successAt, err := work(ctx)
	if err != nil {
		_ = syncState.RecordError(context.Background(), collection, time.Now().UTC(), err)
		return err
	}
	if successAt.IsZero() {
		successAt = time.Now().UTC()
	}
	return syncState.RecordSuccess(ctx, collection, successAt.UTC())
}

func lastSuccessAt(ctx context.Context, syncState *storage.SyncStateRepo, collection string) (time.Time, bool, error) {
	state, ok, err := syncState.Get(ctx, collection)
	if err != nil {
		return time.Time{}, false, err
	}
	if !ok || state.LastSuccess == nil {
		return time.Time{}, false, nil
	}
	return state.LastSuccess.UTC(), true, nil
}

func stringAttr(attrs map[string]any, key string) (string, error) {
	val, ok := attrs[key]
	if !ok {
		return "", fmt.Errorf("missing %s", key)
	}
	str, ok := val.(string)
	if !ok || strings.TrimSpace(str) == "" {
		return "", fmt.Errorf("invalid %s", key)
	}
	return str, nil
}

// optionalStringAttr returns nil for a missing, null or blank attribute.
func optionalStringAttr(attrs map[string]any, key string) (*string, error) {
	val, ok := attrs[key]
	if !ok || val == nil {
		return nil, nil
	}
	str, ok := val.(string)
	if !ok {
		return nil, fmt.Errorf("invalid %s type %T", key, val)
	}
	if strings.TrimSpace(str) == "" {
		return nil, nil
	}
	return &str, nil
}

func int64Attr(attrs map[string]any, key string) (int64, error) {
	val, ok := attrs[key]
	if !ok {
		return 0, fmt.Errorf("missing %s", key)
	}

	switch n := val.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("invalid %s", key)
		}
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("non-integer %s", key)
		}
		return int64(n), nil
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s %q", key, n)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("invalid %s type %T", key, val)
	}
}

// optionalIntAttr returns nil for a missing or null attribute.
func optionalIntAttr(attrs map[string]any, key string) (*int, error) {
	if val, ok := attrs[key]; !ok || val == nil {
		return nil, nil
	}
	n, err := int64Attr(attrs, key)
	if err != nil {
		return nil, err
	}
	v := int(n)
	return &v, nil
}

func boolAttr(attrs map[string]any, key string) (bool, error) {
	val, ok := attrs[key]
	if !ok || val == nil {
		return false, nil
	}
	b, ok := val.(bool)
	if !ok {
		return false, fmt.Errorf("invalid %s type %T", key, val)
	}
	return b, nil
}

// moneyAttr reads a money object ({"currencyCode", "value",
// "valueInBaseUnits"}) and returns its decimal value as a string. A plain
// string or number is accepted too. Missing or null yields nil.
func moneyAttr(attrs map[string]any, key string) (*string, error) {
	val, ok := attrs[key]
	if !ok || val == nil {
		return nil, nil
	}

	var raw string
	switch v := val.(type) {
	case map[string]any:
		value, err := stringAttr(v, "value")
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		raw = value
	case string:
		raw = v
	case float64:
		raw = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return nil, fmt.Errorf("invalid %s type %T", key, val)
	}

	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", key, raw)
	}
	out := d.String()
	return &out, nil
}

// absMoney drops the sign of a money string. Bill amounts are compared as
// magnitudes.
func absMoney(raw string) string {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return raw
	}
	return d.Abs().String()
}

// relationshipID returns data.id of a to-one relationship, if present.
func relationshipID(rels map[string]map[string]any, name string) string {
	rel, ok := rels[name]
	if !ok {
		return ""
	}
	data, ok := rel["data"].(map[string]any)
	if !ok {
		return ""
	}
	id, _ := data["id"].(string)
	return id
}
