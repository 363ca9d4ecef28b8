package syncer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestFetchAllByIDKeepsOrder(t *testing.T) {
	ids := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	got, err := fetchAllByID(context.Background(), ids, 3, func(_ context.Context, id string) (int, error) {
		// Longer ids finish first.
		time.Sleep(time.Duration(6-len(id)) * time.Millisecond)
		return len(id), nil
	})
	if err != nil {
		t.Fatalf("fetchAllByID() unexpected error: %v", err)
	}
	for i, n := range got {
		if n != i+1 {
			t.Fatalf("fetchAllByID() = %v, want [1 2 3 4 5]", got)
		}
	}
}

func TestFetchAllByIDReturnsFirstError(t *testing.T) {
	boom := errors.New("boom")
	_, err := fetchAllByID(context.Background(), []string{"ok", "bad", "ok2"}, 2, func(_ context.Context, id string) (string, error) {
		if strings.HasPrefix(id, "bad") {
			return "", boom
		}
		return id, nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("fetchAllByID() error = %v, want boom", err)
	}
}

func TestFetchAllByIDEmpty(t *testing.T) {
	got, err := fetchAllByID(context.Background(), nil, 4, func(context.Context, string) (int, error) {
		t.Fatal("fetch called for empty ids")
		return 0, nil
	})
	if err != nil || len(got) != 0 {
		t.Fatalf("fetchAllByID() = (%v, %v), want ([], nil)", got, err)
	}
}
