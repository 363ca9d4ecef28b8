package tui

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lachiem1/giddycycles/internal/cycles"
	"github.com/lachiem1/giddycycles/internal/storage"
)

var testNow = time.Date(2024, 2, 10, 9, 30, 0, 0, time.UTC)

func seededDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	db, err := storage.Open(ctx, storage.Config{Mode: storage.ModePlain, Path: filepath.Join(t.TempDir(), "tui.db")})
	if err != nil {
		t.Fatalf("storage.Open() unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	minimum := "800"
	loan := storage.ObligationRecord{
		ID:           "loan-1",
		Name:         "Car loan",
		Kind:         string(cycles.KindLiability),
		StartDate:    "2024-01-01",
		Frequency:    "monthly",
		AmountValue:  "1000",
		MinimumValue: &minimum,
	}
	if err := storage.NewObligationsRepo(db).ReplaceSnapshot(ctx, []storage.ObligationRecord{loan}, testNow); err != nil {
		t.Fatalf("ReplaceSnapshot() unexpected error: %v", err)
	}
	txs := []storage.TransactionRecord{{ID: "t1", AmountValue: "600", PostedOn: "2024-01-02", Description: "Loan repayment"}}
	if err := storage.NewLedgerRepo(db).ReplaceForObligation(ctx, "loan-1", txs, nil, testNow); err != nil {
		t.Fatalf("ReplaceForObligation() unexpected error: %v", err)
	}
	return db
}

func testModel(db *sql.DB) model {
	m := newModel(db, Options{Now: func() time.Time { return testNow }})
	m.width = 140
	m.height = 48
	return m
}

func TestLoadObligationsComputesNextDueAndLatestStatus(t *testing.T) {
	m := testModel(seededDB(t))
	m.screen = screenObligations

	msg := m.loadObligationsCmd(m.obligations.session)()
	next, _ := m.Update(msg)
	m = next.(model)

	if m.obligations.err != "" {
		t.Fatalf("obligations error = %q", m.obligations.err)
	}
	if len(m.obligations.rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(m.obligations.rows))
	}
	row := m.obligations.rows[0]
	if row.next == nil || row.next.Number != 3 {
		t.Fatalf("next due = %+v, want cycle 3", row.next)
	}
	if row.latest == nil || row.latest.Status != cycles.StatusNotPaid {
		t.Fatalf("latest = %+v, want not_paid cycle", row.latest)
	}
	if row.summary.Missed != 2 {
		t.Fatalf("summary missed = %d, want 2", row.summary.Missed)
	}
	if !strings.Contains(m.View(), "Car loan") {
		t.Fatal("View() does not show the obligation name")
	}
}

func TestStaleObligationsLoadIsDiscarded(t *testing.T) {
	m := testModel(seededDB(t))
	m.obligations.session = 2

	next, _ := m.Update(loadObligationsMsg{sessionID: 1, rows: []obligationRow{{id: "old"}}})
	m = next.(model)
	if len(m.obligations.rows) != 0 {
		t.Fatalf("rows = %+v, want stale load ignored", m.obligations.rows)
	}
}

func loadedCyclesModel(t *testing.T, db *sql.DB) model {
	t.Helper()
	m := testModel(db)
	m.screen = screenCycles
	m.cycles = cyclesState{obligationID: "loan-1", session: 1, loading: true}

	msg := m.loadCyclesCmd(1, "loan-1")()
	next, _ := m.Update(msg)
	m = next.(model)
	if m.cycles.err != "" {
		t.Fatalf("cycles error = %q", m.cycles.err)
	}
	return m
}

func TestCyclesViewStartsAtCurrentCycle(t *testing.T) {
	m := loadedCyclesModel(t, seededDB(t))

	if len(m.cycles.rows) != 3 {
		t.Fatalf("cycles = %d, want 3", len(m.cycles.rows))
	}
	if m.cycles.cursor != 1 {
		t.Fatalf("cursor = %d, want 1 (February)", m.cycles.cursor)
	}
	if got := m.cycles.rows[0].Status; got != cycles.StatusUnderpaid {
		t.Fatalf("cycle 1 status = %q, want %q", got, cycles.StatusUnderpaid)
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(model)
	if m.screen != screenCycleDetail {
		t.Fatalf("screen = %v, want detail", m.screen)
	}
	if view := m.View(); !strings.Contains(view, "Not paid") {
		t.Fatalf("detail view missing status title:\n%s", view)
	}
}

func TestOverrideEditorShowsValidationErrorsInline(t *testing.T) {
	db := seededDB(t)
	m := loadedCyclesModel(t, db)

	next, _ := m.enterOverrideView(m.cycles.rows[0])
	m = next.(model)
	m.override.minimum.SetValue("1200")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(model)
	if cmd != nil {
		t.Fatal("invalid override should not issue a save")
	}
	if !strings.Contains(m.override.err, "exceeds") {
		t.Fatalf("override error = %q, want minimum exceeds amount", m.override.err)
	}
	if m.screen != screenOverride {
		t.Fatalf("screen = %v, want override editor", m.screen)
	}
}

func TestOverrideEditorSavesAndReloads(t *testing.T) {
	db := seededDB(t)
	m := loadedCyclesModel(t, db)

	next, _ := m.enterOverrideView(m.cycles.rows[0])
	m = next.(model)
	m.override.amount.SetValue("600")
	m.override.minimum.SetValue("500")
	m.override.notes.SetValue("hardship")

	ov, err := m.overrideFromForm()
	if err != nil {
		t.Fatalf("overrideFromForm() unexpected error: %v", err)
	}
	msg := m.saveOverrideCmd(1, ov)()
	next, _ = m.Update(msg)
	m = next.(model)
	if m.override.err != "" {
		t.Fatalf("override error = %q", m.override.err)
	}
	if m.screen != screenCycles {
		t.Fatalf("screen = %v, want cycles", m.screen)
	}

	saved, err := storage.NewOverridesRepo(db).ListByObligation(context.Background(), "loan-1")
	if err != nil {
		t.Fatalf("ListByObligation() unexpected error: %v", err)
	}
	if got := saved[1]; got.Amount == nil || got.Amount.StringFixed(2) != "600.00" || got.Notes != "hardship" {
		t.Fatalf("saved override = %+v", got)
	}

	reloaded := loadedCyclesModel(t, db)
	if got := reloaded.cycles.rows[0].Status; got != cycles.StatusPaidOnTime {
		t.Fatalf("cycle 1 status after override = %q, want %q", got, cycles.StatusPaidOnTime)
	}
}

func TestValidateAndFormatDateDigits(t *testing.T) {
	cases := []struct {
		digits  string
		want    string
		wantErr bool
	}{
		{digits: "20240229", want: "2024-02-29"},
		{digits: "20230229", wantErr: true},
		{digits: "20241301", wantErr: true},
		{digits: "202401", wantErr: true},
	}
	for _, tc := range cases {
		got, err := validateAndFormatDateDigits(tc.digits)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("validateAndFormatDateDigits(%q) expected error", tc.digits)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("validateAndFormatDateDigits(%q) = %q, %v, want %q", tc.digits, got, err, tc.want)
		}
	}
}

func TestNormalizeAmountInput(t *testing.T) {
	cases := map[string]string{
		"1,250.505": "1250.50",
		"$12a3":     "123",
		"1.2.3":     "1.23",
	}
	for in, want := range cases {
		if got := normalizeAmountInput(in); got != want {
			t.Fatalf("normalizeAmountInput(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestScrollOffset(t *testing.T) {
	cases := []struct {
		cursor, offset, visible, total, want int
	}{
		{cursor: 0, offset: 0, visible: 5, total: 10, want: 0},
		{cursor: 6, offset: 0, visible: 5, total: 10, want: 2},
		{cursor: 1, offset: 4, visible: 5, total: 10, want: 1},
		{cursor: 2, offset: 8, visible: 5, total: 3, want: 0},
	}
	for _, tc := range cases {
		if got := scrollOffset(tc.cursor, tc.offset, tc.visible, tc.total); got != tc.want {
			t.Fatalf("scrollOffset(%d, %d, %d, %d) = %d, want %d", tc.cursor, tc.offset, tc.visible, tc.total, got, tc.want)
		}
	}
}
