package tui

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lachiem1/giddycycles/internal/cycles"
	"github.com/lachiem1/giddycycles/internal/storage"
	"github.com/lachiem1/giddycycles/internal/syncer"
)

type obligationRow struct {
	id         string
	name       string
	kind       cycles.Kind
	recurrence string
	next       *cycles.Cycle
	latest     *cycles.Cycle
	summary    cycles.Summary
	err        string
}

type obligationsState struct {
	rows      []obligationRow
	fetchedAt *time.Time
	err       string
	syncErr   string
	loading   bool
	cursor    int
	offset    int
	session   int
}

type loadObligationsMsg struct {
	sessionID int
	rows      []obligationRow
	fetchedAt *time.Time
	lastID    string
	err       error
}

func (m model) enterObligationsView() (tea.Model, tea.Cmd) {
	m.selected = 0
	m.screen = screenObligations
	m.obligations.err = ""
	m.obligations.syncErr = ""
	m.obligations.loading = true
	m.obligations.session++
	m.cmd.Blur()
	m.cmd.SetValue("")
	m.clearCommandSuggestions()

	cmds := []tea.Cmd{
		m.loadObligationsCmd(m.obligations.session),
		m.clockTickCmd(),
	}
	if m.service != nil {
		cmds = append(cmds, enterSyncViewCmd(m.service.EnterObligationsView))
	}
	return m, tea.Batch(cmds...)
}

func (m model) updateObligations(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m.quit()
	case "esc":
		return m.goHome()
	case "up", "k":
		if m.obligations.cursor > 0 {
			m.obligations.cursor--
			m.ensureObligationsScrollWindow()
		}
	case "down", "j":
		if m.obligations.cursor < len(m.obligations.rows)-1 {
			m.obligations.cursor++
			m.ensureObligationsScrollWindow()
		}
	case "r":
		if m.service == nil {
			return m, nil
		}
		m.obligations.syncErr = ""
		service := m.service
		return m, func() tea.Msg {
			if err := service.RefreshObligations(); err != nil {
				return syncEventMsg{event: syncer.Event{Type: syncer.EventSyncFailed, Collection: syncer.CollectionObligations, Err: err}}
			}
			return nil
		}
	case "enter":
		if len(m.obligations.rows) == 0 {
			return m, nil
		}
		return m.enterCyclesView(m.obligations.rows[m.obligations.cursor])
	}
	return m, nil
}

func (m model) handleObligationsLoaded(msg loadObligationsMsg) (tea.Model, tea.Cmd) {
	if msg.sessionID != m.obligations.session {
		return m, nil
	}
	m.obligations.loading = false
	if msg.err != nil {
		if len(m.obligations.rows) == 0 {
			m.obligations.err = msg.err.Error()
		}
		return m, nil
	}
	first := m.obligations.rows == nil
	m.obligations.err = ""
	m.obligations.rows = msg.rows
	m.obligations.fetchedAt = msg.fetchedAt
	if first && msg.lastID != "" {
		for i, row := range msg.rows {
			if row.id == msg.lastID {
				m.obligations.cursor = i
				break
			}
		}
	}
	if m.obligations.cursor >= len(m.obligations.rows) {
		m.obligations.cursor = max(0, len(m.obligations.rows)-1)
	}
	m.ensureObligationsScrollWindow()
	return m, nil
}

func (m *model) ensureObligationsScrollWindow() {
	m.obligations.offset = scrollOffset(m.obligations.cursor, m.obligations.offset, m.obligationsVisibleRows(), len(m.obligations.rows))
}

func (m model) obligationsVisibleRows() int {
	if m.height <= 0 {
		return 5
	}
	// Each card is three rows tall; title, status and footer take the rest.
	return max(1, (m.height-18)/3)
}

func (m model) loadObligationsCmd(sessionID int) tea.Cmd {
	db := m.db
	asOf := m.now()
	maxCycles := m.maxCycles
	return func() tea.Msg {
		if db == nil {
			return loadObligationsMsg{sessionID: sessionID, err: errors.New("database is not initialized")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		rows, err := queryObligationRows(ctx, db, asOf, maxCycles)
		if err != nil {
			return loadObligationsMsg{sessionID: sessionID, err: err}
		}
		var fetchedAt *time.Time
		if state, found, err := storage.NewSyncStateRepo(db).Get(ctx, syncer.CollectionObligations); err == nil && found && state.LastSuccess != nil {
			t := state.LastSuccess.UTC()
			fetchedAt = &t
		}
		lastID, _, _ := storage.NewAppConfigRepo(db).LastObligation(ctx)
		return loadObligationsMsg{sessionID: sessionID, rows: rows, fetchedAt: fetchedAt, lastID: lastID}
	}
}

// queryObligationRows computes every cached obligation as of asOf. A broken
// obligation keeps its row with the error so it stays visible.
func queryObligationRows(ctx context.Context, db *sql.DB, asOf time.Time, maxCycles int) ([]obligationRow, error) {
	records, err := storage.NewObligationsRepo(db).List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]obligationRow, 0, len(records))
	for _, rec := range records {
		row := obligationRow{
			id:   rec.ID,
			name: rec.Name,
			kind: cycles.Kind(rec.Kind),
		}
		snap, err := storage.LoadSnapshot(ctx, db, rec.ID)
		if err != nil {
			row.err = err.Error()
			out = append(out, row)
			continue
		}
		row.recurrence = snap.Obligation.Recurrence.String()
		cs, err := snap.Compute(cycles.Options{AsOf: asOf, MaxCycles: maxCycles})
		if err != nil {
			row.err = err.Error()
			out = append(out, row)
			continue
		}
		if next, ok := cycles.NextDue(cs, asOf); ok {
			row.next = &next
		}
		if latest, ok := latestAssessed(cs); ok {
			row.latest = &latest
		}
		row.summary = cycles.Summarize(cs)
		out = append(out, row)
	}
	return out, nil
}

// latestAssessed returns the most recent cycle that is no longer upcoming,
// falling back to the first upcoming one.
func latestAssessed(cs []cycles.Cycle) (cycles.Cycle, bool) {
	for i := len(cs) - 1; i >= 0; i-- {
		if cs[i].Status != cycles.StatusUpcoming {
			return cs[i], true
		}
	}
	if len(cs) > 0 {
		return cs[0], true
	}
	return cycles.Cycle{}, false
}

func enterSyncViewCmd(enter func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		if err := enter(context.Background()); err != nil {
			return syncEventMsg{event: syncer.Event{Type: syncer.EventSyncFailed, Err: err, At: time.Now().UTC()}}
		}
		return nil
	}
}

func kindLabel(kind cycles.Kind) string {
	switch kind {
	case cycles.KindRecurring:
		return "recurring"
	case "":
		return "unknown"
	default:
		return string(kind)
	}
}

func statusBadge(c cycles.Cycle) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(cycles.StatusColor(c.Status))).
		Bold(true).
		Render(cycles.StatusTitle(c.Status))
}

func (m model) renderObligationsScreen(layoutWidth int) string {
	title := lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, renderScreenTitle("obligations"))
	center := func(s string) string {
		return lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, s)
	}

	if strings.TrimSpace(m.obligations.err) != "" {
		return strings.Join([]string{title, "", center(errorStyle().Render("error: " + m.obligations.err))}, "\n")
	}
	if m.obligations.loading && len(m.obligations.rows) == 0 {
		return strings.Join([]string{title, "", center(mutedStyle().Render("loading obligations..."))}, "\n")
	}
	if len(m.obligations.rows) == 0 {
		hint := "no obligations cached yet"
		if m.service != nil {
			hint += ", syncing..."
		}
		return strings.Join([]string{title, "", center(lipgloss.NewStyle().Foreground(lipgloss.Color("#B9B4D0")).Render(hint))}, "\n")
	}

	cardWidth := max(40, min(layoutWidth-20, 72))
	innerWidth := max(8, cardWidth-4)
	visible := m.obligationsVisibleRows()
	start := max(0, min(m.obligations.offset, max(0, len(m.obligations.rows)-1)))
	end := min(len(m.obligations.rows), start+visible)

	baseCard := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#FFFFFF")).
		Padding(0, 1).
		Width(cardWidth)
	selectedCard := baseCard.BorderForeground(lipgloss.Color("#FFD54A"))

	cards := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		row := m.obligations.rows[i]
		card := baseCard
		if i == m.obligations.cursor {
			card = selectedCard
		}
		cards = append(cards, card.Render(renderObligationCard(row, innerWidth)))
	}
	body := center(strings.Join(cards, "\n"))

	shownFrom, shownTo := 0, 0
	if end > start {
		shownFrom, shownTo = start+1, end
	}
	statusLine := center(mutedStyle().Render(fmt.Sprintf(
		"showing %d-%d/%d   ↑/↓ to scroll   enter cycles   r refresh   esc back",
		shownFrom, shownTo, len(m.obligations.rows),
	)))

	lines := []string{title, "", body, "", statusLine}
	if m.obligations.syncErr != "" {
		lines = append(lines, "", center(errorStyle().Render("sync failed: "+m.obligations.syncErr)))
	}
	if m.obligations.fetchedAt != nil {
		age := m.now().UTC().Sub(*m.obligations.fetchedAt).Round(time.Second)
		if age < 0 {
			age = 0
		}
		lines = append(lines, "", center(mutedStyle().Render(fmt.Sprintf("last updated %s ago", age.String()))))
	}
	return strings.Join(lines, "\n")
}

func renderObligationCard(row obligationRow, innerWidth int) string {
	nameStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	kind := mutedStyle().Render(kindLabel(row.kind))
	leftWidth := max(4, innerWidth-lipgloss.Width(kind)-1)
	top := lipgloss.NewStyle().Width(leftWidth).MaxWidth(leftWidth).Render(nameStyle.Render(row.name)) + " " + kind

	if row.err != "" {
		detail := errorStyle().Width(innerWidth).MaxWidth(innerWidth).Render(row.err)
		return top + "\n" + detail
	}

	next := "nothing due"
	if row.next != nil {
		next = fmt.Sprintf("next %s due %s", cycles.FormatAmount(row.next.ExpectedAmount), cycles.FormatDisplayDate(row.next.ExpectedDate))
	}
	latest := ""
	if row.latest != nil {
		latest = statusBadge(*row.latest)
	}
	nextWidth := max(4, innerWidth-lipgloss.Width(latest)-1)
	bottom := lipgloss.NewStyle().Width(nextWidth).MaxWidth(nextWidth).Foreground(lipgloss.Color("#D1D5DB")).Render(next) + " " + latest
	return top + "\n" + bottom
}

// renderDueSoonPanel lists the next due cycle of each obligation, soonest
// first.
func (m model) renderDueSoonPanel(width, height int) string {
	heading := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD54A")).Bold(true).Render("due soon")
	due := make([]obligationRow, 0, len(m.obligations.rows))
	for _, row := range m.obligations.rows {
		if row.next != nil {
			due = append(due, row)
		}
	}
	if len(due) == 0 {
		return heading + "\n\n" + mutedStyle().Render("nothing due")
	}
	sort.SliceStable(due, func(i, j int) bool {
		return due[i].next.ExpectedDate.Before(due[j].next.ExpectedDate)
	})

	lines := []string{heading, ""}
	today := cycles.Day(m.now())
	for _, row := range due {
		if len(lines) >= height {
			break
		}
		days := int(row.next.ExpectedDate.Sub(today).Hours() / 24)
		when := fmt.Sprintf("in %dd", days)
		if days == 0 {
			when = "today"
		}
		right := fmt.Sprintf("%s %s", cycles.FormatAmount(row.next.ExpectedAmount), when)
		nameWidth := max(4, width-lipgloss.Width(right)-1)
		name := lipgloss.NewStyle().Width(nameWidth).MaxWidth(nameWidth).Render(row.name)
		lines = append(lines, name+" "+lipgloss.NewStyle().Foreground(lipgloss.Color(cycles.StatusColor(row.next.Status))).Render(right))
	}
	return strings.Join(lines, "\n")
}
