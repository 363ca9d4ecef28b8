package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lachiem1/giddycycles/internal/cycles"
	"github.com/lachiem1/giddycycles/internal/storage"
	"github.com/lachiem1/giddycycles/internal/syncer"
)

type cyclesState struct {
	obligationID string
	name         string
	kind         cycles.Kind
	rows         []cycles.Cycle
	summary      cycles.Summary
	asOf         time.Time
	err          string
	loading      bool
	cursor       int
	offset       int
	session      int
}

type loadCyclesMsg struct {
	sessionID    int
	obligationID string
	name         string
	kind         cycles.Kind
	rows         []cycles.Cycle
	asOf         time.Time
	err          error
}

func (m model) enterCyclesView(row obligationRow) (tea.Model, tea.Cmd) {
	m.screen = screenCycles
	m.cycles = cyclesState{
		obligationID: row.id,
		name:         row.name,
		kind:         row.kind,
		loading:      true,
		session:      m.cycles.session + 1,
	}

	db := m.db
	cmds := []tea.Cmd{
		m.loadCyclesCmd(m.cycles.session, row.id),
		func() tea.Msg {
			if db != nil {
				_ = storage.NewAppConfigRepo(db).SetLastObligation(context.Background(), row.id)
			}
			return nil
		},
	}
	if m.service != nil {
		cmds = append(cmds, enterSyncViewCmd(m.service.EnterCyclesView))
	}
	return m, tea.Batch(cmds...)
}

func (m model) loadCyclesCmd(sessionID int, obligationID string) tea.Cmd {
	db := m.db
	asOf := m.now()
	maxCycles := m.maxCycles
	return func() tea.Msg {
		if db == nil {
			return loadCyclesMsg{sessionID: sessionID, err: errors.New("database is not initialized")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		snap, err := storage.LoadSnapshot(ctx, db, obligationID)
		if err != nil {
			return loadCyclesMsg{sessionID: sessionID, obligationID: obligationID, err: err}
		}
		rows, err := snap.Compute(cycles.Options{AsOf: asOf, MaxCycles: maxCycles})
		return loadCyclesMsg{
			sessionID:    sessionID,
			obligationID: obligationID,
			name:         snap.Record.Name,
			kind:         snap.Obligation.Kind(),
			rows:         rows,
			asOf:         asOf,
			err:          err,
		}
	}
}

func (m model) handleCyclesLoaded(msg loadCyclesMsg) (tea.Model, tea.Cmd) {
	if msg.sessionID != m.cycles.session || msg.obligationID != m.cycles.obligationID {
		return m, nil
	}
	m.cycles.loading = false
	if msg.err != nil {
		m.cycles.err = msg.err.Error()
		return m, nil
	}
	first := m.cycles.rows == nil
	m.cycles.err = ""
	m.cycles.name = msg.name
	m.cycles.kind = msg.kind
	m.cycles.rows = msg.rows
	m.cycles.asOf = msg.asOf
	m.cycles.summary = cycles.Summarize(msg.rows)
	if first {
		if current, ok := cycles.CurrentCycle(msg.rows, msg.asOf); ok {
			m.cycles.cursor = current.Number - 1
		}
	}
	if m.cycles.cursor >= len(m.cycles.rows) {
		m.cycles.cursor = max(0, len(m.cycles.rows)-1)
	}
	m.ensureCyclesScrollWindow()
	return m, nil
}

func (m model) updateCycles(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m.quit()
	case "esc":
		return m.enterObligationsView()
	case "up", "k":
		if m.cycles.cursor > 0 {
			m.cycles.cursor--
			m.ensureCyclesScrollWindow()
		}
	case "down", "j":
		if m.cycles.cursor < len(m.cycles.rows)-1 {
			m.cycles.cursor++
			m.ensureCyclesScrollWindow()
		}
	case "r":
		return m, m.refreshLedgerCmd()
	case "enter":
		if _, ok := m.selectedCycle(); ok {
			m.screen = screenCycleDetail
		}
	case "o":
		if c, ok := m.selectedCycle(); ok {
			return m.enterOverrideView(c)
		}
	}
	return m, nil
}

func (m model) updateCycleDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m.quit()
	case "esc":
		m.screen = screenCycles
	case "left", "h":
		if m.cycles.cursor > 0 {
			m.cycles.cursor--
			m.ensureCyclesScrollWindow()
		}
	case "right", "l":
		if m.cycles.cursor < len(m.cycles.rows)-1 {
			m.cycles.cursor++
			m.ensureCyclesScrollWindow()
		}
	case "r":
		return m, m.refreshLedgerCmd()
	case "o":
		if c, ok := m.selectedCycle(); ok {
			return m.enterOverrideView(c)
		}
	}
	return m, nil
}

func (m model) refreshLedgerCmd() tea.Cmd {
	if m.service == nil {
		return m.loadCyclesCmd(m.cycles.session, m.cycles.obligationID)
	}
	service := m.service
	return func() tea.Msg {
		if err := service.RefreshLedger(); err != nil {
			return syncEventMsg{event: syncer.Event{Type: syncer.EventSyncFailed, Collection: syncer.CollectionLedger, Err: err}}
		}
		return nil
	}
}

func (m model) selectedCycle() (cycles.Cycle, bool) {
	if m.cycles.cursor < 0 || m.cycles.cursor >= len(m.cycles.rows) {
		return cycles.Cycle{}, false
	}
	return m.cycles.rows[m.cycles.cursor], true
}

func (m *model) ensureCyclesScrollWindow() {
	m.cycles.offset = scrollOffset(m.cycles.cursor, m.cycles.offset, m.cyclesVisibleRows(), len(m.cycles.rows))
}

func (m model) cyclesVisibleRows() int {
	if m.height <= 0 {
		return 12
	}
	return max(1, m.height-20)
}

func (m model) renderCyclesScreen(layoutWidth int) string {
	title := lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, renderScreenTitle("cycles"))
	center := func(s string) string {
		return lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, s)
	}
	heading := center(lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true).Render(m.cycles.name) +
		"  " + mutedStyle().Render(kindLabel(m.cycles.kind)))

	if m.cycles.err != "" {
		return strings.Join([]string{title, "", heading, "", center(errorStyle().Render("error: " + m.cycles.err))}, "\n")
	}
	if m.cycles.loading && len(m.cycles.rows) == 0 {
		return strings.Join([]string{title, "", heading, "", center(mutedStyle().Render("computing cycles..."))}, "\n")
	}
	if len(m.cycles.rows) == 0 {
		return strings.Join([]string{title, "", heading, "", center(mutedStyle().Render("no cycles"))}, "\n")
	}

	visible := m.cyclesVisibleRows()
	start := max(0, min(m.cycles.offset, max(0, len(m.cycles.rows)-1)))
	end := min(len(m.cycles.rows), start+visible)

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")).Bold(true)
	lines := []string{headerStyle.Render(fmt.Sprintf("  %4s  %-27s  %-12s  %12s  %12s  %s", "#", "window", "due", "expected", "paid", "status"))}
	for i := start; i < end; i++ {
		lines = append(lines, renderCycleRow(m.cycles.rows[i], i == m.cycles.cursor))
	}
	table := center(strings.Join(lines, "\n"))

	statusLine := center(mutedStyle().Render(fmt.Sprintf(
		"showing %d-%d/%d   enter detail   o override   r refresh   esc back",
		start+1, end, len(m.cycles.rows),
	)))
	lines = []string{title, "", heading, "", table, "", center(renderSummaryLine(m.cycles.summary)), "", statusLine}
	if strings.TrimSpace(m.commandText) != "" {
		lines = append(lines, "", center(lipgloss.NewStyle().Foreground(lipgloss.Color("#D4CDE9")).Render(m.commandText)))
	}
	return strings.Join(lines, "\n")
}

func renderCycleRow(c cycles.Cycle, selected bool) string {
	mark := " "
	switch {
	case c.StaleMinimum != nil:
		mark = "!"
	case c.Overridden():
		mark = "*"
	}
	window := fmt.Sprintf("%s - %s", cycles.FormatDate(c.StartDate), cycles.FormatDate(c.EndDate))
	paid := "-"
	if c.PaymentCount > 0 {
		paid = cycles.FormatAmount(c.ActualAmount)
	}
	text := fmt.Sprintf("%4d%s %-27s  %-12s  %12s  %12s  ",
		c.Number, mark, window, cycles.FormatDate(c.ExpectedDate), cycles.FormatAmount(c.ExpectedAmount), paid)

	rowStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#D1D5DB"))
	prefix := "  "
	if selected {
		rowStyle = rowStyle.Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
		prefix = lipgloss.NewStyle().Foreground(lipgloss.Color("#F47A60")).Bold(true).Render("> ")
	}
	return prefix + rowStyle.Render(text) + statusBadge(c)
}

func renderSummaryLine(s cycles.Summary) string {
	parts := []string{
		fmt.Sprintf("%d paid", s.Paid),
		fmt.Sprintf("%d missed", s.Missed),
		fmt.Sprintf("%d partial", s.Partial),
		fmt.Sprintf("on time %.0f%%", s.OnTimeRate()*100),
		"short " + cycles.FormatAmount(s.TotalShort),
		"over " + cycles.FormatAmount(s.TotalOver),
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")).Bold(true).Render(strings.Join(parts, "  ·  "))
}

func (m model) renderCycleDetailScreen(layoutWidth int) string {
	title := lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, renderScreenTitle("detail"))
	c, ok := m.selectedCycle()
	if !ok {
		return title
	}

	desc := cycles.Describe(c, cycles.RuleOptions{ShowBreakdown: true})
	color := lipgloss.Color(desc.Color)
	panelWidth := max(44, min(layoutWidth-10, 80))
	innerWidth := panelWidth - 4

	lines := []string{
		lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true).Render(
			fmt.Sprintf("%s · cycle %d", m.cycles.name, c.Number)),
		mutedStyle().Render(fmt.Sprintf("%s to %s", cycles.FormatDisplayDate(c.StartDate), cycles.FormatDisplayDate(c.EndDate))),
		"",
		lipgloss.NewStyle().Foreground(color).Bold(true).Render(desc.Title),
		lipgloss.NewStyle().Foreground(lipgloss.Color("#D1D5DB")).Width(innerWidth).Render(desc.Subtitle),
		"",
		lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")).Bold(true).Render("rules"),
	}
	for _, rule := range desc.Rules {
		lines = append(lines, lipgloss.NewStyle().Width(innerWidth).Render("• "+rule))
	}

	lines = append(lines, "", lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")).Bold(true).Render("payments"))
	if len(c.Transactions) == 0 {
		lines = append(lines, mutedStyle().Render("none attributed"))
	}
	for _, tx := range c.Transactions {
		lines = append(lines, renderAttributedTransaction(tx, innerWidth))
	}

	if len(c.Bills) > 0 {
		lines = append(lines, "", lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")).Bold(true).Render("bills"))
		for _, b := range c.Bills {
			status := b.Status
			if status == "" {
				status = "open"
			}
			lines = append(lines, fmt.Sprintf("%s  %12s  %s", cycles.FormatDate(b.Due), cycles.FormatAmount(b.Billed()), mutedStyle().Render(status)))
		}
	}

	if c.Override != nil && c.Override.Notes != "" {
		lines = append(lines, "", mutedStyle().Width(innerWidth).Render("note: "+c.Override.Notes))
	}

	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1).
		Width(panelWidth).
		Render(strings.Join(lines, "\n"))
	panel = lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, panel)

	footer := lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center,
		mutedStyle().Render("←/→ previous/next cycle   o override   esc back"))
	return strings.Join([]string{title, "", panel, "", footer}, "\n")
}

func renderAttributedTransaction(tx cycles.AttributedTransaction, width int) string {
	tag := timingTag(tx.Timing)
	desc := strings.TrimSpace(tx.Metadata["description"])
	if desc == "" {
		desc = tx.ID
	}
	left := fmt.Sprintf("%s  %12s  ", cycles.FormatDate(tx.On), cycles.FormatAmount(tx.Amount))
	descWidth := max(4, width-lipgloss.Width(left)-lipgloss.Width(tag)-1)
	return left + lipgloss.NewStyle().Width(descWidth).MaxWidth(descWidth).Render(desc) + " " + tag
}

func timingTag(timing cycles.PaymentTiming) string {
	color := "#9CA3AF"
	label := string(timing)
	switch timing {
	case cycles.TimingEarly:
		color = "#34D399"
	case cycles.TimingOnTime:
		color = "#5CCB76"
		label = "on time"
	case cycles.TimingWithinWindow:
		color = "#A3E635"
		label = "within window"
	case cycles.TimingLate:
		color = "#F59E0B"
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(label)
}
