package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lachiem1/giddycycles/internal/cycles"
	"github.com/lachiem1/giddycycles/internal/storage"
)

const maxToleranceDays = 30

type configState struct {
	days  map[cycles.Kind]int
	dirty bool
	focus int
	err   string
}

type loadConfigMsg struct {
	days map[cycles.Kind]int
	err  error
}

type saveConfigMsg struct {
	err error
}

func configKinds() []cycles.Kind {
	return []cycles.Kind{cycles.KindLiability, cycles.KindRecurring, cycles.KindGoal, cycles.KindBudget}
}

func defaultToleranceDays(kind cycles.Kind) int {
	switch kind {
	case cycles.KindLiability:
		return cycles.LiabilityToleranceDays
	case cycles.KindRecurring:
		return cycles.RecurringToleranceDays
	case cycles.KindGoal:
		return cycles.GoalToleranceDays
	default:
		return cycles.BudgetToleranceDays
	}
}

func (m model) enterConfigView() (tea.Model, tea.Cmd) {
	m.selected = 1
	m.screen = screenConfig
	m.config = configState{}
	m.cmd.Blur()
	m.cmd.SetValue("")
	m.clearCommandSuggestions()
	return m, m.loadConfigCmd()
}

func (m model) loadConfigCmd() tea.Cmd {
	db := m.db
	return func() tea.Msg {
		if db == nil {
			return loadConfigMsg{err: fmt.Errorf("database is not initialized")}
		}
		repo := storage.NewAppConfigRepo(db)
		days := make(map[cycles.Kind]int, 4)
		for _, kind := range configKinds() {
			n, ok, err := repo.ToleranceDays(context.Background(), kind)
			if err != nil {
				return loadConfigMsg{err: err}
			}
			if !ok {
				n = defaultToleranceDays(kind)
			}
			days[kind] = n
		}
		return loadConfigMsg{days: days}
	}
}

func (m model) saveConfigCmd(days map[cycles.Kind]int) tea.Cmd {
	db := m.db
	return func() tea.Msg {
		if db == nil {
			return saveConfigMsg{err: fmt.Errorf("database is not initialized")}
		}
		repo := storage.NewAppConfigRepo(db)
		for _, kind := range configKinds() {
			if err := repo.SetToleranceDays(context.Background(), kind, days[kind]); err != nil {
				return saveConfigMsg{err: err}
			}
		}
		return saveConfigMsg{}
	}
}

func (m model) handleConfigLoaded(msg loadConfigMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.config.err = msg.err.Error()
		return m, nil
	}
	m.config.err = ""
	m.config.days = msg.days
	m.config.dirty = false
	return m, nil
}

func (m model) handleConfigSaved(msg saveConfigMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.config.err = msg.err.Error()
		return m, nil
	}
	m.config.err = ""
	m.config.dirty = false
	next, cmd := m.withCommandFeedback("tolerance defaults saved")
	return next, tea.Batch(cmd, m.loadObligationsCmd(m.obligations.session))
}

func (m model) updateConfig(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	kinds := configKinds()
	switch msg.String() {
	case "ctrl+c", "q":
		return m.quit()
	case "esc":
		m.config.err = ""
		return m.goHome()
	case "tab", "down", "j":
		m.config.focus = (m.config.focus + 1) % len(kinds)
	case "shift+tab", "up", "k":
		m.config.focus = (m.config.focus - 1 + len(kinds)) % len(kinds)
	case "left", "h", "-":
		m.adjustTolerance(kinds[m.config.focus], -1)
	case "right", "l", "+", "=":
		m.adjustTolerance(kinds[m.config.focus], 1)
	case "d":
		if m.config.days != nil {
			kind := kinds[m.config.focus]
			m.config.days[kind] = defaultToleranceDays(kind)
			m.config.dirty = true
		}
	case "enter":
		if m.config.days == nil {
			return m, nil
		}
		return m, m.saveConfigCmd(m.config.days)
	}
	return m, nil
}

func (m *model) adjustTolerance(kind cycles.Kind, delta int) {
	if m.config.days == nil {
		return
	}
	n := m.config.days[kind] + delta
	if n < 0 || n > maxToleranceDays {
		return
	}
	m.config.days[kind] = n
	m.config.dirty = true
}

func (m model) renderConfigScreen(layoutWidth int) string {
	title := lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, renderScreenTitle("config"))

	heading := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true).Render("tolerance window (days)")
	rows := []string{heading, ""}
	for i, kind := range configKinds() {
		labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Width(12)
		border := lipgloss.Color("#FFFFFF")
		if i == m.config.focus {
			labelStyle = labelStyle.Bold(true)
			border = lipgloss.Color("#FFD54A")
		}
		value := "-"
		if m.config.days != nil {
			value = fmt.Sprintf("%2d", m.config.days[kind])
		}
		valueField := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 1).
			Render("‹ " + lipgloss.NewStyle().Foreground(lipgloss.Color("#D1D5DB")).Bold(true).Render(value) + " ›")
		def := mutedStyle().Render(fmt.Sprintf("default %d", defaultToleranceDays(kind)))
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Center, labelStyle.Render(kindLabel(kind)), valueField, "  ", def))
	}

	rows = append(rows,
		"",
		mutedStyle().Render("tab/up/down switch kind  left/right adjust  d default"),
		mutedStyle().Render("enter save all  esc back"),
		mutedStyle().Render("obligations with their own tolerance keep it"),
	)
	if m.config.dirty {
		rows = append(rows, "", lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD54A")).Render("unsaved changes"))
	}
	if warning := strings.TrimSpace(m.config.err); warning != "" {
		rows = append(rows, "", errorStyle().Render(warning))
	}

	panel := lipgloss.NewStyle().Padding(1, 2).Render(strings.Join(rows, "\n"))
	panel = lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, panel)
	return strings.Join([]string{title, "", panel}, "\n")
}
