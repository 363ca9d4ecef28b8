package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lachiem1/giddycycles/internal/cycles"
	"github.com/lachiem1/giddycycles/internal/storage"
)

const (
	overrideFocusAmount = iota
	overrideFocusMinimum
	overrideFocusDate
	overrideFocusNotes
	overrideFieldCount
)

type overrideState struct {
	cycle      cycles.Cycle
	amount     textinput.Model
	minimum    textinput.Model
	notes      textinput.Model
	dateDigits string
	focus      int
	err        string
	saving     bool
}

type saveOverrideMsg struct {
	cycleNumber int
	err         error
}

type deleteOverrideMsg struct {
	cycleNumber int
	removed     bool
	err         error
}

func newOverrideState() overrideState {
	amount := textinput.New()
	amount.Prompt = "$ "
	amount.Placeholder = "computed"
	amount.Width = 20

	minimum := textinput.New()
	minimum.Prompt = "$ "
	minimum.Placeholder = "none"
	minimum.Width = 20

	notes := textinput.New()
	notes.Prompt = ""
	notes.Placeholder = "why this cycle differs"
	notes.CharLimit = 200
	notes.Width = 40

	return overrideState{amount: amount, minimum: minimum, notes: notes}
}

func (m model) enterOverrideView(c cycles.Cycle) (tea.Model, tea.Cmd) {
	st := newOverrideState()
	st.cycle = c
	if ov := c.Override; ov != nil {
		if ov.Amount != nil {
			st.amount.SetValue(ov.Amount.StringFixed(2))
		}
		if ov.Minimum != nil {
			st.minimum.SetValue(ov.Minimum.StringFixed(2))
		}
		st.dateDigits = dateToDigits(ov.Date)
		st.notes.SetValue(ov.Notes)
	}
	st.amount.Focus()
	m.override = st
	m.screen = screenOverride
	return m, textinput.Blink
}

func (m model) updateOverride(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := &m.override
	switch msg.String() {
	case "ctrl+c":
		return m.quit()
	case "esc":
		m.screen = screenCycles
		return m, nil
	case "tab", "down":
		m.focusOverrideField((st.focus + 1) % overrideFieldCount)
		return m, nil
	case "shift+tab", "up":
		m.focusOverrideField((st.focus - 1 + overrideFieldCount) % overrideFieldCount)
		return m, nil
	case "ctrl+d":
		if st.cycle.Override == nil {
			st.err = "this cycle has no override"
			return m, nil
		}
		st.err = ""
		st.saving = true
		return m, m.deleteOverrideCmd(st.cycle.Number)
	case "enter":
		ov, err := m.overrideFromForm()
		if err != nil {
			st.err = err.Error()
			return m, nil
		}
		st.err = ""
		st.saving = true
		return m, m.saveOverrideCmd(st.cycle.Number, ov)
	}

	if st.focus == overrideFocusDate {
		switch msg.Type {
		case tea.KeyRunes:
			for _, ch := range msg.Runes {
				if ch >= '0' && ch <= '9' && len(st.dateDigits) < 8 {
					st.dateDigits += string(ch)
				}
			}
		case tea.KeyBackspace, tea.KeyDelete:
			if len(st.dateDigits) > 0 {
				st.dateDigits = st.dateDigits[:len(st.dateDigits)-1]
			}
		}
		st.err = ""
		return m, nil
	}
	return m.updateOverrideInput(msg)
}

// updateOverrideInput forwards a message to the focused text field.
func (m model) updateOverrideInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	st := &m.override
	var cmd tea.Cmd
	switch st.focus {
	case overrideFocusAmount:
		st.amount, cmd = st.amount.Update(msg)
		st.amount.SetValue(normalizeAmountInput(st.amount.Value()))
	case overrideFocusMinimum:
		st.minimum, cmd = st.minimum.Update(msg)
		st.minimum.SetValue(normalizeAmountInput(st.minimum.Value()))
	case overrideFocusNotes:
		st.notes, cmd = st.notes.Update(msg)
	}
	if _, ok := msg.(tea.KeyMsg); ok {
		st.err = ""
	}
	return m, cmd
}

func (m *model) focusOverrideField(focus int) {
	st := &m.override
	st.focus = focus
	st.amount.Blur()
	st.minimum.Blur()
	st.notes.Blur()
	switch focus {
	case overrideFocusAmount:
		st.amount.Focus()
	case overrideFocusMinimum:
		st.minimum.Focus()
	case overrideFocusNotes:
		st.notes.Focus()
	}
}

// overrideFromForm parses and validates the form against the selected
// cycle's own computed amount.
func (m model) overrideFromForm() (cycles.Override, error) {
	st := m.override
	date := ""
	if st.dateDigits != "" {
		formatted, err := validateAndFormatDateDigits(st.dateDigits)
		if err != nil {
			return cycles.Override{}, err
		}
		date = formatted
	}
	ov, err := cycles.ParseOverride(st.amount.Value(), st.minimum.Value(), date, st.notes.Value())
	if err != nil {
		return cycles.Override{}, err
	}
	if ov.Amount == nil && ov.Minimum == nil && ov.Date == "" && ov.Notes == "" {
		return cycles.Override{}, errors.New("nothing to save, fill a field or press ctrl+d to delete")
	}
	// With an amount override in place the generated amount is no longer on
	// the cycle; the save path validates against a fresh computation instead.
	if c := st.cycle; c.Override == nil || c.Override.Amount == nil {
		if err := cycles.ValidateOverride(c.Number, ov, c.ExpectedAmount); err != nil {
			return cycles.Override{}, err
		}
	}
	return ov, nil
}

// saveOverrideCmd recomputes the obligation with the candidate override and
// only stores it when the engine accepts it.
func (m model) saveOverrideCmd(cycleNumber int, ov cycles.Override) tea.Cmd {
	db := m.db
	obligationID := m.cycles.obligationID
	asOf := m.now()
	maxCycles := m.maxCycles
	return func() tea.Msg {
		if db == nil {
			return saveOverrideMsg{cycleNumber: cycleNumber, err: errors.New("database is not initialized")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := storage.SaveOverride(ctx, db, obligationID, cycleNumber, ov, cycles.Options{AsOf: asOf, MaxCycles: maxCycles})
		return saveOverrideMsg{cycleNumber: cycleNumber, err: err}
	}
}

func (m model) deleteOverrideCmd(cycleNumber int) tea.Cmd {
	db := m.db
	obligationID := m.cycles.obligationID
	return func() tea.Msg {
		if db == nil {
			return deleteOverrideMsg{cycleNumber: cycleNumber, err: errors.New("database is not initialized")}
		}
		removed, err := storage.NewOverridesRepo(db).Delete(context.Background(), obligationID, cycleNumber)
		return deleteOverrideMsg{cycleNumber: cycleNumber, removed: removed, err: err}
	}
}

func (m model) handleOverrideSaved(msg saveOverrideMsg) (tea.Model, tea.Cmd) {
	m.override.saving = false
	if msg.err != nil {
		if m.screen == screenOverride {
			m.override.err = msg.err.Error()
		}
		return m, nil
	}
	m.screen = screenCycles
	next, cmd := m.withCommandFeedback(fmt.Sprintf("cycle %d override saved", msg.cycleNumber))
	return next, tea.Batch(cmd, m.loadCyclesCmd(m.cycles.session, m.cycles.obligationID))
}

func (m model) handleOverrideDeleted(msg deleteOverrideMsg) (tea.Model, tea.Cmd) {
	m.override.saving = false
	if msg.err != nil {
		if m.screen == screenOverride {
			m.override.err = msg.err.Error()
		}
		return m, nil
	}
	m.screen = screenCycles
	text := fmt.Sprintf("cycle %d override removed", msg.cycleNumber)
	if !msg.removed {
		text = fmt.Sprintf("cycle %d had no override", msg.cycleNumber)
	}
	next, cmd := m.withCommandFeedback(text)
	return next, tea.Batch(cmd, m.loadCyclesCmd(m.cycles.session, m.cycles.obligationID))
}

func normalizeAmountInput(raw string) string {
	var b strings.Builder
	dot := false
	decimals := 0
	for _, ch := range raw {
		switch {
		case ch >= '0' && ch <= '9':
			if dot {
				if decimals >= 2 {
					continue
				}
				decimals++
			}
			b.WriteRune(ch)
		case ch == '.' && !dot:
			dot = true
			b.WriteRune(ch)
		}
	}
	return b.String()
}

func dateToDigits(raw string) string {
	v := strings.TrimSpace(raw)
	if len(v) != 10 || v[4] != '-' || v[7] != '-' {
		return ""
	}
	digits := strings.ReplaceAll(v, "-", "")
	for _, ch := range digits {
		if ch < '0' || ch > '9' {
			return ""
		}
	}
	return digits
}

func validateAndFormatDateDigits(digits string) (string, error) {
	if len(digits) != 8 {
		return "", fmt.Errorf("due date must be YYYY / MM / DD")
	}
	year, err := strconv.Atoi(digits[0:4])
	if err != nil || year < 1900 || year > 9999 {
		return "", fmt.Errorf("year must be 1900-9999")
	}
	month, err := strconv.Atoi(digits[4:6])
	if err != nil || month < 1 || month > 12 {
		return "", fmt.Errorf("month must be 01-12")
	}
	day, err := strconv.Atoi(digits[6:8])
	if err != nil || day < 1 || day > 31 {
		return "", fmt.Errorf("day must be 01-31")
	}
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if date.Year() != year || int(date.Month()) != month || date.Day() != day {
		return "", fmt.Errorf("date is not valid in the calendar")
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), nil
}

func renderDateMask(digits string) string {
	d := []rune("________")
	for i, ch := range digits {
		if i >= len(d) {
			break
		}
		if ch >= '0' && ch <= '9' {
			d[i] = ch
		}
	}

	numStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#D1D5DB")).Bold(true)
	sepStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	part := func(start, end int) string { return numStyle.Render(string(d[start:end])) }
	return part(0, 4) + sepStyle.Render(" / ") + part(4, 6) + sepStyle.Render(" / ") + part(6, 8)
}

func (m model) renderOverrideScreen(layoutWidth int) string {
	st := m.override
	title := lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, renderScreenTitle("override"))
	c := st.cycle

	labelStyle := func(focus int) lipgloss.Style {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
		if st.focus == focus {
			style = style.Bold(true)
		}
		return style
	}
	field := func(focus int, body string, border lipgloss.Color) string {
		if st.focus == focus && border == "" {
			border = lipgloss.Color("#FFD54A")
		}
		if border == "" {
			border = lipgloss.Color("#FFFFFF")
		}
		return lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 1).
			Width(44).
			Render(body)
	}

	dateBorder := lipgloss.Color("")
	dateWarning := ""
	if len(st.dateDigits) == 8 {
		if _, err := validateAndFormatDateDigits(st.dateDigits); err != nil {
			dateBorder = lipgloss.Color("#F15B5B")
			dateWarning = err.Error()
		} else {
			dateBorder = lipgloss.Color("#5CCB76")
		}
	}

	heading := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true).Render(
		fmt.Sprintf("%s · cycle %d", m.cycles.name, c.Number))
	current := mutedStyle().Render(fmt.Sprintf(
		"currently %s due %s", cycles.FormatAmount(c.ExpectedAmount), cycles.FormatDisplayDate(c.ExpectedDate)))

	rows := []string{
		heading,
		current,
		"",
		labelStyle(overrideFocusAmount).Render("amount"),
		field(overrideFocusAmount, st.amount.View(), ""),
		labelStyle(overrideFocusMinimum).Render("minimum"),
		field(overrideFocusMinimum, st.minimum.View(), ""),
		labelStyle(overrideFocusDate).Render("due date"),
		field(overrideFocusDate, renderDateMask(st.dateDigits), dateBorder),
		labelStyle(overrideFocusNotes).Render("notes"),
		field(overrideFocusNotes, st.notes.View(), ""),
		"",
		mutedStyle().Render("tab/up/down switch field  blank keeps the computed value"),
		mutedStyle().Render("enter save  ctrl+d delete override  esc back"),
	}
	if st.saving {
		rows = append(rows, "", mutedStyle().Render("saving..."))
	}
	warning := strings.TrimSpace(st.err)
	if warning == "" {
		warning = dateWarning
	}
	if warning != "" {
		rows = append(rows, "", errorStyle().Width(48).Render(warning))
	}

	panel := lipgloss.NewStyle().Padding(1, 2).Render(strings.Join(rows, "\n"))
	panel = lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, panel)
	return strings.Join([]string{title, "", panel}, "\n")
}
