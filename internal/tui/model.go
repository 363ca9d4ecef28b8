package tui

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lachiem1/giddycycles/internal/auth"
	"github.com/lachiem1/giddycycles/internal/remote"
	"github.com/lachiem1/giddycycles/internal/syncer"
)

type connectionState int

const (
	stateChecking connectionState = iota
	stateConnected
	stateDisconnected
)

type checkConnectionMsg struct {
	connected bool
	err       error
}

type saveAPIKeyMsg struct {
	err error
}

type deleteAPIKeyMsg struct {
	err error
}

type syncEventMsg struct {
	event syncer.Event
}

type syncAllDoneMsg struct {
	err error
}

type clearCommandTextMsg struct {
	id int
}

type clockTickMsg struct {
	sessionID int
}

type commandSpec struct {
	name        string
	description string
}

type authDialogMode int

const (
	authDialogNone authDialogMode = iota
	authDialogConnect
	authDialogDisconnect
)

type screenMode int

const (
	screenHome screenMode = iota
	screenObligations
	screenCycles
	screenCycleDetail
	screenOverride
	screenConfig
)

// Options wires the model to the rest of the app. Service and Events are nil
// when no API key is configured; the cache is still browsable.
type Options struct {
	APIBaseURL string
	MaxCycles  int
	Service    *syncer.Service
	Events     <-chan syncer.Event
	Now        func() time.Time
}

type model struct {
	db      *sql.DB
	service *syncer.Service
	events  <-chan syncer.Event
	baseURL string
	now     func() time.Time

	maxCycles int

	width  int
	height int

	viewItems []string
	selected  int
	cmd       textinput.Model
	apiKey    textinput.Model

	status                  connectionState
	statusDetail            string
	commandText             string
	commandTextID           int
	commandSuggestions      []commandSpec
	commandSuggestionIndex  int
	commandSuggestionOffset int

	showHelpOverlay bool
	authDialog      authDialogMode
	screen          screenMode
	connectHint     string
	syncing         bool

	obligations obligationsState
	cycles      cyclesState
	override    overrideState
	config      configState

	quitting bool
}

func New(db *sql.DB, opts Options) tea.Model {
	return newModel(db, opts)
}

func newModel(db *sql.DB, opts Options) model {
	cmd := textinput.New()
	cmd.Prompt = "> "
	cmd.Placeholder = "/help"
	cmd.Width = 72
	cmd.Focus()

	apiKey := textinput.New()
	apiKey.Prompt = "API key: "
	apiKey.Placeholder = "gc_..."
	apiKey.EchoMode = textinput.EchoPassword
	apiKey.EchoCharacter = '•'

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return model{
		db:        db,
		service:   opts.Service,
		events:    opts.Events,
		baseURL:   opts.APIBaseURL,
		now:       now,
		maxCycles: opts.MaxCycles,
		viewItems: []string{
			"obligations",
			"config",
		},
		cmd:          cmd,
		apiKey:       apiKey,
		status:       stateChecking,
		statusDetail: "not connected",
		screen:       screenHome,
		override:     newOverrideState(),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.checkConnectionCmd(),
		m.loadObligationsCmd(m.obligations.session),
		m.listenSyncEventsCmd(),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.cmd.Width = max(40, msg.Width-36)
		m.apiKey.Width = max(24, msg.Width-40)
		return m, nil

	case checkConnectionMsg:
		if msg.connected {
			m.status = stateConnected
			m.statusDetail = "connected"
		} else {
			m.status = stateDisconnected
			m.statusDetail = "not connected"
		}
		return m, nil

	case saveAPIKeyMsg:
		m.closeAuthDialog()
		if msg.err != nil {
			m.status = stateDisconnected
			m.statusDetail = "not connected"
			return m.withCommandFeedback("failed to save API key: " + msg.err.Error())
		}
		next, cmd := m.withCommandFeedback("API key saved to keychain. Restart to start syncing.")
		return next, tea.Batch(cmd, next.(model).checkConnectionCmd())

	case deleteAPIKeyMsg:
		m.closeAuthDialog()
		if msg.err != nil {
			return m.withCommandFeedback("failed to remove API key: " + msg.err.Error())
		}
		m.status = stateDisconnected
		m.statusDetail = "not connected"
		return m.withCommandFeedback("API key removed from keychain.")

	case syncEventMsg:
		return m.handleSyncEvent(msg.event)

	case syncAllDoneMsg:
		m.syncing = false
		if msg.err != nil {
			return m.withCommandFeedback("sync failed: " + msg.err.Error())
		}
		next, cmd := m.withCommandFeedback("sync complete")
		return next, tea.Batch(cmd, next.(model).reloadCurrentCmd())

	case loadObligationsMsg:
		return m.handleObligationsLoaded(msg)

	case loadCyclesMsg:
		return m.handleCyclesLoaded(msg)

	case saveOverrideMsg:
		return m.handleOverrideSaved(msg)

	case deleteOverrideMsg:
		return m.handleOverrideDeleted(msg)

	case loadConfigMsg:
		return m.handleConfigLoaded(msg)

	case saveConfigMsg:
		return m.handleConfigSaved(msg)

	case clockTickMsg:
		if msg.sessionID != m.obligations.session || m.screen != screenObligations {
			return m, nil
		}
		return m, m.clockTickCmd()

	case clearCommandTextMsg:
		if msg.id == m.commandTextID {
			m.commandText = ""
		}
		return m, nil

	case tea.KeyMsg:
		if m.showHelpOverlay {
			switch msg.String() {
			case "esc":
				m.showHelpOverlay = false
				return m, nil
			case "ctrl+c", "q":
				return m.quit()
			}
			return m, nil
		}
		if m.authDialog != authDialogNone {
			return m.updateAuthDialog(msg)
		}

		switch m.screen {
		case screenObligations:
			return m.updateObligations(msg)
		case screenCycles:
			return m.updateCycles(msg)
		case screenCycleDetail:
			return m.updateCycleDetail(msg)
		case screenOverride:
			return m.updateOverride(msg)
		case screenConfig:
			return m.updateConfig(msg)
		}
		return m.updateHome(msg)
	}

	var cmd tea.Cmd
	if m.screen == screenOverride {
		return m.updateOverrideInput(msg)
	}
	m.cmd, cmd = m.cmd.Update(msg)
	m.refreshCommandSuggestions()
	return m, cmd
}

func (m model) updateHome(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m.quit()
	case "q":
		if strings.TrimSpace(m.cmd.Value()) == "" {
			return m.quit()
		}
	case "tab":
		if m.shouldShowCommandSuggestions() {
			m.cmd.SetValue(m.commandSuggestions[m.commandSuggestionIndex].name)
			m.cmd.CursorEnd()
			m.refreshCommandSuggestions()
			return m, nil
		}
	case "esc":
		if m.commandText != "" || strings.TrimSpace(m.cmd.Value()) != "" {
			m.commandText = ""
			m.cmd.SetValue("")
			m.clearCommandSuggestions()
			return m, nil
		}
	case "up", "k":
		if m.shouldShowCommandSuggestions() && msg.Type != tea.KeyRunes {
			if m.commandSuggestionIndex > 0 {
				m.commandSuggestionIndex--
				m.adjustSuggestionWindow(2)
			}
			return m, nil
		}
		if m.selected > 0 && strings.TrimSpace(m.cmd.Value()) == "" {
			m.selected--
			return m, nil
		}
	case "down", "j":
		if m.shouldShowCommandSuggestions() && msg.Type != tea.KeyRunes {
			if m.commandSuggestionIndex < len(m.commandSuggestions)-1 {
				m.commandSuggestionIndex++
				m.adjustSuggestionWindow(2)
			}
			return m, nil
		}
		if m.selected < len(m.viewItems)-1 && strings.TrimSpace(m.cmd.Value()) == "" {
			m.selected++
			return m, nil
		}
	case "enter":
		if strings.TrimSpace(m.cmd.Value()) == "" && !m.shouldShowCommandSuggestions() {
			switch m.viewItems[m.selected] {
			case "obligations":
				return m.enterObligationsView()
			case "config":
				return m.enterConfigView()
			}
			return m, nil
		}
		input := strings.TrimSpace(m.cmd.Value())
		if m.shouldShowCommandSuggestions() {
			input = m.commandSuggestions[m.commandSuggestionIndex].name
		}
		return m.runSlashCommand(input)
	}
	if m.commandText != "" {
		switch msg.Type {
		case tea.KeyRunes, tea.KeySpace, tea.KeyBackspace, tea.KeyDelete:
			m.commandText = ""
		}
	}

	var cmd tea.Cmd
	m.cmd, cmd = m.cmd.Update(msg)
	m.refreshCommandSuggestions()
	return m, cmd
}

func (m model) updateAuthDialog(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeAuthDialog()
		return m, nil
	case "enter":
		if m.authDialog == authDialogConnect {
			return m, saveAPIKeyCmd(strings.TrimSpace(m.apiKey.Value()))
		}
		return m, deleteAPIKeyCmd
	}
	if m.authDialog == authDialogDisconnect {
		return m, nil
	}
	var cmd tea.Cmd
	m.apiKey, cmd = m.apiKey.Update(msg)
	return m, cmd
}

func (m *model) closeAuthDialog() {
	m.authDialog = authDialogNone
	m.apiKey.SetValue("")
	m.apiKey.Blur()
	m.cmd.Focus()
}

func (m model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	if m.service != nil {
		m.service.LeaveView()
	}
	return m, tea.Quit
}

// goHome leaves any synced view and returns to the launcher.
func (m model) goHome() (tea.Model, tea.Cmd) {
	m.screen = screenHome
	m.cmd.Focus()
	if m.service != nil {
		m.service.LeaveView()
	}
	return m, m.loadObligationsCmd(m.obligations.session)
}

func (m model) handleSyncEvent(evt syncer.Event) (tea.Model, tea.Cmd) {
	listen := m.listenSyncEventsCmd()
	switch evt.Type {
	case syncer.EventSyncOK:
		m.status = stateConnected
		m.statusDetail = "connected"
		switch {
		case evt.Collection == syncer.CollectionObligations && m.screen == screenObligations:
			return m, tea.Batch(listen, m.loadObligationsCmd(m.obligations.session))
		case evt.Collection == syncer.CollectionLedger && (m.screen == screenCycles || m.screen == screenCycleDetail):
			return m, tea.Batch(listen, m.loadCyclesCmd(m.cycles.session, m.cycles.obligationID))
		}
	case syncer.EventSyncFailed:
		var apiErr *remote.APIError
		if errors.As(evt.Err, &apiErr) && apiErr.Unauthorized() {
			m.status = stateDisconnected
			m.statusDetail = "not connected"
		}
		if m.screen == screenObligations && evt.Err != nil {
			m.obligations.syncErr = evt.Err.Error()
		}
	}
	return m, listen
}

func (m model) reloadCurrentCmd() tea.Cmd {
	switch m.screen {
	case screenCycles, screenCycleDetail:
		return m.loadCyclesCmd(m.cycles.session, m.cycles.obligationID)
	default:
		return m.loadObligationsCmd(m.obligations.session)
	}
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	frame := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#F47A60")).
		Padding(1, 1)
	contentStyle := lipgloss.NewStyle().Padding(1, 1, 0, 1)
	if m.width > 0 {
		frame = frame.Width(max(1, m.width-frame.GetHorizontalBorderSize()))
	}
	if m.height > 0 {
		frame = frame.Height(max(1, m.height-frame.GetVerticalBorderSize()))
	}

	layoutWidth := max(1, m.width-frame.GetHorizontalFrameSize()-contentStyle.GetHorizontalFrameSize())
	layoutHeight := max(1, m.height-frame.GetVerticalFrameSize()-contentStyle.GetVerticalFrameSize())

	if m.showHelpOverlay {
		centered := lipgloss.Place(layoutWidth, layoutHeight, lipgloss.Center, lipgloss.Center, renderHelpOverlay(layoutWidth))
		return frame.Render(contentStyle.Render(centered))
	}
	if m.authDialog != authDialogNone {
		centered := lipgloss.Place(layoutWidth, layoutHeight, lipgloss.Center, lipgloss.Center, m.renderAuthDialog(layoutWidth))
		return frame.Render(contentStyle.Render(centered))
	}

	var body string
	switch m.screen {
	case screenObligations:
		body = m.renderObligationsScreen(layoutWidth)
	case screenCycles:
		body = m.renderCyclesScreen(layoutWidth)
	case screenCycleDetail:
		body = m.renderCycleDetailScreen(layoutWidth)
	case screenOverride:
		body = m.renderOverrideScreen(layoutWidth)
	case screenConfig:
		body = m.renderConfigScreen(layoutWidth)
	default:
		body = m.renderHomeScreen(layoutWidth, layoutHeight)
	}
	return frame.Render(contentStyle.Render(body))
}

func (m model) renderHomeScreen(layoutWidth, layoutHeight int) string {
	header := renderBlockTitle(layoutWidth)
	if m.width > 0 {
		header = lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, header)
	}
	header = lipgloss.NewStyle().PaddingBottom(1).Render(header)

	statusLabel := lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")).Bold(true).Render("status: ")
	statusValue := lipgloss.NewStyle().Foreground(lipgloss.Color("#F15B5B")).Bold(true).Render(m.statusDetail)
	if m.status == stateConnected {
		statusValue = lipgloss.NewStyle().Foreground(lipgloss.Color("#5CCB76")).Bold(true).Render(m.statusDetail)
	}
	statusLine := statusLabel + statusValue

	listWidth := 24
	panelHeight := 14
	listBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#F47A60")).
		Padding(0, 1).
		Height(panelHeight).
		Width(listWidth).
		Render(renderViews(m.viewItems, m.selected, statusLine))

	dueWidth := max(36, min(64, m.width-listWidth-20))
	dueBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#FFD54A")).
		Padding(0, 1).
		Width(dueWidth).
		Height(panelHeight).
		Render(m.renderDueSoonPanel(max(8, dueWidth-4), panelHeight))

	mainPanelsRaw := lipgloss.JoinHorizontal(lipgloss.Top, listBox, "  ", dueBox)
	mainPanelsWidth := lipgloss.Width(mainPanelsRaw)
	mainPanels := lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, mainPanelsRaw)

	hasMessage := strings.TrimSpace(m.commandText) != ""
	messageArea := ""
	if hasMessage {
		messageArea = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#6CBFE6")).
			Padding(0, 1).
			Foreground(lipgloss.Color("#D4CDE9")).
			Width(max(8, mainPanelsWidth-4)).
			Render(m.commandText)
		messageArea = lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, messageArea)
	}

	cmdInnerWidth := max(8, mainPanelsWidth-4)
	cmdInput := m.cmd
	cmdInput.Width = max(6, cmdInnerWidth-2)
	cmdLines := []string{}
	if m.shouldShowCommandSuggestions() {
		cmdLines = append(cmdLines, renderCommandSuggestionRows(cmdInnerWidth, m.commandSuggestions, m.commandSuggestionIndex, m.commandSuggestionOffset))
	}
	cmdLines = append(cmdLines, lipgloss.NewStyle().Width(cmdInnerWidth).Render(cmdInput.View()))
	cmdBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#6CBFE6")).
		Padding(0, 1).
		Render(strings.Join(cmdLines, "\n"))
	cmdBox = lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, cmdBox)

	topLines := []string{header, "", mainPanels}
	if hasMessage {
		topLines = append(topLines, "", messageArea)
	}
	topSection := strings.Join(topLines, "\n")

	// The gap above the command box absorbs spare height.
	bridgeGap := 1
	if m.height > 0 {
		bridgeGap = max(0, layoutHeight-lipgloss.Height(topSection)-lipgloss.Height(cmdBox))
	}
	bodyText := topSection
	if bridgeGap > 0 {
		bodyText += "\n" + strings.Repeat("\n", bridgeGap-1)
	}
	return bodyText + "\n" + cmdBox
}

func (m model) runSlashCommand(input string) (tea.Model, tea.Cmd) {
	switch input {
	case "":
		return m, nil
	case "/help":
		m.showHelpOverlay = true
		m.commandText = ""
		m.cmd.SetValue("")
		m.clearCommandSuggestions()
		return m, nil
	case "/obligations":
		return m.enterObligationsView()
	case "/config":
		return m.enterConfigView()
	case "/sync":
		if m.service == nil {
			return m.withCommandFeedback("no API key configured, use /connect first")
		}
		if m.syncing {
			return m.withCommandFeedback("sync already running...")
		}
		m.syncing = true
		next, cmd := m.withCommandFeedback("syncing obligations and ledger...")
		return next, tea.Batch(cmd, syncAllCmd(m.service))
	case "/ping":
		next, cmd := m.withCommandFeedback("checking connection...")
		return next, tea.Batch(cmd, m.checkConnectionCmd())
	case "/disconnect":
		m.authDialog = authDialogDisconnect
		m.apiKey.SetValue("")
		m.apiKey.Blur()
		m.cmd.Blur()
		m.clearCommandSuggestions()
		return m, nil
	case "/connect":
		hasKey, err := auth.HasStoredAPIKey()
		if err != nil {
			return m.withCommandFeedback("failed to check stored API key: " + err.Error())
		}
		m.connectHint = "Enter your API key to save it to keychain."
		if hasKey {
			m.connectHint = "An API key already exists. Enter a new key to replace it."
		}
		m.authDialog = authDialogConnect
		m.apiKey.Focus()
		m.cmd.Blur()
		m.clearCommandSuggestions()
		return m, nil
	default:
		return m.withCommandFeedback(fmt.Sprintf("Unknown command: %s", input))
	}
}

func (m model) withCommandFeedback(text string) (tea.Model, tea.Cmd) {
	m.commandText = text
	m.commandTextID++
	m.cmd.SetValue("")
	m.clearCommandSuggestions()
	id := m.commandTextID
	return m, tea.Tick(4*time.Second, func(time.Time) tea.Msg {
		return clearCommandTextMsg{id: id}
	})
}

func (m model) checkConnectionCmd() tea.Cmd {
	baseURL := m.baseURL
	return func() tea.Msg {
		key, err := auth.LoadAPIKey()
		if err != nil {
			return checkConnectionMsg{connected: false, err: err}
		}
		client := remote.New(key)
		if strings.TrimSpace(baseURL) != "" {
			client = remote.NewWithBaseURL(key, baseURL)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err = client.Ping(ctx)
		return checkConnectionMsg{connected: err == nil, err: err}
	}
}

func (m model) listenSyncEventsCmd() tea.Cmd {
	if m.events == nil {
		return nil
	}
	events := m.events
	return func() tea.Msg {
		evt, ok := <-events
		if !ok {
			return nil
		}
		return syncEventMsg{event: evt}
	}
}

func syncAllCmd(service *syncer.Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		return syncAllDoneMsg{err: service.SyncAll(ctx)}
	}
}

func saveAPIKeyCmd(key string) tea.Cmd {
	return func() tea.Msg {
		return saveAPIKeyMsg{err: auth.SaveAPIKey(key)}
	}
}

func deleteAPIKeyCmd() tea.Msg {
	return deleteAPIKeyMsg{err: auth.RemoveAPIKey()}
}

func (m model) clockTickCmd() tea.Cmd {
	sessionID := m.obligations.session
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return clockTickMsg{sessionID: sessionID}
	})
}

// scrollOffset keeps cursor inside a window of visible rows.
func scrollOffset(cursor, offset, visible, total int) int {
	if visible < 1 {
		visible = 1
	}
	if cursor < offset {
		offset = cursor
	}
	if cursor >= offset+visible {
		offset = cursor - visible + 1
	}
	maxOffset := max(0, total-visible)
	if offset > maxOffset {
		offset = maxOffset
	}
	if offset < 0 {
		offset = 0
	}
	return offset
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func renderViews(items []string, selected int, statusLine string) string {
	lines := []string{statusLine, ""}
	itemStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true).Underline(true)
	prefixStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F47A60")).Bold(true)
	for i, item := range items {
		if i == selected {
			lines = append(lines, prefixStyle.Render("> ")+selectedStyle.Render(item))
			continue
		}
		lines = append(lines, itemStyle.Render("  "+item))
	}
	return strings.Join(lines, "\n")
}

func commandCatalog() []commandSpec {
	return []commandSpec{
		{name: "/help", description: "show command help overlay"},
		{name: "/obligations", description: "open the obligations view"},
		{name: "/config", description: "default tolerance per obligation kind"},
		{name: "/sync", description: "fetch obligations and ledger now"},
		{name: "/ping", description: "check backend connectivity"},
		{name: "/connect", description: "open the API key prompt"},
		{name: "/disconnect", description: "remove saved API key from keychain"},
	}
}

func (m *model) refreshCommandSuggestions() {
	input := strings.TrimSpace(m.cmd.Value())
	if !strings.HasPrefix(input, "/") {
		m.clearCommandSuggestions()
		return
	}

	prefix := strings.ToLower(input)
	all := commandCatalog()
	matches := make([]commandSpec, 0, len(all))
	for _, cmd := range all {
		if strings.HasPrefix(cmd.name, prefix) {
			matches = append(matches, cmd)
		}
	}
	if len(matches) == 0 {
		m.clearCommandSuggestions()
		return
	}

	m.commandSuggestions = matches
	if m.commandSuggestionIndex >= len(m.commandSuggestions) {
		m.commandSuggestionIndex = len(m.commandSuggestions) - 1
	}
	if m.commandSuggestionIndex < 0 {
		m.commandSuggestionIndex = 0
	}
	m.adjustSuggestionWindow(2)
}

func (m *model) clearCommandSuggestions() {
	m.commandSuggestions = nil
	m.commandSuggestionIndex = 0
	m.commandSuggestionOffset = 0
}

func (m model) shouldShowCommandSuggestions() bool {
	return strings.HasPrefix(strings.TrimSpace(m.cmd.Value()), "/") && len(m.commandSuggestions) > 0
}

func (m *model) adjustSuggestionWindow(visibleRows int) {
	m.commandSuggestionOffset = scrollOffset(m.commandSuggestionIndex, m.commandSuggestionOffset, visibleRows, len(m.commandSuggestions))
}

func renderCommandSuggestionRows(innerWidth int, matches []commandSpec, selectedIndex int, offset int) string {
	visibleRows := 2
	start := max(0, min(offset, max(0, len(matches)-1)))
	end := min(len(matches), start+visibleRows)

	rows := make([]string, 0, end-start)
	baseRow := lipgloss.NewStyle().
		Background(lipgloss.Color("#1B2330")).
		Width(innerWidth)
	selectedRow := lipgloss.NewStyle().
		Background(lipgloss.Color("#263249")).
		Width(innerWidth)
	for i := start; i < end; i++ {
		cmdStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#B9B4D0"))
		descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#8D88A8"))
		prefix := "  "
		rowStyle := baseRow
		if i == selectedIndex {
			prefix = "› "
			cmdStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD54A")).Bold(true)
			descStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#D4CDE9"))
			rowStyle = selectedRow
		}
		row := prefix + cmdStyle.Render(matches[i].name) + "  " + descStyle.Render(matches[i].description)
		rows = append(rows, rowStyle.Render(row))
	}

	return strings.Join(rows, "\n")
}

func renderHelpOverlay(maxWidth int) string {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#5FA8FF")).
		Bold(true).
		Render("Command Help")

	catalog := commandCatalog()
	commands := make([]string, 0, len(catalog))
	for _, cmd := range catalog {
		commands = append(commands, fmt.Sprintf("%-13s %s", cmd.name, cmd.description))
	}
	keys := []string{
		"",
		"obligations: enter cycles  r refresh",
		"cycles: enter detail  o override  r refresh",
		"override: tab next field  enter save  ctrl+d delete",
	}
	body := strings.Join(append(commands, keys...), "\n")
	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFD54A")).
		Bold(true).
		Render("Esc to close")

	content := strings.Join([]string{title, "", body, "", footer}, "\n")
	panelWidth := min(maxWidth-6, 64)
	panelWidth = max(36, panelWidth)

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#6CBFE6")).
		Padding(1, 2).
		Width(panelWidth).
		Render(content)
}

func (m model) renderAuthDialog(maxWidth int) string {
	panelWidth := min(maxWidth-6, 64)
	panelWidth = max(44, panelWidth)

	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#6CBFE6")).
		Padding(1, 2).
		Width(panelWidth)

	switch m.authDialog {
	case authDialogConnect:
		hint := m.connectHint
		if strings.TrimSpace(hint) == "" {
			hint = "Enter your API key to save it to keychain."
		}
		keyInput := m.apiKey
		keyInput.Width = max(18, panelWidth-8)

		content := strings.Join([]string{
			"Connect to the backend",
			"",
			hint,
			"",
			keyInput.View(),
			"",
			"Enter to save, Esc to cancel",
		}, "\n")
		return panel.Render(content)
	case authDialogDisconnect:
		content := strings.Join([]string{
			"Disconnect",
			"",
			"This will remove your saved API key from keychain.",
			"",
			"Enter to remove key, Esc to cancel",
		}, "\n")
		return panel.Render(content)
	default:
		return ""
	}
}

func mutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
}

func errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("#F15B5B"))
}
