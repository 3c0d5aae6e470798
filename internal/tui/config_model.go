package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/genaiprobe/internal/config"
)

// configView represents the current view in the config menu
type configView int

const (
	viewMain configView = iota
	viewModelSelect
	viewStyleSelect
)

// Menu item indices for main view
const (
	menuDefaultModel = iota
	menuVerbose
	menuCopyToClipboard
	menuMarkdownStyle
	menuExit
	menuItemCount
)

// MarkdownStyles lists the glamour styles offered in the menu
var MarkdownStyles = []string{"dark", "light", "dracula", "tokyo-night", "pink", "ascii", "notty"}

// feedbackClearMsg is sent to clear feedback messages
type feedbackClearMsg struct{}

// ConfigModel represents the config TUI state
type ConfigModel struct {
	config     config.Config
	configPath string
	save       func(config.Config) error

	view   configView
	cursor int
	// choice is the cursor within a select sub-menu
	choice int

	feedback        string
	feedbackTimeout time.Duration

	width int
	ready bool
}

// NewConfigModel creates a config menu for cfg
func NewConfigModel(cfg config.Config) ConfigModel {
	configPath, _ := config.GetConfigPath()
	return ConfigModel{
		config:          cfg,
		configPath:      configPath,
		save:            config.SaveConfig,
		feedbackTimeout: 2 * time.Second,
	}
}

// Init initializes the model
func (m ConfigModel) Init() tea.Cmd {
	return nil
}

// Config returns the current configuration
func (m ConfigModel) Config() config.Config {
	return m.config
}

func clearFeedback(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return feedbackClearMsg{}
	})
}

// options returns the choices of the active select view
func (m ConfigModel) options() []string {
	switch m.view {
	case viewModelSelect:
		return config.AvailableModels()
	case viewStyleSelect:
		return MarkdownStyles
	}
	return nil
}

// Update handles messages and updates the model
func (m ConfigModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.ready = true

	case feedbackClearMsg:
		m.feedback = ""

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			if m.view != viewMain {
				m.view = viewMain
				return m, nil
			}
			return m, tea.Quit

		case "up", "k":
			if m.view == viewMain {
				m.cursor = (m.cursor + menuItemCount - 1) % menuItemCount
			} else if n := len(m.options()); n > 0 {
				m.choice = (m.choice + n - 1) % n
			}

		case "down", "j":
			if m.view == viewMain {
				m.cursor = (m.cursor + 1) % menuItemCount
			} else if n := len(m.options()); n > 0 {
				m.choice = (m.choice + 1) % n
			}

		case "enter", " ":
			return m.handleSelect()
		}
	}

	return m, nil
}

func (m ConfigModel) handleSelect() (tea.Model, tea.Cmd) {
	if m.view != viewMain {
		value := m.options()[m.choice]
		if m.view == viewModelSelect {
			m.config.DefaultModel = value
			m.persist(fmt.Sprintf("Model set to %s", value))
		} else {
			m.config.Markdown.Style = value
			m.persist(fmt.Sprintf("Markdown style set to %s", value))
		}
		m.view = viewMain
		return m, clearFeedback(m.feedbackTimeout)
	}

	switch m.cursor {
	case menuDefaultModel:
		m.openSelect(viewModelSelect, m.config.DefaultModel)
		return m, nil
	case menuMarkdownStyle:
		m.openSelect(viewStyleSelect, m.config.Markdown.Style)
		return m, nil
	case menuVerbose:
		m.config.Verbose = !m.config.Verbose
		m.persist("Verbose logging " + stateWord(m.config.Verbose))
	case menuCopyToClipboard:
		m.config.CopyToClipboard = !m.config.CopyToClipboard
		m.persist("Copy to clipboard " + stateWord(m.config.CopyToClipboard))
	case menuExit:
		return m, tea.Quit
	}
	return m, clearFeedback(m.feedbackTimeout)
}

func (m *ConfigModel) openSelect(view configView, current string) {
	m.view = view
	m.choice = 0
	for i, opt := range m.options() {
		if opt == current {
			m.choice = i
			break
		}
	}
}

func (m *ConfigModel) persist(feedback string) {
	if err := m.save(m.config); err != nil {
		m.feedback = fmt.Sprintf("Error: %v", err)
		return
	}
	m.feedback = feedback
}

func stateWord(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

// View renders the TUI
func (m ConfigModel) View() string {
	if !m.ready {
		return hintStyle.Render("  Initializing...")
	}

	width := max(m.width-4, 40)
	sections := []string{
		headerStyle.Width(width).Render(titleStyle.Render("✦ Configuration")),
		panelStyle.Width(width).Render(fmt.Sprintf("Config: %s", pathStyle.Render(m.configPath))),
	}

	var body string
	if m.view == viewMain {
		body = m.renderMainMenu()
	} else {
		body = m.renderSelect()
	}
	sections = append(sections, panelStyle.Width(width).Render(body))

	if m.feedback != "" {
		sections = append(sections, feedbackStyle.Render("✓ "+m.feedback))
	}

	back := "Exit"
	if m.view != viewMain {
		back = "Back"
	}
	sections = append(sections, renderStatusBar(width, []shortcut{
		{"↑↓", "Navigate"},
		{"Enter", "Select"},
		{"Esc", back},
	}))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m ConfigModel) renderMainMenu() string {
	style := m.config.Markdown.Style
	if style == "" {
		style = "dark"
	}
	rows := []struct {
		label string
		value string
	}{
		{"Default Model", valueStyle.Render(m.config.DefaultModel)},
		{"Verbose Logging", boolValue(m.config.Verbose)},
		{"Copy to Clipboard", boolValue(m.config.CopyToClipboard)},
		{"Markdown Style", valueStyle.Render(style)},
		{"Exit", ""},
	}

	lines := []string{labelStyle.Render("⚙ Settings"), ""}
	for i, row := range rows {
		line := menuLine(i == m.cursor, fmt.Sprintf("%-20s", row.label)) + row.value
		if i == menuExit {
			lines = append(lines, "")
			line = menuLine(i == m.cursor, row.label)
		}
		lines = append(lines, line)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m ConfigModel) renderSelect() string {
	title, current := "Select Model", m.config.DefaultModel
	if m.view == viewStyleSelect {
		title, current = "Select Markdown Style", m.config.Markdown.Style
	}

	lines := []string{labelStyle.Render(title), ""}
	for i, opt := range m.options() {
		line := menuLine(i == m.choice, opt)
		if opt == current {
			line += enabledStyle.Render(" (current)")
		}
		lines = append(lines, line)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func menuLine(selected bool, text string) string {
	if selected {
		return cursorStyle.Render("▸ ") + menuSelectedStyle.Render(text)
	}
	return "  " + menuItemStyle.Render(text)
}

func boolValue(v bool) string {
	if v {
		return enabledStyle.Render("enabled")
	}
	return disabledStyle.Render("disabled")
}

// RunConfig starts the config TUI
func RunConfig(cfg config.Config) error {
	_, err := tea.NewProgram(NewConfigModel(cfg), tea.WithAltScreen()).Run()
	return err
}
