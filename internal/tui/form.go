package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Form fields in focus order
const (
	fieldAPIKey = iota
	fieldModel
	fieldTheme
	fieldPrompt
	fieldCount
)

// FormInput holds the values collected by the input form
type FormInput struct {
	APIKey string
	Model  string
	Theme  string
	// Prompt overrides the themed template when non-empty
	Prompt string
}

// FormModel is the bubbletea model for collecting generate inputs
type FormModel struct {
	inputs [fieldPrompt]textinput.Model
	prompt textarea.Model
	focus  int

	submitted bool
	cancelled bool
	err       string

	width int
}

// NewFormModel creates a form prefilled with defaults
func NewFormModel(defaults FormInput) FormModel {
	var inputs [fieldPrompt]textinput.Model

	key := textinput.New()
	key.Placeholder = "GEMINI_API_KEY"
	key.EchoMode = textinput.EchoPassword
	key.EchoCharacter = '•'
	key.SetValue(defaults.APIKey)
	inputs[fieldAPIKey] = key

	model := textinput.New()
	model.Placeholder = "gemini-2.0-flash-exp"
	model.SetValue(defaults.Model)
	inputs[fieldModel] = model

	theme := textinput.New()
	theme.Placeholder = "Cyberpunk Street Food Stall"
	theme.SetValue(defaults.Theme)
	inputs[fieldTheme] = theme

	for i := range inputs {
		inputs[i].Prompt = ""
		inputs[i].TextStyle = lipgloss.NewStyle().Foreground(colorText)
		inputs[i].PlaceholderStyle = lipgloss.NewStyle().Foreground(colorTextDim)
	}

	ta := textarea.New()
	ta.Placeholder = "Leave empty to use the theme template..."
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(4)
	ta.SetValue(defaults.Prompt)
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	m := FormModel{inputs: inputs, prompt: ta, width: 80}
	// Start on the first empty field
	m.focus = fieldPrompt
	for i := range inputs {
		if strings.TrimSpace(inputs[i].Value()) == "" {
			m.focus = i
			break
		}
	}
	m.applyFocus()
	return m
}

// Init initializes the model
func (m FormModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model
func (m FormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.prompt.SetWidth(max(m.width-8, 20))
		for i := range m.inputs {
			m.inputs[i].Width = max(m.width-8, 20)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit

		case "tab", "down":
			if msg.String() == "down" && m.focus == fieldPrompt {
				break
			}
			m.focus = (m.focus + 1) % fieldCount
			m.applyFocus()
			return m, nil

		case "shift+tab", "up":
			if msg.String() == "up" && m.focus == fieldPrompt {
				break
			}
			m.focus = (m.focus + fieldCount - 1) % fieldCount
			m.applyFocus()
			return m, nil

		case "ctrl+s":
			return m.submit()

		case "enter":
			if m.focus != fieldPrompt {
				if m.focus == fieldTheme {
					return m.submit()
				}
				m.focus++
				m.applyFocus()
				return m, nil
			}
		}

		var cmd tea.Cmd
		if m.focus == fieldPrompt {
			m.prompt, cmd = m.prompt.Update(msg)
		} else {
			m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		}
		return m, cmd
	}

	return m, nil
}

func (m FormModel) submit() (tea.Model, tea.Cmd) {
	v := m.Values()
	switch {
	case v.APIKey == "":
		m.err = "API key is required"
		m.focus = fieldAPIKey
	case v.Model == "":
		m.err = "model is required"
		m.focus = fieldModel
	case v.Theme == "" && v.Prompt == "":
		m.err = "enter a theme or a prompt"
		m.focus = fieldTheme
	default:
		m.err = ""
		m.submitted = true
		return m, tea.Quit
	}
	m.applyFocus()
	return m, nil
}

func (m *FormModel) applyFocus() {
	for i := range m.inputs {
		if i == m.focus {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	if m.focus == fieldPrompt {
		m.prompt.Focus()
	} else {
		m.prompt.Blur()
	}
}

// Values returns the trimmed field values
func (m FormModel) Values() FormInput {
	return FormInput{
		APIKey: strings.TrimSpace(m.inputs[fieldAPIKey].Value()),
		Model:  strings.TrimSpace(m.inputs[fieldModel].Value()),
		Theme:  strings.TrimSpace(m.inputs[fieldTheme].Value()),
		Prompt: strings.TrimSpace(m.prompt.Value()),
	}
}

// Submitted reports whether the form was confirmed
func (m FormModel) Submitted() bool { return m.submitted }

// Cancelled reports whether the user aborted
func (m FormModel) Cancelled() bool { return m.cancelled }

// View renders the form
func (m FormModel) View() string {
	width := max(m.width-4, 40)
	labels := [fieldCount]string{"API key", "Model", "Theme", "Prompt"}

	sections := []string{
		headerStyle.Width(width).Render(titleStyle.Render("✦ Generate image")),
	}
	for i := range fieldCount {
		var body string
		if i == fieldPrompt {
			body = m.prompt.View()
		} else {
			body = m.inputs[i].View()
		}
		style := panelStyle
		if i == m.focus {
			style = focusedPanelStyle
		}
		sections = append(sections, style.Width(width).Render(
			lipgloss.JoinVertical(lipgloss.Left, labelStyle.Render(labels[i]), body),
		))
	}

	if m.err != "" {
		sections = append(sections, errorStyle.Render("✗ "+m.err))
	} else {
		sections = append(sections, hintStyle.Render("The prompt is built from the theme unless you type one."))
	}

	sections = append(sections, renderStatusBar(width, []shortcut{
		{"Tab", "Next"},
		{"Ctrl+S", "Generate"},
		{"Esc", "Cancel"},
	}))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// RunForm shows the form and returns the collected input. ok is false when
// the user cancels.
func RunForm(defaults FormInput) (input FormInput, ok bool, err error) {
	final, err := tea.NewProgram(NewFormModel(defaults)).Run()
	if err != nil {
		return FormInput{}, false, err
	}
	m, isForm := final.(FormModel)
	if !isForm || !m.Submitted() {
		return FormInput{}, false, nil
	}
	return m.Values(), true, nil
}
