package components

import (
	"strings"

	"staticcms/internal/tui/styles"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"
)

// LayoutConfig holds the chrome around a screen's content.
type LayoutConfig struct {
	Title    string
	Subtitle string
	HelpText string
	MarginX  int
	MarginY  int
	MaxWidth int
}

// LayoutModel renders the shared screen frame: title, subtitle, wrapped
// content, an optional error band, and help text.
type LayoutModel struct {
	config LayoutConfig
	width  int
	height int
	err    error
}

func NewLayout(config LayoutConfig) LayoutModel {
	if config.MarginX == 0 {
		config.MarginX = 2
	}
	if config.MarginY == 0 {
		config.MarginY = 1
	}
	if config.MaxWidth == 0 {
		config.MaxWidth = 100
	}
	return LayoutModel{config: config}
}

func (m LayoutModel) Update(msg tea.Msg) (LayoutModel, tea.Cmd) {
	if wm, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = wm.Width
		m.height = wm.Height
	}
	return m, nil
}

func (m LayoutModel) SetConfig(config LayoutConfig) LayoutModel {
	// Zero margin and width values inherit the current configuration.
	if config.MarginX == 0 {
		config.MarginX = m.config.MarginX
	}
	if config.MarginY == 0 {
		config.MarginY = m.config.MarginY
	}
	if config.MaxWidth == 0 {
		config.MaxWidth = m.config.MaxWidth
	}
	m.config = config
	return m
}

func (m LayoutModel) SetError(err error) LayoutModel {
	if err != nil {
		m.err = err
	}
	return m
}

func (m LayoutModel) ClearError() LayoutModel {
	m.err = nil
	return m
}

func (m LayoutModel) GetError() error {
	return m.err
}

// Render assembles the full frame around content.
func (m LayoutModel) Render(content string) string {
	width := m.ContentWidth()
	var sections []string

	if m.config.Title != "" {
		sections = append(sections, styles.TitleStyle.Render(m.wrap(m.config.Title, width)))
	}
	if m.config.Subtitle != "" {
		sections = append(sections, styles.SubtitleStyle.Render(m.wrap(m.config.Subtitle, width)))
	}
	if content != "" {
		sections = append(sections, styles.NormalTextStyle.Render(m.wrap(content, width)))
	}
	if m.err != nil {
		sections = append(sections, styles.ErrorStyle.Render(m.wrap("Error: "+m.err.Error(), width)))
	}
	if m.config.HelpText != "" {
		sections = append(sections, styles.HelpStyle.Render(m.wrap(m.config.HelpText, width)))
	}

	return m.addMargins(strings.Join(sections, "\n\n"))
}

// wrap word-wraps each line independently so manual line breaks survive.
func (m LayoutModel) wrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = wordwrap.String(line, width)
	}
	return strings.Join(lines, "\n")
}

func (m LayoutModel) addMargins(content string) string {
	lines := strings.Split(content, "\n")
	left := strings.Repeat(" ", m.config.MarginX)
	for i, line := range lines {
		lines[i] = left + line
	}
	vertical := strings.Repeat("\n", m.config.MarginY)
	return vertical + strings.Join(lines, "\n") + vertical
}

func (m LayoutModel) ContentWidth() int {
	available := m.width - (m.config.MarginX * 2)
	if available > m.config.MaxWidth {
		return m.config.MaxWidth
	}
	if available < 40 {
		return 40
	}
	return available
}

func (m LayoutModel) ContentHeight() int {
	// Reserve rows for the title, help and spacing sections.
	return m.height - (m.config.MarginY * 2) - 6
}
