package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorSuccess   = lipgloss.Color("78")  // Green
	colorLink      = lipgloss.Color("#58a6ff")
)

var titleBar = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

var subtitle = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Italic(true)

var card = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("#30363d")).
	Padding(0, 1).
	MarginBottom(1)

var cardTitle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255"))

var cardScore = lipgloss.NewStyle().
	Foreground(colorSuccess)

var cardLink = lipgloss.NewStyle().
	Foreground(colorLink).
	Underline(true)

var cardMuted = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240"))

var suggestionStyle = lipgloss.NewStyle().
	Foreground(colorSecondary).
	PaddingLeft(2)

var exampleKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

var statusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

var statusKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)
