// Package tui is the interactive course search front end.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"coursesearch/internal/adapter/render"
	"coursesearch/internal/domain"
)

// ExampleQueries are offered while nothing has been searched yet.
var ExampleQueries = []string{
	"machine learning for beginners",
	"advanced data visualization techniques",
	"python programming basics",
	"Business Analytics",
}

const maxSuggestions = 5

// Searcher is what the TUI needs from the search use case.
type Searcher interface {
	Search(ctx context.Context, query string, k int) []domain.RankedResult
	Suggest(text string, n int) []string
	Strategy() string
	CatalogSize() int
}

// Model is the Bubble Tea model for the search screen.
type Model struct {
	searcher Searcher
	topK     int
	ctx      context.Context

	input   textinput.Model
	spinner spinner.Model

	suggestions []string
	results     []domain.RankedResult
	lastQuery   string
	elapsed     time.Duration
	searching   bool
	seq         int
	example     int

	width  int
	height int
}

func New(ctx context.Context, searcher Searcher, topK int) Model {
	ti := textinput.New()
	ti.Placeholder = "e.g., machine learning, data science, python"
	ti.Prompt = "› "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(colorLink).Bold(true)
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(colorLink)
	ti.CharLimit = 200
	ti.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorHighlight)

	return Model{
		searcher: searcher,
		topK:     topK,
		ctx:      ctx,
		input:    ti,
		spinner:  s,
		width:    80,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(10, msg.Width-6)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "enter":
			query := strings.TrimSpace(m.input.Value())
			if query == "" {
				return m, nil
			}
			m.seq++
			m.searching = true
			m.suggestions = nil
			return m, tea.Batch(m.spinner.Tick, m.search(query, m.seq))

		case "tab":
			// Complete from the first suggestion, or cycle example queries
			// while the box is empty.
			switch {
			case len(m.suggestions) > 0:
				m.input.SetValue(m.suggestions[0])
			case m.input.Value() == "":
				m.input.SetValue(ExampleQueries[m.example%len(ExampleQueries)])
				m.example++
			default:
				return m, nil
			}
			m.input.CursorEnd()
			m.suggestions = m.searcher.Suggest(m.input.Value(), maxSuggestions)
			return m, nil
		}

	case searchDone:
		if msg.Seq != m.seq {
			return m, nil
		}
		m.searching = false
		m.results = msg.Results
		m.lastQuery = msg.Query
		m.elapsed = msg.Elapsed
		return m, nil

	case spinner.TickMsg:
		if !m.searching {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	oldValue := m.input.Value()

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	if m.input.Value() != oldValue {
		m.suggestions = m.searcher.Suggest(m.input.Value(), maxSuggestions)
	}

	return m, cmd
}

func (m Model) search(query string, seq int) tea.Cmd {
	searcher, ctx, k := m.searcher, m.ctx, m.topK
	return func() tea.Msg {
		start := time.Now()
		results := searcher.Search(ctx, query, k)
		return searchDone{Query: query, Seq: seq, Results: results, Elapsed: time.Since(start)}
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleBar.Render("Analytics Vidhya Smart Course Search"))
	b.WriteString("\n")
	b.WriteString(subtitle.Render(fmt.Sprintf("Find the most relevant courses for your query (%d courses, %s ranking)",
		m.searcher.CatalogSize(), m.searcher.Strategy())))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")

	for _, s := range m.suggestions {
		b.WriteString(suggestionStyle.Render(s))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case m.searching:
		b.WriteString(m.spinner.View() + " Searching...\n")
	case m.lastQuery == "":
		b.WriteString(cardMuted.Render("Try one of these:"))
		b.WriteString("\n")
		for _, q := range ExampleQueries {
			b.WriteString("  " + exampleKey.Render("•") + " " + q + "\n")
		}
	case len(m.results) == 0:
		b.WriteString(fmt.Sprintf("No results found for %q.\n", m.lastQuery))
	default:
		b.WriteString(cardMuted.Render(fmt.Sprintf("%d results for %q in %s", len(m.results), m.lastQuery, m.elapsed.Round(time.Millisecond))))
		b.WriteString("\n\n")
		for _, r := range m.results {
			b.WriteString(m.renderCard(r))
			b.WriteString("\n")
		}
	}

	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m Model) renderCard(r domain.RankedResult) string {
	body := strings.Join([]string{
		cardTitle.Render(r.Title),
		cardScore.Render("Relevance: " + render.Percent(r.Score)),
		cardLink.Render(r.CourseLink),
		cardMuted.Render(r.ImageURL),
	}, "\n")
	return card.Width(max(20, m.width-4)).Render(body)
}

func (m Model) renderStatusBar() string {
	hint := statusKey.Render("enter") + " search  " +
		statusKey.Render("tab") + " complete  " +
		statusKey.Render("esc") + " quit"
	return statusBar.Render(hint)
}

// Run starts the program on the alternate screen and blocks until it exits.
func Run(ctx context.Context, searcher Searcher, topK int) error {
	p := tea.NewProgram(New(ctx, searcher, topK), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
