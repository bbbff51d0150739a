package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"interviewassistant/api"
)

// Styles contains the lipgloss styles of the candidate screen
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Muted    lipgloss.Style
	Error    lipgloss.Style
	Warning  lipgloss.Style
	Success  lipgloss.Style
	Question lipgloss.Style
	Clock    lipgloss.Style
	ClockLow lipgloss.Style
	Border   lipgloss.Style
	Help     lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")),
		Subtitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")),
		Warning: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("226")),
		Success: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("46")),
		Question: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")),
		Clock: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")),
		ClockLow: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")),
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1),
	}
}

// entryStyle picks the transcript style of a chat kind.
func (s Styles) entryStyle(kind api.ChatKind) lipgloss.Style {
	switch kind {
	case api.ChatQuestion:
		return s.Question
	case api.ChatUser:
		return s.Subtitle
	case api.ChatTimer:
		return s.Warning
	case api.ChatError:
		return s.Error
	case api.ChatCompleted:
		return s.Success
	default:
		return s.Muted
	}
}

type keyMap struct {
	Quit     key.Binding
	Upload   key.Binding
	Retry    key.Binding
	Submit   key.Binding
	Continue key.Binding
	Restart  key.Binding
	Done     key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
	Upload: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "upload resume"),
	),
	Retry: key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("ctrl+r", "retry question generation"),
	),
	Submit: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("ctrl+s", "submit answer"),
	),
	Continue: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "continue interview"),
	),
	Restart: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "start over"),
	),
	Done: key.NewBinding(
		key.WithKeys("q", "enter"),
		key.WithHelp("q", "exit"),
	),
}
