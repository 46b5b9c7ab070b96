// Package tui implements the interactive chat interface.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"cvector/internal/domain"
	"cvector/internal/service"
)

// AskPort is the TUI-facing subset of the query service.
type AskPort interface {
	Ask(ctx context.Context, question string, topK int, session *domain.ChatSession) (service.Answer, error)
}

type answerMsg struct {
	question string
	answer   service.Answer
	err      error
}

// Model is the Bubble Tea model for the chat application.
type Model struct {
	asker    AskPort
	session  *domain.ChatSession
	topK     int
	input    textinput.Model
	viewport viewport.Model
	history  []string
	status   string
	thinking bool
	ready    bool
}

// New creates a chat model bound to a session. Turns accumulate in the
// session so follow-up questions carry the conversation.
func New(asker AskPort, session *domain.ChatSession, topK int) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about your media (exit to quit)"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		asker:    asker,
		session:  session,
		topK:     topK,
		input:    ti,
		viewport: vp,
		status:   "Ready. Ask a question.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ch := chatBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header, status, input frame, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-ch)
		m.viewport.SetContent(m.renderHistory())
		return m, nil

	case answerMsg:
		m.thinking = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			m.history = append(m.history, renderTurn(msg.question, msg.answer))
			m.status = fmt.Sprintf("Answered from %d chunks.", msg.answer.ContextChunks)
		}
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		if msg.String() == "enter" && !m.thinking {
			q := strings.TrimSpace(m.input.Value())
			switch {
			case q == "":
			case q == "exit" || q == "quit":
				return m, tea.Quit
			default:
				m.input.SetValue("")
				m.thinking = true
				m.status = "Thinking..."
				return m, m.ask(q)
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// ask runs the question off the UI loop so typing stays responsive while the
// provider responds.
func (m Model) ask(question string) tea.Cmd {
	asker, session, topK := m.asker, m.session, m.topK
	return func() tea.Msg {
		answer, err := asker.Ask(context.Background(), question, topK, session)
		return answerMsg{question: question, answer: answer, err: err}
	}
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("cvector chat")
	chat := chatBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + chat + "\n" + input + "\n" + status
}

func (m Model) renderHistory() string {
	if len(m.history) == 0 {
		return "No questions yet."
	}
	return strings.Join(m.history, "\n\n")
}

func renderTurn(question string, answer service.Answer) string {
	var b strings.Builder
	b.WriteString(questionStyle.Render("You: " + question))
	b.WriteString("\n")
	b.WriteString(answer.Text)
	if len(answer.Sources) > 0 {
		b.WriteString("\n")
		b.WriteString(sourceStyle.Render("Sources: " + strings.Join(answer.Sources, ", ")))
	}
	return b.String()
}

var (
	chatBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	sourceStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
