package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docchat/internal/models"
	"docchat/internal/parser"
)

// DocChat is the TUI-facing subset of the controller.
type DocChat interface {
	LoadDocument(ctx context.Context, filePath string) (models.LoadResult, error)
	Ask(ctx context.Context, query string) (models.PromptResponse, error)
}

type entryKind int

const (
	kindInfo entryKind = iota
	kindUser
	kindAI
	kindWarning
)

type entry struct {
	kind entryKind
	text string
}

type loadDoneMsg struct {
	result models.LoadResult
	err    error
}

type askDoneMsg struct {
	response models.PromptResponse
	err      error
}

var (
	supported = strings.Join(parser.SupportedExtensions(), " ")
	helpText  = "Commands: /load <path> to open a document (" + supported + "), /quit to exit. Anything else is a question."
)

// Model is the Bubble Tea model for the chat window. Only one load or ask
// runs at a time; input submitted while busy is ignored.
type Model struct {
	ctx        context.Context
	service    DocChat
	input      textinput.Model
	viewport   viewport.Model
	transcript []entry
	status     string
	busy       bool
	ready      bool
	initial    string
}

// New creates the model. initialFile, when set, is loaded on start.
func New(ctx context.Context, service DocChat, initialFile string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question or /load <path>"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	m := Model{
		ctx:        ctx,
		service:    service,
		input:      ti,
		viewport:   vp,
		transcript: []entry{{kindInfo, helpText}},
		status:     "No document loaded.",
	}
	if initialFile != "" {
		m.busy = true
		m.initial = initialFile
		m.status = "Loading " + filepath.Base(initialFile) + "..."
	}
	return m
}

// Init starts the cursor blink and the initial load, if any.
func (m Model) Init() tea.Cmd {
	if m.initial != "" {
		return tea.Batch(textinput.Blink, m.loadCmd(m.initial))
	}
	return textinput.Blink
}

func (m Model) loadCmd(path string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.service.LoadDocument(m.ctx, path)
		return loadDoneMsg{result: res, err: err}
	}
}

func (m Model) askCmd(query string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.service.Ask(m.ctx, query)
		return askDoneMsg{response: res, err: err}
	}
}

// Update handles key, window and completion events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, bh := boxStyle.GetFrameSize()
		reserved := 1 + 1 + bh + 1 + bh // header, status, input box, transcript frame
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved)
		m.refresh()
		return m, nil

	case loadDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.appendEntry(kindWarning, "Load failed: "+describe(msg.err))
			m.status = "Load failed."
		} else {
			name := filepath.Base(msg.result.Source)
			m.appendEntry(kindInfo, fmt.Sprintf("Loaded %d chunks from %s", msg.result.ChunkCount, name))
			m.appendEntry(kindInfo, "Document embedded successfully!")
			m.status = fmt.Sprintf("%s: %d chunks (%s)", name, msg.result.ChunkCount, msg.result.Duration.Round(time.Millisecond))
		}
		m.refresh()
		return m, nil

	case askDoneMsg:
		m.busy = false
		switch {
		case msg.err != nil:
			m.appendEntry(kindWarning, "Error: "+describe(msg.err))
		case msg.response.Status == models.AskWarning:
			m.appendEntry(kindWarning, msg.response.Warning)
		case msg.response.Status == models.AskAnswered:
			m.appendEntry(kindUser, "You: "+msg.response.Query)
			m.appendEntry(kindAI, "AI: "+msg.response.Content)
			m.appendEntry(kindInfo, formatSources(msg.response.Sources))
		}
		m.status = "Ready."
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.Type == tea.KeyEnter {
			return m.submit()
		}
		switch msg.String() {
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	if line == "" {
		return m, nil
	}
	if m.busy {
		m.status = "Still working, please wait..."
		return m, nil
	}
	m.input.Reset()

	switch {
	case line == "/quit" || line == "/exit":
		return m, tea.Quit
	case line == "/help":
		m.appendEntry(kindInfo, helpText)
		m.refresh()
		return m, nil
	case line == "/load" || strings.HasPrefix(line, "/load "):
		path := strings.Trim(strings.TrimSpace(strings.TrimPrefix(line, "/load")), `"'`)
		if path == "" {
			m.appendEntry(kindWarning, "Usage: /load <path>")
			m.refresh()
			return m, nil
		}
		m.busy = true
		m.status = "Loading " + filepath.Base(path) + "..."
		return m, m.loadCmd(path)
	default:
		m.busy = true
		m.status = "Thinking..."
		return m, m.askCmd(line)
	}
}

// View renders the header, transcript, input box and status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("Local Document Chat")
	transcript := boxStyle.Render(m.viewport.View())
	input := boxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + transcript + "\n" + input + "\n" + status
}

func (m *Model) appendEntry(kind entryKind, text string) {
	m.transcript = append(m.transcript, entry{kind: kind, text: text})
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m Model) renderTranscript() string {
	width := m.viewport.Width
	parts := make([]string, 0, len(m.transcript))
	for _, e := range m.transcript {
		style := styles[e.kind]
		if width > 0 {
			style = style.Width(width)
		}
		parts = append(parts, style.Render(e.text))
	}
	return strings.Join(parts, "\n")
}

func formatSources(sources []models.Source) string {
	if len(sources) == 0 {
		return "Sources: none"
	}
	refs := make([]string, len(sources))
	for i, s := range sources {
		refs[i] = fmt.Sprintf("chunk %d (%.2f)", s.ChunkID+1, s.Score)
	}
	return "Sources: " + strings.Join(refs, ", ")
}

func describe(err error) string {
	switch {
	case errors.Is(err, models.ErrUnsupportedFileType):
		return err.Error() + " (supported: " + supported + ")"
	case errors.Is(err, models.ErrEmbeddingService), errors.Is(err, models.ErrChatService):
		return err.Error() + " (is the model server running?)"
	default:
		return err.Error()
	}
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F8F8F2"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6272A4"))
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	styles      = map[entryKind]lipgloss.Style{
		kindInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("#BD93F9")).Italic(true),
		kindUser:    lipgloss.NewStyle().Foreground(lipgloss.Color("#8BE9FD")).Bold(true),
		kindAI:      lipgloss.NewStyle().Foreground(lipgloss.Color("#50FA7B")),
		kindWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C")).Italic(true),
	}
)
