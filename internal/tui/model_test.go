package tui

import (
	"context"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"docchat/internal/models"
)

type MockDocChat struct {
	Loads          []string
	Asks           []string
	OnLoadDocument func(ctx context.Context, filePath string) (models.LoadResult, error)
	OnAsk          func(ctx context.Context, query string) (models.PromptResponse, error)
}

func (m *MockDocChat) LoadDocument(ctx context.Context, filePath string) (models.LoadResult, error) {
	m.Loads = append(m.Loads, filePath)
	if m.OnLoadDocument != nil {
		return m.OnLoadDocument(ctx, filePath)
	}
	return models.LoadResult{Source: filePath, ChunkCount: 3}, nil
}

func (m *MockDocChat) Ask(ctx context.Context, query string) (models.PromptResponse, error) {
	m.Asks = append(m.Asks, query)
	if m.OnAsk != nil {
		return m.OnAsk(ctx, query)
	}
	return models.PromptResponse{
		Status:  models.AskAnswered,
		Query:   query,
		Content: "forty-two",
		Sources: []models.Source{{ChunkID: 1, Score: 0.9}},
	}, nil
}

func sized(m Model) Model {
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model)
}

// submitLine types line, presses enter and returns the model plus the
// command produced by the submission.
func submitLine(m Model, line string) (Model, tea.Cmd) {
	m.input.SetValue(line)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(Model), cmd
}

// run executes cmd synchronously and feeds its message back.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	next, _ := m.Update(cmd())
	return next.(Model)
}

func transcriptText(m Model) string {
	lines := make([]string, len(m.transcript))
	for i, e := range m.transcript {
		lines[i] = e.text
	}
	return strings.Join(lines, "\n")
}

func TestLoadCommand(t *testing.T) {
	svc := &MockDocChat{}
	m := sized(New(context.Background(), svc, ""))

	m, cmd := submitLine(m, `/load "docs/report.pdf"`)
	if !m.busy {
		t.Fatal("model should be busy while loading")
	}
	m = run(t, m, cmd)

	if len(svc.Loads) != 1 || svc.Loads[0] != "docs/report.pdf" {
		t.Fatalf("loads got %v", svc.Loads)
	}
	if m.busy {
		t.Error("model still busy after load finished")
	}
	if !strings.Contains(transcriptText(m), "Loaded 3 chunks from report.pdf") {
		t.Errorf("transcript got %q", transcriptText(m))
	}
	if m.input.Value() != "" {
		t.Error("input not cleared")
	}
}

func TestAskFlow(t *testing.T) {
	svc := &MockDocChat{}
	m := sized(New(context.Background(), svc, ""))

	m, cmd := submitLine(m, "what is the answer?")
	m = run(t, m, cmd)

	text := transcriptText(m)
	for _, want := range []string{"You: what is the answer?", "AI: forty-two", "Sources: chunk 2 (0.90)"} {
		if !strings.Contains(text, want) {
			t.Errorf("transcript missing %q:\n%s", want, text)
		}
	}
}

func TestAskResultsAreReported(t *testing.T) {
	tests := []struct {
		name  string
		onAsk func(ctx context.Context, q string) (models.PromptResponse, error)
		want  string
	}{
		{
			name: "Warning",
			onAsk: func(ctx context.Context, q string) (models.PromptResponse, error) {
				return models.PromptResponse{Status: models.AskWarning, Warning: models.WarnNoDocument}, nil
			},
			want: models.WarnNoDocument,
		},
		{
			name: "Chat_Error",
			onAsk: func(ctx context.Context, q string) (models.PromptResponse, error) {
				return models.PromptResponse{}, fmt.Errorf("%w: provider down", models.ErrChatService)
			},
			want: "is the model server running?",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := sized(New(context.Background(), &MockDocChat{OnAsk: tt.onAsk}, ""))
			m, cmd := submitLine(m, "hello")
			m = run(t, m, cmd)
			if !strings.Contains(transcriptText(m), tt.want) {
				t.Errorf("transcript missing %q:\n%s", tt.want, transcriptText(m))
			}
			if m.busy {
				t.Error("model still busy")
			}
		})
	}
}

func TestLoadFailureIsReported(t *testing.T) {
	svc := &MockDocChat{OnLoadDocument: func(ctx context.Context, p string) (models.LoadResult, error) {
		return models.LoadResult{}, fmt.Errorf("%w: \".png\"", models.ErrUnsupportedFileType)
	}}
	m := sized(New(context.Background(), svc, ""))
	m, cmd := submitLine(m, "/load pic.png")
	m = run(t, m, cmd)
	text := transcriptText(m)
	if !strings.Contains(text, "Load failed") || !strings.Contains(text, ".docx") {
		t.Errorf("transcript got %q", text)
	}
}

func TestBusyIgnoresSubmissions(t *testing.T) {
	svc := &MockDocChat{}
	m := sized(New(context.Background(), svc, ""))

	m, first := submitLine(m, "first question")
	m, second := submitLine(m, "second question")
	if second != nil {
		t.Error("a second action was started while busy")
	}
	if m.input.Value() != "second question" {
		t.Error("pending input should be kept while busy")
	}
	m = run(t, m, first)
	if len(svc.Asks) != 1 || svc.Asks[0] != "first question" {
		t.Errorf("asks got %v", svc.Asks)
	}
	if m.busy {
		t.Error("model still busy")
	}
}

func TestBlankAndUsageInput(t *testing.T) {
	svc := &MockDocChat{}
	m := sized(New(context.Background(), svc, ""))

	m, cmd := submitLine(m, "   ")
	if cmd != nil || m.busy {
		t.Error("blank input should do nothing")
	}
	m, cmd = submitLine(m, "/load")
	if cmd != nil || !strings.Contains(transcriptText(m), "Usage: /load <path>") {
		t.Errorf("usage not shown: %q", transcriptText(m))
	}
	if len(svc.Loads)+len(svc.Asks) != 0 {
		t.Error("service was called")
	}
}

func TestInitialFileLoadsOnInit(t *testing.T) {
	svc := &MockDocChat{}
	m := New(context.Background(), svc, "notes.txt")
	if !m.busy || m.Init() == nil {
		t.Fatal("initial load not scheduled")
	}
	next, _ := m.Update(m.loadCmd("notes.txt")())
	if !strings.Contains(transcriptText(next.(Model)), "Loaded 3 chunks from notes.txt") {
		t.Errorf("transcript got %q", transcriptText(next.(Model)))
	}
}

func TestQuit(t *testing.T) {
	m := sized(New(context.Background(), &MockDocChat{}, ""))
	_, cmd := submitLine(m, "/quit")
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}
