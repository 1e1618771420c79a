package tui

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	osc52 "github.com/aymanbagabas/go-osc52/v2"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/alpiant/pos-kasir/internal/command"
	"github.com/alpiant/pos-kasir/internal/printer"
)

type commandResultMsg struct {
	result *command.Result
}

// CommandModel handles command input
type CommandModel struct {
	executor   *command.Executor
	input      textinput.Model
	visible    bool
	running    bool
	lastResult *command.Result
	width      int
	height     int
	scrollPos  int

	// When lastResult lists destinations, allow copying their paths
	paths       []string
	selectedIdx int
}

// NewCommandModel creates a new command model
func NewCommandModel(executor *command.Executor) CommandModel {
	input := textinput.New()
	input.Placeholder = "Enter command (e.g., 'detect', 'port get', 'help')"
	input.CharLimit = 200
	input.Prompt = "> "
	input.PromptStyle = lipgloss.NewStyle().Foreground(Secondary)

	return CommandModel{
		executor: executor,
		input:    input,
		width:    80,
	}
}

// SetSize sets the component size
func (m *CommandModel) SetSize(width int) {
	if width < 40 {
		width = 40
	}
	m.width = width
	m.input.Width = width - 6
}

// SetHeight sets the maximum height for the command view
func (m *CommandModel) SetHeight(height int) {
	m.height = height
}

// Show shows the command input
func (m *CommandModel) Show() tea.Cmd {
	m.visible = true
	m.lastResult = nil
	m.scrollPos = 0
	m.paths = nil
	m.selectedIdx = 0
	return m.input.Focus()
}

// Hide hides the command input
func (m *CommandModel) Hide() {
	m.visible = false
	m.input.Blur()
	m.input.SetValue("")
	m.paths = nil
	m.selectedIdx = 0
}

// IsVisible returns whether the command input is visible
func (m *CommandModel) IsVisible() bool {
	return m.visible
}

// Commands may print, so they run off the UI goroutine.
func (m CommandModel) execute(cmdStr string) tea.Cmd {
	executor := m.executor
	return func() tea.Msg {
		return commandResultMsg{result: executor.Execute(context.Background(), cmdStr)}
	}
}

// Update handles messages
func (m CommandModel) Update(msg tea.Msg) (CommandModel, tea.Cmd) {
	switch msg := msg.(type) {
	case commandResultMsg:
		m.running = false
		m.lastResult = msg.result
		m.scrollPos = 0
		m.paths = extractPaths(msg.result)
		m.selectedIdx = 0
		return m, nil

	case tea.KeyMsg:
		if !m.visible {
			return m, nil
		}
		switch msg.String() {
		case "enter":
			cmdStr := strings.TrimSpace(m.input.Value())
			if cmdStr == "" || m.running {
				return m, nil
			}
			m.running = true
			m.input.SetValue("")
			cmd := m.execute(cmdStr)
			return m, cmd

		case "esc":
			m.Hide()
			return m, nil

		case "up":
			if m.scrollPos > 0 {
				m.scrollPos--
			}
			return m, nil

		case "down":
			m.scrollPos++
			return m, nil

		case "pageup":
			m.scrollPos -= 5
			if m.scrollPos < 0 {
				m.scrollPos = 0
			}
			return m, nil

		case "pagedown":
			m.scrollPos += 5
			return m, nil

		case "ctrl+j":
			if m.selectedIdx < len(m.paths)-1 {
				m.selectedIdx++
			}
			return m, nil

		case "ctrl+k":
			if m.selectedIdx > 0 {
				m.selectedIdx--
			}
			return m, nil

		case "ctrl+y":
			if m.selectedIdx < len(m.paths) && m.lastResult != nil {
				if err := copyToClipboard(m.paths[m.selectedIdx]); err != nil {
					m.lastResult.Message = fmt.Sprintf("%s\n(copy failed: %v)", m.lastResult.Message, err)
				} else {
					m.lastResult.Message = fmt.Sprintf("%s\n(copied %s)", m.lastResult.Message, m.paths[m.selectedIdx])
				}
			}
			return m, nil
		}

		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the command area
func (m CommandModel) View() string {
	if !m.visible {
		return ""
	}

	availableHeight := m.height - 5 // title, input, help
	if m.height == 0 {
		availableHeight = 15
	}
	if availableHeight < 3 {
		availableHeight = 3
	}

	var b strings.Builder

	b.WriteString(HeaderStyle.Render("Command"))
	b.WriteString("\n")

	boxStyle := InputFocusedStyle.
		Width(m.width - 4).
		BorderForeground(Secondary)
	b.WriteString(boxStyle.Render(m.input.View()))
	b.WriteString("\n")

	resultLines := m.resultLines()
	if m.running {
		resultLines = []string{InfoStyle.Render("Running...")}
	}

	totalLines := len(resultLines)
	maxScroll := totalLines - availableHeight
	if maxScroll < 0 {
		maxScroll = 0
	}
	scrollPos := m.scrollPos
	if scrollPos > maxScroll {
		scrollPos = maxScroll
	}

	end := scrollPos + availableHeight
	if end > totalLines {
		end = totalLines
	}
	for i := scrollPos; i < end; i++ {
		b.WriteString(resultLines[i])
		b.WriteString("\n")
	}
	if totalLines > availableHeight {
		b.WriteString(TextMuted.Render(fmt.Sprintf("  ... (↑/↓ to scroll, %d/%d lines)", scrollPos+1, totalLines)))
		b.WriteString("\n")
	}

	helpText := "Press Enter to execute, Esc to close"
	if len(m.paths) > 0 {
		helpText += ", Ctrl+J/K select, Ctrl+Y copy path"
	}
	b.WriteString(TextMuted.Render(helpText))

	return b.String()
}

func (m CommandModel) resultLines() []string {
	res := m.lastResult
	if res == nil {
		return nil
	}

	var lines []string
	if !res.Success {
		for _, l := range wrapLines("✗ "+res.Error, m.width-4) {
			lines = append(lines, ErrorStyle.Render(l))
		}
		return lines
	}

	style := SuccessStyle
	msg := res.Message
	if strings.HasPrefix(msg, "Available Commands:") {
		style = TextMuted
	} else if _, ok := res.Data["destinations"]; ok {
		// detect lists destinations below; keep only the count line
		msg, _, _ = strings.Cut(msg, "\n")
		msg = "✓ " + msg
	} else {
		msg = "✓ " + msg
	}
	for _, l := range wrapLines(msg, m.width-4) {
		lines = append(lines, style.Render(l))
	}

	if dests, ok := res.Data["destinations"].([]printer.Destination); ok {
		lines = append(lines, "")
		for i, d := range dests {
			marker := "  "
			if i == m.selectedIdx {
				marker = "▶ "
			}
			lines = append(lines, marker+TextBright.Render(d.Path)+"  "+TextMuted.Render(d.Description))
		}
	}

	if jobs, ok := res.Data["jobs"].([]map[string]interface{}); ok {
		lines = append(lines, "")
		for _, j := range jobs {
			lines = append(lines, fmt.Sprintf("  %v  %v  %v  %v", j["id"], j["type"], j["status"], j["destination"]))
			if e, ok := j["error"].(string); ok && e != "" {
				lines = append(lines, ErrorStyle.Render("    "+firstLine(e)))
			}
		}
	}

	if id, ok := res.Data["id"].(string); ok {
		lines = append(lines, InfoStyle.Render("Job ID: "+id))
	}

	return lines
}

func extractPaths(res *command.Result) []string {
	if res == nil || !res.Success {
		return nil
	}
	dests, ok := res.Data["destinations"].([]printer.Destination)
	if !ok {
		return nil
	}
	var paths []string
	for _, d := range dests {
		paths = append(paths, d.Path)
	}
	return paths
}

func copyToClipboard(text string) error {
	if err := clipboard.WriteAll(text); err == nil {
		return nil
	}

	// Fallback to OSC52 for terminals that support it (incl. tmux/screen).
	seq := osc52.New(text).Tmux().Screen()
	_, _ = fmt.Fprint(os.Stderr, seq)
	return fmt.Errorf("system clipboard unavailable; sent OSC52 copy sequence")
}

// wrapLines splits text on newlines and wraps each line to width
func wrapLines(text string, width int) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if width <= 0 || len([]rune(line)) <= width {
			out = append(out, line)
			continue
		}
		out = append(out, wrapText(line, width)...)
	}
	return out
}

// wrapText wraps text to fit within a given width
func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	currentLine := words[0]
	for _, word := range words[1:] {
		if len([]rune(currentLine))+1+len([]rune(word)) <= width {
			currentLine += " " + word
		} else {
			lines = append(lines, currentLine)
			currentLine = word
		}
	}
	return append(lines, currentLine)
}
