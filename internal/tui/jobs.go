package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/alpiant/pos-kasir/internal/command"
	"github.com/alpiant/pos-kasir/internal/job"
)

// JobsModel handles the jobs tab
type JobsModel struct {
	service      command.Service
	jobs         []job.Job
	cursor       int
	scrollOffset int
	width        int
	height       int
	message      string
	msgType      string
}

// NewJobsModel creates a new jobs model
func NewJobsModel(service command.Service) JobsModel {
	return JobsModel{service: service}
}

// SetSize sets the component size
func (m *JobsModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.adjustScroll()
}

// Refresh reloads the job history, newest first
func (m *JobsModel) Refresh() {
	jobs := m.service.Jobs()
	for i, j := 0, len(jobs)-1; i < j; i, j = i+1, j-1 {
		jobs[i], jobs[j] = jobs[j], jobs[i]
	}
	m.jobs = jobs
	if m.cursor >= len(m.jobs) && len(m.jobs) > 0 {
		m.cursor = len(m.jobs) - 1
	}
	m.adjustScroll()
}

// Update handles messages
func (m JobsModel) Update(msg tea.Msg) (JobsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress {
			break
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			if m.cursor > 0 {
				m.cursor--
				m.adjustScroll()
			}
		case tea.MouseButtonWheelDown:
			if m.cursor < len(m.jobs)-1 {
				m.cursor++
				m.adjustScroll()
			}
		}
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				m.adjustScroll()
			}
		case "down", "j":
			if m.cursor < len(m.jobs)-1 {
				m.cursor++
				m.adjustScroll()
			}
		case "r":
			m.Refresh()
			m.message = "Refreshed"
			m.msgType = "success"
		case "c":
			n := m.service.ClearCompleted()
			m.Refresh()
			m.message = fmt.Sprintf("Cleared %d completed", n)
			m.msgType = "success"
		}
	}

	return m, nil
}

// View renders the jobs tab
func (m JobsModel) View() string {
	var b strings.Builder

	availableLines := m.height - 4
	if m.message != "" {
		availableLines -= 2
	}

	b.WriteString(CardTitleStyle.Render("Print Jobs"))
	b.WriteString("\n\n")

	if len(m.jobs) == 0 {
		b.WriteString(TextMuted.Render("No print jobs yet.\n"))
		b.WriteString(TextMuted.Render("Press ") + HelpKeyStyle.Render("t") + TextMuted.Render(" on the Printers tab for a test print.\n"))
	} else {
		counts := map[job.Status]int{}
		for _, j := range m.jobs {
			counts[j.Status]++
		}

		var stats []string
		if n := counts[job.StatusQueued]; n > 0 {
			stats = append(stats, WarningStyle.Render(fmt.Sprintf("%d queued", n)))
		}
		if n := counts[job.StatusPrinting]; n > 0 {
			stats = append(stats, InfoStyle.Render(fmt.Sprintf("%d printing", n)))
		}
		if n := counts[job.StatusCompleted]; n > 0 {
			stats = append(stats, SuccessStyle.Render(fmt.Sprintf("%d completed", n)))
		}
		if n := counts[job.StatusFailed]; n > 0 {
			stats = append(stats, ErrorStyle.Render(fmt.Sprintf("%d failed", n)))
		}
		b.WriteString(strings.Join(stats, "  "))
		b.WriteString("\n\n")

		maxJobs := availableLines - 8 // stats and details
		if maxJobs < 0 {
			maxJobs = 0
		}

		startIdx := m.scrollOffset
		endIdx := startIdx + maxJobs
		if endIdx > len(m.jobs) {
			endIdx = len(m.jobs)
		}

		for i := startIdx; i < endIdx; i++ {
			j := m.jobs[i]
			cursor := "  "
			style := ListItemStyle
			if i == m.cursor {
				cursor = "▸ "
				style = SelectedItemStyle
			}

			status := statusStyle(j.Status).Render(string(j.Status))
			age := time.Since(j.CreatedAt).Truncate(time.Second).String()
			line := fmt.Sprintf("%s%s %s  %-7s %s  %s", cursor, StatusIcon(j.Status), Truncate(j.ID, 8), j.Type, status, TextMuted.Render(age))

			b.WriteString(style.Render(line))
			b.WriteString("\n")
		}

		if len(m.jobs) > maxJobs {
			if m.scrollOffset > 0 {
				b.WriteString(TextMuted.Render("  ... (↑ to scroll) ...\n"))
			}
			if endIdx < len(m.jobs) {
				b.WriteString(TextMuted.Render("  ... (↓ to scroll) ...\n"))
			}
		}

		if m.cursor < len(m.jobs) {
			j := m.jobs[m.cursor]
			b.WriteString("\n")
			b.WriteString(SectionHeaderStyle.Render("DETAILS"))
			b.WriteString("\n")

			b.WriteString(TextMuted.Render("ID: ") + TextNormal.Render(j.ID))
			b.WriteString("\n")
			b.WriteString(TextMuted.Render("Printer: ") + TextNormal.Render(j.Destination))
			b.WriteString("\n")
			b.WriteString(TextMuted.Render("Created: ") + TextNormal.Render(j.CreatedAt.Format("15:04:05")))
			b.WriteString(TextMuted.Render("  Bytes: ") + TextNormal.Render(fmt.Sprintf("%d", j.Bytes)))

			if j.Error != "" {
				b.WriteString("\n")
				b.WriteString(ErrorStyle.Render(fmt.Sprintf("%s: %s", j.ErrorKind, firstLine(j.Error))))
			}
		}
	}

	if m.message != "" {
		b.WriteString("\n\n")
		b.WriteString(renderMessage(m.message, m.msgType))
	}

	return b.String()
}

func statusStyle(s job.Status) lipgloss.Style {
	switch s {
	case job.StatusQueued:
		return lipgloss.NewStyle().Foreground(Warning)
	case job.StatusPrinting:
		return lipgloss.NewStyle().Foreground(Secondary)
	case job.StatusCompleted:
		return lipgloss.NewStyle().Foreground(Success)
	case job.StatusFailed:
		return lipgloss.NewStyle().Foreground(Error)
	default:
		return TextMuted
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

// Help returns help text for this tab
func (m JobsModel) Help() string {
	return RenderHelp("↑/↓", "select") + "  " +
		RenderHelp("c", "clear done") + "  " +
		RenderHelp("r", "refresh")
}

func (m *JobsModel) adjustScroll() {
	if len(m.jobs) == 0 {
		m.scrollOffset = 0
		return
	}

	maxVisible := m.height - 12 // title, stats, details, message
	if maxVisible < 1 {
		maxVisible = 1
	}

	if m.cursor < m.scrollOffset {
		m.scrollOffset = m.cursor
	}
	if m.cursor >= m.scrollOffset+maxVisible {
		m.scrollOffset = m.cursor - maxVisible + 1
	}

	maxOffset := len(m.jobs) - maxVisible
	if maxOffset < 0 {
		maxOffset = 0
	}
	if m.scrollOffset > maxOffset {
		m.scrollOffset = maxOffset
	}
}
