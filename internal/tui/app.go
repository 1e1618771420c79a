// Package tui is the terminal printer picker and job monitor.
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

const sidebarWidth = 24

// Tab represents a navigation tab
type Tab int

const (
	TabPrinters Tab = iota
	TabJobs
	tabCount
)

func (t Tab) String() string {
	return []string{"Printers", "Jobs"}[t]
}

type tickMsg time.Time

// App is the main Bubble Tea model
type App struct {
	activeTab Tab
	width     int
	height    int
	ready     bool
	quitting  bool

	printers PrintersModel
	jobs     JobsModel
	command  CommandModel

	startTime time.Time
}

// NewApp creates the TUI over the print service and the settings port store
func NewApp(service command.Service, ports command.PortStore) *App {
	return &App{
		activeTab: TabPrinters,
		printers:  NewPrintersModel(service, ports),
		jobs:      NewJobsModel(service),
		command:   NewCommandModel(command.NewExecutor(service, ports)),
		startTime: time.Now(),
	}
}

// Init starts discovery and the refresh ticker
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.printers.Scan(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if a.command.IsVisible() {
			var cmd tea.Cmd
			a.command, cmd = a.command.Update(msg)
			return a, cmd
		}

		if msg.String() == "ctrl+c" {
			a.quitting = true
			return a, tea.Quit
		}

		// A focused text input takes every other key.
		if a.activeTab == TabPrinters && a.printers.InputActive() {
			var cmd tea.Cmd
			a.printers, cmd = a.printers.Update(msg)
			return a, cmd
		}

		switch msg.String() {
		case "q":
			a.quitting = true
			return a, tea.Quit
		case ":":
			cmd := a.command.Show()
			a.command.SetSize(maxInt(20, a.width))
			a.command.SetHeight(a.bottomAreaHeight())
			return a, cmd
		case "1":
			a.activeTab = TabPrinters
			return a, nil
		case "2":
			a.activeTab = TabJobs
			a.jobs.Refresh()
			return a, nil
		case "tab":
			a.activeTab = (a.activeTab + 1) % tabCount
			return a, nil
		case "shift+tab":
			a.activeTab = (a.activeTab + tabCount - 1) % tabCount
			return a, nil
		}

		cmds = append(cmds, a.delegate(msg))

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.resize()

	case tickMsg:
		a.jobs.Refresh()
		cmds = append(cmds, tickCmd())

	case destinationsMsg, testPrintMsg:
		var cmd tea.Cmd
		a.printers, cmd = a.printers.Update(msg)
		a.jobs.Refresh()
		cmds = append(cmds, cmd)

	case commandResultMsg:
		var cmd tea.Cmd
		a.command, cmd = a.command.Update(msg)
		a.jobs.Refresh()
		cmds = append(cmds, cmd)

	case tea.MouseMsg:
		if msg.Y >= a.height-a.bottomAreaHeight() {
			return a, nil
		}
		// Translate into the content pane (sidebar, border and padding).
		translated := msg
		translated.X = maxInt(0, msg.X-sidebarWidth-2)
		translated.Y = maxInt(0, msg.Y-1)
		cmds = append(cmds, a.delegate(translated))
	}

	return a, tea.Batch(cmds...)
}

func (a *App) delegate(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.activeTab {
	case TabPrinters:
		a.printers, cmd = a.printers.Update(msg)
	case TabJobs:
		a.jobs, cmd = a.jobs.Update(msg)
	}
	return cmd
}

func (a *App) contentSize() (int, int) {
	w := maxInt(20, a.width-sidebarWidth-1)
	h := maxInt(1, a.height-a.bottomAreaHeight())
	return w, h
}

func (a *App) resize() {
	w, h := a.contentSize()
	a.printers.SetSize(w, h)
	a.jobs.SetSize(w, h)
	a.command.SetSize(a.width)
	a.command.SetHeight(a.bottomAreaHeight())
}

// View renders the UI
func (a *App) View() string {
	if a.quitting {
		return "\n  Goodbye!\n\n"
	}
	if !a.ready {
		return "\n  Loading...\n"
	}

	a.resize()
	contentWidth, contentHeight := a.contentSize()
	top := lipgloss.JoinHorizontal(lipgloss.Top,
		a.renderSidebar(sidebarWidth, contentHeight),
		a.renderContent(contentWidth, contentHeight),
	)

	bottom := a.renderStatusBar()
	if a.command.IsVisible() {
		bottom = a.renderCommandArea()
	}

	lines := strings.Split(lipgloss.JoinVertical(lipgloss.Left, top, bottom), "\n")
	for len(lines) < a.height {
		lines = append(lines, strings.Repeat(" ", a.width))
	}
	if len(lines) > a.height {
		lines = lines[:a.height]
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderSidebar(width, height int) string {
	lines := []string{
		LogoStyle.Render("POS Kasir"),
		TextMuted.Render("Printer setup"),
		"",
		TextMuted.Render(" NAVIGATION"),
		"",
	}

	for i := Tab(0); i < tabCount; i++ {
		item := fmt.Sprintf(" %d %s", i+1, i)
		if pad := width - lipgloss.Width(item) - 2; pad > 0 {
			item += strings.Repeat(" ", pad)
		}
		if i == a.activeTab {
			lines = append(lines, SidebarActiveStyle.Render(item))
		} else {
			lines = append(lines, SidebarItemStyle.Render(item))
		}
	}

	lines = append(lines, "", TextMuted.Render(" KEYS"), "")
	var help string
	switch a.activeTab {
	case TabPrinters:
		help = a.printers.Help()
	case TabJobs:
		help = a.jobs.Help()
	}
	for _, h := range strings.Split(help, "  ") {
		lines = append(lines, " "+h)
	}
	lines = append(lines, " "+RenderHelp(":", "command"), " "+RenderHelp("q", "quit"))

	return SidebarStyle.
		Width(width).
		Height(height).
		Render(strings.Join(lines, "\n"))
}

func (a *App) renderContent(width, height int) string {
	var content string
	switch a.activeTab {
	case TabPrinters:
		content = a.printers.View()
	case TabJobs:
		content = a.jobs.View()
	}

	if lines := strings.Split(content, "\n"); len(lines) > height {
		content = strings.Join(lines[:height], "\n")
	}

	return ContentStyle.
		Width(width).
		Height(height).
		Render(content)
}

func (a *App) renderStatusBar() string {
	base := lipgloss.NewStyle().Background(BgCard).Foreground(colorTextNormal)
	seg := func(text string, fg, bg lipgloss.Color, bold bool) string {
		return lipgloss.NewStyle().Foreground(fg).Background(bg).Bold(bold).Padding(0, 1).Render(text)
	}
	pipe := base.Render(" | ")

	port := a.printers.Current()
	portBg := Primary
	if port == "" {
		port = "not configured"
		portBg = Error
	}

	queued, printing := 0, 0
	for _, j := range a.jobs.jobs {
		switch j.Status {
		case job.StatusQueued:
			queued++
		case job.StatusPrinting:
			printing++
		}
	}

	uptime := time.Since(a.startTime)
	up := seg(fmt.Sprintf("up %02d:%02d", int(uptime.Hours()), int(uptime.Minutes())%60), colorTextBright, Primary, true)

	left := seg("NAV", colorTextBright, BgHover, true) + pipe +
		seg("printer "+port, colorTextBright, portBg, false) + pipe +
		seg(fmt.Sprintf("found %d", len(a.printers.dests)), colorTextBright, Secondary, true) + pipe +
		seg(fmt.Sprintf("queued %d", queued), colorTextBright, BgHover, false) + pipe +
		seg(fmt.Sprintf("printing %d", printing), colorTextBright, BgHover, false)

	gap := maxInt(1, a.width-lipgloss.Width(left)-lipgloss.Width(pipe)-lipgloss.Width(up))
	return base.Width(a.width).Render(left + strings.Repeat(" ", gap) + pipe + up)
}

func (a *App) renderCommandArea() string {
	base := lipgloss.NewStyle().Background(BgConsole).Foreground(colorTextNormal)

	lines := strings.Split(a.command.View(), "\n")
	h := a.bottomAreaHeight()
	for len(lines) < h {
		lines = append(lines, "")
	}
	if len(lines) > h {
		lines = lines[len(lines)-h:]
	}
	return base.Width(a.width).Height(h).Render(strings.Join(lines, "\n"))
}

func (a *App) bottomAreaHeight() int {
	if !a.command.IsVisible() {
		return 1
	}
	h := a.height / 3
	if h < 8 {
		h = 8
	}
	if h > 14 {
		h = 14
	}
	return h
}

// Run starts the TUI
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
