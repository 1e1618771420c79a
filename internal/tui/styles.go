package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/alpiant/pos-kasir/internal/job"
)

// Palette. Emerald is the cashier brand color, amber marks pending work.
var (
	Primary   = lipgloss.Color("#059669")
	Secondary = lipgloss.Color("#38BDF8")
	Success   = lipgloss.Color("#22C55E")
	Warning   = lipgloss.Color("#F59E0B")
	Error     = lipgloss.Color("#F43F5E")
	Disabled  = lipgloss.Color("#71717A")

	BgCard    = lipgloss.Color("#1C1917")
	BgHover   = lipgloss.Color("#292524")
	BgSidebar = lipgloss.Color("#0C0A09")
	BgConsole = lipgloss.Color("#000000")

	colorTextBright = lipgloss.Color("#FAFAF9")
	colorTextNormal = lipgloss.Color("#D6D3D1")
	colorTextDim    = lipgloss.Color("#78716C")
)

var (
	TextBright = lipgloss.NewStyle().Foreground(colorTextBright)
	TextNormal = lipgloss.NewStyle().Foreground(colorTextNormal)
	TextMuted  = lipgloss.NewStyle().Foreground(colorTextDim)
)

// Layout
var (
	SidebarStyle = lipgloss.NewStyle().
			Background(BgSidebar).
			Foreground(colorTextNormal).
			Padding(1, 0).
			BorderRight(true).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(Primary)

	SidebarItemStyle   = TextMuted
	SidebarActiveStyle = lipgloss.NewStyle().Foreground(BgSidebar).Background(Primary).Bold(true)

	ContentStyle = lipgloss.NewStyle().Padding(1, 2)
	LogoStyle    = lipgloss.NewStyle().Foreground(Primary).Bold(true).Underline(true)

	HeaderStyle        = lipgloss.NewStyle().Foreground(BgSidebar).Background(Primary).Bold(true).Padding(0, 1)
	CardTitleStyle     = lipgloss.NewStyle().Foreground(Primary).Bold(true).MarginBottom(1)
	SectionHeaderStyle = TextMuted.Bold(true).MarginBottom(1)
)

// Lists and inputs
var (
	ListItemStyle     = lipgloss.NewStyle().Foreground(colorTextNormal).PaddingLeft(1)
	SelectedItemStyle = lipgloss.NewStyle().Foreground(colorTextBright).Background(BgHover).PaddingLeft(1)

	InputStyle             = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(Disabled).Padding(0, 1)
	InputFocusedStyle      = InputStyle.BorderForeground(Primary)
	InputLabelStyle        = TextMuted
	InputLabelFocusedStyle = lipgloss.NewStyle().Foreground(Primary).Bold(true)

	HelpKeyStyle = lipgloss.NewStyle().Foreground(Warning).Bold(true)
)

// Feedback
var (
	SuccessStyle = lipgloss.NewStyle().Foreground(Success)
	ErrorStyle   = lipgloss.NewStyle().Foreground(Error).Bold(true)
	WarningStyle = lipgloss.NewStyle().Foreground(Warning)
	InfoStyle    = lipgloss.NewStyle().Foreground(Secondary)
)

// Destination markers: the active port, a destination reporting a
// permission problem, and everything else.
var (
	StatusOnline  = lipgloss.NewStyle().Foreground(Success).SetString("◆")
	StatusOffline = lipgloss.NewStyle().Foreground(Error).SetString("✗")
	StatusIdle    = lipgloss.NewStyle().Foreground(Disabled).SetString("◇")
)

var jobIcons = map[job.Status]lipgloss.Style{
	job.StatusQueued:    lipgloss.NewStyle().Foreground(Disabled).SetString("…"),
	job.StatusPrinting:  lipgloss.NewStyle().Foreground(Warning).SetString("▶"),
	job.StatusCompleted: lipgloss.NewStyle().Foreground(Success).SetString("✓"),
	job.StatusFailed:    lipgloss.NewStyle().Foreground(Error).SetString("✗"),
}

// RenderHelp renders a key hint such as "t test print".
func RenderHelp(key, desc string) string {
	return HelpKeyStyle.Render(key) + TextMuted.Render(" "+desc)
}

// StatusIcon returns the marker for a job status.
func StatusIcon(status job.Status) string {
	if s, ok := jobIcons[status]; ok {
		return s.String()
	}
	return "?"
}

func renderMessage(text, kind string) string {
	switch kind {
	case "success":
		return SuccessStyle.Render("✓ " + text)
	case "error":
		return ErrorStyle.Render("✗ " + text)
	default:
		return InfoStyle.Render("» " + text)
	}
}

// Truncate shortens s to max runes. A non-positive max leaves s alone.
func Truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
