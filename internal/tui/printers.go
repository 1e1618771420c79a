package tui

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/alpiant/pos-kasir/internal/command"
	"github.com/alpiant/pos-kasir/internal/discovery"
	"github.com/alpiant/pos-kasir/internal/printer"
)

const defaultRawPort = "9100"

type pickerMode int

const (
	modeList pickerMode = iota
	modeNetwork
	modeManual
)

// Messages
type destinationsMsg struct {
	dests []printer.Destination
}

type testPrintMsg struct {
	err error
}

// PrintersModel is the destination picker
type PrintersModel struct {
	service      command.Service
	ports        command.PortStore
	dests        []printer.Destination
	current      string
	scanning     bool
	cursor       int
	scrollOffset int
	width        int
	height       int

	mode        pickerMode
	hostInput   textinput.Model
	portInput   textinput.Model
	manualInput textinput.Model
	inputFocus  int // 0 = host, 1 = port
	message     string
	messageType string
}

// NewPrintersModel creates a new picker
func NewPrintersModel(service command.Service, ports command.PortStore) PrintersModel {
	hostInput := textinput.New()
	hostInput.Placeholder = "192.168.1.100"
	hostInput.CharLimit = 253
	hostInput.Width = 30

	portInput := textinput.New()
	portInput.Placeholder = defaultRawPort
	portInput.CharLimit = 5
	portInput.Width = 10

	manualInput := textinput.New()
	manualInput.Placeholder = "/dev/usb/lp0, COM3, cups:EPSON_TM_T20"
	manualInput.CharLimit = 255
	manualInput.Width = 40

	m := PrintersModel{
		service:     service,
		ports:       ports,
		hostInput:   hostInput,
		portInput:   portInput,
		manualInput: manualInput,
	}
	m.current, _ = ports.PrinterPort()
	return m
}

// SetSize sets the component size
func (m *PrintersModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.adjustScroll()
}

// Scan returns a command that runs discovery off the UI goroutine
func (m *PrintersModel) Scan() tea.Cmd {
	m.scanning = true
	service := m.service
	return func() tea.Msg {
		return destinationsMsg{dests: service.ListDestinations(context.Background())}
	}
}

// SetDestinations replaces the listed destinations
func (m *PrintersModel) SetDestinations(dests []printer.Destination) {
	m.scanning = false
	m.dests = dests
	if m.cursor >= len(m.dests) {
		m.cursor = len(m.dests) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.adjustScroll()
}

// Current returns the stored destination
func (m PrintersModel) Current() string {
	return m.current
}

// InputActive reports whether a text input owns the keyboard.
func (m PrintersModel) InputActive() bool {
	return m.mode != modeList
}

// Update handles messages
func (m PrintersModel) Update(msg tea.Msg) (PrintersModel, tea.Cmd) {
	switch msg := msg.(type) {
	case destinationsMsg:
		m.SetDestinations(msg.dests)
		return m, nil

	case testPrintMsg:
		if msg.err != nil {
			m.setMessage(msg.err.Error(), "error")
		} else {
			m.setMessage("Test print berhasil dikirim ke printer!", "success")
		}
		return m, nil

	case tea.MouseMsg:
		if m.mode != modeList || msg.Action != tea.MouseActionPress {
			return m, nil
		}
		switch msg.Button {
		case tea.MouseButtonLeft:
			// title and current destination take the first 4 lines
			idx := m.scrollOffset + msg.Y - 4
			if idx >= 0 && idx < len(m.dests) {
				m.cursor = idx
				m.adjustScroll()
			}
		case tea.MouseButtonWheelUp:
			m.moveCursor(-1)
		case tea.MouseButtonWheelDown:
			m.moveCursor(1)
		}

	case tea.KeyMsg:
		switch m.mode {
		case modeNetwork:
			return m.updateNetworkMode(msg)
		case modeManual:
			return m.updateManualMode(msg)
		}

		switch msg.String() {
		case "up", "k":
			m.moveCursor(-1)
		case "down", "j":
			m.moveCursor(1)
		case "r":
			m.message = ""
			cmd := m.Scan()
			return m, cmd
		case "t":
			cmd := m.testPrint()
			return m, cmd
		case "enter":
			return m.choose()
		}
	}

	return m, nil
}

func (m *PrintersModel) moveCursor(delta int) {
	next := m.cursor + delta
	if next < 0 || next >= len(m.dests) {
		return
	}
	m.cursor = next
	m.adjustScroll()
}

func (m PrintersModel) choose() (PrintersModel, tea.Cmd) {
	if len(m.dests) == 0 {
		return m, nil
	}

	switch d := m.dests[m.cursor]; d.Path {
	case discovery.NetworkEntry.Path:
		m.mode = modeNetwork
		m.inputFocus = 0
		m.message = ""
		m.portInput.Blur()
		cmd := m.hostInput.Focus()
		return m, cmd
	case discovery.ManualEntry.Path:
		m.mode = modeManual
		m.message = ""
		cmd := m.manualInput.Focus()
		return m, cmd
	default:
		m.save(d.Path)
		return m, nil
	}
}

func (m *PrintersModel) save(path string) bool {
	if _, err := command.CheckPort(path); err != nil {
		m.setMessage(err.Error(), "error")
		return false
	}
	if err := m.ports.SetPrinterPort(path); err != nil {
		m.setMessage(fmt.Sprintf("Gagal simpan port printer: %v", err), "error")
		return false
	}
	m.current = path
	m.setMessage("Port printer disimpan: "+path, "success")
	return true
}

func (m *PrintersModel) setMessage(text, kind string) {
	m.message = text
	m.messageType = kind
}

func (m *PrintersModel) testPrint() tea.Cmd {
	m.setMessage("Mengirim test print...", "info")
	service := m.service
	return func() tea.Msg {
		_, err := service.PrintTest(context.Background())
		return testPrintMsg{err: err}
	}
}

func (m *PrintersModel) resetInputs() {
	m.mode = modeList
	m.hostInput.Reset()
	m.portInput.Reset()
	m.manualInput.Reset()
	m.hostInput.Blur()
	m.portInput.Blur()
	m.manualInput.Blur()
}

func (m PrintersModel) updateNetworkMode(msg tea.KeyMsg) (PrintersModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.String() {
	case "esc":
		m.resetInputs()
		m.message = ""
		return m, nil

	case "tab", "down", "shift+tab", "up":
		if m.inputFocus == 0 {
			m.inputFocus = 1
			m.hostInput.Blur()
			cmd = m.portInput.Focus()
			return m, cmd
		}
		m.inputFocus = 0
		m.portInput.Blur()
		cmd = m.hostInput.Focus()
		return m, cmd

	case "enter":
		addr, err := networkAddress(m.hostInput.Value(), m.portInput.Value())
		if err != nil {
			m.setMessage(err.Error(), "error")
			return m, nil
		}
		if m.save(printer.PrefixNetwork + addr) {
			m.resetInputs()
		}
		return m, nil
	}

	if m.inputFocus == 0 {
		m.hostInput, cmd = m.hostInput.Update(msg)
	} else {
		m.portInput, cmd = m.portInput.Update(msg)
	}
	return m, cmd
}

func (m PrintersModel) updateManualMode(msg tea.KeyMsg) (PrintersModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.String() {
	case "esc":
		m.resetInputs()
		m.message = ""
		return m, nil

	case "enter":
		path := strings.TrimSpace(m.manualInput.Value())
		if path == "" {
			m.setMessage("Nama printer / path device wajib diisi", "error")
			return m, nil
		}
		if m.save(path) {
			m.resetInputs()
		}
		return m, nil
	}

	m.manualInput, cmd = m.manualInput.Update(msg)
	return m, cmd
}

// networkAddress joins host and port. A host typed as IP:PORT keeps its
// own port and then the port field must be empty.
func networkAddress(host, port string) (string, error) {
	host = strings.TrimSpace(host)
	port = strings.TrimSpace(port)
	if host == "" {
		return "", fmt.Errorf("Host wajib diisi")
	}
	if h, p, err := net.SplitHostPort(host); err == nil {
		if port != "" {
			return "", fmt.Errorf("Host %s sudah berisi port; kosongkan kolom Port", host)
		}
		host, port = h, p
	}
	if port == "" {
		port = defaultRawPort
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return "", fmt.Errorf("Port tidak valid: %s", port)
	}
	return net.JoinHostPort(host, port), nil
}

// View renders the picker
func (m PrintersModel) View() string {
	var b strings.Builder

	b.WriteString(CardTitleStyle.Render("Printer Destinations"))
	b.WriteString("\n")
	current := m.current
	if current == "" {
		current = "belum dikonfigurasi"
	}
	b.WriteString(TextMuted.Render("Aktif: ") + TextBright.Render(current))
	b.WriteString("\n\n")

	switch m.mode {
	case modeNetwork:
		return m.viewNetworkMode(&b)
	case modeManual:
		return m.viewManualMode(&b)
	}

	availableLines := m.height - 5
	if m.message != "" {
		availableLines -= 2
	}

	switch {
	case m.scanning && len(m.dests) == 0:
		b.WriteString(TextMuted.Render("Scanning ports...\n"))
	case len(m.dests) == 0:
		b.WriteString(TextMuted.Render("No destinations found.\n"))
		b.WriteString(TextMuted.Render("Press ") + HelpKeyStyle.Render("r") + TextMuted.Render(" to scan again\n"))
	default:
		maxItems := availableLines
		if maxItems < 0 {
			maxItems = 0
		}
		startIdx := m.scrollOffset
		endIdx := startIdx + maxItems
		if endIdx > len(m.dests) {
			endIdx = len(m.dests)
		}

		for i := startIdx; i < endIdx; i++ {
			d := m.dests[i]
			cursor := "  "
			style := ListItemStyle
			if i == m.cursor {
				cursor = "▸ "
				style = SelectedItemStyle
			}

			badge := lipgloss.NewStyle().
				Foreground(Secondary).
				Render(fmt.Sprintf("[%s]", strings.ToUpper(destinationKind(d.Path))))

			line := fmt.Sprintf("%s%s %s %s", cursor, destinationIcon(d, m.current), Truncate(d.Description, m.width-16), badge)
			b.WriteString(style.Render(line))
			b.WriteString("\n")
		}

		if len(m.dests) > maxItems {
			if m.scrollOffset > 0 {
				b.WriteString(TextMuted.Render("  ... (↑ to scroll) ...\n"))
			}
			if endIdx < len(m.dests) {
				b.WriteString(TextMuted.Render("  ... (↓ to scroll) ...\n"))
			}
		}
	}

	if m.message != "" {
		b.WriteString("\n")
		b.WriteString(renderMessage(m.message, m.messageType))
	}

	return b.String()
}

func (m PrintersModel) viewNetworkMode(b *strings.Builder) string {
	b.WriteString(InfoStyle.Render("Network Printer (TCP/IP)"))
	b.WriteString("\n\n")

	renderInput(b, "Host", m.hostInput, m.inputFocus == 0)
	b.WriteString("\n\n")
	renderInput(b, "Port", m.portInput, m.inputFocus == 1)
	b.WriteString("\n\n")

	b.WriteString(TextMuted.Render("Enter to save • Esc to cancel"))

	if m.message != "" && m.messageType == "error" {
		b.WriteString("\n\n")
		b.WriteString(renderMessage(m.message, m.messageType))
	}
	return b.String()
}

func (m PrintersModel) viewManualMode(b *strings.Builder) string {
	b.WriteString(InfoStyle.Render("Manual"))
	b.WriteString("\n\n")

	renderInput(b, "Nama printer / path device", m.manualInput, true)
	b.WriteString("\n\n")
	b.WriteString(TextMuted.Render("USB: /dev/usb/lp0 atau COM3 • Network: IP:PORT"))
	b.WriteString("\n")
	b.WriteString(TextMuted.Render("Enter to save • Esc to cancel"))

	if m.message != "" && m.messageType == "error" {
		b.WriteString("\n\n")
		b.WriteString(renderMessage(m.message, m.messageType))
	}
	return b.String()
}

func renderInput(b *strings.Builder, label string, input textinput.Model, focused bool) {
	if focused {
		b.WriteString(InputLabelFocusedStyle.Render(label))
		b.WriteString("\n")
		b.WriteString(InputFocusedStyle.Render(input.View()))
		return
	}
	b.WriteString(InputLabelStyle.Render(label))
	b.WriteString("\n")
	b.WriteString(InputStyle.Render(input.View()))
}

func destinationKind(path string) string {
	switch path {
	case discovery.NetworkEntry.Path, discovery.ManualEntry.Path:
		return path
	}
	target, err := printer.Route(path)
	if err != nil {
		return "?"
	}
	return string(target.Kind)
}

func destinationIcon(d printer.Destination, current string) string {
	switch {
	case d.Path == current:
		return StatusOnline.String()
	case strings.Contains(d.Description, "✗"):
		return StatusOffline.String()
	default:
		return StatusIdle.String()
	}
}

// Help returns help text for this tab
func (m PrintersModel) Help() string {
	switch m.mode {
	case modeNetwork:
		return RenderHelp("enter", "save") + "  " +
			RenderHelp("tab", "next") + "  " +
			RenderHelp("esc", "cancel")
	case modeManual:
		return RenderHelp("enter", "save") + "  " +
			RenderHelp("esc", "cancel")
	}
	return RenderHelp("↑/↓", "select") + "  " +
		RenderHelp("enter", "use") + "  " +
		RenderHelp("t", "test print") + "  " +
		RenderHelp("r", "rescan")
}

// adjustScroll keeps the cursor visible
func (m *PrintersModel) adjustScroll() {
	if len(m.dests) == 0 {
		m.scrollOffset = 0
		return
	}

	maxVisible := m.height - 5
	if maxVisible < 1 {
		maxVisible = 1
	}

	if m.cursor < m.scrollOffset {
		m.scrollOffset = m.cursor
	}
	if m.cursor >= m.scrollOffset+maxVisible {
		m.scrollOffset = m.cursor - maxVisible + 1
	}

	maxOffset := len(m.dests) - maxVisible
	if maxOffset < 0 {
		maxOffset = 0
	}
	if m.scrollOffset > maxOffset {
		m.scrollOffset = maxOffset
	}
}
