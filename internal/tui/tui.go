// Package tui renders live snapshots in the terminal.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Guliveer/vitalis/dashboard/internal/models"
)

// SnapshotMsg delivers a new snapshot to the program.
type SnapshotMsg struct{ Snapshot *models.Snapshot }

// Model renders the most recent snapshot.
type Model struct {
	latest *models.Snapshot
	width  int
	height int
}

// New returns an empty model; it shows a placeholder until the first
// SnapshotMsg arrives.
func New() *Model {
	return &Model{width: 120, height: 40}
}

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case SnapshotMsg:
		if msg.Snapshot != nil {
			m.latest = msg.Snapshot
		}
	}
	return m, nil
}

// Styles
var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("45"))
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true)
	gaugeFill   = "█"
	gaugeEmpty  = "░"
	cardStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("60")).
			Padding(0, 1).
			MarginRight(1)
)

func (m *Model) View() string {
	header := titleStyle.Render("Vitalis Dashboard")
	s := m.latest
	if s == nil {
		return header + "\n" + subtleStyle.Render("waiting for first sample…  (q to quit)")
	}

	sys := s.System
	header += "  " + subtleStyle.Render(fmt.Sprintf("%s · %s %s (%s) · up %s",
		sys.Hostname, sys.OS, sys.OSVersion, sys.Machine, formatUptime(sys.Uptime)))

	cpuLines := make([]string, 0, len(s.CPU)+1)
	if temp, ok := s.CPUTemp.Get(); ok {
		cpuLines = append(cpuLines, fmt.Sprintf("temp %.1f°C", temp))
	}
	for i, pct := range s.CPU {
		cpuLines = append(cpuLines, fmt.Sprintf("%2d %s", i+1, gaugeBar(pct, 20)))
	}
	cpuCard := card("CPU", strings.Join(cpuLines, "\n"))

	memCard := card("Memory / Disk",
		fmt.Sprintf("RAM  %s\nDisk %s", gaugeBar(s.RAM, 20), gaugeBar(s.Disk, 20)))

	netCard := card("Network",
		fmt.Sprintf("↑ %s/s  ↓ %s/s\nsent %s  recv %s",
			formatBytes(s.Network.UploadSpeed), formatBytes(s.Network.DownloadSpeed),
			formatBytes(float64(s.Network.Sent)), formatBytes(float64(s.Network.Recv))))

	right := []string{memCard, netCard, card("Battery", batteryLine(s.Battery))}
	if len(s.GPU) > 0 {
		lines := make([]string, 0, len(s.GPU))
		for _, g := range s.GPU {
			lines = append(lines, gpuLine(g))
		}
		right = append(right, card("GPU", strings.Join(lines, "\n")))
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, cpuCard,
		lipgloss.JoinVertical(lipgloss.Left, right...))
	return lipgloss.JoinVertical(lipgloss.Left, header, body,
		subtleStyle.Render("q to quit"))
}

// Run starts the program and feeds it through subscribe, which should
// register its callback with the snapshot source. It returns when the user
// quits or ctx is cancelled.
func Run(ctx context.Context, subscribe func(func(*models.Snapshot))) error {
	prog := tea.NewProgram(New(), tea.WithAltScreen(), tea.WithContext(ctx))
	subscribe(func(s *models.Snapshot) { prog.Send(SnapshotMsg{Snapshot: s}) })
	_, err := prog.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Helpers
func gaugeBar(pct float64, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int((pct / 100) * float64(width))
	if filled > width {
		filled = width
	}
	return fmt.Sprintf("[%s%s] %5.1f%%",
		strings.Repeat(gaugeFill, filled),
		strings.Repeat(gaugeEmpty, width-filled),
		pct)
}

func card(title, body string) string {
	return cardStyle.Render(labelStyle.Render(title) + "\n" + body)
}

func gpuLine(g models.GPU) string {
	return fmt.Sprintf("%s load %s temp %s mem %s/%s MiB",
		truncate(g.Name, 16), optional(g.Load, "%.0f%%"), optional(g.Temp, "%.0f°C"),
		optional(g.VRAMUsed, "%.0f"), optional(g.VRAMTotal, "%.0f"))
}

func batteryLine(r models.Reading[models.Battery]) string {
	b, ok := r.Get()
	if !ok {
		return "no battery"
	}
	state := "on battery"
	if b.Charging {
		state = "plugged in"
	}
	line := gaugeBar(b.Percent, 10) + " " + state
	if !b.Charging && b.SecsLeft > 0 {
		line += fmt.Sprintf("\n%dh %02dm left", b.SecsLeft/3600, (b.SecsLeft%3600)/60)
	}
	return line
}

func optional(r models.Reading[float64], format string) string {
	v, ok := r.Get()
	if !ok {
		return "-"
	}
	return fmt.Sprintf(format, v)
}

func formatBytes(n float64) string {
	units := []string{"B", "KiB", "MiB", "GiB", "TiB"}
	i := 0
	for n >= 1024 && i < len(units)-1 {
		n /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%.0f %s", n, units[i])
	}
	return fmt.Sprintf("%.1f %s", n, units[i])
}

func formatUptime(secs int64) string {
	d := secs / 86400
	h := (secs % 86400) / 3600
	m := (secs % 3600) / 60
	if d > 0 {
		return fmt.Sprintf("%dd %dh %dm", d, h, m)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
