package cli

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent = lipgloss.Color("62")  // Purple
	colorMuted  = lipgloss.Color("241") // Gray
	colorNew    = lipgloss.Color("78")  // Green
	colorUpdate = lipgloss.Color("45")  // Cyan
	colorSkip   = lipgloss.Color("214") // Yellow
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	panelStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 1)
)

var statusColors = map[string]lipgloss.Color{
	"NEW":  colorNew,
	"UPD":  colorUpdate,
	"SKIP": colorSkip,
}
