package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/robocleaner/armd/internal/client"
	"github.com/robocleaner/armd/internal/servo"
)

// Teleop step sizes in degrees per keypress.
const (
	teleopStep     = 2
	teleopStepFast = 10
	teleopCenter   = 90
)

var (
	teleopTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#7D56F4")).
				Padding(1, 0)

	teleopJointStyle = lipgloss.NewStyle().
				PaddingLeft(4)

	teleopSelectedStyle = lipgloss.NewStyle().
				PaddingLeft(2).
				Foreground(lipgloss.Color("#43BF6D")).
				Bold(true)

	teleopGaugeStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#626262"))

	teleopStatusStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#626262")).
				Padding(1, 0)

	teleopErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FF0000")).
				Bold(true)
)

type teleopKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Decrease key.Binding
	Increase key.Binding
	DecFast  key.Binding
	IncFast  key.Binding
	Center   key.Binding
	Home     key.Binding
	Quit     key.Binding
}

// ShortHelp implements help.KeyMap for the single-line help bar.
func (k teleopKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Decrease, k.Increase, k.Center, k.Home, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k teleopKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Decrease, k.Increase, k.DecFast, k.IncFast},
		{k.Center, k.Home, k.Quit},
	}
}

func newTeleopKeyMap() teleopKeyMap {
	return teleopKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "prev joint"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next joint"),
		),
		Decrease: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", fmt.Sprintf("-%d°", teleopStep)),
		),
		Increase: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", fmt.Sprintf("+%d°", teleopStep)),
		),
		DecFast: key.NewBinding(
			key.WithKeys("shift+left", "H"),
			key.WithHelp("shift+←", fmt.Sprintf("-%d°", teleopStepFast)),
		),
		IncFast: key.NewBinding(
			key.WithKeys("shift+right", "L"),
			key.WithHelp("shift+→", fmt.Sprintf("+%d°", teleopStepFast)),
		),
		Center: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "center joint"),
		),
		Home: key.NewBinding(
			key.WithKeys("0"),
			key.WithHelp("0", "center all"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// teleopModel is the bubbletea model for keyboard teleoperation. Angles
// live client-side; the daemon never reports positions back, so the UI
// shows the last value it commanded.
type teleopModel struct {
	client *client.Client
	addr   string

	angles [servo.NumChannels]int
	cursor int

	sent    int
	lastErr error

	help help.Model
	keys teleopKeyMap
}

func newTeleopModel(c *client.Client, addr string) teleopModel {
	m := teleopModel{
		client: c,
		addr:   addr,
		cursor: 0,
		help:   help.New(),
		keys:   newTeleopKeyMap(),
	}
	for i := range m.angles {
		m.angles[i] = teleopCenter
	}
	return m
}

func (m teleopModel) Init() tea.Cmd {
	return nil
}

// send pushes the cursor joint's angle to the arm. A failed write is
// shown in the status line but does not end the session; the next
// keypress retries on the same connection.
func (m *teleopModel) send(ch servo.Channel) {
	err := m.client.SendAngles(map[servo.Channel]int{ch: m.angles[ch]})
	if err != nil {
		m.lastErr = err
		return
	}
	m.lastErr = nil
	m.sent++
}

// sendAll pushes every joint in one command line.
func (m *teleopModel) sendAll() {
	angles := make(map[servo.Channel]int, servo.NumChannels)
	for _, ch := range servo.Channels() {
		angles[ch] = m.angles[ch]
	}
	if err := m.client.SendAngles(angles); err != nil {
		m.lastErr = err
		return
	}
	m.lastErr = nil
	m.sent++
}

func (m teleopModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Up):
			m.cursor--
			if m.cursor < 0 {
				m.cursor = servo.NumChannels - 1
			}

		case key.Matches(msg, m.keys.Down):
			m.cursor = (m.cursor + 1) % servo.NumChannels

		case key.Matches(msg, m.keys.DecFast):
			m.adjust(-teleopStepFast)

		case key.Matches(msg, m.keys.IncFast):
			m.adjust(teleopStepFast)

		case key.Matches(msg, m.keys.Decrease):
			m.adjust(-teleopStep)

		case key.Matches(msg, m.keys.Increase):
			m.adjust(teleopStep)

		case key.Matches(msg, m.keys.Center):
			m.angles[m.cursor] = teleopCenter
			m.send(servo.Channel(m.cursor))

		case key.Matches(msg, m.keys.Home):
			for i := range m.angles {
				m.angles[i] = teleopCenter
			}
			m.sendAll()
		}
	}
	return m, nil
}

func (m *teleopModel) adjust(delta int) {
	ch := servo.Channel(m.cursor)
	m.angles[ch] = servo.ClampAngle(m.angles[ch] + delta)
	m.send(ch)
}

// gauge renders a simple bar for an angle in [0,180].
func gauge(angle int, width int) string {
	filled := angle * width / servo.MaxAngle
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}

func (m teleopModel) View() string {
	var b strings.Builder

	b.WriteString(teleopTitleStyle.Render("ARM TELEOPERATION"))
	b.WriteString("\n\n")

	for _, ch := range servo.Channels() {
		line := fmt.Sprintf("%-8s %s %4d°",
			ch.String(),
			teleopGaugeStyle.Render(gauge(m.angles[ch], 24)),
			m.angles[ch])
		if int(ch) == m.cursor {
			b.WriteString(teleopSelectedStyle.Render("> " + line))
		} else {
			b.WriteString(teleopJointStyle.Render(line))
		}
		b.WriteString("\n")
	}

	status := fmt.Sprintf("connected to %s · %d commands sent", m.addr, m.sent)
	if m.lastErr != nil {
		status = teleopErrorStyle.Render(fmt.Sprintf("send failed: %v", m.lastErr))
	}
	b.WriteString(teleopStatusStyle.Render(status))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return b.String()
}

// teleopCmd drives the arm interactively
var teleopCmd = &cobra.Command{
	Use:   "teleop",
	Short: "Drive the arm with the keyboard",
	Long: `Launch an interactive teleoperation UI.

Select a joint with the arrow keys and nudge it left or right. Every
keypress sends one command line to the daemon, so held keys move the
joint at the terminal's key-repeat rate. The daemon drops idle clients
after its inactivity timeout; reconnection is not attempted, so quit
and relaunch if the session goes stale.`,
	Example: `  # Teleoperate a discovered arm
  armctl teleop

  # Teleoperate a specific arm
  armctl teleop --arm 192.168.1.50:8000`,
	RunE: runTeleop,
}

func runTeleop(cmd *cobra.Command, args []string) error {
	addr, err := resolveArm()
	if err != nil {
		return err
	}

	c, err := client.Dial(addr)
	if err != nil {
		return err
	}
	defer c.Close()

	p := tea.NewProgram(newTeleopModel(c, addr), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("teleop UI failed: %w", err)
	}
	return nil
}
