package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"parley/ledger"
	"parley/ptt"
)

// TUI message types
type RecordingStartMsg struct{ Direction ptt.Direction }
type RecordingStopMsg struct{}
type RecordingTickMsg struct{ Duration float64 }
type AudioLevelMsg struct{ Level float64 }
type TurnMsg struct{ Turn ledger.Turn }
type NoSpeechMsg struct{ Direction ptt.Direction }
type PipelineErrorMsg struct {
	Stage string
	Err   error
}
type AnalysisMsg struct {
	Text string
	Err  error
}
type ConversationResetMsg struct{ Turns int }
type ModeLineMsg struct{ Text string }
type DeviceLineMsg struct{ Text string }
type CopiedMsg struct{}
type tickMsg time.Time

// uiCmd is a keyboard request forwarded to the main loop, which owns the
// pipeline and the analysis client.
type uiCmd int

const (
	cmdCopyLast uiCmd = iota
	cmdReview
	cmdNewConversation
)

type tuiState int

const (
	tuiStateIdle tuiState = iota
	tuiStateRecording
)

// maxVisibleTurns bounds the conversation panel; older turns are still in
// the ledger and the database.
const maxVisibleTurns = 8

type tuiModel struct {
	cmds chan<- uiCmd

	state             tuiState
	direction         ptt.Direction
	frame             int
	recordingDuration float64
	audioLevel        float64
	peakLevel         float64
	width, height     int

	modeLine   string
	deviceLine string

	turns     []ledger.Turn
	turnCount int
	noSpeech  bool
	copied    bool
	lastError string

	analysis        string
	analysisPending bool
}

var (
	recStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	standbyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	modeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	deviceStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	speakerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
	originalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	transStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	degradedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("160"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	helpBold      = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
	reviewStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("250")).
			Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).PaddingLeft(1).PaddingRight(1)
)

func NewTUIProgram(cmds chan<- uiCmd) *tea.Program {
	m := tuiModel{cmds: cmds}
	return tea.NewProgram(m, tea.WithAltScreen())
}

func tuiTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) request(c uiCmd) {
	select {
	case m.cmds <- c:
	default:
	}
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "c":
			m.request(cmdCopyLast)
		case "r":
			if !m.analysisPending {
				m.analysisPending = true
				m.request(cmdReview)
			}
		case "n":
			m.request(cmdNewConversation)
		}

	case tickMsg:
		m.frame++
		return m, tuiTick()

	case RecordingStartMsg:
		m.state = tuiStateRecording
		m.direction = msg.Direction
		m.recordingDuration = 0
		m.audioLevel = 0
		m.peakLevel = 0
		m.noSpeech = false
		m.lastError = ""

	case RecordingStopMsg:
		m.state = tuiStateIdle
		m.audioLevel = 0

	case RecordingTickMsg:
		m.recordingDuration = msg.Duration

	case AudioLevelMsg:
		if m.state == tuiStateRecording {
			m.audioLevel = m.audioLevel*0.6 + msg.Level*0.4
			if msg.Level > m.peakLevel {
				m.peakLevel = msg.Level
			}
		}

	case TurnMsg:
		m.turnCount++
		m.copied = false
		m.turns = append(m.turns, msg.Turn)
		if len(m.turns) > maxVisibleTurns {
			m.turns = m.turns[len(m.turns)-maxVisibleTurns:]
		}

	case NoSpeechMsg:
		m.noSpeech = true

	case PipelineErrorMsg:
		m.lastError = fmt.Sprintf("%s: %v", msg.Stage, msg.Err)

	case AnalysisMsg:
		m.analysisPending = false
		if msg.Err != nil {
			m.analysis = ""
			m.lastError = "review: " + msg.Err.Error()
		} else {
			m.analysis = msg.Text
		}

	case ConversationResetMsg:
		m.turns = nil
		m.turnCount = 0
		m.analysis = ""
		m.noSpeech = false
		m.lastError = ""

	case ModeLineMsg:
		m.modeLine = msg.Text

	case DeviceLineMsg:
		m.deviceLine = msg.Text

	case CopiedMsg:
		m.copied = true
	}
	return m, nil
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var b strings.Builder

	// Status line with VU meter
	if m.state == tuiStateRecording {
		label := "you"
		if m.direction == ptt.Reverse {
			label = "them"
		}
		b.WriteString(recStyle.Render(fmt.Sprintf("● REC %s %.1fs", label, m.recordingDuration)))
		b.WriteString("  " + renderVU(m.audioLevel, m.frame))
		if m.recordingDuration > 1.0 && m.peakLevel < 0.02 {
			b.WriteString(degradedStyle.Render("  ⚠ no voice detected"))
		}
	} else {
		b.WriteString(standbyStyle.Render("○ STANDBY"))
	}
	b.WriteString("\n")

	if m.modeLine != "" {
		b.WriteString(modeStyle.Render(m.modeLine) + "\n")
	}
	if m.deviceLine != "" {
		b.WriteString(deviceStyle.Render(m.deviceLine) + "\n")
	}
	b.WriteString("\n")

	wrapWidth := m.width - 6
	if wrapWidth < 20 {
		wrapWidth = 20
	}

	if len(m.turns) == 0 {
		b.WriteString(standbyStyle.Render("No turns yet — hold a talk key to speak") + "\n")
	}
	for _, t := range m.turns {
		head := fmt.Sprintf("[%s] %s", t.At.Format("15:04:05"), t.Speaker)
		b.WriteString(speakerStyle.Render(head) + "\n")
		for _, line := range wrapText(t.Original, wrapWidth) {
			b.WriteString("  " + originalStyle.Render(line) + "\n")
		}
		style := transStyle
		if t.Provider == "none" {
			style = degradedStyle
		}
		lines := wrapText(t.Translation, wrapWidth-3)
		for i, line := range lines {
			prefix := "     "
			if i == 0 {
				prefix = "  -> "
			}
			b.WriteString(prefix + style.Render(line))
			if i == len(lines)-1 {
				b.WriteString(" " + deviceStyle.Render("["+t.Provider+"]"))
				if m.copied && t == m.turns[len(m.turns)-1] {
					b.WriteString(" " + transStyle.Render("[✓ copied]"))
				}
			}
			b.WriteString("\n")
		}
	}
	if m.noSpeech {
		b.WriteString(degradedStyle.Render("  (no speech detected, turn skipped)") + "\n")
	}
	if m.lastError != "" {
		b.WriteString(errStyle.Render("  ✗ "+m.lastError) + "\n")
	}
	b.WriteString("\n")

	if m.analysisPending {
		b.WriteString(standbyStyle.Render("reviewing conversation"+strings.Repeat(".", 1+m.frame/6%3)) + "\n\n")
	} else if m.analysis != "" {
		body := strings.Join(wrapText(m.analysis, wrapWidth-4), "\n")
		b.WriteString(reviewStyle.Width(min(m.width-2, wrapWidth)).Render(body) + "\n\n")
	}

	help := helpBold.Render("hold space") + helpStyle.Render(" you · ") +
		helpBold.Render("hold F2") + helpStyle.Render(" them · ") +
		helpBold.Render("c") + helpStyle.Render("opy · ") +
		helpBold.Render("r") + helpStyle.Render("eview · ") +
		helpBold.Render("n") + helpStyle.Render("ew · ") +
		helpBold.Render("q") + helpStyle.Render("uit")
	b.WriteString(help + "\n")
	b.WriteString(helpStyle.Render(fmt.Sprintf("parley %s · %d turns", version, m.turnCount)))

	return b.String()
}

// renderVU draws a 20-cell level bar. Levels above ~0.5 rms are already
// clipping territory, so the scale saturates early.
func renderVU(level float64, frame int) string {
	const cells = 20
	lit := int(level * 2.5 * cells)
	if lit > cells {
		lit = cells
	}
	var b strings.Builder
	for i := 0; i < cells; i++ {
		switch {
		case i < lit && i >= cells-4:
			b.WriteString(errStyle.Render("█"))
		case i < lit && i >= cells-8:
			b.WriteString(degradedStyle.Render("█"))
		case i < lit:
			b.WriteString(transStyle.Render("█"))
		default:
			b.WriteString(standbyStyle.Render("░"))
		}
	}
	return b.String()
}

func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	// Wrap on runes so a split never lands inside a multibyte sequence.
	runes := []rune(text)
	var lines []string
	for len(runes) > width {
		splitAt := width
		for i := width; i > 0; i-- {
			if runes[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, string(runes[:splitAt]))
		runes = runes[splitAt:]
		for len(runes) > 0 && runes[0] == ' ' {
			runes = runes[1:]
		}
	}
	if len(runes) > 0 {
		lines = append(lines, string(runes))
	}
	return lines
}
