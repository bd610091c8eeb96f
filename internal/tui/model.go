package tui

import (
	"context"
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"squish/internal/converter"
	"squish/pkg/imgutil"
)

const qualityStep = 5

// Model drives an interactive conversion session: a quality slider on
// top of a single engine, re-encoding as the slider moves. Encodes are
// single-flight; slider moves during an encode are coalesced into one
// follow-up encode.
type Model struct {
	engine   *converter.Engine
	source   *converter.Source
	outDir   string
	percent  int
	result   *converter.Result
	encoding bool
	dirty    bool
	savedTo  string
	errMsg   string
	width    int
	quitting bool
}

type encodedMsg struct {
	result *converter.Result
	err    error
}

type savedMsg struct {
	path string
	err  error
}

func NewModel(engine *converter.Engine, source *converter.Source, outDir string, percent int) Model {
	return Model{
		engine:   engine,
		source:   source,
		outDir:   outDir,
		percent:  percent,
		encoding: true,
	}
}

func (m Model) Init() tea.Cmd {
	return encodeAt(m.engine, m.percent)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "left", "h":
			if m.percent > 0 {
				m.percent -= qualityStep
				if m.percent < 0 {
					m.percent = 0
				}
				return m.fireEncode()
			}
		case "right", "l":
			if m.percent < 100 {
				m.percent += qualityStep
				if m.percent > 100 {
					m.percent = 100
				}
				return m.fireEncode()
			}
		case "s":
			if m.result != nil && !m.encoding {
				return m, save(m.engine, m.outDir)
			}
		}
		return m, nil
	case encodedMsg:
		m.encoding = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
		} else {
			m.result = msg.result
			m.errMsg = ""
			m.savedTo = ""
		}
		if m.dirty {
			return m.fireEncode()
		}
		return m, nil
	case savedMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
		} else {
			m.savedTo = msg.path
			m.errMsg = ""
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) fireEncode() (tea.Model, tea.Cmd) {
	if m.encoding {
		m.dirty = true
		return m, nil
	}
	m.encoding = true
	m.dirty = false
	return m, encodeAt(m.engine, m.percent)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	barWidth := 40
	if m.width > 0 {
		barWidth = int(math.Min(50, float64(m.width-14)))
		if barWidth < 20 {
			barWidth = 20
		}
	}

	slider := renderBar(barWidth, float64(m.percent)/100)

	lines := []string{
		titleStyle.Render("squish 🗜"),
		fileStyle.Render(m.source.Name) + dimStyle.Render(fmt.Sprintf("  %dx%d  %s",
			m.source.Width, m.source.Height, imgutil.FormatSize(m.source.Size))),
		labelStyle.Render("Quality ") + barStyle.Render(slider) + labelStyle.Render(fmt.Sprintf(" %d%%", m.percent)),
		m.resultLine(),
		m.statusLine(),
		dimStyle.Render("←/→ adjust quality · s save · q quit"),
	}

	return strings.Join(lines, "\n")
}

func (m Model) resultLine() string {
	if m.result == nil {
		return dimStyle.Render("WebP: …")
	}
	reduction := m.result.Reduction
	style := successStyle
	if strings.HasPrefix(reduction, "+") {
		style = warnStyle
	}
	return labelStyle.Render(fmt.Sprintf("WebP: %s  ", imgutil.FormatSize(m.result.Size))) +
		style.Render(reduction)
}

func (m Model) statusLine() string {
	switch {
	case m.errMsg != "":
		return errorStyle.Render(m.errMsg)
	case m.encoding:
		return dimStyle.Render("encoding…")
	case m.savedTo != "":
		return successStyle.Render("saved to " + m.savedTo)
	default:
		return ""
	}
}

func encodeAt(engine *converter.Engine, percent int) tea.Cmd {
	return func() tea.Msg {
		result, err := engine.SetQuality(context.Background(), percent)
		return encodedMsg{result: result, err: err}
	}
}

func save(engine *converter.Engine, outDir string) tea.Cmd {
	return func() tea.Msg {
		path, err := engine.Download(outDir, "")
		return savedMsg{path: path, err: err}
	}
}

func renderBar(width int, ratio float64) string {
	filled := int(math.Round(ratio * float64(width)))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	fileStyle    = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	labelStyle   = lipgloss.NewStyle().Foreground(ColorInk)
	barStyle     = lipgloss.NewStyle().Foreground(ColorAccentAlt)
	successStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	warnStyle    = lipgloss.NewStyle().Foreground(ColorWarn)
	errorStyle   = lipgloss.NewStyle().Foreground(ColorError)
	dimStyle     = lipgloss.NewStyle().Foreground(ColorDim)
)
