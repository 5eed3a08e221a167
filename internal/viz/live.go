// Package viz renders a live terminal view of the tracking loop.
package viz

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/pr-riad/MPPT-P-O/internal/mppt"
	"github.com/pr-riad/MPPT-P-O/internal/pv"
	"github.com/pr-riad/MPPT-P-O/internal/sim"
)

const historyCapacity = 240

var (
	chartStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 2)
	statsStyle       = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(42)
	headerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	activeParamStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Model steps the tracking loop once per frame and charts the trajectory.
type Model struct {
	src  pv.Source
	ctrl *mppt.Controller
	conv sim.Converter

	newConverter func() sim.Converter

	panelName string
	maxPower  float64

	operating float64
	t         float64
	running   bool

	powerHist []float64
	voltHist  []float64

	actions map[mppt.Action]int

	params        map[string]float64
	initialParams map[string]float64
	paramKeys     []string
	selected      int
}

// NewModel builds the live view. newConverter is invoked on reset so the
// actuator model starts cold along with the controller.
func NewModel(src pv.Source, cfg mppt.Config, newConverter func() sim.Converter, panelName string) (Model, error) {
	ctrl, err := mppt.New(cfg)
	if err != nil {
		return Model{}, err
	}

	params := make(map[string]float64)
	if t, ok := src.(pv.Tunable); ok {
		for k, v := range t.GetParams() {
			params[k] = v
		}
	}
	keys := make([]string, 0, len(params))
	initialParams := make(map[string]float64)
	for k, v := range params {
		keys = append(keys, k)
		initialParams[k] = v
	}
	sort.Strings(keys)

	_, pmax := pv.MaxPower(src, cfg.MinVoltage, cfg.MaxVoltage)

	return Model{
		src:           src,
		ctrl:          ctrl,
		conv:          newConverter(),
		newConverter:  newConverter,
		panelName:     panelName,
		maxPower:      pmax,
		operating:     ctrl.Reference(),
		running:       true,
		powerHist:     make([]float64, 0, historyCapacity),
		voltHist:      make([]float64, 0, historyCapacity),
		actions:       make(map[mppt.Action]int),
		params:        params,
		initialParams: initialParams,
		paramKeys:     keys,
	}, nil
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Update handles input events and steps the loop.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "tab":
			m.cycleParam()
		case "up", "k":
			m.adjustParam(1.05)
		case "down", "j":
			m.adjustParam(0.95)
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

func (m *Model) cycleParam() {
	if len(m.paramKeys) == 0 {
		return
	}
	m.selected = (m.selected + 1) % len(m.paramKeys)
}

func (m *Model) adjustParam(factor float64) {
	if len(m.paramKeys) == 0 {
		return
	}
	key := m.paramKeys[m.selected]
	newVal := m.params[key] * factor
	m.params[key] = newVal
	if t, ok := m.src.(pv.Tunable); ok {
		t.SetParam(key, newVal)
		_, m.maxPower = pv.MaxPower(m.src, m.ctrl.Config().MinVoltage, m.ctrl.Config().MaxVoltage)
	}
}

// step advances the tracking loop by one sample period.
func (m *Model) step() {
	current := m.src.Current(m.operating)
	ref := m.ctrl.Update(m.operating, current)

	m.actions[m.ctrl.LastAction()]++

	m.powerHist = append(m.powerHist, m.operating*current)
	if len(m.powerHist) > historyCapacity {
		m.powerHist = m.powerHist[1:]
	}
	m.voltHist = append(m.voltHist, m.operating)
	if len(m.voltHist) > historyCapacity {
		m.voltHist = m.voltHist[1:]
	}

	m.operating = m.conv.Track(ref)
	m.t += m.ctrl.Config().SampleTime
}

// reset restores the controller, converter and parameters to cold state.
func (m *Model) reset() {
	ctrl, err := mppt.New(m.ctrl.Config())
	if err != nil {
		return
	}
	m.ctrl = ctrl
	m.conv = m.newConverter()
	m.operating = ctrl.Reference()
	m.t = 0
	m.powerHist = m.powerHist[:0]
	m.voltHist = m.voltHist[:0]
	m.actions = make(map[mppt.Action]int)
	for k, v := range m.initialParams {
		m.params[k] = v
		if t, ok := m.src.(pv.Tunable); ok {
			t.SetParam(k, v)
		}
	}
	_, m.maxPower = pv.MaxPower(m.src, ctrl.Config().MinVoltage, ctrl.Config().MaxVoltage)
}

// View renders the charts and stats pane.
func (m Model) View() string {
	var charts strings.Builder
	if len(m.powerHist) > 1 {
		charts.WriteString(asciigraph.Plot(m.powerHist,
			asciigraph.Height(8), asciigraph.Width(70), asciigraph.Caption("power (W)")))
		charts.WriteString("\n\n")
	}
	if len(m.voltHist) > 1 {
		charts.WriteString(asciigraph.Plot(m.voltHist,
			asciigraph.Height(8), asciigraph.Width(70), asciigraph.Caption("operating voltage (V)")))
	}
	chartView := chartStyle.Render(charts.String())

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.panelName)+" / P&O") + "\n")
	status := "RUNNING"
	if !m.running {
		status = "PAUSED"
	}
	s.WriteString(status + "\n\n")

	power := 0.0
	if len(m.powerHist) > 0 {
		power = m.powerHist[len(m.powerHist)-1]
	}
	efficiency := 0.0
	if m.maxPower > 0 {
		efficiency = power / m.maxPower * 100
	}

	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.1fs", m.t)) + "\n")
	s.WriteString(labelStyle.Render("V ref") + valueStyle.Render(fmt.Sprintf("%.2f V", m.ctrl.Reference())) + "\n")
	s.WriteString(labelStyle.Render("V op") + valueStyle.Render(fmt.Sprintf("%.2f V", m.operating)) + "\n")
	s.WriteString(labelStyle.Render("Power") + valueStyle.Render(fmt.Sprintf("%.2f W", power)) + "\n")
	s.WriteString(labelStyle.Render("MPP") + valueStyle.Render(fmt.Sprintf("%.2f W", m.maxPower)) + "\n")
	s.WriteString(labelStyle.Render("Efficiency") + valueStyle.Render(fmt.Sprintf("%.1f%%", efficiency)) + "\n")
	s.WriteString(labelStyle.Render("Action") + valueStyle.Render(string(m.ctrl.LastAction())) + "\n")
	s.WriteString(labelStyle.Render("Inc/Dec") + valueStyle.Render(fmt.Sprintf("%d/%d",
		m.actions[mppt.ActionIncrease], m.actions[mppt.ActionDecrease])) + "\n")

	s.WriteString("\nPANEL\n")
	if len(m.params) > 0 {
		for i, k := range m.paramKeys {
			line := fmt.Sprintf("%-10s %.3f", k, m.params[k])
			if i == m.selected {
				s.WriteString(activeParamStyle.Render("> "+line) + "\n")
			} else {
				s.WriteString("  " + labelStyle.Render(line) + "\n")
			}
		}
	} else {
		s.WriteString(labelStyle.Render("  (none)") + "\n")
	}

	s.WriteString(helpStyle.Render("\nSP:Pause R:Reset Q:Quit\nTab:Param ↑↓:Tune"))

	statsView := statsStyle.Render(s.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, chartView, statsView)
}
