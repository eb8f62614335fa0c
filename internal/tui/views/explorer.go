package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rendis/routeview/internal/engine/geo"
	"github.com/rendis/routeview/internal/engine/scene"
	"github.com/rendis/routeview/internal/model"
	"github.com/rendis/routeview/internal/tui/components"
	"github.com/rendis/routeview/internal/tui/styles"
)

type focusArea int

const (
	focusForm focusArea = iota
	focusMap
	focusTable
)

const (
	sideWidth = 46
	panStep   = 8.0 // dots
)

// AnimFrameMsg advances a running zoom animation by one frame.
type AnimFrameMsg time.Time

// ExplorerModel is the main screen: the map on the left, the route form,
// metrics and segment table on the right. It drives the scene.Map it is
// given but never touches the network.
type ExplorerModel struct {
	scene   *scene.Map
	mapView components.MapView
	form    RouteForm
	table   table.Model
	spinner spinner.Model
	focus   focusArea
	width   int
	height  int

	busy    bool
	status  string
	err     string
	result  *model.RouteResult
	metrics []string
}

func NewExplorerModel(m *scene.Map, defaultAlg string) ExplorerModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	e := ExplorerModel{
		scene:   m,
		mapView: components.NewMapView(0, 0),
		form:    NewRouteForm(defaultAlg),
		spinner: sp,
	}
	e.buildTable(nil)
	return e
}

func (e ExplorerModel) Init() tea.Cmd {
	return tea.Batch(e.form.Init(), e.spinner.Tick)
}

// MapViewport is the dot viewport the scene should be sized to.
func (e ExplorerModel) MapViewport() geo.Viewport {
	return e.mapView.Viewport()
}

// SetSize lays the screen out for a terminal of w x h cells.
func (e *ExplorerModel) SetSize(w, h int) {
	e.width, e.height = w, h
	mapW := w - sideWidth - 3
	mapH := h - 5
	if mapW < 10 {
		mapW = 10
	}
	if mapH < 5 {
		mapH = 5
	}
	e.mapView.SetSize(mapW, mapH)
	e.buildTable(e.segments())
}

// SetCities hands the catalog to the form.
func (e *ExplorerModel) SetCities(cities []model.City) {
	e.form.SetCities(cities)
}

// SetBusy shows or hides the spinner with a status line.
func (e *ExplorerModel) SetBusy(busy bool, status string) {
	e.busy = busy
	e.status = status
}

// SetResult shows a successful route.
func (e *ExplorerModel) SetResult(res *model.RouteResult) {
	e.busy = false
	e.err = ""
	e.status = ""
	e.result = res
	e.metrics = metricLines(res)
	e.buildTable(res.Segments)
}

// SetError shows a failed request. The metrics fall back to a placeholder
// while the map keeps what it showed.
func (e *ExplorerModel) SetError(msg string) {
	e.busy = false
	e.status = ""
	e.err = msg
	e.result = nil
	e.metrics = nil
	e.buildTable(nil)
}

// Typing reports whether keys go to the route form.
func (e ExplorerModel) Typing() bool {
	return e.focus == focusForm
}

// SetFormError shows msg under the form.
func (e *ExplorerModel) SetFormError(msg string) {
	e.form.SetError(msg)
}

func (e ExplorerModel) segments() []model.RouteSegment {
	if e.result == nil {
		return nil
	}
	return e.result.Segments
}

func metricLines(res *model.RouteResult) []string {
	var lines []string
	add := func(label, value string) {
		lines = append(lines, fmt.Sprintf("%-11s %s", label, value))
	}
	lines = append(lines, res.Title())
	alg := res.AlgorithmLabel
	if alg == "" {
		alg = res.Algorithm
	}
	if alg != "" {
		add("Algorithm:", alg)
	}
	add("Distance:", fmt.Sprintf("%.1f mi", res.TotalDistance))
	add("Gas used:", fmt.Sprintf("%.2f gal", res.GasUsed))
	add("Risk:", fmt.Sprintf("%.2f", res.TotalRisk))
	if res.Score != 0 {
		add("Score:", fmt.Sprintf("%.2f", res.Score))
	}
	if res.BestTravelDate != "" {
		add("Best date:", res.BestTravelDate)
	}
	add("Legs:", fmt.Sprintf("%d", len(res.Segments)))
	return lines
}

// AnimateCmd schedules the next zoom frame while the map is animating.
func (e ExplorerModel) AnimateCmd() tea.Cmd {
	if e.scene == nil || !e.scene.Animating() {
		return nil
	}
	frame := time.Duration(scene.FrameInterval() * float64(time.Second))
	return tea.Tick(frame, func(t time.Time) tea.Msg { return AnimFrameMsg(t) })
}

func (e ExplorerModel) Update(msg tea.Msg) (ExplorerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case AnimFrameMsg:
		if e.scene != nil && e.scene.Tick() {
			return e, e.AnimateCmd()
		}
		return e, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		e.spinner, cmd = e.spinner.Update(msg)
		return e, cmd

	case tea.KeyMsg:
		key := msg.String()
		switch e.focus {
		case focusForm:
			if key == "esc" {
				e.focus = focusMap
				return e, nil
			}
			var cmd tea.Cmd
			e.form, cmd = e.form.Update(msg)
			return e, cmd

		case focusMap:
			return e.updateMap(key)

		case focusTable:
			switch key {
			case "esc":
				e.focus = focusMap
				e.table.Blur()
				e.highlightSegment(-1)
				return e, nil
			}
			var cmd tea.Cmd
			e.table, cmd = e.table.Update(msg)
			e.highlightSegment(e.table.Cursor())
			return e, cmd
		}
	}
	return e, nil
}

func (e ExplorerModel) updateMap(key string) (ExplorerModel, tea.Cmd) {
	m := e.scene
	switch key {
	case "/", "i", "enter":
		e.focus = focusForm
		return e, e.form.Init()
	case "t":
		if len(e.segments()) > 0 {
			e.focus = focusTable
			e.table.Focus()
			e.highlightSegment(e.table.Cursor())
		}
		return e, nil
	}
	if m == nil {
		return e, nil
	}
	switch key {
	case "+", "=", "-", "_", "0":
		// A running animation already has a frame loop; it picks up the new
		// target.
		running := m.Animating()
		switch key {
		case "+", "=":
			m.ZoomIn()
		case "-", "_":
			m.ZoomOut()
		default:
			m.ResetView()
		}
		if running {
			return e, nil
		}
		return e, e.AnimateCmd()
	case "f":
		if len(m.CurrentRoute()) > 0 {
			m.FitToRoute()
		} else {
			m.FitDefault()
		}
	case "left", "h":
		m.Pan(panStep, 0)
	case "right", "l":
		m.Pan(-panStep, 0)
	case "up", "k":
		m.Pan(0, panStep)
	case "down", "j":
		m.Pan(0, -panStep)
	}
	return e, nil
}

// highlightSegment marks the route line of segment i, or none when i < 0.
func (e ExplorerModel) highlightSegment(i int) {
	if e.scene == nil {
		return
	}
	l := e.scene.Layer(scene.LayerRoute)
	l.ClearHighlights()
	if i >= 0 {
		l.SetHighlight(fmt.Sprintf("segment:%d", i), true)
	}
}

func (e *ExplorerModel) buildTable(segments []model.RouteSegment) {
	nameW := (sideWidth - 16) / 2
	columns := []table.Column{
		{Title: "#", Width: 3},
		{Title: "From", Width: nameW},
		{Title: "To", Width: nameW},
		{Title: "Miles", Width: 8},
	}

	rows := make([]table.Row, len(segments))
	for i, s := range segments {
		src, dst := s.SrcName, s.DstName
		if src == "" {
			src = s.SrcID
		}
		if dst == "" {
			dst = s.DstID
		}
		rows[i] = table.Row{
			fmt.Sprintf("%d", i+1),
			truncate(src, nameW),
			truncate(dst, nameW),
			fmt.Sprintf("%.1f", s.RealDist),
		}
	}

	h := e.height - 22
	if h < 3 {
		h = 3
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(e.focus == focusTable),
		table.WithHeight(h),
	)
	t.SetStyles(tableStyles())
	e.table = t
}

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Muted).
		BorderBottom(true).
		Bold(true).
		Foreground(styles.Secondary)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(styles.Primary).
		Bold(true)
	return s
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

func (e ExplorerModel) View() string {
	var b strings.Builder

	title := styles.Title.Render("routeview")
	header := title
	switch {
	case e.busy:
		header += "  " + e.spinner.View() + " " + lipgloss.NewStyle().Foreground(styles.Muted).Render(e.status)
	case e.err != "":
		header += "  " + styles.ErrorText.Render(e.err)
	case e.status != "":
		header += "  " + lipgloss.NewStyle().Foreground(styles.Muted).Render(e.status)
	}
	b.WriteString(header)
	b.WriteString("\n")

	mapBox := e.panel(e.mapView.View(e.scene), e.focus == focusMap, "")
	side := lipgloss.JoinVertical(lipgloss.Left,
		e.panel(e.form.View(), e.focus == focusForm, "Route"),
		e.panel(e.viewMetrics(), false, "Metrics"),
		e.panel(e.table.View(), e.focus == focusTable, "Segments"),
	)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, mapBox, " ", side))
	b.WriteString("\n")

	var statusText string
	switch e.focus {
	case focusForm:
		statusText = "enter route • tab next • ←→ algorithm • esc map"
	case focusMap:
		statusText = "+/- zoom • arrows pan • f fit • 0 reset • t segments • / route • q quit"
	case focusTable:
		statusText = "↑↓ select segment • esc map"
	}
	b.WriteString(styles.StatusBar.Render(statusText))
	return b.String()
}

func (e ExplorerModel) panel(content string, focused bool, label string) string {
	st := styles.Border
	if focused {
		st = styles.FocusedBorder
	}
	box := st.Render(content)
	if label == "" {
		return box
	}
	color := styles.Muted
	if focused {
		color = styles.Primary
	}
	return lipgloss.NewStyle().Bold(true).Foreground(color).Render(label) + "\n" + box
}

func (e ExplorerModel) viewMetrics() string {
	w := sideWidth - 4
	if len(e.metrics) == 0 {
		return lipgloss.NewStyle().Foreground(styles.Muted).Italic(true).Width(w).
			Render("No route")
	}
	var sb strings.Builder
	for i, line := range e.metrics {
		if i == 0 {
			sb.WriteString(lipgloss.NewStyle().Bold(true).Foreground(styles.Text).Render(truncate(line, w)))
		} else {
			sb.WriteString(styles.Value.Render(truncate(line, w)))
		}
		if i < len(e.metrics)-1 {
			sb.WriteString("\n")
		}
	}
	return lipgloss.NewStyle().Width(w).Render(sb.String())
}
