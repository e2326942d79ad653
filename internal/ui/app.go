package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/prabalesh/crophud/internal/history"
	"github.com/prabalesh/crophud/internal/models"
	"github.com/prabalesh/crophud/internal/scheduler"
	"github.com/prabalesh/crophud/internal/session"
)

// Visibility is the part of the scheduler the overlay drives.
type Visibility interface {
	Toggle() scheduler.State
	State() scheduler.State
	Updates() <-chan models.Snapshot
}

type Options struct {
	Scheduler Visibility
	History   *history.History

	// Placeholder replaces unavailable values. Defaults to "--".
	Placeholder string

	// ToggleKey shows and hides the overlay. Defaults to "ctrl+g".
	ToggleKey string
}

type section struct {
	title   string
	metrics []models.Metric
}

var sections = []section{
	{"CPU", []models.Metric{models.CpuUsage, models.CpuTemp, models.CpuFreq, models.CpuFan}},
	{"GPU", []models.Metric{models.GpuUsage, models.GpuTemp, models.GpuFan, models.GpuMem, models.GpuPower}},
	{"System", []models.Metric{models.RamUsage, models.DiskUsage, models.Battery, models.Uptime, models.NetDown, models.NetUp, models.LoadAvg}},
}

const labelWidth = 11

type snapshotMsg models.Snapshot

type updatesClosedMsg struct{}

type App struct {
	scheduler   Visibility
	history     *history.History
	placeholder string
	toggleKey   string

	state       scheduler.State
	latest      models.Snapshot
	hasSnapshot bool

	width  int
	height int

	cpuProgress progress.Model
	gpuProgress progress.Model
}

func New(opts Options) *App {
	if opts.Placeholder == "" {
		opts.Placeholder = "--"
	}
	if opts.ToggleKey == "" {
		opts.ToggleKey = "ctrl+g"
	}
	if opts.History == nil {
		opts.History = history.New(1)
	}
	cpuProg := progress.New(progress.WithDefaultGradient())
	gpuProg := progress.New(progress.WithDefaultGradient())

	return &App{
		scheduler:   opts.Scheduler,
		history:     opts.History,
		placeholder: opts.Placeholder,
		toggleKey:   opts.ToggleKey,
		state:       opts.Scheduler.State(),
		cpuProgress: cpuProg,
		gpuProgress: gpuProg,
	}
}

// FromSession builds the overlay for an open session.
func FromSession(s *session.Session) *App {
	return New(Options{
		Scheduler:   s.Scheduler,
		History:     s.History,
		Placeholder: s.Config.Placeholder,
		ToggleKey:   s.Config.ToggleKey,
	})
}

func (a *App) Init() tea.Cmd {
	return a.waitForSnapshot()
}

// waitForSnapshot blocks on the scheduler's updates. Exactly one wait is
// outstanding at a time; it is reissued after every snapshot.
func (a *App) waitForSnapshot() tea.Cmd {
	updates := a.scheduler.Updates()
	return func() tea.Msg {
		snapshot, ok := <-updates
		if !ok {
			return updatesClosedMsg{}
		}
		return snapshotMsg(snapshot)
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

		progressWidth := max(10, min(40, a.width-labelWidth-8))
		a.cpuProgress.Width = progressWidth
		a.gpuProgress.Width = progressWidth
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return a, tea.Quit
		case a.toggleKey:
			a.state = a.scheduler.Toggle()
			if a.state == scheduler.Hidden {
				a.latest = models.Snapshot{}
				a.hasSnapshot = false
			}
		}
		return a, nil

	case snapshotMsg:
		// A snapshot read just before a hide may still arrive.
		if a.scheduler.State() == scheduler.Visible {
			snapshot := models.Snapshot(msg)
			a.history.Record(snapshot)
			a.latest = snapshot
			a.hasSnapshot = true
		}
		return a, a.waitForSnapshot()

	case updatesClosedMsg:
		return a, tea.Quit
	}

	return a, nil
}

func (a *App) View() string {
	if a.state == scheduler.Hidden {
		return HintStyle.Render(fmt.Sprintf("crophud hidden • %s: show • q: quit", a.toggleKey))
	}
	if !a.hasSnapshot {
		return HintStyle.Render("Collecting...")
	}

	blocks := []string{TitleStyle.Render("crophud")}
	for _, sec := range sections {
		if body := a.renderSection(sec); body != "" {
			blocks = append(blocks, "", body)
		}
	}
	help := HelpStyle.Render(fmt.Sprintf("%s: hide • q: quit", a.toggleKey))
	blocks = append(blocks, "", help)

	content := lipgloss.JoinVertical(lipgloss.Left, blocks...)
	if a.width > 4 {
		return BaseStyle.Width(a.width - 4).Render(content)
	}
	return BaseStyle.Render(content)
}

func (a *App) renderSection(sec section) string {
	var rows []string
	for _, metric := range sec.metrics {
		if !a.latest.Registered(metric) {
			continue
		}
		rows = append(rows, a.renderRow(metric)...)
	}
	if len(rows) == 0 {
		return ""
	}
	return lipgloss.JoinVertical(lipgloss.Left, append([]string{HeaderStyle.Render(sec.title)}, rows...)...)
}

func (a *App) renderRow(metric models.Metric) []string {
	value := a.latest.Get(metric)
	label := LabelStyle.Render(fmt.Sprintf("%-*s", labelWidth, metric.Label()))

	var text string
	if value.Available() {
		text = ValueStyle.Render(value.Format(a.placeholder))
	} else {
		text = UnavailableStyle.Render(a.placeholder)
	}
	rows := []string{label + " " + text}

	indent := strings.Repeat(" ", labelWidth+1)
	if gauge := a.gauge(metric); gauge != nil && value.Available() {
		if percent, ok := value.Chartable(); ok {
			rows = append(rows, indent+gauge.ViewAs(clamp(percent/100)))
		}
	}
	if samples := a.history.Samples(metric); len(samples) > 1 {
		rows = append(rows, indent+RenderSparkline(samples, chartCeiling(metric)))
	}
	return rows
}

func (a *App) gauge(metric models.Metric) *progress.Model {
	switch metric {
	case models.CpuUsage:
		return &a.cpuProgress
	case models.GpuUsage:
		return &a.gpuProgress
	}
	return nil
}

// chartCeiling is the value drawn as a full bar, or zero to scale to the
// largest sample.
func chartCeiling(metric models.Metric) float64 {
	if metric.Unit() == models.UnitPercent || metric.Shape() == models.ShapeRatio {
		return 100
	}
	return 0
}

func clamp(ratio float64) float64 {
	return max(0, min(1, ratio))
}
