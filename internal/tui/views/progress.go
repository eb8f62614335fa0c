package views

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rendis/routeview/internal/engine/geocode"
	"github.com/rendis/routeview/internal/tui/styles"
)

// Job is the batch a ProgressModel runs. It reports through stats.
type Job func(ctx context.Context, stats *geocode.Stats) error

// sharedState holds data shared between the job goroutine and the TUI.
// Lives behind a pointer so it survives bubbletea's value copies.
type sharedState struct {
	mu     sync.Mutex
	cancel context.CancelFunc
}

// ProgressModel shows a running geocoding batch.
type ProgressModel struct {
	title       string
	job         Job
	stats       *geocode.Stats
	progress    progress.Model
	startTime   time.Time
	done        bool
	confirmQuit bool
	err         error
	shared      *sharedState
}

// Messages
type progressTickMsg time.Time

type jobCompleteMsg struct {
	Err error
}

func NewProgressModel(title string, total int, job Job) ProgressModel {
	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(50),
	)
	return ProgressModel{
		title:     title,
		job:       job,
		stats:     &geocode.Stats{Total: total},
		progress:  p,
		startTime: time.Now(),
		shared:    &sharedState{},
	}
}

// Err returns the outcome of the job once the program has exited.
func (m ProgressModel) Err() error {
	if !m.done {
		return context.Canceled
	}
	return m.err
}

// Stats exposes the counters of the job.
func (m ProgressModel) Stats() *geocode.Stats {
	return m.stats
}

func (m ProgressModel) Init() tea.Cmd {
	return tea.Batch(
		m.start(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(300*time.Millisecond, func(t time.Time) tea.Msg {
		return progressTickMsg(t)
	})
}

func (m ProgressModel) start() tea.Cmd {
	shared, job, stats := m.shared, m.job, m.stats
	return func() tea.Msg {
		ctx, cancel := context.WithCancel(context.Background())
		shared.mu.Lock()
		shared.cancel = cancel
		shared.mu.Unlock()
		defer cancel()
		return jobCompleteMsg{Err: job(ctx, stats)}
	}
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.shared.stop()
			return m, tea.Quit
		case "esc", "q":
			if m.done {
				return m, tea.Quit
			}
			if m.confirmQuit {
				// Second esc: cancel; the job returns what it found so far.
				m.shared.stop()
				return m, nil
			}
			m.confirmQuit = true
			return m, nil
		case "enter":
			if m.done {
				return m, tea.Quit
			}
		}
		// Any other key cancels the confirmation
		m.confirmQuit = false
	case progressTickMsg:
		if m.done {
			return m, nil
		}
		return m, tickCmd()
	case jobCompleteMsg:
		m.done = true
		m.confirmQuit = false
		m.err = msg.Err
		return m, nil
	}

	var cmd tea.Cmd
	var pModel tea.Model
	pModel, cmd = m.progress.Update(msg)
	m.progress = pModel.(progress.Model)
	return m, cmd
}

func (m ProgressModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render(m.title))
	b.WriteString("\n\n")

	statsBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Muted).
		Padding(0, 1).
		Width(30).
		Render(m.renderStats())
	b.WriteString(statsBox)
	b.WriteString("\n\n")

	var pct float64
	if m.stats.Total > 0 {
		pct = float64(m.stats.Done.Load()) / float64(m.stats.Total)
	}
	b.WriteString(m.progress.ViewAs(pct))
	b.WriteString("\n\n")

	switch {
	case m.done:
		if m.err != nil && !errors.Is(m.err, context.Canceled) {
			b.WriteString(styles.ErrorText.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(lipgloss.NewStyle().Foreground(styles.Success).Bold(true).
				Render(fmt.Sprintf("Done! %d cities located", m.stats.Found.Load())))
		}
		b.WriteString("\n\n")
		b.WriteString(styles.StatusBar.Render("enter write results • esc quit"))
	case m.confirmQuit:
		b.WriteString(styles.ErrorText.Render("Press ESC again to stop the batch"))
		b.WriteString("\n")
		b.WriteString(styles.StatusBar.Render("esc confirm stop • any key continue"))
	default:
		b.WriteString(styles.StatusBar.Render("esc cancel • ctrl+c quit"))
	}

	return b.String()
}

func (m ProgressModel) renderStats() string {
	var sb strings.Builder
	elapsed := time.Since(m.startTime).Truncate(time.Second)

	done := m.stats.Done.Load()
	total := int64(m.stats.Total)
	errCount := m.stats.Errors.Load()

	statLabel := lipgloss.NewStyle().Foreground(styles.Muted).Width(12)
	statVal := lipgloss.NewStyle().Foreground(styles.Text).Bold(true)

	row := func(label string, value string) {
		sb.WriteString(statLabel.Render(label))
		sb.WriteString(statVal.Render(value))
		sb.WriteString("\n")
	}

	row("Cities:", fmt.Sprintf("%d/%d", done, total))
	row("Found:", fmt.Sprintf("%d", m.stats.Found.Load()))
	row("Not found:", fmt.Sprintf("%d", m.stats.NotFound.Load()))

	errStyle := statVal
	if errCount > 0 {
		errStyle = lipgloss.NewStyle().Foreground(styles.Error).Bold(true)
	}
	sb.WriteString(statLabel.Render("Errors:"))
	sb.WriteString(errStyle.Render(fmt.Sprintf("%d", errCount)))
	sb.WriteString("\n")

	row("Elapsed:", elapsed.String())

	if done > 0 && total > 0 && !m.done {
		rate := float64(done) / elapsed.Seconds()
		remaining := float64(total-done) / rate
		eta := time.Duration(remaining * float64(time.Second)).Truncate(time.Second)
		row("ETA:", "~"+eta.String())
	}

	return strings.TrimSuffix(sb.String(), "\n")
}

func (s *sharedState) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}
