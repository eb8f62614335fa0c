package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rendis/routeview/internal/engine/geo"
	"github.com/rendis/routeview/internal/engine/scene"
	"github.com/rendis/routeview/internal/engine/session"
	"github.com/rendis/routeview/internal/model"
	"github.com/rendis/routeview/internal/tui/views"
)

// mapPadding is the fit margin of the terminal map, in braille dots.
const mapPadding = 4

type datasetLoadedMsg struct {
	data *session.Dataset
	err  error
}

// retryRouteMsg re-schedules a request that arrived before the catalog.
type retryRouteMsg struct {
	query   model.RouteQuery
	attempt int
}

type routeFetchedMsg struct {
	ticket uint64
	result *model.RouteResult
	err    error
}

// App is the root bubbletea model. It owns the session and its map; network
// calls run in commands and come back as messages applied here.
type App struct {
	ctx      context.Context
	session  *session.Session
	explorer views.ExplorerModel
	width    int
	height   int
	fatal    error
	log      *slog.Logger
}

func NewApp(ctx context.Context, b session.Backend, opts session.Options, defaultAlg string) App {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	// Resized to the terminal on the first WindowSizeMsg.
	m := scene.NewMap(geo.Viewport{Width: 160, Height: 96}, mapPadding)
	explorer := views.NewExplorerModel(m, defaultAlg)
	explorer.SetBusy(true, "Loading catalog and base map…")
	return App{
		ctx:      ctx,
		session:  session.New(b, m, opts),
		explorer: explorer,
		log:      opts.Logger,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(a.explorer.Init(), a.loadCmd())
}

func (a App) loadCmd() tea.Cmd {
	s, ctx := a.session, a.ctx
	return func() tea.Msg {
		data, err := s.Load(ctx)
		return datasetLoadedMsg{data: data, err: err}
	}
}

func (a App) fetchCmd(ticket uint64, q model.RouteQuery) tea.Cmd {
	s, ctx := a.session, a.ctx
	return func() tea.Msg {
		res, err := s.Fetch(ctx, q)
		return routeFetchedMsg{ticket: ticket, result: res, err: err}
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "q":
			if !a.explorer.Typing() || a.fatal != nil {
				return a, tea.Quit
			}
		case "r":
			if a.fatal != nil {
				a.fatal = nil
				a.explorer.SetBusy(true, "Loading catalog and base map…")
				return a, a.loadCmd()
			}
		}
		if a.fatal != nil {
			return a, nil
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.explorer.SetSize(msg.Width, msg.Height)
		a.session.Map().Resize(a.explorer.MapViewport())
		return a, nil

	case datasetLoadedMsg:
		if msg.err != nil {
			a.log.Error("tui_load_failed", "error", msg.err)
			a.fatal = msg.err
			a.explorer.SetBusy(false, "")
			return a, nil
		}
		a.session.Install(msg.data)
		a.explorer.SetCities(msg.data.Cities)
		a.explorer.SetBusy(false, fmt.Sprintf("%d cities", len(msg.data.Cities)))
		return a, nil

	case views.RouteRequestMsg:
		return a.schedule(msg.Query, 0)

	case retryRouteMsg:
		return a.schedule(msg.query, msg.attempt)

	case routeFetchedMsg:
		err := a.session.Apply(msg.ticket, msg.result, msg.err)
		switch {
		case errors.Is(err, session.ErrStale):
			return a, nil
		case err != nil:
			a.explorer.SetError(routeErrorText(err))
		default:
			a.explorer.SetResult(msg.result)
		}
		return a, nil
	}

	var cmd tea.Cmd
	a.explorer, cmd = a.explorer.Update(msg)
	return a, cmd
}

// schedule follows the session's plan for a route request: wait for the
// catalog, give up, or fetch under a new ticket.
func (a App) schedule(q model.RouteQuery, attempt int) (tea.Model, tea.Cmd) {
	plan := a.session.Schedule(attempt)
	switch plan.Decision {
	case session.Defer:
		a.explorer.SetBusy(true, "Waiting for the catalog…")
		next := retryRouteMsg{query: q, attempt: attempt + 1}
		return a, tea.Tick(plan.Delay, func(time.Time) tea.Msg { return next })
	case session.GiveUp:
		a.explorer.SetError("The city catalog is not available yet")
		return a, nil
	default:
		a.explorer.SetBusy(true, fmt.Sprintf("Routing %s → %s (%s)…", q.Src, q.Dst, q.Alg))
		return a, a.fetchCmd(plan.Ticket, q)
	}
}

func routeErrorText(err error) string {
	var re *session.RouteError
	if errors.As(err, &re) {
		return re.Error()
	}
	return fmt.Sprintf("Route request failed: %v", err)
}

func (a App) View() string {
	if a.fatal != nil {
		return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center,
			views.FatalView(a.fatal))
	}
	return a.explorer.View()
}

// Run starts the TUI and blocks until the user quits.
func Run(ctx context.Context, b session.Backend, opts session.Options, defaultAlg string) error {
	p := tea.NewProgram(NewApp(ctx, b, opts, defaultAlg), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
