package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/artscroll/internal/feed"
	"github.com/abelbrown/artscroll/internal/otel"
)

// wheelStep is how many rows one mouse wheel notch scrolls.
const wheelStep = 3

// App is the root Bubble Tea model. The feed engine does the work; App turns
// input into scroll targets and engine calls, and reports the viewport back
// to the tracker on every animation frame.
type App struct {
	engine  *feed.Engine
	tracker *feed.Tracker
	slides  *Slides
	ring    *otel.RingBuffer
	author  string

	keys    keyMap
	help    help.Model
	spinner spinner.Model

	width     int
	height    int
	ready     bool
	animating bool
	showDebug bool
}

// NewApp creates the model. slides must be the engine's presenter. author,
// when set, starts the session in an author search.
func NewApp(engine *feed.Engine, slides *Slides, ring *otel.RingBuffer, author string) App {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorHighlight)

	h := help.New()
	h.Styles.ShortKey = StatusBarKey
	h.Styles.ShortDesc = StatusBarText

	return App{
		engine:  engine,
		tracker: feed.NewTracker(engine),
		slides:  slides,
		ring:    ring,
		author:  author,
		keys:    defaultKeys(),
		help:    h,
		spinner: s,
	}
}

// Init starts the first load.
func (a App) Init() tea.Cmd {
	return tea.Batch(a.engine.Start(a.author), a.spinner.Tick)
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.MouseMsg:
		switch msg.Button {
		case tea.MouseButtonWheelDown:
			a.slides.ScrollBy(wheelStep)
			return a.animate()
		case tea.MouseButtonWheelUp:
			a.slides.ScrollBy(-wheelStep)
			return a.animate()
		}
		return a, nil

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.slides.SetSize(msg.Width, msg.Height-1)
		return a, a.reportViewport()

	case frameMsg:
		if a.slides.Step() {
			return a, tea.Batch(a.reportViewport(), nextFrame())
		}
		a.animating = false
		return a, a.reportViewport()

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	if cmd, ok := a.engine.Update(msg); ok {
		// Renders and evictions change the layout.
		return a, tea.Batch(cmd, a.reportViewport())
	}
	return a, nil
}

// handleKeyMsg processes keyboard input.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Clear any existing error on key press
	a.slides.ClearErr()

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.Next):
		if a.slides.AtLastSlide() {
			// Nothing rendered below: ask for more. The engine decides.
			model, anim := a.animate()
			return model, tea.Batch(anim, a.engine.OnTailApproached())
		}
		a.slides.SnapNext()
		return a.animate()

	case key.Matches(msg, a.keys.Prev):
		a.slides.SnapPrev()
		return a.animate()

	case key.Matches(msg, a.keys.HalfDown):
		a.slides.ScrollBy(a.slides.Height() / 2)
		return a.animate()

	case key.Matches(msg, a.keys.HalfUp):
		a.slides.ScrollBy(-a.slides.Height() / 2)
		return a.animate()

	case key.Matches(msg, a.keys.Top):
		a.slides.ScrollToTop()
		return a.animate()

	case key.Matches(msg, a.keys.Bottom):
		a.slides.ScrollToBottom()
		return a.animate()

	case key.Matches(msg, a.keys.Similar):
		return a, a.engine.PivotToCurrent()

	case key.Matches(msg, a.keys.Restart):
		return a, a.engine.Restart()

	case key.Matches(msg, a.keys.Debug):
		a.showDebug = !a.showDebug
		return a, nil
	}

	return a, nil
}

// animate starts the frame loop unless it is already running.
func (a App) animate() (tea.Model, tea.Cmd) {
	if a.animating || !a.slides.Animating() {
		return a, nil
	}
	a.animating = true
	return a, nextFrame()
}

func (a App) reportViewport() tea.Cmd {
	return a.tracker.OnViewportChange(a.slides.Offset(), a.slides.Height(), a.slides.Positions())
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}

	contentHeight := a.height - 1
	var content string
	switch {
	case a.showDebug:
		content = placeCentered(a.width, contentHeight, debugOverlay(a.ring, a.width, contentHeight))
	case a.slides.Len() == 0 && a.slides.Err() != nil:
		content = placeCentered(a.width, contentHeight,
			ErrorStyle.Render("Error: "+a.slides.Err().Error())+"\n"+EmptyStyle.Render("press r to try again"))
	case a.slides.Len() == 0:
		content = placeCentered(a.width, contentHeight, a.spinner.View()+" "+EmptyStyle.Render("finding artwork…"))
	default:
		content = a.slides.View()
		if err := a.slides.Err(); err != nil {
			lines := strings.Split(content, "\n")
			lines[len(lines)-1] = ErrorStyle.Width(a.width).Render("Error: " + err.Error())
			content = strings.Join(lines, "\n")
		}
	}

	return content + "\n" + a.statusBar()
}

func (a App) statusBar() string {
	state := a.engine.State()

	var b strings.Builder
	b.WriteString(ModeBadge.Render(state.Mode().String()))
	if state.Len() > 0 {
		b.WriteString(StatusBarText.Render(fmt.Sprintf("  %d/%d", state.CurrentIndex()+1, state.Len())))
	}
	b.WriteString(StatusBarText.Render(fmt.Sprintf("  gen %d", state.Generation())))
	if state.FetchInFlight() {
		b.WriteString("  " + a.spinner.View())
	}
	h := a.help
	h.Width = max(a.width-lipgloss.Width(b.String())-4, 0)
	b.WriteString("  " + h.View(a.keys))
	return StatusBar.Width(a.width).Render(b.String())
}

// Slides returns the presenter (for testing).
func (a App) Slides() *Slides {
	return a.slides
}

// ShowingDebug reports whether the event overlay is open (for testing).
func (a App) ShowingDebug() bool {
	return a.showDebug
}
