package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Cyclone1070/storyloop/internal/ui/models"
	"github.com/Cyclone1070/storyloop/internal/ui/services"
	"github.com/Cyclone1070/storyloop/internal/ui/views"
	"github.com/Cyclone1070/storyloop/internal/workflow"
	"github.com/Cyclone1070/storyloop/internal/workflow/loop"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// BubbleTeaModel implements tea.Model
type BubbleTeaModel struct {
	state models.State

	// Dependencies
	game     Game
	renderer services.MarkdownRenderer

	// Events from the running turn, nil when idle.
	events chan workflow.Event
	cancel context.CancelFunc
}

// SpinnerFactory creates a new spinner
type SpinnerFactory func() spinner.Model

// DefaultSpinner is the spinner used outside tests.
func DefaultSpinner() spinner.Model {
	return spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(views.StatusThinkingStyle))
}

// newBubbleTeaModel creates a new Bubble Tea model
func newBubbleTeaModel(game Game, renderer services.MarkdownRenderer, spinnerFactory SpinnerFactory, showThinking bool) BubbleTeaModel {
	ti := textinput.New()
	ti.Placeholder = "What do you do?"
	ti.Focus()

	return BubbleTeaModel{
		state: models.State{
			Input:        ti,
			Viewport:     viewport.New(80, 20),
			Spinner:      spinnerFactory(),
			Messages:     []models.Message{},
			StatusPhase:  views.PhaseReady,
			CurrentModel: game.Model(),
			ShowThinking: showThinking,
		},
		game:     game,
		renderer: renderer,
	}
}

// Internal messages
type tickMsg time.Time

type eventMsg struct {
	event workflow.Event
}

// turnClosedMsg arrives once the running turn has emitted its last event.
type turnClosedMsg struct{}

// Init initializes the model
func (m BubbleTeaModel) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.state.Spinner.Tick,
		tick(),
	)
}

// View renders the UI
func (m BubbleTeaModel) View() string {
	return views.RenderRoot(m.state)
}

// Update handles messages
func (m BubbleTeaModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.state.Width = msg.Width
		m.state.Height = msg.Height
		m.state.Viewport.Width = msg.Width
		m.state.Viewport.Height = msg.Height - 5 // input box and status line
		m.state.Input.Width = msg.Width - 6
		m.updateViewport()
		return m, nil

	case tickMsg:
		m.state.DotCount = (m.state.DotCount + 1) % 4
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.state.Spinner, cmd = m.state.Spinner.Update(msg)
		return m, cmd

	case eventMsg:
		m.handleEvent(msg.event)
		return m, listenForEvents(m.events)

	case turnClosedMsg:
		m.events = nil
		m.cancel = nil
		m.state.Busy = false
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.state.Input, cmd = m.state.Input.Update(msg)
	cmds = append(cmds, cmd)
	m.state.Viewport, cmd = m.state.Viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// handleKeyPress handles keyboard input
func (m BubbleTeaModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.state.ShowHelp {
		switch msg.String() {
		case "esc", "enter", "q":
			m.state.ShowHelp = false
		case "ctrl+c":
			return m, tea.Quit
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c":
		if m.state.Busy && m.cancel != nil {
			m.cancel()
			m.setStatus(views.PhaseThinking, "Stopping")
			return m, nil
		}
		return m, tea.Quit

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.state.Viewport, cmd = m.state.Viewport.Update(msg)
		return m, cmd

	case "enter":
		input := strings.TrimSpace(m.state.Input.Value())
		if input == "" || m.state.Busy {
			return m, nil
		}
		m.state.Input.SetValue("")
		if strings.HasPrefix(input, "/") {
			return m.handleCommand(input)
		}
		return m.startTurn(input)
	}

	var cmd tea.Cmd
	m.state.Input, cmd = m.state.Input.Update(msg)
	return m, cmd
}

// handleCommand handles slash commands
func (m BubbleTeaModel) handleCommand(input string) (tea.Model, tea.Cmd) {
	switch strings.Fields(input)[0] {
	case "/help":
		m.state.ShowHelp = true
	case "/reset":
		m.game.Reset()
		m.state.Messages = []models.Message{{Role: models.RoleSystem, Content: "The story starts over."}}
		m.setStatus(views.PhaseReady, "")
		m.updateViewport()
	case "/quit", "/exit":
		return m, tea.Quit
	default:
		m.appendMessage(models.RoleError, "Unknown command "+input+". Try /help.")
	}
	return m, nil
}

func (m BubbleTeaModel) startTurn(input string) (tea.Model, tea.Cmd) {
	m.appendMessage(models.RoleUser, input)

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan workflow.Event, 32)
	m.events = events
	m.cancel = cancel
	m.state.Busy = true
	m.setStatus(views.PhaseThinking, "Thinking")

	return m, tea.Batch(
		runTurn(ctx, cancel, m.game, input, events),
		listenForEvents(events),
	)
}

func (m *BubbleTeaModel) handleEvent(ev workflow.Event) {
	switch e := ev.(type) {
	case workflow.StatusEvent:
		phase := views.PhaseThinking
		if e.Phase == workflow.PhaseTools {
			phase = views.PhaseTools
		}
		m.setStatus(phase, e.Status)
	case workflow.ThinkingEvent:
		m.appendMessage(models.RoleThinking, e.Text)
	case workflow.ToolCallEvent:
		m.appendMessage(models.RoleTool, services.FormatToolCall(e.Name, e.Arguments, e.Result, e.Success))
	case workflow.TextEvent:
		m.appendMessage(models.RoleAssistant, e.Text)
	case workflow.DoneEvent:
		m.finishTurn(e)
	}
}

func (m *BubbleTeaModel) finishTurn(e workflow.DoneEvent) {
	switch {
	case e.Err == nil:
		m.setStatus(views.PhaseDone, "Your move")
	case errors.Is(e.Err, context.Canceled):
		m.appendMessage(models.RoleSystem, "The narrator stops mid-thought.")
		m.setStatus(views.PhaseReady, "")
	case errors.Is(e.Err, loop.ErrIterationBudgetExceeded):
		m.appendMessage(models.RoleError, "The narrator lost the thread. Try again or rephrase.")
		m.setStatus(views.PhaseError, "No answer")
	default:
		m.appendMessage(models.RoleError, e.Err.Error())
		m.setStatus(views.PhaseError, "Model error")
	}
}

func (m *BubbleTeaModel) setStatus(phase, message string) {
	m.state.StatusPhase = phase
	m.state.StatusMessage = message
}

func (m *BubbleTeaModel) appendMessage(role models.Role, content string) {
	m.state.Messages = append(m.state.Messages, models.Message{Role: role, Content: content})
	m.updateViewport()
}

// updateViewport updates the viewport content
func (m *BubbleTeaModel) updateViewport() {
	content := views.FormatChatContent(m.state.Messages, m.state.Width-4, m.state.ShowThinking, m.renderer)
	m.state.Viewport.SetContent(content)
	m.state.Viewport.GotoBottom()
}

// runTurn runs the game turn off the update loop and closes events when done.
func runTurn(ctx context.Context, cancel context.CancelFunc, game Game, input string, events chan<- workflow.Event) tea.Cmd {
	return func() tea.Msg {
		defer close(events)
		defer cancel()
		_, _ = game.Turn(ctx, input, func(ev workflow.Event) {
			select {
			case events <- ev:
			case <-ctx.Done():
				// The DoneEvent must still reach the UI after a cancel.
				if _, ok := ev.(workflow.DoneEvent); ok {
					events <- ev
				}
			}
		})
		return nil
	}
}

// listenForEvents waits for the next event of the running turn.
func listenForEvents(ch <-chan workflow.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return turnClosedMsg{}
		}
		return eventMsg{event: ev}
	}
}

func tick() tea.Cmd {
	return tea.Tick(300*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
