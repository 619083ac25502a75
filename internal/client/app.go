package client

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nowfit/chat/internal/config"
	"github.com/nowfit/chat/internal/protocol"
)

// App implements the bubbletea tea.Model interface for the terminal client.
type App struct {
	cfg     config.ClientConfig
	session *Session

	input    textinput.Model
	viewport viewport.Model
	styles   styles

	width  int
	height int

	peer       string
	peerTyping bool
	online     map[string]bool
	history    []string
	logLine    string

	typingSent bool
	quitting   bool
}

// envelopeMsg delivers one inbound server event into the update loop.
type envelopeMsg protocol.Envelope

// sessionClosedMsg signals that the websocket went away.
type sessionClosedMsg struct{}

// NewApp returns a Bubble Tea model pre-populated with defaults.
func NewApp(cfg config.ClientConfig) *App {
	input := textinput.New()
	input.Placeholder = "type " + cfg.CommandPrefix + "help to get started"
	input.Prompt = "> "
	input.Focus()

	return &App{
		cfg:      cfg,
		session:  NewSession(cfg),
		input:    input,
		viewport: viewport.New(0, 0),
		styles:   defaultStyles(),
		online:   make(map[string]bool),
	}
}

// Init is part of the tea.Model interface.
func (a *App) Init() tea.Cmd {
	return textinput.Blink
}

// waitForEvent blocks on the session's inbound stream.
func waitForEvent(s *Session) tea.Cmd {
	return func() tea.Msg {
		env, ok := <-s.Events()
		if !ok {
			return sessionClosedMsg{}
		}
		return envelopeMsg(env)
	}
}

// Update handles user input and server events.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = m.Width
		a.height = m.Height
		a.resize()
		return a, nil
	case tea.KeyMsg:
		return a.handleKey(m)
	case envelopeMsg:
		a.handleEnvelope(protocol.Envelope(m))
		return a, waitForEvent(a.session)
	case sessionClosedMsg:
		a.logLine = "disconnected from server"
		a.refreshViewport()
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		a.quitting = true
		_ = a.session.Close()
		return a, tea.Quit
	case tea.KeyPgUp:
		a.viewport.LineUp(a.viewport.Height)
		return a, nil
	case tea.KeyPgDown:
		a.viewport.LineDown(a.viewport.Height)
		return a, nil
	case tea.KeyEnter:
		return a, a.handleSubmit()
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	a.notifyTyping()
	return a, cmd
}

// handleSubmit runs a slash command or sends the input as a chat message.
func (a *App) handleSubmit() tea.Cmd {
	value := strings.TrimSpace(a.input.Value())
	a.input.Reset()
	if value == "" {
		return nil
	}
	if strings.HasPrefix(value, a.cfg.CommandPrefix) {
		return a.runCommand(strings.TrimPrefix(value, a.cfg.CommandPrefix))
	}
	return a.sendChat(value)
}

func (a *App) sendChat(text string) tea.Cmd {
	if a.peer == "" {
		a.logLine = "open a conversation first: " + a.cfg.CommandPrefix + "open <user-id>"
		return nil
	}
	a.stopTyping()
	if err := a.session.Emit(protocol.EventSendMessage, protocol.SendMessage{
		Sender:   a.session.UserID,
		Receiver: a.peer,
		Message:  text,
	}); err != nil {
		a.logLine = "send failed: " + err.Error()
	}
	return nil
}

// notifyTyping emits a typing event on the first keystroke of a draft; the
// matching stopTyping goes out when the draft is sent or cleared.
func (a *App) notifyTyping() {
	if a.peer == "" || !a.session.Connected() {
		return
	}
	if a.input.Value() == "" {
		a.stopTyping()
		return
	}
	if a.typingSent {
		return
	}
	a.typingSent = true
	_ = a.session.Emit(protocol.EventTyping, protocol.Typing{From: a.session.UserID, To: a.peer})
}

func (a *App) stopTyping() {
	if !a.typingSent {
		return
	}
	a.typingSent = false
	_ = a.session.Emit(protocol.EventStopTyping, protocol.Typing{From: a.session.UserID, To: a.peer})
}

func (a *App) resize() {
	const chrome = 3
	height := a.height - chrome
	if height < 3 {
		height = 3
	}
	a.viewport.Width = a.width
	a.viewport.Height = height
	a.input.Width = a.width - len(a.input.Prompt) - 1
	a.refreshViewport()
}
