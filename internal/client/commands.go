package client

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nowfit/chat/internal/protocol"
)

func (a *App) runCommand(line string) tea.Cmd {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "login":
		if len(fields) != 3 {
			a.logLine = "usage: " + a.cfg.CommandPrefix + "login <username> <password>"
			return nil
		}
		return a.commandLogin(fields[1], fields[2])
	case "open":
		if len(fields) != 2 {
			a.logLine = "usage: " + a.cfg.CommandPrefix + "open <user-id>"
			return nil
		}
		a.commandOpen(fields[1])
		return nil
	case "clients":
		a.commandClients()
		return nil
	case "help":
		a.commandHelp()
		return nil
	case "quit":
		a.quitting = true
		_ = a.session.Close()
		return tea.Quit
	default:
		a.logLine = "unknown command: " + fields[0]
		return nil
	}
}

// commandLogin authenticates, opens the websocket, and registers presence.
func (a *App) commandLogin(username, password string) tea.Cmd {
	if err := a.session.Login(username, password); err != nil {
		a.logLine = err.Error()
		return nil
	}
	if err := a.session.Connect(); err != nil {
		a.logLine = "connect failed: " + err.Error()
		return nil
	}
	if err := a.session.Emit(protocol.EventRegisterUser, protocol.RegisterUser{UserID: a.session.UserID}); err != nil {
		a.logLine = "register failed: " + err.Error()
		return nil
	}
	a.logLine = fmt.Sprintf("logged in as %s (%s)", username, a.session.Role)
	return waitForEvent(a.session)
}

// commandOpen joins the room with the peer; the server answers with the
// conversation history.
func (a *App) commandOpen(peer string) {
	if !a.session.Connected() {
		a.logLine = "log in first: " + a.cfg.CommandPrefix + "login <username> <password>"
		return
	}
	a.peer = peer
	a.peerTyping = false
	a.history = a.history[:0]
	if err := a.session.Emit(protocol.EventJoinRoom, protocol.JoinRoom{
		UserID:     a.session.UserID,
		ReceiverID: peer,
	}); err != nil {
		a.logLine = "join failed: " + err.Error()
		return
	}
	a.refreshViewport()
}

func (a *App) commandClients() {
	if !a.session.Connected() {
		a.logLine = "log in first"
		return
	}
	entries, err := a.session.Clients()
	if err != nil {
		a.logLine = err.Error()
		return
	}
	if len(entries) == 0 {
		a.logLine = "no clients assigned"
		return
	}
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		state := "offline"
		if entry.Online {
			state = "online"
		}
		lines = append(lines, fmt.Sprintf("%s  %s  [%s]", entry.ID, entry.Username, state))
	}
	a.history = append(a.history, lines...)
	a.refreshViewport()
}

func (a *App) commandHelp() {
	prefix := a.cfg.CommandPrefix
	a.history = append(a.history,
		prefix+"login <username> <password>   authenticate and go online",
		prefix+"open <user-id>                open the conversation with a user",
		prefix+"clients                       list assigned clients (coach only)",
		prefix+"quit                          leave",
	)
	a.refreshViewport()
}
