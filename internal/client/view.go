package client

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	figure "github.com/common-nighthawk/go-figure"
)

type styles struct {
	self   lipgloss.Style
	peer   lipgloss.Style
	status lipgloss.Style
	log    lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		self:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		peer:   lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		status: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		log:    lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	}
}

var homeContent = buildHomeContent()

func buildHomeContent() string {
	banner := figure.NewFigure("NOWFit Chat", "", true).String()
	return banner + "\nTalk to your coach in real time.\n"
}

func (a *App) View() string {
	if a.quitting {
		return "bye\n"
	}

	var b strings.Builder
	b.WriteString(a.viewport.View())
	b.WriteString("\n")
	b.WriteString(a.input.View())
	b.WriteString("\n")
	b.WriteString(a.statusLine())
	return b.String()
}

func (a *App) refreshViewport() {
	if a.peer == "" {
		a.viewport.SetContent(homeContent)
		return
	}
	if len(a.history) == 0 {
		a.viewport.SetContent("No messages yet. Type and press Enter to send.")
		return
	}
	a.viewport.SetContent(strings.Join(a.history, "\n"))
	a.viewport.GotoBottom()
}

func (a *App) appendMessage(sender, text string, at time.Time) {
	style := a.styles.peer
	if sender == a.session.UserID {
		style = a.styles.self
	}
	line := fmt.Sprintf("%s %s: %s", at.Local().Format("15:04"), style.Render(sender), text)
	a.history = append(a.history, line)
}

func (a *App) statusLine() string {
	parts := make([]string, 0, 3)
	if a.session.UserID != "" {
		parts = append(parts, a.session.UserID)
	}
	if a.peer != "" {
		state := "offline"
		if a.online[a.peer] {
			state = "online"
		}
		parts = append(parts, fmt.Sprintf("with %s (%s)", a.peer, state))
		if a.peerTyping {
			parts = append(parts, "typing...")
		}
	}
	status := a.styles.status.Render(strings.Join(parts, " | "))
	if a.logLine != "" {
		status += "  " + a.styles.log.Render(a.logLine)
	}
	return status
}
