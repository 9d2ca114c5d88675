package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/foliolabs/foliosync/internal/models"
	"github.com/foliolabs/foliosync/internal/notify"
)

type NotificationsChanged struct {
	Entries []notify.Notification
}

type StatementsRefreshed struct {
	Statements []models.Statement
	BusyIDs    []int64
}

type PositionsRefreshed struct {
	Positions []models.Position
}

type LogMessage struct {
	Message string
}

type Model struct {
	notifications []notify.Notification
	statements    []models.Statement
	busy          map[int64]bool
	positions     []models.Position
	logs          []string
	spinner       spinner.Model
	width         int
	height        int
	quit          bool
}

func NewModel() Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return Model{
		busy:    make(map[int64]bool),
		spinner: sp,
		width:   80,
		height:  24,
	}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quit = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case NotificationsChanged:
		m.notifications = msg.Entries

	case StatementsRefreshed:
		m.statements = msg.Statements
		m.busy = make(map[int64]bool, len(msg.BusyIDs))
		for _, id := range msg.BusyIDs {
			m.busy[id] = true
		}

	case PositionsRefreshed:
		m.positions = msg.Positions

	case LogMessage:
		m.logs = append(m.logs, fmt.Sprintf("[%s] %s",
			time.Now().Format("15:04:05"), msg.Message))
		if len(m.logs) > 8 {
			m.logs = m.logs[len(m.logs)-8:]
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.quit {
		return "Shutting down...\n"
	}

	var s strings.Builder

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")).
		MarginBottom(1)

	s.WriteString(headerStyle.Render("📒 Folio Dashboard"))
	s.WriteString("\n\n")

	summaryStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("244"))

	pendingPrices := 0
	for _, position := range m.positions {
		if position.PricePending {
			pendingPrices++
		}
	}

	summary := fmt.Sprintf("Statements: %d | ⏳ Busy: %d | Positions: %d | Pending prices: %d",
		len(m.statements), len(m.busy), len(m.positions), pendingPrices)
	s.WriteString(summaryStyle.Render(summary))
	s.WriteString("\n\n")

	s.WriteString(m.renderNotifications())
	s.WriteString("\n\n")
	s.WriteString(m.renderStatements())
	s.WriteString("\n\n")

	if len(m.logs) > 0 {
		s.WriteString(m.renderLogs())
		s.WriteString("\n\n")
	}

	footerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	s.WriteString(footerStyle.Render("Press 'q' to quit | Logs: logs/foliosync_*.log"))

	return s.String()
}

func (m Model) renderNotifications() string {
	sectionStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1).
		Width(m.width - 2)

	var section strings.Builder
	section.WriteString("🔔 Notifications\n")
	section.WriteString(strings.Repeat("─", 60) + "\n")

	if len(m.notifications) == 0 {
		section.WriteString("No active operations\n")
	}

	for _, notification := range m.notifications {
		line := fmt.Sprintf("%s %s", severityIcon(notification.Severity), notification.Message)
		if notification.Severity == notify.SeverityInfo {
			line = fmt.Sprintf("%s %s %s", severityIcon(notification.Severity), m.spinner.View(), notification.Message)
		}

		style := lipgloss.NewStyle().Foreground(lipgloss.Color(severityColor(notification.Severity)))
		section.WriteString(style.Render(line) + "\n")
	}

	return sectionStyle.Render(section.String())
}

func (m Model) renderStatements() string {
	sectionStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1).
		Width(m.width - 2)

	var section strings.Builder
	section.WriteString("📄 Statements\n")
	section.WriteString(strings.Repeat("─", 60) + "\n")

	for _, stmt := range m.statements {
		marker := " "
		if m.busy[stmt.ID] {
			marker = m.spinner.View()
		}

		line := fmt.Sprintf("%s %-4d %-15s %-10s %s %-10s",
			statusIcon(stmt.Status),
			stmt.ID,
			truncate(stmt.Account, 15),
			stmt.Period,
			marker,
			stmt.Status)

		if stmt.Status == models.StatementStateFailed && stmt.ErrorMessage != "" {
			errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
			line += " " + errorStyle.Render(truncate(stmt.ErrorMessage, 40))
		}

		style := lipgloss.NewStyle().Foreground(lipgloss.Color(statusColor(stmt.Status)))
		section.WriteString(style.Render(line) + "\n")
	}

	return sectionStyle.Render(section.String())
}

func (m Model) renderLogs() string {
	sectionStyle := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1).
		Width(m.width - 2)

	var section strings.Builder
	section.WriteString("📝 Recent Logs\n")
	for _, line := range m.logs {
		section.WriteString(line + "\n")
	}

	return sectionStyle.Render(section.String())
}

func severityIcon(severity notify.Severity) string {
	switch severity {
	case notify.SeveritySuccess:
		return "✅"
	case notify.SeverityError:
		return "❌"
	default:
		return "ℹ️"
	}
}

func severityColor(severity notify.Severity) string {
	switch severity {
	case notify.SeveritySuccess:
		return "46"
	case notify.SeverityError:
		return "196"
	default:
		return "75"
	}
}

func statusIcon(status models.StatementState) string {
	switch status {
	case models.StatementStateCompleted:
		return "✅"
	case models.StatementStateFailed:
		return "❌"
	case models.StatementStateProcessing:
		return "⚙️"
	case models.StatementStateQueued:
		return "🕗"
	default:
		return "⏸"
	}
}

func statusColor(status models.StatementState) string {
	switch status {
	case models.StatementStateCompleted:
		return "46"
	case models.StatementStateFailed:
		return "196"
	case models.StatementStateProcessing:
		return "226"
	case models.StatementStateQueued:
		return "75"
	default:
		return "244"
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
