package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/trezcool/darasa/client/poll"
	"github.com/trezcool/darasa/core/notification"
)

var (
	badgeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("160")).
			Padding(0, 1)

	toastStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 1).
			Width(60)

	urgentToastStyle = toastStyle.Copy().
				BorderForeground(lipgloss.Color("160"))

	titleStyle  = lipgloss.NewStyle().Bold(true)
	statusStyle = lipgloss.NewStyle().Faint(true)
	helpStyle   = lipgloss.NewStyle().Faint(true).MarginTop(1)
)

type (
	tickMsg   time.Time
	polledMsg struct{}
)

type model struct {
	ctrl     *poll.Controller
	interval time.Duration
	status   string
}

func newModel(ctrl *poll.Controller, interval time.Duration) model {
	return model{ctrl: ctrl, interval: interval}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.poll(), m.tick())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "a":
			if err := m.ctrl.MarkAllRead(context.Background()); err != nil {
				m.status = fmt.Sprintf("mark all read failed: %v", err)
			} else {
				m.status = "all notifications marked read"
			}
		case "d":
			if visible := m.ctrl.Toasts().Visible(); len(visible) > 0 {
				m.ctrl.Toasts().Dismiss(visible[0].ID)
			}
		case "enter":
			if visible := m.ctrl.Toasts().Visible(); len(visible) > 0 {
				url := m.ctrl.ClickThrough(context.Background(), visible[0].Notification)
				m.status = "open: " + url
			}
		}
	case tickMsg:
		return m, tea.Batch(m.poll(), m.tick())
	case polledMsg:
		// state already updated by the controller; re-render
	}
	return m, nil
}

func (m model) View() string {
	header := titleStyle.Render("Darasa notifications")
	if unread := m.ctrl.Unread(); unread > 0 {
		header += "  " + badgeStyle.Render(fmt.Sprintf("%d unread", unread))
	}

	parts := []string{header}
	for _, t := range m.ctrl.Toasts().Visible() {
		parts = append(parts, renderToast(t))
	}
	if m.status != "" {
		parts = append(parts, statusStyle.Render(m.status))
	}
	parts = append(parts, helpStyle.Render("enter: open  d: dismiss  a: mark all read  q: quit"))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderToast(t poll.Toast) string {
	n := t.Notification
	style := toastStyle
	if n.Priority == notification.PriorityHigh {
		style = urgentToastStyle
	}
	body := titleStyle.Render(fmt.Sprintf("[%s] %s", n.Icon(), n.Title)) + "\n" + n.Message
	return style.Render(body)
}

func (m model) poll() tea.Cmd {
	return func() tea.Msg {
		m.ctrl.Tick(context.Background())
		return polledMsg{}
	}
}

func (m model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
