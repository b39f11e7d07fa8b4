package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zacharykka/support-console/internal/domain"
)

// healthLoadedMsg 携带一次健康检查的结果；健康检查从不失败，
// 拉取异常时由 API 客户端降级为 down 状态。
type healthLoadedMsg struct {
	gen    int
	status domain.SystemStatus
}

// dashboardModel 只读展示系统健康概览，挂载时拉取一次。
type dashboardModel struct {
	backend Backend
	scope   *requestScope

	status  *domain.SystemStatus
	loading bool
	spin    spinner.Model
}

func newDashboardModel(parent context.Context, backend Backend) *dashboardModel {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(colorPrimary)

	return &dashboardModel{
		backend: backend,
		scope:   newRequestScope(parent),
		loading: true,
		spin:    spin,
	}
}

func (m *dashboardModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.fetchCmd())
}

func (m *dashboardModel) unmount() {
	m.scope.cancel()
}

func (m *dashboardModel) capturesInput() bool {
	return false
}

func (m *dashboardModel) fetchCmd() tea.Cmd {
	ctx, gen := m.scope.ctx, m.scope.gen
	backend := m.backend
	return func() tea.Msg {
		return healthLoadedMsg{gen: gen, status: backend.Health(ctx)}
	}
}

func (m *dashboardModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !m.loading {
			return nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return cmd

	case healthLoadedMsg:
		if m.scope.stale(msg.gen) {
			return nil
		}
		status := msg.status
		m.status = &status
		m.loading = false
		return nil

	case tea.KeyMsg:
		if msg.String() == "r" && !m.loading {
			m.loading = true
			m.scope.renew()
			return tea.Batch(m.spin.Tick, m.fetchCmd())
		}
	}
	return nil
}

func (m *dashboardModel) View(width, height int) string {
	header := titleStyle.Render("System Overview")
	if m.loading {
		return lipgloss.JoinVertical(lipgloss.Left, header, "", m.spin.View()+subtitleStyle.Render(" 正在加载健康状态..."))
	}
	status := m.status

	badge := lipgloss.NewStyle().
		Foreground(lipgloss.Color("232")).
		Background(statusColor(status.Status)).
		Padding(0, 1).
		Render(status.Status)

	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		statCard("Uptime", status.Uptime),
		" ",
		statCard("Latency", fmt.Sprintf("%dms", status.Latency)),
		" ",
		statCard("Active Agents", fmt.Sprintf("%d", status.ActiveAgents)),
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Center, header, "  ", badge),
		"",
		cards,
		"",
		helpStyle.Render("r 刷新"),
	)
}

func statCard(label, value string) string {
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		subtitleStyle.Render(label),
		titleStyle.Render(value),
	))
}
