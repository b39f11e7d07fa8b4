package ui

import "github.com/charmbracelet/lipgloss"

// 全局配色：与原版仪表盘的 neon 主题保持相近的紫/蓝基调。
var (
	colorPrimary = lipgloss.Color("99")  // 紫
	colorAccent  = lipgloss.Color("39")  // 蓝
	colorSuccess = lipgloss.Color("42")  // 绿
	colorWarning = lipgloss.Color("214") // 黄
	colorDanger  = lipgloss.Color("203") // 红
	colorMuted   = lipgloss.Color("243") // 灰
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255"))

	subtitleStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	breadcrumbStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	headerUserStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	navActiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(colorPrimary).
			Bold(true).
			Padding(0, 1)

	navInactiveStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	cardSelectedStyle = cardStyle.
				BorderForeground(colorPrimary)

	detailStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 2)

	bannerErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("255")).
				Background(colorDanger).
				Padding(0, 1)

	bannerSuccessStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("232")).
				Background(colorSuccess).
				Padding(0, 1)

	activeBadgeStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("232")).
				Background(colorSuccess).
				Padding(0, 1)

	globalBadgeStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("232")).
				Background(colorAccent).
				Padding(0, 1)

	defaultBadgeStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("232")).
				Background(colorMuted).
				Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	userBubbleStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 1)

	assistantBubbleStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240")).
				Padding(0, 1)

	failedBubbleStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorDanger).
				Padding(0, 1)
)

// statusColor 返回系统健康状态对应的颜色。
func statusColor(status string) lipgloss.Color {
	switch status {
	case "healthy":
		return colorSuccess
	case "degraded":
		return colorWarning
	default:
		return colorDanger
	}
}

// kbStatusStyle 返回知识库索引状态对应的标签样式。
func kbStatusStyle(status string) lipgloss.Style {
	switch status {
	case "indexed":
		return lipgloss.NewStyle().Foreground(colorSuccess)
	case "indexing":
		return lipgloss.NewStyle().Foreground(colorAccent)
	default:
		return lipgloss.NewStyle().Foreground(colorDanger)
	}
}
