package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zacharykka/support-console/internal/domain"
)

type kbLoadedMsg struct {
	gen   int
	items []domain.KnowledgeBaseItem
	err   error
}

// kbModel 是知识库的只读列表视图。搜索与上传入口仅作展示，
// 不接线任何行为。
type kbModel struct {
	backend Backend
	scope   *requestScope

	items   []domain.KnowledgeBaseItem
	cursor  int
	loading bool
	errText string

	spin spinner.Model
}

func newKBModel(parent context.Context, backend Backend) *kbModel {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(colorPrimary)

	return &kbModel{
		backend: backend,
		scope:   newRequestScope(parent),
		loading: true,
		spin:    spin,
	}
}

func (m *kbModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.fetchCmd())
}

func (m *kbModel) unmount() {
	m.scope.cancel()
}

func (m *kbModel) capturesInput() bool { return false }

func (m *kbModel) fetchCmd() tea.Cmd {
	ctx, gen := m.scope.ctx, m.scope.gen
	backend := m.backend
	return func() tea.Msg {
		items, err := backend.KnowledgeBase(ctx)
		return kbLoadedMsg{gen: gen, items: items, err: err}
	}
}

func (m *kbModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !m.loading {
			return nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return cmd

	case kbLoadedMsg:
		if m.scope.stale(msg.gen) {
			return nil
		}
		m.loading = false
		if msg.err != nil {
			m.errText = describeError(msg.err)
			return nil
		}
		m.errText = ""
		m.items = msg.items
		if m.cursor >= len(m.items) {
			m.cursor = 0
		}
		return nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case "r":
			if !m.loading {
				m.scope.renew()
				m.loading = true
				return tea.Batch(m.spin.Tick, m.fetchCmd())
			}
		}
	}
	return nil
}

func (m *kbModel) View(width, height int) string {
	sections := []string{
		titleStyle.Render("Knowledge Base"),
		subtitleStyle.Render("[搜索: 即将上线]  [上传文档: 即将上线]"),
	}

	switch {
	case m.errText != "":
		sections = append(sections, "", bannerErrorStyle.Render(m.errText))
	case m.loading:
		sections = append(sections, "", m.spin.View()+subtitleStyle.Render(" 正在加载知识库..."))
	case len(m.items) == 0:
		sections = append(sections, "", subtitleStyle.Render("知识库暂无内容。"))
	default:
		sections = append(sections, "", m.renderTable())
	}

	sections = append(sections, "", helpStyle.Render("↑/↓ 移动 • r 刷新"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *kbModel) renderTable() string {
	header := subtitleStyle.Render(fmt.Sprintf("  %-36s %-10s %-10s %8s  %s",
		"名称", "类型", "状态", "大小", "最后修改"))

	rows := []string{header}
	for i, item := range m.items {
		marker := "  "
		if i == m.cursor {
			marker = "> "
		}
		line := fmt.Sprintf("%s%-36s %-10s %-10s %8s  %s",
			marker,
			truncate(item.Name, 36),
			truncate(item.Type, 10),
			kbStatusStyle(item.Status).Render(fmt.Sprintf("%-10s", item.Status)),
			item.Size,
			item.LastModified,
		)
		if i == m.cursor {
			line = titleStyle.Render(line)
		}
		rows = append(rows, line)
	}
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
