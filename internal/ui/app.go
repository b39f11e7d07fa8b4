package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zacharykka/support-console/internal/domain"
	"go.uber.org/zap"
)

// gatePhase 是认证闸门的阶段：未恢复完会话前不渲染任何业务视图。
type gatePhase int

const (
	gateChecking gatePhase = iota
	gateLogin
	gateShell
)

// viewID 枚举外壳内的四个业务视图。
type viewID int

const (
	viewDashboard viewID = iota
	viewPrompts
	viewKnowledgeBase
	viewPlayground
)

var viewTitles = map[viewID]string{
	viewDashboard:     "Dashboard",
	viewPrompts:       "Prompts",
	viewKnowledgeBase: "Knowledge Base",
	viewPlayground:    "Playground",
}

// view 是业务视图的公共面。每个视图持有自己的 requestScope，
// 卸载时取消在途请求。
type view interface {
	Init() tea.Cmd
	Update(msg tea.Msg) tea.Cmd
	View(width, height int) string
	unmount()
	capturesInput() bool
}

type authCheckedMsg struct {
	user *domain.User
}

type loggedOutMsg struct {
	err error
}

// Model 是应用根模型：认证闸门加导航外壳。
type Model struct {
	root    context.Context
	backend Backend
	logger  *zap.Logger

	phase gatePhase
	login *loginModel

	user      domain.User
	expiry    time.Time
	hasExpiry bool

	active  viewID
	current view

	width  int
	height int
}

func New(ctx context.Context, backend Backend, logger *zap.Logger) *Model {
	return &Model{
		root:    ctx,
		backend: backend,
		logger:  logger,
		phase:   gateChecking,
	}
}

// Init 先从本地会话恢复登录态，恢复完成前停留在 gateChecking。
func (m *Model) Init() tea.Cmd {
	ctx, backend := m.root, m.backend
	return func() tea.Msg {
		if !backend.IsAuthenticated(ctx) {
			return authCheckedMsg{}
		}
		return authCheckedMsg{user: backend.CurrentUser(ctx)}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if m.current != nil {
			return m, m.current.Update(msg)
		}
		return m, nil

	case authCheckedMsg:
		if msg.user != nil {
			return m, m.enterShell(*msg.user)
		}
		m.phase = gateLogin
		m.login = newLoginModel(m.root, m.backend)
		return m, m.login.Init()

	case loginResultMsg:
		if m.phase == gateLogin && msg.err == nil && msg.user != nil {
			// 过期代次的结果不触发跳转。
			if m.login.scope.stale(msg.gen) {
				return m, nil
			}
			m.login.unmount()
			m.login = nil
			return m, m.enterShell(*msg.user)
		}

	case loggedOutMsg:
		if msg.err != nil {
			m.logger.Warn("登出时清理会话失败", zap.Error(msg.err))
		}
		return m, nil
	}

	switch m.phase {
	case gateLogin:
		if m.login != nil {
			return m, m.login.Update(msg)
		}
		return m, nil
	case gateShell:
		return m.updateShell(msg)
	default:
		return m, nil
	}
}

func (m *Model) updateShell(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && !m.current.capturesInput() {
		switch key.String() {
		case "1":
			return m, m.switchView(viewDashboard)
		case "2":
			return m, m.switchView(viewPrompts)
		case "3":
			return m, m.switchView(viewKnowledgeBase)
		case "4":
			return m, m.switchView(viewPlayground)
		case "l":
			return m, m.logout()
		case "q":
			return m, tea.Quit
		}
	}
	return m, m.current.Update(msg)
}

// enterShell 登录成功后进入外壳，默认落在仪表盘。
func (m *Model) enterShell(user domain.User) tea.Cmd {
	m.user = user
	m.expiry, m.hasExpiry = m.backend.SessionExpiry(m.root)
	m.phase = gateShell
	m.active = viewDashboard
	m.current = m.mountView(viewDashboard)
	m.logger.Info("用户进入控制台",
		zap.String("email", user.Email),
		zap.String("role", user.Role))
	return m.current.Init()
}

// switchView 卸载当前视图（取消其在途请求）并全新挂载目标视图，
// 视图之间不共享任何拉取结果。
func (m *Model) switchView(id viewID) tea.Cmd {
	if id == m.active {
		return nil
	}
	m.current.unmount()
	m.active = id
	m.current = m.mountView(id)
	return m.current.Init()
}

func (m *Model) mountView(id viewID) view {
	switch id {
	case viewPrompts:
		return newPromptsModel(m.root, m.backend, m.user)
	case viewKnowledgeBase:
		return newKBModel(m.root, m.backend)
	case viewPlayground:
		return newPlaygroundModel(m.root, m.backend)
	default:
		return newDashboardModel(m.root, m.backend)
	}
}

// logout 撤下外壳回到登录表单；本地会话清理在后台完成。
func (m *Model) logout() tea.Cmd {
	m.current.unmount()
	m.current = nil
	m.user = domain.User{}
	m.hasExpiry = false
	m.phase = gateLogin
	m.login = newLoginModel(m.root, m.backend)

	ctx, backend := m.root, m.backend
	return tea.Batch(m.login.Init(), func() tea.Msg {
		return loggedOutMsg{err: backend.Logout(ctx)}
	})
}

func (m *Model) View() string {
	switch m.phase {
	case gateChecking:
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			subtitleStyle.Render("正在恢复会话..."))
	case gateLogin:
		if m.login == nil {
			return ""
		}
		return m.login.View(m.width, m.height)
	}

	body := m.current.View(m.width, m.height)
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		"",
		body,
		"",
		m.renderStatusBar(),
	)
}

func (m *Model) renderHeader() string {
	var tabs []string
	for id := viewDashboard; id <= viewPlayground; id++ {
		label := viewTitles[id]
		if id == m.active {
			tabs = append(tabs, navActiveStyle.Render(label))
		} else {
			tabs = append(tabs, navInactiveStyle.Render(label))
		}
	}
	nav := lipgloss.JoinHorizontal(lipgloss.Center, tabs...)

	crumb := breadcrumbStyle.Render("Support Console / " + viewTitles[m.active])
	who := headerUserStyle.Render(m.user.Name + " (" + m.user.Role + ")")

	gap := m.width - lipgloss.Width(crumb) - lipgloss.Width(who)
	if gap < 1 {
		gap = 1
	}
	top := crumb + lipgloss.NewStyle().Width(gap).Render("") + who
	return lipgloss.JoinVertical(lipgloss.Left, top, nav)
}

func (m *Model) renderStatusBar() string {
	session := "会话: 长期有效"
	if m.hasExpiry {
		session = "会话有效至 " + m.expiry.Local().Format("2006-01-02 15:04")
	}
	help := "1-4 切换视图 • l 退出登录 • q 退出 • ctrl+c 强制退出"
	return statusBarStyle.Render(session + "  •  " + help)
}
