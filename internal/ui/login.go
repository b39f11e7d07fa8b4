package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zacharykka/support-console/internal/domain"
)

// loginResultMsg 携带登录调用的结果。
// 登录表单的焦点顺序：邮箱、密码。
const loginFieldCount = 2

type loginResultMsg struct {
	gen  int
	user *domain.User
	err  error
}

// loginModel 渲染登录表单；失败信息内联展示在表单内。
type loginModel struct {
	backend Backend
	scope   *requestScope

	email      textinput.Model
	password   textinput.Model
	focus      int
	submitting bool
	errText    string
	spin       spinner.Model
}

func newLoginModel(parent context.Context, backend Backend) *loginModel {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Prompt = "邮箱 > "
	email.CharLimit = 128
	email.Width = 36
	email.Focus()

	password := textinput.New()
	password.Placeholder = "••••••••"
	password.Prompt = "密码 > "
	password.CharLimit = 128
	password.Width = 36
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(colorPrimary)

	return &loginModel{
		backend:  backend,
		scope:    newRequestScope(parent),
		email:    email,
		password: password,
		spin:     spin,
	}
}

func (m *loginModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *loginModel) unmount() {
	m.scope.cancel()
}

func (m *loginModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !m.submitting {
			return nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return cmd

	case loginResultMsg:
		if m.scope.stale(msg.gen) {
			return nil
		}
		m.submitting = false
		if msg.err != nil {
			m.errText = msg.err.Error()
		}
		return nil

	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			return m.submit()
		case "tab", "down":
			m.setFocus((m.focus + 1) % loginFieldCount)
			return nil
		case "shift+tab", "up":
			m.setFocus((m.focus + loginFieldCount - 1) % loginFieldCount)
			return nil
		}
	}

	var cmd tea.Cmd
	if m.focus == 0 {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return cmd
}

func (m *loginModel) setFocus(idx int) {
	m.focus = idx
	if idx == 0 {
		m.email.Focus()
		m.password.Blur()
	} else {
		m.password.Focus()
		m.email.Blur()
	}
}

// submit 发起登录调用；空字段或在途提交时直接忽略。
func (m *loginModel) submit() tea.Cmd {
	if m.submitting {
		return nil
	}
	email := strings.TrimSpace(m.email.Value())
	password := m.password.Value()
	if email == "" || password == "" {
		return nil
	}

	m.errText = ""
	m.submitting = true

	ctx, gen := m.scope.ctx, m.scope.gen
	backend := m.backend
	return tea.Batch(m.spin.Tick, func() tea.Msg {
		user, err := backend.Login(ctx, email, password)
		return loginResultMsg{gen: gen, user: user, err: err}
	})
}

func (m *loginModel) View(width, height int) string {
	form := []string{
		titleStyle.Render("Support Console"),
		subtitleStyle.Render("登录以管理 AI 客服工作区"),
		"",
		m.email.View(),
		m.password.View(),
	}
	if m.submitting {
		form = append(form, "", m.spin.View()+subtitleStyle.Render(" 正在登录..."))
	}
	if m.errText != "" {
		form = append(form, "", bannerErrorStyle.Render(m.errText))
	}
	form = append(form, "", helpStyle.Render("enter 登录 • tab 切换 • ctrl+c 退出"))

	card := detailStyle.Render(lipgloss.JoinVertical(lipgloss.Left, form...))
	if width <= 0 || height <= 0 {
		return card
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, card)
}
