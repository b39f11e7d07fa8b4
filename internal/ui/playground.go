package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/zacharykka/support-console/internal/api"
	"github.com/zacharykka/support-console/internal/domain"
)

type replyMsg struct {
	gen    int
	userID string
	reply  *domain.GeneratedReply
	err    error
}

type playgroundPromptsMsg struct {
	gen     int
	prompts []domain.PromptVersion
	err     error
}

// playgroundModel 是测试生成效果的聊天演练场。
// 会话只存在于内存中，切出视图即丢弃。
type playgroundModel struct {
	backend Backend
	scope   *requestScope

	messages []domain.ChatMessage
	lastGen  *domain.GeneratedReply
	sending  bool

	vp    viewport.Model
	input textinput.Model
	spin  spinner.Model

	// 生成参数覆盖：nil 表示沿用后端启用版本的配置。
	prompts     []domain.PromptVersion
	promptIdx   int // 0 表示不指定，其后对应 prompts[promptIdx-1]
	temperature *int
	model       *string

	width  int
	height int
}

func newPlaygroundModel(parent context.Context, backend Backend) *playgroundModel {
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "输入客户问题..."
	input.CharLimit = 2000
	input.Width = 70
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(colorPrimary)

	vp := viewport.New(76, 16)

	return &playgroundModel{
		backend: backend,
		scope:   newRequestScope(parent),
		vp:      vp,
		input:   input,
		spin:    spin,
	}
}

func (m *playgroundModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.fetchPromptsCmd())
}

func (m *playgroundModel) unmount() {
	m.scope.cancel()
}

// capturesInput 输入框聚焦时吞掉全局快捷键，esc 可先移出焦点。
func (m *playgroundModel) capturesInput() bool {
	return m.input.Focused()
}

// fetchPromptsCmd 拉取 Prompt 列表供覆盖选择；失败不报错，
// 选择器保持为"跟随启用版本"。
func (m *playgroundModel) fetchPromptsCmd() tea.Cmd {
	ctx, gen := m.scope.ctx, m.scope.gen
	backend := m.backend
	return func() tea.Msg {
		prompts, err := backend.ListPrompts(ctx)
		return playgroundPromptsMsg{gen: gen, prompts: prompts, err: err}
	}
}

// sendCmd 在发送阶段乐观追加用户消息，再请求生成。
func (m *playgroundModel) sendCmd() tea.Cmd {
	content := strings.TrimSpace(m.input.Value())
	if content == "" || m.sending {
		return nil
	}

	userMsg := domain.ChatMessage{
		ID:        uuid.NewString(),
		Role:      domain.ChatRoleUser,
		Content:   content,
		Timestamp: time.Now().UnixMilli(),
	}
	m.messages = append(m.messages, userMsg)
	m.input.SetValue("")
	m.sending = true
	m.refreshViewport()

	in := api.GenerateInput{Content: content}
	if m.promptIdx > 0 && m.promptIdx <= len(m.prompts) {
		id := m.prompts[m.promptIdx-1].ID
		in.PromptID = &id
	}
	if m.temperature != nil {
		t := *m.temperature
		in.Temperature = &t
	}
	if m.model != nil {
		model := *m.model
		in.Model = &model
	}

	ctx, gen := m.scope.ctx, m.scope.gen
	backend := m.backend
	return tea.Batch(m.spin.Tick, func() tea.Msg {
		reply, err := backend.GenerateReply(ctx, in)
		return replyMsg{gen: gen, userID: userMsg.ID, reply: reply, err: err}
	})
}

// clearContext 丢弃当前会话，不发起任何网络请求。
func (m *playgroundModel) clearContext() {
	m.scope.renew()
	m.messages = nil
	m.lastGen = nil
	m.sending = false
	m.refreshViewport()
}

func (m *playgroundModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !m.sending {
			return nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return cmd

	case playgroundPromptsMsg:
		if m.scope.stale(msg.gen) || msg.err != nil {
			return nil
		}
		m.prompts = msg.prompts
		if m.promptIdx > len(m.prompts) {
			m.promptIdx = 0
		}
		return nil

	case replyMsg:
		if m.scope.stale(msg.gen) {
			return nil
		}
		m.sending = false
		if msg.err != nil {
			// 生成失败在气泡上原样可见，不再被静默吞掉。
			m.markFailed(msg.userID, msg.err)
			m.refreshViewport()
			return nil
		}
		m.lastGen = msg.reply
		m.messages = append(m.messages, msg.reply.ChatMessage)
		m.refreshViewport()
		return nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.vp.Width = min(msg.Width-30, 90)
		m.vp.Height = max(msg.Height-12, 6)
		m.refreshViewport()
		return nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return nil
}

func (m *playgroundModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.input.Focused() {
		switch msg.String() {
		case "esc":
			m.input.Blur()
			return nil
		case "enter":
			return m.sendCmd()
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return cmd
	}

	switch msg.String() {
	case "i", "enter":
		m.input.Focus()
		return textinput.Blink
	case "x":
		m.clearContext()
	case "p":
		m.promptIdx = (m.promptIdx + 1) % (len(m.prompts) + 1)
	case "t":
		m.cycleTemperature()
	case "m":
		m.cycleModel()
	case "up", "k":
		m.vp.LineUp(1)
	case "down", "j":
		m.vp.LineDown(1)
	case "pgup":
		m.vp.HalfViewUp()
	case "pgdown":
		m.vp.HalfViewDown()
	}
	return nil
}

// cycleTemperature 循环 跟随配置 → 0.0 → 0.3 → 0.7 → 1.0 → 跟随配置。
func (m *playgroundModel) cycleTemperature() {
	steps := []int{0, 3, 7, 10}
	if m.temperature == nil {
		v := steps[0]
		m.temperature = &v
		return
	}
	for i, s := range steps {
		if *m.temperature == s {
			if i == len(steps)-1 {
				m.temperature = nil
			} else {
				v := steps[i+1]
				m.temperature = &v
			}
			return
		}
	}
	m.temperature = nil
}

// cycleModel 循环 跟随配置 → gpt-4o-mini → gpt-4o → 跟随配置。
func (m *playgroundModel) cycleModel() {
	models := []string{domain.DefaultModel, "gpt-4o"}
	if m.model == nil {
		m.model = &models[0]
		return
	}
	for i := range models {
		if *m.model == models[i] && i < len(models)-1 {
			m.model = &models[i+1]
			return
		}
	}
	m.model = nil
}

func (m *playgroundModel) markFailed(userID string, err error) {
	for i := range m.messages {
		if m.messages[i].ID == userID {
			m.messages[i].Failed = true
			m.messages[i].Content += "\n" + bannerErrorStyle.Render("发送失败: "+describeError(err))
			return
		}
	}
}

func (m *playgroundModel) refreshViewport() {
	var bubbles []string
	for _, msg := range m.messages {
		switch {
		case msg.Failed:
			bubbles = append(bubbles, failedBubbleStyle.Render(msg.Content))
		case msg.Role == domain.ChatRoleUser:
			bubbles = append(bubbles, lipgloss.PlaceHorizontal(m.vp.Width, lipgloss.Right,
				userBubbleStyle.Render(msg.Content)))
		default:
			body := msg.Content
			if msg.Confidence != nil {
				body += "\n" + confidenceBar(*msg.Confidence)
			}
			bubbles = append(bubbles, assistantBubbleStyle.Render(body))
		}
	}
	m.vp.SetContent(strings.Join(bubbles, "\n\n"))
	m.vp.GotoBottom()
}

// confidenceBar 以百分比加条形图展示回复置信度。
func confidenceBar(c float64) string {
	if c < 0 {
		c = 0
	}
	if c > 1 {
		c = 1
	}
	filled := int(c*10 + 0.5)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)
	return subtitleStyle.Render(fmt.Sprintf("置信度 %3.0f%% %s", c*100, bar))
}

func (m *playgroundModel) View(width, height int) string {
	sections := []string{titleStyle.Render("Playground")}

	chat := []string{m.vp.View()}
	if m.sending {
		chat = append(chat, m.spin.View()+subtitleStyle.Render(" 正在生成回复..."))
	}
	chat = append(chat, "", m.input.View())
	left := cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, chat...))

	body := lipgloss.JoinHorizontal(lipgloss.Top, left, " ", m.renderSidePanel())
	sections = append(sections, "", body, "", helpStyle.Render(m.help()))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *playgroundModel) help() string {
	if m.input.Focused() {
		return "enter 发送 • esc 离开输入框"
	}
	return "i 输入 • x 清空会话 • p 切换 Prompt • t 温度 • m 模型 • ↑/↓ 滚动"
}

// renderSidePanel 展示生成参数与最近一次回复的 RAG 上下文。
func (m *playgroundModel) renderSidePanel() string {
	promptLabel := "跟随启用版本"
	if m.promptIdx > 0 && m.promptIdx <= len(m.prompts) {
		promptLabel = truncate(m.prompts[m.promptIdx-1].Name, 20)
	}
	tempLabel := "跟随配置"
	if m.temperature != nil {
		tempLabel = domain.FormatTemperature(*m.temperature)
	}
	modelLabel := "跟随配置"
	if m.model != nil {
		modelLabel = *m.model
	}

	lines := []string{
		subtitleStyle.Render("生成参数"),
		"Prompt  " + promptLabel,
		"温度    " + tempLabel,
		"模型    " + modelLabel,
	}

	if m.lastGen != nil {
		lines = append(lines, "", subtitleStyle.Render("最近一次生成"))
		if m.lastGen.IntentDetected != nil {
			lines = append(lines, "意图    "+*m.lastGen.IntentDetected)
		}
		if m.lastGen.LatencyMs != nil {
			lines = append(lines, fmt.Sprintf("耗时    %dms", *m.lastGen.LatencyMs))
		}
		if len(m.lastGen.Recommendations) > 0 {
			lines = append(lines, "", subtitleStyle.Render("建议"))
			for _, r := range m.lastGen.Recommendations {
				lines = append(lines, "• "+truncate(r, 26))
			}
		}
		if len(m.lastGen.ContextSources) > 0 {
			lines = append(lines, "", subtitleStyle.Render("命中来源"))
			for _, src := range m.lastGen.ContextSources {
				lines = append(lines,
					fmt.Sprintf("%.2f %s", src.Score, truncate(src.Source, 20)),
					subtitleStyle.Render("  "+truncate(src.Content, 26)),
				)
			}
		}
	}

	return detailStyle.Width(32).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
