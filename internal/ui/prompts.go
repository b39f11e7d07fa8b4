package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zacharykka/support-console/internal/domain"
)

// 横幅自动消失的延迟：错误 5 秒，成功 3 秒。
const (
	errorBannerTTL   = 5 * time.Second
	successBannerTTL = 3 * time.Second
)

// promptsState 枚举 Prompt 管理视图的全部状态，
// 取代松散标志位，杜绝可达但非法的组合。
type promptsState int

const (
	// promptsList 无选中记录，整屏网格。
	promptsList promptsState = iota
	// promptsViewing 选中某条记录，主从分栏只读。
	promptsViewing
	// promptsEditingNew 新建表单（选中态为 new 哨兵）。
	promptsEditingNew
	// promptsEditingExisting 编辑选中记录的表单缓冲。
	promptsEditingExisting
	// promptsConfirmDelete 删除确认，覆盖在 Viewing 之上。
	promptsConfirmDelete
	// promptsDuplicating 复制命名弹层，覆盖在 Viewing 之上。
	promptsDuplicating
)

// 模板字段的页签序号：三段模板共用同一表单缓冲，切换页签不丢失编辑。
const (
	tabSystemPrompt = iota
	tabContextTemplate
	tabTaskTemplate
)

type promptsLoadedMsg struct {
	gen     int
	prompts []domain.PromptVersion
	err     error
}

type promptSavedMsg struct {
	gen     int
	created bool
	prompt  *domain.PromptVersion
	err     error
}

type promptDeletedMsg struct {
	gen int
	err error
}

type promptActivatedMsg struct {
	gen int
	err error
}

type promptDuplicatedMsg struct {
	gen    int
	prompt *domain.PromptVersion
	err    error
}

type bannerKind int

const (
	bannerError bannerKind = iota
	bannerSuccess
)

type bannerExpiredMsg struct {
	kind bannerKind
	gen  int
}

// promptForm 是 detail-edit 状态的表单缓冲。三个模板字段同时存在，
// 页签只控制可见性。
type promptForm struct {
	name        textinput.Model
	version     textinput.Model
	description textinput.Model
	model       textinput.Model
	temperature textinput.Model
	maxTokens   textinput.Model

	system  textarea.Model
	context textarea.Model
	task    textarea.Model

	templateTab int
	focus       int
}

// 表单焦点顺序：六个单行字段之后是当前页签的模板编辑区。
const (
	focusName = iota
	focusVersion
	focusDescription
	focusModel
	focusTemperature
	focusMaxTokens
	focusTemplate
	formFieldCount
)

func newPromptForm() *promptForm {
	mk := func(prompt string, width int) textinput.Model {
		ti := textinput.New()
		ti.Prompt = prompt
		ti.Width = width
		ti.CharLimit = 256
		return ti
	}
	mkArea := func(placeholder string) textarea.Model {
		ta := textarea.New()
		ta.Placeholder = placeholder
		ta.CharLimit = 0
		ta.ShowLineNumbers = false
		ta.SetWidth(64)
		ta.SetHeight(8)
		return ta
	}

	f := &promptForm{
		name:        mk("名称      > ", 40),
		version:     mk("版本      > ", 16),
		description: mk("描述      > ", 40),
		model:       mk("模型      > ", 24),
		temperature: mk("温度(0-10)> ", 6),
		maxTokens:   mk("max_tokens> ", 8),
		system:      mkArea("system prompt..."),
		context:     mkArea("context template..."),
		task:        mkArea("task template..."),
	}
	f.reset()
	return f
}

// reset 恢复新建表单的默认值。
func (f *promptForm) reset() {
	f.name.SetValue("")
	f.version.SetValue(domain.DefaultPromptVersion)
	f.description.SetValue("")
	f.model.SetValue(domain.DefaultModel)
	f.temperature.SetValue(strconv.Itoa(domain.DefaultTemperature))
	f.maxTokens.SetValue(strconv.Itoa(domain.DefaultMaxTokens))
	f.system.SetValue("")
	f.context.SetValue("")
	f.task.SetValue("")
	f.templateTab = tabSystemPrompt
	f.setFocus(focusName)
}

// loadFrom 把选中记录的可编辑字段拷贝进缓冲。
func (f *promptForm) loadFrom(p domain.PromptVersion) {
	f.name.SetValue(p.Name)
	f.version.SetValue(p.Version)
	if p.Description != nil {
		f.description.SetValue(*p.Description)
	} else {
		f.description.SetValue("")
	}
	f.model.SetValue(p.Model)
	f.temperature.SetValue(strconv.Itoa(p.Temperature))
	f.maxTokens.SetValue(strconv.Itoa(p.MaxTokens))
	f.system.SetValue(p.SystemPrompt)
	f.context.SetValue(p.ContextTemplate)
	f.task.SetValue(p.TaskTemplate)
	f.templateTab = tabSystemPrompt
	f.setFocus(focusName)
}

func (f *promptForm) setFocus(idx int) {
	f.focus = idx
	inputs := []*textinput.Model{&f.name, &f.version, &f.description, &f.model, &f.temperature, &f.maxTokens}
	for i, ti := range inputs {
		if i == idx {
			ti.Focus()
		} else {
			ti.Blur()
		}
	}
	areas := []*textarea.Model{&f.system, &f.context, &f.task}
	for i, ta := range areas {
		if idx == focusTemplate && i == f.templateTab {
			ta.Focus()
		} else {
			ta.Blur()
		}
	}
}

// cycleTemplateTab 轮换模板页签；其余两段的未保存编辑保持在缓冲中。
func (f *promptForm) cycleTemplateTab() {
	f.templateTab = (f.templateTab + 1) % 3
	if f.focus == focusTemplate {
		f.setFocus(focusTemplate)
	}
}

func (f *promptForm) activeTemplate() *textarea.Model {
	switch f.templateTab {
	case tabContextTemplate:
		return &f.context
	case tabTaskTemplate:
		return &f.task
	default:
		return &f.system
	}
}

// update 把按键转发给当前聚焦的字段。
func (f *promptForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch f.focus {
	case focusName:
		f.name, cmd = f.name.Update(msg)
	case focusVersion:
		f.version, cmd = f.version.Update(msg)
	case focusDescription:
		f.description, cmd = f.description.Update(msg)
	case focusModel:
		f.model, cmd = f.model.Update(msg)
	case focusTemperature:
		f.temperature, cmd = f.temperature.Update(msg)
	case focusMaxTokens:
		f.maxTokens, cmd = f.maxTokens.Update(msg)
	case focusTemplate:
		area := f.activeTemplate()
		*area, cmd = area.Update(msg)
	}
	return cmd
}

// invalidReason 返回表单不可保存的原因；镜像服务端的必填校验。
func (f *promptForm) invalidReason() string {
	if strings.TrimSpace(f.name.Value()) == "" {
		return "名称不能为空"
	}
	if strings.TrimSpace(f.system.Value()) == "" {
		return "system prompt 不能为空"
	}
	if _, ok := parseTemperature(f.temperature.Value()); !ok {
		return "温度必须是 0-10 的整数"
	}
	if _, ok := parseMaxTokens(f.maxTokens.Value()); !ok {
		return "max_tokens 必须是正整数"
	}
	return ""
}

func parseTemperature(raw string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v < 0 || v > 10 {
		return 0, false
	}
	return v, true
}

func parseMaxTokens(raw string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// promptsModel 实现 Prompt 管理的主从视图与生命周期工作流。
type promptsModel struct {
	backend Backend
	user    domain.User
	scope   *requestScope

	state    promptsState
	prompts  []domain.PromptVersion
	cursor   int
	selected int64

	loading bool
	saving  bool

	form     *promptForm
	dupInput textinput.Model

	errText    string
	errGen     int
	successTxt string
	successGen int

	spin spinner.Model
}

func newPromptsModel(parent context.Context, backend Backend, user domain.User) *promptsModel {
	dup := textinput.New()
	dup.Prompt = "新名称 > "
	dup.Width = 40
	dup.CharLimit = 128

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(colorPrimary)

	return &promptsModel{
		backend:  backend,
		user:     user,
		scope:    newRequestScope(parent),
		state:    promptsList,
		loading:  true,
		form:     newPromptForm(),
		dupInput: dup,
		spin:     spin,
	}
}

func (m *promptsModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.fetchCmd())
}

func (m *promptsModel) unmount() {
	m.scope.cancel()
}

func (m *promptsModel) capturesInput() bool {
	switch m.state {
	case promptsEditingNew, promptsEditingExisting, promptsDuplicating:
		return true
	default:
		return false
	}
}

// isAdmin 控制新建/编辑/删除/复制入口的可见性。
func (m *promptsModel) isAdmin() bool {
	return m.user.IsAdmin()
}

// canMutate 判断选中记录是否允许原地编辑与删除：
// 全局 Prompt 只能复制派生，不能改动。
func (m *promptsModel) canMutate(p domain.PromptVersion) bool {
	return m.isAdmin() && !p.IsGlobal()
}

func (m *promptsModel) selectedPrompt() *domain.PromptVersion {
	for i := range m.prompts {
		if m.prompts[i].ID == m.selected {
			return &m.prompts[i]
		}
	}
	return nil
}

// ---- 命令 ----

func (m *promptsModel) fetchCmd() tea.Cmd {
	ctx, gen := m.scope.ctx, m.scope.gen
	backend := m.backend
	return func() tea.Msg {
		prompts, err := backend.ListPrompts(ctx)
		return promptsLoadedMsg{gen: gen, prompts: prompts, err: err}
	}
}

// refetchCmd 在变更完成后重新拉取列表，以服务端状态为准。
func (m *promptsModel) refetchCmd() tea.Cmd {
	m.scope.renew()
	m.loading = true
	return tea.Batch(m.spin.Tick, m.fetchCmd())
}

func (m *promptsModel) saveCmd() tea.Cmd {
	if m.saving || m.form.invalidReason() != "" {
		return nil
	}
	m.saving = true

	temperature, _ := parseTemperature(m.form.temperature.Value())
	maxTokens, _ := parseMaxTokens(m.form.maxTokens.Value())
	name := strings.TrimSpace(m.form.name.Value())
	version := strings.TrimSpace(m.form.version.Value())
	description := strings.TrimSpace(m.form.description.Value())
	model := strings.TrimSpace(m.form.model.Value())
	system := m.form.system.Value()
	contextTpl := m.form.context.Value()
	task := m.form.task.Value()

	ctx, gen := m.scope.ctx, m.scope.gen
	backend := m.backend

	if m.state == promptsEditingNew {
		in := domain.PromptVersionCreate{
			Name:            name,
			Version:         version,
			Description:     description,
			SystemPrompt:    system,
			ContextTemplate: contextTpl,
			TaskTemplate:    task,
			Model:           model,
			Temperature:     temperature,
			MaxTokens:       maxTokens,
		}
		return tea.Batch(m.spin.Tick, func() tea.Msg {
			prompt, err := backend.CreatePrompt(ctx, in)
			return promptSavedMsg{gen: gen, created: true, prompt: prompt, err: err}
		})
	}

	id := m.selected
	in := domain.PromptVersionUpdate{
		Name:            &name,
		Description:     &description,
		SystemPrompt:    &system,
		ContextTemplate: &contextTpl,
		TaskTemplate:    &task,
		Model:           &model,
		Temperature:     &temperature,
		MaxTokens:       &maxTokens,
	}
	return tea.Batch(m.spin.Tick, func() tea.Msg {
		prompt, err := backend.UpdatePrompt(ctx, id, in)
		return promptSavedMsg{gen: gen, prompt: prompt, err: err}
	})
}

func (m *promptsModel) deleteCmd() tea.Cmd {
	if m.saving {
		return nil
	}
	m.saving = true
	ctx, gen := m.scope.ctx, m.scope.gen
	backend := m.backend
	id := m.selected
	return tea.Batch(m.spin.Tick, func() tea.Msg {
		return promptDeletedMsg{gen: gen, err: backend.DeletePrompt(ctx, id)}
	})
}

func (m *promptsModel) activateCmd() tea.Cmd {
	if m.saving {
		return nil
	}
	m.saving = true
	ctx, gen := m.scope.ctx, m.scope.gen
	backend := m.backend
	id := m.selected
	return tea.Batch(m.spin.Tick, func() tea.Msg {
		_, err := backend.SetActivePrompt(ctx, id)
		return promptActivatedMsg{gen: gen, err: err}
	})
}

func (m *promptsModel) duplicateCmd() tea.Cmd {
	newName := strings.TrimSpace(m.dupInput.Value())
	if m.saving || newName == "" {
		return nil
	}
	m.saving = true
	ctx, gen := m.scope.ctx, m.scope.gen
	backend := m.backend
	id := m.selected
	return tea.Batch(m.spin.Tick, func() tea.Msg {
		prompt, err := backend.DuplicatePrompt(ctx, id, newName)
		return promptDuplicatedMsg{gen: gen, prompt: prompt, err: err}
	})
}

// ---- 横幅 ----

func (m *promptsModel) showError(text string) tea.Cmd {
	m.errText = text
	m.errGen++
	gen := m.errGen
	return tea.Tick(errorBannerTTL, func(time.Time) tea.Msg {
		return bannerExpiredMsg{kind: bannerError, gen: gen}
	})
}

func (m *promptsModel) showSuccess(text string) tea.Cmd {
	m.successTxt = text
	m.successGen++
	gen := m.successGen
	return tea.Tick(successBannerTTL, func(time.Time) tea.Msg {
		return bannerExpiredMsg{kind: bannerSuccess, gen: gen}
	})
}

// ---- 状态迁移 ----

// openCreate 进入新建表单：选中态为 new 哨兵，表单重置为默认值。
func (m *promptsModel) openCreate() {
	if !m.isAdmin() {
		return
	}
	m.selected = 0
	m.form.reset()
	m.state = promptsEditingNew
}

// openDetail 选中一条记录进入只读详情，清除未完成的删除确认。
func (m *promptsModel) openDetail(id int64) {
	m.selected = id
	m.state = promptsViewing
	m.syncCursor()
}

// enterEdit 把选中记录拷入表单缓冲后进入编辑态。
func (m *promptsModel) enterEdit() {
	p := m.selectedPrompt()
	if p == nil || !m.canMutate(*p) {
		return
	}
	m.form.loadFrom(*p)
	m.state = promptsEditingExisting
}

// cancelEdit 丢弃缓冲：新建回到列表，编辑回到详情。
func (m *promptsModel) cancelEdit() {
	if m.state == promptsEditingNew {
		m.selected = 0
		m.state = promptsList
		return
	}
	m.state = promptsViewing
}

func (m *promptsModel) syncCursor() {
	for i := range m.prompts {
		if m.prompts[i].ID == m.selected {
			m.cursor = i
			return
		}
	}
	if m.cursor >= len(m.prompts) {
		m.cursor = len(m.prompts) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// ---- Update ----

func (m *promptsModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !m.loading && !m.saving {
			return nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return cmd

	case promptsLoadedMsg:
		if m.scope.stale(msg.gen) {
			return nil
		}
		m.loading = false
		if msg.err != nil {
			return m.showError(describeError(msg.err))
		}
		m.prompts = msg.prompts
		m.syncCursor()
		if m.state == promptsViewing && m.selectedPrompt() == nil {
			m.selected = 0
			m.state = promptsList
		}
		return nil

	case promptSavedMsg:
		if m.scope.stale(msg.gen) {
			return nil
		}
		m.saving = false
		if msg.err != nil {
			// 失败时停留在编辑态，缓冲不丢。
			return m.showError(describeError(msg.err))
		}
		if msg.prompt == nil {
			return m.showError("后端响应缺少保存后的记录")
		}
		m.selected = msg.prompt.ID
		m.state = promptsViewing
		text := "Prompt 已更新"
		if msg.created {
			text = "Prompt 已创建"
		}
		return tea.Batch(m.showSuccess(text), m.refetchCmd())

	case promptDeletedMsg:
		if m.scope.stale(msg.gen) {
			return nil
		}
		m.saving = false
		if msg.err != nil {
			m.state = promptsViewing
			return m.showError(describeError(msg.err))
		}
		m.selected = 0
		m.state = promptsList
		return tea.Batch(m.showSuccess("Prompt 已删除"), m.refetchCmd())

	case promptActivatedMsg:
		if m.scope.stale(msg.gen) {
			return nil
		}
		m.saving = false
		if msg.err != nil {
			return m.showError(describeError(msg.err))
		}
		// is_active 以重新拉取的服务端结果为准，绝不在本地翻转。
		return tea.Batch(m.showSuccess("已设为启用版本"), m.refetchCmd())

	case promptDuplicatedMsg:
		if m.scope.stale(msg.gen) {
			return nil
		}
		m.saving = false
		if msg.err != nil {
			m.state = promptsViewing
			return m.showError(describeError(msg.err))
		}
		if msg.prompt == nil {
			m.state = promptsViewing
			return m.showError("后端响应缺少复制出的记录")
		}
		m.selected = msg.prompt.ID
		m.state = promptsViewing
		return tea.Batch(m.showSuccess("已复制为 "+msg.prompt.Name), m.refetchCmd())

	case bannerExpiredMsg:
		switch msg.kind {
		case bannerError:
			if msg.gen == m.errGen {
				m.errText = ""
			}
		case bannerSuccess:
			if msg.gen == m.successGen {
				m.successTxt = ""
			}
		}
		return nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return nil
}

func (m *promptsModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch m.state {
	case promptsList:
		return m.handleListKey(msg)
	case promptsViewing:
		return m.handleViewingKey(msg)
	case promptsEditingNew, promptsEditingExisting:
		return m.handleEditingKey(msg)
	case promptsConfirmDelete:
		return m.handleConfirmDeleteKey(msg)
	case promptsDuplicating:
		return m.handleDuplicatingKey(msg)
	}
	return nil
}

func (m *promptsModel) handleListKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.prompts)-1 {
			m.cursor++
		}
	case "enter":
		if len(m.prompts) > 0 {
			m.openDetail(m.prompts[m.cursor].ID)
		}
	case "n":
		m.openCreate()
	case "r":
		if !m.loading {
			return m.refetchCmd()
		}
	}
	return nil
}

func (m *promptsModel) handleViewingKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.selected = 0
		m.state = promptsList
	case "up", "k":
		if m.cursor > 0 {
			m.openDetail(m.prompts[m.cursor-1].ID)
		}
	case "down", "j":
		if m.cursor < len(m.prompts)-1 {
			m.openDetail(m.prompts[m.cursor+1].ID)
		}
	case "e":
		m.enterEdit()
	case "n":
		m.openCreate()
	case "d":
		if p := m.selectedPrompt(); p != nil && m.canMutate(*p) {
			m.state = promptsConfirmDelete
		}
	case "a":
		if m.isAdmin() {
			return m.activateCmd()
		}
	case "c":
		if p := m.selectedPrompt(); p != nil && m.isAdmin() {
			m.dupInput.SetValue("Copy of " + p.Name)
			m.dupInput.CursorEnd()
			m.dupInput.Focus()
			m.state = promptsDuplicating
		}
	}
	return nil
}

func (m *promptsModel) handleEditingKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.cancelEdit()
		return nil
	case "ctrl+s":
		return m.saveCmd()
	case "ctrl+t":
		m.form.cycleTemplateTab()
		return nil
	case "tab":
		m.form.setFocus((m.form.focus + 1) % formFieldCount)
		return nil
	case "shift+tab":
		m.form.setFocus((m.form.focus + formFieldCount - 1) % formFieldCount)
		return nil
	}
	return m.form.update(msg)
}

func (m *promptsModel) handleConfirmDeleteKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "enter":
		return m.deleteCmd()
	case "n", "esc":
		m.state = promptsViewing
	}
	return nil
}

func (m *promptsModel) handleDuplicatingKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.state = promptsViewing
		return nil
	case "enter":
		return m.duplicateCmd()
	}
	var cmd tea.Cmd
	m.dupInput, cmd = m.dupInput.Update(msg)
	return cmd
}

// ---- View ----

func (m *promptsModel) View(width, height int) string {
	var sections []string
	sections = append(sections, titleStyle.Render("Prompt Engineering"))

	if m.errText != "" {
		sections = append(sections, bannerErrorStyle.Render(m.errText))
	}
	if m.successTxt != "" {
		sections = append(sections, bannerSuccessStyle.Render(m.successTxt))
	}

	switch {
	case m.loading && len(m.prompts) == 0:
		sections = append(sections, "", m.spin.View()+subtitleStyle.Render(" 正在加载 Prompt 列表..."))
	case len(m.prompts) == 0 && m.state == promptsList:
		empty := "暂无 Prompt 版本。"
		if m.isAdmin() {
			empty += " 按 n 新建。"
		}
		sections = append(sections, "", subtitleStyle.Render(empty))
	case m.state == promptsList:
		sections = append(sections, "", m.renderGrid(), "", helpStyle.Render(m.listHelp()))
	case m.state == promptsEditingNew:
		sections = append(sections, "", m.renderForm("新建 Prompt"))
	case m.state == promptsEditingExisting:
		sections = append(sections, "", m.renderForm("编辑 Prompt"))
	default:
		sections = append(sections, "", m.renderMasterDetail(), "", helpStyle.Render(m.detailHelp()))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *promptsModel) listHelp() string {
	help := "↑/↓ 移动 • enter 查看 • r 刷新"
	if m.isAdmin() {
		help += " • n 新建"
	}
	return help
}

func (m *promptsModel) detailHelp() string {
	p := m.selectedPrompt()
	help := "↑/↓ 切换 • esc 返回列表"
	if p != nil && m.isAdmin() {
		help += " • a 设为启用 • c 复制"
		if m.canMutate(*p) {
			help += " • e 编辑 • d 删除"
		}
	}
	return help
}

// renderGrid 无选中时整屏网格，每行三张卡片。
func (m *promptsModel) renderGrid() string {
	var rows []string
	var row []string
	for i, p := range m.prompts {
		style := cardStyle
		if i == m.cursor {
			style = cardSelectedStyle
		}
		row = append(row, style.Render(m.renderCardBody(p, 34)))
		if len(row) == 3 {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *promptsModel) renderCardBody(p domain.PromptVersion, width int) string {
	name := truncate(p.Name, width)
	badges := promptBadges(p)
	desc := ""
	if p.Description != nil {
		desc = truncate(*p.Description, width)
	}
	meta := fmt.Sprintf("%s • %s • temp %s",
		p.Version, p.Model, domain.FormatTemperature(p.Temperature))
	updated := subtitleStyle.Render(p.UpdatedAt.Format("2006-01-02"))

	lines := []string{titleStyle.Render(name)}
	if badges != "" {
		lines = append(lines, badges)
	}
	if desc != "" {
		lines = append(lines, subtitleStyle.Render(desc))
	}
	lines = append(lines, meta, updated)
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func promptBadges(p domain.PromptVersion) string {
	var badges []string
	if p.IsActive {
		badges = append(badges, activeBadgeStyle.Render("active"))
	}
	if p.IsGlobal() {
		badges = append(badges, globalBadgeStyle.Render("global"))
	}
	if p.IsDefault {
		badges = append(badges, defaultBadgeStyle.Render("default"))
	}
	return strings.Join(badges, " ")
}

// renderMasterDetail 有选中时切换为窄列表加详情分栏，纯渲染决策，
// 不触发额外拉取。
func (m *promptsModel) renderMasterDetail() string {
	var compact []string
	for _, p := range m.prompts {
		marker := "  "
		style := subtitleStyle
		if p.ID == m.selected {
			marker = "> "
			style = titleStyle
		}
		line := marker + truncate(p.Name, 24)
		if p.IsActive {
			line += " " + activeBadgeStyle.Render("A")
		}
		compact = append(compact, style.Render(line))
	}
	left := cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, compact...))

	var right string
	switch m.state {
	case promptsConfirmDelete:
		right = m.renderConfirmDelete()
	case promptsDuplicating:
		right = m.renderDuplicateModal()
	default:
		right = m.renderDetail()
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)
}

func (m *promptsModel) renderDetail() string {
	p := m.selectedPrompt()
	if p == nil {
		return detailStyle.Render(subtitleStyle.Render("未选中记录"))
	}

	lines := []string{
		lipgloss.JoinHorizontal(lipgloss.Center, titleStyle.Render(p.Name), " ", promptBadges(*p)),
	}
	if p.Description != nil && *p.Description != "" {
		lines = append(lines, subtitleStyle.Render(*p.Description))
	}
	owner := "global"
	if p.TenantID != nil {
		owner = fmt.Sprintf("tenant %d", *p.TenantID)
	}
	lines = append(lines, "",
		fmt.Sprintf("版本        %s", p.Version),
		fmt.Sprintf("模型        %s", p.Model),
		fmt.Sprintf("温度        %s", domain.FormatTemperature(p.Temperature)),
		fmt.Sprintf("max_tokens  %d", p.MaxTokens),
		fmt.Sprintf("归属        %s", owner),
		fmt.Sprintf("更新于      %s", p.UpdatedAt.Format("2006-01-02 15:04")),
		"",
		subtitleStyle.Render("system prompt"),
		truncate(p.SystemPrompt, 400),
		"",
		subtitleStyle.Render("context template"),
		truncate(p.ContextTemplate, 200),
		"",
		subtitleStyle.Render("task template"),
		truncate(p.TaskTemplate, 200),
	)
	if len(p.PerformanceMetrics) > 0 {
		lines = append(lines, "", subtitleStyle.Render("performance metrics"), truncate(string(p.PerformanceMetrics), 200))
	}
	if m.saving {
		lines = append(lines, "", m.spin.View()+subtitleStyle.Render(" 处理中..."))
	}
	return detailStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m *promptsModel) renderConfirmDelete() string {
	p := m.selectedPrompt()
	name := ""
	if p != nil {
		name = p.Name
	}
	lines := []string{
		titleStyle.Render("删除确认"),
		"",
		fmt.Sprintf("确定删除 %q 吗？此操作不可撤销。", name),
		"",
		helpStyle.Render("y 确认 • n 取消"),
	}
	if m.saving {
		lines = append(lines, "", m.spin.View()+subtitleStyle.Render(" 正在删除..."))
	}
	return detailStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m *promptsModel) renderDuplicateModal() string {
	lines := []string{
		titleStyle.Render("复制 Prompt"),
		"",
		m.dupInput.View(),
	}
	if strings.TrimSpace(m.dupInput.Value()) == "" {
		lines = append(lines, subtitleStyle.Render("新名称不能为空"))
	}
	lines = append(lines, "", helpStyle.Render("enter 复制 • esc 取消"))
	if m.saving {
		lines = append(lines, "", m.spin.View()+subtitleStyle.Render(" 正在复制..."))
	}
	return detailStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m *promptsModel) renderForm(header string) string {
	f := m.form

	tabs := make([]string, 3)
	labels := []string{"System", "Context", "Task"}
	for i, label := range labels {
		if i == f.templateTab {
			tabs[i] = navActiveStyle.Render(label)
		} else {
			tabs[i] = navInactiveStyle.Render(label)
		}
	}

	tempHint := ""
	if v, ok := parseTemperature(f.temperature.Value()); ok {
		tempHint = subtitleStyle.Render("  = " + domain.FormatTemperature(v))
	}

	lines := []string{
		titleStyle.Render(header),
		"",
		f.name.View(),
		f.version.View(),
		f.description.View(),
		f.model.View(),
		f.temperature.View() + tempHint,
		f.maxTokens.View(),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center, tabs...),
		f.activeTemplate().View(),
		"",
	}

	if reason := f.invalidReason(); reason != "" {
		lines = append(lines, bannerErrorStyle.Render("无法保存："+reason))
	} else if m.saving {
		lines = append(lines, m.spin.View()+subtitleStyle.Render(" 正在保存..."))
	} else {
		lines = append(lines, helpStyle.Render("ctrl+s 保存"))
	}
	lines = append(lines, helpStyle.Render("tab 下一项 • ctrl+t 切换模板页签 • esc 取消"))

	return detailStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// truncate 按字符截断并追加省略号。
func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
