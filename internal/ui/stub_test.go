package ui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/zacharykka/support-console/internal/api"
	"github.com/zacharykka/support-console/internal/domain"
)

// runCmd 同步执行命令并递归展开批量消息，供测试驱动异步回调。
func runCmd(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, sub := range batch {
			out = append(out, runCmd(t, sub)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

// stubBackend 以函数字段逐方法打桩，未设置的方法返回零值。
type stubBackend struct {
	loginFn         func(ctx context.Context, email, password string) (*domain.User, error)
	logoutFn        func(ctx context.Context) error
	authenticatedFn func(ctx context.Context) bool
	currentUserFn   func(ctx context.Context) *domain.User
	healthFn        func(ctx context.Context) domain.SystemStatus
	listPromptsFn   func(ctx context.Context) ([]domain.PromptVersion, error)
	createPromptFn  func(ctx context.Context, in domain.PromptVersionCreate) (*domain.PromptVersion, error)
	updatePromptFn  func(ctx context.Context, id int64, in domain.PromptVersionUpdate) (*domain.PromptVersion, error)
	deletePromptFn  func(ctx context.Context, id int64) error
	setActiveFn     func(ctx context.Context, id int64) (*domain.PromptVersion, error)
	duplicateFn     func(ctx context.Context, id int64, newName string) (*domain.PromptVersion, error)
	knowledgeBaseFn func(ctx context.Context) ([]domain.KnowledgeBaseItem, error)
	generateReplyFn func(ctx context.Context, in api.GenerateInput) (*domain.GeneratedReply, error)
}

func (s *stubBackend) Login(ctx context.Context, email, password string) (*domain.User, error) {
	if s.loginFn != nil {
		return s.loginFn(ctx, email, password)
	}
	return nil, nil
}

func (s *stubBackend) Logout(ctx context.Context) error {
	if s.logoutFn != nil {
		return s.logoutFn(ctx)
	}
	return nil
}

func (s *stubBackend) IsAuthenticated(ctx context.Context) bool {
	if s.authenticatedFn != nil {
		return s.authenticatedFn(ctx)
	}
	return false
}

func (s *stubBackend) CurrentUser(ctx context.Context) *domain.User {
	if s.currentUserFn != nil {
		return s.currentUserFn(ctx)
	}
	return nil
}

func (s *stubBackend) SessionExpiry(ctx context.Context) (time.Time, bool) {
	return time.Time{}, false
}

func (s *stubBackend) Health(ctx context.Context) domain.SystemStatus {
	if s.healthFn != nil {
		return s.healthFn(ctx)
	}
	return domain.SystemStatus{Status: domain.StatusDown, Uptime: "-"}
}

func (s *stubBackend) ListPrompts(ctx context.Context) ([]domain.PromptVersion, error) {
	if s.listPromptsFn != nil {
		return s.listPromptsFn(ctx)
	}
	return nil, nil
}

func (s *stubBackend) CreatePrompt(ctx context.Context, in domain.PromptVersionCreate) (*domain.PromptVersion, error) {
	if s.createPromptFn != nil {
		return s.createPromptFn(ctx, in)
	}
	return nil, nil
}

func (s *stubBackend) UpdatePrompt(ctx context.Context, id int64, in domain.PromptVersionUpdate) (*domain.PromptVersion, error) {
	if s.updatePromptFn != nil {
		return s.updatePromptFn(ctx, id, in)
	}
	return nil, nil
}

func (s *stubBackend) DeletePrompt(ctx context.Context, id int64) error {
	if s.deletePromptFn != nil {
		return s.deletePromptFn(ctx, id)
	}
	return nil
}

func (s *stubBackend) SetActivePrompt(ctx context.Context, id int64) (*domain.PromptVersion, error) {
	if s.setActiveFn != nil {
		return s.setActiveFn(ctx, id)
	}
	return nil, nil
}

func (s *stubBackend) DuplicatePrompt(ctx context.Context, id int64, newName string) (*domain.PromptVersion, error) {
	if s.duplicateFn != nil {
		return s.duplicateFn(ctx, id, newName)
	}
	return nil, nil
}

func (s *stubBackend) KnowledgeBase(ctx context.Context) ([]domain.KnowledgeBaseItem, error) {
	if s.knowledgeBaseFn != nil {
		return s.knowledgeBaseFn(ctx)
	}
	return nil, nil
}

func (s *stubBackend) GenerateReply(ctx context.Context, in api.GenerateInput) (*domain.GeneratedReply, error) {
	if s.generateReplyFn != nil {
		return s.generateReplyFn(ctx, in)
	}
	return nil, nil
}

var _ Backend = (*stubBackend)(nil)

func adminUser() domain.User {
	return domain.User{ID: 1, Email: "admin@example.com", Name: "Admin", TenantID: 7, Role: domain.RoleAdmin}
}

func agentUser() domain.User {
	return domain.User{ID: 2, Email: "agent@example.com", Name: "Agent", TenantID: 7, Role: domain.RoleSupportAgent}
}

func tenantPrompt(id int64, name string, active bool) domain.PromptVersion {
	tenant := int64(7)
	return domain.PromptVersion{
		ID:           id,
		TenantID:     &tenant,
		Version:      "custom",
		Name:         name,
		SystemPrompt: "你是客服助手",
		Model:        domain.DefaultModel,
		Temperature:  domain.DefaultTemperature,
		MaxTokens:    domain.DefaultMaxTokens,
		IsActive:     active,
		UpdatedAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func globalPrompt(id int64, name string) domain.PromptVersion {
	p := tenantPrompt(id, name, false)
	p.TenantID = nil
	return p
}
