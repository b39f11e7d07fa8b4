package ui

import (
	"context"
	"time"

	"github.com/zacharykka/support-console/internal/api"
	"github.com/zacharykka/support-console/internal/domain"
)

// Backend 是视图层对 API 客户端的依赖面，按消费方需要裁剪。
// *api.Client 是唯一的生产实现，测试中以桩替代。
type Backend interface {
	Login(ctx context.Context, email, password string) (*domain.User, error)
	Logout(ctx context.Context) error
	IsAuthenticated(ctx context.Context) bool
	CurrentUser(ctx context.Context) *domain.User
	SessionExpiry(ctx context.Context) (time.Time, bool)

	Health(ctx context.Context) domain.SystemStatus

	ListPrompts(ctx context.Context) ([]domain.PromptVersion, error)
	CreatePrompt(ctx context.Context, in domain.PromptVersionCreate) (*domain.PromptVersion, error)
	UpdatePrompt(ctx context.Context, id int64, in domain.PromptVersionUpdate) (*domain.PromptVersion, error)
	DeletePrompt(ctx context.Context, id int64) error
	SetActivePrompt(ctx context.Context, id int64) (*domain.PromptVersion, error)
	DuplicatePrompt(ctx context.Context, id int64, newName string) (*domain.PromptVersion, error)

	KnowledgeBase(ctx context.Context) ([]domain.KnowledgeBaseItem, error)
	GenerateReply(ctx context.Context, in api.GenerateInput) (*domain.GeneratedReply, error)
}

var _ Backend = (*api.Client)(nil)

// describeError 把后端错误转成横幅文案；401 统一提示重新登录，
// 其余错误原样透出后端的 detail 信息。
func describeError(err error) string {
	if api.IsUnauthorized(err) {
		return "登录已失效，请退出后重新登录"
	}
	return err.Error()
}
