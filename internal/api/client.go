package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zacharykka/support-console/internal/domain"
	"github.com/zacharykka/support-console/internal/session"
	"go.uber.org/zap"
)

// 演练场请求的固定主题标识，后端以此区分演练流量与真实工单。
const playgroundSubject = "Playground Query"

// Client 是后端 REST API 的唯一访问入口。
// 除健康检查外，所有失败都会原样上抛给调用方，由视图层决定呈现方式。
type Client struct {
	baseURL string
	hc      *http.Client
	store   *session.Store
	logger  *zap.Logger
}

// NewClient 构造 API 客户端。timeout 为 0 表示不限制单次请求时长。
func NewClient(baseURL string, timeout time.Duration, store *session.Store, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: timeout},
		store:   store,
		logger:  logger,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// profileResponse 是后端 /auth/me 的返回结构。
type profileResponse struct {
	ID       int64   `json:"id"`
	Email    string  `json:"email"`
	FullName *string `json:"full_name"`
	TenantID int64   `json:"tenant_id"`
	Role     string  `json:"role"`
}

// Login 以表单凭证换取令牌，再拉取用户档案并持久化两者。
// 凭证被拒或档案拉取失败时整体失败，不留下部分会话。
func (c *Client) Login(ctx context.Context, email, password string) (*domain.User, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeError(resp)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}

	profile, err := c.fetchProfile(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}

	user := mapProfile(profile)
	if err := c.store.Save(ctx, token.AccessToken, user); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	c.logger.Info("login succeeded", zap.String("email", user.Email), zap.String("role", user.Role))
	return &user, nil
}

func (c *Client) fetchProfile(ctx context.Context, token string) (*profileResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/me", nil)
	if err != nil {
		return nil, fmt.Errorf("build profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeError(resp)
	}

	var profile profileResponse
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &profile, nil
}

// mapProfile 将后端档案映射为本地 User，展示名缺失时回退为邮箱。
func mapProfile(p *profileResponse) domain.User {
	name := p.Email
	if p.FullName != nil && strings.TrimSpace(*p.FullName) != "" {
		name = *p.FullName
	}
	return domain.User{
		ID:       p.ID,
		Email:    p.Email,
		Name:     name,
		TenantID: p.TenantID,
		Role:     p.Role,
	}
}

// Logout 清除本地会话，不发起网络调用。
func (c *Client) Logout(ctx context.Context) error {
	return c.store.Clear(ctx)
}

// IsAuthenticated 判断本地是否持有令牌。
func (c *Client) IsAuthenticated(ctx context.Context) bool {
	return c.store.IsAuthenticated(ctx)
}

// CurrentUser 返回持久化的用户档案，缺失或损坏时为 nil。
func (c *Client) CurrentUser(ctx context.Context) *domain.User {
	return c.store.CurrentUser(ctx)
}

// SessionExpiry 返回当前令牌的过期时间，仅用于展示。
func (c *Client) SessionExpiry(ctx context.Context) (time.Time, bool) {
	token, err := c.store.Token(ctx)
	if err != nil || token == "" {
		return time.Time{}, false
	}
	return session.TokenExpiry(token)
}

// Health 拉取系统健康概览。任何失败都降级为固定的 down 状态，
// 保证仪表盘永远可渲染。
func (c *Client) Health(ctx context.Context) domain.SystemStatus {
	var status domain.SystemStatus
	if err := c.do(ctx, http.MethodGet, "/health", nil, &status); err != nil {
		c.logger.Warn("health check failed, using fallback", zap.Error(err))
		return domain.SystemStatus{Status: domain.StatusDown, Uptime: "-"}
	}
	return status
}

// ListPrompts 返回全部可见的 Prompt 版本（全局 + 租户）。
func (c *Client) ListPrompts(ctx context.Context) ([]domain.PromptVersion, error) {
	var prompts []domain.PromptVersion
	if err := c.do(ctx, http.MethodGet, "/prompts", nil, &prompts); err != nil {
		return nil, err
	}
	return prompts, nil
}

// GetPrompt 返回指定 Prompt 版本。
func (c *Client) GetPrompt(ctx context.Context, id int64) (*domain.PromptVersion, error) {
	var prompt domain.PromptVersion
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/prompts/%d", id), nil, &prompt); err != nil {
		return nil, err
	}
	return &prompt, nil
}

// ActivePrompt 返回当前启用的 Prompt 版本。
func (c *Client) ActivePrompt(ctx context.Context) (*domain.PromptVersion, error) {
	var prompt domain.PromptVersion
	if err := c.do(ctx, http.MethodGet, "/prompts/active", nil, &prompt); err != nil {
		return nil, err
	}
	return &prompt, nil
}

// SetActivePrompt 将指定 Prompt 设为启用版本。唯一性由后端保证，
// 调用方必须重新拉取列表而不是在本地翻转 is_active。
func (c *Client) SetActivePrompt(ctx context.Context, id int64) (*domain.PromptVersion, error) {
	payload := map[string]int64{"prompt_id": id}
	var prompt domain.PromptVersion
	if err := c.do(ctx, http.MethodPost, "/prompts/active", payload, &prompt); err != nil {
		return nil, err
	}
	return &prompt, nil
}

// CreatePrompt 创建新的可编辑 Prompt 版本。
func (c *Client) CreatePrompt(ctx context.Context, in domain.PromptVersionCreate) (*domain.PromptVersion, error) {
	var prompt domain.PromptVersion
	if err := c.do(ctx, http.MethodPost, "/prompts", in, &prompt); err != nil {
		return nil, err
	}
	return &prompt, nil
}

// UpdatePrompt 更新租户自有的 Prompt 版本。
func (c *Client) UpdatePrompt(ctx context.Context, id int64, in domain.PromptVersionUpdate) (*domain.PromptVersion, error) {
	var prompt domain.PromptVersion
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/prompts/%d", id), in, &prompt); err != nil {
		return nil, err
	}
	return &prompt, nil
}

// DeletePrompt 删除租户自有的 Prompt 版本。
func (c *Client) DeletePrompt(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/prompts/%d", id), nil, nil)
}

// DuplicatePrompt 以新名称复制既有 Prompt（含全局 Prompt），返回副本。
func (c *Client) DuplicatePrompt(ctx context.Context, id int64, newName string) (*domain.PromptVersion, error) {
	payload := map[string]interface{}{
		"prompt_id": id,
		"new_name":  newName,
	}
	var prompt domain.PromptVersion
	if err := c.do(ctx, http.MethodPost, "/prompts/duplicate", payload, &prompt); err != nil {
		return nil, err
	}
	return &prompt, nil
}

// KnowledgeBase 返回已索引的知识库文档列表。
func (c *Client) KnowledgeBase(ctx context.Context) ([]domain.KnowledgeBaseItem, error) {
	var items []domain.KnowledgeBaseItem
	if err := c.do(ctx, http.MethodGet, "/kb", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GenerateInput 描述一次演练场生成请求，可选字段覆盖当前启用配置。
type GenerateInput struct {
	Content     string
	PromptID    *int64
	Temperature *int
	Model       *string
}

type generateRequest struct {
	Subject      string  `json:"subject"`
	Content      string  `json:"content"`
	UseReranking bool    `json:"use_reranking"`
	PromptID     *int64  `json:"prompt_id,omitempty"`
	Temperature  *int    `json:"temperature,omitempty"`
	Model        *string `json:"model,omitempty"`
}

// GenerateReply 调用回复生成接口并返回助手消息与 RAG 附加信息。
func (c *Client) GenerateReply(ctx context.Context, in GenerateInput) (*domain.GeneratedReply, error) {
	payload := generateRequest{
		Subject:      playgroundSubject,
		Content:      in.Content,
		UseReranking: true,
		PromptID:     in.PromptID,
		Temperature:  in.Temperature,
		Model:        in.Model,
	}

	var reply domain.GeneratedReply
	if err := c.do(ctx, http.MethodPost, "/playground/generate", payload, &reply); err != nil {
		return nil, err
	}
	if reply.Role == "" {
		reply.Role = domain.ChatRoleAssistant
	}
	return &reply, nil
}

// do 执行一次 JSON 请求：附加令牌与内容类型，解码响应或映射错误。
func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token, err := c.store.Token(ctx); err == nil && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	started := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	c.logger.Debug("api request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(started)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response for %s %s: %w", method, path, err)
	}
	return nil
}

// decodeError 将非 2xx 响应映射为 *Error，优先使用后端的 detail 文本。
func decodeError(resp *http.Response) error {
	apiErr := &Error{StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return apiErr
	}

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && len(envelope.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(envelope.Detail, &detail); err == nil {
			apiErr.Detail = detail
		}
	}
	return apiErr
}
