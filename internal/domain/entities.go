package domain

import (
	"encoding/json"
	"strconv"
	"time"
)

// 用户角色常量，与后端 role 字段保持一致。
const (
	RoleAdmin        = "admin"
	RoleSupportAgent = "support_agent"
	RoleManager      = "manager"
)

// 对话消息角色常量。
const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// 系统健康状态常量。
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
	StatusDown     = "down"
)

// 知识库文档索引状态常量。
const (
	KBStatusIndexed  = "indexed"
	KBStatusIndexing = "indexing"
	KBStatusError    = "error"
)

// 新建 Prompt 表单的默认取值，与后端 PromptVersionCreate 的缺省值一致。
const (
	DefaultPromptVersion = "custom"
	DefaultModel         = "gpt-4o-mini"
	DefaultTemperature   = 3
	DefaultMaxTokens     = 1000
)

// User 代表当前登录的操作主体，登录时由后端 profile 映射而来。
type User struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	TenantID int64  `json:"tenant_id"`
	Role     string `json:"role"`
}

// IsAdmin 判断用户是否具备管理员权限。
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// PromptVersion 是核心配置实体：模型、温度、token 预算与三段模板。
// TenantID 为空表示全局共享 Prompt，仅可通过复制派生，不可原地编辑。
type PromptVersion struct {
	ID                 int64           `json:"id"`
	TenantID           *int64          `json:"tenant_id"`
	Version            string          `json:"version"`
	Name               string          `json:"name"`
	Description        *string         `json:"description,omitempty"`
	SystemPrompt       string          `json:"system_prompt"`
	ContextTemplate    string          `json:"context_template"`
	TaskTemplate       string          `json:"task_template"`
	Model              string          `json:"model"`
	Temperature        int             `json:"temperature"`
	MaxTokens          int             `json:"max_tokens"`
	IsActive           bool            `json:"is_active"`
	IsDefault          bool            `json:"is_default"`
	PerformanceMetrics json.RawMessage `json:"performance_metrics,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// IsGlobal 判断是否为全局共享 Prompt（不归属任何租户）。
func (p PromptVersion) IsGlobal() bool {
	return p.TenantID == nil
}

// PromptVersionCreate 定义创建 Prompt 的请求载荷。
type PromptVersionCreate struct {
	Name            string `json:"name"`
	Version         string `json:"version"`
	Description     string `json:"description"`
	SystemPrompt    string `json:"system_prompt"`
	ContextTemplate string `json:"context_template"`
	TaskTemplate    string `json:"task_template"`
	Model           string `json:"model"`
	Temperature     int    `json:"temperature"`
	MaxTokens       int    `json:"max_tokens"`
}

// PromptVersionUpdate 定义更新 Prompt 的可选字段，未设置的字段不会下发。
type PromptVersionUpdate struct {
	Name            *string `json:"name,omitempty"`
	Description     *string `json:"description,omitempty"`
	SystemPrompt    *string `json:"system_prompt,omitempty"`
	ContextTemplate *string `json:"context_template,omitempty"`
	TaskTemplate    *string `json:"task_template,omitempty"`
	Model           *string `json:"model,omitempty"`
	Temperature     *int    `json:"temperature,omitempty"`
	MaxTokens       *int    `json:"max_tokens,omitempty"`
}

// KnowledgeBaseItem 描述一条已索引的知识库文档，本系统视角下只读。
type KnowledgeBaseItem struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	Size         string `json:"size"`
	Status       string `json:"status"`
	LastModified string `json:"lastModified"`
}

// ChatMessage 表示演练场会话中的一条消息，仅存在于当前会话内存中。
type ChatMessage struct {
	ID         string   `json:"id"`
	Role       string   `json:"role"`
	Content    string   `json:"content"`
	Confidence *float64 `json:"confidence,omitempty"`
	Timestamp  int64    `json:"timestamp"`

	// Failed 标记该条用户消息对应的生成请求已失败，仅用于本地展示。
	Failed bool `json:"-"`
}

// ContextSource 是生成回复时命中的一条知识来源摘要。
type ContextSource struct {
	Content string  `json:"content"`
	Score   float64 `json:"score"`
	Source  string  `json:"source"`
}

// GeneratedReply 是 playground 生成接口的完整响应，除消息本身外
// 还携带意图识别、建议与 RAG 命中来源等附加信息。
type GeneratedReply struct {
	ChatMessage
	IntentDetected  *string         `json:"intent_detected,omitempty"`
	Recommendations []string        `json:"recommendations,omitempty"`
	ContextSources  []ContextSource `json:"context_sources,omitempty"`
	LatencyMs       *int64          `json:"latency_ms,omitempty"`
}

// SystemStatus 描述后端健康概览，仅在视图挂载时拉取一次。
type SystemStatus struct {
	Status       string `json:"status"`
	Uptime       string `json:"uptime"`
	Latency      int    `json:"latency"`
	ActiveAgents int    `json:"activeAgents"`
}

// FormatTemperature 将存储值（0-10 的整数）转换为展示值（一位小数）。
// 存储 7 显示 "0.7"，存储 0 显示 "0.0"。
func FormatTemperature(t int) string {
	return strconv.FormatFloat(float64(t)/10, 'f', 1, 64)
}
