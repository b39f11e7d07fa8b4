package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/zacharykka/support-console/internal/api"
	"github.com/zacharykka/support-console/internal/domain"
)

func assistantReply(content string) *domain.GeneratedReply {
	confidence := 0.92
	latency := int64(640)
	return &domain.GeneratedReply{
		ChatMessage: domain.ChatMessage{
			ID:         "srv-1",
			Role:       domain.ChatRoleAssistant,
			Content:    content,
			Confidence: &confidence,
			Timestamp:  time.Now().UnixMilli(),
		},
		LatencyMs: &latency,
	}
}

func TestPlaygroundBlankSendIgnored(t *testing.T) {
	m := newPlaygroundModel(context.Background(), &stubBackend{})

	m.input.SetValue("   ")
	if cmd := m.sendCmd(); cmd != nil {
		t.Fatalf("blank input must not produce a send command")
	}
	if len(m.messages) != 0 {
		t.Fatalf("blank input must not append a message")
	}
}

func TestPlaygroundSendAppendsUserMessageOptimistically(t *testing.T) {
	m := newPlaygroundModel(context.Background(), &stubBackend{})

	m.input.SetValue("退款多久到账？")
	if cmd := m.sendCmd(); cmd == nil {
		t.Fatalf("expected a send command")
	}

	if len(m.messages) != 1 {
		t.Fatalf("expected one optimistic message, got %d", len(m.messages))
	}
	msg := m.messages[0]
	if msg.Role != domain.ChatRoleUser {
		t.Fatalf("expected user role, got %q", msg.Role)
	}
	if msg.ID == "" {
		t.Fatalf("optimistic message needs a local id")
	}
	if !m.sending {
		t.Fatalf("send must mark the view as busy")
	}
	if m.input.Value() != "" {
		t.Fatalf("send must clear the input")
	}
}

func TestPlaygroundSecondSendBlockedWhileBusy(t *testing.T) {
	m := newPlaygroundModel(context.Background(), &stubBackend{})

	m.input.SetValue("第一条")
	m.sendCmd()
	m.input.SetValue("第二条")
	if cmd := m.sendCmd(); cmd != nil {
		t.Fatalf("in-flight send must block further sends")
	}
	if len(m.messages) != 1 {
		t.Fatalf("blocked send must not append, got %d messages", len(m.messages))
	}
}

func TestPlaygroundReplyAppendsAssistantMessage(t *testing.T) {
	m := newPlaygroundModel(context.Background(), &stubBackend{})
	m.input.SetValue("退款多久到账？")
	m.sendCmd()
	userID := m.messages[0].ID

	m.Update(replyMsg{gen: m.scope.gen, userID: userID, reply: assistantReply("3-5 个工作日内原路退回。")})

	if m.sending {
		t.Fatalf("reply must clear the busy flag")
	}
	if len(m.messages) != 2 {
		t.Fatalf("expected user and assistant messages, got %d", len(m.messages))
	}
	if m.messages[1].Role != domain.ChatRoleAssistant {
		t.Fatalf("expected assistant role, got %q", m.messages[1].Role)
	}
	if m.lastGen == nil || m.lastGen.LatencyMs == nil {
		t.Fatalf("reply metadata should be kept for the side panel")
	}
}

func TestPlaygroundFailureMarksUserMessage(t *testing.T) {
	m := newPlaygroundModel(context.Background(), &stubBackend{})
	m.input.SetValue("查订单")
	m.sendCmd()
	userID := m.messages[0].ID

	m.Update(replyMsg{gen: m.scope.gen, userID: userID, err: errors.New("rate limit exceeded")})

	if m.sending {
		t.Fatalf("failure must clear the busy flag")
	}
	if len(m.messages) != 1 {
		t.Fatalf("failure must not append an assistant message")
	}
	if !m.messages[0].Failed {
		t.Fatalf("failed request must mark the user message")
	}
	if !strings.Contains(m.messages[0].Content, "rate limit exceeded") {
		t.Fatalf("error text must be visible on the message, got %q", m.messages[0].Content)
	}
}

func TestPlaygroundStaleReplyDropped(t *testing.T) {
	m := newPlaygroundModel(context.Background(), &stubBackend{})
	m.input.SetValue("查订单")
	m.sendCmd()
	oldGen := m.scope.gen

	m.clearContext()
	m.Update(replyMsg{gen: oldGen, userID: "gone", reply: assistantReply("迟到的回复")})

	if len(m.messages) != 0 {
		t.Fatalf("stale reply must not surface after the context was cleared")
	}
}

func TestPlaygroundClearContextIsLocal(t *testing.T) {
	calls := 0
	backend := &stubBackend{
		generateReplyFn: func(context.Context, api.GenerateInput) (*domain.GeneratedReply, error) {
			calls++
			return assistantReply("ok"), nil
		},
	}
	m := newPlaygroundModel(context.Background(), backend)
	m.messages = append(m.messages, domain.ChatMessage{ID: "a", Role: domain.ChatRoleUser, Content: "hi"})
	m.lastGen = assistantReply("ok")

	m.clearContext()

	if len(m.messages) != 0 || m.lastGen != nil {
		t.Fatalf("clear must drop the local transcript")
	}
	if calls != 0 {
		t.Fatalf("clear must not hit the backend")
	}
}

func TestPlaygroundEscTogglesInputCapture(t *testing.T) {
	m := newPlaygroundModel(context.Background(), &stubBackend{})
	if !m.capturesInput() {
		t.Fatalf("input starts focused")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.capturesInput() {
		t.Fatalf("esc must blur the input")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("i")})
	if !m.capturesInput() {
		t.Fatalf("i must refocus the input")
	}
}

func TestPlaygroundTemperatureOverrideCycle(t *testing.T) {
	m := newPlaygroundModel(context.Background(), &stubBackend{})

	want := []int{0, 3, 7, 10}
	for _, step := range want {
		m.cycleTemperature()
		if m.temperature == nil || *m.temperature != step {
			t.Fatalf("expected override %d, got %v", step, m.temperature)
		}
	}
	m.cycleTemperature()
	if m.temperature != nil {
		t.Fatalf("cycle must return to the follow-config default")
	}
}

func TestPlaygroundPromptOverrideInPayload(t *testing.T) {
	var gotPromptID *int64
	backend := &stubBackend{
		generateReplyFn: func(_ context.Context, in api.GenerateInput) (*domain.GeneratedReply, error) {
			gotPromptID = in.PromptID
			return assistantReply("ok"), nil
		},
	}
	m := newPlaygroundModel(context.Background(), backend)
	m.prompts = []domain.PromptVersion{tenantPrompt(5, "greeting", true)}
	m.promptIdx = 1

	m.input.SetValue("hi")
	cmd := m.sendCmd()
	if cmd == nil {
		t.Fatalf("expected a send command")
	}
	runCmd(t, cmd)

	if gotPromptID == nil || *gotPromptID != 5 {
		t.Fatalf("expected prompt override 5 in the payload, got %v", gotPromptID)
	}
}
