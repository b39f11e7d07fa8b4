package ui

import (
	"context"
	"net/http"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/zacharykka/support-console/internal/api"
	"github.com/zacharykka/support-console/internal/domain"
)

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loadedPrompts(m *promptsModel, prompts ...domain.PromptVersion) {
	m.Update(promptsLoadedMsg{gen: m.scope.gen, prompts: prompts})
}

func TestPromptsLoadedPopulatesList(t *testing.T) {
	m := newPromptsModel(context.Background(), &stubBackend{}, adminUser())

	loadedPrompts(m, tenantPrompt(1, "greeting", true), tenantPrompt(2, "billing", false))

	if m.loading {
		t.Fatalf("expected loading to be cleared")
	}
	if len(m.prompts) != 2 {
		t.Fatalf("expected 2 prompts, got %d", len(m.prompts))
	}
	if m.state != promptsList {
		t.Fatalf("expected list state, got %v", m.state)
	}
}

func TestPromptsStaleLoadDropped(t *testing.T) {
	m := newPromptsModel(context.Background(), &stubBackend{}, adminUser())
	oldGen := m.scope.gen
	m.scope.renew()

	m.Update(promptsLoadedMsg{gen: oldGen, prompts: []domain.PromptVersion{tenantPrompt(1, "stale", false)}})

	if len(m.prompts) != 0 {
		t.Fatalf("stale response must not populate the list")
	}
}

func TestPromptsOpenDetailAndBack(t *testing.T) {
	m := newPromptsModel(context.Background(), &stubBackend{}, adminUser())
	loadedPrompts(m, tenantPrompt(1, "greeting", true), tenantPrompt(2, "billing", false))

	m.Update(keyRunes("j"))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if m.state != promptsViewing {
		t.Fatalf("expected viewing state, got %v", m.state)
	}
	if m.selected != 2 {
		t.Fatalf("expected prompt 2 selected, got %d", m.selected)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.state != promptsList || m.selected != 0 {
		t.Fatalf("esc should return to list with no selection, state=%v selected=%d", m.state, m.selected)
	}
}

func TestPromptsCreateFlowSelectsNewRecord(t *testing.T) {
	created := tenantPrompt(9, "fresh", false)
	backend := &stubBackend{
		createPromptFn: func(_ context.Context, in domain.PromptVersionCreate) (*domain.PromptVersion, error) {
			if in.Name != "fresh" {
				t.Fatalf("unexpected create name %q", in.Name)
			}
			return &created, nil
		},
	}
	m := newPromptsModel(context.Background(), backend, adminUser())
	loadedPrompts(m)

	m.Update(keyRunes("n"))
	if m.state != promptsEditingNew {
		t.Fatalf("expected new-edit state, got %v", m.state)
	}
	if got := m.form.version.Value(); got != domain.DefaultPromptVersion {
		t.Fatalf("expected default version %q, got %q", domain.DefaultPromptVersion, got)
	}
	if got := m.form.model.Value(); got != domain.DefaultModel {
		t.Fatalf("expected default model %q, got %q", domain.DefaultModel, got)
	}

	m.form.name.SetValue("fresh")
	m.form.system.SetValue("你是客服助手")
	if cmd := m.saveCmd(); cmd == nil {
		t.Fatalf("expected save command for a valid form")
	}

	m.Update(promptSavedMsg{gen: m.scope.gen, created: true, prompt: &created})

	if m.state != promptsViewing {
		t.Fatalf("expected viewing state after create, got %v", m.state)
	}
	if m.selected != 9 {
		t.Fatalf("expected new record selected, got %d", m.selected)
	}
	if !m.loading {
		t.Fatalf("expected a refetch after create")
	}
	if m.successTxt == "" {
		t.Fatalf("expected success banner after create")
	}
}

func TestPromptsSaveGateBlocksInvalidForm(t *testing.T) {
	m := newPromptsModel(context.Background(), &stubBackend{}, adminUser())
	loadedPrompts(m)
	m.Update(keyRunes("n"))

	cases := []struct {
		name  string
		setup func()
	}{
		{"blank name", func() {
			m.form.name.SetValue("   ")
			m.form.system.SetValue("body")
		}},
		{"blank system prompt", func() {
			m.form.name.SetValue("ok")
			m.form.system.SetValue("  ")
		}},
		{"temperature out of range", func() {
			m.form.name.SetValue("ok")
			m.form.system.SetValue("body")
			m.form.temperature.SetValue("11")
		}},
		{"non-positive max tokens", func() {
			m.form.name.SetValue("ok")
			m.form.system.SetValue("body")
			m.form.temperature.SetValue("3")
			m.form.maxTokens.SetValue("0")
		}},
	}
	for _, tc := range cases {
		tc.setup()
		if cmd := m.saveCmd(); cmd != nil {
			t.Fatalf("%s: expected save to be blocked", tc.name)
		}
		if m.saving {
			t.Fatalf("%s: blocked save must not flip saving", tc.name)
		}
	}
}

func TestPromptsNonAdminHasNoMutations(t *testing.T) {
	m := newPromptsModel(context.Background(), &stubBackend{}, agentUser())
	loadedPrompts(m, tenantPrompt(1, "greeting", true))

	m.Update(keyRunes("n"))
	if m.state != promptsList {
		t.Fatalf("support agent must not open the create form")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	for _, key := range []string{"e", "d", "c"} {
		m.Update(keyRunes(key))
		if m.state != promptsViewing {
			t.Fatalf("key %q must be a no-op for support agent, state=%v", key, m.state)
		}
	}
	if cmd := m.Update(keyRunes("a")); cmd != nil || m.saving {
		t.Fatalf("support agent must not activate prompts")
	}
}

func TestPromptsGlobalRecordOnlyDuplicable(t *testing.T) {
	m := newPromptsModel(context.Background(), &stubBackend{}, adminUser())
	loadedPrompts(m, globalPrompt(3, "baseline"))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	m.Update(keyRunes("e"))
	if m.state != promptsViewing {
		t.Fatalf("global prompt must not be editable")
	}
	m.Update(keyRunes("d"))
	if m.state != promptsViewing {
		t.Fatalf("global prompt must not be deletable")
	}

	m.Update(keyRunes("c"))
	if m.state != promptsDuplicating {
		t.Fatalf("global prompt should support duplication, state=%v", m.state)
	}
	if got := m.dupInput.Value(); got != "Copy of baseline" {
		t.Fatalf("expected prefilled duplicate name, got %q", got)
	}
}

func TestPromptsDuplicateBlankNameRejected(t *testing.T) {
	calls := 0
	backend := &stubBackend{
		duplicateFn: func(context.Context, int64, string) (*domain.PromptVersion, error) {
			calls++
			return nil, nil
		},
	}
	m := newPromptsModel(context.Background(), backend, adminUser())
	loadedPrompts(m, globalPrompt(3, "baseline"))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(keyRunes("c"))

	m.dupInput.SetValue("   ")
	if cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Fatalf("blank name must not produce a duplicate command")
	}
	if m.saving {
		t.Fatalf("blocked duplicate must not flip saving")
	}
	if calls != 0 {
		t.Fatalf("blocked duplicate must not hit the backend")
	}
	if m.state != promptsDuplicating {
		t.Fatalf("blocked duplicate should keep the naming modal open, got %v", m.state)
	}
}

func TestPromptsSaveWithoutRecordIsAnError(t *testing.T) {
	m := newPromptsModel(context.Background(), &stubBackend{}, adminUser())
	loadedPrompts(m)
	m.Update(keyRunes("n"))

	m.saving = true
	m.Update(promptSavedMsg{gen: m.scope.gen, created: true})

	if m.state != promptsEditingNew {
		t.Fatalf("missing record must keep the edit state, got %v", m.state)
	}
	if m.errText == "" {
		t.Fatalf("expected error banner for a missing record")
	}
}

func TestPromptsDuplicateWithoutRecordIsAnError(t *testing.T) {
	m := newPromptsModel(context.Background(), &stubBackend{}, adminUser())
	loadedPrompts(m, globalPrompt(3, "baseline"))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(keyRunes("c"))

	m.saving = true
	m.Update(promptDuplicatedMsg{gen: m.scope.gen})

	if m.state != promptsViewing {
		t.Fatalf("missing record should close the modal back to viewing, got %v", m.state)
	}
	if m.errText == "" {
		t.Fatalf("expected error banner for a missing record")
	}
}

func TestPromptsUnauthorizedShowsSessionHint(t *testing.T) {
	m := newPromptsModel(context.Background(), &stubBackend{}, adminUser())

	m.Update(promptsLoadedMsg{gen: m.scope.gen, err: &api.Error{StatusCode: http.StatusUnauthorized, Detail: "Could not validate credentials"}})

	if !strings.Contains(m.errText, "重新登录") {
		t.Fatalf("401 should prompt a re-login, got %q", m.errText)
	}
}

func TestPromptsDeleteConfirmFlow(t *testing.T) {
	deleted := false
	backend := &stubBackend{
		deletePromptFn: func(_ context.Context, id int64) error {
			deleted = true
			if id != 1 {
				t.Fatalf("unexpected delete id %d", id)
			}
			return nil
		},
	}
	m := newPromptsModel(context.Background(), backend, adminUser())
	loadedPrompts(m, tenantPrompt(1, "greeting", false))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	m.Update(keyRunes("d"))
	if m.state != promptsConfirmDelete {
		t.Fatalf("expected delete confirmation, got %v", m.state)
	}

	m.Update(keyRunes("n"))
	if m.state != promptsViewing {
		t.Fatalf("n must cancel the confirmation")
	}
	if deleted {
		t.Fatalf("cancelled confirmation must not delete")
	}

	m.Update(keyRunes("d"))
	if cmd := m.Update(keyRunes("y")); cmd == nil {
		t.Fatalf("expected delete command on confirm")
	}
	if !m.saving {
		t.Fatalf("delete must mark the view as busy")
	}

	m.Update(promptDeletedMsg{gen: m.scope.gen})
	if m.state != promptsList || m.selected != 0 {
		t.Fatalf("successful delete should return to list, state=%v selected=%d", m.state, m.selected)
	}
	if !m.loading {
		t.Fatalf("expected a refetch after delete")
	}
}

func TestPromptsUpdateFailureKeepsBuffer(t *testing.T) {
	m := newPromptsModel(context.Background(), &stubBackend{}, adminUser())
	loadedPrompts(m, tenantPrompt(1, "greeting", false))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(keyRunes("e"))

	m.form.name.SetValue("renamed")
	m.saving = true
	m.Update(promptSavedMsg{gen: m.scope.gen, err: context.DeadlineExceeded})

	if m.state != promptsEditingExisting {
		t.Fatalf("failed save must stay in the edit state, got %v", m.state)
	}
	if got := m.form.name.Value(); got != "renamed" {
		t.Fatalf("failed save must keep the form buffer, got %q", got)
	}
	if m.errText == "" {
		t.Fatalf("expected error banner after failed save")
	}
}

func TestPromptsActivateRefetchesServerState(t *testing.T) {
	m := newPromptsModel(context.Background(), &stubBackend{}, adminUser())
	loadedPrompts(m, tenantPrompt(1, "greeting", false), tenantPrompt(2, "billing", true))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if cmd := m.Update(keyRunes("a")); cmd == nil {
		t.Fatalf("expected activation command")
	}
	if m.prompts[0].IsActive {
		t.Fatalf("activation must not flip flags locally")
	}

	m.Update(promptActivatedMsg{gen: m.scope.gen})
	if !m.loading {
		t.Fatalf("expected a refetch after activation")
	}
	if m.successTxt == "" {
		t.Fatalf("expected success banner after activation")
	}
}

func TestPromptsBannerExpiryByGeneration(t *testing.T) {
	m := newPromptsModel(context.Background(), &stubBackend{}, adminUser())

	m.showError("first")
	firstGen := m.errGen
	m.showError("second")

	m.Update(bannerExpiredMsg{kind: bannerError, gen: firstGen})
	if m.errText != "second" {
		t.Fatalf("expiry of an older banner must not clear the newer one, got %q", m.errText)
	}

	m.Update(bannerExpiredMsg{kind: bannerError, gen: m.errGen})
	if m.errText != "" {
		t.Fatalf("expected banner to clear, got %q", m.errText)
	}
}

func TestPromptsTemplateTabsShareBuffer(t *testing.T) {
	m := newPromptsModel(context.Background(), &stubBackend{}, adminUser())
	loadedPrompts(m)
	m.Update(keyRunes("n"))

	m.form.system.SetValue("system body")
	m.form.cycleTemplateTab()
	if m.form.templateTab != tabContextTemplate {
		t.Fatalf("expected context tab, got %d", m.form.templateTab)
	}
	m.form.context.SetValue("context body")
	m.form.cycleTemplateTab()
	m.form.cycleTemplateTab()

	if got := m.form.system.Value(); got != "system body" {
		t.Fatalf("tab switch must not drop system buffer, got %q", got)
	}
	if got := m.form.context.Value(); got != "context body" {
		t.Fatalf("tab switch must not drop context buffer, got %q", got)
	}
}

func TestPromptsEditingCapturesInput(t *testing.T) {
	m := newPromptsModel(context.Background(), &stubBackend{}, adminUser())
	loadedPrompts(m, tenantPrompt(1, "greeting", false))

	if m.capturesInput() {
		t.Fatalf("list state must not capture input")
	}
	m.Update(keyRunes("n"))
	if !m.capturesInput() {
		t.Fatalf("edit state must capture input")
	}
}

func TestPromptsViewRendersTemperatureScaled(t *testing.T) {
	m := newPromptsModel(context.Background(), &stubBackend{}, adminUser())
	p := tenantPrompt(1, "greeting", false)
	p.Temperature = 7
	loadedPrompts(m, p)
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	out := m.View(120, 40)
	if !strings.Contains(out, "0.7") {
		t.Fatalf("detail view should render temperature as 0.7")
	}
	if strings.Contains(out, "温度        7") {
		t.Fatalf("detail view must not render the raw integer temperature")
	}
}
