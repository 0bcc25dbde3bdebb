package publisher

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"smm-planner/internal/domain"
)

func TestWebhookPublishSuccess(t *testing.T) {
	var received webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("не смогли разобрать payload: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true, "url": "https://www.linkedin.com/feed/update/1"}`))
	}))
	defer server.Close()

	pub := NewWebhook(map[string]string{"LinkedIn": server.URL}, time.Second, zerolog.Nop())

	scheduled := time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC)
	post := domain.Post{
		ID:          uuid.New(),
		BrandID:     uuid.New(),
		Text:        "Как мы ускорили выкладку в два раза.",
		Meta:        domain.PostMeta{PillarKey: "product", FormatKey: "case"},
		ScheduledAt: &scheduled,
	}

	result, err := pub.Publish(post, "linkedin")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !result.OK {
		t.Fatalf("ожидали успешную публикацию")
	}
	if result.URL != "https://www.linkedin.com/feed/update/1" {
		t.Fatalf("неожиданная ссылка: %q", result.URL)
	}

	if received.PostID != post.ID.String() {
		t.Fatalf("неожиданный post_id: %q", received.PostID)
	}
	if received.Platform != "linkedin" {
		t.Fatalf("неожиданная платформа: %q", received.Platform)
	}
	if received.Text != post.Text {
		t.Fatalf("неожиданный текст: %q", received.Text)
	}
	if received.PillarKey != "product" || received.FormatKey != "case" {
		t.Fatalf("метаданные потерялись: %+v", received)
	}
	if received.ScheduledAt == nil || !received.ScheduledAt.Equal(scheduled) {
		t.Fatalf("неожиданный scheduled_at: %v", received.ScheduledAt)
	}
}

func TestWebhookPublishEmptyBodyMeansAccepted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	pub := NewWebhook(map[string]string{"linkedin": server.URL}, time.Second, zerolog.Nop())

	result, err := pub.Publish(domain.Post{ID: uuid.New(), Text: "Черновик."}, "linkedin")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !result.OK {
		t.Fatalf("ответ 2xx без тела должен считаться успехом")
	}
	if result.URL != "" {
		t.Fatalf("не ожидали ссылку, получили %q", result.URL)
	}
}

func TestWebhookPublishExplicitReject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok": false}`))
	}))
	defer server.Close()

	pub := NewWebhook(map[string]string{"linkedin": server.URL}, time.Second, zerolog.Nop())

	result, err := pub.Publish(domain.Post{ID: uuid.New(), Text: "Черновик."}, "linkedin")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if result.OK {
		t.Fatalf("ok=false в ответе должен давать отказ")
	}
}

func TestWebhookPublishServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	pub := NewWebhook(map[string]string{"linkedin": server.URL}, time.Second, zerolog.Nop())

	if _, err := pub.Publish(domain.Post{ID: uuid.New(), Text: "Черновик."}, "linkedin"); err == nil {
		t.Fatalf("ожидали ошибку для статуса 500")
	}
}

func TestWebhookPublishNotConfigured(t *testing.T) {
	pub := NewWebhook(map[string]string{"linkedin": "https://example.com/hook"}, time.Second, zerolog.Nop())

	_, err := pub.Publish(domain.Post{ID: uuid.New(), Text: "Черновик."}, "mastodon")
	if !errors.Is(err, ErrWebhookNotConfigured) {
		t.Fatalf("ожидали ErrWebhookNotConfigured, получили %v", err)
	}
}
