package publisher

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"smm-planner/internal/domain"
	"smm-planner/internal/infra/metrics"
)

// ErrWebhookNotConfigured возвращается, если для платформы не задан URL.
var ErrWebhookNotConfigured = errors.New("для платформы не настроен webhook")

// Webhook публикует посты POST-запросом на URL, настроенный для платформы.
// Подходит для интеграций вроде Zapier или собственных коннекторов LinkedIn.
type Webhook struct {
	http     *http.Client
	webhooks map[string]string
	log      zerolog.Logger
}

var _ domain.Publisher = (*Webhook)(nil)

// NewWebhook создаёт издателя поверх настроенных webhook-адресов платформ.
func NewWebhook(webhooks map[string]string, timeout time.Duration, log zerolog.Logger) *Webhook {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	normalized := make(map[string]string, len(webhooks))
	for platform, url := range webhooks {
		normalized[strings.ToLower(strings.TrimSpace(platform))] = strings.TrimSpace(url)
	}
	return &Webhook{
		http:     &http.Client{Timeout: timeout},
		webhooks: normalized,
		log:      log,
	}
}

type webhookPayload struct {
	PostID      string     `json:"post_id"`
	BrandID     string     `json:"brand_id"`
	Platform    string     `json:"platform"`
	Text        string     `json:"text"`
	PillarKey   string     `json:"pillar_key,omitempty"`
	FormatKey   string     `json:"format_key,omitempty"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

type webhookResponse struct {
	OK  *bool  `json:"ok"`
	URL string `json:"url"`
}

// Publish отправляет пост на webhook платформы. Успехом считается любой
// ответ 2xx, если тело явно не сообщает ok=false.
func (w *Webhook) Publish(post domain.Post, platform string) (domain.PublishResult, error) {
	url, ok := w.webhooks[strings.ToLower(platform)]
	if !ok || url == "" {
		return domain.PublishResult{}, fmt.Errorf("%w: %s", ErrWebhookNotConfigured, platform)
	}

	body, err := json.Marshal(webhookPayload{
		PostID:      post.ID.String(),
		BrandID:     post.BrandID.String(),
		Platform:    platform,
		Text:        post.Text,
		PillarKey:   post.Meta.PillarKey,
		FormatKey:   post.Meta.FormatKey,
		ScheduledAt: post.ScheduledAt,
	})
	if err != nil {
		return domain.PublishResult{}, fmt.Errorf("webhook: marshal payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return domain.PublishResult{}, fmt.Errorf("webhook: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := w.http.Do(req)
	metrics.ObserveNetworkRequest("webhook", "publish", platform, start, err)
	if err != nil {
		return domain.PublishResult{}, fmt.Errorf("webhook %s: %w", platform, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.PublishResult{}, fmt.Errorf("webhook %s: чтение ответа: %w", platform, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.PublishResult{}, fmt.Errorf("webhook %s: неожиданный статус %d", platform, resp.StatusCode)
	}

	result := domain.PublishResult{OK: true}
	var parsed webhookResponse
	if err := json.Unmarshal(respBody, &parsed); err == nil {
		if parsed.OK != nil {
			result.OK = *parsed.OK
		}
		result.URL = strings.TrimSpace(parsed.URL)
	}
	return result, nil
}
