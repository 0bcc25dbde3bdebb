package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"smm-planner/internal/domain"
	openai "smm-planner/internal/infra/openai"
)

type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAI реализует генератор постов через OpenAI Chat Completions.
type OpenAI struct {
	client  chatClient
	model   string
	timeout time.Duration
	log     zerolog.Logger
}

var _ domain.ContentGenerator = (*OpenAI)(nil)

// NewOpenAI создаёт провайдер генерации текстов.
func NewOpenAI(client chatClient, model string, timeout time.Duration, log zerolog.Logger) *OpenAI {
	if model == "" {
		model = "gpt-4o-mini"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAI{client: client, model: model, timeout: timeout, log: log}
}

type generationPayload struct {
	Posts []domain.GeneratedItem `json:"posts"`
}

// Generate запрашивает у модели ровно expected постов по брифу.
// Ошибка самого вызова возвращается вызывающему; нечитаемый ответ модели
// трактуется как пустой результат, а не ошибка.
func (g *OpenAI) Generate(brief string, expected int) ([]domain.GeneratedItem, error) {
	if expected <= 0 {
		expected = 1
	}
	ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
	defer cancel()

	userPrompt := fmt.Sprintf(`%s

Верни JSON формата {"posts": [{"text": "...", "pillar_key": "...", "pillar_label": "...", "format_key": "..."}]} без пояснений.
Массив posts должен содержать ровно %d элементов, в том же порядке, что и список пар тема-формат.`, strings.TrimSpace(brief), expected)

	req := openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: 0.7,
		MaxTokens:   4000,
		Messages: []openai.ChatMessage{
			{
				Role:    openai.RoleSystem,
				Content: "Ты SMM-редактор. Пиши живые посты для соцсетей и строго следуй брифу.",
			},
			{
				Role:    openai.RoleUser,
				Content: userPrompt,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ResponseFormatTypeJSONObject},
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		g.log.Warn().Msg("генерация: модель вернула пустой ответ")
		return nil, nil
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	var parsed generationPayload
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		g.log.Warn().Err(err).Int("expected", expected).Msg("генерация: нечитаемый ответ модели")
		return nil, nil
	}
	items := filterItems(parsed.Posts)
	if len(items) != expected {
		g.log.Warn().Int("expected", expected).Int("got", len(items)).Msg("генерация: модель вернула другое количество постов")
	}
	return items, nil
}

func filterItems(items []domain.GeneratedItem) []domain.GeneratedItem {
	out := make([]domain.GeneratedItem, 0, len(items))
	for _, item := range items {
		item.Text = strings.TrimSpace(item.Text)
		if item.Text == "" {
			continue
		}
		item.PillarKey = strings.TrimSpace(item.PillarKey)
		item.PillarLabel = strings.TrimSpace(item.PillarLabel)
		item.FormatKey = strings.TrimSpace(item.FormatKey)
		out = append(out, item)
	}
	return out
}
