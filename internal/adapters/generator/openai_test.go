package generator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	openai "smm-planner/internal/infra/openai"
)

type stubChatClient struct {
	resp openai.ChatCompletionResponse
	err  error
	req  openai.ChatCompletionRequest
}

func (s *stubChatClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.req = req
	if s.err != nil {
		return openai.ChatCompletionResponse{}, s.err
	}
	return s.resp, nil
}

func chatResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatMessage{Role: "assistant", Content: content}}},
	}
}

func newTestGenerator(client chatClient) *OpenAI {
	return NewOpenAI(client, "gpt-test", time.Second, zerolog.Nop())
}

func TestGenerateParsesPosts(t *testing.T) {
	client := &stubChatClient{resp: chatResponse(`{"posts": [
		{"text": " Первый пост ", "pillar_key": "product", "pillar_label": "Продукт", "format_key": "story"},
		{"text": "Второй пост", "pillar_key": "team", "pillar_label": "Команда", "format_key": "tips"}
	]}`)}
	g := newTestGenerator(client)

	items, err := g.Generate("бриф", 2)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("ожидали 2 поста, получили %d", len(items))
	}
	if items[0].Text != "Первый пост" {
		t.Fatalf("текст не обрезан: %q", items[0].Text)
	}
	if items[1].FormatKey != "tips" {
		t.Fatalf("FormatKey = %q, want tips", items[1].FormatKey)
	}
}

func TestGenerateTransportErrorPropagated(t *testing.T) {
	client := &stubChatClient{err: errors.New("connection refused")}
	g := newTestGenerator(client)

	if _, err := g.Generate("бриф", 3); err == nil {
		t.Fatal("ожидали ошибку вызова")
	}
}

func TestGenerateMalformedResponseMeansZeroItems(t *testing.T) {
	client := &stubChatClient{resp: chatResponse("это не JSON")}
	g := newTestGenerator(client)

	items, err := g.Generate("бриф", 3)
	if err != nil {
		t.Fatalf("нечитаемый ответ не должен быть ошибкой: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("ожидали 0 постов, получили %d", len(items))
	}
}

func TestGenerateMissingPostsKeyMeansZeroItems(t *testing.T) {
	client := &stubChatClient{resp: chatResponse(`{"drafts": [{"text": "пост"}]}`)}
	g := newTestGenerator(client)

	items, err := g.Generate("бриф", 1)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("ожидали 0 постов, получили %d", len(items))
	}
}

func TestGenerateSkipsItemsWithoutText(t *testing.T) {
	client := &stubChatClient{resp: chatResponse(`{"posts": [
		{"text": "  ", "pillar_key": "a"},
		{"text": "нормальный пост", "pillar_key": "b"}
	]}`)}
	g := newTestGenerator(client)

	items, err := g.Generate("бриф", 2)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(items) != 1 || items[0].PillarKey != "b" {
		t.Fatalf("ожидали один пост с непустым текстом: %v", items)
	}
}

func TestGenerateRequestShape(t *testing.T) {
	client := &stubChatClient{resp: chatResponse(`{"posts": []}`)}
	g := newTestGenerator(client)

	if _, err := g.Generate("Бренд: Acme", 3); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if client.req.ResponseFormat == nil || client.req.ResponseFormat.Type != openai.ResponseFormatTypeJSONObject {
		t.Fatal("ожидали формат ответа json_object")
	}
	if len(client.req.Messages) != 2 {
		t.Fatalf("ожидали 2 сообщения, получили %d", len(client.req.Messages))
	}
	prompt := client.req.Messages[1].Content
	if !strings.Contains(prompt, "Бренд: Acme") {
		t.Fatal("бриф не попал в запрос")
	}
	if !strings.Contains(prompt, "ровно 3 элементов") {
		t.Fatalf("в запросе нет требуемого количества:\n%s", prompt)
	}
}

func TestStubReturnsExpectedCount(t *testing.T) {
	s := NewOpenAIStub()
	items, err := s.Generate("бриф", 4)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(items) != 4 {
		t.Fatalf("ожидали 4 поста, получили %d", len(items))
	}
}
