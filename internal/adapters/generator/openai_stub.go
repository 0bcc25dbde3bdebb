package generator

import (
	"fmt"

	"smm-planner/internal/domain"
)

// OpenAIStub имитирует работу LLM-провайдера OpenAI.
// Используется в окружениях без API-ключа.
type OpenAIStub struct{}

var _ domain.ContentGenerator = (*OpenAIStub)(nil)

// NewOpenAIStub создаёт заглушку.
func NewOpenAIStub() *OpenAIStub {
	return &OpenAIStub{}
}

// Generate возвращает детерминированные тексты-болванки.
func (s *OpenAIStub) Generate(brief string, expected int) ([]domain.GeneratedItem, error) {
	if expected <= 0 {
		expected = 1
	}
	items := make([]domain.GeneratedItem, 0, expected)
	for i := 0; i < expected; i++ {
		items = append(items, domain.GeneratedItem{
			Text: fmt.Sprintf("Черновик %d. Текст будет сгенерирован после подключения LLM-провайдера.", i+1),
		})
	}
	return items, nil
}
