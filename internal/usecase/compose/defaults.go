package compose

import (
	"strings"

	"smm-planner/internal/domain"
)

// defaultPillar подставляется, когда у бренда не настроена ни одна тема.
var defaultPillar = domain.WeightedItem{Key: "general", Label: "Общие темы", Weight: 1}

// DefaultFormats — стандартный набор форматов с предустановленными весами.
var DefaultFormats = []domain.WeightedItem{
	{Key: "story", Label: "История", Weight: 20},
	{Key: "question", Label: "Вопрос аудитории", Weight: 15},
	{Key: "opinion", Label: "Мнение", Weight: 15},
	{Key: "tips", Label: "Советы", Weight: 20},
	{Key: "case", Label: "Кейс", Weight: 10},
	{Key: "myth", Label: "Разбор мифа", Weight: 10},
	{Key: "announcement", Label: "Анонс", Weight: 10},
}

// formatGuidance — фиксированные указания автору по каждому формату.
var formatGuidance = map[string]string{
	"story":        "расскажи цельную историю с завязкой и выводом, без морали в лоб",
	"question":     "задай один конкретный вопрос аудитории и коротко обозначь контекст",
	"opinion":      "вырази чёткую позицию по теме и обоснуй её двумя-тремя аргументами",
	"tips":         "дай 3-5 практичных советов списком, каждый с короткой строкой пояснения",
	"case":         "опиши реальную ситуацию: исходная проблема, действия, результат в цифрах",
	"myth":         "назови распространённое заблуждение и разбери, почему оно неверно",
	"announcement": "коротко анонсируй событие или новость и объясни, чем это полезно читателю",
}

// effectivePillars возвращает действующий взвешенный список тем бренда.
// Порядок разрешения: настройки → темы бренда с равными весами →
// синтетическая тема по умолчанию.
func effectivePillars(brand domain.Brand) []domain.WeightedItem {
	if len(brand.Settings.Pillars) > 0 {
		return brand.Settings.Pillars
	}
	if len(brand.Pillars) > 0 {
		weight := 100.0 / float64(len(brand.Pillars))
		items := make([]domain.WeightedItem, 0, len(brand.Pillars))
		for _, label := range brand.Pillars {
			items = append(items, domain.WeightedItem{Key: slugify(label), Label: label, Weight: weight})
		}
		return items
	}
	return []domain.WeightedItem{defaultPillar}
}

// effectiveFormats возвращает действующий список форматов бренда.
func effectiveFormats(brand domain.Brand) []domain.WeightedItem {
	if len(brand.Settings.Formats) > 0 {
		return brand.Settings.Formats
	}
	return DefaultFormats
}

// slugify строит стабильный ключ из отображаемого названия темы.
func slugify(label string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(label)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r >= 'а' && r <= 'я', r == 'ё':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "pillar"
	}
	return b.String()
}
