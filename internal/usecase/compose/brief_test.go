package compose

import (
	"strings"
	"testing"

	"smm-planner/internal/domain"
)

func testPairs() []selectionPair {
	return []selectionPair{
		{Pillar: domain.WeightedItem{Key: "product", Label: "Продукт"}, Format: domain.WeightedItem{Key: "story", Label: "История"}},
		{Pillar: domain.WeightedItem{Key: "team", Label: "Команда"}, Format: domain.WeightedItem{Key: "tips", Label: "Советы"}},
	}
}

func TestBuildBriefForbidsHashtagsWhenMaxZero(t *testing.T) {
	brand := domain.Brand{Name: "Acme", Settings: domain.BrandSettings{
		Hashtags: &domain.HashtagPolicy{Min: 0, Max: 0, House: []string{"#acme"}},
	}}

	brief := buildBrief(brand, testPairs())

	if !strings.Contains(brief, "не используй хэштеги") {
		t.Fatalf("бриф не содержит явного запрета хэштегов:\n%s", brief)
	}
	if strings.Contains(brief, "#acme") {
		t.Fatalf("домашний список не должен попадать в бриф при запрете:\n%s", brief)
	}
}

func TestBuildBriefNoHashtagPolicyMeansNone(t *testing.T) {
	brand := domain.Brand{Name: "Acme"}
	brief := buildBrief(brand, testPairs())
	if !strings.Contains(brief, "не используй хэштеги") {
		t.Fatalf("без политики хэштеги должны быть запрещены:\n%s", brief)
	}
}

func TestBuildBriefHashtagRangeWithHouseList(t *testing.T) {
	brand := domain.Brand{Name: "Acme", Settings: domain.BrandSettings{
		Hashtags: &domain.HashtagPolicy{Min: 2, Max: 4, House: []string{"#acme", "#dev"}},
	}}

	brief := buildBrief(brand, testPairs())

	if !strings.Contains(brief, "от 2 до 4 хэштегов") {
		t.Fatalf("бриф не содержит диапазона хэштегов:\n%s", brief)
	}
	if !strings.Contains(brief, "#acme #dev") {
		t.Fatalf("бриф не содержит домашнего списка:\n%s", brief)
	}
}

func TestBuildBriefEmDashProhibition(t *testing.T) {
	withBan := domain.Brand{Name: "Acme", Settings: domain.BrandSettings{NoEmDash: true}}
	withoutBan := domain.Brand{Name: "Acme"}

	if !strings.Contains(buildBrief(withBan, testPairs()), "Запрещено длинное тире") {
		t.Fatal("бриф не содержит запрета длинного тире")
	}
	if strings.Contains(buildBrief(withoutBan, testPairs()), "Запрещено длинное тире") {
		t.Fatal("запрет тире не должен появляться без настройки")
	}
}

func TestBuildBriefListsPairsInOrder(t *testing.T) {
	brief := buildBrief(domain.Brand{Name: "Acme"}, testPairs())

	first := strings.Index(brief, "1. Тема: Продукт. Формат: История.")
	second := strings.Index(brief, "2. Тема: Команда. Формат: Советы.")
	if first == -1 || second == -1 {
		t.Fatalf("бриф не содержит нумерованных пар:\n%s", brief)
	}
	if first > second {
		t.Fatalf("пары перечислены не по порядку:\n%s", brief)
	}
}

func TestBuildBriefIncludesVoiceAndPolicies(t *testing.T) {
	brand := domain.Brand{
		Name:    "Acme",
		Tagline: "Просто о сложном",
		Voice:   "дружелюбный эксперт",
		Settings: domain.BrandSettings{
			Tone:          []string{"уверенный", "тёплый"},
			PointOfView:   "от первого лица",
			Spelling:      "ё обязательна",
			EmojiPolicy:   "не больше одного на пост",
			BannedPhrases: []string{"синергия", "в наше непростое время"},
			CTA:           &domain.CTAPolicy{Type: "мягкий", Pool: []string{"Напишите в комментариях", "Сохраните пост"}},
			WordCount:     &domain.WordCountRange{Min: 50, Max: 90},
		},
	}

	brief := buildBrief(brand, testPairs())

	for _, want := range []string{
		"Слоган: Просто о сложном",
		"Голос бренда: дружелюбный эксперт",
		"Тон: уверенный, тёплый",
		"Повествование: от первого лица",
		"Запрещённые фразы: синергия; в наше непростое время",
		"в стиле «мягкий»",
		"Напишите в комментариях | Сохраните пост",
		"Объём каждого поста: 50-90 слов.",
	} {
		if !strings.Contains(brief, want) {
			t.Fatalf("бриф не содержит %q:\n%s", want, brief)
		}
	}
}

func TestBuildBriefDefaultWordCount(t *testing.T) {
	brief := buildBrief(domain.Brand{Name: "Acme"}, testPairs())
	if !strings.Contains(brief, "Объём каждого поста: 80-150 слов.") {
		t.Fatalf("бриф не содержит объёма по умолчанию:\n%s", brief)
	}
}

func TestBuildBriefGuidanceOnlyForUsedFormats(t *testing.T) {
	brief := buildBrief(domain.Brand{Name: "Acme"}, testPairs())

	if !strings.Contains(brief, "История: расскажи цельную историю") {
		t.Fatalf("нет указаний для использованного формата:\n%s", brief)
	}
	if strings.Contains(brief, formatGuidance["myth"]) {
		t.Fatalf("указания для неиспользованного формата не должны попадать в бриф:\n%s", brief)
	}
}
