package compose

import (
	"fmt"
	"strings"

	"smm-planner/internal/domain"
)

// defaultWordCount — целевой объём поста, если бренд не задал свой.
var defaultWordCount = domain.WordCountRange{Min: 80, Max: 150}

// selectionPair — одна выбранная пара (тема, формат) будущего поста.
type selectionPair struct {
	Pillar domain.WeightedItem
	Format domain.WeightedItem
}

// buildBrief собирает единый текстовый бриф для генератора: идентичность и
// голос бренда, правила оформления и точный упорядоченный список пар
// (тема, формат), который генератор обязан сохранить в ответе.
func buildBrief(brand domain.Brand, pairs []selectionPair) string {
	var b strings.Builder
	settings := brand.Settings

	b.WriteString("Бренд: " + brand.Name + "\n")
	if brand.Tagline != "" {
		b.WriteString("Слоган: " + brand.Tagline + "\n")
	}
	if brand.Voice != "" {
		b.WriteString("Голос бренда: " + brand.Voice + "\n")
	}
	if len(settings.Tone) > 0 {
		b.WriteString("Тон: " + strings.Join(settings.Tone, ", ") + "\n")
	}
	if settings.PointOfView != "" {
		b.WriteString("Повествование: " + settings.PointOfView + "\n")
	}
	if settings.Spelling != "" {
		b.WriteString("Вариант орфографии: " + settings.Spelling + "\n")
	}
	if settings.EmojiPolicy != "" {
		b.WriteString("Эмодзи: " + settings.EmojiPolicy + "\n")
	}
	if settings.NoEmDash {
		b.WriteString("Запрещено длинное тире (—): вместо него используй обычный дефис.\n")
	}
	if len(settings.BannedPhrases) > 0 {
		b.WriteString("Запрещённые фразы: " + strings.Join(settings.BannedPhrases, "; ") + "\n")
	}
	b.WriteString(hashtagInstruction(settings.Hashtags) + "\n")
	if line := ctaInstruction(settings.CTA); line != "" {
		b.WriteString(line + "\n")
	}

	wc := defaultWordCount
	if settings.WordCount != nil && settings.WordCount.Max > 0 {
		wc = *settings.WordCount
	}
	b.WriteString(fmt.Sprintf("Объём каждого поста: %d-%d слов.\n", wc.Min, wc.Max))

	b.WriteString("\nНапиши посты строго в этом порядке, по одному на каждую пару:\n")
	for i, pair := range pairs {
		b.WriteString(fmt.Sprintf("%d. Тема: %s. Формат: %s.\n", i+1, pair.Pillar.Label, pair.Format.Label))
	}

	if guidance := guidanceForPairs(pairs); guidance != "" {
		b.WriteString("\nУказания по форматам:\n" + guidance)
	}
	return b.String()
}

// hashtagInstruction переводит политику хэштегов в строку брифа.
// Отсутствие политики и Max=0 явным образом запрещают хэштеги.
func hashtagInstruction(policy *domain.HashtagPolicy) string {
	if policy == nil || policy.Max <= 0 {
		return "Хэштеги: не используй хэштеги."
	}
	line := fmt.Sprintf("Хэштеги: используй от %d до %d хэштегов", policy.Min, policy.Max)
	if len(policy.House) > 0 {
		line += " из списка: " + strings.Join(policy.House, " ")
	}
	return line + "."
}

func ctaInstruction(policy *domain.CTAPolicy) string {
	if policy == nil || (policy.Type == "" && len(policy.Pool) == 0) {
		return ""
	}
	line := "Призыв к действию"
	if policy.Type != "" {
		line += " в стиле «" + policy.Type + "»"
	}
	if len(policy.Pool) > 0 {
		line += ", выбирай из вариантов: " + strings.Join(policy.Pool, " | ")
	}
	return line + "."
}

// guidanceForPairs возвращает указания только по встречающимся форматам,
// сохраняя порядок их первого появления.
func guidanceForPairs(pairs []selectionPair) string {
	seen := make(map[string]struct{}, len(pairs))
	var b strings.Builder
	for _, pair := range pairs {
		key := pair.Format.Key
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		if text, ok := formatGuidance[key]; ok {
			b.WriteString("- " + pair.Format.Label + ": " + text + "\n")
		}
	}
	return b.String()
}
