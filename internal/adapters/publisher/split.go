package publisher

import "strings"

const messageLimit = 4096

// SplitMessage разбивает текст на части в пределах лимита Telegram.
// Разрез предпочитает границу строки, чтобы не ломать форматирование;
// части без единого перевода строки режутся жёстко по лимиту.
func SplitMessage(text string) []string {
	rest := []rune(strings.TrimSpace(text))
	if len(rest) == 0 {
		return nil
	}

	var parts []string
	for len(rest) > 0 {
		n := cutPoint(rest)
		if chunk := strings.Trim(string(rest[:n]), "\n"); chunk != "" {
			parts = append(parts, chunk)
		}
		rest = rest[n:]
		for len(rest) > 0 && rest[0] == '\n' {
			rest = rest[1:]
		}
	}
	return parts
}

// cutPoint возвращает длину следующей части: весь остаток, если он помещается
// в лимит, иначе позицию за последним переводом строки внутри лимита.
func cutPoint(runes []rune) int {
	if len(runes) <= messageLimit {
		return len(runes)
	}
	for i := messageLimit; i > 0; i-- {
		if runes[i-1] == '\n' {
			return i
		}
	}
	return messageLimit
}
