package publisher

import (
	"strings"
	"testing"
)

func TestSplitMessagePrefersLineBoundary(t *testing.T) {
	text := strings.Repeat("a", 3000) + "\n\n" + strings.Repeat("b", 2000) + "\n" + strings.Repeat("c", 500)

	parts := SplitMessage(text)
	if len(parts) != 2 {
		t.Fatalf("ожидалось 2 части, получено %d", len(parts))
	}
	for i, part := range parts {
		if n := len([]rune(part)); n > messageLimit {
			t.Fatalf("часть %d длиннее лимита: %d рун", i, n)
		}
	}
	if parts[0] != strings.Repeat("a", 3000) {
		t.Fatalf("первая часть должна обрываться на границе строки, получено %d рун", len([]rune(parts[0])))
	}
	if !strings.HasPrefix(parts[1], "b") || !strings.HasSuffix(parts[1], strings.Repeat("c", 500)) {
		t.Fatalf("вторая часть собрана неверно: %d рун", len([]rune(parts[1])))
	}
}

func TestSplitMessageHardCutWithoutNewlines(t *testing.T) {
	parts := SplitMessage(strings.Repeat("ж", messageLimit+100))
	if len(parts) != 2 {
		t.Fatalf("ожидалось 2 части, получено %d", len(parts))
	}
	if n := len([]rune(parts[0])); n != messageLimit {
		t.Fatalf("жёсткий разрез должен идти ровно по лимиту, получено %d рун", n)
	}
	if n := len([]rune(parts[1])); n != 100 {
		t.Fatalf("в остатке ожидалось 100 рун, получено %d", n)
	}
}

func TestSplitMessageShortText(t *testing.T) {
	parts := SplitMessage("hello world")
	if len(parts) != 1 || parts[0] != "hello world" {
		t.Fatalf("короткий текст должен вернуться одной частью, получено %v", parts)
	}
}

func TestSplitMessageBlankText(t *testing.T) {
	if parts := SplitMessage("   \n  "); len(parts) != 0 {
		t.Fatalf("для пустого текста ожидался nil, получено %v", parts)
	}
}
