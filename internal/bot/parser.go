package bot

import (
	"regexp"
	"strings"
)

// старый путь: название сундука из обычного сообщения чата

var lootKeywords = []string{"looted", "found", "opened", "got", "loot", "chest"}

// порядок важен: первый совпавший шаблон побеждает
var lootPatterns = []*regexp.Regexp{
	// "looted chest D4", "found the chest D4"
	regexp.MustCompile(`(?i)(?:looted|found|opened|got|loot)\s+(?:the\s+)?chest\s+([a-z0-9\s\-_]+)`),
	// "chest D4 looted"
	regexp.MustCompile(`(?i)chest\s+([a-z0-9\s\-_]+)\s+(?:looted|found|opened|got|loot)`),
	// "D4 chest"
	regexp.MustCompile(`(?i)([a-z0-9\s\-_]+)\s+chest`),
	// "looted D4"
	regexp.MustCompile(`(?i)(?:looted|found|opened|got|loot)\s+([a-z0-9\s\-_]+)`),
}

// одиночное слово, без ключевых слов вокруг
var reStandalone = regexp.MustCompile(`(?i)^([a-z0-9\s\-_]+)$`)

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true,
}

func hasLootKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, k := range lootKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// extractChestName - best effort; "" если ничего не нашлось.
func extractChestName(text string) string {
	for _, re := range lootPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			if name := strings.TrimSpace(m[1]); name != "" {
				return name
			}
		}
	}
	if m := reStandalone.FindStringSubmatch(strings.TrimSpace(text)); m != nil {
		name := strings.TrimSpace(m[1])
		if name != "" && !stopWords[strings.ToLower(name)] {
			return name
		}
	}
	return ""
}

// parseLootMessage - название сундука, если сообщение похоже на отчёт о луте.
func parseLootMessage(text string) (string, bool) {
	if !hasLootKeyword(text) {
		return "", false
	}
	name := extractChestName(text)
	return name, name != ""
}
