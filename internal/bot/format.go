package bot

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// formatUntil - "1h 5m", "5m" или "Ready to respawn".
func formatUntil(d time.Duration) string {
	if d <= 0 {
		return "Ready to respawn"
	}
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// minutesLeft округляет вверх: 14m01s -> 15.
func minutesLeft(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Minutes()))
}

// humanDuration - длительность из конфига словами: "1.5 hours", "45 minutes".
func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Hour:
		h := strconv.FormatFloat(math.Round(d.Hours()*100)/100, 'f', -1, 64)
		if h == "1" {
			return "1 hour"
		}
		return h + " hours"
	case d >= time.Minute:
		m := int(math.Round(d.Minutes()))
		if m == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", m)
	default:
		s := int(math.Round(d.Seconds()))
		if s == 1 {
			return "1 second"
		}
		return fmt.Sprintf("%d seconds", s)
	}
}

// discordTime - метка <t:unix:f>, клиент Discord покажет её в своём часовом поясе.
func discordTime(t time.Time) string {
	return fmt.Sprintf("<t:%d:f>", t.Unix())
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
