package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatUntil(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{65 * time.Minute, "1h 5m"},
		{90 * time.Minute, "1h 30m"},
		{5*time.Minute + 59*time.Second, "5m"},
		{30 * time.Second, "0m"},
		{0, "Ready to respawn"},
		{-time.Minute, "Ready to respawn"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatUntil(tt.in), tt.in.String())
	}
}

func TestMinutesLeftRoundsUp(t *testing.T) {
	assert.Equal(t, 15, minutesLeft(15*time.Minute))
	assert.Equal(t, 15, minutesLeft(14*time.Minute+time.Second))
	assert.Equal(t, 1, minutesLeft(time.Second))
	assert.Equal(t, 0, minutesLeft(0))
}

func TestHumanDuration(t *testing.T) {
	assert.Equal(t, "1.5 hours", humanDuration(90*time.Minute))
	assert.Equal(t, "1 hour", humanDuration(time.Hour))
	assert.Equal(t, "2 hours", humanDuration(2*time.Hour))
	assert.Equal(t, "45 minutes", humanDuration(45*time.Minute))
	assert.Equal(t, "1 minute", humanDuration(time.Minute))
	assert.Equal(t, "30 seconds", humanDuration(30*time.Second))
}

func TestDiscordTime(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	assert.Equal(t, "<t:1700000000:f>", discordTime(ts))
}
