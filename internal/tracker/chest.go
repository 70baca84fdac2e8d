package tracker

import (
	"regexp"
	"strings"
	"time"
)

// Chest - отслеживаемый сундук.
type Chest struct {
	ID          string
	Name        string
	LastLooted  time.Time
	RespawnTime time.Time
	ChannelID   string // куда слать уведомления, обновляется при каждом луте
	MessageID   string // id действия, которое запустило таймер (может быть пустым)
	Active      bool   // true - залутан, ждём респавна
}

// Until - сколько осталось до респавна относительно now (может быть <= 0).
func (c Chest) Until(now time.Time) time.Duration {
	return c.RespawnTime.Sub(now)
}

var reNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeID строит id из имени: нижний регистр, всё кроме [a-z0-9]
// схлопывается в один "-", по краям "-" срезаются.
// "Old Chest!!" и "old-chest" дают один и тот же id.
func NormalizeID(name string) string {
	id := reNonAlnum.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(id, "-")
}
