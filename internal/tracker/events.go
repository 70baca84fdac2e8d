package tracker

import "time"

type EventType int

const (
	EventAdded EventType = iota + 1
	EventRemoved
	EventLooted
	EventNotification
	EventRespawned
)

func (e EventType) String() string {
	switch e {
	case EventAdded:
		return "added"
	case EventRemoved:
		return "removed"
	case EventLooted:
		return "looted"
	case EventNotification:
		return "notification"
	case EventRespawned:
		return "respawned"
	default:
		return "unknown"
	}
}

// Event - то, что трекер отдаёт подписчикам. Chest - копия на момент события.
type Event struct {
	Type  EventType
	Chest Chest

	// только для EventNotification
	Remaining time.Duration
	ChannelID string
}

type subscriber struct {
	id uint64
	fn func(Event)
}
