package service

import (
	"context"
)

// ProfileEventType names a store mutation.
type ProfileEventType string

const (
	ProfileCreated ProfileEventType = "profile_created"
	ProfileUpdated ProfileEventType = "profile_updated"
	ProfileDeleted ProfileEventType = "profile_deleted"
)

// ProfileEvent is published after a successful store mutation.
type ProfileEvent struct {
	Type      ProfileEventType `json:"type"`
	ProfileID string           `json:"profile_id"`
	Version   uint64           `json:"version"`
}

// EventPublisher defines the interface for publishing profile change events
type EventPublisher interface {
	PublishProfileEvent(ctx context.Context, event *ProfileEvent) error
	Close() error
}

// EventSubscriber hands out change streams. cancel must be called to release
// the subscription.
type EventSubscriber interface {
	Subscribe() (events <-chan *ProfileEvent, cancel func())
}
