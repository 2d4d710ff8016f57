// Package events carries applied servo updates from the session to optional
// observers (metrics stream, Redis). Publishing is strictly after the fact:
// a failing or absent publisher never affects command application.
package events

import (
	"time"

	"github.com/robocleaner/armd/internal/servo"
)

// Update describes one applied angle: which joint moved, what was commanded,
// and the duty that reached the sink.
type Update struct {
	Joint   string    `json:"joint"`
	Channel int       `json:"channel"`
	Angle   int       `json:"angle"`
	Duty    uint32    `json:"duty"`
	Applied time.Time `json:"applied"`
}

// NewUpdate builds an update for a channel at the current time.
func NewUpdate(ch servo.Channel, angle int, duty uint32) Update {
	return Update{
		Joint:   ch.String(),
		Channel: int(ch),
		Angle:   angle,
		Duty:    duty,
		Applied: time.Now().UTC(),
	}
}

// Publisher receives applied updates. Implementations must not block for
// long: the session publishes from its single control loop.
type Publisher interface {
	Publish(u Update) error
	Close() error
}

// Fanout distributes updates to several publishers, dropping none on
// individual failure.
type Fanout []Publisher

// Publish sends the update to every publisher and returns the first error.
func (f Fanout) Publish(u Update) error {
	var first error
	for _, p := range f {
		if err := p.Publish(u); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Close closes every publisher and returns the first error.
func (f Fanout) Close() error {
	var first error
	for _, p := range f {
		if err := p.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
