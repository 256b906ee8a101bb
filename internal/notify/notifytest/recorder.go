// Package notifytest provides a recording notify.Publisher for tests.
package notifytest

import (
	"context"
	"sync"

	"github.com/imrishuroy/restaurant-orderflow/internal/notify"
)

// Published is one recorded Publish call.
type Published struct {
	Audience notify.Audience
	Event    string
	Payload  any
}

// Recorder records every event; Err, when set, is returned from Publish after recording.
type Recorder struct {
	mu     sync.Mutex
	events []Published
	Err    error
}

func (r *Recorder) Publish(ctx context.Context, audience notify.Audience, event string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Published{Audience: audience, Event: event, Payload: payload})
	return r.Err
}

// Events returns a snapshot of the recorded events.
func (r *Recorder) Events() []Published {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Published(nil), r.events...)
}
