// Package syncer reconciles committed local edits with the remote
// authority.  Sync is optimistic and fire-and-forget: placement, resize and
// unschedule commits happen locally first and unconditionally, then the
// coordinator issues the update request.  A failed request never unwinds
// local state; the user is notified and may retry the identical payload.
package syncer

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/iliyamo/event-scheduler/internal/event"
	"github.com/iliyamo/event-scheduler/internal/remote"
)

// Updater is the slice of the remote client the coordinator needs.
type Updater interface {
	UpdateSession(ctx context.Context, sessionID uint64, payload remote.UpdateSessionPayload) error
}

// Coordinator translates Changed events into authority update requests and
// tracks failed payloads so they can be re-issued manually.
type Coordinator struct {
	client  Updater
	bus     *event.Bus
	timeout time.Duration

	mu     sync.Mutex
	failed map[uint64]remote.UpdateSessionPayload // last failed payload per session id
}

// New builds a Coordinator.  Call Start to attach it to the bus.
func New(client Updater, bus *event.Bus) *Coordinator {
	return &Coordinator{
		client:  client,
		bus:     bus,
		timeout: 15 * time.Second,
		failed:  make(map[uint64]remote.UpdateSessionPayload),
	}
}

// Start subscribes to schedule changes.  Every Changed event is synced from
// its own goroutine so a slow authority never blocks further local
// interaction.  There is deliberately no at-most-one-in-flight guarantee
// per session: local state already reflects the most recent edit and server
// responses are never written back, so response ordering cannot corrupt it.
func (c *Coordinator) Start() {
	c.bus.Subscribe(event.TopicChanged, func(_ string, payload any) {
		ev, ok := payload.(event.Changed)
		if !ok {
			return
		}
		go c.Sync(ev.SessionID, PayloadFromChanged(ev))
	})
}

// Sync issues one update request and publishes the outcome as a SyncResult
// event.  On failure the payload is remembered for Retry.
func (c *Coordinator) Sync(sessionID uint64, payload remote.UpdateSessionPayload) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	if err := c.client.UpdateSession(ctx, sessionID, payload); err != nil {
		log.Printf("syncer: update for session %d failed: %v", sessionID, err)
		c.mu.Lock()
		c.failed[sessionID] = payload
		c.mu.Unlock()
		c.bus.Publish(event.TopicSyncResult, event.SyncResult{
			SessionID: sessionID,
			Err:       err.Error(),
			Retry:     func() { c.Sync(sessionID, payload) },
		})
		return
	}

	c.mu.Lock()
	delete(c.failed, sessionID)
	c.mu.Unlock()
	c.bus.Publish(event.TopicSyncResult, event.SyncResult{SessionID: sessionID})
}

// Retry re-issues the last failed payload for the session, byte for byte.
// It reports whether a failed payload existed.
func (c *Coordinator) Retry(sessionID uint64) bool {
	c.mu.Lock()
	payload, ok := c.failed[sessionID]
	c.mu.Unlock()
	if !ok {
		return false
	}
	c.Sync(sessionID, payload)
	return true
}

// Failures lists the session ids with an unsynced edit.
func (c *Coordinator) Failures() []uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]uint64, 0, len(c.failed))
	for id := range c.failed {
		out = append(out, id)
	}
	return out
}

// PayloadFromChanged maps a Changed event onto the authority's update
// payload.  The event already carries wire-formatted timestamps.
func PayloadFromChanged(ev event.Changed) remote.UpdateSessionPayload {
	return remote.UpdateSessionPayload{
		Title:           ev.Title,
		StartTime:       ev.StartTime,
		EndTime:         ev.EndTime,
		TrackID:         ev.TrackID,
		MicrolocationID: ev.MicrolocationID,
		SpeakerIDs:      ev.SpeakerIDs,
	}
}
