package syncer

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/iliyamo/event-scheduler/internal/event"
	"github.com/iliyamo/event-scheduler/internal/remote"
)

// fakeUpdater records calls and fails a configurable number of times.
type fakeUpdater struct {
	calls    []remote.UpdateSessionPayload
	failures int
}

func (f *fakeUpdater) UpdateSession(_ context.Context, _ uint64, payload remote.UpdateSessionPayload) error {
	f.calls = append(f.calls, payload)
	if f.failures > 0 {
		f.failures--
		return errors.New("authority unavailable")
	}
	return nil
}

func changedEvent() event.Changed {
	micro := uint64(10)
	track := uint64(3)
	return event.Changed{
		SessionID:       12,
		Title:           "Opening",
		StartTime:       "2013-05-01 09:00:00",
		EndTime:         "2013-05-01 10:00:00",
		MicrolocationID: &micro,
		TrackID:         &track,
		SpeakerIDs:      []uint64{7},
	}
}

func TestSyncSuccessPublishesResult(t *testing.T) {
	bus := event.NewBus()
	up := &fakeUpdater{}
	c := New(up, bus)

	var results []event.SyncResult
	bus.Subscribe(event.TopicSyncResult, func(_ string, payload any) {
		results = append(results, payload.(event.SyncResult))
	})

	c.Sync(12, PayloadFromChanged(changedEvent()))

	if len(results) != 1 || results[0].Err != "" {
		t.Fatalf("results = %+v, want one success", results)
	}
	if len(c.Failures()) != 0 {
		t.Errorf("failures = %v, want none", c.Failures())
	}
}

func TestSyncFailureKeepsPayloadForRetry(t *testing.T) {
	bus := event.NewBus()
	up := &fakeUpdater{failures: 1}
	c := New(up, bus)

	var results []event.SyncResult
	bus.Subscribe(event.TopicSyncResult, func(_ string, payload any) {
		results = append(results, payload.(event.SyncResult))
	})

	c.Sync(12, PayloadFromChanged(changedEvent()))

	if len(results) != 1 || results[0].Err == "" {
		t.Fatalf("results = %+v, want one failure", results)
	}
	if results[0].Retry == nil {
		t.Fatal("failure result carries no retry")
	}
	if got := c.Failures(); len(got) != 1 || got[0] != 12 {
		t.Fatalf("failures = %v, want [12]", got)
	}

	// The retry must resubmit the identical payload.
	results[0].Retry()
	if len(up.calls) != 2 {
		t.Fatalf("authority saw %d calls, want 2", len(up.calls))
	}
	if !reflect.DeepEqual(up.calls[0], up.calls[1]) {
		t.Errorf("retry payload differs:\nfirst:  %+v\nsecond: %+v", up.calls[0], up.calls[1])
	}
	if len(c.Failures()) != 0 {
		t.Errorf("failures = %v after successful retry, want none", c.Failures())
	}
}

func TestRetryWithoutFailure(t *testing.T) {
	c := New(&fakeUpdater{}, event.NewBus())
	if c.Retry(99) {
		t.Error("Retry reported a payload for a session that never failed")
	}
}

func TestPayloadFromChanged(t *testing.T) {
	ev := changedEvent()
	p := PayloadFromChanged(ev)
	if p.StartTime != ev.StartTime || p.EndTime != ev.EndTime {
		t.Error("timestamps not copied verbatim")
	}
	if p.MicrolocationID == nil || *p.MicrolocationID != 10 {
		t.Error("microlocation id lost")
	}
	if len(p.SpeakerIDs) != 1 || p.SpeakerIDs[0] != 7 {
		t.Error("speaker ids lost")
	}
}
