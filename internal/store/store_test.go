package store

import (
	"testing"
	"time"

	"github.com/iliyamo/event-scheduler/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func scheduledSession(id uint64, title string, start, end time.Time, microlocation uint64, top int) *model.Session {
	return &model.Session{
		ID:              id,
		Title:           title,
		State:           "accepted",
		StartTime:       start,
		EndTime:         end,
		Duration:        int(end.Sub(start).Minutes()),
		Top:             &top,
		MicrolocationID: &microlocation,
	}
}

func TestUpsertBucketsByStartDate(t *testing.T) {
	s := New()
	sess := scheduledSession(1, "Opening", time.Date(2013, 5, 1, 9, 0, 0, 0, time.UTC), time.Date(2013, 5, 1, 10, 0, 0, 0, time.UTC), 10, 240)
	s.Upsert(sess)

	got := s.SessionsForDay(day(2013, 5, 1))
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("expected session 1 on 1st May, got %v", got)
	}
	if len(s.SessionsForDay(day(2013, 5, 2))) != 0 {
		t.Fatal("session leaked into a second day bucket")
	}
}

func TestUpsertRebucketsOnDateChange(t *testing.T) {
	s := New()
	sess := scheduledSession(1, "Keynote", time.Date(2013, 5, 1, 9, 0, 0, 0, time.UTC), time.Date(2013, 5, 1, 10, 0, 0, 0, time.UTC), 10, 240)
	s.Upsert(sess)

	// Relocate to the next day and upsert again.
	sess.StartTime = time.Date(2013, 5, 2, 9, 0, 0, 0, time.UTC)
	sess.EndTime = time.Date(2013, 5, 2, 10, 0, 0, 0, time.UTC)
	s.Upsert(sess)

	if n := len(s.SessionsForDay(day(2013, 5, 1))); n != 0 {
		t.Errorf("old bucket still holds %d sessions", n)
	}
	if n := len(s.SessionsForDay(day(2013, 5, 2))); n != 1 {
		t.Errorf("new bucket holds %d sessions, want 1", n)
	}
}

func TestSessionsForDaySortedByStartTime(t *testing.T) {
	s := New()
	s.Upsert(scheduledSession(1, "Late", time.Date(2013, 5, 1, 15, 0, 0, 0, time.UTC), time.Date(2013, 5, 1, 16, 0, 0, 0, time.UTC), 10, 0))
	s.Upsert(scheduledSession(2, "Early", time.Date(2013, 5, 1, 9, 0, 0, 0, time.UTC), time.Date(2013, 5, 1, 10, 0, 0, 0, time.UTC), 10, 0))
	s.Upsert(scheduledSession(3, "Tie", time.Date(2013, 5, 1, 9, 0, 0, 0, time.UTC), time.Date(2013, 5, 1, 9, 30, 0, 0, time.UTC), 20, 0))

	got := s.SessionsForDay(day(2013, 5, 1))
	if got[0].ID != 2 || got[1].ID != 3 || got[2].ID != 1 {
		t.Errorf("order = %d,%d,%d, want 2,3,1 (stable on ties)", got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestUnscheduleResetsPlacement(t *testing.T) {
	s := New()
	sess := scheduledSession(1, "Talk", time.Date(2013, 5, 1, 9, 0, 0, 0, time.UTC), time.Date(2013, 5, 1, 10, 0, 0, 0, time.UTC), 10, 240)
	s.Upsert(sess)

	got, err := s.Unschedule(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Top != nil || got.MicrolocationID != nil {
		t.Error("placement fields not cleared")
	}
	if !got.StartReset || !got.EndReset {
		t.Error("reset flags not set")
	}
	if got.Duration != DefaultUnscheduledDuration {
		t.Errorf("duration = %d, want %d", got.Duration, DefaultUnscheduledDuration)
	}
	want := time.Date(2013, 5, 1, 0, 0, 0, 0, time.UTC)
	if !got.StartTime.Equal(want) {
		t.Errorf("start time = %v, want midnight sentinel %v", got.StartTime, want)
	}
}

// A session id must appear in exactly one day bucket's scheduled set or the
// unscheduled index, never both and never neither.
func TestBucketExclusivity(t *testing.T) {
	s := New()
	sess := scheduledSession(1, "Talk", time.Date(2013, 5, 1, 9, 0, 0, 0, time.UTC), time.Date(2013, 5, 1, 10, 0, 0, 0, time.UTC), 10, 240)
	s.Upsert(sess)

	if _, err := s.Unschedule(1); err != nil {
		t.Fatal(err)
	}
	if n := len(s.SessionsForDay(day(2013, 5, 1))); n != 0 {
		t.Errorf("unscheduled session still in bucket (%d entries)", n)
	}
	if n := len(s.Unscheduled()); n != 1 {
		t.Fatalf("unscheduled index has %d entries, want 1", n)
	}

	// Unscheduling twice must not duplicate the index entry.
	if _, err := s.Unschedule(1); err != nil {
		t.Fatal(err)
	}
	if n := len(s.Unscheduled()); n != 1 {
		t.Errorf("unscheduled index has %d entries after double unschedule, want 1", n)
	}

	// Scheduling again moves it back to a bucket and out of the index.
	top := 480
	micro := uint64(10)
	sess.Top = &top
	sess.MicrolocationID = &micro
	sess.StartTime = time.Date(2013, 5, 1, 11, 0, 0, 0, time.UTC)
	sess.EndTime = time.Date(2013, 5, 1, 12, 0, 0, 0, time.UTC)
	sess.StartReset, sess.EndReset = false, false
	s.Upsert(sess)

	if n := len(s.Unscheduled()); n != 0 {
		t.Errorf("unscheduled index has %d entries after reschedule, want 0", n)
	}
	if n := len(s.SessionsForDay(day(2013, 5, 1))); n != 1 {
		t.Errorf("bucket has %d entries after reschedule, want 1", n)
	}
}

func TestUnscheduleUnknownSession(t *testing.T) {
	s := New()
	if _, err := s.Unschedule(99); err != ErrUnknownSession {
		t.Errorf("err = %v, want ErrUnknownSession", err)
	}
}

func TestSearchUnscheduled(t *testing.T) {
	s := New()
	for id, title := range map[uint64]string{1: "Go Concurrency", 2: "Rust Basics", 3: "Gopher Care", 4: "Grüne Threads"} {
		sess := scheduledSession(id, title, time.Date(2013, 5, 1, 9, 0, 0, 0, time.UTC), time.Date(2013, 5, 1, 10, 0, 0, 0, time.UTC), 10, 0)
		s.Upsert(sess)
		if _, err := s.Unschedule(id); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("empty query returns all sorted by title", func(t *testing.T) {
		got := s.SearchUnscheduled("")
		if len(got) != 4 || got[0].Title != "Go Concurrency" || got[3].Title != "Rust Basics" {
			t.Errorf("unexpected result: %v", titles(got))
		}
	})

	t.Run("fuzzy match is subsequence based", func(t *testing.T) {
		got := s.SearchUnscheduled("gcr")
		if len(got) != 2 {
			t.Fatalf("got %v, want the two Go sessions", titles(got))
		}
	})

	t.Run("multi-byte query runes match", func(t *testing.T) {
		got := s.SearchUnscheduled("grü")
		if len(got) != 1 || got[0].Title != "Grüne Threads" {
			t.Fatalf("got %v, want Grüne Threads", titles(got))
		}
	})

	t.Run("no match", func(t *testing.T) {
		if got := s.SearchUnscheduled("zzz"); len(got) != 0 {
			t.Errorf("got %v, want none", titles(got))
		}
	})
}

func TestMicrolocationOrderAndCounts(t *testing.T) {
	s := New()
	s.AddMicrolocation(&model.Microlocation{ID: 2, Name: "Zeta Hall"})
	s.AddMicrolocation(&model.Microlocation{ID: 1, Name: "Alpha Room"})
	s.AddMicrolocation(&model.Microlocation{ID: 2, Name: "Zeta Hall"}) // duplicate id ignored

	ms := s.Microlocations()
	if len(ms) != 2 || ms[0].Name != "Alpha Room" || ms[1].Name != "Zeta Hall" {
		t.Fatalf("registry order wrong: %v", ms)
	}

	s.Upsert(scheduledSession(1, "A", time.Date(2013, 5, 1, 9, 0, 0, 0, time.UTC), time.Date(2013, 5, 1, 10, 0, 0, 0, time.UTC), 1, 0))
	s.Upsert(scheduledSession(2, "B", time.Date(2013, 5, 2, 9, 0, 0, 0, time.UTC), time.Date(2013, 5, 2, 10, 0, 0, 0, time.UTC), 1, 0))
	if n := s.ScheduledCount(1); n != 2 {
		t.Errorf("ScheduledCount(1) = %d, want 2", n)
	}
	if n := s.ScheduledCount(2); n != 0 {
		t.Errorf("ScheduledCount(2) = %d, want 0", n)
	}
}

// Session reads hand out snapshots.  A record obtained from Get or
// SessionsForDay must keep its fields when the store mutates the live
// session afterwards, so a view rendering can never observe (or trip over)
// a placement that is being cleared concurrently.
func TestReadsReturnSnapshots(t *testing.T) {
	s := New()
	s.Upsert(scheduledSession(1, "Talk", time.Date(2013, 5, 1, 9, 0, 0, 0, time.UTC), time.Date(2013, 5, 1, 10, 0, 0, 0, time.UTC), 10, 240))

	snap, ok := s.Get(1)
	if !ok {
		t.Fatal("session not found")
	}
	fromDay := s.SessionsForDay(day(2013, 5, 1))
	if len(fromDay) != 1 {
		t.Fatalf("day bucket has %d sessions, want 1", len(fromDay))
	}

	if _, err := s.Unschedule(1); err != nil {
		t.Fatal(err)
	}

	for _, got := range []*model.Session{snap, fromDay[0]} {
		if !got.Scheduled() || got.MicrolocationID == nil || *got.MicrolocationID != 10 || *got.Top != 240 {
			t.Errorf("snapshot lost its placement: %+v", got)
		}
	}
	if fresh, _ := s.Get(1); fresh.Scheduled() {
		t.Error("live record kept its placement after unschedule")
	}
}

func TestEnsureDayKeepsOrder(t *testing.T) {
	s := New()
	s.EnsureDay(day(2013, 5, 3))
	s.EnsureDay(day(2013, 5, 1))
	s.EnsureDay(day(2013, 5, 2))
	s.EnsureDay(day(2013, 5, 1))

	days := s.Days()
	if len(days) != 3 {
		t.Fatalf("have %d days, want 3", len(days))
	}
	for i, want := range []int{1, 2, 3} {
		if days[i].Day() != want {
			t.Errorf("days[%d] = %v, want day %d", i, days[i], want)
		}
	}
}

func titles(sessions []*model.Session) []string {
	out := make([]string, len(sessions))
	for i, s := range sessions {
		out[i] = s.Title
	}
	return out
}
