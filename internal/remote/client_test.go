package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestListSessions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/events/5/sessions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":1,"title":"Opening","state":"accepted",
			 "start_time":"2013-05-01 09:00:00","end_time":"2013-05-01 10:00:00",
			 "track":{"id":3,"name":"Main","color":""},
			 "microlocation":{"id":10,"name":"Hall A"},
			 "speakers":[{"id":7,"name":"Ada"}]},
			{"id":2,"title":"Draft","state":"pending",
			 "start_time":"2013-05-01 11:00:00","end_time":"2013-05-01 11:30:00",
			 "track":null,"microlocation":null,"speakers":[]}
		]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5)
	sessions, err := c.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}
	if sessions[0].Microlocation == nil || sessions[0].Microlocation.ID != 10 {
		t.Errorf("nested microlocation not decoded: %+v", sessions[0].Microlocation)
	}
	start, err := ParseTime(sessions[0].StartTime)
	if err != nil {
		t.Fatalf("parse start: %v", err)
	}
	if !start.Equal(time.Date(2013, 5, 1, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v", start)
	}
}

func TestUpdateSessionPayloadContract(t *testing.T) {
	var got map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/v1/events/5/sessions/12" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	track := uint64(3)
	micro := uint64(10)
	c := NewClient(srv.URL, 5)
	err := c.UpdateSession(context.Background(), 12, UpdateSessionPayload{
		Title:           "Opening",
		StartTime:       "2013-05-01 09:00:00",
		EndTime:         "2013-05-01 10:00:00",
		TrackID:         &track,
		MicrolocationID: &micro,
		SpeakerIDs:      []uint64{7},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Field names are a compatibility contract with the authority.
	for _, field := range []string{"title", "start_time", "end_time", "track_id", "microlocation_id", "speaker_ids"} {
		if _, ok := got[field]; !ok {
			t.Errorf("payload missing field %q (have %v)", field, keys(got))
		}
	}
	if string(got["start_time"]) != `"2013-05-01 09:00:00"` {
		t.Errorf("start_time = %s, want quoted YYYY-MM-DD HH:mm:ss", got["start_time"])
	}
}

func TestUpdateSessionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5)
	err := c.UpdateSession(context.Background(), 12, UpdateSessionPayload{})
	if err == nil {
		t.Fatal("expected error on 500 response")
	}
}

func TestCreateMicrolocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		var body CreateMicrolocationPayload
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(Microlocation{ID: 42, Name: body.Name, Room: body.Room, Floor: body.Floor})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5)
	created, err := c.CreateMicrolocation(context.Background(), CreateMicrolocationPayload{Name: "Hall B", Room: "B", Floor: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID != 42 || created.Name != "Hall B" {
		t.Errorf("created = %+v", created)
	}
}

func keys(m map[string]json.RawMessage) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
