// Package remote is the HTTP client for the session/location authority.
// Field names and the "YYYY-MM-DD HH:mm:ss" time representation are a
// compatibility contract with that service and are reproduced exactly.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TimeLayout is the wire format for all timestamps exchanged with the
// authority.
const TimeLayout = "2006-01-02 15:04:05"

// ErrRemote wraps any failed request to the authority.  Callers surface it
// to the user with a retry affordance; local state is never rolled back.
var ErrRemote = errors.New("authority request failed")

// Microlocation is the wire representation of a room.
type Microlocation struct {
	ID        uint64  `json:"id"`
	Name      string  `json:"name"`
	Room      string  `json:"room"`
	Floor     int     `json:"floor"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// TrackRef is the nested track object carried by a session.
type TrackRef struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// MicrolocationRef is the nested microlocation object carried by a session.
type MicrolocationRef struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// SpeakerRef is the nested speaker object carried by a session.
type SpeakerRef struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// Session is the wire representation of a session as listed by the
// authority.
type Session struct {
	ID            uint64            `json:"id"`
	Title         string            `json:"title"`
	State         string            `json:"state"`
	StartTime     string            `json:"start_time"`
	EndTime       string            `json:"end_time"`
	Track         *TrackRef         `json:"track"`
	Microlocation *MicrolocationRef `json:"microlocation"`
	Speakers      []SpeakerRef      `json:"speakers"`
}

// ParseTime decodes a wire timestamp as UTC.
func ParseTime(s string) (time.Time, error) {
	return time.ParseInLocation(TimeLayout, s, time.UTC)
}

// CreateMicrolocationPayload is the body of the create-microlocation call.
type CreateMicrolocationPayload struct {
	Name      string  `json:"name"`
	Room      string  `json:"room"`
	Floor     int     `json:"floor"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// UpdateSessionPayload is the minimal body of the update-session call.
type UpdateSessionPayload struct {
	Title           string   `json:"title"`
	StartTime       string   `json:"start_time"`
	EndTime         string   `json:"end_time"`
	TrackID         *uint64  `json:"track_id"`
	MicrolocationID *uint64  `json:"microlocation_id"`
	SpeakerIDs      []uint64 `json:"speaker_ids"`
}

// Client talks to the authority for one event.
type Client struct {
	BaseURL string
	EventID uint64
	HTTP    *http.Client
}

// NewClient builds a Client with a sane default timeout.
func NewClient(baseURL string, eventID uint64) *Client {
	return &Client{
		BaseURL: baseURL,
		EventID: eventID,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

// ListMicrolocations fetches every microlocation of the event.
func (c *Client) ListMicrolocations(ctx context.Context) ([]Microlocation, error) {
	var out []Microlocation
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/events/%d/microlocations", c.EventID), nil, &out)
	return out, err
}

// ListSessions fetches every session of the event, in all acceptance
// states.  Filtering to accepted sessions is the engine's job.
func (c *Client) ListSessions(ctx context.Context) ([]Session, error) {
	var out []Session
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/events/%d/sessions", c.EventID), nil, &out)
	return out, err
}

// CreateMicrolocation creates a new room at the authority and returns the
// stored record.
func (c *Client) CreateMicrolocation(ctx context.Context, payload CreateMicrolocationPayload) (Microlocation, error) {
	var out Microlocation
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/v1/events/%d/microlocations", c.EventID), payload, &out)
	return out, err
}

// UpdateSession persists a session edit.  The response body is ignored; the
// engine never writes server echoes back into local state.
func (c *Client) UpdateSession(ctx context.Context, sessionID uint64, payload UpdateSessionPayload) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/v1/events/%d/sessions/%d", c.EventID, sessionID), payload, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemote, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s %s returned %s", ErrRemote, method, path, resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", ErrRemote, err)
	}
	return nil
}
