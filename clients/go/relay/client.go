// Package relay provides a client for the presence-aware message relay.
package relay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client is a relay API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new relay client.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// doRequest performs an HTTP request with a JSON body.
func (c *Client) doRequest(method, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequest(method, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		json.Unmarshal(respBody, &errResp)
		return nil, fmt.Errorf("relay error %d: %s", resp.StatusCode, errResp.Error)
	}

	return respBody, nil
}

// doRaw performs an HTTP request with a raw (non-JSON) body.
func (c *Client) doRaw(method, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequest(method, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		json.Unmarshal(respBody, &errResp)
		return nil, fmt.Errorf("relay error %d: %s", resp.StatusCode, errResp.Error)
	}

	return respBody, nil
}

// Event is a message, presence change, or signaling event pushed or
// queued by the relay.
type Event struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	From      string `json:"from,omitempty"`
	Group     string `json:"group,omitempty"`
	Body      string `json:"body,omitempty"`
	IsGroup   bool   `json:"is_group,omitempty"`
	Data      []byte `json:"data,omitempty"`
	BlobRef   string `json:"blob_ref,omitempty"`
	User      string `json:"user,omitempty"`
	Online    bool   `json:"online,omitempty"`
	Signal    string `json:"signal,omitempty"`
	Payload   string `json:"payload,omitempty"`
	Timestamp int64  `json:"ts"`
}

// HistoryRecord is one persisted history entry.
type HistoryRecord struct {
	Version   int    `json:"v"`
	Type      string `json:"type"`
	From      string `json:"from"`
	Target    string `json:"target"`
	IsGroup   bool   `json:"is_group"`
	Body      string `json:"body,omitempty"`
	BlobRef   string `json:"blob_ref,omitempty"`
	Timestamp int64  `json:"ts"`
}

// LoginResponse is the response from login and logout.
type LoginResponse struct {
	Username string `json:"username"`
	Online   bool   `json:"online"`
}

// Login registers the user and marks it present. A client that logs in
// this way receives events by polling; use Connect for live pushes.
func (c *Client) Login(username string) (*LoginResponse, error) {
	body, _ := json.Marshal(map[string]string{"username": username})
	respBody, err := c.doRequest("POST", "/login", body)
	if err != nil {
		return nil, err
	}

	var resp LoginResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout ends the user's session.
func (c *Client) Logout(username string) error {
	body, _ := json.Marshal(map[string]string{"username": username})
	_, err := c.doRequest("POST", "/logout", body)
	return err
}

// Poll drains and returns the user's pending backlog. A second poll
// with nothing new returns an empty slice.
func (c *Client) Poll(username string) ([]Event, error) {
	respBody, err := c.doRequest("GET", "/pending/"+url.PathEscape(username), nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Events []Event `json:"events"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

// SendDirect sends a direct text message.
func (c *Client) SendDirect(from, to, text string) error {
	body, _ := json.Marshal(map[string]string{"from": from, "body": text})
	_, err := c.doRequest("POST", "/dm/"+url.PathEscape(to), body)
	return err
}

// SendGroup sends a text message to a group.
func (c *Client) SendGroup(from, group, text string) error {
	body, _ := json.Marshal(map[string]string{"from": from, "body": text})
	_, err := c.doRequest("POST", "/group/"+url.PathEscape(group)+"/messages", body)
	return err
}

// SendVoiceDirect uploads a raw voice note for one user.
func (c *Client) SendVoiceDirect(from, to string, audio []byte) error {
	path := "/dm/" + url.PathEscape(to) + "/voice?from=" + url.QueryEscape(from)
	_, err := c.doRaw("POST", path, audio)
	return err
}

// SendVoiceGroup uploads a raw voice note for a group.
func (c *Client) SendVoiceGroup(from, group string, audio []byte) error {
	path := "/group/" + url.PathEscape(group) + "/voice?from=" + url.QueryEscape(from)
	_, err := c.doRaw("POST", path, audio)
	return err
}

// GroupResponse is a group with its member snapshot.
type GroupResponse struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// CreateGroup creates a group. Creating an existing group is a no-op.
func (c *Client) CreateGroup(name, creator string) (*GroupResponse, error) {
	body, _ := json.Marshal(map[string]string{"name": name, "creator": creator})
	respBody, err := c.doRequest("POST", "/groups", body)
	if err != nil {
		return nil, err
	}

	var resp GroupResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddMember adds a user to a group (idempotent).
func (c *Client) AddMember(group, username string) (*GroupResponse, error) {
	body, _ := json.Marshal(map[string]string{"username": username})
	respBody, err := c.doRequest("POST", "/group/"+url.PathEscape(group)+"/members", body)
	if err != nil {
		return nil, err
	}

	var resp GroupResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListGroups lists all known group names.
func (c *Client) ListGroups() ([]string, error) {
	respBody, err := c.doRequest("GET", "/groups", nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Groups []string `json:"groups"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return resp.Groups, nil
}

// Members returns a group's member snapshot.
func (c *Client) Members(group string) (*GroupResponse, error) {
	respBody, err := c.doRequest("GET", "/group/"+url.PathEscape(group)+"/members", nil)
	if err != nil {
		return nil, err
	}

	var resp GroupResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListOnline lists users with a live session.
func (c *Client) ListOnline() ([]string, error) {
	respBody, err := c.doRequest("GET", "/online", nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Users []string `json:"users"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

// UserStatus is one known user with its presence flag.
type UserStatus struct {
	Username string `json:"username"`
	Online   bool   `json:"online"`
}

// ListUsers lists every known user with presence.
func (c *Client) ListUsers() ([]UserStatus, error) {
	respBody, err := c.doRequest("GET", "/users", nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Users []UserStatus `json:"users"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

// History returns the user's direct log merged with its group logs,
// ordered by timestamp.
func (c *Client) History(username string) ([]HistoryRecord, error) {
	respBody, err := c.doRequest("GET", "/users/"+url.PathEscape(username)+"/history", nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Records []HistoryRecord `json:"records"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return resp.Records, nil
}

// InitiateCall asks the relay to ring the target. It fails when the
// target is offline.
func (c *Client) InitiateCall(from, to string) error {
	return c.callOp("/call/initiate", from, to)
}

// AcceptCall notifies the caller that the call was accepted.
func (c *Client) AcceptCall(from, to string) error {
	return c.callOp("/call/accept", from, to)
}

// EndCall notifies the peer that the call ended. It succeeds even when
// the peer is already gone.
func (c *Client) EndCall(from, to string) error {
	return c.callOp("/call/end", from, to)
}

func (c *Client) callOp(path, from, to string) error {
	body, _ := json.Marshal(map[string]string{"from": from, "to": to})
	_, err := c.doRequest("POST", path, body)
	return err
}

// SendSignal relays a WebRTC offer or answer.
func (c *Client) SendSignal(from, to, kind, payload string) error {
	body, _ := json.Marshal(map[string]string{
		"from": from, "to": to, "type": kind, "payload": payload,
	})
	_, err := c.doRequest("POST", "/call/signal", body)
	return err
}

// SendICECandidate relays an ICE candidate.
func (c *Client) SendICECandidate(from, to, candidate string) error {
	body, _ := json.Marshal(map[string]string{
		"from": from, "to": to, "candidate": candidate,
	})
	_, err := c.doRequest("POST", "/call/candidate", body)
	return err
}

// SendAudioChunk relays a raw in-call audio fragment.
func (c *Client) SendAudioChunk(from, to string, chunk []byte) error {
	path := "/call/audio?from=" + url.QueryEscape(from) + "&to=" + url.QueryEscape(to)
	_, err := c.doRaw("POST", path, chunk)
	return err
}
