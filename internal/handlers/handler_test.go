package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Juanjvr123/proyecto-final-compunet-1/internal/api"
	"github.com/Juanjvr123/proyecto-final-compunet-1/internal/core"
	"github.com/Juanjvr123/proyecto-final-compunet-1/internal/handlers"
	"github.com/Juanjvr123/proyecto-final-compunet-1/internal/models"
	"github.com/Juanjvr123/proyecto-final-compunet-1/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := zerolog.Nop()

	fs, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	directory, err := core.NewDirectory(context.Background(), fs, logger)
	if err != nil {
		t.Fatal(err)
	}
	presence := core.NewPresence(logger, 500*time.Millisecond)
	queue := core.NewMemoryQueue()
	dispatcher := core.NewDispatcher(presence, queue, directory, 500*time.Millisecond, logger)
	chat := core.New(presence, directory, queue, dispatcher, fs, logger)

	h := handlers.NewHandler(chat)
	h.AddCheck("data_dir", fs.Ping)

	wsStub := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotImplemented)
	}
	srv := httptest.NewServer(api.NewRouter(logger, h, wsStub, 4<<20))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, srv *httptest.Server, path string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatal(err)
	}
}

func TestLoginSendPollFlow(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv, "/login", map[string]string{"username": "alice"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", resp.StatusCode)
	}
	var login handlers.LoginResponse
	decode(t, resp, &login)
	if login.Username != "alice" || !login.Online {
		t.Fatalf("unexpected login response: %+v", login)
	}

	resp = postJSON(t, srv, "/dm/bob", map[string]string{"from": "alice", "body": "hello"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("send: expected 201, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp, err := http.Get(srv.URL + "/pending/bob")
	if err != nil {
		t.Fatal(err)
	}
	var pending handlers.PendingResponse
	decode(t, resp, &pending)
	if len(pending.Events) != 1 || pending.Events[0].Body != "hello" {
		t.Fatalf("unexpected pending events: %+v", pending.Events)
	}

	resp, err = http.Get(srv.URL + "/pending/bob")
	if err != nil {
		t.Fatal(err)
	}
	decode(t, resp, &pending)
	if len(pending.Events) != 0 {
		t.Fatal("second poll should drain nothing")
	}
}

func TestSendDirectValidation(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv, "/dm/bob", map[string]string{"from": "", "body": "hi"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing sender, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, srv, "/dm/bob", map[string]string{"from": "alice", "body": ""})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty body, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLogoutWithoutSession(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv, "/logout", map[string]string{"username": "ghost"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown session, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestGroupLifecycle(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv, "/groups", map[string]string{"name": "team", "creator": "alice"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", resp.StatusCode)
	}
	var group handlers.GroupResponse
	decode(t, resp, &group)
	if group.Name != "team" || len(group.Members) != 1 || group.Members[0] != "alice" {
		t.Fatalf("unexpected group: %+v", group)
	}

	resp = postJSON(t, srv, "/group/team/members", map[string]string{"username": "bob"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add member: expected 200, got %d", resp.StatusCode)
	}
	decode(t, resp, &group)
	if len(group.Members) != 2 {
		t.Fatalf("expected 2 members, got %v", group.Members)
	}

	resp, err := http.Get(srv.URL + "/users/bob/groups")
	if err != nil {
		t.Fatal(err)
	}
	var userGroups handlers.UserGroupsResponse
	decode(t, resp, &userGroups)
	if len(userGroups.Groups) != 1 || userGroups.Groups[0] != "team" {
		t.Fatalf("unexpected user groups: %+v", userGroups)
	}
}

func TestCreateGroupRejectsBadName(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv, "/groups", map[string]string{"name": "team room!"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid name, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestVoiceUploadAndHistory(t *testing.T) {
	srv := newTestServer(t)
	audio := []byte("raw-audio")

	resp, err := http.Post(srv.URL+"/dm/bob/voice?from=alice", "application/octet-stream", bytes.NewReader(audio))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("voice upload: expected 201, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/users/bob/history")
	if err != nil {
		t.Fatal(err)
	}
	var history handlers.HistoryResponse
	decode(t, resp, &history)
	if len(history.Records) != 1 {
		t.Fatalf("expected 1 history record, got %d", len(history.Records))
	}
	rec := history.Records[0]
	if rec.Type != models.RecordVoiceNote || rec.From != "alice" || rec.BlobRef == "" {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestEmptyVoiceUploadRejected(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/dm/bob/voice?from=alice", "application/octet-stream", bytes.NewReader(nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty payload, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestCallSignalingOffline(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv, "/call/initiate", map[string]string{"from": "alice", "to": "bob"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("initiate to offline peer: expected 404, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Hanging up on a gone peer is fine.
	resp = postJSON(t, srv, "/call/end", map[string]string{"from": "alice", "to": "bob"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("end call: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var health handlers.HealthResponse
	decode(t, resp, &health)
	if health.Status != "healthy" {
		t.Fatalf("expected healthy, got %q", health.Status)
	}
	if _, ok := health.Checks["data_dir"]; !ok {
		t.Fatal("expected the data_dir probe to be reported")
	}
}
