package collab

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newSlackTestClient(t *testing.T, handler http.Handler) *SlackChat {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &SlackChat{token: "xoxb-test", baseURL: srv.URL, client: srv.Client()}
}

func TestSlackSendWelcomeDM(t *testing.T) {
	var postedText string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer xoxb-test" {
			t.Errorf("auth header = %q", got)
		}
		switch r.URL.Path {
		case "/users.lookupByEmail":
			if got := r.URL.Query().Get("email"); got != "ada@acme.dev" {
				t.Errorf("lookup email = %q", got)
			}
			json.NewEncoder(w).Encode(map[string]any{"ok": true, "user": map[string]string{"id": "U123"}})
		case "/conversations.open":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["users"] != "U123" {
				t.Errorf("open users = %q", body["users"])
			}
			json.NewEncoder(w).Encode(map[string]any{"ok": true, "channel": map[string]string{"id": "D456"}})
		case "/chat.postMessage":
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			postedText, _ = body["text"].(string)
			if body["channel"] != "D456" {
				t.Errorf("post channel = %v", body["channel"])
			}
			json.NewEncoder(w).Encode(map[string]any{"ok": true})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	chat := newSlackTestClient(t, handler)
	res, err := chat.SendWelcomeDM(context.Background(), "ada@acme.dev", "Ada", "Engineer", "Core")
	if err != nil {
		t.Fatalf("SendWelcomeDM error: %v", err)
	}
	if !res.Success {
		t.Errorf("result = %+v, want success", res)
	}
	if res.Channel != "D456" {
		t.Errorf("channel = %q, want D456", res.Channel)
	}
	if !strings.Contains(postedText, "Welcome to ACME Corp, Ada!") {
		t.Errorf("welcome text missing greeting: %q", postedText)
	}
	if !strings.Contains(postedText, "*Core* team as a *Engineer*") {
		t.Errorf("welcome text missing team/role: %q", postedText)
	}
}

func TestSlackSendWelcomeDM_UnknownUser(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "users_not_found"})
	})

	chat := newSlackTestClient(t, handler)
	res, err := chat.SendWelcomeDM(context.Background(), "ghost@acme.dev", "Ghost", "Engineer", "Core")
	if err != nil {
		t.Fatalf("soft failure should not be an error: %v", err)
	}
	if res.Success {
		t.Error("unknown user should not succeed")
	}
	if res.Error != "users_not_found" {
		t.Errorf("error = %q, want users_not_found", res.Error)
	}
}

func TestSlackAddToChannels(t *testing.T) {
	invites := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users.lookupByEmail":
			json.NewEncoder(w).Encode(map[string]any{"ok": true, "user": map[string]string{"id": "U123"}})
		case "/conversations.invite":
			invites++
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			if body["channel"] == "#engineering" {
				json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "already_in_channel"})
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"ok": true})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	chat := newSlackTestClient(t, handler)
	results, err := chat.AddToChannels(context.Background(), "ada@acme.dev", []string{"#general", "#engineering"})
	if err != nil {
		t.Fatalf("AddToChannels error: %v", err)
	}
	if invites != 2 {
		t.Errorf("invites = %d, want 2", invites)
	}
	if !results[0].Success {
		t.Errorf("#general: %+v, want success", results[0])
	}
	if results[1].Success || results[1].Error != "already_in_channel" {
		t.Errorf("#engineering: %+v, want soft already_in_channel failure", results[1])
	}
}

func TestSlackAddToChannels_UnknownUser(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users.lookupByEmail" {
			t.Errorf("no invites expected, got %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{"ok": false})
	})

	chat := newSlackTestClient(t, handler)
	results, err := chat.AddToChannels(context.Background(), "ghost@acme.dev", []string{"#general", "#random"})
	if err != nil {
		t.Fatalf("AddToChannels error: %v", err)
	}
	for _, r := range results {
		if r.Success || r.Error != "User not found" {
			t.Errorf("%s: %+v, want User not found", r.Channel, r)
		}
	}
}

func TestSlackPostIntro(t *testing.T) {
	var postedText string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat.postMessage" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		postedText, _ = body["text"].(string)
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	})

	chat := newSlackTestClient(t, handler)
	res, err := chat.PostIntro(context.Background(), "#general", "Ada", "Engineer", "Core", "writes compilers for fun")
	if err != nil {
		t.Fatalf("PostIntro error: %v", err)
	}
	if !res.Success {
		t.Errorf("result = %+v", res)
	}
	if !strings.Contains(postedText, "please welcome Ada!") {
		t.Errorf("intro text = %q", postedText)
	}
	if !strings.Contains(postedText, "Fun fact:") {
		t.Errorf("fun fact line missing: %q", postedText)
	}
}

func TestSlackPostIntro_NoFunFact(t *testing.T) {
	var postedText string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		postedText, _ = body["text"].(string)
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	})

	chat := newSlackTestClient(t, handler)
	if _, err := chat.PostIntro(context.Background(), "#general", "Ada", "Engineer", "Core", ""); err != nil {
		t.Fatalf("PostIntro error: %v", err)
	}
	if strings.Contains(postedText, "Fun fact:") {
		t.Errorf("fun fact line should be absent: %q", postedText)
	}
}

func TestSlackTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	chat := &SlackChat{token: "xoxb-test", baseURL: srv.URL, client: srv.Client()}
	srv.Close()

	if _, err := chat.SendWelcomeDM(context.Background(), "ada@acme.dev", "Ada", "Engineer", "Core"); err == nil {
		t.Error("expected transport error from closed server")
	}
	if _, err := chat.PostMessage(context.Background(), "#general", "hi"); err == nil {
		t.Error("expected transport error from closed server")
	}
}
