package collab

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newDriveTestClient(t *testing.T, handler http.Handler) *DriveDocs {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	// Injecting the client skips the service account key exchange.
	return &DriveDocs{keyPath: "unused", baseURL: srv.URL, client: srv.Client()}
}

func TestDriveShareDocuments(t *testing.T) {
	var paths []string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["emailAddress"] != "ada@acme.dev" {
			t.Errorf("emailAddress = %q", body["emailAddress"])
		}
		if body["role"] != "reader" {
			t.Errorf("role = %q, want reader", body["role"])
		}
		if body["type"] != "user" {
			t.Errorf("type = %q, want user", body["type"])
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "perm-1"})
	})

	docs := newDriveTestClient(t, handler)
	results, err := docs.ShareDocuments(context.Background(), "ada@acme.dev",
		[]string{"company-handbook", "no-such-doc", "engineering-handbook"}, "")
	if err != nil {
		t.Fatalf("ShareDocuments error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}

	// Only the two known docs hit the API.
	wantPaths := []string{
		"/files/doc-handbook-001/permissions",
		"/files/doc-eng-001/permissions",
	}
	if len(paths) != 2 || paths[0] != wantPaths[0] || paths[1] != wantPaths[1] {
		t.Errorf("api paths = %v, want %v", paths, wantPaths)
	}

	if !results[0].Success || results[0].Permission != "reader" {
		t.Errorf("handbook result = %+v", results[0])
	}
	if results[1].Success || results[1].Error != "Document not found" {
		t.Errorf("unknown doc result = %+v", results[1])
	}
	if !results[2].Success {
		t.Errorf("eng handbook result = %+v", results[2])
	}
}

func TestDriveShareDocuments_Denied(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	docs := newDriveTestClient(t, handler)
	results, err := docs.ShareDocuments(context.Background(), "ada@acme.dev", []string{"company-handbook"}, "")
	if err != nil {
		t.Fatalf("a denied share is soft, not an error: %v", err)
	}
	if results[0].Success {
		t.Error("denied share should not succeed")
	}
	if results[0].Error != "drive: HTTP 403" {
		t.Errorf("error = %q", results[0].Error)
	}
}

func TestDriveCreatePersonalFolder(t *testing.T) {
	var calls []string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.Path)
		switch r.URL.Path {
		case "/files":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["name"] != "Onboarding — Ada (Core)" {
				t.Errorf("folder name = %q", body["name"])
			}
			if body["mimeType"] != "application/vnd.google-apps.folder" {
				t.Errorf("mimeType = %q", body["mimeType"])
			}
			json.NewEncoder(w).Encode(map[string]string{
				"id":          "f123",
				"webViewLink": "https://drive.google.com/drive/folders/f123",
			})
		case "/files/f123/permissions":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["role"] != "writer" {
				t.Errorf("folder permission role = %q, want writer", body["role"])
			}
			json.NewEncoder(w).Encode(map[string]string{"id": "perm-2"})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	docs := newDriveTestClient(t, handler)
	res, err := docs.CreatePersonalFolder(context.Background(), "ada@acme.dev", "Ada", "Core")
	if err != nil {
		t.Fatalf("CreatePersonalFolder error: %v", err)
	}
	if !res.Success {
		t.Errorf("result = %+v", res)
	}
	if res.FolderID != "f123" {
		t.Errorf("folder id = %q", res.FolderID)
	}
	if res.FolderName != "Onboarding — Ada (Core)" {
		t.Errorf("folder name = %q", res.FolderName)
	}
	if len(calls) != 2 {
		t.Errorf("api calls = %v, want create then share", calls)
	}
}

func TestDriveBadKeyPath(t *testing.T) {
	docs := NewDriveDocs("/nonexistent/key.json")
	if _, err := docs.ShareDocuments(context.Background(), "ada@acme.dev", []string{"company-handbook"}, ""); err == nil {
		t.Error("expected error for unreadable key file")
	}
}

func TestDriveListLibrary(t *testing.T) {
	docs := NewDriveDocs("/unused/key.json")
	if got := len(docs.ListLibrary()); got != 8 {
		t.Errorf("library = %d docs, want 8", got)
	}
}
