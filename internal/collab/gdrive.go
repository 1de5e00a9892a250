package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2/google"
)

const (
	driveAPI   = "https://www.googleapis.com/drive/v3"
	driveScope = "https://www.googleapis.com/auth/drive"
)

// DriveDocs shares library documents through the Drive API as a service
// account. The catalog of shareable docs is the fixed library table; the
// ids in it must exist in the service account's drive for live mode.
type DriveDocs struct {
	keyPath string
	baseURL string

	mu     sync.Mutex
	client *http.Client
}

func NewDriveDocs(keyPath string) *DriveDocs {
	return &DriveDocs{keyPath: keyPath, baseURL: driveAPI}
}

// httpClient builds the authenticated client on first use so that a bad
// key file surfaces as a stage failure, not a startup crash.
func (d *DriveDocs) httpClient() (*http.Client, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.client != nil {
		return d.client, nil
	}

	key, err := os.ReadFile(d.keyPath)
	if err != nil {
		return nil, fmt.Errorf("read service account key: %w", err)
	}
	conf, err := google.JWTConfigFromJSON(key, driveScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account key: %w", err)
	}
	client := conf.Client(context.Background())
	client.Timeout = 10 * time.Second
	d.client = client
	return client, nil
}

func (d *DriveDocs) post(ctx context.Context, path string, payload any, out any) (int, error) {
	client, err := d.httpClient()
	if err != nil {
		return 0, err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode drive response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func (d *DriveDocs) ShareDocuments(ctx context.Context, email string, docKeys []string, permission string) ([]ShareResult, error) {
	if permission == "" {
		permission = "reader"
	}

	results := make([]ShareResult, 0, len(docKeys))
	for _, key := range docKeys {
		doc, ok := library[key]
		if !ok {
			results = append(results, ShareResult{DocKey: key, Success: false, Error: "Document not found"})
			continue
		}

		code, err := d.post(ctx, fmt.Sprintf("/files/%s/permissions?sendNotificationEmail=false", doc.id),
			map[string]string{
				"role":         permission,
				"type":         "user",
				"emailAddress": email,
			}, nil)
		if err != nil {
			return nil, fmt.Errorf("share %s: %w", key, err)
		}
		if code < 200 || code >= 300 {
			results = append(results, ShareResult{DocKey: key, Success: false, Error: fmt.Sprintf("drive: HTTP %d", code)})
			continue
		}

		log.Printf("[collab] shared %q with %s as %s", doc.name, email, permission)
		results = append(results, ShareResult{
			DocKey:     key,
			Name:       doc.name,
			URL:        doc.url,
			Type:       doc.docType,
			Permission: permission,
			Success:    true,
		})
	}
	return results, nil
}

func (d *DriveDocs) CreatePersonalFolder(ctx context.Context, email, name, team string) (FolderResult, error) {
	folderName := personalFolderName(name, team)

	var created struct {
		ID          string `json:"id"`
		WebViewLink string `json:"webViewLink"`
	}
	code, err := d.post(ctx, "/files?fields=id,webViewLink", map[string]string{
		"name":     folderName,
		"mimeType": "application/vnd.google-apps.folder",
	}, &created)
	if err != nil {
		return FolderResult{}, fmt.Errorf("create folder: %w", err)
	}
	if code < 200 || code >= 300 {
		return FolderResult{Success: false, FolderName: folderName, Error: fmt.Sprintf("drive: HTTP %d", code)}, nil
	}

	// The new hire gets write access to their own folder.
	code, err = d.post(ctx, fmt.Sprintf("/files/%s/permissions?sendNotificationEmail=false", created.ID),
		map[string]string{
			"role":         "writer",
			"type":         "user",
			"emailAddress": email,
		}, nil)
	if err != nil {
		return FolderResult{}, fmt.Errorf("share folder: %w", err)
	}
	if code < 200 || code >= 300 {
		return FolderResult{Success: false, FolderName: folderName, FolderID: created.ID, Error: fmt.Sprintf("drive: HTTP %d", code)}, nil
	}

	log.Printf("[collab] created folder %q for %s", folderName, email)
	return FolderResult{
		Success:    true,
		FolderName: folderName,
		FolderID:   created.ID,
		URL:        created.WebViewLink,
	}, nil
}

func (d *DriveDocs) ListLibrary() []DocInfo {
	return Library()
}
