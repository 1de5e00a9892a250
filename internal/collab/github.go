package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const githubAPI = "https://api.github.com"

// GitHubSourceControl manages org memberships, repo collaborators and
// setup issues through the REST API. Unlike Slack, GitHub reports
// refusals as HTTP status codes, so any non-2xx answer is an error.
type GitHubSourceControl struct {
	token      string
	defaultOrg string
	baseURL    string
	client     *http.Client
}

func NewGitHubSourceControl(token, org string) *GitHubSourceControl {
	return &GitHubSourceControl{
		token:      token,
		defaultOrg: org,
		baseURL:    githubAPI,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *GitHubSourceControl) org(override string) string {
	if override != "" {
		return override
	}
	return g.defaultOrg
}

func (g *GitHubSourceControl) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("github %s %s: %s", method, path, resp.Status)
	}
	return data, nil
}

func (g *GitHubSourceControl) InviteToOrg(ctx context.Context, username, org string) (InviteResult, error) {
	target := g.org(org)
	data, err := g.do(ctx, http.MethodPut,
		fmt.Sprintf("/orgs/%s/memberships/%s", target, username),
		map[string]string{"role": "member"})
	if err != nil {
		return InviteResult{}, err
	}

	var out struct {
		State string `json:"state"`
		Role  string `json:"role"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return InviteResult{}, fmt.Errorf("decode membership: %w", err)
	}
	log.Printf("[collab] invited %s to %s (state=%s)", username, target, out.State)
	return InviteResult{Success: true, State: out.State, Role: out.Role}, nil
}

func (g *GitHubSourceControl) GrantRepoAccess(ctx context.Context, username string, repos []string, org, permission string) ([]RepoResult, error) {
	target := g.org(org)
	if permission == "" {
		permission = "push"
	}

	results := make([]RepoResult, 0, len(repos))
	for _, repo := range repos {
		_, err := g.do(ctx, http.MethodPut,
			fmt.Sprintf("/repos/%s/%s/collaborators/%s", target, repo, username),
			map[string]string{"permission": permission})
		if err != nil {
			return nil, fmt.Errorf("grant %s on %s/%s: %w", permission, target, repo, err)
		}
		log.Printf("[collab] granted %s %s on %s/%s", username, permission, target, repo)
		results = append(results, RepoResult{Repo: repo, Success: true, Permission: permission})
	}
	return results, nil
}

func (g *GitHubSourceControl) CreateSetupIssue(ctx context.Context, username, repo, org string) (IssueResult, error) {
	target := g.org(org)
	data, err := g.do(ctx, http.MethodPost,
		fmt.Sprintf("/repos/%s/%s/issues", target, repo),
		map[string]any{
			"title":     issueTitle(username),
			"body":      issueBody(username),
			"assignees": []string{username},
			"labels":    []string{"onboarding", "good first issue"},
		})
	if err != nil {
		return IssueResult{}, err
	}

	var out struct {
		Number  int    `json:"number"`
		Title   string `json:"title"`
		HTMLURL string `json:"html_url"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return IssueResult{}, fmt.Errorf("decode issue: %w", err)
	}
	log.Printf("[collab] setup issue #%d in %s/%s for %s", out.Number, target, repo, username)
	return IssueResult{Success: true, IssueNumber: out.Number, Title: out.Title, URL: out.HTMLURL}, nil
}

func issueTitle(username string) string {
	return fmt.Sprintf("🚀 Dev Environment Setup — %s", username)
}

func issueBody(username string) string {
	return fmt.Sprintf(`## Welcome %s! 👋

This issue tracks your development environment setup.

### Checklist
- [ ] Clone the repository
- [ ] Install dependencies
- [ ] Set up local environment variables (see `+"`.env.example`"+`)
- [ ] Run the test suite
- [ ] Make your first commit on a feature branch
- [ ] Open your first PR (can be a small README fix!)

### Resources
- [Engineering Handbook](https://wiki.acme-corp.dev/handbook)
- [Git Workflow Guide](https://wiki.acme-corp.dev/git-workflow)
- [Code Review Guidelines](https://wiki.acme-corp.dev/code-review)

_This issue was auto-created by the Onboarding Agent_ 🤖
`, username)
}
