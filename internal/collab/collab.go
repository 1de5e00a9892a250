package collab

import (
	"context"
	"log"

	"github.com/stellarlinkco/rampup/internal/config"
)

// Chat posts to the company chat workspace (Slack-shaped).
type Chat interface {
	SendWelcomeDM(ctx context.Context, email, name, role, team string) (DMResult, error)
	AddToChannels(ctx context.Context, email string, channels []string) ([]ChannelResult, error)
	PostIntro(ctx context.Context, channel, name, role, team, funFact string) (PostResult, error)
	PostMessage(ctx context.Context, channel, text string) (PostResult, error)
}

// Docs shares from the company document store (Drive-shaped).
type Docs interface {
	ShareDocuments(ctx context.Context, email string, docKeys []string, permission string) ([]ShareResult, error)
	CreatePersonalFolder(ctx context.Context, email, name, team string) (FolderResult, error)
	ListLibrary() []DocInfo
}

// SourceControl manages the engineering org (GitHub-shaped). An empty
// org or permission means the implementation's default.
type SourceControl interface {
	InviteToOrg(ctx context.Context, username, org string) (InviteResult, error)
	GrantRepoAccess(ctx context.Context, username string, repos []string, org, permission string) ([]RepoResult, error)
	CreateSetupIssue(ctx context.Context, username, repo, org string) (IssueResult, error)
}

// A result with Success false and a nil error is a soft failure: the
// collaborator answered but declined. Transport and auth problems come
// back as errors instead.

type DMResult struct {
	Success bool   `json:"success"`
	Mock    bool   `json:"mock,omitempty"`
	Message string `json:"message,omitempty"`
	Channel string `json:"channel,omitempty"`
	Error   string `json:"error,omitempty"`
}

type ChannelResult struct {
	Channel   string `json:"channel"`
	Success   bool   `json:"success"`
	Mock      bool   `json:"mock,omitempty"`
	ChannelID string `json:"channel_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

type PostResult struct {
	Success bool   `json:"success"`
	Mock    bool   `json:"mock,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type ShareResult struct {
	DocKey     string `json:"doc_key"`
	Name       string `json:"name,omitempty"`
	URL        string `json:"url,omitempty"`
	Type       string `json:"type,omitempty"`
	Permission string `json:"permission,omitempty"`
	Success    bool   `json:"success"`
	Mock       bool   `json:"mock,omitempty"`
	Error      string `json:"error,omitempty"`
}

type FolderResult struct {
	Success    bool   `json:"success"`
	Mock       bool   `json:"mock,omitempty"`
	FolderName string `json:"folder_name"`
	FolderID   string `json:"folder_id,omitempty"`
	URL        string `json:"url,omitempty"`
	Error      string `json:"error,omitempty"`
}

type DocInfo struct {
	Key  string `json:"key"`
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type"`
}

type InviteResult struct {
	Success      bool   `json:"success"`
	Mock         bool   `json:"mock,omitempty"`
	Message      string `json:"message,omitempty"`
	InvitationID string `json:"invitation_id,omitempty"`
	State        string `json:"state,omitempty"`
	Role         string `json:"role,omitempty"`
	Error        string `json:"error,omitempty"`
}

type RepoResult struct {
	Repo       string `json:"repo"`
	Success    bool   `json:"success"`
	Mock       bool   `json:"mock,omitempty"`
	Permission string `json:"permission,omitempty"`
	Error      string `json:"error,omitempty"`
}

type IssueResult struct {
	Success     bool   `json:"success"`
	Mock        bool   `json:"mock,omitempty"`
	IssueNumber int    `json:"issue_number,omitempty"`
	Title       string `json:"title,omitempty"`
	URL         string `json:"url,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Collaborators bundles the three capabilities the orchestrator drives.
type Collaborators struct {
	Chat          Chat
	Docs          Docs
	SourceControl SourceControl
}

// New selects live or mock per capability, once, by credential presence.
// The choice never changes for the lifetime of the process.
func New(cfg *config.Config) *Collaborators {
	c := &Collaborators{}

	if cfg.Slack.BotToken != "" {
		c.Chat = NewSlackChat(cfg.Slack.BotToken)
		log.Printf("[collab] chat: live slack")
	} else {
		c.Chat = MockChat{}
		log.Printf("[collab] chat: mock (set SLACK_BOT_TOKEN for live)")
	}

	if cfg.GDrive.ServiceAccountKey != "" {
		c.Docs = NewDriveDocs(cfg.GDrive.ServiceAccountKey)
		log.Printf("[collab] docs: live google drive")
	} else {
		c.Docs = MockDocs{}
		log.Printf("[collab] docs: mock (set GDRIVE_SERVICE_ACCOUNT_KEY for live)")
	}

	if cfg.GitHub.Token != "" {
		c.SourceControl = NewGitHubSourceControl(cfg.GitHub.Token, cfg.GitHub.Org)
		log.Printf("[collab] scm: live github org=%s", cfg.GitHub.Org)
	} else {
		c.SourceControl = MockSourceControl{Org: cfg.GitHub.Org}
		log.Printf("[collab] scm: mock (set GITHUB_TOKEN for live)")
	}

	return c
}
