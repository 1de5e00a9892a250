package collab

import (
	"context"
	"fmt"
	"log"
)

// Mock collaborators log the side effects they pretend to perform and
// answer with the same shapes as the live clients. They are selected at
// startup when a capability has no credential.

var mockChannels = map[string]string{
	"#general":       "C000GENERAL",
	"#random":        "C000RANDOM",
	"#engineering":   "C000ENGINEER",
	"#design":        "C000DESIGN",
	"#standup":       "C000STANDUP",
	"#hr":            "C000HR",
	"#announcements": "C000ANNOUNCE",
	"#onboarding":    "C000ONBOARD",
}

type MockChat struct{}

func (MockChat) SendWelcomeDM(_ context.Context, email, name, role, team string) (DMResult, error) {
	log.Printf("[collab] mock chat: welcome DM to %s <%s> (%s, %s)", name, email, role, team)
	return DMResult{
		Success: true,
		Mock:    true,
		Message: fmt.Sprintf("Welcome DM sent to %s", name),
		Channel: "D_MOCK_DM",
	}, nil
}

func (MockChat) AddToChannels(_ context.Context, email string, channels []string) ([]ChannelResult, error) {
	results := make([]ChannelResult, 0, len(channels))
	for _, channel := range channels {
		id, ok := mockChannels[channel]
		if !ok {
			id = "C_MOCK_" + channel
		}
		log.Printf("[collab] mock chat: added %s to %s", email, channel)
		results = append(results, ChannelResult{
			Channel:   channel,
			Success:   true,
			Mock:      true,
			ChannelID: id,
		})
	}
	return results, nil
}

func (MockChat) PostIntro(_ context.Context, channel, name, role, team, funFact string) (PostResult, error) {
	log.Printf("[collab] mock chat: intro for %s (%s, %s) in %s", name, role, team, channel)
	return PostResult{
		Success: true,
		Mock:    true,
		Message: fmt.Sprintf("Intro posted in %s", channel),
	}, nil
}

func (MockChat) PostMessage(_ context.Context, channel, text string) (PostResult, error) {
	log.Printf("[collab] mock chat: message in %s: %.80s", channel, text)
	return PostResult{
		Success: true,
		Mock:    true,
		Message: fmt.Sprintf("Message posted in %s", channel),
	}, nil
}

type MockDocs struct{}

func (MockDocs) ShareDocuments(_ context.Context, email string, docKeys []string, permission string) ([]ShareResult, error) {
	if permission == "" {
		permission = "reader"
	}
	results := make([]ShareResult, 0, len(docKeys))
	for _, key := range docKeys {
		doc, ok := library[key]
		if !ok {
			results = append(results, ShareResult{
				DocKey:  key,
				Success: false,
				Error:   "Document not found",
			})
			continue
		}
		log.Printf("[collab] mock docs: shared %q with %s as %s", doc.name, email, permission)
		results = append(results, ShareResult{
			DocKey:     key,
			Name:       doc.name,
			URL:        doc.url,
			Type:       doc.docType,
			Permission: permission,
			Success:    true,
			Mock:       true,
		})
	}
	return results, nil
}

func (MockDocs) CreatePersonalFolder(_ context.Context, email, name, team string) (FolderResult, error) {
	folderName := personalFolderName(name, team)
	log.Printf("[collab] mock docs: folder %q for %s", folderName, email)
	return FolderResult{
		Success:    true,
		Mock:       true,
		FolderName: folderName,
		FolderID:   "folder-personal-001",
		URL:        "https://drive.google.com/drive/folders/mock-personal/",
	}, nil
}

func (MockDocs) ListLibrary() []DocInfo {
	return Library()
}

func personalFolderName(name, team string) string {
	return fmt.Sprintf("Onboarding — %s (%s)", name, team)
}

// MockSourceControl answers as if the org membership API said yes. Org
// holds the configured default for when the caller passes "".
type MockSourceControl struct {
	Org string
}

func (m MockSourceControl) orgName(org string) string {
	if org != "" {
		return org
	}
	return m.Org
}

func (m MockSourceControl) InviteToOrg(_ context.Context, username, org string) (InviteResult, error) {
	target := m.orgName(org)
	log.Printf("[collab] mock scm: invited %s to %s", username, target)
	return InviteResult{
		Success:      true,
		Mock:         true,
		Message:      fmt.Sprintf("Invited %s to %s", username, target),
		InvitationID: "mock-inv-001",
	}, nil
}

func (m MockSourceControl) GrantRepoAccess(_ context.Context, username string, repos []string, org, permission string) ([]RepoResult, error) {
	if permission == "" {
		permission = "push"
	}
	results := make([]RepoResult, 0, len(repos))
	for _, repo := range repos {
		log.Printf("[collab] mock scm: %s access on %s/%s for %s", permission, m.orgName(org), repo, username)
		results = append(results, RepoResult{
			Repo:       repo,
			Success:    true,
			Mock:       true,
			Permission: permission,
		})
	}
	return results, nil
}

func (m MockSourceControl) CreateSetupIssue(_ context.Context, username, repo, org string) (IssueResult, error) {
	target := m.orgName(org)
	title := issueTitle(username)
	log.Printf("[collab] mock scm: setup issue in %s/%s for %s", target, repo, username)
	return IssueResult{
		Success:     true,
		Mock:        true,
		IssueNumber: 42,
		Title:       title,
		URL:         fmt.Sprintf("https://github.com/%s/%s/issues/42", target, repo),
	}, nil
}
