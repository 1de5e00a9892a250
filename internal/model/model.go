package model

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the lifecycle state of one onboarding task. Transitions
// are pending -> completed, pending -> failed, pending -> skipped; tasks
// are never deleted.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusFailed     TaskStatus = "failed"
	StatusSkipped    TaskStatus = "skipped"
)

// TaskCategory names the collaborator group that fulfils a task.
type TaskCategory string

const (
	CategoryChat    TaskCategory = "chat"
	CategoryDocs    TaskCategory = "docs"
	CategorySCM     TaskCategory = "scm"
	CategoryGeneral TaskCategory = "general"
)

// MatchKeyword is the closed set of name fragments used to map a
// collaborator side effect onto a checklist task. Matching is the first
// pending task in a category whose lowercased name contains the keyword.
type MatchKeyword string

const (
	KeywordWelcome   MatchKeyword = "welcome"
	KeywordChannels  MatchKeyword = "channels"
	KeywordIntro     MatchKeyword = "intro"
	KeywordDocuments MatchKeyword = "documents"
	KeywordFolder    MatchKeyword = "folder"
	KeywordInvite    MatchKeyword = "invite"
	KeywordAccess    MatchKeyword = "access"
	KeywordIssue     MatchKeyword = "issue"
)

// NewID returns the short opaque id used for employees and tasks.
func NewID() string {
	return uuid.NewString()[:8]
}

// Employee is the identity record of a new hire. Immutable after
// creation except via full replacement.
type Employee struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	Team           string    `json:"team"`
	GithubUsername string    `json:"github_username,omitempty"`
	StartDate      string    `json:"start_date"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewEmployee builds an Employee with a fresh id and today's start date.
func NewEmployee(name, email, role, team, githubUsername string) Employee {
	now := time.Now()
	return Employee{
		ID:             NewID(),
		Name:           name,
		Email:          email,
		Role:           role,
		Team:           team,
		GithubUsername: githubUsername,
		StartDate:      now.Format("2006-01-02"),
		CreatedAt:      now,
	}
}

// OnboardingTask is one checklist item.
type OnboardingTask struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Category    TaskCategory `json:"category"`
	Status      TaskStatus   `json:"status"`
	CompletedAt time.Time    `json:"completed_at,omitzero"`
	Details     string       `json:"details,omitempty"`
}

// NewTask builds a pending task with a fresh id.
func NewTask(name, description string, category TaskCategory) OnboardingTask {
	return OnboardingTask{
		ID:          NewID(),
		Name:        name,
		Description: description,
		Category:    category,
		Status:      StatusPending,
	}
}

// OnboardingStatus aggregates an employee with their ordered task list
// and the derived progress. Task order is creation order and is
// meaningful for display.
type OnboardingStatus struct {
	Employee        Employee         `json:"employee"`
	Tasks           []OnboardingTask `json:"tasks"`
	ProgressPercent float64          `json:"progress_percent"`
	StartedAt       time.Time        `json:"started_at"`
	CompletedAt     time.Time        `json:"completed_at,omitzero"`
}

// Counts returns how many tasks are completed and how many exist in
// total. Failed and skipped tasks count toward the total only.
func (s *OnboardingStatus) Counts() (completed, total int) {
	for _, t := range s.Tasks {
		if t.Status == StatusCompleted {
			completed++
		}
	}
	return completed, len(s.Tasks)
}

// UpdateProgress recomputes the completion percentage (one decimal) and
// stamps CompletedAt the first time it reaches 100. The stamp is a
// watermark: once set it never moves, even if new tasks later pull the
// percentage back under 100.
func (s *OnboardingStatus) UpdateProgress() {
	completed, total := s.Counts()
	if total == 0 {
		s.ProgressPercent = 0
		return
	}
	s.ProgressPercent = math.Round(float64(completed)/float64(total)*1000) / 10
	if s.ProgressPercent >= 100 && s.CompletedAt.IsZero() {
		s.CompletedAt = time.Now()
	}
}

// Clone returns a deep copy safe to hand out across goroutines.
func (s *OnboardingStatus) Clone() OnboardingStatus {
	out := *s
	out.Tasks = make([]OnboardingTask, len(s.Tasks))
	copy(out.Tasks, s.Tasks)
	return out
}
