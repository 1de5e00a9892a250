package onboard

import (
	"context"
	"fmt"
	"log"

	"github.com/stellarlinkco/rampup/internal/bus"
	"github.com/stellarlinkco/rampup/internal/collab"
	"github.com/stellarlinkco/rampup/internal/model"
	"github.com/stellarlinkco/rampup/internal/store"
	"github.com/stellarlinkco/rampup/internal/workflow"
)

// Request is one new hire to onboard.
type Request struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	Team           string `json:"team"`
	GithubUsername string `json:"github_username,omitempty"`
}

// StepResult records one collaborator action, or one failed stage.
type StepResult struct {
	Step     string `json:"step"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	Response any    `json:"response,omitempty"`
}

// Result is the aggregate outcome of one onboarding run.
type Result struct {
	EmployeeID     string       `json:"employee_id"`
	Name           string       `json:"name"`
	Steps          []StepResult `json:"steps"`
	Progress       float64      `json:"progress"`
	CompletedTasks int          `json:"completed_tasks"`
	TotalTasks     int          `json:"total_tasks"`
}

// Orchestrator drives the fixed chat, docs, scm stage sequence for new
// hires. A failed stage is trapped at its boundary and recorded; the
// remaining stages still run.
type Orchestrator struct {
	store        *store.Store
	collabs      *collab.Collaborators
	resolver     *workflow.Resolver
	bus          *bus.EventBus // may be nil for one-shot CLI runs
	introChannel string
}

func New(st *store.Store, collabs *collab.Collaborators, resolver *workflow.Resolver, b *bus.EventBus, introChannel string) *Orchestrator {
	return &Orchestrator{
		store:        st,
		collabs:      collabs,
		resolver:     resolver,
		bus:          b,
		introChannel: introChannel,
	}
}

// Onboard registers the employee, materializes their checklist from the
// role template and runs the three collaborator stages. The returned
// Result always describes a registered employee; an error means nothing
// was registered at all.
func (o *Orchestrator) Onboard(ctx context.Context, req Request) (*Result, error) {
	if req.Name == "" || req.Email == "" {
		return nil, fmt.Errorf("name and email are required")
	}

	tpl, err := o.resolver.Resolve(req.Role)
	if err != nil {
		return nil, fmt.Errorf("resolve workflow: %w", err)
	}

	emp, oc := o.store.AddEmployee(model.NewEmployee(req.Name, req.Email, req.Role, req.Team, req.GithubUsername))
	o.warn(oc)

	tasks := make([]model.OnboardingTask, 0, len(tpl.Tasks))
	for _, spec := range tpl.Tasks {
		tasks = append(tasks, model.NewTask(spec.Name, spec.Description, spec.Category))
	}
	o.warn(o.store.AddTasks(emp.ID, tasks))

	log.Printf("[onboard] %s (%s) role=%s team=%s tasks=%d", emp.Name, emp.ID, tpl.Role, emp.Team, len(tasks))
	o.publish(bus.Event{Type: bus.EventOnboardingStarted, EmployeeID: emp.ID, Employee: emp.Name, Success: true})

	res := &Result{EmployeeID: emp.ID, Name: emp.Name}

	if err := o.chatStage(ctx, emp, tpl, res); err != nil {
		o.failStage(res, emp, "chat", err)
	}
	if err := o.docsStage(ctx, emp, tpl, res); err != nil {
		o.failStage(res, emp, "docs", err)
	}
	if emp.GithubUsername == "" {
		log.Printf("[onboard] %s has no github username, skipping scm stage", emp.ID)
	} else if err := o.scmStage(ctx, emp, tpl, res); err != nil {
		o.failStage(res, emp, "scm", err)
	}

	if status, err := o.store.GetStatus(emp.ID); err == nil {
		res.Progress = status.ProgressPercent
		res.CompletedTasks, res.TotalTasks = status.Counts()
	}

	o.publish(bus.Event{Type: bus.EventOnboardingFinished, EmployeeID: emp.ID, Employee: emp.Name, Success: true, Progress: res.Progress})
	log.Printf("[onboard] %s done: %.1f%% (%d/%d tasks)", emp.Name, res.Progress, res.CompletedTasks, res.TotalTasks)
	return res, nil
}

// chatStage sends the welcome DM, joins the template channels and posts
// the company-wide intro.
func (o *Orchestrator) chatStage(ctx context.Context, emp model.Employee, tpl *workflow.Template, res *Result) error {
	dm, err := o.collabs.Chat.SendWelcomeDM(ctx, emp.Email, emp.Name, emp.Role, emp.Team)
	if err != nil {
		return fmt.Errorf("welcome dm: %w", err)
	}
	o.recordStep(res, emp, "chat_welcome_dm", dm.Success, dm.Error, dm)
	if dm.Success {
		o.completeMatching(emp, model.CategoryChat, model.KeywordWelcome, "Welcome DM sent")
	}

	if len(tpl.Channels) > 0 {
		channels, err := o.collabs.Chat.AddToChannels(ctx, emp.Email, tpl.Channels)
		if err != nil {
			return fmt.Errorf("add to channels: %w", err)
		}
		joined := 0
		for _, c := range channels {
			if c.Success {
				joined++
			}
		}
		o.recordStep(res, emp, "chat_channels", joined > 0, "", channels)
		if joined > 0 {
			o.completeMatching(emp, model.CategoryChat, model.KeywordChannels, fmt.Sprintf("Added to %d channels", joined))
		}
	}

	intro, err := o.collabs.Chat.PostIntro(ctx, o.introChannel, emp.Name, emp.Role, emp.Team, "")
	if err != nil {
		return fmt.Errorf("post intro: %w", err)
	}
	o.recordStep(res, emp, "chat_intro", intro.Success, intro.Error, intro)
	if intro.Success {
		o.completeMatching(emp, model.CategoryChat, model.KeywordIntro, "Introduced in "+o.introChannel)
	}
	return nil
}

// docsStage shares the template documents and creates the personal
// onboarding folder.
func (o *Orchestrator) docsStage(ctx context.Context, emp model.Employee, tpl *workflow.Template, res *Result) error {
	if len(tpl.Docs) > 0 {
		shares, err := o.collabs.Docs.ShareDocuments(ctx, emp.Email, tpl.Docs, "")
		if err != nil {
			return fmt.Errorf("share documents: %w", err)
		}
		shared := 0
		for _, s := range shares {
			if s.Success {
				shared++
			}
		}
		o.recordStep(res, emp, "docs_share", shared > 0, "", shares)
		if shared > 0 {
			o.completeMatching(emp, model.CategoryDocs, model.KeywordDocuments, fmt.Sprintf("Shared %d documents", shared))
		}
	}

	folder, err := o.collabs.Docs.CreatePersonalFolder(ctx, emp.Email, emp.Name, emp.Team)
	if err != nil {
		return fmt.Errorf("create personal folder: %w", err)
	}
	o.recordStep(res, emp, "docs_folder", folder.Success, folder.Error, folder)
	if folder.Success {
		o.completeMatching(emp, model.CategoryDocs, model.KeywordFolder, folder.FolderName)
	}
	return nil
}

// scmStage invites to the org, grants the template repos and opens the
// setup issue in the first repo. Only runs when a github username is
// known.
func (o *Orchestrator) scmStage(ctx context.Context, emp model.Employee, tpl *workflow.Template, res *Result) error {
	invite, err := o.collabs.SourceControl.InviteToOrg(ctx, emp.GithubUsername, "")
	if err != nil {
		return fmt.Errorf("org invite: %w", err)
	}
	o.recordStep(res, emp, "scm_invite", invite.Success, invite.Error, invite)
	if invite.Success {
		o.completeMatching(emp, model.CategorySCM, model.KeywordInvite, "Invited "+emp.GithubUsername)
	}

	if len(tpl.Repos) == 0 {
		return nil
	}

	grants, err := o.collabs.SourceControl.GrantRepoAccess(ctx, emp.GithubUsername, tpl.Repos, "", "")
	if err != nil {
		return fmt.Errorf("repo access: %w", err)
	}
	granted := 0
	for _, g := range grants {
		if g.Success {
			granted++
		}
	}
	o.recordStep(res, emp, "scm_repos", granted > 0, "", grants)
	if granted > 0 {
		o.completeMatching(emp, model.CategorySCM, model.KeywordAccess, fmt.Sprintf("Access to %d repos", granted))
	}

	issue, err := o.collabs.SourceControl.CreateSetupIssue(ctx, emp.GithubUsername, tpl.Repos[0], "")
	if err != nil {
		return fmt.Errorf("setup issue: %w", err)
	}
	o.recordStep(res, emp, "scm_issue", issue.Success, issue.Error, issue)
	if issue.Success {
		o.completeMatching(emp, model.CategorySCM, model.KeywordIssue, issue.URL)
	}
	return nil
}

// recordStep appends one step entry and mirrors it onto the bus.
func (o *Orchestrator) recordStep(res *Result, emp model.Employee, step string, success bool, errMsg string, response any) {
	res.Steps = append(res.Steps, StepResult{Step: step, Success: success, Error: errMsg, Response: response})
	evType := bus.EventStepCompleted
	if !success {
		evType = bus.EventStepFailed
	}
	o.publish(bus.Event{Type: evType, EmployeeID: emp.ID, Employee: emp.Name, Step: step, Success: success, Error: errMsg})
}

// failStage traps a stage error: one failed step entry named after the
// stage, and orchestration moves on.
func (o *Orchestrator) failStage(res *Result, emp model.Employee, stage string, err error) {
	log.Printf("[onboard] %s stage failed for %s: %v", stage, emp.ID, err)
	res.Steps = append(res.Steps, StepResult{Step: stage, Success: false, Error: err.Error()})
	o.publish(bus.Event{Type: bus.EventStepFailed, EmployeeID: emp.ID, Employee: emp.Name, Step: stage, Error: err.Error()})
}

// completeMatching checks off the checklist task behind a successful side
// effect. A checklist with no matching task is fine.
func (o *Orchestrator) completeMatching(emp model.Employee, category model.TaskCategory, keyword model.MatchKeyword, details string) {
	task, ok, oc := o.store.CompleteFirstMatching(emp.ID, category, keyword, details)
	o.warn(oc)
	if !ok {
		return
	}
	o.publish(bus.Event{Type: bus.EventTaskCompleted, EmployeeID: emp.ID, Employee: emp.Name, Step: task.Name, Success: true})
}

func (o *Orchestrator) publish(ev bus.Event) {
	if o.bus == nil {
		return
	}
	o.bus.Publish(ev)
}

func (o *Orchestrator) warn(oc store.Outcome) {
	if oc.Err != nil {
		log.Printf("[onboard] persist warning: %v", oc.Err)
	}
}
