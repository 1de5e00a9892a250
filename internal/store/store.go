package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/stellarlinkco/rampup/internal/model"
)

// ErrNotFound matches any NotFoundError via errors.Is.
var ErrNotFound = errors.New("not found")

// NotFoundError identifies a missing employee or task by id.
type NotFoundError struct {
	Kind string // "employee" or "task"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Outcome reports whether a mutation reached disk. The in-memory state is
// updated either way; callers decide whether a failed write is worth more
// than a log line.
type Outcome struct {
	Persisted bool
	Err       error
}

// Store keeps every onboarding record in a single JSON file keyed by
// employee id. Mutations are atomic in-process. Cross-process visibility
// is refresh-on-read via the file mtime, which makes concurrent writers
// last-writer-wins; run one writer per data file if that matters.
type Store struct {
	mu    sync.Mutex
	path  string
	data  map[string]*model.OnboardingStatus
	order []string

	loadedAt time.Time // file mtime at the last load
}

// New opens the store at path. A missing file starts empty, a corrupt
// one is an error.
func New(path string) (*Store, error) {
	s := &Store{
		path: path,
		data: make(map[string]*model.OnboardingStatus),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read store: %w", err)
	}

	var records map[string]*model.OnboardingStatus
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("parse store %s: %w", s.path, err)
	}
	if records == nil {
		records = make(map[string]*model.OnboardingStatus)
	}
	s.data = records
	s.rebuildOrder()

	if info, err := os.Stat(s.path); err == nil {
		s.loadedAt = info.ModTime()
	}
	return nil
}

// rebuildOrder keeps listings in registration order: the JSON object on
// disk has no order, so it is derived from StartedAt (id breaks ties).
func (s *Store) rebuildOrder() {
	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := s.data[ids[i]], s.data[ids[j]]
		if !a.StartedAt.Equal(b.StartedAt) {
			return a.StartedAt.Before(b.StartedAt)
		}
		return ids[i] < ids[j]
	})
	s.order = ids
}

// reloadIfChanged picks up writes from other processes. Only successful
// loads advance the observed mtime; failures keep the in-memory view.
func (s *Store) reloadIfChanged() {
	info, err := os.Stat(s.path)
	if err != nil {
		return
	}
	if !info.ModTime().After(s.loadedAt) {
		return
	}
	if err := s.load(); err != nil {
		log.Printf("[store] reload warning: %v", err)
	}
}

func (s *Store) save() Outcome {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return Outcome{Err: fmt.Errorf("create data dir: %w", err)}
	}
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return Outcome{Err: fmt.Errorf("marshal store: %w", err)}
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return Outcome{Err: fmt.Errorf("write store: %w", err)}
	}
	return Outcome{Persisted: true}
}

// AddEmployee registers a new hire with an empty checklist.
func (s *Store) AddEmployee(emp model.Employee) (model.Employee, Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadIfChanged()

	s.data[emp.ID] = &model.OnboardingStatus{
		Employee:  emp,
		Tasks:     []model.OnboardingTask{},
		StartedAt: time.Now(),
	}
	s.order = append(s.order, emp.ID)
	return emp, s.save()
}

// AddTasks appends tasks to an employee's checklist and recomputes
// progress. An unknown employee is a logged no-op.
func (s *Store) AddTasks(employeeID string, tasks []model.OnboardingTask) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadIfChanged()

	status, ok := s.data[employeeID]
	if !ok {
		log.Printf("[store] add tasks: employee %s not found", employeeID)
		return Outcome{}
	}
	status.Tasks = append(status.Tasks, tasks...)
	status.UpdateProgress()
	return s.save()
}

// MarkTaskComplete sets a task to completed. Completing an already
// completed task keeps the original timestamp.
func (s *Store) MarkTaskComplete(employeeID, taskID, details string) (model.OnboardingTask, Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadIfChanged()

	status, ok := s.data[employeeID]
	if !ok {
		return model.OnboardingTask{}, Outcome{}, &NotFoundError{Kind: "employee", ID: employeeID}
	}
	for i := range status.Tasks {
		if status.Tasks[i].ID != taskID {
			continue
		}
		task := &status.Tasks[i]
		if task.Status != model.StatusCompleted {
			task.Status = model.StatusCompleted
			task.CompletedAt = time.Now()
		}
		if details != "" {
			task.Details = details
		}
		status.UpdateProgress()
		return *task, s.save(), nil
	}
	return model.OnboardingTask{}, Outcome{}, &NotFoundError{Kind: "task", ID: taskID}
}

// MarkTaskFailed sets a task to failed. Completed tasks are left alone.
func (s *Store) MarkTaskFailed(employeeID, taskID, details string) (model.OnboardingTask, Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadIfChanged()

	status, ok := s.data[employeeID]
	if !ok {
		return model.OnboardingTask{}, Outcome{}, &NotFoundError{Kind: "employee", ID: employeeID}
	}
	for i := range status.Tasks {
		if status.Tasks[i].ID != taskID {
			continue
		}
		task := &status.Tasks[i]
		if task.Status != model.StatusCompleted {
			task.Status = model.StatusFailed
		}
		if details != "" {
			task.Details = details
		}
		status.UpdateProgress()
		return *task, s.save(), nil
	}
	return model.OnboardingTask{}, Outcome{}, &NotFoundError{Kind: "task", ID: taskID}
}

// CompleteFirstMatching completes the first pending task in category
// whose lowercased name contains keyword. No match is not an error; the
// checklist simply has nothing for that side effect.
func (s *Store) CompleteFirstMatching(employeeID string, category model.TaskCategory, keyword model.MatchKeyword, details string) (model.OnboardingTask, bool, Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadIfChanged()

	status, ok := s.data[employeeID]
	if !ok {
		return model.OnboardingTask{}, false, Outcome{}
	}
	for i := range status.Tasks {
		task := &status.Tasks[i]
		if task.Status != model.StatusPending || task.Category != category {
			continue
		}
		if !strings.Contains(strings.ToLower(task.Name), string(keyword)) {
			continue
		}
		task.Status = model.StatusCompleted
		task.CompletedAt = time.Now()
		if details != "" {
			task.Details = details
		}
		status.UpdateProgress()
		return *task, true, s.save()
	}
	return model.OnboardingTask{}, false, Outcome{}
}

// GetEmployee returns the identity record for one employee.
func (s *Store) GetEmployee(id string) (model.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadIfChanged()

	status, ok := s.data[id]
	if !ok {
		return model.Employee{}, &NotFoundError{Kind: "employee", ID: id}
	}
	return status.Employee, nil
}

// GetStatus returns a deep copy of one employee's full onboarding state.
func (s *Store) GetStatus(id string) (model.OnboardingStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadIfChanged()

	status, ok := s.data[id]
	if !ok {
		return model.OnboardingStatus{}, &NotFoundError{Kind: "employee", ID: id}
	}
	return status.Clone(), nil
}

// ListEmployees returns all employees in registration order.
func (s *Store) ListEmployees() []model.Employee {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadIfChanged()

	out := make([]model.Employee, 0, len(s.order))
	for _, id := range s.order {
		if status, ok := s.data[id]; ok {
			out = append(out, status.Employee)
		}
	}
	return out
}

// AllStatuses returns deep copies of every record in registration order.
func (s *Store) AllStatuses() []model.OnboardingStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadIfChanged()

	out := make([]model.OnboardingStatus, 0, len(s.order))
	for _, id := range s.order {
		if status, ok := s.data[id]; ok {
			out = append(out, status.Clone())
		}
	}
	return out
}

// Flush writes the current in-memory state to disk.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save().Err
}
