package reminder

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	rcron "github.com/robfig/cron/v3"
	"github.com/stellarlinkco/rampup/internal/bus"
	"github.com/stellarlinkco/rampup/internal/collab"
	"github.com/stellarlinkco/rampup/internal/config"
	"github.com/stellarlinkco/rampup/internal/model"
	"github.com/stellarlinkco/rampup/internal/store"
)

// Service posts a periodic digest of still-pending onboarding tasks to a
// chat channel, one message per employee with open work.
type Service struct {
	schedule string
	channel  string
	store    *store.Store
	chat     collab.Chat
	bus      *bus.EventBus

	mu   sync.Mutex
	cron *rcron.Cron
}

func NewService(cfg config.RemindersConfig, st *store.Store, chat collab.Chat, b *bus.EventBus) *Service {
	return &Service{
		schedule: cfg.Schedule,
		channel:  cfg.Channel,
		store:    st,
		chat:     chat,
		bus:      b,
	}
}

func (s *Service) Start(ctx context.Context) error {
	c := rcron.New(rcron.WithSeconds())
	if _, err := c.AddFunc(s.schedule, func() {
		if err := s.RunOnce(context.Background()); err != nil {
			log.Printf("[reminder] run failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("register reminder schedule %q: %w", s.schedule, err)
	}

	s.mu.Lock()
	s.cron = c
	s.mu.Unlock()

	c.Start()
	log.Printf("[reminder] scheduled %q to %s", s.schedule, s.channel)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// RunOnce walks every tracked onboarding and posts a digest for each one
// that still has pending tasks. Transport failures abort the run; a chat
// refusal only skips that employee.
func (s *Service) RunOnce(ctx context.Context) error {
	sent := 0
	for _, status := range s.store.AllStatuses() {
		pending := pendingTasks(status.Tasks)
		if len(pending) == 0 {
			continue
		}

		post, err := s.chat.PostMessage(ctx, s.channel, digest(status, pending))
		if err != nil {
			return fmt.Errorf("post reminder for %s: %w", status.Employee.Name, err)
		}
		if !post.Success {
			log.Printf("[reminder] post for %s refused: %s", status.Employee.Name, post.Error)
			continue
		}

		sent++
		s.publish(bus.Event{
			Type:       bus.EventReminderSent,
			EmployeeID: status.Employee.ID,
			Employee:   status.Employee.Name,
			Success:    true,
			Progress:   status.ProgressPercent,
		})
	}
	if sent > 0 {
		log.Printf("[reminder] sent %d digests", sent)
	}
	return nil
}

func (s *Service) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return
	}

	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
		log.Printf("[reminder] stop timeout waiting for running digest")
	}
	log.Printf("[reminder] stopped")
}

func (s *Service) publish(ev bus.Event) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ev)
}

func pendingTasks(tasks []model.OnboardingTask) []model.OnboardingTask {
	var out []model.OnboardingTask
	for _, task := range tasks {
		if task.Status == model.StatusPending {
			out = append(out, task)
		}
	}
	return out
}

func digest(status model.OnboardingStatus, pending []model.OnboardingTask) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 *Onboarding reminder for %s* (%.1f%% complete)\n", status.Employee.Name, status.ProgressPercent)
	for _, task := range pending {
		fmt.Fprintf(&b, "• %s\n", task.Name)
	}
	return strings.TrimRight(b.String(), "\n")
}
