package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"
)

const slackAPI = "https://slack.com/api"

// SlackChat calls the Slack Web API with a bot token. API-level refusals
// (ok: false) come back as soft results; transport problems are errors.
type SlackChat struct {
	token   string
	baseURL string
	client  *http.Client
}

func NewSlackChat(token string) *SlackChat {
	return &SlackChat{
		token:   token,
		baseURL: slackAPI,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type slackObject struct {
	ID string `json:"id"`
}

type slackResponse struct {
	OK      bool         `json:"ok"`
	Error   string       `json:"error,omitempty"`
	User    *slackObject `json:"user,omitempty"`
	Channel *slackObject `json:"channel,omitempty"`
}

func (s *SlackChat) get(ctx context.Context, method string, params url.Values) (*slackResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/"+method+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	return s.do(req)
}

func (s *SlackChat) post(ctx context.Context, method string, payload any) (*slackResponse, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/"+method, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	return s.do(req)
}

func (s *SlackChat) do(req *http.Request) (*slackResponse, error) {
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out slackResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode slack response: %w", err)
	}
	return &out, nil
}

func (s *SlackChat) SendWelcomeDM(ctx context.Context, email, name, role, team string) (DMResult, error) {
	lookup, err := s.get(ctx, "users.lookupByEmail", url.Values{"email": {email}})
	if err != nil {
		return DMResult{}, fmt.Errorf("lookup %s: %w", email, err)
	}
	if !lookup.OK || lookup.User == nil {
		errMsg := lookup.Error
		if errMsg == "" {
			errMsg = "User not found"
		}
		return DMResult{Success: false, Error: errMsg}, nil
	}

	conv, err := s.post(ctx, "conversations.open", map[string]string{"users": lookup.User.ID})
	if err != nil {
		return DMResult{}, fmt.Errorf("open dm: %w", err)
	}
	if !conv.OK || conv.Channel == nil {
		return DMResult{Success: false, Error: conv.Error}, nil
	}

	msg, err := s.post(ctx, "chat.postMessage", map[string]any{
		"channel": conv.Channel.ID,
		"text":    welcomeMessage(name, role, team),
		"mrkdwn":  true,
	})
	if err != nil {
		return DMResult{}, fmt.Errorf("post dm: %w", err)
	}
	if msg.OK {
		log.Printf("[collab] welcome DM sent to %s", email)
	}
	return DMResult{Success: msg.OK, Channel: conv.Channel.ID, Error: msg.Error}, nil
}

func (s *SlackChat) AddToChannels(ctx context.Context, email string, channels []string) ([]ChannelResult, error) {
	lookup, err := s.get(ctx, "users.lookupByEmail", url.Values{"email": {email}})
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", email, err)
	}

	results := make([]ChannelResult, 0, len(channels))
	if !lookup.OK || lookup.User == nil {
		for _, channel := range channels {
			results = append(results, ChannelResult{Channel: channel, Success: false, Error: "User not found"})
		}
		return results, nil
	}

	for _, channel := range channels {
		resp, err := s.post(ctx, "conversations.invite", map[string]any{
			"channel": channel,
			"users":   lookup.User.ID,
		})
		if err != nil {
			return nil, fmt.Errorf("invite to %s: %w", channel, err)
		}
		results = append(results, ChannelResult{Channel: channel, Success: resp.OK, Error: resp.Error})
	}
	return results, nil
}

func (s *SlackChat) PostIntro(ctx context.Context, channel, name, role, team, funFact string) (PostResult, error) {
	resp, err := s.post(ctx, "chat.postMessage", map[string]any{
		"channel": channel,
		"text":    introMessage(name, role, team, funFact),
		"mrkdwn":  true,
	})
	if err != nil {
		return PostResult{}, fmt.Errorf("post intro: %w", err)
	}
	return PostResult{Success: resp.OK, Error: resp.Error}, nil
}

func (s *SlackChat) PostMessage(ctx context.Context, channel, text string) (PostResult, error) {
	resp, err := s.post(ctx, "chat.postMessage", map[string]any{
		"channel": channel,
		"text":    text,
		"mrkdwn":  true,
	})
	if err != nil {
		return PostResult{}, fmt.Errorf("post message: %w", err)
	}
	return PostResult{Success: resp.OK, Error: resp.Error}, nil
}

func welcomeMessage(name, role, team string) string {
	return fmt.Sprintf(`👋 *Welcome to ACME Corp, %s!*

We're thrilled to have you join the *%s* team as a *%s*!

Here are some things to get you started:
• 📖 Read the _Company Handbook_ in Google Drive (shared with you)
• 💬 Check out the team channels you've been added to
• 🗓️ Your onboarding buddy will reach out today
• ☕ Grab a virtual coffee with your manager this week

If you need anything at all, just ask me — I'm your friendly Onboarding Bot! 🤖

_Have an amazing first day!_ 🎉`, name, team, role)
}

func introMessage(name, role, team, funFact string) string {
	funLine := ""
	if funFact != "" {
		funLine = fmt.Sprintf("\n🎯 *Fun fact:* %s", funFact)
	}
	return fmt.Sprintf(`🎉 *Everyone, please welcome %s!*

%s is joining the *%s* team as a *%s*.%s

Drop a 👋 to say hello!`, name, name, team, role, funLine)
}
