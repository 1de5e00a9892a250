package workflow

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/stellarlinkco/rampup/internal/model"
)

//go:embed templates
var defaultTemplates embed.FS

const (
	RoleGeneral     = "general"
	RoleEngineering = "engineering"
	RoleDesign      = "design"
)

// Keyword order is the tie-break policy: engineering wins over design
// when a title matches both lists, and within a list the first hit
// decides.
var (
	engineeringKeywords = []string{"engineer", "developer", "sre", "devops", "backend", "frontend", "fullstack", "swe"}
	designKeywords      = []string{"design", "ux", "ui", "graphic", "illustrat"}
	roleKeys            = []string{RoleGeneral, RoleEngineering, RoleDesign}
)

// NormalizeRole maps a free-text job title onto one of the role keys.
// Unrecognized titles fall back to general.
func NormalizeRole(role string) string {
	r := strings.ToLower(strings.TrimSpace(role))
	for _, key := range roleKeys {
		if r == key {
			return key
		}
	}
	for _, kw := range engineeringKeywords {
		if strings.Contains(r, kw) {
			return RoleEngineering
		}
	}
	for _, kw := range designKeywords {
		if strings.Contains(r, kw) {
			return RoleDesign
		}
	}
	return RoleGeneral
}

// TaskSpec is one templated checklist item.
type TaskSpec struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Category    model.TaskCategory `json:"category"`
}

// Template bundles everything one role's onboarding touches: the
// checklist plus the chat channels, documents and repositories the
// collaborators act on.
type Template struct {
	Role     string     `json:"role,omitempty"`
	Tasks    []TaskSpec `json:"tasks"`
	Channels []string   `json:"channels"`
	Docs     []string   `json:"docs"`
	Repos    []string   `json:"repos"`
}

// Resolver loads role templates from an override directory, falling
// back to the embedded defaults.
type Resolver struct {
	dir string
}

// NewResolver creates a resolver. dir may be empty to use only the
// embedded templates.
func NewResolver(dir string) *Resolver {
	return &Resolver{dir: dir}
}

// Load reads the template for one role key. A key with no backing file
// in either location yields an empty template, not an error.
func (r *Resolver) Load(key string) (*Template, error) {
	var data []byte
	if r.dir != "" {
		var err error
		data, err = os.ReadFile(filepath.Join(r.dir, key+".json"))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read template %s: %w", key, err)
		}
	}
	if data == nil {
		var err error
		data, err = defaultTemplates.ReadFile("templates/" + key + ".json")
		if errors.Is(err, fs.ErrNotExist) {
			return &Template{Role: key, Tasks: []TaskSpec{}, Channels: []string{}, Docs: []string{}, Repos: []string{}}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read embedded template %s: %w", key, err)
		}
	}

	var tpl Template
	if err := json.Unmarshal(data, &tpl); err != nil {
		return nil, fmt.Errorf("parse template %s: %w", key, err)
	}
	tpl.Role = key
	return &tpl, nil
}

// Resolve normalizes the role and merges the general template with the
// role-specific one.
func (r *Resolver) Resolve(role string) (*Template, error) {
	key := NormalizeRole(role)
	general, err := r.Load(RoleGeneral)
	if err != nil {
		return nil, err
	}
	if key == RoleGeneral {
		return general, nil
	}
	specific, err := r.Load(key)
	if err != nil {
		return nil, err
	}
	return Merge(general, specific), nil
}

// Merge combines two templates: tasks are concatenated general first and
// deduplicated by exact name (first occurrence wins), channels and docs
// are unioned in order, repos come from the role template only.
func Merge(general, role *Template) *Template {
	out := &Template{
		Role:     role.Role,
		Tasks:    []TaskSpec{},
		Channels: union(general.Channels, role.Channels),
		Docs:     union(general.Docs, role.Docs),
		Repos:    append([]string{}, role.Repos...),
	}
	seen := make(map[string]bool)
	for _, list := range [][]TaskSpec{general.Tasks, role.Tasks} {
		for _, task := range list {
			if seen[task.Name] {
				continue
			}
			seen[task.Name] = true
			out.Tasks = append(out.Tasks, task)
		}
	}
	return out
}

func union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, s := range list {
			if seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
