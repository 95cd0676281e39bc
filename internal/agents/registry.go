// Package agents holds the immutable table of agent profiles used to pick the
// system prompt for a relay session.
package agents

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mahirxmc/nova-agent-2/internal/domain"
)

// DefaultAgentID is the profile used for unknown agent keys.
const DefaultAgentID = "nova-assistant"

// Registry is a read-only lookup from agent key to profile. It is built once at
// start-up and safe for concurrent use.
type Registry struct {
	profiles  map[string]domain.AgentProfile
	aliases   map[string]string
	defaultID string
}

// File is the on-disk layout accepted by Load.
type File struct {
	Default  string                `yaml:"default"`
	Profiles []domain.AgentProfile `yaml:"profiles"`
	Aliases  map[string]string     `yaml:"aliases"`
}

// New builds a registry from profiles and aliases. defaultID must name one of
// the profiles.
func New(profiles []domain.AgentProfile, aliases map[string]string, defaultID string) (*Registry, error) {
	r := &Registry{
		profiles:  make(map[string]domain.AgentProfile, len(profiles)),
		aliases:   make(map[string]string, len(aliases)),
		defaultID: defaultID,
	}
	for _, p := range profiles {
		if p.ID == "" {
			return nil, fmt.Errorf("agent profile without id")
		}
		if _, dup := r.profiles[p.ID]; dup {
			return nil, fmt.Errorf("duplicate agent profile %q", p.ID)
		}
		r.profiles[p.ID] = p
	}
	if _, ok := r.profiles[defaultID]; !ok {
		return nil, fmt.Errorf("default agent %q is not defined", defaultID)
	}
	for alias, target := range aliases {
		if _, ok := r.profiles[target]; !ok {
			return nil, fmt.Errorf("alias %q points to unknown agent %q", alias, target)
		}
		r.aliases[alias] = target
	}
	return r, nil
}

// Default returns the built-in registry.
func Default() *Registry {
	r, err := New(builtinProfiles, builtinAliases, DefaultAgentID)
	if err != nil {
		panic(fmt.Sprintf("invalid built-in agent table: %v", err))
	}
	return r
}

// Load reads a registry from a YAML file. An empty path yields Default().
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read agents file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse agents file: %w", err)
	}
	if f.Default == "" {
		f.Default = DefaultAgentID
	}
	return New(f.Profiles, f.Aliases, f.Default)
}

// Resolve returns the profile for key: an exact id match first, then an alias,
// otherwise the default profile.
func (r *Registry) Resolve(key string) domain.AgentProfile {
	if p, ok := r.profiles[key]; ok {
		return p
	}
	if target, ok := r.aliases[key]; ok {
		return r.profiles[target]
	}
	return r.profiles[r.defaultID]
}

// Known reports whether key names a profile or alias.
func (r *Registry) Known(key string) bool {
	if _, ok := r.profiles[key]; ok {
		return true
	}
	_, ok := r.aliases[key]
	return ok
}

// List returns all profiles sorted by id.
func (r *Registry) List() []domain.AgentProfile {
	out := make([]domain.AgentProfile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Aliases returns the alias keys that resolve to id, sorted.
func (r *Registry) Aliases(id string) []string {
	var out []string
	for alias, target := range r.aliases {
		if target == id {
			out = append(out, alias)
		}
	}
	sort.Strings(out)
	return out
}

var builtinAliases = map[string]string{
	"nova-general":    "nova-assistant",
	"nova-researcher": "researcher",
	"nova-developer":  "developer",
	"nova-coder":      "developer",
	"nova-navigator":  "navigator",
	"nova-browser":    "navigator",
	"nova-creator":    "creator",
	"nova-creative":   "creator",
}

var builtinProfiles = []domain.AgentProfile{
	{
		ID:              "nova-assistant",
		Name:            "Nova Assistant",
		MaxResponseTime: 30 * time.Second,
		SystemPrompt: `You are Nova Assistant, a professional AI assistant with comprehensive thinking capabilities. You provide analytical, well-structured responses. You excel at:
- Language Translation: Translating text to break language barriers
- Summarization: Summarizing long texts into concise, easy-to-understand summaries
- Creative Writing: Generating creative content like stories, poems, and creative pieces
- Problem Solving: Systematic analysis and logical problem-solving approaches

Always maintain a professional, helpful tone and show your thinking process clearly.`,
	},
	{
		ID:              "researcher",
		Name:            "Nova Researcher",
		MaxResponseTime: 60 * time.Second,
		SystemPrompt: `You are Nova Researcher, a deep research specialist. You excel at comprehensive analysis and detailed investigation. You specialize in:
- Research: Comprehensive information gathering and analysis
- Data Analysis: In-depth examination of data and patterns
- Report Generation: Creating detailed, well-structured reports
- Fact Checking: Verifying information and cross-referencing sources

Your responses are thorough, detailed, and evidence-based.`,
	},
	{
		ID:              "developer",
		Name:            "Nova Developer",
		MaxResponseTime: 20 * time.Second,
		SystemPrompt: `You are Nova Developer, an expert coding assistant. You provide quick, efficient solutions with technical expertise. You specialize in:
- Code Generation: Writing clean, efficient code in multiple programming languages
- Debugging: Identifying and fixing code issues quickly
- Architecture Design: Planning and designing software systems
- Technical Analysis: Evaluating technical approaches and solutions

You respond efficiently with practical, implementable code solutions.`,
	},
	{
		ID:              "navigator",
		Name:            "Nova Navigator",
		MaxResponseTime: 45 * time.Second,
		SystemPrompt: `You are Nova Navigator, an expert at finding and organizing information on the web. You excel at:
- Web Browsing: Explaining how to navigate and interact with websites
- Task Automation: Planning repetitive web tasks
- Visual Analysis: Describing web content and visual elements

You respond with practical, structured, actionable solutions for web-based tasks.`,
	},
	{
		ID:              "creator",
		Name:            "Nova Creator",
		MaxResponseTime: 40 * time.Second,
		SystemPrompt: `You are Nova Creator, a creative expert focused on content creation, design, and innovation. You excel at:
- Content Creation: Creating original written content, stories, and articles
- Design Ideas: Generating creative visual and conceptual designs
- Storytelling: Crafting engaging narratives and compelling stories
- Innovation: Developing creative solutions and innovative approaches

Your responses are imaginative, original, and inspiring.`,
	},
}
