// Package legalai is the client for the external generative-AI collaborator.
// Providers speak the wire protocol and return errors; Service wraps a
// provider and degrades every failure to a deterministic fallback so callers
// never see a transport error.
package legalai

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/lextrack/lextrack/internal/vault"
)

type HistoryMessage struct {
	Role    string // user | assistant
	Content string
}

type Attachment struct {
	Name     string
	MIMEType string
	Data     string // base64, optionally with a data: URL prefix
}

// Analysis is the structured reply of the legal orchestrator prompt.
type Analysis struct {
	AgentType string               `json:"agent_type"`
	Answer    string               `json:"answer"`
	Safety    *vault.SafetyMetrics `json:"safety_metrics"`
}

type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

type Research struct {
	Points  []string `json:"points"`
	Sources []Source `json:"sources"`
}

type Provider interface {
	AnalyzeQuery(ctx context.Context, query string, history []HistoryMessage, role string, attachments []Attachment) (Analysis, error)
	SuggestRequiredDocuments(ctx context.Context, caseType, description string) ([]string, error)
	ResearchCase(ctx context.Context, title, description string) (Research, error)
}

type ProviderFactory func(ctx context.Context) (Provider, error)

type Registry struct {
	mu        sync.RWMutex
	factories map[string]ProviderFactory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]ProviderFactory)}
}

func (r *Registry) Register(name string, f ProviderFactory) {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

func (r *Registry) Get(ctx context.Context, name string) (Provider, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown ai provider: %s", name)
	}
	return f(ctx)
}
