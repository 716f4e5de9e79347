package llm

import (
	"fmt"
	"log"
	"sync"

	"github.com/neilberkman/lectern/internal/core/errs"
	"github.com/neilberkman/lectern/internal/core/settings"
)

// Endpoint is the base URL and default model for a provider
type Endpoint struct {
	BaseURL string
	Model   string
}

// Endpoints are the built-in provider defaults. An empty BaseURL means the
// client library default.
var Endpoints = map[string]Endpoint{
	settings.ProviderNVIDIA: {BaseURL: "https://integrate.api.nvidia.com/v1", Model: "nvidia/nvidia-nemotron-nano-9b-v2"},
	settings.ProviderGroq:   {BaseURL: "https://api.groq.com/openai/v1", Model: "llama-3.3-70b-versatile"},
	settings.ProviderOpenAI: {Model: "gpt-4o-mini"},
}

// EnvKeys names the environment variable holding each provider's API key
var EnvKeys = map[string]string{
	settings.ProviderNVIDIA: "NVIDIA_API_KEY",
	settings.ProviderGroq:   "GROQ_API_KEY",
	settings.ProviderOpenAI: "OPENAI_API_KEY",
}

// Options configures a Selector. Models and BaseURLs override Endpoints.
type Options struct {
	Keys     map[string]string
	Models   map[string]string
	BaseURLs map[string]string
	// Preferred is the provider named in the config file, used when the
	// runtime settings do not name one explicitly
	Preferred string
}

// Factory builds a provider client
type Factory func(name, model, baseURL, apiKey string) (Provider, error)

// DefaultFactory builds OpenAI-compatible clients
func DefaultFactory(name, model, baseURL, apiKey string) (Provider, error) {
	p, err := NewOpenAICompatible(name, model, baseURL, apiKey)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ProviderFunc returns the provider for the next request
type ProviderFunc func() (Provider, error)

// Selector picks the provider for each request from the current settings.
// Clients are cached per provider, model and key.
type Selector struct {
	opts    Options
	factory Factory

	mu    sync.Mutex
	cache map[string]Provider
}

// NewSelector creates a selector. A nil factory uses DefaultFactory.
func NewSelector(opts Options, factory Factory) *Selector {
	if factory == nil {
		factory = DefaultFactory
	}
	return &Selector{
		opts:    opts,
		factory: factory,
		cache:   make(map[string]Provider),
	}
}

// Resolve returns the provider for snap. An explicitly chosen provider
// without a key is an error; an implicit preference falls back to nvidia.
func (s *Selector) Resolve(snap settings.Snapshot) (Provider, error) {
	name, explicit := snap.Provider()

	if !explicit {
		name = settings.ProviderNVIDIA
		if pref := s.opts.Preferred; pref != "" && pref != name {
			if s.opts.Keys[pref] != "" {
				name = pref
			} else {
				log.Printf("[llm] no API key for preferred provider %s, using %s", pref, name)
			}
		}
	}

	if _, known := Endpoints[name]; !known {
		return nil, errs.E(errs.Config, "select provider", fmt.Errorf("unknown provider %q", name))
	}
	key := s.opts.Keys[name]
	if key == "" {
		return nil, errs.E(errs.Config, "select provider", fmt.Errorf("%s is not set for provider %s", EnvKeys[name], name))
	}

	return s.client(name, key)
}

func (s *Selector) client(name, key string) (Provider, error) {
	ep := Endpoints[name]
	model := ep.Model
	if m := s.opts.Models[name]; m != "" {
		model = m
	}
	baseURL := ep.BaseURL
	if u := s.opts.BaseURLs[name]; u != "" {
		baseURL = u
	}

	cacheKey := name + "|" + model + "|" + key
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.cache[cacheKey]; ok {
		return p, nil
	}

	p, err := s.factory(name, model, baseURL, key)
	if err != nil {
		return nil, errs.E(errs.Config, "select provider", err)
	}
	s.cache[cacheKey] = p
	return p, nil
}

// Current binds the selector to a live settings store so every call sees
// the latest provider choice
func (s *Selector) Current(store *settings.Store) ProviderFunc {
	return func() (Provider, error) {
		return s.Resolve(store.Snapshot())
	}
}
