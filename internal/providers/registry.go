package providers

import (
	"fmt"
	"os"
	"sort"
)

// ID identifies a supported model provider.
type ID string

const (
	Anthropic ID = "anthropic"
	OpenAI    ID = "openai"
	Gemini    ID = "gemini"
	DeepSeek  ID = "deepseek"
)

// Info describes one registered provider. Credentials are resolved from
// EnvKey at invocation time, not at startup.
type Info struct {
	ID           ID     `json:"id"`
	Name         string `json:"name"`
	EnvKey       string `json:"env_key"`
	DefaultModel string `json:"default_model"`
}

var registry = map[ID]Info{
	Anthropic: {
		ID:           Anthropic,
		Name:         "Anthropic (Claude)",
		EnvKey:       "ANTHROPIC_API_KEY",
		DefaultModel: "claude-sonnet-4-20250514",
	},
	OpenAI: {
		ID:           OpenAI,
		Name:         "OpenAI (GPT)",
		EnvKey:       "OPENAI_API_KEY",
		DefaultModel: "gpt-4o",
	},
	Gemini: {
		ID:           Gemini,
		Name:         "Google Gemini",
		EnvKey:       "GEMINI_API_KEY",
		DefaultModel: "gemini-2.0-flash",
	},
	DeepSeek: {
		ID:           DeepSeek,
		Name:         "DeepSeek",
		EnvKey:       "DEEPSEEK_API_KEY",
		DefaultModel: "deepseek-chat",
	},
}

// Lookup resolves a provider id against the registry.
func Lookup(id string) (Info, error) {
	info, ok := registry[ID(id)]
	if !ok {
		return Info{}, &ConfigurationError{
			Reason: fmt.Sprintf("unknown provider %q, choose from %v", id, Names()),
		}
	}
	return info, nil
}

// All returns the registered providers in a stable order.
func All() []Info {
	infos := make([]Info, 0, len(registry))
	for _, info := range registry {
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// Names returns the registered provider ids in a stable order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for id := range registry {
		names = append(names, string(id))
	}
	sort.Strings(names)
	return names
}

func (i Info) apiKey() (string, error) {
	key := os.Getenv(i.EnvKey)
	if key == "" {
		return "", &ConfigurationError{
			Reason: fmt.Sprintf("missing credential: set %s to use provider %s", i.EnvKey, i.ID),
		}
	}
	return key, nil
}
