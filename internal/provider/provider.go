package provider

import (
	"os"
	"sort"
)

// Provider names used in config (transcription.provider) and the registry.
const (
	Gemini     = "gemini"
	ElevenLabs = "elevenlabs"
	OpenAI     = "openai"
	Groq       = "groq"
)

// Environment variable names for API keys.
const (
	EnvGeminiKey     = "GOOGLE_API_KEY"
	EnvElevenLabsKey = "ELEVENLABS_API_KEY"
	EnvOpenAIKey     = "OPENAI_API_KEY"
	EnvGroqKey       = "GROQ_API_KEY"
)

// Info describes one transcription provider. The set is closed: adding a
// provider means adding a registry entry and a transcriber adapter.
type Info struct {
	Name         string
	DisplayName  string
	EnvVar       string
	DefaultModel string
}

var registry = map[string]Info{
	Gemini: {
		Name:         Gemini,
		DisplayName:  "Google Gemini",
		EnvVar:       EnvGeminiKey,
		DefaultModel: "gemini-2.0-flash",
	},
	ElevenLabs: {
		Name:         ElevenLabs,
		DisplayName:  "ElevenLabs",
		EnvVar:       EnvElevenLabsKey,
		DefaultModel: "scribe_v1",
	},
	OpenAI: {
		Name:         OpenAI,
		DisplayName:  "OpenAI",
		EnvVar:       EnvOpenAIKey,
		DefaultModel: "whisper-1",
	},
	Groq: {
		Name:         Groq,
		DisplayName:  "Groq",
		EnvVar:       EnvGroqKey,
		DefaultModel: "whisper-large-v3-turbo",
	},
}

// Get returns the provider info and whether the name is known.
func Get(name string) (Info, bool) {
	info, ok := registry[name]
	return info, ok
}

// List returns all provider names, sorted.
func List() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveAPIKey returns the configured key, falling back to the provider's
// environment variable.
func ResolveAPIKey(name, configured string) string {
	if configured != "" {
		return configured
	}
	info, ok := registry[name]
	if !ok {
		return ""
	}
	return os.Getenv(info.EnvVar)
}
