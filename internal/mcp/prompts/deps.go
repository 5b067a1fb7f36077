// Package prompts contains MCP prompt implementations for storeschema.
package prompts

// Config holds configuration needed by prompts.
type Config struct {
	Stores         []StoreRef
	MaxCollections int
}

// StoreRef names one catalog store in prompt text.
type StoreRef struct {
	Name   string
	Kind   string
	Layout string
}
