// Package llmclient invokes the external agent-execution endpoint used to
// enrich milestones with an LLM-generated summary.
package llmclient

import "context"

// Request is the JSON body POSTed to the agent-execution endpoint.
type Request struct {
	Prompt          string   `json:"prompt"`
	SystemPrompt    string   `json:"systemPrompt"`
	Model           string   `json:"model"`
	MaxTurns        int      `json:"maxTurns"`
	PermissionMode  string   `json:"permissionMode"`
	DisallowedTools []string `json:"disallowedTools,omitempty"`
	SettingSources  []string `json:"settingSources,omitempty"`
}

// NewRequest builds a Request with the fixed single-turn contract this
// pipeline always uses (MaxTurns 1, bypassPermissions). It sets no
// DisallowedTools or SettingSources, so the request itself does not restrict
// which tools the agent may call.
func NewRequest(prompt, systemPrompt, model string) Request {
	return Request{
		Prompt:         prompt,
		SystemPrompt:   systemPrompt,
		Model:          model,
		MaxTurns:       1,
		PermissionMode: "bypassPermissions",
	}
}

// innerResult is the nested "data" envelope the endpoint wraps its actual
// result in.
type innerResult struct {
	Success bool   `json:"success"`
	Result  string `json:"result"`
	Error   string `json:"error,omitempty"`
}

// envelope is the full JSON response shape from the agent-execution
// endpoint.
type envelope struct {
	Success bool        `json:"success"`
	Data    innerResult `json:"data"`
}

// Response is the caller-facing result of one LLM invocation.
type Response struct {
	Result string
}

// Invoker executes one LLM call and returns its raw textual result. There
// is no retry: a failed call returns an error and the caller leaves
// on-disk state untouched for the next scan to naturally retry.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (Response, error)
}
