// Package policy decides which upstream model a relay session may use.
package policy

import (
	"context"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/rego"
)

// Engine is the OPA model-selection engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// Input is the document the policy is evaluated against.
type Input struct {
	Model   string `json:"model"`
	AgentID string `json:"agent_id"`
}

// NewEngine prepares the given rego module.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.model_policy.model"),
		rego.Module("model_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}
	return &Engine{query: query}, nil
}

// Load reads the policy from path, or uses DefaultPolicy when path is empty.
func Load(ctx context.Context, path string) (*Engine, error) {
	if path == "" {
		return NewEngine(ctx, DefaultPolicy)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return NewEngine(ctx, string(data))
}

// SelectModel returns the model the policy grants for in. An empty result
// means the caller should use its configured default.
func (e *Engine) SelectModel(ctx context.Context, in Input) (string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(in))
	if err != nil {
		return "", fmt.Errorf("failed to evaluate policy: %w", err)
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return "", nil
	}
	s, ok := results[0].Expressions[0].Value.(string)
	if !ok {
		return "", fmt.Errorf("policy returned %T, want string", results[0].Expressions[0].Value)
	}
	return s, nil
}

// DefaultPolicy allows a fixed set of Groq chat models.
const DefaultPolicy = `
package model_policy

default model = ""

allowed_models = {
	"llama-3.1-8b-instant",
	"llama-3.3-70b-versatile",
	"llama3-8b-8192",
	"llama3-70b-8192",
	"gemma2-9b-it",
	"mixtral-8x7b-32768",
}

model = input.model {
	allowed_models[input.model]
}
`
