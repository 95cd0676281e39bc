package policy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(ctx, DefaultPolicy)
	require.NoError(t, err)

	cases := []struct {
		name  string
		in    Input
		model string
	}{
		{name: "allowed", in: Input{Model: "llama-3.3-70b-versatile"}, model: "llama-3.3-70b-versatile"},
		{name: "unknown", in: Input{Model: "gpt-4o", AgentID: "developer"}, model: ""},
		{name: "empty", in: Input{}, model: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := engine.SelectModel(ctx, tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.model, got)
		})
	}
}

func TestLoadCustomPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.rego")
	content := `package model_policy

default model = "fallback-model"

model = "fast-model" {
	input.agent_id == "developer"
}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	engine, err := Load(context.Background(), path)
	require.NoError(t, err)

	got, err := engine.SelectModel(context.Background(), Input{AgentID: "developer"})
	require.NoError(t, err)
	assert.Equal(t, "fast-model", got)

	got, err = engine.SelectModel(context.Background(), Input{AgentID: "creator"})
	require.NoError(t, err)
	assert.Equal(t, "fallback-model", got)
}

func TestNewEngineRejectsInvalidRego(t *testing.T) {
	_, err := NewEngine(context.Background(), "package model_policy\nmodel = {")
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.rego"))
	assert.Error(t, err)
}
