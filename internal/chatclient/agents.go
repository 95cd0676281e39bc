package chatclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// AgentsPath lists the relay's agent profiles.
const AgentsPath = "/v1/agents"

// DefaultBudget is used when the relay does not advertise an agent's
// response time.
const DefaultBudget = 30 * time.Second

// AgentInfo is an agent profile as advertised by the relay.
type AgentInfo struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	MaxResponseTime int      `json:"max_response_time"`
	Aliases         []string `json:"aliases,omitempty"`
}

// Budget returns the advertised response time.
func (a AgentInfo) Budget() time.Duration {
	if a.MaxResponseTime <= 0 {
		return DefaultBudget
	}
	return time.Duration(a.MaxResponseTime) * time.Second
}

// Agents fetches the relay's agent profiles.
func (c *Client) Agents(ctx context.Context) ([]AgentInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+AgentsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLength))
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}

	var out struct {
		Agents []AgentInfo `json:"agents"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode agents: %w", err)
	}
	return out.Agents, nil
}

// Matches reports whether key is the agent's id or one of its aliases.
func (a AgentInfo) Matches(key string) bool {
	if a.ID == key {
		return true
	}
	for _, alias := range a.Aliases {
		if alias == key {
			return true
		}
	}
	return false
}

// Budget returns the response time advertised for agentID or one of its
// aliases, or DefaultBudget when the agent is unknown to the relay.
func (c *Client) Budget(ctx context.Context, agentID string) (time.Duration, error) {
	list, err := c.Agents(ctx)
	if err != nil {
		return DefaultBudget, err
	}
	for _, a := range list {
		if a.Matches(agentID) {
			return a.Budget(), nil
		}
	}
	return DefaultBudget, nil
}
