package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// AgentView is the public description of an agent profile.
type AgentView struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	MaxResponseTime int      `json:"max_response_time"` // seconds
	Aliases         []string `json:"aliases,omitempty"`
}

// ListAgents lists the configured agent profiles.
// GET /v1/agents
func (h *Handler) ListAgents(c echo.Context) error {
	registry := h.service.Agents()
	profiles := registry.List()

	agents := make([]AgentView, len(profiles))
	for i, p := range profiles {
		agents[i] = AgentView{
			ID:              p.ID,
			Name:            p.Name,
			MaxResponseTime: int(p.MaxResponseTime.Seconds()),
			Aliases:         registry.Aliases(p.ID),
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"agents": agents,
	})
}
