package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mahirxmc/nova-agent-2/internal/adapter/llm"
)

// ListModels passes through the provider's model list.
// GET /v1/models
func (h *Handler) ListModels(c echo.Context) error {
	ctx := c.Request().Context()

	models, err := h.service.Provider().ListModels(ctx)
	if err != nil {
		return c.JSON(http.StatusBadGateway, llm.ErrorResponse{
			Error: &llm.APIError{
				Message: err.Error(),
				Type:    "upstream_error",
			},
		})
	}

	return c.JSON(http.StatusOK, llm.ModelsResponse{
		Object: "list",
		Data:   models,
	})
}
