package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/securenexus/identity-api/internal/core/domain"
	"github.com/securenexus/identity-api/internal/core/ports"
)

// RoleHandler manages the independent role collection.
type RoleHandler struct {
	roles ports.RoleRepository
}

func NewRoleHandler(roles ports.RoleRepository) *RoleHandler {
	return &RoleHandler{roles: roles}
}

// List handles GET /roles.
func (h *RoleHandler) List(c echo.Context) error {
	roles, err := h.roles.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rolesResponse{Roles: roles})
}

// Create handles POST /roles.
func (h *RoleHandler) Create(c echo.Context) error {
	var req createRoleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	role := &domain.Role{
		ID:    uuid.NewString(),
		Name:  req.Name,
		Color: req.Color,
	}
	if err := h.roles.Insert(c.Request().Context(), role); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, role)
}

// Delete handles DELETE /roles/:id. Agents referencing the role keep their
// dangling id; it resolves to nothing from then on.
func (h *RoleHandler) Delete(c echo.Context) error {
	if err := h.roles.Remove(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
