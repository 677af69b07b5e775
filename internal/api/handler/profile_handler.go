package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/securenexus/identity-api/internal/core/domain"
	"github.com/securenexus/identity-api/internal/core/ports"
)

// ProfileHandler exposes agent profile and lifecycle operations. Domain
// errors propagate to the central HTTP error handler.
type ProfileHandler struct {
	profiles ports.ProfileService
}

func NewProfileHandler(profiles ports.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Get handles GET /agents/:id.
//
// @Summary      Fetch an agent
// @Tags         agents
// @Produce      json
// @Param        id   path      string  true  "Agent record id"
// @Success      200  {object}  domain.Agent
// @Failure      404  {object}  errorResponse
// @Router       /agents/{id} [get]
func (h *ProfileHandler) Get(c echo.Context) error {
	agent, err := h.profiles.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, agent)
}

// selfOrCEO allows an agent to operate on its own record; the CEO may
// operate on anyone's.
func selfOrCEO(c echo.Context) error {
	recordID, _, isCEO, err := ctxClaims(c)
	if err != nil {
		return err
	}
	if recordID != c.Param("id") && !isCEO {
		return domain.ErrForbidden
	}
	return nil
}

// Update handles PATCH /agents/:id — profile and customization merge.
//
// @Summary      Update an agent profile
// @Tags         agents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "Agent record id"
// @Param        body  body      updateProfileRequest  true  "Fields to merge"
// @Success      200   {object}  domain.Agent
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /agents/{id} [patch]
func (h *ProfileHandler) Update(c echo.Context) error {
	if err := selfOrCEO(c); err != nil {
		return err
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	patch := ports.ProfilePatch{
		DisplayName: req.DisplayName,
		About:       req.About,
		Avatar:      req.Avatar,
		Banner:      req.Banner,
	}
	if req.Customization != nil {
		patch.Customization = &domain.Customization{
			AccentColor:  req.Customization.AccentColor,
			BioLayout:    domain.BioLayout(req.Customization.BioLayout),
			ShowActivity: req.Customization.ShowActivity,
			Status:       req.Customization.Status,
			StatusEmoji:  req.Customization.StatusEmoji,
			Location:     req.Customization.Location,
		}
	}

	agent, err := h.profiles.UpdateProfile(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, agent)
}

// ChangePassword handles PUT /agents/:id/password.
//
// @Summary      Change an agent's password
// @Tags         agents
// @Accept       json
// @Security     BearerAuth
// @Param        id    path  string                 true  "Agent record id"
// @Param        body  body  changePasswordRequest  true  "Password change"
// @Success      204
// @Failure      401  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /agents/{id}/password [put]
func (h *ProfileHandler) ChangePassword(c echo.Context) error {
	if err := selfOrCEO(c); err != nil {
		return err
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	err := h.profiles.ChangePassword(
		c.Request().Context(),
		c.Param("id"),
		req.CurrentPassword,
		req.NewPassword,
		req.ConfirmPassword,
	)
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete handles DELETE /agents/:id. The system account is protected.
//
// @Summary      Delete an agent account
// @Tags         agents
// @Security     BearerAuth
// @Param        id  path  string  true  "Agent record id"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /agents/{id} [delete]
func (h *ProfileHandler) Delete(c echo.Context) error {
	if err := selfOrCEO(c); err != nil {
		return err
	}
	if err := h.profiles.DeleteAccount(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Roles handles GET /agents/:id/roles. Dangling role references resolve to
// nothing instead of erroring.
//
// @Summary      Resolved roles for an agent
// @Tags         agents
// @Produce      json
// @Param        id   path      string  true  "Agent record id"
// @Success      200  {object}  rolesResponse
// @Failure      404  {object}  errorResponse
// @Router       /agents/{id}/roles [get]
func (h *ProfileHandler) Roles(c echo.Context) error {
	roles, err := h.profiles.ResolveRoles(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rolesResponse{Roles: roles})
}

// AssignRole handles PUT /agents/:id/roles/:role_id.
func (h *ProfileHandler) AssignRole(c echo.Context) error {
	if err := h.profiles.AssignRole(c.Request().Context(), c.Param("id"), c.Param("role_id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// RevokeRole handles DELETE /agents/:id/roles/:role_id.
func (h *ProfileHandler) RevokeRole(c echo.Context) error {
	if err := h.profiles.RevokeRole(c.Request().Context(), c.Param("id"), c.Param("role_id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
