package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/securenexus/identity-api/internal/api/metrics"
	"github.com/securenexus/identity-api/internal/core/domain"
	"github.com/securenexus/identity-api/internal/core/ports"
)

// AuthHandler exposes the auth facade over HTTP.
type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates a new agent account and opens a session.
//
// @Summary      Register a new agent
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	token, agent, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		AgentID:     req.AgentID,
		Secret:      req.Password,
		DisplayName: req.DisplayName,
		Avatar:      req.Avatar,
		About:       req.About,
	})
	if err != nil {
		status := http.StatusInternalServerError
		result := "error"
		switch {
		case errors.Is(err, domain.ErrAgentIDTaken):
			status = http.StatusConflict
			result = "taken"
		case errors.Is(err, domain.ErrInvalidCredentials):
			status = http.StatusBadRequest
		}
		metrics.RegistrationsTotal.WithLabelValues(result).Inc()
		return c.JSON(status, errorResponse{Error: err.Error()})
	}

	metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusCreated, authResponse{Token: token, Agent: agent})
}

// Login authenticates an agent (or enters guest mode) and returns a token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}

	token, agent, err := h.authService.Login(c.Request().Context(), req.AgentID, req.Password)
	if err != nil {
		status := http.StatusUnauthorized
		result := "invalid_credentials"
		switch {
		case errors.Is(err, domain.ErrAgentNotFound):
			status = http.StatusNotFound
			result = "not_found"
		case errors.Is(err, domain.ErrTooManyAttempts):
			status = http.StatusTooManyRequests
			result = "throttled"
		}
		metrics.LoginsTotal.WithLabelValues(result).Inc()
		return c.JSON(status, errorResponse{Error: err.Error()})
	}

	if agent.IsGuest {
		metrics.LoginsTotal.WithLabelValues("guest").Inc()
	} else {
		metrics.LoginsTotal.WithLabelValues("success").Inc()
	}
	return c.JSON(http.StatusOK, authResponse{Token: token, Agent: agent})
}

// Logout ends the current session.
//
// @Summary      Logout
// @Tags         auth
// @Success      204
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.authService.Logout(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Session returns the current session snapshot: the effective identity
// (overlay-aware) plus the actual one underneath.
//
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  domain.SessionSnapshot
// @Router       /auth/session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	return c.JSON(http.StatusOK, h.authService.Session(c.Request().Context()))
}

// Impersonate swaps the effective session identity for the target's.
//
// @Summary      Start impersonating an agent
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      impersonateRequest  true  "Target agent record id"
// @Success      200   {object}  authResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /auth/impersonate [post]
func (h *AuthHandler) Impersonate(c echo.Context) error {
	var req impersonateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	target, err := h.authService.Impersonate(c.Request().Context(), req.ID)
	if err != nil {
		return err
	}

	metrics.ImpersonationsTotal.Inc()
	return c.JSON(http.StatusOK, authResponse{Agent: target})
}

// StopImpersonating restores the authenticated identity.
//
// @Summary      Stop impersonating
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  errorResponse
// @Router       /auth/impersonate [delete]
func (h *AuthHandler) StopImpersonating(c echo.Context) error {
	if err := h.authService.StopImpersonating(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
