package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/securenexus/identity-api/internal/core/domain"
	"github.com/securenexus/identity-api/internal/core/ports"
)

type stubAuthService struct {
	loginFn       func(ctx context.Context, agentID, secret string) (string, *domain.Agent, error)
	registerFn    func(ctx context.Context, input ports.RegisterInput) (string, *domain.Agent, error)
	impersonateFn func(ctx context.Context, targetID string) (*domain.Agent, error)
	logoutCalled  bool
	stopCalled    bool
	snapshot      domain.SessionSnapshot
}

func (s *stubAuthService) Login(ctx context.Context, agentID, secret string) (string, *domain.Agent, error) {
	return s.loginFn(ctx, agentID, secret)
}

func (s *stubAuthService) Register(ctx context.Context, input ports.RegisterInput) (string, *domain.Agent, error) {
	return s.registerFn(ctx, input)
}

func (s *stubAuthService) Logout(context.Context) error {
	s.logoutCalled = true
	return nil
}

func (s *stubAuthService) Impersonate(ctx context.Context, targetID string) (*domain.Agent, error) {
	return s.impersonateFn(ctx, targetID)
}

func (s *stubAuthService) StopImpersonating(context.Context) error {
	s.stopCalled = true
	return nil
}

func (s *stubAuthService) Session(context.Context) domain.SessionSnapshot {
	return s.snapshot
}

func newContext(e *echo.Echo, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthHandler_Register_Success(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()
	stub := &stubAuthService{
		registerFn: func(_ context.Context, input ports.RegisterInput) (string, *domain.Agent, error) {
			if input.AgentID != "neo" || input.Secret != "matrix42" {
				t.Fatalf("unexpected input: %+v", input)
			}
			return "token123", &domain.Agent{ID: "rec_1", AgentID: input.AgentID, DisplayName: "Neo"}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newContext(e, http.MethodPost, "/auth/register",
		`{"agent_id":"neo","password":"matrix42","display_name":"Neo"}`)
	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["token"] != "token123" {
		t.Fatalf("token missing from response: %+v", resp)
	}
	agent, ok := resp["agent"].(map[string]any)
	if !ok {
		t.Fatalf("expected agent in response")
	}
	if agent["agent_id"] != "neo" || agent["display_name"] != "Neo" {
		t.Fatalf("unexpected agent payload: %+v", agent)
	}
}

func TestAuthHandler_Register_HandleTaken(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()
	stub := &stubAuthService{
		registerFn: func(context.Context, ports.RegisterInput) (string, *domain.Agent, error) {
			return "", nil, domain.ErrAgentIDTaken
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newContext(e, http.MethodPost, "/auth/register",
		`{"agent_id":"neo","password":"matrix42"}`)
	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestAuthHandler_Register_MissingFields(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()
	handler := NewAuthHandler(&stubAuthService{
		registerFn: func(context.Context, ports.RegisterInput) (string, *domain.Agent, error) {
			t.Fatalf("service must not be called on invalid payload")
			return "", nil, nil
		},
	})

	c, rec := newContext(e, http.MethodPost, "/auth/register", `{"display_name":"Neo"}`)
	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := echo.New()
	stub := &stubAuthService{
		loginFn: func(_ context.Context, agentID, secret string) (string, *domain.Agent, error) {
			if agentID != "neo" || secret != "matrix42" {
				t.Fatalf("unexpected credentials: %s", agentID)
			}
			return "token123", &domain.Agent{ID: "rec_1", AgentID: "neo"}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newContext(e, http.MethodPost, "/auth/login",
		`{"agent_id":"neo","password":"matrix42"}`)
	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthHandler_Login_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"invalid credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{"unknown agent", domain.ErrAgentNotFound, http.StatusNotFound},
		{"throttled", domain.ErrTooManyAttempts, http.StatusTooManyRequests},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			stub := &stubAuthService{
				loginFn: func(context.Context, string, string) (string, *domain.Agent, error) {
					return "", nil, tc.err
				},
			}
			handler := NewAuthHandler(stub)

			c, rec := newContext(e, http.MethodPost, "/auth/login",
				`{"agent_id":"neo","password":"wrong"}`)
			if err := handler.Login(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
		})
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	e := echo.New()
	stub := &stubAuthService{}
	handler := NewAuthHandler(stub)

	c, rec := newContext(e, http.MethodPost, "/auth/logout", "")
	if err := handler.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if !stub.logoutCalled {
		t.Fatalf("logout not delegated to the service")
	}
}

func TestAuthHandler_Session(t *testing.T) {
	e := echo.New()
	stub := &stubAuthService{
		snapshot: domain.SessionSnapshot{
			Kind:      domain.SessionGuest,
			Effective: &domain.Agent{ID: domain.GuestID, IsGuest: true},
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newContext(e, http.MethodGet, "/auth/session", "")
	if err := handler.Session(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["kind"] != string(domain.SessionGuest) {
		t.Fatalf("unexpected session kind: %+v", resp)
	}
}

func TestAuthHandler_Impersonate(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()
	stub := &stubAuthService{
		impersonateFn: func(_ context.Context, targetID string) (*domain.Agent, error) {
			if targetID != "rec_2" {
				t.Fatalf("unexpected target: %s", targetID)
			}
			return &domain.Agent{ID: "rec_2", AgentID: "trinity"}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newContext(e, http.MethodPost, "/auth/impersonate", `{"id":"rec_2"}`)
	if err := handler.Impersonate(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthHandler_Impersonate_Forbidden(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()
	stub := &stubAuthService{
		impersonateFn: func(context.Context, string) (*domain.Agent, error) {
			return nil, domain.ErrForbidden
		},
	}
	handler := NewAuthHandler(stub)

	c, _ := newContext(e, http.MethodPost, "/auth/impersonate", `{"id":"rec_2"}`)
	err := handler.Impersonate(c)
	if err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden to propagate, got %v", err)
	}
}

func TestAuthHandler_StopImpersonating(t *testing.T) {
	e := echo.New()
	stub := &stubAuthService{}
	handler := NewAuthHandler(stub)

	c, rec := newContext(e, http.MethodDelete, "/auth/impersonate", "")
	if err := handler.StopImpersonating(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if !stub.stopCalled {
		t.Fatalf("stop not delegated to the service")
	}
}
