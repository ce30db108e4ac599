package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Prajwol-Chhetri/Task-REST-API/internal/credential"
	"github.com/Prajwol-Chhetri/Task-REST-API/internal/metrics"
	"github.com/Prajwol-Chhetri/Task-REST-API/internal/model"
	"github.com/Prajwol-Chhetri/Task-REST-API/internal/policy"
	"github.com/Prajwol-Chhetri/Task-REST-API/internal/publisher"
	"github.com/Prajwol-Chhetri/Task-REST-API/internal/queue"
	"github.com/Prajwol-Chhetri/Task-REST-API/internal/token"
)

// CredentialStore is the part of credential.Store the handlers use.
type CredentialStore interface {
	Register(ctx context.Context, r credential.Registration) (*model.User, error)
	Verify(ctx context.Context, email, password string) (*model.User, error)
	Get(ctx context.Context, id uint64) (*model.User, error)
	UpdateProfile(ctx context.Context, id uint64, upd credential.ProfileUpdate) (*model.User, error)
}

// TokenService is the part of token.Service the handlers use.
type TokenService interface {
	Issue(userID uint64) (token.Pair, error)
	Refresh(ctx context.Context, refresh string) (token.Token, error)
	Authenticate(access string) (uint64, error)
	Revoke(ctx context.Context, refresh string) error
}

// AuthHandler serves registration, login, token refresh, logout and the
// caller's own profile.
type AuthHandler struct {
	Users   CredentialStore
	Tokens  TokenService
	Access  *Access
	Events  publisher.Publisher
	Metrics metrics.Recorder
	Log     *slog.Logger
}

func NewAuthHandler(users CredentialStore, tokens TokenService, access *Access, events publisher.Publisher, rec metrics.Recorder, log *slog.Logger) *AuthHandler {
	return &AuthHandler{Users: users, Tokens: tokens, Access: access, Events: events, Metrics: rec, Log: log}
}

// ----- DTOs -----

type registerReq struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshReq struct {
	Refresh string `json:"refresh"`
}

type pairResp struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type accessResp struct {
	Access string `json:"access"`
}

type profileResp struct {
	ID         uint64    `json:"id"`
	Email      string    `json:"email"`
	GivenName  string    `json:"given_name"`
	FamilyName string    `json:"family_name"`
	FullName   string    `json:"full_name"`
	IsElevated bool      `json:"is_elevated"`
	CreatedAt  time.Time `json:"created_at"`
}

func toProfile(u *model.User) profileResp {
	return profileResp{
		ID:         u.ID,
		Email:      u.Email,
		GivenName:  u.GivenName,
		FamilyName: u.FamilyName,
		FullName:   strings.TrimSpace(u.FullName()),
		IsElevated: u.IsElevated,
		CreatedAt:  u.CreatedAt,
	}
}

// Register handles POST /v1/auth/register. Registration never yields an
// elevated user and does not log the caller in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return writeError(c, h.Log, errInvalidBody)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.Register(ctx, credential.Registration{
		Email:      req.Email,
		Password:   req.Password,
		GivenName:  req.GivenName,
		FamilyName: req.FamilyName,
	})
	if err != nil {
		return writeError(c, h.Log, err)
	}
	publish(c, h.Events, h.Log, queue.Event{Type: queue.UserRegistered, ActorID: u.ID, UserID: u.ID})
	return c.JSON(http.StatusCreated, toProfile(u))
}

// Login handles POST /v1/auth/login. Unknown emails and wrong passwords get
// the same response.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return writeError(c, h.Log, errInvalidBody)
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return jsonError(c, http.StatusBadRequest, "email and password are required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.Verify(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, credential.ErrNotFound) || errors.Is(err, credential.ErrBadCredentials) {
			h.Metrics.RecordAuthFailure("bad_credentials")
			return writeError(c, h.Log, errBadCredentials)
		}
		return writeError(c, h.Log, err)
	}
	pair, err := h.Tokens.Issue(u.ID)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, pairResp{Access: pair.Access.Value, Refresh: pair.Refresh.Value})
}

// Refresh handles POST /v1/auth/refresh. The refresh token is not rotated
// and may be used again until it expires.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return writeError(c, h.Log, errInvalidBody)
	}
	if strings.TrimSpace(req.Refresh) == "" {
		return jsonError(c, http.StatusBadRequest, "refresh is required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	access, err := h.Tokens.Refresh(ctx, strings.TrimSpace(req.Refresh))
	if err != nil {
		if isTokenError(err) {
			h.Metrics.RecordAuthFailure("refresh_token")
			return writeError(c, h.Log, tokenError(err))
		}
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, accessResp{Access: access.Value})
}

// Logout handles POST /v1/auth/logout by revoking the given refresh token.
// Access tokens already issued stay valid until they expire.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return writeError(c, h.Log, errInvalidBody)
	}
	if strings.TrimSpace(req.Refresh) == "" {
		return jsonError(c, http.StatusBadRequest, "refresh is required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Tokens.Revoke(ctx, strings.TrimSpace(req.Refresh)); err != nil {
		if isTokenError(err) {
			return writeError(c, h.Log, tokenError(err))
		}
		return writeError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func isTokenError(err error) bool {
	return errors.Is(err, token.ErrExpired) || errors.Is(err, token.ErrInvalid) || errors.Is(err, token.ErrMalformed)
}

// ----- profile -----

type profileReq struct {
	GivenName  *string `json:"given_name"`
	FamilyName *string `json:"family_name"`
	Password   *string `json:"password"`
}

// Me handles GET /v1/users/me.
func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	actor, u, err := h.Access.Actor(ctx, c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	if _, err := h.Access.Decide(actor, policy.OpRead, policy.Profile(u.ID)); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toProfile(u))
}

// UpdateMe handles PUT and PATCH /v1/users/me. Only the given name, family
// name and password can change; any other field in the body is ignored.
func (h *AuthHandler) UpdateMe(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	actor, u, err := h.Access.Actor(ctx, c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	var req profileReq
	if err := c.Bind(&req); err != nil {
		return writeError(c, h.Log, errInvalidBody)
	}
	if _, err := h.Access.Decide(actor, policy.OpUpdate, policy.Profile(u.ID)); err != nil {
		return writeError(c, h.Log, err)
	}
	updated, err := h.Users.UpdateProfile(ctx, u.ID, credential.ProfileUpdate{
		GivenName:  req.GivenName,
		FamilyName: req.FamilyName,
		Password:   req.Password,
	})
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toProfile(updated))
}
