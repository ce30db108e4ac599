package handler

import (
	"context"
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Prajwol-Chhetri/Task-REST-API/internal/credential"
	"github.com/Prajwol-Chhetri/Task-REST-API/internal/metrics"
	"github.com/Prajwol-Chhetri/Task-REST-API/internal/middleware"
	"github.com/Prajwol-Chhetri/Task-REST-API/internal/model"
	"github.com/Prajwol-Chhetri/Task-REST-API/internal/policy"
)

// requestTimeout bounds the storage work of one request.
const requestTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

type accessAuthenticator interface {
	Authenticate(access string) (uint64, error)
}

type userGetter interface {
	Get(ctx context.Context, id uint64) (*model.User, error)
}

// Access resolves the caller of a request and asks the policy engine about
// it. Every protected handler goes through both steps before touching a
// repository.
type Access struct {
	Tokens  accessAuthenticator
	Users   userGetter
	Policy  *policy.Engine
	Metrics metrics.Recorder
}

// Actor returns the caller and their user record. Missing, invalid or
// expired tokens and inactive users produce a 401 apiError; storage
// failures are returned as is.
func (a *Access) Actor(ctx context.Context, c echo.Context) (policy.Actor, *model.User, error) {
	raw := middleware.BearerToken(c)
	if raw == "" {
		return policy.Anonymous, nil, errNoCredentials
	}
	uid, err := a.Tokens.Authenticate(raw)
	if err != nil {
		a.Metrics.RecordAuthFailure("access_token")
		return policy.Anonymous, nil, tokenError(err)
	}
	u, err := a.Users.Get(ctx, uid)
	if err != nil {
		if errors.Is(err, credential.ErrNotFound) {
			a.Metrics.RecordAuthFailure("unknown_user")
			return policy.Anonymous, nil, errInactiveUser
		}
		return policy.Anonymous, nil, err
	}
	actor := policy.ActorFor(u)
	if !actor.Authenticated() {
		a.Metrics.RecordAuthFailure("inactive_user")
		return policy.Anonymous, nil, errInactiveUser
	}
	return actor, u, nil
}

// Decide consults the policy engine and records the outcome. A denial comes
// back as the apiError to send.
func (a *Access) Decide(actor policy.Actor, op policy.Operation, target policy.Target) (policy.Decision, error) {
	d := a.Policy.Decide(actor, op, target)
	a.Metrics.RecordPolicyDecision(string(op), d.Allowed, string(d.Reason))
	if !d.Allowed {
		return d, denial(d)
	}
	return d, nil
}
