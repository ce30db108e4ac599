package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Prajwol-Chhetri/Task-REST-API/internal/credential"
	"github.com/Prajwol-Chhetri/Task-REST-API/internal/model"
	"github.com/Prajwol-Chhetri/Task-REST-API/internal/policy"
	"github.com/Prajwol-Chhetri/Task-REST-API/internal/repository"
	"github.com/Prajwol-Chhetri/Task-REST-API/internal/token"
)

// apiError is an error that already knows its HTTP status.
type apiError struct {
	status int
	msg    string
}

func (e *apiError) Error() string { return e.msg }

var (
	errNoCredentials  = &apiError{http.StatusUnauthorized, "authentication credentials were not provided"}
	errTokenExpired   = &apiError{http.StatusUnauthorized, "token expired"}
	errTokenInvalid   = &apiError{http.StatusUnauthorized, "token is invalid"}
	errInactiveUser   = &apiError{http.StatusUnauthorized, "user is inactive or deleted"}
	errBadCredentials = &apiError{http.StatusUnauthorized, "no active account found with the given credentials"}
	errForbidden      = &apiError{http.StatusForbidden, "you do not have permission to perform this action"}
	errTaskNotFound   = &apiError{http.StatusNotFound, "task not found"}
	errInvalidBody    = &apiError{http.StatusBadRequest, "invalid request body"}
)

// denial converts a policy denial into the matching response error.
func denial(d policy.Decision) error {
	switch d.Reason {
	case policy.ReasonUnauthenticated:
		return errNoCredentials
	case policy.ReasonNotVisible:
		return errTaskNotFound
	}
	return errForbidden
}

// tokenError maps token failures to 401 responses. Expiry gets its own
// message so clients know to refresh.
func tokenError(err error) error {
	if errors.Is(err, token.ErrExpired) {
		return errTokenExpired
	}
	return errTokenInvalid
}

// writeError is the only place domain errors become HTTP responses. Unknown
// errors are logged and reported as 500 without detail.
func writeError(c echo.Context, log *slog.Logger, err error) error {
	var (
		ae *apiError
		ve *model.ValidationError
	)
	switch {
	case errors.As(err, &ae):
		return jsonError(c, ae.status, ae.msg)
	case errors.As(err, &ve):
		return jsonError(c, http.StatusBadRequest, ve.Error())

	case errors.Is(err, credential.ErrInvalidEmail):
		return jsonError(c, http.StatusBadRequest, "email: enter a valid email address")
	case errors.Is(err, credential.ErrWeakSecret):
		return jsonError(c, http.StatusBadRequest, "password: too short")
	case errors.Is(err, credential.ErrSecretTooLong):
		return jsonError(c, http.StatusBadRequest, "password: at most 72 bytes")
	case errors.Is(err, credential.ErrDuplicateIdentity):
		return jsonError(c, http.StatusBadRequest, "email: a user with this email already exists")
	case errors.Is(err, credential.ErrNotFound), errors.Is(err, credential.ErrBadCredentials):
		return jsonError(c, errBadCredentials.status, errBadCredentials.msg)

	case errors.Is(err, token.ErrExpired), errors.Is(err, token.ErrInvalid), errors.Is(err, token.ErrMalformed):
		te := tokenError(err).(*apiError)
		return jsonError(c, te.status, te.msg)

	case errors.Is(err, repository.ErrTaskNotFound):
		return jsonError(c, http.StatusNotFound, errTaskNotFound.msg)
	case errors.Is(err, repository.ErrDuplicateTaskID):
		return jsonError(c, http.StatusBadRequest, "task_id: task with this task_id already exists")
	case errors.Is(err, repository.ErrUnknownOwner):
		return jsonError(c, http.StatusBadRequest, "owner: user does not exist")
	}

	log.Error("request failed", "method", c.Request().Method, "route", c.Path(), "error", err)
	return jsonError(c, http.StatusInternalServerError, "internal server error")
}

func jsonError(c echo.Context, status int, msg string) error {
	if status == http.StatusUnauthorized {
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	}
	return c.JSON(status, echo.Map{"error": msg})
}
