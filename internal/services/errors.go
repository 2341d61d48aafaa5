package services

import (
	"errors"
	"log/slog"

	"github.com/SundayYogurt/auth_service/internal/repository"
	"github.com/gofiber/fiber/v2"
)

// ServiceError is what the HTTP layer turns into {"error": Message}.
// A zero Status means 400.
type ServiceError struct {
	Message string
	Status  int
	Err     error
}

func (e *ServiceError) Error() string {
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) StatusCode() int {
	if e.Status == 0 {
		return fiber.StatusBadRequest
	}
	return e.Status
}

var (
	ErrInvalidInput        = &ServiceError{Message: "email and password are required"}
	ErrEmailExists         = &ServiceError{Message: "email already exist"}
	ErrUserNotFound        = &ServiceError{Message: "User not found"}
	ErrTooManyAttempts     = &ServiceError{Message: "Too many attempts, Try again in five minutes"}
	ErrIncorrectPassword   = &ServiceError{Message: "incorrect password"}
	ErrInvalidRefreshToken = &ServiceError{Message: "invalid refresh token", Status: fiber.StatusUnauthorized}
	ErrSessionExpired      = &ServiceError{Message: "session expired", Status: fiber.StatusUnauthorized}
	ErrNoLinkedIdentity    = &ServiceError{Message: "no linked identity"}
	ErrPasswordTooLong     = &ServiceError{Message: "password too long"}
	ErrIdentityInUse       = &ServiceError{Message: "identity already linked to another user", Status: fiber.StatusConflict}
	ErrUnknownIdentity     = &ServiceError{Message: "no user for this identity", Status: fiber.StatusUnauthorized}

	ErrIdentityProvider = errors.New("identity provider request failed")
	ErrStore            = errors.New("database error")
)

func identityError(err error) error {
	return &ServiceError{Message: err.Error(), Status: fiber.StatusBadGateway, Err: errors.Join(ErrIdentityProvider, err)}
}

func internalError(err error) error {
	return &ServiceError{Message: err.Error(), Status: fiber.StatusInternalServerError, Err: err}
}

// fromStoreError flattens a repository failure; the detail only reaches the log.
func fromStoreError(log *slog.Logger, op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	log.Error("store operation failed", "op", op, "err", err)
	return &ServiceError{Message: ErrStore.Error(), Status: fiber.StatusInternalServerError, Err: errors.Join(ErrStore, err)}
}
