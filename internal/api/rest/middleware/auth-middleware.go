package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/SundayYogurt/auth_service/internal/domain"
	"github.com/SundayYogurt/auth_service/internal/dto"
	"github.com/SundayYogurt/auth_service/internal/helper"
	"github.com/gofiber/fiber/v2"
)

// Authenticator verifies a token this service did not sign itself.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (dto.AuthUser, error)
}

// AuthMiddleware verifies the access token and stores the decoded
// dto.AuthUser under Locals("user"). Tokens signed with the local secret
// are tried first; federated, when non-nil, gets the rest.
func AuthMiddleware(auth helper.Auth, federated Authenticator) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		// 1) Authorization header
		tokenStr := strings.TrimSpace(ctx.Get(fiber.HeaderAuthorization))

		// 2) fallback to cookie
		if tokenStr == "" {
			tokenStr = strings.TrimSpace(ctx.Cookies("access_token"))
		}

		user, err := auth.VerifyToken(tokenStr)
		if err != nil && federated != nil && tokenStr != "" {
			var ferr error
			user, ferr = federated.Authenticate(ctx.UserContext(), stripBearer(tokenStr))
			if ferr == nil {
				err = nil
			} else if !errors.Is(ferr, helper.ErrInvalidToken) {
				// the token verified but was refused
				err = ferr
			}
		}
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		ctx.Locals("user", user)
		return ctx.Next()
	}
}

func stripBearer(token string) string {
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[len("bearer "):])
	}
	return token
}

// AdminOnly must run after AuthMiddleware. A token without roles is
// treated as having none.
func AdminOnly() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		user, ok := ctx.Locals("user").(dto.AuthUser)
		if !ok || user.UserID == "" {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized",
			})
		}

		if !user.HasRole(domain.RoleAdmin) {
			return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "admin only",
			})
		}

		return ctx.Next()
	}
}
