package handlers

import (
	"github.com/SundayYogurt/auth_service/internal/api/rest/middleware"
	"github.com/SundayYogurt/auth_service/internal/dto"
	"github.com/SundayYogurt/auth_service/internal/helper"
	"github.com/SundayYogurt/auth_service/internal/helper/utils"
	"github.com/SundayYogurt/auth_service/internal/services"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	svc       services.AuthService
	auth      helper.Auth
	federated middleware.Authenticator
}

// NewAuthHandler wires the routes. federated may be nil, in which case only
// locally signed tokens are accepted.
func NewAuthHandler(svc services.AuthService, auth helper.Auth, federated middleware.Authenticator) *AuthHandler {
	return &AuthHandler{svc: svc, auth: auth, federated: federated}
}

func (h *AuthHandler) SetupRoutes(app *fiber.App) {
	authed := middleware.AuthMiddleware(h.auth, h.federated)

	r := app.Group("/auth")

	// public
	r.Post("/signup", h.Signup)
	r.Post("/login", h.Login)
	r.Post("/refresh", h.Refresh)
	r.Post("/forgotpassword", h.ForgotPassword)
	r.Post("/resetpassword", h.ResetPassword)

	// session
	r.Post("/logout", authed, h.Logout)
	r.Get("/profile", authed, h.Profile)
	r.Put("/profile", authed, h.EditProfile)
	r.Get("/profile/admin", authed, middleware.AdminOnly(), h.Profile)
	r.Post("/verify/email", authed, h.VerifyEmail)
}

func (h *AuthHandler) Signup(ctx *fiber.Ctx) error {
	var requestBody dto.SignupRequest
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid inputs")
	}

	resp, err := h.svc.Signup(ctx.UserContext(), requestBody)
	if err != nil {
		return utils.ResponseServiceError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusCreated, resp)
}

func (h *AuthHandler) Login(ctx *fiber.Ctx) error {
	var requestBody dto.UserLogin
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "email and password are required")
	}

	resp, err := h.svc.Signin(ctx.UserContext(), requestBody)
	if err != nil {
		return utils.ResponseServiceError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, resp)
}

func (h *AuthHandler) Refresh(ctx *fiber.Ctx) error {
	var requestBody dto.RefreshTokenRequest
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "refreshToken is required")
	}

	resp, err := h.svc.RefreshToken(ctx.UserContext(), requestBody)
	if err != nil {
		return utils.ResponseServiceError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, resp)
}

func (h *AuthHandler) Logout(ctx *fiber.Ctx) error {
	user, err := h.auth.GetCurrentUser(ctx)
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	if err := h.svc.Logout(ctx.UserContext(), user); err != nil {
		return utils.ResponseServiceError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, "logged out")
}

func (h *AuthHandler) Profile(ctx *fiber.Ctx) error {
	user, err := h.auth.GetCurrentUser(ctx)
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	profile, err := h.svc.Profile(ctx.UserContext(), user)
	if err != nil {
		return utils.ResponseServiceError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, profile)
}

func (h *AuthHandler) EditProfile(ctx *fiber.Ctx) error {
	user, err := h.auth.GetCurrentUser(ctx)
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	var requestBody dto.UpdateUserProfile
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid inputs")
	}

	profile, err := h.svc.EditProfile(ctx.UserContext(), user, requestBody)
	if err != nil {
		return utils.ResponseServiceError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, profile)
}

func (h *AuthHandler) VerifyEmail(ctx *fiber.Ctx) error {
	user, err := h.auth.GetCurrentUser(ctx)
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	if err := h.svc.VerifyEmail(ctx.UserContext(), user); err != nil {
		return utils.ResponseServiceError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, "verification email sent")
}

func (h *AuthHandler) ForgotPassword(ctx *fiber.Ctx) error {
	var requestBody dto.ForgotPasswordRequest
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid email id")
	}

	if err := h.svc.ForgotPassword(ctx.UserContext(), requestBody); err != nil {
		return utils.ResponseServiceError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, "ok")
}

func (h *AuthHandler) ResetPassword(ctx *fiber.Ctx) error {
	var requestBody dto.ResetPasswordRequest
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid input")
	}

	if err := h.svc.ResetPassword(ctx.UserContext(), requestBody); err != nil {
		return utils.ResponseServiceError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, "ok")
}
