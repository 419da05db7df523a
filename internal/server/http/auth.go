package http

import (
	"errors"
	"time"

	"luchess/internal/server/core"
	"luchess/internal/server/service"
	"luchess/internal/server/storage"

	"github.com/gofiber/fiber/v2"
)

// registrationFailures maps account creation errors to responses; anything
// unlisted is a 500
var registrationFailures = []struct {
	err    error
	status int
	body   core.ErrorResponse
}{
	{storage.ErrUserExists, fiber.StatusConflict, core.ErrorResponse{
		Error: "user already exists", Code: core.ErrInvalidRequest, Details: "username or email already taken",
	}},
	{service.ErrUserLimit, fiber.StatusServiceUnavailable, core.ErrorResponse{
		Error: "registration closed", Code: core.ErrResourceLimit,
	}},
	{service.ErrStorageDisabled, fiber.StatusServiceUnavailable, core.ErrorResponse{
		Error: "accounts unavailable without storage", Code: core.ErrInternalError,
	}},
}

func registrationFailure(c *fiber.Ctx, err error) error {
	for _, f := range registrationFailures {
		if errors.Is(err, f.err) {
			return c.Status(f.status).JSON(f.body)
		}
	}
	return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
		Error: "failed to create user",
		Code:  core.ErrInternalError,
	})
}

// issueToken opens a session for user and writes the token response
func (h *HTTPHandler) issueToken(c *fiber.Ctx, user *service.User, status int) error {
	token, err := h.svc.GenerateUserToken(user.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
			Error: "failed to generate token",
			Code:  core.ErrInternalError,
		})
	}
	return c.Status(status).JSON(core.AuthResponse{
		Token:     token,
		UserID:    user.UserID,
		Username:  user.Username,
		Email:     user.Email,
		ExpiresAt: time.Now().Add(service.SessionTTL),
	})
}

// RegisterHandler creates an account and signs it in
func (h *HTTPHandler) RegisterHandler(c *fiber.Ctx) error {
	var req core.RegisterRequest
	if errResp := parseBody(c, &req); errResp != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errResp)
	}

	user, err := h.svc.CreateUser(req.Username, req.Email, req.Password)
	if err != nil {
		return registrationFailure(c, err)
	}
	return h.issueToken(c, user, fiber.StatusCreated)
}

// LoginHandler signs in by username or email, replacing any older session
func (h *HTTPHandler) LoginHandler(c *fiber.Ctx) error {
	var req core.LoginRequest
	if errResp := parseBody(c, &req); errResp != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errResp)
	}

	user, err := h.svc.AuthenticateUser(req.Identifier, req.Password)
	if err != nil {
		// one answer for unknown users and wrong passwords
		return c.Status(fiber.StatusUnauthorized).JSON(core.ErrorResponse{
			Error: "invalid credentials",
			Code:  core.ErrUnauthorized,
		})
	}

	_ = h.svc.UpdateLastLogin(user.UserID)
	return h.issueToken(c, user, fiber.StatusOK)
}

// GetCurrentUserHandler describes the signed-in account
func (h *HTTPHandler) GetCurrentUserHandler(c *fiber.Ctx) error {
	user, err := h.svc.GetUserByID(requestUser(c))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(core.ErrorResponse{
			Error: "user not found",
			Code:  core.ErrInvalidRequest,
		})
	}

	return c.JSON(core.UserResponse{
		UserID:    user.UserID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	})
}

// LogoutHandler revokes the session behind the presented token
func (h *HTTPHandler) LogoutHandler(c *fiber.Ctx) error {
	if err := h.svc.Logout(requestClaims(c)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(core.ErrorResponse{
			Error: "no active session",
			Code:  core.ErrUnauthorized,
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
