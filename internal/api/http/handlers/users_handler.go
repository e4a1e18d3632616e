package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-gate/internal/api/dto"
	"github.com/spec-kit/auth-gate/internal/auth"
	"github.com/spec-kit/auth-gate/internal/domain"
	"github.com/spec-kit/auth-gate/internal/service"
	apperrors "github.com/spec-kit/auth-gate/pkg/util"
)

// UsersHandler exposes registration, login and the caller's own profile.
type UsersHandler struct {
	auth *service.AuthService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{auth: authService}
}

// Register handles POST /users.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	req, err := parseCredentials(c)
	if err != nil {
		return err
	}

	user, token, exp, err := h.auth.Register(c.UserContext(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			return apperrors.NewConflict(err.Error(), map[string]any{"username": req.Username})
		}
		return err
	}

	return c.Status(http.StatusCreated).JSON(dto.RegisterResponse{
		User:          toUserResponse(user),
		TokenResponse: dto.TokenResponse{Token: token, ExpiresAt: exp},
	})
}

// Login handles POST /login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	req, err := parseCredentials(c)
	if err != nil {
		return err
	}

	_, token, exp, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return apperrors.NewUnauthorized(err.Error())
		}
		return err
	}

	return c.JSON(dto.TokenResponse{Token: token, ExpiresAt: exp})
}

// Me handles GET /me. It must be mounted behind the gate middleware.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	user, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewInternalError(errors.New("identity missing on protected route"))
	}
	return c.JSON(fiber.Map{"user": toUserResponse(user)})
}

func parseCredentials(c *fiber.Ctx) (*dto.CredentialsRequest, error) {
	var req dto.CredentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	return &req, nil
}

func toUserResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{ID: user.ID, Username: user.Username}
}
