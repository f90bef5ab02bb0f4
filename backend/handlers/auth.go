package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	webmodels "github.com/memoralabs/memora/backend/models"
	"github.com/memoralabs/memora/backend/utils"
	"github.com/memoralabs/memora/memora/database/repositories"
	"github.com/memoralabs/memora/memora/staff"
)

// Login exchanges a staff UID and access code for a session cookie. Access
// codes are derived from the session secret and handed out by the
// memora-admin CLI when the account is created.
func Login(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req webmodels.LoginRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.SendBadRequest(c, "Invalid login payload", nil)
		}
		if req.UID == "" || req.AccessCode == "" {
			return utils.SendBadRequest(c, "uid and access_code are required", nil)
		}

		if !webApp.SessionService.VerifyAccessCode(req.UID, req.AccessCode) {
			slog.Warn("Login rejected: bad access code",
				slog.String("uid", req.UID),
				slog.String("ip", utils.GetIPAddress(c)))
			return utils.SendUnauthorized(c, "Invalid credentials")
		}

		account, err := webApp.Repos.Staff.GetByUID(c.Context(), req.UID)
		if errors.Is(err, repositories.ErrStaffNotFound) {
			return utils.SendUnauthorized(c, "Invalid credentials")
		}
		if err != nil {
			return utils.SendInternalServerError(c, "Failed to load staff account")
		}

		session := &webmodels.StaffSession{
			UID:         account.UID,
			Email:       account.Email,
			DisplayName: account.DisplayName,
			Role:        account.Role,
			Permissions: staff.PermissionsFor(account),
			AdminTenant: account.AdminTenant,
		}

		if err := webApp.SessionService.CreateSession(c, session); err != nil {
			return utils.SendInternalServerError(c, "Failed to create session")
		}

		return utils.SendSuccess(c, session, "Logged in")
	}
}

// Logout destroys the current session
func Logout(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		webApp.SessionService.DestroySession(c)
		return utils.SendSuccess(c, nil, "Logged out")
	}
}

// ValidateSession lets the frontend check whether its cookie is still good
func ValidateSession(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, err := webApp.GetSession(c)
		if err != nil {
			return utils.SendUnauthorized(c, "No valid session")
		}
		return utils.SendSuccess(c, session, "")
	}
}
