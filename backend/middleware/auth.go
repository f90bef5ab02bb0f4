package middleware

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/memoralabs/memora/backend/handlers"
	"github.com/memoralabs/memora/backend/utils"
	dbmodels "github.com/memoralabs/memora/memora/database/models"
	"github.com/memoralabs/memora/memora/staff"
)

// AuthRequired middleware ensures the request carries a valid staff session
func AuthRequired(webApp *handlers.WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, err := webApp.GetSession(c)
		if err != nil {
			slog.Debug("Auth required: no valid session", slog.String("error", err.Error()))
			return utils.SendUnauthorized(c, "Authentication required")
		}

		if session == nil || session.UID == "" {
			slog.Debug("Auth required: invalid session")
			return utils.SendUnauthorized(c, "Authentication required")
		}

		c.Locals("staff", session)

		return c.Next()
	}
}

// PermissionRequired ensures the staff member holds one permission key.
// Denials land in the security event trail, not just the log.
func PermissionRequired(webApp *handlers.WebApp, permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, ok := utils.ExtractStaffSession(c)
		if !ok {
			return utils.SendForbidden(c, "Access denied")
		}

		if !session.Permissions[permission] {
			slog.Warn("Permission required: staff member lacks permission",
				slog.String("uid", session.UID),
				slog.String("required_permission", permission),
				slog.String("path", c.Path()))

			webApp.Audit.Append(c.Context(), dbmodels.EventStaffAccessDenied, session.UID, session.AdminTenant, map[string]any{
				"permission": permission,
				"path":       c.Path(),
				"method":     c.Method(),
				"ip":         utils.GetIPAddress(c),
			})

			return utils.SendForbidden(c, "Insufficient permissions")
		}

		return c.Next()
	}
}

// RoleRequired ensures the staff member holds at least the given role.
func RoleRequired(webApp *handlers.WebApp, role dbmodels.StaffRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, ok := utils.ExtractStaffSession(c)
		if !ok {
			return utils.SendForbidden(c, "Access denied")
		}

		if !staff.HasAtLeast(&dbmodels.Staff{Role: session.Role}, role) {
			slog.Warn("Role required: staff member lacks role",
				slog.String("uid", session.UID),
				slog.String("role", string(session.Role)),
				slog.String("required_role", string(role)))

			webApp.Audit.Append(c.Context(), dbmodels.EventStaffAccessDenied, session.UID, session.AdminTenant, map[string]any{
				"required_role": string(role),
				"path":          c.Path(),
				"method":        c.Method(),
			})

			return utils.SendForbidden(c, "Insufficient role")
		}

		return c.Next()
	}
}
