package middleware

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/sala-api/internal/models"
	"github.com/noah-isme/sala-api/internal/utils"
)

// RequireStaff admits administrators and teachers, the two account types of
// the admin console.
func RequireStaff() fiber.Handler {
	return RequireRole(models.UserRoleAdmin, models.UserRoleTeacher)
}

// RequireRole admits requests whose token role is one of roles. It runs after
// JWTProtected; a request without any identity is answered with 401.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		if normalized := normalizeRole(role); normalized != "" {
			allowed[normalized] = struct{}{}
		}
	}
	names := make([]string, 0, len(allowed))
	for role := range allowed {
		names = append(names, role)
	}
	sort.Strings(names)
	denied := "requires role " + strings.Join(names, " or ")

	return func(c *fiber.Ctx) error {
		role := normalizeRole(c.Locals("user_role"))
		if role == "" && c.Locals("user_id") == nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}
		if _, ok := allowed[role]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, denied)
		}
		return c.Next()
	}
}

func normalizeRole(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.ToLower(strings.TrimSpace(v))
	case fmt.Stringer:
		return strings.ToLower(strings.TrimSpace(v.String()))
	default:
		return strings.ToLower(strings.TrimSpace(fmt.Sprintf("%v", v)))
	}
}
