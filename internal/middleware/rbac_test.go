package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func staffApp(identity map[string]interface{}) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		for key, value := range identity {
			c.Locals(key, value)
		}
		return c.Next()
	})
	app.Use(RequireStaff())
	app.Get("/api/admin/grades", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestRequireStaffByRole(t *testing.T) {
	cases := []struct {
		name     string
		identity map[string]interface{}
		status   int
	}{
		{"admin", map[string]interface{}{"user_id": uint(1), "user_role": "admin"}, fiber.StatusOK},
		{"teacher with stray casing", map[string]interface{}{"user_id": uint(2), "user_role": " Teacher "}, fiber.StatusOK},
		{"student account", map[string]interface{}{"user_id": uint(3), "user_role": "student"}, fiber.StatusForbidden},
		{"guardian account", map[string]interface{}{"user_id": uint(4), "user_role": "guardian"}, fiber.StatusForbidden},
		{"token without role", map[string]interface{}{"user_id": uint(5)}, fiber.StatusForbidden},
		{"anonymous", nil, fiber.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := staffApp(tc.identity).Test(httptest.NewRequest(http.MethodGet, "/api/admin/grades", nil))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestRequireRoleNamesAllowedRoles(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(9))
		c.Locals("user_role", "teacher")
		return c.Next()
	})
	app.Use(RequireRole("Admin"))
	app.Delete("/api/admin/school-years/1", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/api/admin/school-years/1", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "requires role admin")
}
