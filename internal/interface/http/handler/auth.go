package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

// ContextKey is where the JWT middleware stores the parsed token.
const ContextKey = "user"

// Roles allowed on staff routes.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

func claimsFromCtx(c *fiber.Ctx) (jwt.MapClaims, error) {
	tok, ok := c.Locals(ContextKey).(*jwt.Token)
	if !ok || tok == nil {
		return nil, fiber.ErrUnauthorized
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fiber.ErrUnauthorized
	}
	return claims, nil
}

// UserIDFromCtx returns the caller's id from the user_id claim, falling back
// to sub. Numeric ids are accepted and rendered in base 10.
func UserIDFromCtx(c *fiber.Ctx) (string, error) {
	claims, err := claimsFromCtx(c)
	if err != nil {
		return "", err
	}
	for _, key := range []string{"user_id", "sub"} {
		switch v := claims[key].(type) {
		case string:
			if v = strings.TrimSpace(v); v != "" {
				return v, nil
			}
		case float64:
			return strconv.FormatInt(int64(v), 10), nil
		case int64:
			return strconv.FormatInt(v, 10), nil
		case int:
			return strconv.Itoa(v), nil
		}
	}
	return "", fiber.ErrUnauthorized
}

func emailFromCtx(c *fiber.Ctx) string {
	claims, err := claimsFromCtx(c)
	if err != nil {
		return ""
	}
	email, _ := claims["email"].(string)
	return email
}

// IsStaff reports whether the caller's role claim grants staff access.
func IsStaff(c *fiber.Ctx) bool {
	claims, err := claimsFromCtx(c)
	if err != nil {
		return false
	}
	role, _ := claims["role"].(string)
	role = strings.ToLower(role)
	return role == RoleAdmin || role == RoleStaff
}

// RequireStaff rejects callers without a staff role.
func RequireStaff(c *fiber.Ctx) error {
	if _, err := UserIDFromCtx(c); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	if !IsStaff(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "staff access required"})
	}
	return c.Next()
}

// RequireUser rejects requests that carry no usable user id.
func RequireUser(c *fiber.Ctx) error {
	if _, err := UserIDFromCtx(c); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	return c.Next()
}
