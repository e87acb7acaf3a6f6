package middleware

import (
	"context"
	"errors"
	"strconv"

	"github.com/Dosada05/raffle-system/models"
	"github.com/golang-jwt/jwt/v4"
)

var (
	ErrNoClaimsInContext = errors.New("no token claims found in context")
	ErrInvalidUserID     = errors.New("invalid user id in token claims")
	ErrInvalidUserRole   = errors.New("invalid user role in token claims")
)

func claimsFromContext(ctx context.Context) (jwt.MapClaims, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return nil, ErrNoClaimsInContext
	}
	return claims, nil
}

// GetUserIDFromContext достаёт идентификатор пользователя из claims.
// JSON-числа приходят как float64, но на всякий случай принимаем и строку.
func GetUserIDFromContext(ctx context.Context) (int, error) {
	claims, err := claimsFromContext(ctx)
	if err != nil {
		return 0, err
	}
	switch v := claims["user_id"].(type) {
	case float64:
		return int(v), nil
	case string:
		id, err := strconv.Atoi(v)
		if err != nil {
			return 0, ErrInvalidUserID
		}
		return id, nil
	default:
		return 0, ErrInvalidUserID
	}
}

func GetUserRoleFromContext(ctx context.Context) (models.UserRole, error) {
	claims, err := claimsFromContext(ctx)
	if err != nil {
		return "", err
	}
	roleStr, ok := claims["role"].(string)
	if !ok {
		return "", ErrInvalidUserRole
	}
	role := models.UserRole(roleStr)
	if role != models.RoleUser && role != models.RoleAdmin {
		return "", ErrInvalidUserRole
	}
	return role, nil
}
