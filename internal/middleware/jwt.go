package middleware // middleware provides shared request processing for handlers

import (
    "net/http"
    "strings"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
)

// Context keys set by JWTAuth for downstream handlers and middleware.
const (
    CtxUserID    = "user_id"
    CtxEmail     = "email"
    CtxRoleNames = "role_names"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the identity claims into the request context.  Only tokens
// whose subject claim is "access" pass: refresh tokens are rejected even
// though they are signed with the same secret, so a stolen refresh token
// cannot be replayed against protected endpoints.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            header := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(header, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(header, "Bearer ")

            tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
                // Reject tokens signed with anything but HMAC.
                if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
                    return nil, echo.ErrUnauthorized
                }
                return []byte(secret), nil
            })
            if err != nil || !tok.Valid {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }
            claims, ok := tok.Claims.(jwt.MapClaims)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
            }
            if sub, _ := claims["sub"].(string); sub != "access" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not an access token"})
            }

            // Numeric JSON values decode as float64.
            uid, ok := claims["userId"].(float64)
            if !ok || uid <= 0 {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
            }
            c.Set(CtxUserID, uint64(uid))
            if email, ok := claims["email"].(string); ok {
                c.Set(CtxEmail, email)
            }
            c.Set(CtxRoleNames, roleNamesFromClaims(claims))

            return next(c)
        }
    }
}

// roleNamesFromClaims extracts the roleNames array claim as a string
// slice, tolerating missing or oddly typed entries.
func roleNamesFromClaims(claims jwt.MapClaims) []string {
    raw, ok := claims["roleNames"].([]interface{})
    if !ok {
        return nil
    }
    names := make([]string, 0, len(raw))
    for _, v := range raw {
        if s, ok := v.(string); ok {
            names = append(names, s)
        }
    }
    return names
}

// UserID returns the authenticated user id stored by JWTAuth, or zero
// when the request is unauthenticated.
func UserID(c echo.Context) uint64 {
    if v, ok := c.Get(CtxUserID).(uint64); ok {
        return v
    }
    return 0
}
