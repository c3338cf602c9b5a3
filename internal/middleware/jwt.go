package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "strconv"  // numeric conversion of the subject claim
    "strings"  // string utilities for prefix checking and trimming

    "github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
    "github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// issued by the identity service and injects the token's subject and role
// claims into the request context.  The provided secret must match the one
// used when issuing tokens.  This middleware should wrap protected routes so
// that handlers can access authenticated user information via
// `c.Get("user_id")` (uint64) and `c.Get("role")` (string).
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // A valid Authorization header starts with "Bearer " followed
            // by the JWT.
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            // Parse with HS256 and our secret; any other signing method is
            // rejected.
            tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
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

            // The subject carries the numeric user ID.  The identity
            // service encodes it as a string per RFC 7519, but tolerate a
            // bare JSON number as well.
            uid, ok := subjectID(claims["sub"])
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid subject"})
            }
            role, _ := claims["role"].(string)

            c.Set("user_id", uid)
            c.Set("role", role)
            return next(c)
        }
    }
}

// subjectID converts the sub claim into a uint64 user ID.
func subjectID(v interface{}) (uint64, bool) {
    switch t := v.(type) {
    case string:
        n, err := strconv.ParseUint(t, 10, 64)
        if err != nil {
            return 0, false
        }
        return n, true
    case float64:
        if t < 0 {
            return 0, false
        }
        return uint64(t), true
    }
    return 0, false
}

// UserID returns the authenticated user's ID from the context.  It must be
// called below JWTAuth.
func UserID(c echo.Context) uint64 {
    uid, _ := c.Get("user_id").(uint64)
    return uid
}
