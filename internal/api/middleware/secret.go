package middleware

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vietanh2810/raffle-api/internal/api/handler/v1/response"
)

const AdminPinHeader = "X-Admin-Pin"

var (
	ErrMissingSecret = errors.New("missing credentials")
	ErrInvalidSecret = errors.New("invalid credentials")
	ErrSecretNotSet  = errors.New("endpoint is disabled until a secret is configured")
)

// RequireTickSecret guards the tick trigger. The secret is read from an
// "Authorization: Bearer" header or the secret query parameter.
func RequireTickSecret(expected func() string, openWhenUnset bool) gin.HandlerFunc {
	return requireSecret(expected, openWhenUnset, func(ctx *gin.Context) string {
		if auth := ctx.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		}
		return ctx.Query("secret")
	})
}

// RequireAdminPin guards administration and reports. The pin is read from the X-Admin-Pin
// header or the pin query parameter.
func RequireAdminPin(expected func() string, openWhenUnset bool) gin.HandlerFunc {
	return requireSecret(expected, openWhenUnset, func(ctx *gin.Context) string {
		if pin := ctx.GetHeader(AdminPinHeader); pin != "" {
			return pin
		}
		return ctx.Query("pin")
	})
}

func requireSecret(expected func() string, openWhenUnset bool, provided func(*gin.Context) string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		want := expected()
		if want == "" {
			if openWhenUnset {
				ctx.Next()
				return
			}
			response.RenderErr(ctx, response.ErrUnauthorized(ErrSecretNotSet))
			return
		}

		got := provided(ctx)
		if got == "" {
			response.RenderErr(ctx, response.ErrUnauthorized(ErrMissingSecret))
			return
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
			response.RenderErr(ctx, response.ErrUnauthorized(ErrInvalidSecret))
			return
		}

		ctx.Next()
	}
}
