package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gbd-solar/solartech-api/config"
	"github.com/gbd-solar/solartech-api/models"
	"github.com/gbd-solar/solartech-api/policy"
	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// CustomClaims are the application claims carried by a session credential.
type CustomClaims struct {
	Username  string `json:"username"`
	Role      string `json:"role"`
	CompanyID *uint  `json:"companyId"`
}

// Validate rejects credentials whose role is not one of the known roles.
func (c *CustomClaims) Validate(ctx context.Context) error {
	if _, err := models.ParseRole(c.Role); err != nil {
		return err
	}
	return nil
}

// NewValidator builds the HS256 validator for session credentials.
func NewValidator(cfg *config.Config) (*validator.Validator, error) {
	secret := []byte(cfg.JWTSecret)
	keyFunc := func(ctx context.Context) (interface{}, error) {
		return secret, nil
	}

	return validator.New(
		keyFunc,
		validator.HS256,
		cfg.JWTIssuer,
		[]string{cfg.JWTAudience},
		validator.WithCustomClaims(
			func() validator.CustomClaims {
				return &CustomClaims{}
			},
		),
		validator.WithAllowedClockSkew(time.Minute),
	)
}

// EnsureValidToken is a middleware that will check the validity of our JWT
// and attach the caller's policy.Identity to the context.
func EnsureValidToken(cfg *config.Config) gin.HandlerFunc {
	jwtValidator, err := NewValidator(cfg)
	if err != nil {
		panic(fmt.Sprintf("failed to set up the jwt validator: %v", err))
	}

	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		code, message := "INVALID_CREDENTIAL", "Session credential is invalid or expired."
		if errors.Is(err, jwtmiddleware.ErrJWTMissing) {
			code, message = "UNAUTHENTICATED", "Authentication required."
		}
		slog.WarnContext(r.Context(), "rejected credential", "code", code, "error", err)
		writeAuthError(w, code, message)
	}

	middleware := jwtmiddleware.New(
		jwtValidator.ValidateToken,
		jwtmiddleware.WithErrorHandler(errorHandler),
	)

	return func(c *gin.Context) {
		passed := false
		var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
			token := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
			custom, _ := token.CustomClaims.(*CustomClaims)
			if custom == nil {
				writeAuthError(w, "INVALID_CREDENTIAL", "Session credential is invalid or expired.")
				return
			}

			identity, err := policy.NewIdentity(token.RegisteredClaims.Subject, custom.Username, custom.Role, custom.CompanyID)
			if err != nil {
				slog.WarnContext(r.Context(), "credential carries an unusable identity", "error", err)
				writeAuthError(w, "INVALID_CREDENTIAL", "Session credential is invalid or expired.")
				return
			}

			passed = true
			c.Request = r
			c.Set(identityKey, identity)

			c.Next()
		}

		middleware.CheckJWT(handler).ServeHTTP(c.Writer, c.Request)
		if !passed {
			c.Abort()
		}
	}
}

func writeAuthError(w http.ResponseWriter, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	body := fmt.Sprintf(`{"success":false,"error":{"code":%q,"message":%q}}`, code, message)
	if _, err := w.Write([]byte(body)); err != nil {
		slog.Error("failed to write error response", "error", err)
	}
}

// SetIdentity attaches identity to the request context.
func SetIdentity(c *gin.Context, identity policy.Identity) {
	c.Set(identityKey, identity)
}

// GetIdentity extracts the caller's identity from the Gin context
func GetIdentity(c *gin.Context) (policy.Identity, error) {
	value, exists := c.Get(identityKey)
	if !exists {
		return policy.Identity{}, &AuthError{Code: "UNAUTHENTICATED", Message: "Identity not found in context"}
	}

	identity, ok := value.(policy.Identity)
	if !ok {
		return policy.Identity{}, &AuthError{Code: "INVALID_CREDENTIAL", Message: "Identity is not in the expected format"}
	}

	return identity, nil
}

// RequireRole is a middleware that only lets the given roles through
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := GetIdentity(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNAUTHENTICATED",
					"message": "Could not retrieve caller identity",
				},
			})
			c.Abort()
			return
		}

		if !identity.HasAnyRole(roles...) {
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "FORBIDDEN",
					"message": "Insufficient permissions to access this resource",
				},
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// AuthError represents an authentication error
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}
