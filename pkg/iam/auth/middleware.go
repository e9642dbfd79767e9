package auth

import (
	"strings"

	"github.com/Abraxas-365/chatstream/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

// Middleware authenticates requests with a JWT bearer token or an API key
type Middleware struct {
	tokens *JWTService
	keys   *APIKeyService
}

// NewMiddleware creates the middleware. keys may be nil when API key
// auth is disabled.
func NewMiddleware(tokens *JWTService, keys *APIKeyService) *Middleware {
	return &Middleware{tokens: tokens, keys: keys}
}

// Authenticate validates the request credentials and stores the resulting
// auth context in both fiber locals and the request context.
func (m *Middleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authCtx, err := m.resolve(c)
		if err != nil {
			return unauthorized(c, err)
		}

		c.Locals("auth", authCtx)
		c.SetUserContext(kernel.WithAuth(c.UserContext(), authCtx))
		return c.Next()
	}
}

// RequireScope checks the authenticated principal for a scope. It must run
// after Authenticate.
func (m *Middleware) RequireScope(scope string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authCtx := AuthFromFiber(c)
		if authCtx == nil {
			return unauthorized(c, errorRegistry.New(ErrUnauthorized))
		}
		if !authCtx.HasScope(scope) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "missing scope: " + scope,
			})
		}
		return c.Next()
	}
}

func (m *Middleware) resolve(c *fiber.Ctx) (*kernel.AuthContext, error) {
	if token := bearerToken(c); token != "" {
		claims, err := m.tokens.ValidateAccessToken(token)
		if err != nil {
			return nil, err
		}
		return &kernel.AuthContext{
			UserID: claims.UserID,
			Email:  claims.Email,
			Name:   claims.Name,
			Scopes: claims.Scopes,
		}, nil
	}

	if m.keys != nil {
		if rawKey := c.Get("X-API-Key"); rawKey != "" {
			return m.keys.Validate(c.UserContext(), rawKey)
		}
	}

	return nil, errorRegistry.New(ErrUnauthorized)
}

func bearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" && parts[1] != "" {
			return parts[1]
		}
	}
	return c.Cookies("access_token")
}

// AuthFromFiber returns the auth context stored by Authenticate, or nil
func AuthFromFiber(c *fiber.Ctx) *kernel.AuthContext {
	authCtx, _ := c.Locals("auth").(*kernel.AuthContext)
	return authCtx
}

func unauthorized(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": err.Error(),
	})
}
