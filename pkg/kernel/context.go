package kernel

import "context"

// AuthContext is the authentication context injected into each request
type AuthContext struct {
	UserID   UserID   `json:"user_id"`
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	Scopes   []string `json:"scopes"`
	IsAPIKey bool     `json:"is_api_key"`
}

// IsValid reports whether the AuthContext identifies someone
func (ac *AuthContext) IsValid() bool {
	return !ac.UserID.IsEmpty()
}

// HasScope reports whether the context carries a specific scope.
// "*" matches everything; "chat:*" matches "chat:stream".
func (ac *AuthContext) HasScope(scope string) bool {
	for _, s := range ac.Scopes {
		if s == scope || s == "*" {
			return true
		}
		if len(s) > 2 && s[len(s)-2:] == ":*" {
			prefix := s[:len(s)-2]
			if len(scope) > len(prefix) && scope[:len(prefix)] == prefix && scope[len(prefix)] == ':' {
				return true
			}
		}
	}
	return false
}

// ContextKey is the type for values stored in context.Context
type ContextKey string

const (
	// AuthContextKey stores the *AuthContext of the request
	AuthContextKey ContextKey = "auth_context"

	// RequestIDKey stores the request id
	RequestIDKey ContextKey = "request_id"

	// SessionContextKey stores the SessionID of the request
	SessionContextKey ContextKey = "session_id"
)

// WithAuth returns a context carrying the auth context
func WithAuth(ctx context.Context, ac *AuthContext) context.Context {
	return context.WithValue(ctx, AuthContextKey, ac)
}

// AuthFromContext extracts the auth context, if present
func AuthFromContext(ctx context.Context) (*AuthContext, bool) {
	ac, ok := ctx.Value(AuthContextKey).(*AuthContext)
	return ac, ok
}

// WithRequestID returns a context carrying the request id
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// RequestIDFromContext extracts the request id, if present
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}
