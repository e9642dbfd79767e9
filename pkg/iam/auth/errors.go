package auth

import (
	"net/http"

	"github.com/Abraxas-365/chatstream/pkg/errx"
)

var (
	errorRegistry = errx.NewRegistry("AUTH")

	ErrUnauthorized = errorRegistry.Register(
		"UNAUTHORIZED",
		errx.TypeAuthorization,
		http.StatusUnauthorized,
		"Authentication required",
	)

	ErrInvalidToken = errorRegistry.Register(
		"INVALID_TOKEN",
		errx.TypeAuthorization,
		http.StatusUnauthorized,
		"Invalid or expired token",
	)

	ErrInvalidAPIKey = errorRegistry.Register(
		"INVALID_API_KEY",
		errx.TypeAuthorization,
		http.StatusUnauthorized,
		"Invalid API key",
	)

	ErrTokenGeneration = errorRegistry.Register(
		"TOKEN_GENERATION_FAILED",
		errx.TypeInternal,
		http.StatusInternalServerError,
		"Failed to generate token",
	)
)
