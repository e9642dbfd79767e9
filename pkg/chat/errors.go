package chat

import (
	"net/http"

	"github.com/Abraxas-365/chatstream/pkg/errx"
)

var (
	errorRegistry = errx.NewRegistry("CHAT")

	ErrEmptyMessages = errorRegistry.Register(
		"EMPTY_MESSAGES",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Messages array cannot be empty",
	)

	ErrBlankLastMessage = errorRegistry.Register(
		"BLANK_LAST_MESSAGE",
		errx.TypeValidation,
		http.StatusBadRequest,
		"The last message must contain text",
	)

	ErrInvalidRole = errorRegistry.Register(
		"INVALID_ROLE",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Message role must be system, user or assistant",
	)

	ErrUnknownIntegration = errorRegistry.Register(
		"UNKNOWN_INTEGRATION",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Unknown integration requested",
	)

	ErrInvalidBody = errorRegistry.Register(
		"INVALID_BODY",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Request body is not valid JSON",
	)

	ErrSessionNotFound = errorRegistry.Register(
		"SESSION_NOT_FOUND",
		errx.TypeNotFound,
		http.StatusNotFound,
		"Chat session not found",
	)

	ErrMaxStepsExceeded = errorRegistry.Register(
		"MAX_STEPS_EXCEEDED",
		errx.TypeInternal,
		http.StatusInternalServerError,
		"Turn exceeded the maximum number of generation steps",
	)
)
