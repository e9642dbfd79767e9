package chat

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"mime"
	"time"

	"github.com/Abraxas-365/chatstream/pkg/ai/llm"
	"github.com/Abraxas-365/chatstream/pkg/errx"
	"github.com/Abraxas-365/chatstream/pkg/fsx"
	"github.com/Abraxas-365/chatstream/pkg/integrations"
	"github.com/Abraxas-365/chatstream/pkg/jobx"
	"github.com/Abraxas-365/chatstream/pkg/kernel"
	"github.com/Abraxas-365/chatstream/pkg/logx"
	"github.com/Abraxas-365/chatstream/pkg/streamx"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

// JobPersistTranscript is the queued job kind for saving a finished turn
const JobPersistTranscript = "persist_transcript"

// Handler exposes the chat HTTP surface
type Handler struct {
	provider llm.Provider
	deps     integrations.Deps
	repo     TranscriptRepo
	cache    SessionCache
	queue    jobx.Queue
	store    fsx.Store
	notifier Notifier
	model    string
	maxSteps int
}

// HandlerConfig wires the handler dependencies
type HandlerConfig struct {
	Provider llm.Provider
	Deps     integrations.Deps
	Repo     TranscriptRepo
	Cache    SessionCache
	Queue    jobx.Queue
	Store    fsx.Store
	Notifier Notifier

	// Model overrides the provider's default model when set
	Model string

	// MaxSteps overrides the runner step limit when positive
	MaxSteps int
}

// NewHandler creates the handler
func NewHandler(cfg HandlerConfig) *Handler {
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Handler{
		provider: cfg.Provider,
		deps:     cfg.Deps,
		repo:     cfg.Repo,
		cache:    cfg.Cache,
		queue:    cfg.Queue,
		store:    cfg.Store,
		notifier: notifier,
		model:    cfg.Model,
		maxSteps: cfg.MaxSteps,
	}
}

// RegisterRoutes mounts the chat endpoints on a router group
func (h *Handler) RegisterRoutes(router fiber.Router) {
	router.Post("/chat", h.Stream)
	router.Get("/chat/:id/history", h.History)
	router.Post("/attachments", h.Upload)
}

// Stream runs one chat turn, streaming frames to the client. Every
// validation error is rejected before the first byte of the body; once
// streaming starts, failures are rendered in-band by the runner.
func (h *Handler) Stream(c *fiber.Ctx) error {
	authCtx, _ := kernel.AuthFromContext(c.UserContext())

	var req Request
	if err := c.BodyParser(&req); err != nil {
		return renderError(c, errorRegistry.NewWithCause(ErrInvalidBody, err))
	}

	history, reqErr := req.Normalize()
	if reqErr != nil {
		return renderError(c, reqErr)
	}
	kinds, reqErr := req.Addons()
	if reqErr != nil {
		return renderError(c, reqErr)
	}

	sessionID := kernel.SessionID(req.ID)
	if sessionID.IsEmpty() {
		sessionID = kernel.NewSessionID()
	}

	opts := []llm.Option{}
	if h.model != "" {
		opts = append(opts, llm.WithModel(h.model))
	}
	if req.ReasoningMode {
		opts = append(opts, llm.WithReasoningMode(true))
	}

	base := c.UserContext()
	reqCtx := c.Context()

	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	c.Set("x-vercel-ai-data-stream", "v1")
	c.Set("x-session-id", sessionID.String())

	reqCtx.SetBodyStreamWriter(fasthttp.StreamWriter(func(bw *bufio.Writer) {
		ctx, cancel := context.WithCancel(base)
		defer cancel()
		go func() {
			select {
			case <-reqCtx.Done():
				cancel()
			case <-ctx.Done():
			}
		}()

		registry := integrations.Build(ctx, kinds, req.Connections, h.deps)

		runnerOpts := []RunnerOption{
			WithNotifier(h.notifier),
			WithFileSink(h.fileSink(sessionID)),
		}
		if h.maxSteps > 0 {
			runnerOpts = append(runnerOpts, WithMaxSteps(h.maxSteps))
		}
		runner := NewRunner(h.provider, registry, runnerOpts...)

		w := streamx.NewWriter(bw)
		result, runErr := runner.Run(ctx, w, sessionID, history, opts...)
		if runErr != nil {
			logx.WithFields(logx.Fields{"session_id": sessionID}).
				WithError(runErr).Warn("turn ended abnormally")
		}

		h.finishTurn(context.WithoutCancel(base), authCtx, sessionID, history, result)
	}))

	return nil
}

// finishTurn hands the completed turn off for persistence and refreshes
// the session cache. Both are best effort; the client already has the
// stream.
func (h *Handler) finishTurn(ctx context.Context, authCtx *kernel.AuthContext, sessionID kernel.SessionID, history []llm.Message, result TurnResult) {
	if len(result.Messages) == 0 {
		return
	}

	var userID kernel.UserID
	if authCtx != nil {
		userID = authCtx.UserID
	}

	// Persist only this turn's delta: the user's new message plus what
	// the model produced. Clients resend the full history every turn.
	messages := append([]llm.Message{history[len(history)-1]}, result.Messages...)

	transcript := Transcript{
		SessionID: sessionID,
		UserID:    userID,
		Messages:  messages,
		Usage:     result.Usage,
		CreatedAt: time.Now().UTC(),
	}

	if h.queue != nil {
		job, err := jobx.NewJob(JobPersistTranscript, transcript)
		if err == nil {
			err = h.queue.Enqueue(ctx, job)
		}
		if err != nil {
			logx.WithFields(logx.Fields{"session_id": sessionID}).
				WithError(err).Error("failed to enqueue transcript")
		}
	}

	if h.cache != nil {
		meta := SessionMeta{SessionID: sessionID, UserID: userID, LastActive: transcript.CreatedAt}
		if prev, ok, _ := h.cache.Get(ctx, sessionID); ok {
			meta.TurnCount = prev.TurnCount
		}
		meta.TurnCount++
		if err := h.cache.Touch(ctx, meta); err != nil {
			logx.WithFields(logx.Fields{"session_id": sessionID}).
				WithError(err).Warn("failed to touch session cache")
		}
	}
}

// fileSink mirrors inline model output into object storage
func (h *Handler) fileSink(sessionID kernel.SessionID) func(context.Context, llm.FileData) {
	if h.store == nil {
		return nil
	}
	return func(ctx context.Context, file llm.FileData) {
		ext := ""
		if exts, _ := mime.ExtensionsByType(file.MIMEType); len(exts) > 0 {
			ext = exts[0]
		}
		key := "generated/" + sessionID.String() + "/" + uuid.NewString() + ext

		if _, err := h.store.Put(ctx, key, file.Data, file.MIMEType); err != nil {
			logx.WithFields(logx.Fields{"session_id": sessionID, "key": key}).
				WithError(err).Warn("failed to mirror generated file")
		}
	}
}

// History returns the persisted messages of a session
func (h *Handler) History(c *fiber.Ctx) error {
	sessionID := kernel.SessionID(c.Params("id"))

	messages, err := h.repo.History(c.UserContext(), sessionID)
	if err != nil {
		return renderError(c, err)
	}
	if len(messages) == 0 {
		return renderError(c, errorRegistry.New(ErrSessionNotFound).
			WithDetail("session_id", sessionID.String()))
	}

	return c.JSON(fiber.Map{
		"sessionId": sessionID,
		"messages":  messages,
	})
}

// Upload stores one attachment and returns its object descriptor
func (h *Handler) Upload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return renderError(c, errorRegistry.NewWithCause(ErrInvalidBody, err).
			WithDetail("field", "file"))
	}

	f, err := fileHeader.Open()
	if err != nil {
		return renderError(c, errorRegistry.NewWithCause(ErrInvalidBody, err))
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return renderError(c, errorRegistry.NewWithCause(ErrInvalidBody, err))
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := "attachments/" + uuid.NewString() + "-" + fileHeader.Filename
	object, err := h.store.Put(c.UserContext(), key, data, contentType)
	if err != nil {
		return renderError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(object)
}

// TranscriptJobHandler returns the worker handler that saves queued turns
func TranscriptJobHandler(repo TranscriptRepo) jobx.Handler {
	return func(ctx context.Context, job jobx.Job) error {
		var t Transcript
		if err := json.Unmarshal(job.Payload, &t); err != nil {
			return err
		}
		return repo.SaveTurn(ctx, t)
	}
}

func renderError(c *fiber.Ctx, err error) error {
	var coded *errx.Error
	if errx.As(err, &coded) {
		return c.Status(coded.HTTPStatus).JSON(coded)
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": err.Error(),
	})
}
