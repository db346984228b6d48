package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/whisperd/errors"
	"github.com/kbukum/whisperd/server"
	"github.com/kbukum/whisperd/stt"
	"github.com/kbukum/whisperd/transcription"
)

const msgInvalidBody = "Invalid request body"

// Transcriber runs a transcription request.
type Transcriber interface {
	Transcribe(ctx context.Context, req stt.Request) (*transcription.Result, error)
}

// ModelState reports the model cache.
type ModelState interface {
	Current() (string, bool)
	Supported() []string
	Default() string
}

// Handler serves the transcription API.
type Handler struct {
	svc    Transcriber
	models ModelState
}

// NewHandler creates a Handler.
func NewHandler(svc Transcriber, models ModelState) *Handler {
	return &Handler{svc: svc, models: models}
}

// Register mounts the API routes on r.
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/health", h.Health)
	r.GET("/models", h.Models)
	r.POST("/transcribe", h.Transcribe)
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status          string   `json:"status"`
	ModelLoaded     bool     `json:"model_loaded"`
	CurrentModel    *string  `json:"current_model"`
	AvailableModels []string `json:"available_models"`
}

// ModelsResponse is the body of GET /models.
type ModelsResponse struct {
	Models  []string `json:"models"`
	Current *string  `json:"current"`
	Default string   `json:"default"`
}

// TranscribeResponse is the body of a successful POST /transcribe.
type TranscribeResponse struct {
	Text                string  `json:"text"`
	Language            string  `json:"language"`
	LanguageProbability float64 `json:"language_probability"`
	Duration            float64 `json:"duration"`
}

// Health reports liveness. It never loads a model.
func (h *Handler) Health(c *gin.Context) {
	current := h.current()
	server.RespondOK(c, HealthResponse{
		Status:          "healthy",
		ModelLoaded:     current != nil,
		CurrentModel:    current,
		AvailableModels: h.models.Supported(),
	})
}

// Models lists the catalog.
func (h *Handler) Models(c *gin.Context) {
	server.RespondOK(c, ModelsResponse{
		Models:  h.models.Supported(),
		Current: h.current(),
		Default: h.models.Default(),
	})
}

// Transcribe decodes, normalizes and transcribes one clip.
func (h *Handler) Transcribe(c *gin.Context) {
	var req stt.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, bindError(err))
		return
	}

	res, err := h.svc.Transcribe(c.Request.Context(), req)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, TranscribeResponse{
		Text:                res.Text,
		Language:            res.Language,
		LanguageProbability: res.LanguageProbability,
		Duration:            res.Duration,
	})
}

func (h *Handler) current() *string {
	if id, ok := h.models.Current(); ok {
		return &id
	}
	return nil
}

func bindError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "Request body too large", http.StatusRequestEntityTooLarge)
	}
	return apperrors.InvalidInput("", msgInvalidBody)
}
