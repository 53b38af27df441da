// Package handler exposes the profile aggregator over HTTP using fiber.
package handler

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/naka-gawa/github-profile/internal/domain"
)

// Aggregator is the behavior the handler needs from the use case layer.
type Aggregator interface {
	Aggregate(ctx context.Context, username string) (*domain.AnalysisResult, error)
}

// ProfileHandler wires HTTP → Aggregator.
type ProfileHandler struct {
	aggregator Aggregator
	timeout    time.Duration
	logger     *log.Logger
}

// NewProfileHandler creates a new ProfileHandler. Every aggregation is
// bounded by timeout.
func NewProfileHandler(aggregator Aggregator, timeout time.Duration, logger *log.Logger) *ProfileHandler {
	return &ProfileHandler{aggregator: aggregator, timeout: timeout, logger: logger}
}

// Register mounts POST /analyze and GET /api/v1/users/:username.
func (h *ProfileHandler) Register(r fiber.Router) {
	r.Post("/analyze", h.analyzeForm)
	r.Get("/api/v1/users/:username", h.analyzeUser)
}

// analyzeForm handles POST /analyze with a form-encoded username.
func (h *ProfileHandler) analyzeForm(c *fiber.Ctx) error {
	return h.analyze(c, c.FormValue("username"))
}

// analyzeUser handles GET /api/v1/users/:username
func (h *ProfileHandler) analyzeUser(c *fiber.Ctx) error {
	return h.analyze(c, c.Params("username"))
}

func (h *ProfileHandler) analyze(c *fiber.Ctx, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Username is required"})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	result, err := h.aggregator.Aggregate(ctx, username)
	if err != nil {
		h.logger.Printf("Handler: analysis of %s failed: %v", username, err)
		var aggErr *domain.AggregationError
		if errors.As(err, &aggErr) {
			return c.Status(statusFor(aggErr.Kind)).JSON(aggErr)
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(result)
}

// statusFor maps an aggregation failure to a response status.
func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.UserNotFound:
		return fiber.StatusNotFound
	case domain.AuthenticationFailed:
		return fiber.StatusInternalServerError
	case domain.UpstreamError:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
