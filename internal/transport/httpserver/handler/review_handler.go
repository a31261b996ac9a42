package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"supplement-catalog-service/internal/app/service"
	"supplement-catalog-service/internal/domain"
	"supplement-catalog-service/internal/transport/httpserver/dto"
	"supplement-catalog-service/internal/transport/httpserver/middleware"
	"supplement-catalog-service/internal/validator"
)

// ReviewHandler handles review listing and submission requests.
type ReviewHandler struct {
	service   *service.ReviewService
	validator *validator.Validator
	logger    *zap.Logger
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(svc *service.ReviewService, v *validator.Validator, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{
		service:   svc,
		validator: v,
		logger:    logger,
	}
}

// List handles GET /api/v1/catalog/:id/reviews
func (h *ReviewHandler) List(c *fiber.Ctx) error {
	entryID := c.Params("id")

	reviews, err := h.service.List(c.Context(), entryID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: "entry not found",
				Code:  "NOT_FOUND",
			})
		}

		h.logger.Error("list reviews failed", zap.String("entry_id", entryID), zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "failed to list reviews",
			Code:  "INTERNAL_ERROR",
		})
	}

	return c.JSON(dto.FromDomainReviews(reviews))
}

// Submit handles POST /api/v1/catalog/:id/reviews
func (h *ReviewHandler) Submit(c *fiber.Ctx) error {
	entryID := c.Params("id")

	identity := middleware.IdentityFromCtx(c)
	if identity == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: "authentication required",
			Code:  "UNAUTHORIZED",
		})
	}

	var req dto.SubmitReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_BODY",
		})
	}

	if err := h.validator.Validate(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   "validation failed",
			Code:    "VALIDATION_ERROR",
			Details: err,
		})
	}

	review, err := h.service.Submit(c.Context(), entryID, identity.Nickname, req.Rating, req.Text)
	if err != nil {
		return h.submitError(c, entryID, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.FromDomainReview(review))
}

func (h *ReviewHandler) submitError(c *fiber.Ctx, entryID string, err error) error {
	switch {
	case domain.IsValidation(err):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: err.Error(),
			Code:  "VALIDATION_ERROR",
		})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: "entry not found",
			Code:  "NOT_FOUND",
		})
	case errors.Is(err, domain.ErrConflictExhausted):
		h.logger.Warn("review submission lost all transaction attempts",
			zap.String("entry_id", entryID),
		)

		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Error: "too many concurrent submissions, try again",
			Code:  "CONFLICT_EXHAUSTED",
		})
	default:
		h.logger.Error("review submission failed",
			zap.String("entry_id", entryID),
			zap.Error(err),
		)

		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "failed to submit review",
			Code:  "INTERNAL_ERROR",
		})
	}
}
