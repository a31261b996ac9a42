package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"supplement-catalog-service/internal/app/service"
	"supplement-catalog-service/internal/transport/httpserver/dto"
)

// AdminHandler handles admin-related HTTP requests.
type AdminHandler struct {
	reviews *service.ReviewService
	logger  *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(reviews *service.ReviewService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		reviews: reviews,
		logger:  logger,
	}
}

// TriggerAudit handles POST /api/v1/admin/audit
func (h *AdminHandler) TriggerAudit(c *fiber.Ctx) error {
	h.logger.Info("manual counter audit triggered")

	result, err := h.reviews.ReconcileAll(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: err.Error(),
			Code:  "AUDIT_FAILED",
		})
	}

	return c.JSON(dto.FromAuditResult(result))
}
