// Package handler provides HTTP handlers for the API.
package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"supplement-catalog-service/internal/app/service"
	"supplement-catalog-service/internal/domain"
	"supplement-catalog-service/internal/transport/httpserver/dto"
	"supplement-catalog-service/internal/validator"
)

// CatalogHandler handles catalog search and lookup requests.
type CatalogHandler struct {
	service   *service.SearchService
	validator *validator.Validator
	logger    *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(svc *service.SearchService, v *validator.Validator, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		service:   svc,
		validator: v,
		logger:    logger,
	}
}

// Search handles GET /api/v1/catalog
func (h *CatalogHandler) Search(c *fiber.Ctx) error {
	var req dto.SearchRequest
	if err := c.QueryParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid query parameters",
			Code:  "INVALID_PARAMS",
		})
	}

	if err := h.validator.Validate(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   "validation failed",
			Code:    "VALIDATION_ERROR",
			Details: err,
		})
	}

	if bad := req.InvalidFlavors(); len(bad) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   "unknown flavor bucket: " + strings.Join(bad, ", "),
			Code:    "VALIDATION_ERROR",
			Details: bad,
		})
	}

	sel := req.ToSelection()
	// Supersede tracking is scoped to the caller: only requests carrying
	// the same X-Client-Id can cancel each other.
	sel.ClientID = c.Get("X-Client-Id")

	result, err := h.service.Search(c.Context(), sel)
	if err != nil {
		// A superseded search means the same client issued a newer
		// request that owns the response cycle.
		if errors.Is(err, domain.ErrSearchSuperseded) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: "search superseded by a newer request",
				Code:  "SEARCH_SUPERSEDED",
			})
		}

		h.logger.Error("search failed", zap.Error(err))

		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
			Error: "catalog unavailable",
			Code:  "CATALOG_UNAVAILABLE",
		})
	}

	return c.JSON(dto.FromSearchResult(result))
}

// GetByID handles GET /api/v1/catalog/:id
func (h *CatalogHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "id is required",
			Code:  "MISSING_ID",
		})
	}

	entry, err := h.service.GetEntry(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: "entry not found",
				Code:  "NOT_FOUND",
			})
		}

		h.logger.Error("get entry failed", zap.String("id", id), zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "failed to get entry",
			Code:  "INTERNAL_ERROR",
		})
	}

	return c.JSON(dto.FromDomainEntry(entry))
}
