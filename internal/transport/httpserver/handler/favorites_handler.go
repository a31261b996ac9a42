package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"supplement-catalog-service/internal/app/service"
	"supplement-catalog-service/internal/transport/httpserver/dto"
	"supplement-catalog-service/internal/transport/httpserver/middleware"
)

// FavoritesHandler handles favorite toggling and listing requests.
type FavoritesHandler struct {
	service *service.FavoritesService
	logger  *zap.Logger
}

// NewFavoritesHandler creates a new FavoritesHandler.
func NewFavoritesHandler(svc *service.FavoritesService, logger *zap.Logger) *FavoritesHandler {
	return &FavoritesHandler{
		service: svc,
		logger:  logger,
	}
}

// Toggle handles POST /api/v1/users/favorites/:entryId
func (h *FavoritesHandler) Toggle(c *fiber.Ctx) error {
	identity := middleware.IdentityFromCtx(c)
	if identity == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: "authentication required",
			Code:  "UNAUTHORIZED",
		})
	}

	entryID := c.Params("entryId")
	if entryID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "entry id is required",
			Code:  "MISSING_ID",
		})
	}

	favorite, err := h.service.Toggle(c.Context(), identity.UID, entryID)
	if err != nil {
		h.logger.Error("favorite toggle failed",
			zap.String("uid", identity.UID),
			zap.String("entry_id", entryID),
			zap.Error(err),
		)

		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "failed to toggle favorite",
			Code:  "INTERNAL_ERROR",
		})
	}

	return c.JSON(dto.ToggleFavoriteResponse{
		EntryID:  entryID,
		Favorite: favorite,
	})
}

// List handles GET /api/v1/users/favorites
func (h *FavoritesHandler) List(c *fiber.Ctx) error {
	identity := middleware.IdentityFromCtx(c)
	if identity == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: "authentication required",
			Code:  "UNAUTHORIZED",
		})
	}

	entries, err := h.service.List(c.Context(), identity.UID)
	if err != nil {
		h.logger.Error("favorites list failed",
			zap.String("uid", identity.UID),
			zap.Error(err),
		)

		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "failed to list favorites",
			Code:  "INTERNAL_ERROR",
		})
	}

	out := make([]dto.EntryResponse, len(entries))
	for i, e := range entries {
		out[i] = dto.FromDomainEntry(e)
	}

	return c.JSON(dto.FavoritesResponse{Entries: out, Total: len(out)})
}
