package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sala-api/internal/dto"
	"github.com/noah-isme/sala-api/internal/service"
	"github.com/noah-isme/sala-api/internal/utils"
)

// AdminActivityHandler exposes the audit trail of admin mutations.
type AdminActivityHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewAdminActivityHandler constructs the handler.
func NewAdminActivityHandler(service service.ActivityService, logger zerolog.Logger) *AdminActivityHandler {
	return &AdminActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_activity_handler").Logger(),
	}
}

// Register attaches activity log routes to the router group.
func (h *AdminActivityHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

func (h *AdminActivityHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	if page <= 0 {
		page = 1
	}

	pageSize, err := parseQueryInt(c, "pageSize")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page size")
	}
	if pageSize <= 0 {
		pageSize = 25
	} else if pageSize > 200 {
		pageSize = 200
	}

	req := dto.AdminActivityListRequest{
		Page:       page,
		PageSize:   pageSize,
		Action:     c.Query("action"),
		EntityType: c.Query("entityType"),
	}
	details := map[string]string{}
	for key, target := range map[string]*uint{"actorId": &req.ActorID, "entityId": &req.EntityID} {
		if *target, err = parseQueryUint(c, key); err != nil {
			details[key] = "must be a positive number"
		}
	}
	for key, target := range map[string]**time.Time{"from": &req.From, "to": &req.To} {
		if *target, err = parseQueryDate(c, key); err != nil {
			details[key] = "must be a YYYY-MM-DD date"
		}
	}
	if len(details) > 0 {
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", details)
	}

	response, err := h.service.List(c.UserContext(), req)
	if err != nil {
		return sendServiceError(c, h.logger, err, "list activity logs")
	}

	return utils.SendSuccess(c, "activity logs", response)
}
