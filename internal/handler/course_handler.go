package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sala-api/internal/dto"
	"github.com/noah-isme/sala-api/internal/service"
	"github.com/noah-isme/sala-api/internal/utils"
)

// CourseHandler exposes course endpoints including the bulk saga.
type CourseHandler struct {
	service service.CourseService
	logger  zerolog.Logger
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(service service.CourseService, logger zerolog.Logger) *CourseHandler {
	return &CourseHandler{
		service: service,
		logger:  logger.With().Str("component", "course_handler").Logger(),
	}
}

// Register attaches course routes to the router group.
func (h *CourseHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Post("/bulk", h.bulkCreate)
	router.Get("/:id", h.get)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
}

func (h *CourseHandler) list(c *fiber.Ctx) error {
	schoolYearID, err := parseQueryUint(c, "schoolYearId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	grade, err := parseQueryInt(c, "grade")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid grade")
	}

	courses, err := h.service.List(c.UserContext(), dto.CourseListRequest{
		SchoolYearID: schoolYearID,
		Grade:        grade,
		Search:       c.Query("search"),
	})
	if err != nil {
		return sendServiceError(c, h.logger, err, "list courses")
	}
	return utils.SendSuccess(c, "courses retrieved", courses)
}

func (h *CourseHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return invalidIdentifier(c)
	}

	course, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return sendServiceError(c, h.logger, err, "fetch course")
	}
	return utils.SendSuccess(c, "course retrieved", course)
}

func (h *CourseHandler) create(c *fiber.Ctx) error {
	var payload dto.CourseRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidPayload(c)
	}

	course, err := h.service.Create(c.UserContext(), payload, activityActorFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "create course")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "course created", course)
}

func (h *CourseHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return invalidIdentifier(c)
	}

	var payload dto.CourseRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidPayload(c)
	}

	course, err := h.service.Update(c.UserContext(), id, payload, activityActorFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "update course")
	}
	return utils.SendSuccess(c, "course updated", course)
}

func (h *CourseHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return invalidIdentifier(c)
	}

	if err := h.service.Delete(c.UserContext(), id, activityActorFromContext(c)); err != nil {
		return sendServiceError(c, h.logger, err, "delete course")
	}
	return utils.SendSuccess(c, "course deleted", fiber.Map{"id": id})
}

// bulkCreate answers 200 even on partial failure; the result lists which
// grades failed and whether created courses were rolled back.
func (h *CourseHandler) bulkCreate(c *fiber.Ctx) error {
	var payload dto.BulkCourseRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidPayload(c)
	}

	result, err := h.service.BulkCreate(c.UserContext(), payload, activityActorFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "bulk create courses")
	}

	status := fiber.StatusCreated
	if len(result.Failed) > 0 {
		status = fiber.StatusOK
		requestLogger(h.logger, c).Warn().
			Str("saga_id", result.SagaID).
			Int("failed", len(result.Failed)).
			Bool("compensated", result.Compensated).
			Msg("bulk course creation incomplete")
	}
	return utils.SendSuccessWithStatus(c, status, result.Message, result)
}
