package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sala-api/internal/dto"
	"github.com/noah-isme/sala-api/internal/service"
	"github.com/noah-isme/sala-api/internal/utils"
)

// SchoolYearHandler exposes school year endpoints.
type SchoolYearHandler struct {
	service service.SchoolYearService
	logger  zerolog.Logger
}

// NewSchoolYearHandler constructs the handler.
func NewSchoolYearHandler(service service.SchoolYearService, logger zerolog.Logger) *SchoolYearHandler {
	return &SchoolYearHandler{
		service: service,
		logger:  logger.With().Str("component", "school_year_handler").Logger(),
	}
}

// Register attaches school year routes to the router group.
func (h *SchoolYearHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Delete("/:id", h.delete)
}

func (h *SchoolYearHandler) list(c *fiber.Ctx) error {
	years, err := h.service.List(c.UserContext())
	if err != nil {
		return sendServiceError(c, h.logger, err, "list school years")
	}
	return utils.SendSuccess(c, "school years retrieved", years)
}

func (h *SchoolYearHandler) create(c *fiber.Ctx) error {
	var payload dto.SchoolYearCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidPayload(c)
	}

	year, err := h.service.Create(c.UserContext(), payload, activityActorFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "create school year")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "school year created", year)
}

func (h *SchoolYearHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return invalidIdentifier(c)
	}

	if err := h.service.Delete(c.UserContext(), id, activityActorFromContext(c)); err != nil {
		return sendServiceError(c, h.logger, err, "delete school year")
	}
	return utils.SendSuccess(c, "school year deleted", fiber.Map{"id": id})
}

// SemesterHandler exposes semester endpoints.
type SemesterHandler struct {
	service service.SemesterService
	logger  zerolog.Logger
}

// NewSemesterHandler constructs the handler.
func NewSemesterHandler(service service.SemesterService, logger zerolog.Logger) *SemesterHandler {
	return &SemesterHandler{
		service: service,
		logger:  logger.With().Str("component", "semester_handler").Logger(),
	}
}

// Register attaches semester routes to the router group.
func (h *SemesterHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Delete("/:id", h.delete)
}

func (h *SemesterHandler) list(c *fiber.Ctx) error {
	schoolYearID, err := parseQueryUint(c, "schoolYearId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	semesters, err := h.service.List(c.UserContext(), schoolYearID)
	if err != nil {
		return sendServiceError(c, h.logger, err, "list semesters")
	}
	return utils.SendSuccess(c, "semesters retrieved", semesters)
}

func (h *SemesterHandler) create(c *fiber.Ctx) error {
	var payload dto.SemesterCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidPayload(c)
	}

	semester, err := h.service.Create(c.UserContext(), payload, activityActorFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "create semester")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "semester created", semester)
}

func (h *SemesterHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return invalidIdentifier(c)
	}

	if err := h.service.Delete(c.UserContext(), id, activityActorFromContext(c)); err != nil {
		return sendServiceError(c, h.logger, err, "delete semester")
	}
	return utils.SendSuccess(c, "semester deleted", fiber.Map{"id": id})
}

// SubjectHandler exposes subject endpoints.
type SubjectHandler struct {
	service service.SubjectService
	logger  zerolog.Logger
}

// NewSubjectHandler constructs the handler.
func NewSubjectHandler(service service.SubjectService, logger zerolog.Logger) *SubjectHandler {
	return &SubjectHandler{
		service: service,
		logger:  logger.With().Str("component", "subject_handler").Logger(),
	}
}

// Register attaches subject routes to the router group.
func (h *SubjectHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Delete("/:id", h.delete)
}

func (h *SubjectHandler) list(c *fiber.Ctx) error {
	subjects, err := h.service.List(c.UserContext())
	if err != nil {
		return sendServiceError(c, h.logger, err, "list subjects")
	}
	return utils.SendSuccess(c, "subjects retrieved", subjects)
}

func (h *SubjectHandler) create(c *fiber.Ctx) error {
	var payload dto.SubjectCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidPayload(c)
	}

	subject, err := h.service.Create(c.UserContext(), payload, activityActorFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "create subject")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "subject created", subject)
}

func (h *SubjectHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return invalidIdentifier(c)
	}

	if err := h.service.Delete(c.UserContext(), id, activityActorFromContext(c)); err != nil {
		return sendServiceError(c, h.logger, err, "delete subject")
	}
	return utils.SendSuccess(c, "subject deleted", fiber.Map{"id": id})
}
