package handler

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sala-api/internal/dto"
	"github.com/noah-isme/sala-api/internal/service"
	"github.com/noah-isme/sala-api/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GradeHandler exposes grade record endpoints and statistics.
type GradeHandler struct {
	service    service.GradeService
	statistics service.GradeStatisticsService
	logger     zerolog.Logger
}

// NewGradeHandler constructs the handler.
func NewGradeHandler(service service.GradeService, statistics service.GradeStatisticsService, logger zerolog.Logger) *GradeHandler {
	return &GradeHandler{
		service:    service,
		statistics: statistics,
		logger:     logger.With().Str("component", "grade_handler").Logger(),
	}
}

// Register attaches grade routes to the router group. Updates carry the id
// in the body and deletes take it from the gradeId query parameter.
func (h *GradeHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Put("", h.update)
	router.Delete("", h.delete)
	router.Get("/statistics", h.stats)
}

func (h *GradeHandler) list(c *fiber.Ctx) error {
	var req dto.GradeListRequest
	for key, target := range map[string]*uint{
		"studentId":    &req.StudentID,
		"courseId":     &req.CourseID,
		"semesterId":   &req.SemesterID,
		"subjectId":    &req.SubjectID,
		"schoolYearId": &req.SchoolYearID,
	} {
		value, err := parseQueryUint(c, key)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		*target = value
	}

	grades, err := h.service.List(c.UserContext(), req)
	if err != nil {
		return sendServiceError(c, h.logger, err, "list grades")
	}
	return utils.SendSuccess(c, "grades retrieved", grades)
}

func (h *GradeHandler) create(c *fiber.Ctx) error {
	var payload dto.GradeCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidPayload(c)
	}

	grade, err := h.service.Create(c.UserContext(), payload, activityActorFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "create grade")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "grade created", grade)
}

func (h *GradeHandler) update(c *fiber.Ctx) error {
	var payload dto.GradeUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidPayload(c)
	}

	grade, err := h.service.Update(c.UserContext(), payload, activityActorFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "update grade")
	}
	return utils.SendSuccess(c, "grade updated", grade)
}

func (h *GradeHandler) delete(c *fiber.Ctx) error {
	id, err := parseQueryUint(c, "gradeId")
	if err != nil || id == 0 {
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", map[string]string{"gradeId": "is required"})
	}

	if err := h.service.Delete(c.UserContext(), id, activityActorFromContext(c)); err != nil {
		return sendServiceError(c, h.logger, err, "delete grade")
	}
	return utils.SendSuccess(c, "grade deleted", fiber.Map{"id": id})
}

func (h *GradeHandler) stats(c *fiber.Ctx) error {
	var req dto.GradeStatisticsRequest
	for key, target := range map[string]*uint{
		"schoolYearId": &req.SchoolYearID,
		"courseId":     &req.CourseID,
		"semesterId":   &req.SemesterID,
	} {
		value, err := parseQueryUint(c, key)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		*target = value
	}

	stats, err := h.statistics.Statistics(c.UserContext(), req)
	if err != nil {
		return sendServiceError(c, h.logger, err, "compute grade statistics")
	}
	return utils.SendSuccess(c, "grade statistics", stats)
}

// GradeWorkbookHandler serves the Excel template export and its re-import.
type GradeWorkbookHandler struct {
	templates service.GradeTemplateService
	imports   service.GradeImportService
	logger    zerolog.Logger
}

// NewGradeWorkbookHandler constructs the handler.
func NewGradeWorkbookHandler(templates service.GradeTemplateService, imports service.GradeImportService, logger zerolog.Logger) *GradeWorkbookHandler {
	return &GradeWorkbookHandler{
		templates: templates,
		imports:   imports,
		logger:    logger.With().Str("component", "grade_workbook_handler").Logger(),
	}
}

// Register attaches the workbook routes. Callers may put a limiter in front.
func (h *GradeWorkbookHandler) Register(router fiber.Router, limit ...fiber.Handler) {
	router.Get("/template-excel", append(limit, h.template)...)
	router.Post("/import-excel", append(limit, h.importWorkbook)...)
}

func (h *GradeWorkbookHandler) template(c *fiber.Ctx) error {
	var req dto.GradeTemplateRequest
	for key, target := range map[string]*uint{
		"courseId":     &req.CourseID,
		"semesterId":   &req.SemesterID,
		"schoolYearId": &req.SchoolYearID,
	} {
		value, err := parseQueryUint(c, key)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		*target = value
	}

	subjectIDs, err := parseUintList(c.Query("subjectIds"))
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", map[string]string{"subjectIds": err.Error()})
	}
	req.SubjectIDs = subjectIDs

	if req.Month, err = parseQueryInt(c, "month"); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid month")
	}
	if req.Year, err = parseQueryInt(c, "year"); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid year")
	}

	file, err := h.templates.Generate(c.UserContext(), req)
	if err != nil {
		return sendServiceError(c, h.logger, err, "generate grade template")
	}

	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, file.Filename))
	return c.Status(fiber.StatusOK).Send(file.Content)
}

func (h *GradeWorkbookHandler) importWorkbook(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	result, err := h.imports.Import(c.UserContext(), file, activityActorFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "import grades")
	}
	return utils.SendSuccess(c, result.Message, result)
}
