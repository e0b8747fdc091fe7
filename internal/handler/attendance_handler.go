package handler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sala-api/internal/dto"
	"github.com/noah-isme/sala-api/internal/service"
	"github.com/noah-isme/sala-api/internal/utils"
)

// ReportRowsHeader tells clients how many students the rendered report lists.
const ReportRowsHeader = "X-Report-Rows"

// AttendanceHandler exposes attendance marks and the PDF report.
type AttendanceHandler struct {
	service service.AttendanceService
	reports service.AttendanceReportService
	logger  zerolog.Logger
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(service service.AttendanceService, reports service.AttendanceReportService, logger zerolog.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		service: service,
		reports: reports,
		logger:  logger.With().Str("component", "attendance_handler").Logger(),
	}
}

// Register attaches attendance routes to the router group.
func (h *AttendanceHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.record)
}

// RegisterReports attaches the report route. Callers may put a limiter in front.
func (h *AttendanceHandler) RegisterReports(router fiber.Router, limit ...fiber.Handler) {
	router.Post("/generate-attendance-report", append(limit, h.report)...)
}

func (h *AttendanceHandler) list(c *fiber.Ctx) error {
	courseID, err := parseQueryUint(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	studentID, err := parseQueryUint(c, "studentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	req := dto.AttendanceListRequest{CourseID: courseID, StudentID: studentID}
	details := map[string]string{}
	if date := strings.TrimSpace(c.Query("date")); date != "" {
		day, err := time.Parse("2006-01-02", date)
		if err != nil {
			details["date"] = "must be a YYYY-MM-DD date"
		}
		req.From, req.To = day, day
	} else {
		for key, target := range map[string]*time.Time{"from": &req.From, "to": &req.To} {
			value := strings.TrimSpace(c.Query(key))
			if value == "" {
				continue
			}
			parsed, err := time.Parse("2006-01-02", value)
			if err != nil {
				details[key] = "must be a YYYY-MM-DD date"
				continue
			}
			*target = parsed
		}
	}
	if len(details) > 0 {
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", details)
	}

	rows, err := h.service.List(c.UserContext(), req)
	if err != nil {
		return sendServiceError(c, h.logger, err, "list attendance")
	}
	return utils.SendSuccess(c, "attendance retrieved", rows)
}

func (h *AttendanceHandler) record(c *fiber.Ctx) error {
	var payload dto.AttendanceBulkRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidPayload(c)
	}

	rows, err := h.service.Record(c.UserContext(), payload, activityActorFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, "record attendance")
	}
	return utils.SendSuccess(c, "attendance recorded", rows)
}

func (h *AttendanceHandler) report(c *fiber.Ctx) error {
	var payload dto.AttendanceReportRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidPayload(c)
	}

	file, err := h.reports.Generate(c.UserContext(), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "generate attendance report")
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, file.Filename))
	c.Set(ReportRowsHeader, strconv.Itoa(file.Rows))
	return c.Status(fiber.StatusOK).Send(file.Content)
}
