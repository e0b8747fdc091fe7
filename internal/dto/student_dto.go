package dto

import (
	"time"

	"github.com/noah-isme/sala-api/internal/models"
)

// StudentListRequest defines filters for listing students.
type StudentListRequest struct {
	Page     int
	PageSize int
	Search   string
	Class    string
	Status   string
}

// GuardianRequest captures a guardian.
type GuardianRequest struct {
	Name          string  `json:"name" validate:"required,max=255"`
	Relation      string  `json:"relation" validate:"required,max=64"`
	Phone         string  `json:"phone" validate:"max=32"`
	Occupation    string  `json:"occupation" validate:"max=128"`
	Address       string  `json:"address" validate:"max=512"`
	MonthlyIncome float64 `json:"monthlyIncome" validate:"gte=0"`
}

// FamilyRequest captures the household survey.
type FamilyRequest struct {
	LivingWith string          `json:"livingWith" validate:"max=64"`
	OwnHouse   bool            `json:"ownHouse"`
	Religion   string          `json:"religion" validate:"max=64"`
	Support    map[string]bool `json:"support" validate:"omitempty,dive,keys,required,endkeys"`
}

// StudentCreateRequest is the multi-tab registration payload.
type StudentCreateRequest struct {
	Name      string            `json:"name" validate:"required,max=255"`
	LatinName string            `json:"latinName" validate:"max=255"`
	Gender    string            `json:"gender" validate:"required,oneof=male female"`
	DOB       string            `json:"dob" validate:"omitempty,datetime=2006-01-02"`
	Class     string            `json:"class" validate:"max=64"`
	Status    string            `json:"status" validate:"omitempty,oneof=active inactive graduated"`
	Phone     string            `json:"phone" validate:"max=32"`
	Photo     string            `json:"photo" validate:"max=512"`
	Village   string            `json:"village" validate:"max=128"`
	Commune   string            `json:"commune" validate:"max=128"`
	District  string            `json:"district" validate:"max=128"`
	Province  string            `json:"province" validate:"max=128"`
	Family    *FamilyRequest    `json:"family"`
	Guardians []GuardianRequest `json:"guardians" validate:"omitempty,dive"`
	CourseID  *uint             `json:"courseId"`
}

// StudentUpdateRequest patches student fields.
type StudentUpdateRequest struct {
	Name      *string `json:"name" validate:"omitempty,min=1,max=255"`
	LatinName *string `json:"latinName" validate:"omitempty,max=255"`
	Gender    *string `json:"gender" validate:"omitempty,oneof=male female"`
	DOB       *string `json:"dob" validate:"omitempty,datetime=2006-01-02"`
	Class     *string `json:"class" validate:"omitempty,max=64"`
	Status    *string `json:"status" validate:"omitempty,oneof=active inactive graduated"`
	Phone     *string `json:"phone" validate:"omitempty,max=32"`
	Photo     *string `json:"photo" validate:"omitempty,max=512"`
	Village   *string `json:"village" validate:"omitempty,max=128"`
	Commune   *string `json:"commune" validate:"omitempty,max=128"`
	District  *string `json:"district" validate:"omitempty,max=128"`
	Province  *string `json:"province" validate:"omitempty,max=128"`
}

// GuardianResponse serializes a guardian.
type GuardianResponse struct {
	ID            uint    `json:"id"`
	StudentID     uint    `json:"studentId"`
	Name          string  `json:"name"`
	Relation      string  `json:"relation"`
	Phone         string  `json:"phone"`
	Occupation    string  `json:"occupation"`
	Address       string  `json:"address"`
	MonthlyIncome float64 `json:"monthlyIncome"`
}

// NewGuardianResponse converts the model.
func NewGuardianResponse(model models.Guardian) GuardianResponse {
	return GuardianResponse{
		ID:            model.ID,
		StudentID:     model.StudentID,
		Name:          model.Name,
		Relation:      model.Relation,
		Phone:         model.Phone,
		Occupation:    model.Occupation,
		Address:       model.Address,
		MonthlyIncome: model.MonthlyIncome,
	}
}

// FamilyResponse serializes the household survey.
type FamilyResponse struct {
	LivingWith string          `json:"livingWith"`
	OwnHouse   bool            `json:"ownHouse"`
	Religion   string          `json:"religion"`
	Support    map[string]bool `json:"support"`
}

// StudentResponse serializes a student with optional family and guardians.
type StudentResponse struct {
	ID        uint               `json:"id"`
	Name      string             `json:"name"`
	LatinName string             `json:"latinName"`
	Gender    string             `json:"gender"`
	DOB       string             `json:"dob,omitempty"`
	Class     string             `json:"class"`
	Status    string             `json:"status"`
	Phone     string             `json:"phone"`
	Photo     string             `json:"photo"`
	Village   string             `json:"village"`
	Commune   string             `json:"commune"`
	District  string             `json:"district"`
	Province  string             `json:"province"`
	Family    *FamilyResponse    `json:"family,omitempty"`
	Guardians []GuardianResponse `json:"guardians"`
	CreatedAt time.Time          `json:"createdAt"`
}

// NewStudentResponse converts the model.
func NewStudentResponse(model models.Student) StudentResponse {
	resp := StudentResponse{
		ID:        model.ID,
		Name:      model.Name,
		LatinName: model.LatinName,
		Gender:    model.Gender,
		Class:     model.Class,
		Status:    model.Status,
		Phone:     model.Phone,
		Photo:     model.Photo,
		Village:   model.Village,
		Commune:   model.Commune,
		District:  model.District,
		Province:  model.Province,
		Guardians: make([]GuardianResponse, 0, len(model.Guardians)),
		CreatedAt: model.CreatedAt,
	}
	if model.DateOfBirth != nil {
		resp.DOB = model.DateOfBirth.Format("2006-01-02")
	}
	if model.Family != nil {
		support := make(map[string]bool, len(model.Family.Support))
		for key, raw := range model.Family.Support {
			if value, ok := raw.(bool); ok {
				support[key] = value
			}
		}
		resp.Family = &FamilyResponse{
			LivingWith: model.Family.LivingWith,
			OwnHouse:   model.Family.OwnHouse,
			Religion:   model.Family.Religion,
			Support:    support,
		}
	}
	for _, g := range model.Guardians {
		resp.Guardians = append(resp.Guardians, NewGuardianResponse(g))
	}
	return resp
}

// StudentListResponse wraps a paginated student response.
type StudentListResponse struct {
	Items      []StudentResponse `json:"items"`
	Pagination PaginationMeta    `json:"pagination"`
}

// EnrolledStudentResponse is a student as listed for a course.
type EnrolledStudentResponse struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	LatinName    string `json:"latinName"`
	Gender       string `json:"gender"`
	EnrollmentID uint   `json:"enrollmentId"`
	CourseID     uint   `json:"courseId"`
}

// EnrollmentRequest enrolls a student in a course.
type EnrollmentRequest struct {
	StudentID uint `json:"studentId" validate:"required"`
	CourseID  uint `json:"courseId" validate:"required"`
}

// EnrollmentDropRequest sets or clears the dropped flag.
type EnrollmentDropRequest struct {
	Dropped *bool `json:"dropped" validate:"required"`
}

// EnrollmentResponse serializes an enrollment.
type EnrollmentResponse struct {
	ID         uint      `json:"id"`
	StudentID  uint      `json:"studentId"`
	CourseID   uint      `json:"courseId"`
	Dropped    bool      `json:"dropped"`
	EnrolledAt time.Time `json:"enrolledAt"`
}

// NewEnrollmentResponse converts the model.
func NewEnrollmentResponse(model models.Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		ID:         model.ID,
		StudentID:  model.StudentID,
		CourseID:   model.CourseID,
		Dropped:    model.Dropped,
		EnrolledAt: model.EnrolledAt,
	}
}
