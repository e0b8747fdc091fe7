package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/sala-api/internal/models"
)

// StudentFilter defines filters for listing students.
type StudentFilter struct {
	Search   string
	Class    string
	Status   string
	Page     int
	PageSize int
}

// EnrolledStudent is a student row joined with its enrollment.
type EnrolledStudent struct {
	StudentID    uint
	Name         string
	LatinName    string
	Gender       string
	EnrollmentID uint
	CourseID     uint
}

// StudentRepository provides access to student records and their family data.
type StudentRepository interface {
	List(ctx context.Context, filter StudentFilter) ([]models.Student, int64, error)
	GetByID(ctx context.Context, id uint) (models.Student, error)
	Register(ctx context.Context, student *models.Student, courseID *uint) error
	Update(ctx context.Context, id uint, updates map[string]interface{}) (models.Student, error)
	Delete(ctx context.Context, id uint) error
	AddGuardian(ctx context.Context, guardian *models.Guardian) error
	ListEnrolled(ctx context.Context, schoolYearID, courseID uint) ([]EnrolledStudent, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) List(ctx context.Context, filter StudentFilter) ([]models.Student, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Student{})

	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(latin_name) LIKE ?", like, like)
	}
	if filter.Class != "" {
		query = query.Where("class = ?", filter.Class)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("name ASC, id ASC")
	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Limit(filter.PageSize).Offset((page - 1) * filter.PageSize)
	}

	var students []models.Student
	if err := query.Find(&students).Error; err != nil {
		return nil, 0, err
	}

	return students, total, nil
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).
		Preload("Family").
		Preload("Guardians", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&student, id).Error
	if err != nil {
		return models.Student{}, err
	}
	return student, nil
}

// Register stores the student with family and guardians, and the optional
// first enrollment, in one transaction.
func (r *studentRepository) Register(ctx context.Context, student *models.Student, courseID *uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(student).Error; err != nil {
			return err
		}
		if courseID == nil {
			return nil
		}
		enrollment := models.Enrollment{
			StudentID:  student.ID,
			CourseID:   *courseID,
			EnrolledAt: time.Now().UTC(),
		}
		return tx.Omit(clause.Associations).Create(&enrollment).Error
	})
}

func (r *studentRepository) Update(ctx context.Context, id uint, updates map[string]interface{}) (models.Student, error) {
	result := r.db.WithContext(ctx).Model(&models.Student{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return models.Student{}, result.Error
	}
	return r.GetByID(ctx, id)
}

func (r *studentRepository) Delete(ctx context.Context, id uint) error {
	return deleteByID(ctx, r.db, &models.Student{}, id)
}

func (r *studentRepository) AddGuardian(ctx context.Context, guardian *models.Guardian) error {
	return r.db.WithContext(ctx).Create(guardian).Error
}

func (r *studentRepository) ListEnrolled(ctx context.Context, schoolYearID, courseID uint) ([]EnrolledStudent, error) {
	query := r.db.WithContext(ctx).
		Table("enrollments").
		Select("students.id AS student_id, students.name, students.latin_name, students.gender, enrollments.id AS enrollment_id, enrollments.course_id").
		Joins("JOIN students ON students.id = enrollments.student_id AND students.deleted_at IS NULL").
		Joins("JOIN courses ON courses.id = enrollments.course_id").
		Where("enrollments.dropped = ?", false)

	if courseID > 0 {
		query = query.Where("enrollments.course_id = ?", courseID)
	}
	if schoolYearID > 0 {
		query = query.Where("courses.school_year_id = ?", schoolYearID)
	}

	var rows []EnrolledStudent
	if err := query.Order("students.name ASC, students.id ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// EnrollmentRepository persists course enrollments.
type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	SetDropped(ctx context.Context, id uint, dropped bool) (models.Enrollment, error)
}

type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository constructs the enrollment repository.
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(enrollment).Error
}

func (r *enrollmentRepository) SetDropped(ctx context.Context, id uint, dropped bool) (models.Enrollment, error) {
	result := r.db.WithContext(ctx).Model(&models.Enrollment{}).Where("id = ?", id).Update("dropped", dropped)
	if result.Error != nil {
		return models.Enrollment{}, result.Error
	}
	if result.RowsAffected == 0 {
		return models.Enrollment{}, gorm.ErrRecordNotFound
	}

	var enrollment models.Enrollment
	if err := r.db.WithContext(ctx).First(&enrollment, id).Error; err != nil {
		return models.Enrollment{}, err
	}
	return enrollment, nil
}
