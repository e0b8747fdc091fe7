package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/sala-api/internal/models"
)

// GradeFilter narrows grade queries. Zero values are ignored.
type GradeFilter struct {
	StudentID    uint
	CourseID     uint
	SemesterID   uint
	SubjectID    uint
	SchoolYearID uint
}

// GradeKey identifies the single grade a workbook row maps to.
type GradeKey struct {
	StudentID  uint
	SubjectID  uint
	CourseID   uint
	SemesterID uint
	GradeDate  string
}

// GradeEntry is the projection used by statistics aggregation.
type GradeEntry struct {
	StudentID   uint
	StudentName string
	CourseID    uint
	SubjectID   uint
	Score       float64
	GradeDate   string
	GradeLevel  int
}

// GradeRepository persists grade records.
type GradeRepository interface {
	List(ctx context.Context, filter GradeFilter) ([]models.Grade, error)
	GetByID(ctx context.Context, id uint) (models.Grade, error)
	FindByKey(ctx context.Context, key GradeKey) (models.Grade, error)
	Create(ctx context.Context, grade *models.Grade) error
	Update(ctx context.Context, grade *models.Grade) error
	Delete(ctx context.Context, id uint) error
	Entries(ctx context.Context, filter GradeFilter) ([]GradeEntry, error)
}

type gradeRepository struct {
	db *gorm.DB
}

// NewGradeRepository constructs the grade repository.
func NewGradeRepository(db *gorm.DB) GradeRepository {
	return &gradeRepository{db: db}
}

func applyGradeFilter(query *gorm.DB, filter GradeFilter) *gorm.DB {
	if filter.StudentID > 0 {
		query = query.Where("grades.student_id = ?", filter.StudentID)
	}
	if filter.CourseID > 0 {
		query = query.Where("grades.course_id = ?", filter.CourseID)
	}
	if filter.SemesterID > 0 {
		query = query.Where("grades.semester_id = ?", filter.SemesterID)
	}
	if filter.SubjectID > 0 {
		query = query.Where("grades.subject_id = ?", filter.SubjectID)
	}
	if filter.SchoolYearID > 0 {
		query = query.Where("grades.course_id IN (?)",
			query.Session(&gorm.Session{NewDB: true}).Model(&models.Course{}).Select("id").Where("school_year_id = ?", filter.SchoolYearID))
	}
	return query
}

func (r *gradeRepository) List(ctx context.Context, filter GradeFilter) ([]models.Grade, error) {
	query := r.db.WithContext(ctx).Model(&models.Grade{}).Preload("Student").Preload("Subject")
	query = applyGradeFilter(query, filter)

	var grades []models.Grade
	if err := query.Order("grades.id ASC").Find(&grades).Error; err != nil {
		return nil, err
	}
	return grades, nil
}

func (r *gradeRepository) GetByID(ctx context.Context, id uint) (models.Grade, error) {
	var grade models.Grade
	if err := r.db.WithContext(ctx).Preload("Student").Preload("Subject").First(&grade, id).Error; err != nil {
		return models.Grade{}, err
	}
	return grade, nil
}

func (r *gradeRepository) FindByKey(ctx context.Context, key GradeKey) (models.Grade, error) {
	var grade models.Grade
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND subject_id = ? AND course_id = ? AND semester_id = ? AND grade_date = ?",
			key.StudentID, key.SubjectID, key.CourseID, key.SemesterID, key.GradeDate).
		First(&grade).Error
	if err != nil {
		return models.Grade{}, err
	}
	return grade, nil
}

func (r *gradeRepository) Create(ctx context.Context, grade *models.Grade) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(grade).Error
}

func (r *gradeRepository) Update(ctx context.Context, grade *models.Grade) error {
	result := r.db.WithContext(ctx).Model(&models.Grade{}).Where("id = ?", grade.ID).Updates(map[string]interface{}{
		"student_id":  grade.StudentID,
		"subject_id":  grade.SubjectID,
		"course_id":   grade.CourseID,
		"semester_id": grade.SemesterID,
		"grade":       grade.Score,
		"grade_date":  grade.GradeDate,
		"comment":     grade.Comment,
		"user_id":     grade.UserID,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *gradeRepository) Delete(ctx context.Context, id uint) error {
	return deleteByID(ctx, r.db, &models.Grade{}, id)
}

func (r *gradeRepository) Entries(ctx context.Context, filter GradeFilter) ([]GradeEntry, error) {
	query := r.db.WithContext(ctx).
		Table("grades").
		Select("grades.student_id, students.name AS student_name, grades.course_id, grades.subject_id, grades.grade AS score, grades.grade_date, courses.grade AS grade_level").
		Joins("JOIN students ON students.id = grades.student_id").
		Joins("JOIN courses ON courses.id = grades.course_id")
	query = applyGradeFilter(query, filter)

	var entries []GradeEntry
	if err := query.Order("grades.course_id ASC, grades.student_id ASC, grades.id ASC").Scan(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
