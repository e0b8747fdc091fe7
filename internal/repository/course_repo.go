package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/sala-api/internal/models"
)

// CourseFilter narrows course listings.
type CourseFilter struct {
	SchoolYearID uint
	Grade        int
	Search       string
}

// CourseRepository persists courses.
type CourseRepository interface {
	List(ctx context.Context, filter CourseFilter) ([]models.Course, error)
	GetByID(ctx context.Context, id uint) (models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id uint) error
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository constructs the course repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) withTeachers(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Teacher1").Preload("Teacher2").Preload("Teacher3")
}

func (r *courseRepository) List(ctx context.Context, filter CourseFilter) ([]models.Course, error) {
	query := r.withTeachers(ctx).Model(&models.Course{})
	if filter.SchoolYearID > 0 {
		query = query.Where("school_year_id = ?", filter.SchoolYearID)
	}
	if filter.Grade > 0 {
		query = query.Where("grade = ?", filter.Grade)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("LOWER(course_name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var courses []models.Course
	if err := query.Order("grade ASC, section ASC, id ASC").Find(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepository) GetByID(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	if err := r.withTeachers(ctx).First(&course, id).Error; err != nil {
		return models.Course{}, err
	}
	return course, nil
}

func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(course).Error
}

func (r *courseRepository) Update(ctx context.Context, course *models.Course) error {
	result := r.db.WithContext(ctx).Model(&models.Course{}).
		Where("id = ?", course.ID).
		Select("school_year_id", "grade", "section", "course_name", "teacher_id1", "teacher_id2", "teacher_id3").
		Updates(map[string]interface{}{
			"school_year_id": course.SchoolYearID,
			"grade":          course.Grade,
			"section":        course.Section,
			"course_name":    course.CourseName,
			"teacher_id1":    course.TeacherID1,
			"teacher_id2":    course.TeacherID2,
			"teacher_id3":    course.TeacherID3,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *courseRepository) Delete(ctx context.Context, id uint) error {
	return deleteByID(ctx, r.db, &models.Course{}, id)
}
