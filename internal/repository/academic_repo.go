package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/sala-api/internal/models"
)

// SchoolYearRepository persists academic years.
type SchoolYearRepository interface {
	List(ctx context.Context) ([]models.SchoolYear, error)
	GetByID(ctx context.Context, id uint) (models.SchoolYear, error)
	Create(ctx context.Context, year *models.SchoolYear) error
	Delete(ctx context.Context, id uint) error
}

type schoolYearRepository struct {
	db *gorm.DB
}

// NewSchoolYearRepository constructs the school year repository.
func NewSchoolYearRepository(db *gorm.DB) SchoolYearRepository {
	return &schoolYearRepository{db: db}
}

func (r *schoolYearRepository) List(ctx context.Context) ([]models.SchoolYear, error) {
	var years []models.SchoolYear
	if err := r.db.WithContext(ctx).Order("code DESC").Find(&years).Error; err != nil {
		return nil, err
	}
	return years, nil
}

func (r *schoolYearRepository) GetByID(ctx context.Context, id uint) (models.SchoolYear, error) {
	var year models.SchoolYear
	if err := r.db.WithContext(ctx).First(&year, id).Error; err != nil {
		return models.SchoolYear{}, err
	}
	return year, nil
}

func (r *schoolYearRepository) Create(ctx context.Context, year *models.SchoolYear) error {
	return r.db.WithContext(ctx).Create(year).Error
}

func (r *schoolYearRepository) Delete(ctx context.Context, id uint) error {
	return deleteByID(ctx, r.db, &models.SchoolYear{}, id)
}

// SemesterRepository persists semesters.
type SemesterRepository interface {
	List(ctx context.Context, schoolYearID uint) ([]models.Semester, error)
	GetByID(ctx context.Context, id uint) (models.Semester, error)
	Create(ctx context.Context, semester *models.Semester) error
	Delete(ctx context.Context, id uint) error
}

type semesterRepository struct {
	db *gorm.DB
}

// NewSemesterRepository constructs the semester repository.
func NewSemesterRepository(db *gorm.DB) SemesterRepository {
	return &semesterRepository{db: db}
}

func (r *semesterRepository) List(ctx context.Context, schoolYearID uint) ([]models.Semester, error) {
	query := r.db.WithContext(ctx).Model(&models.Semester{})
	if schoolYearID > 0 {
		query = query.Where("school_year_id = ?", schoolYearID)
	}

	var semesters []models.Semester
	if err := query.Order("school_year_id DESC, number ASC").Find(&semesters).Error; err != nil {
		return nil, err
	}
	return semesters, nil
}

func (r *semesterRepository) GetByID(ctx context.Context, id uint) (models.Semester, error) {
	var semester models.Semester
	if err := r.db.WithContext(ctx).First(&semester, id).Error; err != nil {
		return models.Semester{}, err
	}
	return semester, nil
}

func (r *semesterRepository) Create(ctx context.Context, semester *models.Semester) error {
	return r.db.WithContext(ctx).Omit("SchoolYear").Create(semester).Error
}

func (r *semesterRepository) Delete(ctx context.Context, id uint) error {
	return deleteByID(ctx, r.db, &models.Semester{}, id)
}

// SubjectRepository persists subjects.
type SubjectRepository interface {
	List(ctx context.Context) ([]models.Subject, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id uint) error
}

type subjectRepository struct {
	db *gorm.DB
}

// NewSubjectRepository constructs the subject repository.
func NewSubjectRepository(db *gorm.DB) SubjectRepository {
	return &subjectRepository{db: db}
}

func (r *subjectRepository) List(ctx context.Context) ([]models.Subject, error) {
	var subjects []models.Subject
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&subjects).Error; err != nil {
		return nil, err
	}
	return subjects, nil
}

func (r *subjectRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Subject, error) {
	if len(ids) == 0 {
		return []models.Subject{}, nil
	}
	var subjects []models.Subject
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&subjects).Error; err != nil {
		return nil, err
	}
	return subjects, nil
}

func (r *subjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	return r.db.WithContext(ctx).Create(subject).Error
}

func (r *subjectRepository) Delete(ctx context.Context, id uint) error {
	return deleteByID(ctx, r.db, &models.Subject{}, id)
}

// deleteByID removes a row and reports gorm.ErrRecordNotFound when nothing matched.
func deleteByID(ctx context.Context, db *gorm.DB, model interface{}, id uint) error {
	result := db.WithContext(ctx).Delete(model, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
