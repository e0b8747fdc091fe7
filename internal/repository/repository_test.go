package repository

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/sala-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func seedCourse(t *testing.T, db *gorm.DB, grade int) (models.SchoolYear, models.Course) {
	t.Helper()
	year := models.SchoolYear{Code: fmt.Sprintf("20%02d-20%02d", grade+10, grade+11)}
	require.NoError(t, db.Create(&year).Error)
	course := models.Course{SchoolYearID: year.ID, Grade: grade, Section: "A", CourseName: fmt.Sprintf("ថ្នាក់ទី %d A", grade)}
	require.NoError(t, db.Omit("SchoolYear").Create(&course).Error)
	return year, course
}
