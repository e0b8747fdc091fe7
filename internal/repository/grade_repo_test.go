package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/sala-api/internal/models"
)

func TestGradeRepositoryCRUDAndEntries(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGradeRepository(db)
	ctx := context.Background()
	year, course := seedCourse(t, db, 8)

	subject := models.Subject{Name: "គណិតវិទ្យា"}
	require.NoError(t, db.Create(&subject).Error)
	student := models.Student{Name: "សុខ ដារា", Gender: "male"}
	require.NoError(t, db.Create(&student).Error)

	grade := models.Grade{StudentID: student.ID, SubjectID: subject.ID, CourseID: course.ID, SemesterID: 1, Score: 42.5, GradeDate: "03/25"}
	require.NoError(t, repo.Create(ctx, &grade))

	found, err := repo.FindByKey(ctx, GradeKey{StudentID: student.ID, SubjectID: subject.ID, CourseID: course.ID, SemesterID: 1, GradeDate: "03/25"})
	require.NoError(t, err)
	require.Equal(t, grade.ID, found.ID)

	_, err = repo.FindByKey(ctx, GradeKey{StudentID: student.ID, SubjectID: subject.ID, CourseID: course.ID, SemesterID: 1, GradeDate: "04/25"})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	grade.Score = 45
	grade.Comment = "improved"
	require.NoError(t, repo.Update(ctx, &grade))

	loaded, err := repo.GetByID(ctx, grade.ID)
	require.NoError(t, err)
	require.Equal(t, 45.0, loaded.Score)
	require.Equal(t, "សុខ ដារា", loaded.Student.Name)
	require.Equal(t, "គណិតវិទ្យា", loaded.Subject.Name)

	grades, err := repo.List(ctx, GradeFilter{CourseID: course.ID})
	require.NoError(t, err)
	require.Len(t, grades, 1)

	entries, err := repo.Entries(ctx, GradeFilter{SchoolYearID: year.ID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "សុខ ដារា", entries[0].StudentName)
	require.Equal(t, 8, entries[0].GradeLevel)
	require.Equal(t, 45.0, entries[0].Score)

	entries, err = repo.Entries(ctx, GradeFilter{SchoolYearID: year.ID + 100})
	require.NoError(t, err)
	require.Empty(t, entries)

	require.NoError(t, repo.Delete(ctx, grade.ID))
	require.ErrorIs(t, repo.Delete(ctx, grade.ID), gorm.ErrRecordNotFound)

	missing := models.Grade{ID: 999, Score: 1}
	require.ErrorIs(t, repo.Update(ctx, &missing), gorm.ErrRecordNotFound)
}
