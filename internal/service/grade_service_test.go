package service

import (
	"bytes"
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/noah-isme/sala-api/internal/dto"
	"github.com/noah-isme/sala-api/internal/gradesheet"
	"github.com/noah-isme/sala-api/internal/models"
	"github.com/noah-isme/sala-api/internal/repository"
)

type gradeFixture struct {
	db       *gorm.DB
	year     models.SchoolYear
	semester models.Semester
	course   models.Course
	subject  models.Subject
	students []models.Student
	refs     GradeRefs
	grades   repository.GradeRepository
}

func newGradeFixture(t *testing.T, grade int, enrolled int) gradeFixture {
	t.Helper()
	db := setupServiceDB(t)
	year, course := seedSchoolCourse(t, db, grade)

	semester := models.Semester{
		SchoolYearID: year.ID,
		Name:         "ឆមាសទី១",
		Number:       1,
		StartDate:    time.Date(2024, time.November, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Omit("SchoolYear").Create(&semester).Error)

	subject := models.Subject{Name: "គណិតវិទ្យា"}
	require.NoError(t, db.Create(&subject).Error)

	students := make([]models.Student, 0, enrolled)
	for i := 0; i < enrolled; i++ {
		student := models.Student{Name: "សិស្ស " + strconv.Itoa(i+1), Gender: "female"}
		require.NoError(t, db.Create(&student).Error)
		require.NoError(t, db.Omit("Student", "Course").Create(&models.Enrollment{StudentID: student.ID, CourseID: course.ID, EnrolledAt: time.Now()}).Error)
		students = append(students, student)
	}

	return gradeFixture{
		db:       db,
		year:     year,
		semester: semester,
		course:   course,
		subject:  subject,
		students: students,
		refs: GradeRefs{
			Students:  repository.NewStudentRepository(db),
			Subjects:  repository.NewSubjectRepository(db),
			Courses:   repository.NewCourseRepository(db),
			Semesters: repository.NewSemesterRepository(db),
		},
		grades: repository.NewGradeRepository(db),
	}
}

func (f gradeFixture) templateService(now time.Time) GradeTemplateService {
	return NewGradeTemplateService(
		repository.NewSchoolYearRepository(f.db),
		repository.NewSemesterRepository(f.db),
		repository.NewCourseRepository(f.db),
		repository.NewSubjectRepository(f.db),
		repository.NewStudentRepository(f.db),
		dto.NewValidator(),
		GradeTemplateOptions{Password: "secret", Now: func() time.Time { return now }},
		testLogger(),
	)
}

func floatPtr(v float64) *float64 { return &v }

func TestGradeServiceCreateUpdateDelete(t *testing.T) {
	f := newGradeFixture(t, 7, 1)
	events := &recordedEvents{}
	svc := NewGradeService(f.grades, f.refs, dto.NewValidator(), nil, events, testLogger())
	ctx := context.Background()

	payload := dto.GradeCreateRequest{
		StudentID:  f.students[0].ID,
		SubjectID:  f.subject.ID,
		CourseID:   f.course.ID,
		SemesterID: f.semester.ID,
		Grade:      floatPtr(38.5),
		GradeDate:  "03/25",
		Comment:    "<i>good</i>",
	}
	created, err := svc.Create(ctx, payload, ActivityActor{ID: 4, Role: "teacher"})
	require.NoError(t, err)
	require.Equal(t, "03", created.Month)
	require.Equal(t, "2025", created.YearFull)
	require.Equal(t, "good", created.Comment)
	require.Equal(t, f.students[0].Name, created.StudentName)
	require.NotNil(t, created.UserID)

	payload.Grade = floatPtr(41)
	updated, err := svc.Update(ctx, dto.GradeUpdateRequest{ID: created.ID, GradeCreateRequest: payload}, ActivityActor{})
	require.NoError(t, err)
	require.Equal(t, 41.0, updated.Grade)

	list, err := svc.List(ctx, dto.GradeListRequest{StudentID: f.students[0].ID, CourseID: f.course.ID, SemesterID: f.semester.ID})
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, created.ID, ActivityActor{}))
	require.ErrorIs(t, svc.Delete(ctx, created.ID, ActivityActor{}), ErrGradeNotFound)
	require.Equal(t, []string{TopicGradesUpdated, TopicGradesUpdated, TopicGradesUpdated}, events.published())
}

func TestGradeServiceRejectsBadInput(t *testing.T) {
	f := newGradeFixture(t, 7, 1)
	svc := NewGradeService(f.grades, f.refs, dto.NewValidator(), nil, nil, testLogger())
	ctx := context.Background()

	base := dto.GradeCreateRequest{
		StudentID:  f.students[0].ID,
		SubjectID:  f.subject.ID,
		CourseID:   f.course.ID,
		SemesterID: f.semester.ID,
		Grade:      floatPtr(10),
		GradeDate:  "2025-03",
	}
	_, err := svc.Create(ctx, base, ActivityActor{})
	require.Error(t, err, "ISO dates are not accepted for new grades")

	base.GradeDate = "03/25"
	base.SubjectID = 999
	_, err = svc.Create(ctx, base, ActivityActor{})
	require.ErrorIs(t, err, ErrSubjectNotFound)

	base.SubjectID = f.subject.ID
	base.CourseID = 999
	_, err = svc.Create(ctx, base, ActivityActor{})
	require.ErrorIs(t, err, ErrCourseNotFound)

	base.CourseID = f.course.ID
	_, err = svc.Update(ctx, dto.GradeUpdateRequest{ID: 999, GradeCreateRequest: base}, ActivityActor{})
	require.ErrorIs(t, err, ErrGradeNotFound)
}

func TestGradeStatisticsServiceCachesUntilGradesChange(t *testing.T) {
	f := newGradeFixture(t, 7, 2)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()

	for i, score := range []float64{28, 42} {
		require.NoError(t, f.grades.Create(ctx, &models.Grade{StudentID: f.students[i].ID, SubjectID: f.subject.ID, CourseID: f.course.ID, SemesterID: f.semester.ID, Score: score, GradeDate: "02/25"}))
	}
	require.NoError(t, f.grades.Create(ctx, &models.Grade{StudentID: f.students[0].ID, SubjectID: f.subject.ID, CourseID: f.course.ID, SemesterID: f.semester.ID, Score: 42, GradeDate: "2025-03-01"}))

	stats := NewGradeStatisticsService(f.grades, client, time.Minute, testLogger())
	req := dto.GradeStatisticsRequest{CourseID: f.course.ID}

	first, err := stats.Statistics(ctx, req)
	require.NoError(t, err)
	require.False(t, first.CacheHit)
	require.Len(t, first.Students, 2)
	// Grade 7 divides by 14 regardless of count.
	require.Equal(t, f.students[0].ID, first.Students[0].StudentID)
	require.InDelta(t, 70.0/14.0, first.Students[0].Average, 0.01)
	require.Len(t, first.Monthly, 2)
	require.NotNil(t, first.Monthly[1].Delta)

	second, err := stats.Statistics(ctx, req)
	require.NoError(t, err)
	require.True(t, second.CacheHit)

	NewEventService(client, "", nil, testLogger()).Publish(ctx, TopicGradesUpdated)
	third, err := stats.Statistics(ctx, req)
	require.NoError(t, err)
	require.False(t, third.CacheHit)
}

func TestGradeStatisticsRefreshAfterCourseAndStudentChanges(t *testing.T) {
	f := newGradeFixture(t, 6, 1)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()

	require.NoError(t, f.grades.Create(ctx, &models.Grade{StudentID: f.students[0].ID, SubjectID: f.subject.ID, CourseID: f.course.ID, SemesterID: f.semester.ID, Score: 70, GradeDate: "03/25"}))

	events := NewEventService(client, "", nil, testLogger())
	stats := NewGradeStatisticsService(f.grades, client, time.Minute, testLogger())
	courses := NewCourseService(f.refs.Courses, repository.NewSchoolYearRepository(f.db), repository.NewUserRepository(f.db), dto.NewValidator(), nil, events, testLogger())
	students := NewStudentService(f.refs.Students, f.refs.Courses, dto.NewValidator(), nil, events, testLogger())
	req := dto.GradeStatisticsRequest{CourseID: f.course.ID}

	before, err := stats.Statistics(ctx, req)
	require.NoError(t, err)
	require.Equal(t, 6, before.Students[0].GradeLevel)
	require.InDelta(t, 70.0, before.Students[0].Average, 0.01)

	_, err = courses.Update(ctx, f.course.ID, dto.CourseRequest{SchoolYearID: f.year.ID, Grade: 7, Section: "A"}, ActivityActor{})
	require.NoError(t, err)

	after, err := stats.Statistics(ctx, req)
	require.NoError(t, err)
	require.False(t, after.CacheHit)
	require.Equal(t, 7, after.Students[0].GradeLevel)
	require.InDelta(t, 5.0, after.Students[0].Average, 0.01)

	renamed := "សុខ វណ្ណា"
	_, err = students.Update(ctx, f.students[0].ID, dto.StudentUpdateRequest{Name: &renamed}, ActivityActor{})
	require.NoError(t, err)

	latest, err := stats.Statistics(ctx, req)
	require.NoError(t, err)
	require.False(t, latest.CacheHit)
	require.Equal(t, renamed, latest.Students[0].StudentName)
}

func TestGradeTemplateServiceNoEnrolledStudentsNamesCourse(t *testing.T) {
	f := newGradeFixture(t, 8, 0)
	svc := f.templateService(time.Now())

	_, err := svc.Generate(context.Background(), dto.GradeTemplateRequest{
		CourseID:     f.course.ID,
		SemesterID:   f.semester.ID,
		SchoolYearID: f.year.ID,
		SubjectIDs:   []uint{f.subject.ID},
	})
	require.ErrorIs(t, err, ErrNoEnrolledStudents)
	require.Contains(t, err.Error(), f.course.CourseName)
}

func TestGradeTemplateServiceMissingReferences(t *testing.T) {
	f := newGradeFixture(t, 8, 1)
	svc := f.templateService(time.Now())
	ctx := context.Background()

	req := dto.GradeTemplateRequest{CourseID: 999, SemesterID: f.semester.ID, SchoolYearID: f.year.ID, SubjectIDs: []uint{f.subject.ID}}
	_, err := svc.Generate(ctx, req)
	require.ErrorIs(t, err, ErrCourseNotFound)

	req.CourseID = f.course.ID
	req.SubjectIDs = []uint{f.subject.ID, 999}
	_, err = svc.Generate(ctx, req)
	require.ErrorIs(t, err, ErrSubjectNotFound)

	req.SubjectIDs = []uint{f.subject.ID}
	req.SemesterID = 999
	_, err = svc.Generate(ctx, req)
	require.ErrorIs(t, err, ErrSemesterNotFound)
}

func TestGradeTemplateRoundTripImport(t *testing.T) {
	f := newGradeFixture(t, 9, 2)
	ctx := context.Background()

	file, err := f.templateService(time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)).Generate(ctx, dto.GradeTemplateRequest{
		CourseID:     f.course.ID,
		SemesterID:   f.semester.ID,
		SchoolYearID: f.year.ID,
		SubjectIDs:   []uint{f.subject.ID},
	})
	require.NoError(t, err)
	require.Contains(t, file.Filename, "2025-03")

	workbook, err := excelize.OpenReader(bytes.NewReader(file.Content))
	require.NoError(t, err)
	sheets := workbook.GetSheetList()
	require.Len(t, sheets, 2)
	sheet := sheets[1]

	row := strconv.Itoa(gradesheet.FirstDataRow)
	for _, col := range gradesheet.HomeworkColumns {
		require.NoError(t, workbook.SetCellValue(sheet, col+row, 8))
	}
	require.NoError(t, workbook.SetCellValue(sheet, gradesheet.ColExam+row, 40))
	require.NoError(t, workbook.SetCellValue(sheet, gradesheet.ColNotes+row, "<b>ល្អ</b>"))
	edited, err := workbook.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, workbook.Close())

	activity := &recordedActivity{}
	importer := NewGradeImportService(f.grades, f.refs, 5, activity, nil, testLogger())

	result, err := importer.Import(ctx, buildFileHeader(t, "grades.xlsx", edited.Bytes()), ActivityActor{ID: 2, Role: "teacher"})
	require.NoError(t, err)
	require.Equal(t, 2, result.Total)
	require.Equal(t, 2, result.Created)
	require.Empty(t, result.Failed)
	require.Equal(t, "imported 2 of 2", result.Message)

	stored, err := f.grades.FindByKey(ctx, repository.GradeKey{StudentID: f.students[0].ID, SubjectID: f.subject.ID, CourseID: f.course.ID, SemesterID: f.semester.ID, GradeDate: "03/25"})
	require.NoError(t, err)
	require.Equal(t, 48.0, stored.Score)
	require.Equal(t, "ល្អ", stored.Comment)

	again, err := importer.Import(ctx, buildFileHeader(t, "grades.xlsx", edited.Bytes()), ActivityActor{ID: 2, Role: "teacher"})
	require.NoError(t, err)
	require.Equal(t, 0, again.Created)
	require.Equal(t, 2, again.Updated)
	require.Equal(t, []string{"grade.imported", "grade.imported"}, activity.actions())
}

func TestGradeImportServiceRejectsTotalsAboveMaxScore(t *testing.T) {
	f := newGradeFixture(t, 9, 2)
	ctx := context.Background()

	file, err := f.templateService(time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)).Generate(ctx, dto.GradeTemplateRequest{
		CourseID:     f.course.ID,
		SemesterID:   f.semester.ID,
		SchoolYearID: f.year.ID,
		SubjectIDs:   []uint{f.subject.ID},
	})
	require.NoError(t, err)

	workbook, err := excelize.OpenReader(bytes.NewReader(file.Content))
	require.NoError(t, err)
	sheet := workbook.GetSheetList()[1]
	row := strconv.Itoa(gradesheet.FirstDataRow)
	require.NoError(t, workbook.SetCellValue(sheet, gradesheet.MaxHomeworkCell, 100))
	for _, col := range gradesheet.HomeworkColumns {
		require.NoError(t, workbook.SetCellValue(sheet, col+row, 100))
	}
	require.NoError(t, workbook.SetCellValue(sheet, gradesheet.ColExam+row, 100))
	edited, err := workbook.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, workbook.Close())

	importer := NewGradeImportService(f.grades, f.refs, 5, nil, nil, testLogger())
	result, err := importer.Import(ctx, buildFileHeader(t, "grades.xlsx", edited.Bytes()), ActivityActor{})
	require.NoError(t, err)
	require.Equal(t, "imported 1 of 2", result.Message)
	require.Len(t, result.Failed, 1)
	require.Equal(t, gradesheet.FirstDataRow, result.Failed[0].Row)

	_, err = f.grades.FindByKey(ctx, repository.GradeKey{StudentID: f.students[0].ID, SubjectID: f.subject.ID, CourseID: f.course.ID, SemesterID: f.semester.ID, GradeDate: "03/25"})
	require.Error(t, err)

	var scores []float64
	require.NoError(t, f.db.Model(&models.Grade{}).Pluck("grade", &scores).Error)
	for _, score := range scores {
		require.LessOrEqual(t, score, 100.0)
	}
}

func TestGradeImportServiceRejectsNonWorkbook(t *testing.T) {
	f := newGradeFixture(t, 9, 0)
	importer := NewGradeImportService(f.grades, f.refs, 5, nil, nil, testLogger())

	_, err := importer.Import(context.Background(), buildFileHeader(t, "grades.xlsx", []byte("plain text")), ActivityActor{})
	require.ErrorIs(t, err, ErrInvalidWorkbook)
}
