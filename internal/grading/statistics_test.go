package grading

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSummarizeGroupsByStudentAndCourse(t *testing.T) {
	entries := []Entry{
		{StudentID: 1, StudentName: "Dara", CourseID: 10, Score: 8, GradeDate: "11/24"},
		{StudentID: 1, StudentName: "Dara", CourseID: 10, Score: 10, GradeDate: "12/24"},
		{StudentID: 2, StudentName: "Sokha", CourseID: 10, Score: 9, GradeDate: "11/24"},
		{StudentID: 2, StudentName: "Sokha", CourseID: 10, Score: 9, GradeDate: "12/24"},
		{StudentID: 3, StudentName: "Vanna", CourseID: 10, Score: 6, GradeDate: "11/24"},
		{StudentID: 1, StudentName: "Dara", CourseID: 20, Score: 140, GradeDate: "11/24"},
	}
	levels := map[uint]int{10: 4, 20: 7}

	summaries := Summarize(entries, levels)
	require.Len(t, summaries, 4)

	require.Equal(t, uint(10), summaries[0].CourseID)
	require.InDelta(t, 9.0, summaries[0].Average, 1e-9)
	require.Equal(t, "A", summaries[0].Letter)
	require.Equal(t, 1, summaries[0].Rank)
	require.Equal(t, 1, summaries[1].Rank, "ties share a rank")
	require.Equal(t, uint(3), summaries[2].StudentID)
	require.Equal(t, 3, summaries[2].Rank)
	require.Equal(t, "D", summaries[2].Letter)

	grade7 := summaries[3]
	require.Equal(t, uint(20), grade7.CourseID)
	require.Equal(t, 1, grade7.Count)
	require.InDelta(t, 10.0, grade7.Average, 1e-9)
	require.Equal(t, "F", grade7.Letter)
	require.Equal(t, 1, grade7.Rank)
}

func TestSummarizeIsDeterministic(t *testing.T) {
	entries := []Entry{
		{StudentID: 2, CourseID: 1, Score: 5},
		{StudentID: 1, CourseID: 1, Score: 5},
	}
	first := Summarize(entries, nil)
	second := Summarize(entries, nil)
	require.Equal(t, first, second)
	require.Equal(t, uint(1), first[0].StudentID)
}

func TestMonthlyComparison(t *testing.T) {
	entries := []Entry{
		{CourseID: 1, Score: 8, GradeDate: "12/24"},
		{CourseID: 1, Score: 6, GradeDate: "11/24"},
		{CourseID: 1, Score: 10, GradeDate: "12/24"},
		{CourseID: 1, Score: 7, GradeDate: "2025-01-10"},
		{CourseID: 1, Score: 99, GradeDate: "not a date"},
		{CourseID: 2, Score: 50, GradeDate: "11/24"},
	}

	points := MonthlyComparison(entries)
	require.Len(t, points, 4)

	require.Equal(t, "11", points[0].Month)
	require.Equal(t, "2024", points[0].Year)
	require.Nil(t, points[0].Delta)

	require.Equal(t, "12", points[1].Month)
	require.InDelta(t, 9.0, points[1].Average, 1e-9)
	require.NotNil(t, points[1].Delta)
	require.InDelta(t, 3.0, *points[1].Delta, 1e-9)

	require.Equal(t, "01", points[2].Month)
	require.Equal(t, "2025", points[2].Year)
	require.InDelta(t, -2.0, *points[2].Delta, 1e-9)

	require.Equal(t, uint(2), points[3].CourseID)
	require.Nil(t, points[3].Delta)
}
