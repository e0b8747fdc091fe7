package grading

import "math"

// Homework defaults used by the monthly score sheet.
const (
	HomeworkSlots           = 4
	DefaultHomeworkCount    = 4
	DefaultMaxHomeworkScore = 10
)

// MaxScore is the highest value a stored grade may hold.
const MaxScore = 100.0

// HomeworkTotal averages the filled homework scores over the configured count.
// A count of zero disables homework.
func HomeworkTotal(scores []float64, count int) float64 {
	if count <= 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(count)
}

// MonthlyTotal caps the homework total at maxHomework and adds the exam score.
func MonthlyTotal(homeworkTotal, maxHomework, exam float64) float64 {
	return math.Min(homeworkTotal, maxHomework) + exam
}
