package grading

import (
	"math"
	"sort"
)

// Entry is the minimal view of a grade record needed for aggregation.
type Entry struct {
	StudentID   uint
	StudentName string
	CourseID    uint
	SubjectID   uint
	Score       float64
	GradeDate   string
}

// StudentSummary aggregates one student's grades within one course.
type StudentSummary struct {
	StudentID   uint    `json:"studentId"`
	StudentName string  `json:"studentName"`
	CourseID    uint    `json:"courseId"`
	GradeLevel  int     `json:"gradeLevel"`
	Count       int     `json:"count"`
	Sum         float64 `json:"sum"`
	Average     float64 `json:"average"`
	Letter      string  `json:"letter"`
	Rank        int     `json:"rank"`
}

// MonthlyPoint is the class average of one month, compared with the previous month.
type MonthlyPoint struct {
	CourseID uint     `json:"courseId"`
	Month    string   `json:"month"`
	Year     string   `json:"year"`
	Count    int      `json:"count"`
	Average  float64  `json:"average"`
	Delta    *float64 `json:"delta"`
}

type summaryKey struct {
	student uint
	course  uint
}

// Summarize groups entries by (student, course) and applies the level's divisor and scale.
// levels maps course id to its grade level; unknown courses fall back to count-based averages.
// The result is ordered by course, then by average descending, with a 1-based rank per course.
func Summarize(entries []Entry, levels map[uint]int) []StudentSummary {
	index := make(map[summaryKey]int)
	summaries := make([]StudentSummary, 0)

	for _, e := range entries {
		key := summaryKey{student: e.StudentID, course: e.CourseID}
		pos, ok := index[key]
		if !ok {
			summaries = append(summaries, StudentSummary{
				StudentID:   e.StudentID,
				StudentName: e.StudentName,
				CourseID:    e.CourseID,
				GradeLevel:  levels[e.CourseID],
			})
			pos = len(summaries) - 1
			index[key] = pos
		}
		summaries[pos].Count++
		summaries[pos].Sum += e.Score
	}

	for i := range summaries {
		s := &summaries[i]
		s.Average = round2(Average(s.Sum, s.GradeLevel, s.Count))
		s.Letter = Letter(s.Average, s.GradeLevel)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].CourseID != summaries[j].CourseID {
			return summaries[i].CourseID < summaries[j].CourseID
		}
		if summaries[i].Average != summaries[j].Average {
			return summaries[i].Average > summaries[j].Average
		}
		return summaries[i].StudentID < summaries[j].StudentID
	})

	position := 0
	for i := range summaries {
		if i == 0 || summaries[i].CourseID != summaries[i-1].CourseID {
			position = 0
		}
		position++
		if position > 1 && summaries[i].Average == summaries[i-1].Average {
			summaries[i].Rank = summaries[i-1].Rank
			continue
		}
		summaries[i].Rank = position
	}

	return summaries
}

type monthKey struct {
	course uint
	key    string
}

// MonthlyComparison averages scores per course and month. Rows whose grade date
// cannot be parsed are skipped. Points are chronological within each course.
func MonthlyComparison(entries []Entry) []MonthlyPoint {
	type bucket struct {
		date  GradeDate
		sum   float64
		count int
	}

	buckets := make(map[monthKey]*bucket)
	for _, e := range entries {
		date, err := ParseGradeDate(e.GradeDate)
		if err != nil {
			continue
		}
		key := monthKey{course: e.CourseID, key: date.Key()}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{date: date}
			buckets[key] = b
		}
		b.sum += e.Score
		b.count++
	}

	keys := make([]monthKey, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].course != keys[j].course {
			return keys[i].course < keys[j].course
		}
		return keys[i].key < keys[j].key
	})

	points := make([]MonthlyPoint, 0, len(keys))
	for i, k := range keys {
		b := buckets[k]
		point := MonthlyPoint{
			CourseID: k.course,
			Month:    b.date.Month,
			Year:     b.date.YearFull,
			Count:    b.count,
			Average:  round2(b.sum / float64(b.count)),
		}
		if i > 0 && keys[i-1].course == k.course {
			delta := round2(point.Average - points[i-1].Average)
			point.Delta = &delta
		}
		points = append(points, point)
	}

	return points
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
