package grading

// Fixed divisors for lower-secondary averages.
const (
	DivisorGrades7To8 = 14.0
	DivisorGrade9     = 8.4
)

// Scale identifies which letter-grade breakpoints apply to a grade level.
type Scale int

const (
	// ScaleTen is the 10-point scale used in primary (grades 1-6).
	ScaleTen Scale = iota
	// ScaleFifty is the 50-point scale used in lower secondary (grades 7-9).
	ScaleFifty
	// ScaleHundred is the 100-point scale used everywhere else.
	ScaleHundred
)

type cutoff struct {
	min    float64
	letter string
}

var cutoffs = map[Scale][]cutoff{
	ScaleTen:     {{9, "A"}, {8, "B"}, {7, "C"}, {6, "D"}, {5, "E"}},
	ScaleFifty:   {{45, "A"}, {40, "B"}, {35, "C"}, {30, "D"}, {25, "E"}},
	ScaleHundred: {{90, "A"}, {80, "B"}, {70, "C"}, {60, "D"}, {50, "E"}},
}

// ScaleFor returns the letter scale for a course grade level.
func ScaleFor(gradeLevel int) Scale {
	switch {
	case gradeLevel >= 1 && gradeLevel <= 6:
		return ScaleTen
	case gradeLevel >= 7 && gradeLevel <= 9:
		return ScaleFifty
	default:
		return ScaleHundred
	}
}

// Divisor selects the denominator of a student's average.
// Grades 7-8 and 9 use fixed divisors; every other level divides by the entry count.
func Divisor(gradeLevel, count int) float64 {
	switch {
	case gradeLevel == 7 || gradeLevel == 8:
		return DivisorGrades7To8
	case gradeLevel == 9:
		return DivisorGrade9
	default:
		return float64(count)
	}
}

// Average divides sum by the level's divisor, returning 0 when the divisor is zero.
func Average(sum float64, gradeLevel, count int) float64 {
	d := Divisor(gradeLevel, count)
	if d == 0 {
		return 0
	}
	return sum / d
}

// Letter maps a score to A-F using inclusive cutoffs of the level's scale.
func Letter(score float64, gradeLevel int) string {
	for _, c := range cutoffs[ScaleFor(gradeLevel)] {
		if score >= c.min {
			return c.letter
		}
	}
	return "F"
}
