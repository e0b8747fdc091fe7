package grading

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatGradeDate(t *testing.T) {
	cases := []struct {
		month, year, want string
	}{
		{"03", "2025", "03/25"},
		{"3", "2025", "03/25"},
		{"12", "24", "12/24"},
		{"1", "2030", "01/30"},
	}
	for _, tc := range cases {
		got, err := FormatGradeDate(tc.month, tc.year)
		require.NoError(t, err)
		require.Equal(t, tc.want, got)
	}
}

func TestFormatGradeDateRejectsInvalidInput(t *testing.T) {
	for _, tc := range [][2]string{{"0", "2025"}, {"13", "2025"}, {"aa", "2025"}, {"03", "202"}, {"03", "20x5"}} {
		_, err := FormatGradeDate(tc[0], tc[1])
		require.ErrorIs(t, err, ErrInvalidGradeDate, "%v", tc)
	}
}

func TestGradeDateRoundTrip(t *testing.T) {
	encoded, err := FormatGradeDate("03", "2025")
	require.NoError(t, err)

	decoded, err := ParseGradeDate(encoded)
	require.NoError(t, err)
	require.Equal(t, "03", decoded.Month)
	require.Equal(t, "2025", decoded.YearFull)
	require.False(t, decoded.Legacy)
	require.Equal(t, encoded, decoded.String())
}

func TestParseGradeDateLegacyFallback(t *testing.T) {
	cases := map[string]GradeDate{
		"2024-11-05":           {Month: "11", YearFull: "2024", Legacy: true},
		"2024-11-05T08:00:00Z": {Month: "11", YearFull: "2024", Legacy: true},
		"2023-02":              {Month: "02", YearFull: "2023", Legacy: true},
	}
	for input, want := range cases {
		got, err := ParseGradeDate(input)
		require.NoError(t, err, input)
		require.Equal(t, want, got, input)
	}
}

func TestParseGradeDateRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "13/25", "march", "03/2025x"} {
		_, err := ParseGradeDate(input)
		require.ErrorIs(t, err, ErrInvalidGradeDate, input)
	}
}

func TestGradeDateKeyOrdersChronologically(t *testing.T) {
	nov, _ := ParseGradeDate("11/24")
	jan, _ := ParseGradeDate("01/25")
	require.Less(t, nov.Key(), jan.Key())
}
