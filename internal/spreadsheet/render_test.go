package spreadsheet

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleWorkbook() Workbook {
	return Workbook{
		Password:      "secret",
		LockStructure: true,
		Styles: map[string]Style{
			"title":    {Bold: true, FontSize: 14, Align: "center"},
			"editable": {Fill: "FFFF00", Border: true},
		},
		Sheets: []Sheet{
			{Name: "Guide", Cells: []Cell{{Ref: "A1", Value: "read me", Style: "title"}}},
			{
				Name:      "Scores",
				Protected: true,
				Merges:    []string{"A1:C1"},
				Columns: []Column{
					{Range: "A", Width: 6},
					{Range: "E:F", Hidden: true},
				},
				Rows: []Row{{Index: 1, Height: 28}},
				Cells: []Cell{
					{Ref: "A1", Value: "Scores", Style: "title"},
					{Ref: "A2", Value: 4, Style: "editable", Editable: true},
					{Ref: "B2", Value: 6, Editable: true},
					{Ref: "C2", Formula: "=A2+B2"},
					{Ref: "E2", Value: 42},
				},
				Validations: []Validation{{Range: "A2:B2", Type: ValidationDecimal, Min: 0, Max: 100}},
				Images:      []Image{{Ref: "D1", Path: "/nonexistent/logo.png"}},
			},
		},
	}
}

func TestRenderWritesCellsFormulasAndLayout(t *testing.T) {
	f, err := Render(sampleWorkbook())
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{"Guide", "Scores"}, f.GetSheetList())

	value, err := f.GetCellValue("Scores", "A2")
	require.NoError(t, err)
	require.Equal(t, "4", value)

	formula, err := f.GetCellFormula("Scores", "C2")
	require.NoError(t, err)
	require.Equal(t, "A2+B2", formula)

	visible, err := f.GetColVisible("Scores", "E")
	require.NoError(t, err)
	require.False(t, visible)

	visible, err = f.GetColVisible("Scores", "A")
	require.NoError(t, err)
	require.True(t, visible)

	merges, err := f.GetMergeCells("Scores")
	require.NoError(t, err)
	require.Len(t, merges, 1)
	require.Equal(t, "A1", merges[0].GetStartAxis())
	require.Equal(t, "C1", merges[0].GetEndAxis())

	validations, err := f.GetDataValidations("Scores")
	require.NoError(t, err)
	require.Len(t, validations, 1)
	require.Equal(t, "A2:B2", validations[0].Sqref)
}

func TestRenderSurvivesRoundTrip(t *testing.T) {
	f, err := Render(sampleWorkbook())
	require.NoError(t, err)

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	reopened, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer reopened.Close()

	value, err := reopened.GetCellValue("Scores", "E2")
	require.NoError(t, err)
	require.Equal(t, "42", value)
}

func TestRenderRejectsEmptyWorkbookAndUnknownStyle(t *testing.T) {
	_, err := Render(Workbook{})
	require.ErrorIs(t, err, ErrEmptyWorkbook)

	_, err = Render(Workbook{Sheets: []Sheet{{Name: "S", Cells: []Cell{{Ref: "A1", Value: 1, Style: "missing"}}}}})
	require.Error(t, err)
}

func TestRenderRejectsInvalidSheetNames(t *testing.T) {
	f, err := Render(Workbook{Sheets: []Sheet{{Name: "Grades 7/A"}}})
	require.ErrorIs(t, err, excelize.ErrSheetNameInvalid)
	require.Contains(t, err.Error(), "rename sheet")
	require.Nil(t, f)

	f, err = Render(Workbook{Sheets: []Sheet{{Name: "Grades"}, {Name: "Term [1]"}}})
	require.ErrorIs(t, err, excelize.ErrSheetNameInvalid)
	require.Contains(t, err.Error(), "create sheet")
	require.Nil(t, f)
}

func TestEditableRefs(t *testing.T) {
	wb := sampleWorkbook()
	require.Equal(t, []string{"A2", "B2"}, wb.EditableRefs("Scores"))
	require.Empty(t, wb.EditableRefs("Guide"))
	require.Nil(t, wb.EditableRefs("Missing"))

	sheet, ok := wb.Sheet("Scores")
	require.True(t, ok)
	cell, ok := sheet.Cell("C2")
	require.True(t, ok)
	require.Equal(t, "=A2+B2", cell.Formula)
}
