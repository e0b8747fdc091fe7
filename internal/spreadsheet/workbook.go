// Package spreadsheet renders declarative workbook descriptions with excelize.
//
// A Workbook lists its sheets, named styles, merged ranges, validation rules and
// protection policy as plain data. Render turns the description into an
// *excelize.File; nothing in the description depends on excelize, so business
// rules can be asserted on the description itself.
package spreadsheet

// ValidationType selects how a validation range interprets cell input.
type ValidationType string

// Supported validation types.
const (
	ValidationWhole   ValidationType = "whole"
	ValidationDecimal ValidationType = "decimal"
)

// Workbook is a declarative description of an .xlsx file.
type Workbook struct {
	Sheets []Sheet
	Styles map[string]Style
	// Password protects every sheet marked Protected and, when LockStructure
	// is set, the workbook structure itself.
	Password      string
	LockStructure bool
}

// Sheet describes a single worksheet.
type Sheet struct {
	Name        string
	Cells       []Cell
	Merges      []string
	Columns     []Column
	Rows        []Row
	Validations []Validation
	Images      []Image
	Protected   bool
}

// Cell is one cell assignment. Either Value or Formula is written.
type Cell struct {
	Ref      string
	Value    interface{}
	Formula  string
	Style    string
	Editable bool
}

// Column sets width and visibility for a column range such as "A" or "L:R".
type Column struct {
	Range  string
	Width  float64
	Hidden bool
}

// Row sets the height of a 1-based row.
type Row struct {
	Index  int
	Height float64
}

// Validation restricts numeric input in a cell range.
type Validation struct {
	Range  string
	Type   ValidationType
	Min    float64
	Max    float64
	Prompt string
}

// Image places a picture file with its top-left corner at Ref.
type Image struct {
	Ref   string
	Path  string
	Scale float64
}

// Style is a named cell format.
type Style struct {
	Fill      string
	FontColor string
	FontSize  float64
	Bold      bool
	Border    bool
	Align     string
	VAlign    string
	Wrap      bool
}

// Sheet returns the named sheet description.
func (w Workbook) Sheet(name string) (Sheet, bool) {
	for _, s := range w.Sheets {
		if s.Name == name {
			return s, true
		}
	}
	return Sheet{}, false
}

// EditableRefs lists the cells of a sheet that stay unlocked under protection.
func (w Workbook) EditableRefs(sheet string) []string {
	s, ok := w.Sheet(sheet)
	if !ok {
		return nil
	}
	refs := make([]string, 0)
	for _, c := range s.Cells {
		if c.Editable {
			refs = append(refs, c.Ref)
		}
	}
	return refs
}

// Cell returns the last assignment made to ref on the sheet.
func (s Sheet) Cell(ref string) (Cell, bool) {
	for i := len(s.Cells) - 1; i >= 0; i-- {
		if s.Cells[i].Ref == ref {
			return s.Cells[i], true
		}
	}
	return Cell{}, false
}
