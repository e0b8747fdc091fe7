package spreadsheet

import (
	"errors"
	"fmt"
	"os"
	"strings"

	// Registers the PNG decoder used by excelize when embedding logos.
	_ "image/png"

	"github.com/xuri/excelize/v2"
)

// ErrEmptyWorkbook is returned when a workbook has no sheets.
var ErrEmptyWorkbook = errors.New("workbook has no sheets")

type styleKey struct {
	name     string
	editable bool
}

type renderer struct {
	file   *excelize.File
	styles map[string]Style
	cache  map[styleKey]int
}

// Render builds an excelize file from the description. Images whose files are
// missing are skipped so templates still render without branding assets.
func Render(w Workbook) (*excelize.File, error) {
	if len(w.Sheets) == 0 {
		return nil, ErrEmptyWorkbook
	}

	f := excelize.NewFile()
	r := &renderer{file: f, styles: w.Styles, cache: make(map[styleKey]int)}

	for i, sheet := range w.Sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet.Name); err != nil {
				_ = f.Close()
				return nil, fmt.Errorf("rename sheet %q: %w", sheet.Name, err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("create sheet %q: %w", sheet.Name, err)
		}

		if err := r.sheet(sheet, w.Password); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("render sheet %q: %w", sheet.Name, err)
		}
	}

	f.SetActiveSheet(0)

	if w.LockStructure && w.Password != "" {
		if err := f.ProtectWorkbook(&excelize.WorkbookProtectionOptions{
			Password:      w.Password,
			LockStructure: true,
		}); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("protect workbook: %w", err)
		}
	}

	return f, nil
}

func (r *renderer) sheet(s Sheet, password string) error {
	f := r.file

	for _, col := range s.Columns {
		start, end := splitRange(col.Range)
		if col.Width > 0 {
			if err := f.SetColWidth(s.Name, start, end, col.Width); err != nil {
				return err
			}
		}
		if col.Hidden {
			if err := f.SetColVisible(s.Name, col.Range, false); err != nil {
				return err
			}
		}
	}

	for _, row := range s.Rows {
		if err := f.SetRowHeight(s.Name, row.Index, row.Height); err != nil {
			return err
		}
	}

	for _, merge := range s.Merges {
		start, end := splitRange(merge)
		if err := f.MergeCell(s.Name, start, end); err != nil {
			return err
		}
	}

	for _, cell := range s.Cells {
		if err := r.cell(s.Name, cell); err != nil {
			return fmt.Errorf("cell %s: %w", cell.Ref, err)
		}
	}

	for _, v := range s.Validations {
		dv := excelize.NewDataValidation(true)
		dv.Sqref = v.Range
		kind := excelize.DataValidationTypeDecimal
		if v.Type == ValidationWhole {
			kind = excelize.DataValidationTypeWhole
		}
		if err := dv.SetRange(v.Min, v.Max, kind, excelize.DataValidationOperatorBetween); err != nil {
			return err
		}
		message := v.Prompt
		if message == "" {
			message = fmt.Sprintf("%g - %g", v.Min, v.Max)
		}
		dv.SetError(excelize.DataValidationErrorStyleStop, "Invalid value", message)
		if err := f.AddDataValidation(s.Name, dv); err != nil {
			return err
		}
	}

	for _, img := range s.Images {
		if img.Path == "" {
			continue
		}
		if _, err := os.Stat(img.Path); err != nil {
			continue
		}
		scale := img.Scale
		if scale <= 0 {
			scale = 1
		}
		if err := f.AddPicture(s.Name, img.Ref, img.Path, &excelize.GraphicOptions{
			ScaleX:          scale,
			ScaleY:          scale,
			LockAspectRatio: true,
			Positioning:     "oneCell",
		}); err != nil {
			return err
		}
	}

	if s.Protected && password != "" {
		if err := f.ProtectSheet(s.Name, &excelize.SheetProtectionOptions{
			Password:            password,
			SelectLockedCells:   true,
			SelectUnlockedCells: true,
		}); err != nil {
			return err
		}
	}

	return nil
}

func (r *renderer) cell(sheet string, c Cell) error {
	f := r.file
	switch {
	case c.Formula != "":
		if err := f.SetCellFormula(sheet, c.Ref, strings.TrimPrefix(c.Formula, "=")); err != nil {
			return err
		}
	case c.Value != nil:
		if err := f.SetCellValue(sheet, c.Ref, c.Value); err != nil {
			return err
		}
	}

	if c.Style == "" && !c.Editable {
		return nil
	}

	id, err := r.style(c.Style, c.Editable)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, c.Ref, c.Ref, id)
}

func (r *renderer) style(name string, editable bool) (int, error) {
	key := styleKey{name: name, editable: editable}
	if id, ok := r.cache[key]; ok {
		return id, nil
	}

	def, ok := r.styles[name]
	if name != "" && !ok {
		return 0, fmt.Errorf("unknown style %q", name)
	}

	style := &excelize.Style{
		Protection: &excelize.Protection{Locked: !editable},
		Alignment: &excelize.Alignment{
			Horizontal: def.Align,
			Vertical:   def.VAlign,
			WrapText:   def.Wrap,
		},
	}
	if def.Fill != "" {
		style.Fill = excelize.Fill{Type: "pattern", Color: []string{def.Fill}, Pattern: 1}
	}
	if def.Bold || def.FontSize > 0 || def.FontColor != "" {
		style.Font = &excelize.Font{Bold: def.Bold, Size: def.FontSize, Color: def.FontColor}
	}
	if def.Border {
		style.Border = []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		}
	}

	id, err := r.file.NewStyle(style)
	if err != nil {
		return 0, err
	}
	r.cache[key] = id
	return id, nil
}

func splitRange(value string) (string, string) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) == 1 {
		return parts[0], parts[0]
	}
	return parts[0], parts[1]
}
