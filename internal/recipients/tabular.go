package recipients

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// FileKind selects the decoder used for an uploaded recipient file.
type FileKind int

const (
	KindCSV FileKind = iota
	KindSpreadsheet
)

func (k FileKind) String() string {
	if k == KindCSV {
		return "csv"
	}
	return "spreadsheet"
}

// DefaultMaxFileBytes caps the size of an uploaded recipient file.
const DefaultMaxFileBytes = 10 << 20

// Accepted MIME types for recipient files, as offered by the upload form.
var acceptedMIMETypes = map[string]bool{
	"text/csv": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
}

var acceptedExtensions = map[string]bool{
	".csv":  true,
	".xlsx": true,
}

// Legacy BIFF workbooks have no decoder and are refused up front.
const legacyWorkbookExt = ".xls"

var (
	lineBreaks     = regexp.MustCompile(`\r?\n`)
	cellSeparators = regexp.MustCompile(`[,;]`)
	utf8BOM        = []byte{0xEF, 0xBB, 0xBF}
)

// KindForFilename picks the decoder by name suffix: ".csv" is CSV, anything
// else is treated as a spreadsheet.
func KindForFilename(name string) FileKind {
	if strings.HasSuffix(strings.ToLower(name), ".csv") {
		return KindCSV
	}
	return KindSpreadsheet
}

// AcceptFile reports whether a file selection may be used as a recipient
// source, judged by its extension or declared MIME type.
func AcceptFile(name, contentType string) error {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == legacyWorkbookExt {
		return fmt.Errorf("%w: %s", ErrUnsupportedFile, name)
	}
	if acceptedExtensions[ext] {
		return nil
	}
	if ct := strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]); acceptedMIMETypes[ct] {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedFile, name)
}

// ExtractFile reads at most limit bytes from r and extracts shape-valid
// candidates using the decoder selected by name. A limit <= 0 means
// DefaultMaxFileBytes. All read and decode failures wrap ErrFileDecode.
func ExtractFile(name string, r io.Reader, limit int64) ([]string, error) {
	if limit <= 0 {
		limit = DefaultMaxFileBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrFileDecode, name, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrFileDecode, name, limit)
	}

	if KindForFilename(name) == KindCSV {
		return ExtractCSV(data)
	}
	return ExtractWorkbook(data)
}

// ExtractCSV scans every cell of a CSV-like text file. Lines are split on
// line breaks and cells on commas or semicolons; quoting is not
// interpreted. Only trimmed cells matching the shape pattern are kept.
func ExtractCSV(data []byte) ([]string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: csv is not valid UTF-8", ErrFileDecode)
	}

	var out []string
	for _, line := range lineBreaks.Split(string(data), -1) {
		for _, cell := range cellSeparators.Split(line, -1) {
			cell = strings.TrimSpace(cell)
			if shapePattern.MatchString(cell) {
				out = append(out, cell)
			}
		}
	}
	return out, nil
}

// ExtractWorkbook decodes an XLSX workbook and scans the cells of its first
// sheet. Only textual cells are considered; numbers, booleans, dates and
// empty cells are ignored.
func ExtractWorkbook(data []byte) ([]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", ErrFileDecode, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrFileDecode)
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrFileDecode, sheet, err)
	}

	var out []string
	for r, row := range rows {
		for c, value := range row {
			if value == "" {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrFileDecode, err)
			}
			typ, err := f.GetCellType(sheet, axis)
			if err != nil {
				return nil, fmt.Errorf("%w: cell %s: %v", ErrFileDecode, axis, err)
			}
			if !isTextCell(typ) {
				continue
			}
			value = strings.TrimSpace(value)
			if shapePattern.MatchString(value) {
				out = append(out, value)
			}
		}
	}
	return out, nil
}

func isTextCell(t excelize.CellType) bool {
	switch t {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
		return true
	default:
		return false
	}
}
