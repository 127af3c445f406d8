package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Field is a logical column in an import file. Spreadsheets arrive
// with many header spellings; each field declares the aliases it
// accepts and whether the file must contain it.
type Field string

const (
	FieldName       Field = "name"
	FieldStudentID  Field = "student_id"
	FieldDepartment Field = "department"
	FieldWallet     Field = "wallet"
	FieldCertID     Field = "cert_id"
)

type ColumnSpec struct {
	Field    Field
	Aliases  []string
	Required bool
}

type ColumnMap []ColumnSpec

// RegistryColumns maps a student registry import file.
var RegistryColumns = ColumnMap{
	{Field: FieldName, Aliases: []string{"name", "studentname", "student_name"}, Required: true},
	{Field: FieldStudentID, Aliases: []string{"studentid", "student_id", "id"}, Required: true},
	{Field: FieldDepartment, Aliases: []string{"department", "dept"}},
	{Field: FieldWallet, Aliases: []string{"recipient", "wallet", "address"}},
}

// IssuanceColumns maps a batch issuance file. Every certificate needs
// its own ID here, distinct from the student ID column.
var IssuanceColumns = ColumnMap{
	{Field: FieldCertID, Aliases: []string{"id", "certificateid", "certificate_id", "certid", "cert_id"}, Required: true},
	{Field: FieldName, Aliases: []string{"name", "studentname", "student_name"}, Required: true},
	{Field: FieldStudentID, Aliases: []string{"studentid", "student_id"}, Required: true},
	{Field: FieldWallet, Aliases: []string{"recipient", "wallet", "address"}},
}

// Row holds one data row keyed by logical field. Missing optional
// columns yield empty strings.
type Row map[Field]string

// MissingColumnError reports which logical column could not be resolved
// from the file's header, and the header names that would have matched.
type MissingColumnError struct {
	Column   Field
	Accepted []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing required column %q (accepted headers: %s)",
		e.Column, strings.Join(e.Accepted, ", "))
}

// resolveHeader maps header cell positions to logical fields. Matching
// is case-insensitive on the trimmed header text.
func resolveHeader(header []string, cols ColumnMap) (map[int]Field, error) {
	positions := make(map[int]Field)
	found := make(map[Field]bool)

	for i, cell := range header {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for _, spec := range cols {
			if found[spec.Field] {
				continue
			}
			for _, alias := range spec.Aliases {
				if normalized == alias {
					positions[i] = spec.Field
					found[spec.Field] = true
					break
				}
			}
		}
	}

	for _, spec := range cols {
		if spec.Required && !found[spec.Field] {
			return nil, &MissingColumnError{Column: spec.Field, Accepted: spec.Aliases}
		}
	}

	return positions, nil
}

func buildRows(records [][]string, positions map[int]Field) []Row {
	rows := make([]Row, 0, len(records))
	for _, record := range records {
		row := make(Row, len(positions))
		empty := true
		for i, field := range positions {
			var value string
			if i < len(record) {
				value = strings.TrimSpace(record[i])
			}
			row[field] = value
			if value != "" {
				empty = false
			}
		}
		if !empty {
			rows = append(rows, row)
		}
	}
	return rows
}

// ReadCSV parses a comma-separated import file against the column map.
func ReadCSV(r io.Reader, cols ColumnMap) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("file is empty")
	}

	positions, err := resolveHeader(records[0], cols)
	if err != nil {
		return nil, err
	}

	return buildRows(records[1:], positions), nil
}

// ReadXLSX parses the first sheet of a spreadsheet against the column map.
func ReadXLSX(r io.Reader, cols ColumnMap) ([]Row, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}

	records, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheets[0])
	}

	positions, err := resolveHeader(records[0], cols)
	if err != nil {
		return nil, err
	}

	return buildRows(records[1:], positions), nil
}

// Read picks the parser from the file extension. CSV is the default.
func Read(r io.Reader, filename string, cols ColumnMap) ([]Row, error) {
	if strings.HasSuffix(strings.ToLower(filename), ".xlsx") {
		return ReadXLSX(r, cols)
	}
	return ReadCSV(r, cols)
}
