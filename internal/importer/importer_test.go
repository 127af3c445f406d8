package importer

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadCSV_RegistryColumns(t *testing.T) {
	input := "Name,StudentID,Department,Recipient\n" +
		"Alice,S-1,Computer Science,0xDaDea6be84CFb181A7bfa50807cF72698d1de644\n" +
		"Bob,S-2,,\n"

	rows, err := ReadCSV(strings.NewReader(input), RegistryColumns)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Alice", rows[0][FieldName])
	assert.Equal(t, "S-1", rows[0][FieldStudentID])
	assert.Equal(t, "Computer Science", rows[0][FieldDepartment])
	assert.Equal(t, "0xDaDea6be84CFb181A7bfa50807cF72698d1de644", rows[0][FieldWallet])

	assert.Equal(t, "Bob", rows[1][FieldName])
	assert.Equal(t, "", rows[1][FieldDepartment])
}

func TestReadCSV_HeaderAliases(t *testing.T) {
	// Header spellings vary between export tools.
	input := "student_name,student_id,dept\nCarol,s-9,Physics\n"

	rows, err := ReadCSV(strings.NewReader(input), RegistryColumns)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Carol", rows[0][FieldName])
	assert.Equal(t, "s-9", rows[0][FieldStudentID])
	assert.Equal(t, "Physics", rows[0][FieldDepartment])
}

func TestReadCSV_MissingRequiredColumn(t *testing.T) {
	input := "Name,Department\nAlice,CS\n"

	_, err := ReadCSV(strings.NewReader(input), RegistryColumns)
	require.Error(t, err)

	var missing *MissingColumnError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, FieldStudentID, missing.Column)
	assert.Contains(t, err.Error(), "student_id")
}

func TestReadCSV_IssuanceColumns(t *testing.T) {
	input := "ID,Name,StudentID,Recipient\n" +
		"CERT-2026-001,Alice,S-1,\n" +
		"CERT-2026-002,Bob,S-2,0xDaDea6be84CFb181A7bfa50807cF72698d1de644\n"

	rows, err := ReadCSV(strings.NewReader(input), IssuanceColumns)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "CERT-2026-001", rows[0][FieldCertID])
	assert.Equal(t, "S-2", rows[1][FieldStudentID])
}

func TestReadCSV_SkipsBlankRows(t *testing.T) {
	input := "Name,StudentID\nAlice,S-1\n,\n , \nBob,S-2\n"

	rows, err := ReadCSV(strings.NewReader(input), RegistryColumns)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestReadXLSX(t *testing.T) {
	book := excelize.NewFile()
	sheet := book.GetSheetName(0)
	require.NoError(t, book.SetSheetRow(sheet, "A1", &[]string{"name", "studentId", "department"}))
	require.NoError(t, book.SetSheetRow(sheet, "A2", &[]string{"Dave", "S-10", "Mathematics"}))

	var buf bytes.Buffer
	require.NoError(t, book.Write(&buf))

	rows, err := ReadXLSX(&buf, RegistryColumns)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Dave", rows[0][FieldName])
	assert.Equal(t, "S-10", rows[0][FieldStudentID])
	assert.Equal(t, "Mathematics", rows[0][FieldDepartment])
}

func TestRead_PicksParserByExtension(t *testing.T) {
	input := "name,studentId\nEve,S-11\n"

	rows, err := Read(strings.NewReader(input), "students.csv", RegistryColumns)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = Read(strings.NewReader(input), "students.xlsx", RegistryColumns)
	assert.Error(t, err)
}
