package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_DuplicateCodesWithinBatch(t *testing.T) {
	rows := []Row{
		{ProductName: "Widget", ProductCode: "W1", CategoryName: "Tools", CategoryCode: "T1"},
		{ProductName: "Gadget", ProductCode: "W1", CategoryName: "Tools", CategoryCode: "T1"},
	}

	got := Validate(rows, NewCodes(), Settings{})

	require.Len(t, got.Accepted, 1)
	assert.Equal(t, rows[0], got.Accepted[0])
	assert.Equal(t, []string{
		"L2: Product Code 'W1' already exists.",
		"L2: Category Code 'T1' already exists.",
	}, got.Diagnostics)
	assert.Equal(t, 1, got.Rejected)
	assert.False(t, got.Aborted)
}

func TestValidate_MissingFields(t *testing.T) {
	rows := []Row{
		{ProductName: "Widget", ProductCode: "W1", CategoryName: "Tools", CategoryCode: "T1"},
		{ProductName: "  ", ProductCode: "", CategoryName: "\t", CategoryCode: ""},
	}

	got := Validate(rows, NewCodes(), Settings{})

	require.Len(t, got.Accepted, 1)
	assert.Equal(t, []string{
		"L2: Product Name is missing.",
		"L2: Product Code is missing.",
		"L2: Category Name is missing.",
		"L2: Category Code is missing.",
	}, got.Diagnostics)
}

func TestValidate_InvalidRowStillClaimsCodes(t *testing.T) {
	rows := []Row{
		{ProductName: "", ProductCode: "P1", CategoryName: "Tools", CategoryCode: "C1"},
		{ProductName: "Hammer", ProductCode: "p1", CategoryName: "Garden", CategoryCode: "C2"},
		{ProductName: "Rake", ProductCode: "P3", CategoryName: "Tools", CategoryCode: " c1 "},
	}

	got := Validate(rows, NewCodes(), Settings{})

	assert.Empty(t, got.Accepted)
	assert.Equal(t, 3, got.Rejected)
	assert.Equal(t, []string{
		"L1: Product Name is missing.",
		"L2: Product Code 'p1' already exists.",
		"L3: Category Code 'c1' already exists.",
	}, got.Diagnostics)
}

func TestValidate_ExistingCodesMatchCaseInsensitively(t *testing.T) {
	existing := NewCodes()
	existing.Products["w1"] = struct{}{}
	existing.Categories["t9"] = struct{}{}

	rows := []Row{
		{ProductName: "Widget", ProductCode: "  W1 ", CategoryName: "Tools", CategoryCode: "T1"},
		{ProductName: "Gadget", ProductCode: "G1", CategoryName: "Misc", CategoryCode: "T9"},
		{ProductName: "Sprocket", ProductCode: "S1", CategoryName: "Parts", CategoryCode: "P1"},
	}

	got := Validate(rows, existing, Settings{})

	require.Len(t, got.Accepted, 1)
	assert.Equal(t, "S1", got.Accepted[0].ProductCode)
	assert.Equal(t, []string{
		"L1: Product Code 'W1' already exists.",
		"L2: Category Code 'T9' already exists.",
	}, got.Diagnostics)
}

func TestValidate_StopOnErrorDiscardsBatch(t *testing.T) {
	rows := []Row{
		{ProductName: "Widget", ProductCode: "W1", CategoryName: "Tools", CategoryCode: "T1"},
		{ProductName: "", ProductCode: "W2", CategoryName: "Parts", CategoryCode: "T2"},
		{ProductName: "Sprocket", ProductCode: "W3", CategoryName: "Misc", CategoryCode: "T3"},
		{ProductName: "", ProductCode: "W4", CategoryName: "Other", CategoryCode: "T4"},
	}

	got := Validate(rows, NewCodes(), Settings{StopOnError: true})

	assert.True(t, got.Aborted)
	assert.Empty(t, got.Accepted)
	assert.Equal(t, 1, got.Rejected)
	assert.Equal(t, []string{"L2: Product Name is missing."}, got.Diagnostics)
}

func TestValidate_StopOnErrorWithValidBatch(t *testing.T) {
	rows := []Row{
		{ProductName: "Widget", ProductCode: "W1", CategoryName: "Tools", CategoryCode: "T1"},
		{ProductName: "Gadget", ProductCode: "W2", CategoryName: "Parts", CategoryCode: "T2"},
	}

	got := Validate(rows, NewCodes(), Settings{StopOnError: true})

	assert.False(t, got.Aborted)
	assert.Len(t, got.Accepted, 2)
	assert.Empty(t, got.Diagnostics)
}

func TestValidate_ColumnLimits(t *testing.T) {
	rows := []Row{
		{
			ProductName:  strings.Repeat("n", 101),
			ProductCode:  strings.Repeat("c", 51),
			CategoryName: strings.Repeat("é", 100),
			CategoryCode: strings.Repeat("k", 50),
		},
	}

	got := Validate(rows, NewCodes(), Settings{})

	assert.Empty(t, got.Accepted)
	assert.Equal(t, []string{
		"L1: Product Name exceeds 100 characters.",
		"L1: Product Code exceeds 50 characters.",
	}, got.Diagnostics)
}

func TestValidate_EmptyInput(t *testing.T) {
	got := Validate(nil, NewCodes(), Settings{StopOnError: true})

	assert.Empty(t, got.Accepted)
	assert.Empty(t, got.Diagnostics)
	assert.False(t, got.Aborted)
}
