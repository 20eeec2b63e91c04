package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalUnit(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hộp", "Hộp"},
		{"hộp", "Hộp"},   // case-insensitive
		{"HOP", "Hộp"},   // diacritic-insensitive
		{"chai", "Chai"}, // canonical spelling restored
		{"kg", "Kg"},
		{"KG", "Kg"},
		{"thùng-20", "THÙNG-20"},
		{"vỉ-2", "Vỉ-2"},
		{"lốc 6", "LỐC-6"}, // separator folded by the slug
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanonicalUnit(tc.in), "input %q", tc.in)
	}
}

func TestCanonicalUnit_UnknownPassesThrough(t *testing.T) {
	// The vocabulary dedups, it does not gatekeep: units the store has
	// never used come back verbatim.
	assert.Equal(t, "Pallet", CanonicalUnit("Pallet"))
	assert.Equal(t, "khay-5", CanonicalUnit("khay-5"))
}

func TestEmployeeIsActive(t *testing.T) {
	assert.True(t, (&Employee{Status: "Active"}).IsActive())
	assert.True(t, (&Employee{Status: " active "}).IsActive())
	assert.False(t, (&Employee{Status: "Left"}).IsActive())
	assert.False(t, (&Employee{Status: ""}).IsActive())
}

func TestValidSubmissionResult(t *testing.T) {
	assert.True(t, CheckResultCorrect.ValidSubmissionResult())
	assert.True(t, CheckResultNeedsCorrection.ValidSubmissionResult())
	assert.True(t, CheckResultIncorrect.ValidSubmissionResult())
	assert.False(t, CheckResultRejected.ValidSubmissionResult())
	assert.False(t, CheckResult("").ValidSubmissionResult())
	assert.False(t, CheckResult("fine").ValidSubmissionResult())
}
