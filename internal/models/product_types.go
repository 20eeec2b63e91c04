package models

import (
	"time"
)

// CheckResult is the closed set of outcomes a checker can record.
// It is validated at the service boundary; the database column is a
// plain VARCHAR, so never trust a raw string from a row without it.
type CheckResult string

const (
	CheckResultCorrect         CheckResult = "correct"
	CheckResultNeedsCorrection CheckResult = "needs_correction"
	CheckResultIncorrect       CheckResult = "incorrect"
	CheckResultRejected        CheckResult = "rejected"
)

// ValidSubmissionResult reports whether r is a result a checker may
// submit. "rejected" is reserved for the approval decision and is
// never accepted from a check form.
func (r CheckResult) ValidSubmissionResult() bool {
	switch r {
	case CheckResultCorrect, CheckResultNeedsCorrection, CheckResultIncorrect:
		return true
	}
	return false
}

// MaxCheckImages is the hard cap on photos per check submission.
const MaxCheckImages = 3

// VerificationState holds the double-check workflow fields of a product.
// Only the latest submission survives; there is no history table.
type VerificationState struct {
	FirstCheckDone  bool         `json:"first_check" db:"first_check"`
	SecondCheckDone bool         `json:"second_check" db:"second_check"`
	CheckedBy       *string      `json:"checked_by" db:"checked_by"`
	CheckedAt       *time.Time   `json:"checked_at" db:"checked_at"`
	CheckResult     *CheckResult `json:"check_result" db:"check_result"`

	// Staged corrections. Populated by a check with result
	// "needs_correction"; committed into the official fields only by
	// an approval decision.
	NewProductName *string  `json:"new_product_name" db:"new_product_name"`
	NewUnit        *string  `json:"new_unit" db:"new_unit"`
	NewBarcode     *string  `json:"new_barcode" db:"new_barcode"`
	NewPrice       *float64 `json:"new_price" db:"new_price"`

	// Last physically counted quantity. Optional, set by checks only.
	Stock *int `json:"stock" db:"stock"`

	// Blob references of the photos taken during the latest check.
	// Length is always <= MaxCheckImages.
	Images []string `json:"images"`
}

// Product is the model for the 'products' table.
// [NOTE]: Pointers for nullable columns, same convention as the rest
// of the models: nil = column is NULL, clean "null" in JSON.
type Product struct {
	Barcode string  `json:"barcode" db:"barcode"`
	Name    string  `json:"name" db:"name"`
	Price   float64 `json:"price" db:"price"`
	Unit    string  `json:"unit" db:"unit"`
	Owner   *string `json:"owner,omitempty" db:"owner"`

	// Convenience flag for the list screens: fully verified.
	Checked bool `json:"checked"`

	VerificationState

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// RefreshChecked recomputes the derived Checked flag after a
// transition has been applied.
func (p *Product) RefreshChecked() {
	p.Checked = p.FirstCheckDone && p.SecondCheckDone
}

// CheckWorkflowStats is the aggregation returned by the stats endpoint.
type CheckWorkflowStats struct {
	Total                int `json:"total"`
	PendingFirstCheck    int `json:"pending_first_check"`
	PendingSecondCheck   int `json:"pending_second_check"`
	Completed            int `json:"completed"`
	CorrectCount         int `json:"correct_count"`
	NeedsCorrectionCount int `json:"needs_correction_count"`
	IncorrectCount       int `json:"incorrect_count"`
	ProgressPercentage   int `json:"progress_percentage"`
}
