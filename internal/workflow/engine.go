package workflow

import (
	"errors"
	"fmt"
	"time"

	"github.com/quangtd/shelfcheck-golang/internal/models"
)

// Sentinel errors. Handlers map these to HTTP statuses; everything else
// coming out of the engine or service is a 500.
var (
	ErrNotFound           = errors.New("product not found")
	ErrAlreadyExists      = errors.New("product already exists")
	ErrInvalidResult      = errors.New("invalid check_result")
	ErrPrerequisiteNotMet = errors.New("first check not completed yet")
	ErrTooManyImages      = fmt.Errorf("a check accepts at most %d images", models.MaxCheckImages)
	ErrValidation         = errors.New("validation failed")
)

// Submission is one check form as filled in by a checker. The proposed
// fields are only meaningful when Result is "needs_correction".
type Submission struct {
	Actor          string
	Result         models.CheckResult
	NewProductName *string
	NewUnit        *string
	NewBarcode     *string
	NewPrice       *float64
	Stock          *int
	Images         []string
}

// OfficialFields is the trusted part of a product record. The engine
// receives a copy so DecideApproval can compute the committed values
// without touching storage.
type OfficialFields struct {
	Name  string
	Price float64
	Unit  string
}

// Transition is the outcome of one engine operation: the workflow state
// to persist, plus the official fields to commit when an approval
// applied staged corrections (nil otherwise).
type Transition struct {
	State    models.VerificationState
	Official *OfficialFields

	// Overwritten is set when a second check discarded the data of a
	// prior submission. Logged for traceability, never branched on.
	Overwritten bool
}

func validateSubmission(sub Submission) error {
	if !sub.Result.ValidSubmissionResult() {
		return fmt.Errorf("%w: %q", ErrInvalidResult, sub.Result)
	}
	if len(sub.Images) > models.MaxCheckImages {
		return ErrTooManyImages
	}
	if sub.NewPrice != nil && *sub.NewPrice < 0 {
		return fmt.Errorf("%w: new_price must not be negative", ErrValidation)
	}
	if sub.NewProductName != nil && *sub.NewProductName == "" {
		return fmt.Errorf("%w: new_product_name must not be empty", ErrValidation)
	}
	if sub.NewUnit != nil && *sub.NewUnit == "" {
		return fmt.Errorf("%w: new_unit must not be empty", ErrValidation)
	}
	return nil
}

// applySubmission builds the post-check state. A check always replaces
// the previous submission wholesale — staged fields and images are
// cleared first, never merged.
func applySubmission(current models.VerificationState, sub Submission, now time.Time) models.VerificationState {
	next := models.VerificationState{
		FirstCheckDone:  true,
		SecondCheckDone: current.SecondCheckDone,
	}

	actor := sub.Actor
	result := sub.Result
	next.CheckedBy = &actor
	next.CheckedAt = &now
	next.CheckResult = &result

	// Staged corrections only survive a non-"correct" result. A client
	// sending proposed values together with result=correct is a stale
	// form; the values are dropped here so they can never be committed.
	if result != models.CheckResultCorrect {
		next.NewProductName = sub.NewProductName
		next.NewUnit = sub.NewUnit
		next.NewBarcode = sub.NewBarcode
		next.NewPrice = sub.NewPrice
	}

	next.Stock = sub.Stock
	next.Images = sub.Images
	return next
}

// SubmitFirstCheck records a staff check. It may run any number of
// times against any prior state — re-submission simply overwrites the
// previous first check, which is how staff fix their own mistakes
// before a supervisor looks at the product.
func SubmitFirstCheck(current models.VerificationState, sub Submission, now time.Time) (Transition, error) {
	if err := validateSubmission(sub); err != nil {
		return Transition{}, err
	}
	return Transition{State: applySubmission(current, sub, now)}, nil
}

// SubmitSecondCheck records a supervisor re-check. The supervisor's
// submission is authoritative: it replaces the first checker's data
// rather than annotating it, and marks the product fully checked.
func SubmitSecondCheck(current models.VerificationState, sub Submission, now time.Time) (Transition, error) {
	if !current.FirstCheckDone {
		return Transition{}, ErrPrerequisiteNotMet
	}
	if err := validateSubmission(sub); err != nil {
		return Transition{}, err
	}

	next := applySubmission(current, sub, now)
	next.SecondCheckDone = true
	return Transition{State: next, Overwritten: current.CheckedBy != nil}, nil
}

// DecideApproval is the dashboard alternative to a full re-check: the
// supervisor approves or rejects the staged first check.
//
// Approve on "needs_correction" commits each staged field that is
// present into the official record; absent fields leave the official
// value untouched. Approve on anything else just completes the
// workflow. Reject resets both check flags so the product re-enters
// the pending-first-check pool; the staged fields and images stay on
// the row as a trace of what was rejected.
func DecideApproval(current models.VerificationState, official OfficialFields, approved bool) (Transition, error) {
	if !current.FirstCheckDone {
		return Transition{}, ErrPrerequisiteNotMet
	}

	next := current

	if !approved {
		rejected := models.CheckResultRejected
		next.FirstCheckDone = false
		next.SecondCheckDone = false
		next.CheckResult = &rejected
		return Transition{State: next}, nil
	}

	next.SecondCheckDone = true

	// Only "needs_correction" ever commits staged data. "incorrect"
	// means the listing itself is wrong and needs out-of-band handling,
	// so approving it must not rewrite the official fields.
	if current.CheckResult == nil || *current.CheckResult != models.CheckResultNeedsCorrection {
		return Transition{State: next}, nil
	}

	committed := official
	if current.NewProductName != nil {
		committed.Name = *current.NewProductName
	}
	if current.NewUnit != nil {
		committed.Unit = models.CanonicalUnit(*current.NewUnit)
	}
	if current.NewPrice != nil {
		committed.Price = *current.NewPrice
	}
	return Transition{State: next, Official: &committed}, nil
}
