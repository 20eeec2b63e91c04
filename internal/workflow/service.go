package workflow

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/quangtd/shelfcheck-golang/internal/models"
)

// ProductRepository is the durable store of product rows. The MySQL
// implementation lives in internal/repository; tests use an in-memory
// fake.
type ProductRepository interface {
	GetByBarcode(ctx context.Context, barcode string) (*models.Product, error)
	Insert(ctx context.Context, p *models.Product) error

	// ApplyTransition persists the workflow fields of one row, plus the
	// official fields when official is non-nil, in a single statement.
	ApplyTransition(ctx context.Context, barcode string, state models.VerificationState, official *OfficialFields) error

	List(ctx context.Context, limit, offset int) ([]*models.Product, int, error)
	Search(ctx context.Context, term string, limit, offset int) ([]*models.Product, int, error)
	ListPendingFirstCheck(ctx context.Context, limit, offset int) ([]*models.Product, error)
	ListPendingSecondCheck(ctx context.Context, limit, offset int) ([]*models.Product, error)
	Stats(ctx context.Context) (*models.CheckWorkflowStats, error)
}

// BlobStore persists captured photos and hands back a stable reference
// path that clients resolve against the static file base.
type BlobStore interface {
	Save(data []byte, ext string) (string, error)
	IsRef(s string) bool
}

// Service is the only component allowed to read-modify-write a product
// record. It loads the row, runs the engine, and persists the result.
type Service struct {
	Repo  ProductRepository
	Blobs BlobStore
	Now   func() time.Time
}

func NewService(repo ProductRepository, blobs BlobStore) *Service {
	return &Service{Repo: repo, Blobs: blobs, Now: time.Now}
}

// GetProduct fetches one record by barcode.
func (s *Service) GetProduct(ctx context.Context, barcode string) (*models.Product, error) {
	return s.Repo.GetByBarcode(ctx, barcode)
}

// CreateProduct registers a product staff scanned but could not find.
// The new row starts with all workflow fields at their defaults: the
// creator still has to submit an explicit first check.
func (s *Service) CreateProduct(ctx context.Context, barcode, name string, price float64, unit string, owner *string) (*models.Product, error) {
	barcode = strings.TrimSpace(barcode)
	name = strings.TrimSpace(name)
	unit = strings.TrimSpace(unit)

	switch {
	case barcode == "":
		return nil, fmt.Errorf("%w: barcode is required", ErrValidation)
	case name == "":
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	case unit == "":
		return nil, fmt.Errorf("%w: unit is required", ErrValidation)
	case price < 0:
		return nil, fmt.Errorf("%w: price must not be negative", ErrValidation)
	}

	now := s.Now()
	product := &models.Product{
		Barcode:   barcode,
		Name:      name,
		Price:     price,
		Unit:      models.CanonicalUnit(unit),
		Owner:     owner,
		CreatedAt: now,
		UpdatedAt: now,
		VerificationState: models.VerificationState{
			Images: []string{},
		},
	}

	if err := s.Repo.Insert(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// SubmitFirstCheck runs a staff check against the current row and
// persists the resulting state. Returns the refreshed record.
func (s *Service) SubmitFirstCheck(ctx context.Context, barcode string, sub Submission) (*models.Product, error) {
	return s.submitCheck(ctx, barcode, sub, SubmitFirstCheck)
}

// SubmitSecondCheck runs a supervisor re-check. Fails with
// ErrPrerequisiteNotMet when the first check has not happened.
func (s *Service) SubmitSecondCheck(ctx context.Context, barcode string, sub Submission) (*models.Product, error) {
	return s.submitCheck(ctx, barcode, sub, SubmitSecondCheck)
}

type engineOp func(models.VerificationState, Submission, time.Time) (Transition, error)

func (s *Service) submitCheck(ctx context.Context, barcode string, sub Submission, op engineOp) (*models.Product, error) {
	product, err := s.Repo.GetByBarcode(ctx, barcode)
	if err != nil {
		return nil, err
	}

	// Store raw photos before the row update. A failure between blob
	// write and row write orphans a file; that is tolerated, the blob
	// store is append-only and cheap.
	refs, err := s.storeImages(sub.Images)
	if err != nil {
		return nil, err
	}
	sub.Images = refs
	if sub.NewUnit != nil && *sub.NewUnit != "" {
		canonical := models.CanonicalUnit(*sub.NewUnit)
		sub.NewUnit = &canonical
	}

	transition, err := op(product.VerificationState, sub, s.Now())
	if err != nil {
		return nil, err
	}
	if transition.Overwritten {
		log.Printf("second check by %s overwrote submission of %s on product %s",
			sub.Actor, *product.CheckedBy, barcode)
	}

	if err := s.Repo.ApplyTransition(ctx, barcode, transition.State, nil); err != nil {
		return nil, err
	}

	product.VerificationState = transition.State
	product.RefreshChecked()
	return product, nil
}

// DecideApproval applies a supervisor approve/reject decision. Returns
// the refreshed record and whether staged corrections were committed.
func (s *Service) DecideApproval(ctx context.Context, barcode string, approved bool, actor string) (*models.Product, bool, error) {
	product, err := s.Repo.GetByBarcode(ctx, barcode)
	if err != nil {
		return nil, false, err
	}

	official := OfficialFields{Name: product.Name, Price: product.Price, Unit: product.Unit}
	transition, err := DecideApproval(product.VerificationState, official, approved)
	if err != nil {
		return nil, false, err
	}

	if err := s.Repo.ApplyTransition(ctx, barcode, transition.State, transition.Official); err != nil {
		return nil, false, err
	}

	if !approved {
		log.Printf("product %s rejected by %s, returned to pending first check", barcode, actor)
	}

	product.VerificationState = transition.State
	if transition.Official != nil {
		product.Name = transition.Official.Name
		product.Price = transition.Official.Price
		product.Unit = transition.Official.Unit
	}
	product.RefreshChecked()
	return product, transition.Official != nil, nil
}

// storeImages turns inline base64 payloads into blob references.
// References that already point into the blob store pass through, so
// re-submitting a check with the server's own response is idempotent.
func (s *Service) storeImages(images []string) ([]string, error) {
	if len(images) > models.MaxCheckImages {
		return nil, ErrTooManyImages
	}
	refs := make([]string, 0, len(images))
	for _, img := range images {
		if img == "" {
			continue
		}
		if s.Blobs.IsRef(img) {
			refs = append(refs, img)
			continue
		}
		data, ext, err := DecodeDataURL(img)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		ref, err := s.Blobs.Save(data, ext)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// UpdateProduct is the direct-edit path around the workflow: fix a
// field without staging it for approval. Only the fields present in
// the request change.
func (s *Service) UpdateProduct(ctx context.Context, barcode string, name *string, price *float64, unit *string) (*models.Product, error) {
	product, err := s.Repo.GetByBarcode(ctx, barcode)
	if err != nil {
		return nil, err
	}

	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: name must not be empty", ErrValidation)
		}
		product.Name = trimmed
	}
	if price != nil {
		if *price < 0 {
			return nil, fmt.Errorf("%w: price must not be negative", ErrValidation)
		}
		product.Price = *price
	}
	if unit != nil {
		trimmed := strings.TrimSpace(*unit)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: unit must not be empty", ErrValidation)
		}
		product.Unit = models.CanonicalUnit(trimmed)
	}

	official := OfficialFields{Name: product.Name, Price: product.Price, Unit: product.Unit}
	if err := s.Repo.ApplyTransition(ctx, barcode, product.VerificationState, &official); err != nil {
		return nil, err
	}
	return product, nil
}

// --- Read-only aggregations ---

func (s *Service) ListProducts(ctx context.Context, limit, offset int) ([]*models.Product, int, error) {
	return s.Repo.List(ctx, clampLimit(limit), clampOffset(offset))
}

func (s *Service) Search(ctx context.Context, term string, limit, offset int) ([]*models.Product, int, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.ListProducts(ctx, limit, offset)
	}
	return s.Repo.Search(ctx, term, clampLimit(limit), clampOffset(offset))
}

func (s *Service) ListPendingFirstCheck(ctx context.Context, limit, offset int) ([]*models.Product, error) {
	return s.Repo.ListPendingFirstCheck(ctx, clampLimit(limit), clampOffset(offset))
}

func (s *Service) ListPendingSecondCheck(ctx context.Context, limit, offset int) ([]*models.Product, error) {
	return s.Repo.ListPendingSecondCheck(ctx, clampLimit(limit), clampOffset(offset))
}

// Stats returns the workflow counters with the derived completion
// percentage filled in (0 on an empty catalog, never a division by
// zero).
func (s *Service) Stats(ctx context.Context) (*models.CheckWorkflowStats, error) {
	stats, err := s.Repo.Stats(ctx)
	if err != nil {
		return nil, err
	}
	stats.ProgressPercentage = 0
	if stats.Total > 0 {
		stats.ProgressPercentage = int(float64(stats.Completed)/float64(stats.Total)*100 + 0.5)
	}
	return stats, nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 200 {
		return 50
	}
	return limit
}

func clampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
