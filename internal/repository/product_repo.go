package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/quangtd/shelfcheck-golang/internal/models"
	"github.com/quangtd/shelfcheck-golang/internal/workflow"
)

// productColumns is every column of the 'products' table, in the order
// scanProduct expects them.
const productColumns = `
	barcode, name, price, unit, owner,
	first_check, second_check, checked_by, checked_at, check_result,
	new_product_name, new_unit, new_barcode, new_price, stock,
	images, created_at, updated_at`

// ProductRepo is the MySQL implementation of workflow.ProductRepository.
type ProductRepo struct {
	DB *sql.DB
}

func NewProductRepo(db *sql.DB) *ProductRepo {
	return &ProductRepo{DB: db}
}

// scanProduct maps one row onto a models.Product. Images are stored as
// a JSON array column; NULL or empty scans to an empty slice so the
// API never serializes "images": null.
func scanProduct(row interface{ Scan(...any) error }) (*models.Product, error) {
	var p models.Product
	var result sql.NullString
	var dbImages []byte

	err := row.Scan(
		&p.Barcode, &p.Name, &p.Price, &p.Unit, &p.Owner,
		&p.FirstCheckDone, &p.SecondCheckDone, &p.CheckedBy, &p.CheckedAt, &result,
		&p.NewProductName, &p.NewUnit, &p.NewBarcode, &p.NewPrice, &p.Stock,
		&dbImages, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if result.Valid {
		r := models.CheckResult(result.String)
		p.CheckResult = &r
	}

	p.Images = []string{}
	if len(dbImages) > 0 {
		_ = json.Unmarshal(dbImages, &p.Images)
	}

	p.RefreshChecked()
	return &p, nil
}

// GetByBarcode fetches one product row.
func (r *ProductRepo) GetByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE barcode = ? LIMIT 1`

	p, err := scanProduct(r.DB.QueryRowContext(ctx, query, barcode))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, workflow.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// Insert creates a new product row. A duplicate barcode surfaces as
// workflow.ErrAlreadyExists.
func (r *ProductRepo) Insert(ctx context.Context, p *models.Product) error {
	// Check-then-insert, not upsert: the 409 needs a clean error, and
	// concurrent creates of the same barcode are not a real scenario
	// (one scanner is standing in front of the shelf).
	var existing string
	err := r.DB.QueryRowContext(ctx, `SELECT barcode FROM products WHERE barcode = ? LIMIT 1`, p.Barcode).Scan(&existing)
	if err == nil {
		return workflow.ErrAlreadyExists
	}
	if err != sql.ErrNoRows {
		return err
	}

	query := `
		INSERT INTO products
		(barcode, name, price, unit, owner,
		 first_check, second_check, images, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 0, 0, ?, ?, ?)`

	imagesJSON, _ := json.Marshal([]string{})
	_, err = r.DB.ExecContext(ctx, query,
		p.Barcode, p.Name, p.Price, p.Unit, p.Owner,
		string(imagesJSON), p.CreatedAt, p.UpdatedAt,
	)
	return err
}

// ApplyTransition writes the workflow fields of one row, and the
// official fields when a commit rode along, as a single UPDATE. One
// statement means no partial workflow state is ever visible.
func (r *ProductRepo) ApplyTransition(ctx context.Context, barcode string, state models.VerificationState, official *workflow.OfficialFields) error {
	imagesJSON, _ := json.Marshal(state.Images)
	if state.Images == nil {
		imagesJSON = []byte("[]")
	}

	querySet := `
		first_check = ?, second_check = ?, checked_by = ?, checked_at = ?,
		check_result = ?, new_product_name = ?, new_unit = ?, new_barcode = ?,
		new_price = ?, stock = ?, images = ?, updated_at = ?`
	queryArgs := []any{
		state.FirstCheckDone, state.SecondCheckDone, state.CheckedBy, state.CheckedAt,
		checkResultArg(state.CheckResult), state.NewProductName, state.NewUnit, state.NewBarcode,
		state.NewPrice, state.Stock, string(imagesJSON), time.Now(),
	}

	if official != nil {
		querySet += `, name = ?, unit = ?, price = ?`
		queryArgs = append(queryArgs, official.Name, official.Unit, official.Price)
	}

	queryArgs = append(queryArgs, barcode)
	query := fmt.Sprintf("UPDATE products SET %s WHERE barcode = ?", querySet)

	result, err := r.DB.ExecContext(ctx, query, queryArgs...)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		// The row existed when the service loaded it, so this only
		// happens if it was deleted out from under us.
		return workflow.ErrNotFound
	}
	return nil
}

func checkResultArg(r *models.CheckResult) any {
	if r == nil {
		return nil
	}
	return string(*r)
}

// List returns a page of products ordered by name, plus the total count.
func (r *ProductRepo) List(ctx context.Context, limit, offset int) ([]*models.Product, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + productColumns + ` FROM products ORDER BY name ASC LIMIT ? OFFSET ?`
	products, err := r.queryProducts(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// Search matches the term against name and barcode. Rows whose name
// starts with the term rank first, then barcode-prefix matches, then
// everything else — so scanning a partial barcode surfaces the obvious
// candidate at the top.
func (r *ProductRepo) Search(ctx context.Context, term string, limit, offset int) ([]*models.Product, int, error) {
	pattern := "%" + term + "%"
	prefix := term + "%"

	var total int
	countQuery := `SELECT COUNT(*) FROM products WHERE name LIKE ? OR barcode LIKE ?`
	if err := r.DB.QueryRowContext(ctx, countQuery, pattern, pattern).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + productColumns + `
		FROM products
		WHERE name LIKE ? OR barcode LIKE ?
		ORDER BY
			CASE
				WHEN name LIKE ? THEN 1
				WHEN barcode LIKE ? THEN 2
				ELSE 3
			END,
			name ASC
		LIMIT ? OFFSET ?`

	products, err := r.queryProducts(ctx, query, pattern, pattern, prefix, prefix, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// ListPendingFirstCheck returns products still waiting for a staff check.
func (r *ProductRepo) ListPendingFirstCheck(ctx context.Context, limit, offset int) ([]*models.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products
		WHERE first_check = 0
		ORDER BY name ASC
		LIMIT ? OFFSET ?`
	return r.queryProducts(ctx, query, limit, offset)
}

// ListPendingSecondCheck returns first-checked products waiting for a
// supervisor, newest submission first, staged fields included.
func (r *ProductRepo) ListPendingSecondCheck(ctx context.Context, limit, offset int) ([]*models.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products
		WHERE first_check = 1 AND second_check = 0
		ORDER BY checked_at DESC
		LIMIT ? OFFSET ?`
	return r.queryProducts(ctx, query, limit, offset)
}

func (r *ProductRepo) queryProducts(ctx context.Context, query string, args ...any) ([]*models.Product, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []*models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Stats aggregates the workflow counters in one pass over the table.
// COALESCE keeps the SUMs at 0 instead of NULL on an empty table.
func (r *ProductRepo) Stats(ctx context.Context) (*models.CheckWorkflowStats, error) {
	query := `
		SELECT
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN first_check = 0 THEN 1 ELSE 0 END), 0) AS pending_first_check,
			COALESCE(SUM(CASE WHEN first_check = 1 AND second_check = 0 THEN 1 ELSE 0 END), 0) AS pending_second_check,
			COALESCE(SUM(CASE WHEN first_check = 1 AND second_check = 1 THEN 1 ELSE 0 END), 0) AS completed,
			COALESCE(SUM(CASE WHEN check_result = 'correct' THEN 1 ELSE 0 END), 0) AS correct_count,
			COALESCE(SUM(CASE WHEN check_result = 'needs_correction' THEN 1 ELSE 0 END), 0) AS needs_correction_count,
			COALESCE(SUM(CASE WHEN check_result = 'incorrect' THEN 1 ELSE 0 END), 0) AS incorrect_count
		FROM products`

	stats := &models.CheckWorkflowStats{}
	err := r.DB.QueryRowContext(ctx, query).Scan(
		&stats.Total,
		&stats.PendingFirstCheck,
		&stats.PendingSecondCheck,
		&stats.Completed,
		&stats.CorrectCount,
		&stats.NeedsCorrectionCount,
		&stats.IncorrectCount,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// FindEmployee looks a username up for login. Status filtering is the
// caller's job; the row comes back whatever its status says.
func (r *ProductRepo) FindEmployee(ctx context.Context, username string) (*models.Employee, error) {
	query := `SELECT username, employee_name, status, role FROM employees WHERE username = ? LIMIT 1`

	var e models.Employee
	var displayName sql.NullString
	err := r.DB.QueryRowContext(ctx, query, username).Scan(&e.Username, &displayName, &e.Status, &e.Role)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, workflow.ErrNotFound
		}
		return nil, err
	}

	e.EmployeeName = e.Username
	if displayName.Valid && displayName.String != "" {
		e.EmployeeName = displayName.String
	}
	return &e, nil
}
