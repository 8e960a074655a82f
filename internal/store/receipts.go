package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/peluchemania/backend/internal/database"
	"github.com/peluchemania/backend/internal/models"
	"github.com/shopspring/decimal"
)

// PickupAddress is stored on receipts for carts submitted without a shipping
// address: the buyer collects the order at the store.
const PickupAddress = "Retiro en tienda"

type ShippingAddress struct {
	Calle  string `json:"calle"`
	Comuna string `json:"comuna"`
	Region string `json:"region"`
}

type PurchaseItem struct {
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
}

// PurchaseRequest is a submitted cart. Total and per-item unit prices are
// caller-supplied and persisted as given; the server does not recompute them
// from the catalog.
type PurchaseRequest struct {
	UserEmail       string
	Total           decimal.Decimal
	ShippingAddress *ShippingAddress
	Items           []PurchaseItem
}

const (
	ItemStatusOK              = "ok"
	ItemStatusSkippedNotFound = "skipped_not_found"
)

// ItemResult reports what happened to one cart item, so callers can tell a
// fully fulfilled purchase from one where items were dropped.
type ItemResult struct {
	ProductID int64  `json:"id"`
	Status    string `json:"status"`
}

type PurchaseResult struct {
	Receipt *models.Receipt
	Items   []ItemResult
}

var (
	ErrMissingPurchaser = errors.New("purchaser email is required")
	ErrEmptyCart        = errors.New("cart has no items")
	ErrInvalidQuantity  = errors.New("item quantity must be positive")
	ErrNegativePrice    = errors.New("item unit price must not be negative")
	ErrNegativeTotal    = errors.New("total must not be negative")
)

// Validate rejects malformed carts before any write happens.
func (r *PurchaseRequest) Validate() error {
	if r.UserEmail == "" {
		return ErrMissingPurchaser
	}
	if r.Total.IsNegative() {
		return ErrNegativeTotal
	}
	if len(r.Items) == 0 {
		return ErrEmptyCart
	}
	for _, item := range r.Items {
		if item.Quantity <= 0 {
			return ErrInvalidQuantity
		}
		if item.UnitPrice.IsNegative() {
			return ErrNegativePrice
		}
	}
	return nil
}

// DisplayAddress renders the address snapshot stored on the receipt:
// "<calle>, <comuna>, <region>", or PickupAddress when no shipping address
// was submitted.
func DisplayAddress(addr *ShippingAddress) string {
	if addr == nil {
		return PickupAddress
	}
	return fmt.Sprintf("%s, %s, %s", addr.Calle, addr.Comuna, addr.Region)
}

// ProcessPurchase turns a cart into a durable receipt and applies its stock
// effect, all inside one transaction: header first, then per item (in input
// order) a row-locked product lookup, a receipt line, and a floored stock
// decrement. Items whose product id does not resolve produce no line and no
// stock change; they are reported as skipped in the result. A cart whose
// items all fail to resolve still yields a receipt with zero lines.
func ProcessPurchase(ctx context.Context, db *sql.DB, req PurchaseRequest) (*PurchaseResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	address := DisplayAddress(req.ShippingAddress)
	number := uuid.NewString()

	var receipt *models.Receipt
	var results []ItemResult

	// Read committed is enough here: every stock effect happens as a single
	// statement under a FOR UPDATE row lock, so concurrent checkouts for the
	// same product serialize without serialization-failure churn.
	err := database.WithRetry(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		// Retries re-run the whole closure; start clean.
		results = results[:0]

		var receiptID int64
		err := tx.QueryRowContext(ctx,
			`INSERT INTO receipts (number, user_email, total, address, created_at)
			 VALUES ($1, $2, $3, $4, NOW())
			 RETURNING id`,
			number, req.UserEmail, req.Total, address).Scan(&receiptID)
		if err != nil {
			return fmt.Errorf("create receipt: %w", err)
		}

		for _, item := range req.Items {
			_, err := lockProduct(ctx, tx, item.ProductID)
			if err != nil {
				if errors.Is(err, database.ErrProductNotFound) {
					results = append(results, ItemResult{ProductID: item.ProductID, Status: ItemStatusSkippedNotFound})
					continue
				}
				return err
			}

			_, err = tx.ExecContext(ctx,
				`INSERT INTO receipt_lines (receipt_id, product_id, quantity, unit_price, created_at)
				 VALUES ($1, $2, $3, $4, NOW())`,
				receiptID, item.ProductID, item.Quantity, item.UnitPrice)
			if err != nil {
				return fmt.Errorf("create receipt line: %w", err)
			}

			if err := decrementStockFloor(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}

			results = append(results, ItemResult{ProductID: item.ProductID, Status: ItemStatusOK})
		}

		receipt = &models.Receipt{}
		err = tx.QueryRowContext(ctx,
			`SELECT id, number, user_email, total, address, created_at
			 FROM receipts WHERE id = $1`,
			receiptID).Scan(
			&receipt.ID,
			&receipt.Number,
			&receipt.UserEmail,
			&receipt.Total,
			&receipt.Address,
			&receipt.Date,
		)
		if err != nil {
			return fmt.Errorf("fetch created receipt: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return &PurchaseResult{Receipt: receipt, Items: results}, nil
}

func GetReceipt(ctx context.Context, db *sql.DB, id int64) (*models.Receipt, error) {
	receipt := &models.Receipt{}

	err := db.QueryRowContext(ctx,
		`SELECT id, number, user_email, total, address, created_at
		 FROM receipts WHERE id = $1`,
		id).Scan(
		&receipt.ID,
		&receipt.Number,
		&receipt.UserEmail,
		&receipt.Total,
		&receipt.Address,
		&receipt.Date,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrReceiptNotFound
		}
		return nil, fmt.Errorf("get receipt: %w", err)
	}

	return receipt, nil
}

func ListReceipts(ctx context.Context, db *sql.DB) ([]models.Receipt, error) {
	return queryReceipts(ctx, db,
		`SELECT id, number, user_email, total, address, created_at
		 FROM receipts ORDER BY created_at DESC, id DESC`)
}

func ListReceiptsByEmail(ctx context.Context, db *sql.DB, email string) ([]models.Receipt, error) {
	return queryReceipts(ctx, db,
		`SELECT id, number, user_email, total, address, created_at
		 FROM receipts WHERE user_email = $1
		 ORDER BY created_at DESC, id DESC`, email)
}

func queryReceipts(ctx context.Context, db *sql.DB, query string, args ...any) ([]models.Receipt, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	defer rows.Close()

	var receipts []models.Receipt
	for rows.Next() {
		var receipt models.Receipt
		err := rows.Scan(
			&receipt.ID,
			&receipt.Number,
			&receipt.UserEmail,
			&receipt.Total,
			&receipt.Address,
			&receipt.Date,
		)
		if err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		receipts = append(receipts, receipt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return receipts, nil
}

// GetReceiptLines returns the lines of one receipt in the order they were
// written, with the referenced product embedded. A receipt with no lines and
// a receipt that does not exist both yield an empty slice; the two cases are
// not distinguished. Reads have no side effects.
func GetReceiptLines(ctx context.Context, db *sql.DB, receiptID int64) ([]models.ReceiptLine, error) {
	query := fmt.Sprintf(`
		SELECT l.id, l.receipt_id, l.product_id, l.quantity, l.unit_price, l.created_at,
		       %s
		FROM receipt_lines l
		JOIN products p ON p.id = l.product_id
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE l.receipt_id = $1
		ORDER BY l.id`, productColumns)

	rows, err := db.QueryContext(ctx, query, receiptID)
	if err != nil {
		return nil, fmt.Errorf("get receipt lines: %w", err)
	}
	defer rows.Close()

	lines := []models.ReceiptLine{}
	for rows.Next() {
		var line models.ReceiptLine
		product := &models.Product{}
		var catID sql.NullInt64
		var catName sql.NullString

		err := rows.Scan(
			&line.ID,
			&line.ReceiptID,
			&line.ProductID,
			&line.Quantity,
			&line.UnitPrice,
			&line.CreatedAt,
			&product.ID,
			&product.Name,
			&product.Description,
			&product.Price,
			&product.Stock,
			&product.OnSale,
			&product.Discount,
			&product.CategoryID,
			&product.ImageURL,
			&product.CreatedAt,
			&product.UpdatedAt,
			&catID,
			&catName,
		)
		if err != nil {
			return nil, fmt.Errorf("scan receipt line: %w", err)
		}

		if catID.Valid {
			product.Category = &models.Category{ID: catID.Int64, Name: catName.String}
		}
		line.Product = product
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return lines, nil
}
