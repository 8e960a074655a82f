package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/peluchemania/backend/internal/database"
	"github.com/peluchemania/backend/internal/models"
	"github.com/shopspring/decimal"
)

// LowStockThreshold is the default cutoff for the critical-stock report.
const LowStockThreshold = 5

type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	OnSale      bool
	Discount    float64
	CategoryID  *int64
	ImageURL    string
}

const productColumns = `p.id, p.name, p.description, p.price, p.stock, p.on_sale, p.discount,
	       p.category_id, p.image_url, p.created_at, p.updated_at,
	       c.id, c.name`

func scanProduct(row interface{ Scan(...any) error }) (*models.Product, error) {
	product := &models.Product{}
	var catID sql.NullInt64
	var catName sql.NullString

	err := row.Scan(
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
		return nil, err
	}

	if catID.Valid {
		product.Category = &models.Category{ID: catID.Int64, Name: catName.String}
	}

	return product, nil
}

func CreateProduct(ctx context.Context, db *sql.DB, in ProductInput) (*models.Product, error) {
	var id int64
	err := db.QueryRowContext(ctx,
		`INSERT INTO products (name, description, price, stock, on_sale, discount, category_id, image_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		 RETURNING id`,
		in.Name, in.Description, in.Price, in.Stock, in.OnSale, in.Discount, in.CategoryID, in.ImageURL).Scan(&id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, database.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("create product: %w", err)
	}

	return GetProduct(ctx, db, id)
}

func GetProduct(ctx context.Context, db *sql.DB, id int64) (*models.Product, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1`, productColumns)

	product, err := scanProduct(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

func UpdateProduct(ctx context.Context, db *sql.DB, id int64, in ProductInput) (*models.Product, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE products
		 SET name = $1, description = $2, price = $3, stock = $4,
		     on_sale = $5, discount = $6, category_id = $7, image_url = $8,
		     updated_at = NOW()
		 WHERE id = $9`,
		in.Name, in.Description, in.Price, in.Stock, in.OnSale, in.Discount, in.CategoryID, in.ImageURL, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, database.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, database.ErrProductNotFound
	}

	return GetProduct(ctx, db, id)
}

// DeleteProduct refuses to remove a product that has been sold: receipt lines
// keep a foreign key to it, and the caller gets ErrProductInUse so the API
// can answer with a conflict instead of a generic failure.
func DeleteProduct(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return database.ErrProductInUse
		}
		return fmt.Errorf("delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrProductNotFound
	}

	return nil
}

func ListProducts(ctx context.Context, db *sql.DB) ([]models.Product, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		ORDER BY p.id`, productColumns)

	return queryProducts(ctx, db, query)
}

func ListProductsByCategory(ctx context.Context, db *sql.DB, categoryID int64) ([]models.Product, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.category_id = $1
		ORDER BY p.id`, productColumns)

	return queryProducts(ctx, db, query, categoryID)
}

func ListProductsBelowStock(ctx context.Context, db *sql.DB, threshold int) ([]models.Product, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.stock < $1
		ORDER BY p.stock, p.id`, productColumns)

	return queryProducts(ctx, db, query, threshold)
}

func queryProducts(ctx context.Context, db *sql.DB, query string, args ...any) ([]models.Product, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return products, nil
}

// lockProduct takes a row lock on the product so concurrent checkouts for the
// same product serialize instead of racing the stock counter.
func lockProduct(ctx context.Context, tx *sql.Tx, productID int64) (stock int, err error) {
	err = tx.QueryRowContext(ctx,
		`SELECT stock FROM products WHERE id = $1 FOR UPDATE`,
		productID).Scan(&stock)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, database.ErrProductNotFound
		}
		return 0, fmt.Errorf("lock product %d: %w", productID, err)
	}

	return stock, nil
}

// decrementStockFloor applies stock = max(0, stock - quantity) in a single
// statement. Requesting more than the available stock clamps to zero rather
// than failing; the counter never goes negative.
func decrementStockFloor(ctx context.Context, tx *sql.Tx, productID int64, quantity int) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE products
		 SET stock = GREATEST(stock - $1, 0),
		     updated_at = NOW()
		 WHERE id = $2`,
		quantity, productID)
	if err != nil {
		return fmt.Errorf("decrement stock for product %d: %w", productID, err)
	}

	return nil
}
