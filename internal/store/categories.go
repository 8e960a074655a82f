package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/peluchemania/backend/internal/database"
	"github.com/peluchemania/backend/internal/models"
)

func CreateCategory(ctx context.Context, db *sql.DB, name string) (*models.Category, error) {
	category := &models.Category{}

	err := db.QueryRowContext(ctx,
		`INSERT INTO categories (name) VALUES ($1) RETURNING id, name`,
		name).Scan(&category.ID, &category.Name)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	return category, nil
}

func GetCategory(ctx context.Context, db *sql.DB, id int64) (*models.Category, error) {
	category := &models.Category{}

	err := db.QueryRowContext(ctx,
		`SELECT id, name FROM categories WHERE id = $1`,
		id).Scan(&category.ID, &category.Name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}

	return category, nil
}

func UpdateCategory(ctx context.Context, db *sql.DB, id int64, name string) (*models.Category, error) {
	category := &models.Category{}

	err := db.QueryRowContext(ctx,
		`UPDATE categories SET name = $1 WHERE id = $2 RETURNING id, name`,
		name, id).Scan(&category.ID, &category.Name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("update category: %w", err)
	}

	return category, nil
}

func DeleteCategory(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return database.ErrCategoryInUse
		}
		return fmt.Errorf("delete category: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrCategoryNotFound
	}

	return nil
}

func ListCategories(ctx context.Context, db *sql.DB) ([]models.Category, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var category models.Category
		if err := rows.Scan(&category.ID, &category.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return categories, nil
}
