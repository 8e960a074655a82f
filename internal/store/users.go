package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/peluchemania/backend/internal/database"
	"github.com/peluchemania/backend/internal/models"
)

type UserInput struct {
	Name          string
	Email         string
	PasswordHash  string
	Role          string
	AddressRegion *string
	AddressComuna *string
	AddressCalle  *string
	AddressDepto  *string
}

const userColumns = `id, name, email, password_hash, role,
	       address_region, address_comuna, address_calle, address_depto,
	       created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.AddressRegion,
		&user.AddressComuna,
		&user.AddressCalle,
		&user.AddressDepto,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func CreateUser(ctx context.Context, db *sql.DB, in UserInput) (*models.User, error) {
	query := fmt.Sprintf(`
		INSERT INTO users (name, email, password_hash, role,
		                   address_region, address_comuna, address_calle, address_depto,
		                   created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING %s`, userColumns)

	user, err := scanUser(db.QueryRowContext(ctx, query,
		in.Name, in.Email, in.PasswordHash, in.Role,
		in.AddressRegion, in.AddressComuna, in.AddressCalle, in.AddressDepto))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, database.ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

func GetUser(ctx context.Context, db *sql.DB, id int64) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)

	user, err := scanUser(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}

func GetUserByEmail(ctx context.Context, db *sql.DB, email string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, userColumns)

	user, err := scanUser(db.QueryRowContext(ctx, query, email))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return user, nil
}

// UpdateUser overwrites profile, role and address as sent. PasswordHash is
// only replaced when non-empty, matching the admin edit form which leaves the
// password field blank to keep the current one.
func UpdateUser(ctx context.Context, db *sql.DB, id int64, in UserInput) (*models.User, error) {
	query := fmt.Sprintf(`
		UPDATE users
		SET name = $1, email = $2, role = $3,
		    password_hash = CASE WHEN $4 <> '' THEN $4 ELSE password_hash END,
		    address_region = $5, address_comuna = $6, address_calle = $7, address_depto = $8,
		    updated_at = NOW()
		WHERE id = $9
		RETURNING %s`, userColumns)

	user, err := scanUser(db.QueryRowContext(ctx, query,
		in.Name, in.Email, in.Role, in.PasswordHash,
		in.AddressRegion, in.AddressComuna, in.AddressCalle, in.AddressDepto, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrUserNotFound
		}
		if database.IsUniqueViolation(err) {
			return nil, database.ErrEmailTaken
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	return user, nil
}

func DeleteUser(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrUserNotFound
	}

	return nil
}

func ListUsers(ctx context.Context, db *sql.DB) ([]models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users ORDER BY id`, userColumns)

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return users, nil
}
