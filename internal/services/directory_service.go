package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/NITsush45/enter-bank/internal/models"
)

// UserDirectory is the read-only boundary to the identity service. The ledger
// core never writes user rows except for the one-shot welcome-gift flag.
type UserDirectory interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

// BillerDirectory is the read-only boundary to the biller administration
// service.
type BillerDirectory interface {
	FindByID(ctx context.Context, id int64) (*models.Biller, error)
	FindByInternalAccountID(ctx context.Context, accountID int64) (*models.Biller, error)
}

const userColumns = `id, username, first_name, last_name, status, account_level, has_claimed_welcome_gift, created_at`

type SQLUserDirectory struct {
	db *sql.DB
}

func NewSQLUserDirectory(db *sql.DB) *SQLUserDirectory {
	return &SQLUserDirectory{db: db}
}

func (d *SQLUserDirectory) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

func (d *SQLUserDirectory) FindByID(ctx context.Context, id int64) (*models.User, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.Status,
		&u.AccountLevel, &u.HasClaimedWelcomeGift, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

const billerColumns = `id, biller_name, category, status, COALESCE(logo_url, ''), internal_account_id`

type SQLBillerDirectory struct {
	db *sql.DB
}

func NewSQLBillerDirectory(db *sql.DB) *SQLBillerDirectory {
	return &SQLBillerDirectory{db: db}
}

func (d *SQLBillerDirectory) FindByID(ctx context.Context, id int64) (*models.Biller, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT `+billerColumns+` FROM billers WHERE id = $1`, id)
	return scanBiller(row)
}

func (d *SQLBillerDirectory) FindByInternalAccountID(ctx context.Context, accountID int64) (*models.Biller, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT `+billerColumns+` FROM billers WHERE internal_account_id = $1`, accountID)
	return scanBiller(row)
}

func scanBiller(row *sql.Row) (*models.Biller, error) {
	var b models.Biller
	err := row.Scan(&b.ID, &b.BillerName, &b.Category, &b.Status, &b.LogoURL, &b.InternalAccountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrBillerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan biller: %w", err)
	}
	return &b, nil
}
