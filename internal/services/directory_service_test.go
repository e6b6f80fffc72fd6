package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/NITsush45/enter-bank/internal/models"
)

func TestSQLUserDirectory(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	directory := NewSQLUserDirectory(db)

	t.Run("find by username", func(t *testing.T) {
		dbMock.ExpectQuery(`FROM users WHERE username = \$1`).
			WithArgs("amara").
			WillReturnRows(sqlmock.NewRows([]string{"id", "username", "first_name", "last_name",
				"status", "account_level", "has_claimed_welcome_gift", "created_at"}).
				AddRow(10, "amara", "Amara", "Eze", "ACTIVE", "GOLD", false, time.Now()))

		user, err := directory.FindByUsername(context.Background(), "amara")
		assert.NoError(t, err)
		assert.Equal(t, int64(10), user.ID)
		assert.Equal(t, models.AccountLevelGold, user.AccountLevel)
		assert.Equal(t, "Amara Eze", user.FullName())
	})

	t.Run("unknown username maps to not found", func(t *testing.T) {
		dbMock.ExpectQuery(`FROM users WHERE username = \$1`).
			WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := directory.FindByUsername(context.Background(), "ghost")
		assert.ErrorIs(t, err, models.ErrUserNotFound)
	})
}

func TestSQLBillerDirectory(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	directory := NewSQLBillerDirectory(db)

	t.Run("find by id", func(t *testing.T) {
		dbMock.ExpectQuery(`FROM billers WHERE id = \$1`).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "biller_name", "category", "status",
				"logo_url", "internal_account_id"}).
				AddRow(7, "City Power", "UTILITIES", "ACTIVE", "", 3))

		biller, err := directory.FindByID(context.Background(), 7)
		assert.NoError(t, err)
		assert.Equal(t, "City Power", biller.BillerName)
		assert.Equal(t, int64(3), biller.InternalAccountID)
	})

	t.Run("find by internal account", func(t *testing.T) {
		dbMock.ExpectQuery(`FROM billers WHERE internal_account_id = \$1`).
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "biller_name", "category", "status",
				"logo_url", "internal_account_id"}).
				AddRow(7, "City Power", "UTILITIES", "ACTIVE", "", 3))

		biller, err := directory.FindByInternalAccountID(context.Background(), 3)
		assert.NoError(t, err)
		assert.Equal(t, int64(7), biller.ID)
	})

	t.Run("unknown biller maps to not found", func(t *testing.T) {
		dbMock.ExpectQuery(`FROM billers WHERE id = \$1`).
			WithArgs(int64(99)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := directory.FindByID(context.Background(), 99)
		assert.ErrorIs(t, err, models.ErrBillerNotFound)
	})
}
