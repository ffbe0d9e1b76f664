package database

import (
	"testing"

	"ledger/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return db, mock
}

func TestDSN(t *testing.T) {
	dsn := DSN(&config.DatabaseConfig{
		Host: "db", Port: "3306", Username: "ledger", Password: "pw", DBName: "ledger", Charset: "utf8mb4",
	})
	assert.Equal(t, "ledger:pw@tcp(db:3306)/ledger?charset=utf8mb4&parseTime=True&loc=UTC", dsn)
}

func TestSeedCategories_Empty(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `categories`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `categories`").
		WillReturnResult(sqlmock.NewResult(1, int64(len(defaultCategories))))
	mock.ExpectCommit()

	require.NoError(t, SeedCategories(db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedCategories_AlreadySeeded(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `categories`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	require.NoError(t, SeedCategories(db))
	assert.NoError(t, mock.ExpectationsWereMet())
}
