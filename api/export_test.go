package api

import (
	"bytes"
	"net/http"
	"testing"
	"time"

	"ledger/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestBuildWorkbook(t *testing.T) {
	views := []models.TransactionView{
		{ID: 7, Username: "alice", Type: "Food", Amount: 20.5, Date: time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)},
		{ID: 5, Username: "bob", Type: "Fun", Amount: 8, Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}

	f, err := buildWorkbook(views)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(transactionsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"ID", "Username", "Category", "Amount", "Date"}, rows[0])
	assert.Equal(t, []string{"7", "alice", "Food", "20.5", "2024-03-02 10:00:00"}, rows[1])
	assert.Equal(t, "Total", rows[3][0])
	assert.Equal(t, "28.5", rows[3][3])
	assert.Equal(t, "2 transactions", rows[3][4])
}

func TestBuildWorkbook_Empty(t *testing.T) {
	f, err := buildWorkbook(nil)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(transactionsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "0 transactions", rows[1][4])
}

func TestExportHandler_ExportTransactions(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT transactions.id, .* WHERE transactions.username = \\? AND transactions.amount >= \\?").
		WithArgs("alice", 10.0).
		WillReturnRows(viewRows())

	h := NewExportHandler(testVerifier())
	w := perform(http.MethodGet, "/api/transactions/export", "/api/transactions/export?username=alice&min=10",
		h.ExportTransactions, "", session(t, root))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "transactions_")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(transactionsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 4)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExportHandler_ExportTransactions_Errors(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	h := NewExportHandler(testVerifier())
	w := perform(http.MethodGet, "/api/transactions/export", "/api/transactions/export", h.ExportTransactions, "", session(t, alice))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = perform(http.MethodGet, "/api/transactions/export", "/api/transactions/export?max=x", h.ExportTransactions, "", session(t, root))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(KindInvalidAmountValue), decode(t, w)["kind"])
	require.NoError(t, mock.ExpectationsWereMet())
}
