package api

import (
	"net/http"
	"testing"
	"time"

	"ledger/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func categoryRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "type", "color", "created_at", "updated_at"}).
		AddRow(1, "General", "#64748b", now, now).
		AddRow(2, "Food", "#ef4444", now, now).
		AddRow(3, "Fun", "#ec4899", now, now)
}

func newTestCategoryHandler() *CategoryHandler {
	return NewCategoryHandler(testVerifier(), nil, nil, nil)
}

func TestPlanCategoryDeletion(t *testing.T) {
	all := []models.Category{{ID: 1, Type: "General"}, {ID: 2, Type: "Food"}, {ID: 3, Type: "Fun"}}

	tests := []struct {
		name         string
		types        []string
		wantDeleted  []string
		wantFallback string
		wantMissing  []string
	}{
		{"one category", []string{"Food"}, []string{"Food"}, "General", nil},
		{"oldest deleted", []string{"General"}, []string{"General"}, "Food", nil},
		{"oldest two deleted", []string{"Food", "General"}, []string{"General", "Food"}, "Fun", nil},
		{"every category keeps the oldest", []string{"Fun", "Food", "General"}, []string{"Food", "Fun"}, "General", nil},
		{"unknown type", []string{"Food", "Travel"}, nil, "", []string{"Travel"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, missing := planCategoryDeletion(all, tt.types)
			assert.Equal(t, tt.wantMissing, missing)
			assert.Equal(t, tt.wantDeleted, plan.deleted)
			assert.Equal(t, tt.wantFallback, plan.fallback)
		})
	}
}

func TestCategoryHandler_ListCategories(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT \\* FROM `categories` ORDER BY id").
		WillReturnRows(categoryRows())

	h := newTestCategoryHandler()
	w := perform(http.MethodGet, "/api/categories", "/api/categories", h.ListCategories, "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].([]interface{})
	require.Len(t, data, 3)
	first := data[0].(map[string]interface{})
	assert.Equal(t, "General", first["type"])
	assert.Equal(t, "#64748b", first["color"])
	assert.NotContains(t, first, "id")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryHandler_CreateCategory(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `categories` WHERE type = \\?").
		WithArgs("Travel").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `categories`").
		WillReturnResult(sqlmock.NewResult(4, 1))
	mock.ExpectCommit()

	h := newTestCategoryHandler()
	w := perform(http.MethodPost, "/api/categories", "/api/categories", h.CreateCategory,
		`{"type":"Travel"}`, session(t, root))

	require.Equal(t, http.StatusCreated, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "Travel", data["type"])
	assert.Equal(t, models.DefaultCategoryColor, data["color"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryHandler_CreateCategory_Duplicate(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `categories`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	h := newTestCategoryHandler()
	w := perform(http.MethodPost, "/api/categories", "/api/categories", h.CreateCategory,
		`{"type":"Food","color":"#000000"}`, session(t, root))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(KindAlreadyExists), decode(t, w)["kind"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryHandler_CreateCategory_RequiresAdmin(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	h := newTestCategoryHandler()
	w := perform(http.MethodPost, "/api/categories", "/api/categories", h.CreateCategory,
		`{"type":"Travel"}`, session(t, alice))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Admin: Mismatched role", decode(t, w)["message"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryHandler_UpdateCategory_Rename(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery("SELECT \\* FROM `categories` WHERE type = \\? ORDER BY `categories`.`id` LIMIT 1").
		WithArgs("Food").
		WillReturnRows(sqlmock.NewRows([]string{"id", "type", "color", "created_at", "updated_at"}).
			AddRow(2, "Food", "#ef4444", now, now))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `categories` WHERE type = \\?").
		WithArgs("Groceries").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `categories` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `transactions` SET `type`=\\?,`updated_at`=\\? WHERE type = \\?").
		WithArgs("Groceries", sqlmock.AnyArg(), "Food").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	h := newTestCategoryHandler()
	w := perform(http.MethodPatch, "/api/categories/:type", "/api/categories/Food", h.UpdateCategory,
		`{"type":"Groceries","color":"#22c55e"}`, session(t, root))

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "Category updated", resp["message"])
	assert.Equal(t, float64(3), resp["data"].(map[string]interface{})["count"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryHandler_UpdateCategory_NotFound(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT \\* FROM `categories` WHERE type = \\?").
		WithArgs("Nope").
		WillReturnRows(sqlmock.NewRows([]string{"id", "type", "color", "created_at", "updated_at"}))

	h := newTestCategoryHandler()
	w := perform(http.MethodPatch, "/api/categories/:type", "/api/categories/Nope", h.UpdateCategory,
		`{"type":"Other","color":"#22c55e"}`, session(t, root))

	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryHandler_DeleteCategories(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT \\* FROM `categories` ORDER BY id").
		WillReturnRows(categoryRows())
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `transactions` SET `type`=\\?,`updated_at`=\\? WHERE type IN \\(\\?,\\?\\)").
		WithArgs("General", sqlmock.AnyArg(), "Food", "Fun").
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `categories` WHERE type IN \\(\\?,\\?\\)").
		WithArgs("Food", "Fun").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	h := newTestCategoryHandler()
	w := perform(http.MethodDelete, "/api/categories", "/api/categories", h.DeleteCategories,
		`{"types":["Fun","Food","Fun"]}`, session(t, root))

	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	// count equals the rows the reassignment updated
	assert.Equal(t, float64(4), data["count"])
	assert.Equal(t, "General", data["fallback"])
	assert.Equal(t, []interface{}{"Food", "Fun"}, data["deleted"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryHandler_DeleteCategories_MissingType(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	// nothing is reassigned or deleted
	mock.ExpectQuery("SELECT \\* FROM `categories` ORDER BY id").
		WillReturnRows(categoryRows())

	h := newTestCategoryHandler()
	w := perform(http.MethodDelete, "/api/categories", "/api/categories", h.DeleteCategories,
		`{"types":["Food","Travel"]}`, session(t, root))

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decode(t, w)
	assert.Equal(t, []interface{}{"Travel"}, resp["data"].(map[string]interface{})["missing"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryHandler_DeleteCategories_OnlyCategory(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery("SELECT \\* FROM `categories` ORDER BY id").
		WillReturnRows(sqlmock.NewRows([]string{"id", "type", "color", "created_at", "updated_at"}).
			AddRow(1, "General", "#64748b", now, now))

	h := newTestCategoryHandler()
	w := perform(http.MethodDelete, "/api/categories", "/api/categories", h.DeleteCategories,
		`{"types":["General"]}`, session(t, root))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Cannot delete the only category", decode(t, w)["message"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryHandler_DeleteCategories_Validation(t *testing.T) {
	_, cleanup := setupMockDB(t)
	defer cleanup()

	h := newTestCategoryHandler()
	tests := []struct {
		body string
		kind ErrorKind
	}{
		{`{}`, KindMissingParameter},
		{`{"types":[]}`, KindEmptyParameter},
		{`{"types":["Food",""]}`, KindEmptyParameter},
	}
	for _, tt := range tests {
		w := perform(http.MethodDelete, "/api/categories", "/api/categories", h.DeleteCategories, tt.body, session(t, root))
		assert.Equal(t, http.StatusBadRequest, w.Code, tt.body)
		assert.Equal(t, string(tt.kind), decode(t, w)["kind"], tt.body)
	}
}

func TestCategoryHandler_UpdateCategory_RenameToExisting(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	now := time.Now()
	// neither the category nor its transactions are updated
	mock.ExpectQuery("SELECT \\* FROM `categories` WHERE type = \\? ORDER BY `categories`.`id` LIMIT 1").
		WithArgs("Food").
		WillReturnRows(sqlmock.NewRows([]string{"id", "type", "color", "created_at", "updated_at"}).
			AddRow(2, "Food", "#ef4444", now, now))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `categories` WHERE type = \\?").
		WithArgs("Fun").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	h := newTestCategoryHandler()
	w := perform(http.MethodPatch, "/api/categories/:type", "/api/categories/Food", h.UpdateCategory,
		`{"type":"Fun","color":"#22c55e"}`, session(t, root))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(t, w)
	assert.Equal(t, string(KindAlreadyExists), resp["kind"])
	assert.Equal(t, "Category already exists", resp["message"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryHandler_UpdateCategory_RecolorOnly(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery("SELECT \\* FROM `categories` WHERE type = \\?").
		WithArgs("Food").
		WillReturnRows(sqlmock.NewRows([]string{"id", "type", "color", "created_at", "updated_at"}).
			AddRow(2, "Food", "#ef4444", now, now))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `categories` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	h := newTestCategoryHandler()
	w := perform(http.MethodPatch, "/api/categories/:type", "/api/categories/Food", h.UpdateCategory,
		`{"type":"Food","color":"#000000"}`, session(t, root))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["data"].(map[string]interface{})["count"])
	require.NoError(t, mock.ExpectationsWereMet())
}
