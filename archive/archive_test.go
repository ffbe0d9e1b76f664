package archive

import (
	"context"
	"errors"
	"testing"
	"time"

	"ledger/filter"
	"ledger/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mockDataStore struct {
	insertManyFunc func(ctx context.Context, documents []interface{}) (*mongo.InsertManyResult, error)
	insertOneFunc  func(ctx context.Context, document interface{}) (*mongo.InsertOneResult, error)
	findFunc       func(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
}

func (m *mockDataStore) InsertMany(ctx context.Context, documents []interface{}, _ ...*options.InsertManyOptions) (*mongo.InsertManyResult, error) {
	if m.insertManyFunc != nil {
		return m.insertManyFunc(ctx, documents)
	}
	return &mongo.InsertManyResult{}, nil
}

func (m *mockDataStore) InsertOne(ctx context.Context, document interface{}, _ ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	if m.insertOneFunc != nil {
		return m.insertOneFunc(ctx, document)
	}
	return &mongo.InsertOneResult{}, nil
}

func (m *mockDataStore) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error) {
	if m.findFunc != nil {
		return m.findFunc(ctx, filter, opts...)
	}
	return mongo.NewCursorFromDocuments(nil, nil, nil)
}

type mockCollectionProvider struct {
	stores map[string]*mockDataStore
}

func (m *mockCollectionProvider) Collection(name string) DataStore {
	if s, ok := m.stores[name]; ok {
		return s
	}
	return &mockDataStore{}
}

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestArchive(stores map[string]*mockDataStore) *Archive {
	a := New(&mockCollectionProvider{stores: stores})
	a.now = func() time.Time { return fixedNow }
	return a
}

func TestArchiveTransactions(t *testing.T) {
	var got []interface{}
	a := newTestArchive(map[string]*mockDataStore{
		TransactionsCollection: {insertManyFunc: func(_ context.Context, documents []interface{}) (*mongo.InsertManyResult, error) {
			got = documents
			return &mongo.InsertManyResult{}, nil
		}},
	})

	txs := []models.Transaction{
		{ID: 1, Username: "alice", Type: "food", Amount: 12.5, Date: fixedNow.Add(-time.Hour)},
		{ID: 2, Username: "bob", Type: "rent", Amount: 800},
	}
	require.NoError(t, a.ArchiveTransactions(context.Background(), txs, "admin"))
	require.Len(t, got, 2)

	first, ok := got[0].(DeletedTransaction)
	require.True(t, ok, "expected DeletedTransaction, got %T", got[0])
	assert.Equal(t, uint(1), first.TransactionID)
	assert.Equal(t, "alice", first.Username)
	assert.Equal(t, 12.5, first.Amount)
	assert.Equal(t, "admin", first.DeletedBy)
	assert.Equal(t, fixedNow, first.DeletedAt)
}

func TestArchiveTransactions_Empty(t *testing.T) {
	called := false
	a := newTestArchive(map[string]*mockDataStore{
		TransactionsCollection: {insertManyFunc: func(context.Context, []interface{}) (*mongo.InsertManyResult, error) {
			called = true
			return nil, nil
		}},
	})
	require.NoError(t, a.ArchiveTransactions(context.Background(), nil, "admin"))
	assert.False(t, called)
}

func TestArchiveTransactions_Error(t *testing.T) {
	a := newTestArchive(map[string]*mockDataStore{
		TransactionsCollection: {insertManyFunc: func(context.Context, []interface{}) (*mongo.InsertManyResult, error) {
			return nil, errors.New("connection reset")
		}},
	})
	err := a.ArchiveTransactions(context.Background(), []models.Transaction{{ID: 1}}, "admin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "archive 1 transactions")
}

func TestLogReassignment(t *testing.T) {
	var got interface{}
	a := newTestArchive(map[string]*mockDataStore{
		ReassignmentsCollection: {insertOneFunc: func(_ context.Context, document interface{}) (*mongo.InsertOneResult, error) {
			got = document
			return &mongo.InsertOneResult{}, nil
		}},
	})

	require.NoError(t, a.LogReassignment(context.Background(), []string{"food", "fun"}, "general", 4, "admin"))
	r, ok := got.(Reassignment)
	require.True(t, ok)
	assert.Equal(t, []string{"food", "fun"}, r.Deleted)
	assert.Equal(t, "general", r.Fallback)
	assert.Equal(t, int64(4), r.Count)
	assert.Equal(t, fixedNow, r.CreatedAt)
}

func TestDeletedTransactions(t *testing.T) {
	var gotFilter interface{}
	stored := []interface{}{
		DeletedTransaction{TransactionID: 7, Username: "alice", Type: "food", Amount: 20, DeletedBy: "admin"},
		DeletedTransaction{TransactionID: 3, Username: "alice", Type: "fun", Amount: 15, DeletedBy: "admin"},
	}
	a := newTestArchive(map[string]*mockDataStore{
		TransactionsCollection: {findFunc: func(_ context.Context, f interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error) {
			gotFilter = f
			require.Len(t, opts, 1)
			assert.Equal(t, bson.D{{Key: "deletedAt", Value: -1}}, opts[0].Sort)
			return mongo.NewCursorFromDocuments(stored, nil, nil)
		}},
	})

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	lo := 10.0
	result, err := a.DeletedTransactions(context.Background(), "alice",
		filter.DateRange{From: &from}, filter.AmountRange{Min: &lo})
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, uint(7), result[0].TransactionID)
	assert.Equal(t, "fun", result[1].Type)

	assert.Equal(t, bson.M{
		"username": "alice",
		"date":     bson.M{"$gte": from},
		"amount":   bson.M{"$gte": 10.0},
	}, gotFilter)
}

func TestDeletedTransactions_NoFilters(t *testing.T) {
	var gotFilter interface{}
	a := newTestArchive(map[string]*mockDataStore{
		TransactionsCollection: {findFunc: func(_ context.Context, f interface{}, _ ...*options.FindOptions) (*mongo.Cursor, error) {
			gotFilter = f
			return mongo.NewCursorFromDocuments(nil, nil, nil)
		}},
	})

	result, err := a.DeletedTransactions(context.Background(), "", filter.DateRange{}, filter.AmountRange{})
	require.NoError(t, err)
	assert.Empty(t, result)
	assert.NotNil(t, result)
	assert.Equal(t, bson.M{}, gotFilter)
}

func TestNilArchive(t *testing.T) {
	var a *Archive
	ctx := context.Background()
	assert.NoError(t, a.ArchiveTransactions(ctx, []models.Transaction{{ID: 1}}, "admin"))
	assert.NoError(t, a.LogReassignment(ctx, []string{"x"}, "y", 0, "admin"))
	result, err := a.DeletedTransactions(ctx, "", filter.DateRange{}, filter.AmountRange{})
	assert.NoError(t, err)
	assert.Empty(t, result)
}
