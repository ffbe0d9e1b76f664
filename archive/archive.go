package archive

import (
	"context"
	"fmt"
	"time"

	"ledger/filter"
	"ledger/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	TransactionsCollection  = "deleted_transactions"
	ReassignmentsCollection = "category_reassignments"
)

// DeletedTransaction is a transaction removed by an administrator.
type DeletedTransaction struct {
	TransactionID uint      `bson:"transactionId" json:"id"`
	Username      string    `bson:"username" json:"username"`
	Type          string    `bson:"type" json:"type"`
	Amount        float64   `bson:"amount" json:"amount"`
	Date          time.Time `bson:"date" json:"date"`
	DeletedBy     string    `bson:"deletedBy" json:"deletedBy"`
	DeletedAt     time.Time `bson:"deletedAt" json:"deletedAt"`
}

// Reassignment records a category deletion and where its transactions went.
type Reassignment struct {
	Deleted   []string  `bson:"deleted"`
	Fallback  string    `bson:"fallback"`
	Count     int64     `bson:"count"`
	By        string    `bson:"by"`
	CreatedAt time.Time `bson:"createdAt"`
}

// Archive keeps deleted records in MongoDB. A nil *Archive discards writes and reads nothing.
type Archive struct {
	provider CollectionProvider
	now      func() time.Time
}

func New(provider CollectionProvider) *Archive {
	return &Archive{provider: provider, now: time.Now}
}

// ArchiveTransactions stores txs as deleted by admin.
func (a *Archive) ArchiveTransactions(ctx context.Context, txs []models.Transaction, by string) error {
	if a == nil || len(txs) == 0 {
		return nil
	}

	deletedAt := a.now().UTC()
	docs := make([]interface{}, 0, len(txs))
	for _, tx := range txs {
		docs = append(docs, DeletedTransaction{
			TransactionID: tx.ID,
			Username:      tx.Username,
			Type:          tx.Type,
			Amount:        tx.Amount,
			Date:          tx.Date.UTC(),
			DeletedBy:     by,
			DeletedAt:     deletedAt,
		})
	}

	if _, err := a.provider.Collection(TransactionsCollection).InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("archive %d transactions: %w", len(docs), err)
	}
	return nil
}

// LogReassignment records a category deletion.
func (a *Archive) LogReassignment(ctx context.Context, deleted []string, fallback string, count int64, by string) error {
	if a == nil {
		return nil
	}

	doc := Reassignment{
		Deleted:   deleted,
		Fallback:  fallback,
		Count:     count,
		By:        by,
		CreatedAt: a.now().UTC(),
	}
	if _, err := a.provider.Collection(ReassignmentsCollection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("log category reassignment: %w", err)
	}
	return nil
}

// DeletedTransactions lists archived transactions, newest deletion first.
// An empty username matches every user; dates filter on the transaction date.
func (a *Archive) DeletedTransactions(ctx context.Context, username string, dates filter.DateRange, amounts filter.AmountRange) ([]DeletedTransaction, error) {
	if a == nil {
		return []DeletedTransaction{}, nil
	}

	query := bson.M{}
	if username != "" {
		query["username"] = username
	}
	for k, v := range dates.BSON("date") {
		query[k] = v
	}
	for k, v := range amounts.BSON("amount") {
		query[k] = v
	}

	opts := options.Find().SetSort(bson.D{{Key: "deletedAt", Value: -1}})
	cursor, err := a.provider.Collection(TransactionsCollection).Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	result := []DeletedTransaction{}
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("decode archived transactions: %w", err)
	}
	return result, nil
}
