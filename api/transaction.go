package api

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"ledger/archive"
	"ledger/database"
	"ledger/events"
	"ledger/filter"
	"ledger/middleware"
	"ledger/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// TransactionHandler transaction booking, queries and deletion
type TransactionHandler struct {
	verifier  *middleware.Verifier
	publisher events.Publisher
	archive   *archive.Archive
}

// NewTransactionHandler creates the transaction handler. arch may be nil.
func NewTransactionHandler(verifier *middleware.Verifier, publisher events.Publisher, arch *archive.Archive) *TransactionHandler {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &TransactionHandler{verifier: verifier, publisher: publisher, archive: arch}
}

// CreateTransactionRequest booking body. Date defaults to now.
type CreateTransactionRequest struct {
	Username *string    `json:"username" example:"alice"`
	Type     *string    `json:"type" example:"Food"`
	Amount   flexString `json:"amount" swaggertype:"number" example:"12.5"`
	Date     *string    `json:"date" example:"2024-03-01"`
}

// DeleteTransactionRequest single delete body
type DeleteTransactionRequest struct {
	ID flexString `json:"id" swaggertype:"integer" example:"42"`
}

// DeleteTransactionsRequest bulk delete body
type DeleteTransactionsRequest struct {
	IDs *[]flexString `json:"ids" swaggertype:"array,integer"`
}

// CreateTransaction books a transaction for the path user
// @Summary Create a transaction
// @Tags transactions
// @Accept json
// @Produce json
// @Param username path string true "Owner"
// @Param request body CreateTransactionRequest true "Transaction"
// @Success 201 {object} Response{data=models.Transaction}
// @Failure 400 {object} Response
// @Failure 401 {object} Response
// @Failure 404 {object} Response "User or category not found"
// @Router /api/users/{username}/transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	var req CreateTransactionRequest
	if !bindJSON(c, &req) {
		return
	}
	if !requireFields(c, field{"username", req.Username}, field{"amount", req.Amount.ptr()}, field{"type", req.Type}) {
		return
	}

	username := c.Param("username")
	if !authorize(c, h.verifier, middleware.User(username)) {
		return
	}
	if *req.Username != username {
		Fail(c, KindUnauthorized, "User: Mismatched users")
		return
	}

	amount, err := parseAmount(req.Amount.value)
	if err != nil {
		Fail(c, KindInvalidAmountValue, "Amount must be a number")
		return
	}
	date := time.Now().UTC()
	if req.Date != nil {
		r, err := filter.BuildDateFilter(dateParam(*req.Date))
		if err != nil {
			FailFilter(c, err)
			return
		}
		date = *r.From
	}

	if _, ok := findUser(c, username); !ok {
		return
	}
	category, ok := findCategory(c, strings.TrimSpace(*req.Type))
	if !ok {
		return
	}

	tx := models.Transaction{
		Username: username,
		Type:     category.Type,
		Amount:   amount,
		Date:     date,
	}
	if err := database.DB.Create(&tx).Error; err != nil {
		FailInternal(c, err, "Failed to create transaction")
		return
	}
	publish(c, h.publisher, events.TransactionCreated, tx)

	Created(c, "Transaction created", tx)
}

// ListTransactions returns every transaction
// @Summary List all transactions
// @Tags transactions
// @Produce json
// @Param date query string false "Single day, YYYY-MM-DD"
// @Param from query string false "Lower bound, YYYY-MM-DD"
// @Param upTo query string false "Upper bound, YYYY-MM-DD"
// @Param min query number false "Minimum amount"
// @Param max query number false "Maximum amount"
// @Success 200 {object} Response{data=[]models.TransactionView}
// @Failure 401 {object} Response
// @Router /api/transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	dates, amounts, ok := buildFilters(c)
	if !ok {
		return
	}
	if !authorize(c, h.verifier, middleware.Admin()) {
		return
	}
	h.respond(c, transactionQuery(), dates, amounts)
}

// ListUserTransactions returns the caller's transactions
// @Summary List a user's transactions
// @Tags transactions
// @Produce json
// @Param username path string true "Owner"
// @Param date query string false "Single day, YYYY-MM-DD"
// @Param from query string false "Lower bound, YYYY-MM-DD"
// @Param upTo query string false "Upper bound, YYYY-MM-DD"
// @Param min query number false "Minimum amount"
// @Param max query number false "Maximum amount"
// @Success 200 {object} Response{data=[]models.TransactionView}
// @Failure 400 {object} Response "InvalidQueryCombination, InvalidDateValue or InvalidAmountValue"
// @Failure 401 {object} Response
// @Failure 404 {object} Response
// @Router /api/users/{username}/transactions [get]
func (h *TransactionHandler) ListUserTransactions(c *gin.Context) {
	h.forUser(c, middleware.User(c.Param("username")), false)
}

// AdminListUserTransactions returns any user's transactions
// @Summary List a user's transactions (admin)
// @Tags transactions
// @Produce json
// @Param username path string true "Owner"
// @Success 200 {object} Response{data=[]models.TransactionView}
// @Failure 401 {object} Response
// @Failure 404 {object} Response
// @Router /api/transactions/users/{username} [get]
func (h *TransactionHandler) AdminListUserTransactions(c *gin.Context) {
	h.forUser(c, middleware.Admin(), false)
}

// ListUserCategoryTransactions returns the caller's transactions of one category
// @Summary List a user's transactions of a category
// @Tags transactions
// @Produce json
// @Param username path string true "Owner"
// @Param category path string true "Category type"
// @Success 200 {object} Response{data=[]models.TransactionView}
// @Failure 401 {object} Response
// @Failure 404 {object} Response
// @Router /api/users/{username}/transactions/category/{category} [get]
func (h *TransactionHandler) ListUserCategoryTransactions(c *gin.Context) {
	h.forUser(c, middleware.User(c.Param("username")), true)
}

// AdminListUserCategoryTransactions returns any user's transactions of one category
// @Summary List a user's transactions of a category (admin)
// @Tags transactions
// @Produce json
// @Param username path string true "Owner"
// @Param category path string true "Category type"
// @Success 200 {object} Response{data=[]models.TransactionView}
// @Failure 401 {object} Response
// @Failure 404 {object} Response
// @Router /api/transactions/users/{username}/category/{category} [get]
func (h *TransactionHandler) AdminListUserCategoryTransactions(c *gin.Context) {
	h.forUser(c, middleware.Admin(), true)
}

// ListGroupTransactions returns the transactions of every member of the caller's group
// @Summary List a group's transactions
// @Tags transactions
// @Produce json
// @Param name path string true "Group name"
// @Success 200 {object} Response{data=[]models.TransactionView}
// @Failure 401 {object} Response
// @Failure 404 {object} Response
// @Router /api/groups/{name}/transactions [get]
func (h *TransactionHandler) ListGroupTransactions(c *gin.Context) {
	h.forGroup(c, false, false)
}

// AdminListGroupTransactions returns the transactions of every member of a group
// @Summary List a group's transactions (admin)
// @Tags transactions
// @Produce json
// @Param name path string true "Group name"
// @Success 200 {object} Response{data=[]models.TransactionView}
// @Failure 401 {object} Response
// @Failure 404 {object} Response
// @Router /api/transactions/groups/{name} [get]
func (h *TransactionHandler) AdminListGroupTransactions(c *gin.Context) {
	h.forGroup(c, true, false)
}

// ListGroupCategoryTransactions group transactions of one category
// @Summary List a group's transactions of a category
// @Tags transactions
// @Produce json
// @Param name path string true "Group name"
// @Param category path string true "Category type"
// @Success 200 {object} Response{data=[]models.TransactionView}
// @Failure 401 {object} Response
// @Failure 404 {object} Response
// @Router /api/groups/{name}/transactions/category/{category} [get]
func (h *TransactionHandler) ListGroupCategoryTransactions(c *gin.Context) {
	h.forGroup(c, false, true)
}

// AdminListGroupCategoryTransactions group transactions of one category
// @Summary List a group's transactions of a category (admin)
// @Tags transactions
// @Produce json
// @Param name path string true "Group name"
// @Param category path string true "Category type"
// @Success 200 {object} Response{data=[]models.TransactionView}
// @Failure 401 {object} Response
// @Failure 404 {object} Response
// @Router /api/transactions/groups/{name}/category/{category} [get]
func (h *TransactionHandler) AdminListGroupCategoryTransactions(c *gin.Context) {
	h.forGroup(c, true, true)
}

// DeleteTransaction removes one of a user's transactions
// @Summary Delete a transaction
// @Tags transactions
// @Accept json
// @Produce json
// @Param username path string true "Owner"
// @Param request body DeleteTransactionRequest true "Transaction id"
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Failure 401 {object} Response
// @Failure 404 {object} Response
// @Router /api/users/{username}/transactions [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	var req DeleteTransactionRequest
	if !bindJSON(c, &req) {
		return
	}
	if !requireFields(c, field{"id", req.ID.ptr()}) {
		return
	}

	username := c.Param("username")
	if !authorize(c, h.verifier, middleware.User(username), middleware.Admin()) {
		return
	}

	id, err := parseID(req.ID.value)
	if err != nil {
		Fail(c, KindInvalidParameter, "Invalid transaction id")
		return
	}
	if _, ok := findUser(c, username); !ok {
		return
	}

	var tx models.Transaction
	if err := database.DB.Where("id = ?", id).First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			Fail(c, KindNotFound, "Transaction not found")
			return
		}
		FailInternal(c, err, "Failed to load transaction")
		return
	}
	if tx.Username != username {
		Fail(c, KindUnauthorized, "Transaction does not belong to user")
		return
	}

	if err := database.DB.Delete(&tx).Error; err != nil {
		FailInternal(c, err, "Failed to delete transaction")
		return
	}
	publish(c, h.publisher, events.TransactionsDeleted, gin.H{"ids": []uint{tx.ID}})

	SuccessWithMessage(c, "Transaction deleted", gin.H{"count": 1})
}

// DeleteTransactions bulk delete; nothing is removed unless every id exists
// @Summary Delete transactions
// @Tags transactions
// @Accept json
// @Produce json
// @Param request body DeleteTransactionsRequest true "Transaction ids"
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Failure 401 {object} Response
// @Failure 404 {object} Response
// @Router /api/transactions [delete]
func (h *TransactionHandler) DeleteTransactions(c *gin.Context) {
	var req DeleteTransactionsRequest
	if !bindJSON(c, &req) {
		return
	}
	var raw []string
	if req.IDs != nil {
		for _, v := range *req.IDs {
			raw = append(raw, v.value)
		}
	}
	if !requireList(c, "ids", raw, req.IDs != nil) {
		return
	}
	if !authorize(c, h.verifier, middleware.Admin()) {
		return
	}

	ids := make([]uint, 0, len(raw))
	seen := make(map[uint]bool, len(raw))
	for _, s := range raw {
		id, err := parseID(s)
		if err != nil {
			Fail(c, KindInvalidParameter, "Invalid transaction id: "+s)
			return
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	var found []models.Transaction
	if err := database.DB.Where("id IN ?", ids).Find(&found).Error; err != nil {
		FailInternal(c, err, "Failed to load transactions")
		return
	}
	if len(found) != len(ids) {
		present := make(map[uint]bool, len(found))
		for _, tx := range found {
			present[tx.ID] = true
		}
		var missing []uint
		for _, id := range ids {
			if !present[id] {
				missing = append(missing, id)
			}
		}
		FailWithData(c, KindNotFound, "Transaction not found", gin.H{"missing": missing})
		return
	}

	result := database.DB.Where("id IN ?", ids).Delete(&models.Transaction{})
	if result.Error != nil {
		FailInternal(c, result.Error, "Failed to delete transactions")
		return
	}

	by := ""
	if claims := middleware.GetCurrentClaims(c); claims != nil {
		by = claims.Username
	}
	if err := h.archive.ArchiveTransactions(c.Request.Context(), found, by); err != nil {
		middleware.Logger(c).WithError(err).Warn("deleted transactions not archived")
	}
	publish(c, h.publisher, events.TransactionsDeleted, gin.H{"ids": ids})

	SuccessWithMessage(c, "Transactions deleted", gin.H{"count": result.RowsAffected})
}

// ListDeletedTransactions reads the deletion archive
// @Summary List archived deleted transactions
// @Tags transactions
// @Produce json
// @Param username query string false "Owner"
// @Param from query string false "Lower bound, YYYY-MM-DD"
// @Param upTo query string false "Upper bound, YYYY-MM-DD"
// @Success 200 {object} Response{data=[]archive.DeletedTransaction}
// @Failure 401 {object} Response
// @Router /api/transactions/archive [get]
func (h *TransactionHandler) ListDeletedTransactions(c *gin.Context) {
	dates, amounts, ok := buildFilters(c)
	if !ok {
		return
	}
	if !authorize(c, h.verifier, middleware.Admin()) {
		return
	}

	deleted, err := h.archive.DeletedTransactions(c.Request.Context(), c.Query("username"), dates, amounts)
	if err != nil {
		FailInternal(c, err, "Failed to read archive")
		return
	}
	Success(c, deleted)
}

func (h *TransactionHandler) forUser(c *gin.Context, capability middleware.Capability, byCategory bool) {
	dates, amounts, ok := buildFilters(c)
	if !ok {
		return
	}
	if !authorize(c, h.verifier, capability) {
		return
	}

	username := c.Param("username")
	if _, ok := findUser(c, username); !ok {
		return
	}
	q := transactionQuery().Where("transactions.username = ?", username)
	if byCategory {
		category, ok := findCategory(c, c.Param("category"))
		if !ok {
			return
		}
		q = q.Where("transactions.type = ?", category.Type)
	}
	h.respond(c, q, dates, amounts)
}

func (h *TransactionHandler) forGroup(c *gin.Context, admin, byCategory bool) {
	dates, amounts, ok := buildFilters(c)
	if !ok {
		return
	}

	group, ok := findGroup(c, c.Param("name"))
	if !ok {
		return
	}
	capability := middleware.Group(group.Emails())
	if admin {
		capability = middleware.Admin()
	}
	if !authorize(c, h.verifier, capability) {
		return
	}

	var usernames []string
	if err := database.DB.Model(&models.User{}).Where("email IN ?", group.Emails()).Pluck("username", &usernames).Error; err != nil {
		FailInternal(c, err, "Failed to load group members")
		return
	}
	q := transactionQuery().Where("transactions.username IN ?", usernames)
	if byCategory {
		category, ok := findCategory(c, c.Param("category"))
		if !ok {
			return
		}
		q = q.Where("transactions.type = ?", category.Type)
	}
	h.respond(c, q, dates, amounts)
}

func (h *TransactionHandler) respond(c *gin.Context, q *gorm.DB, dates filter.DateRange, amounts filter.AmountRange) {
	views, err := scanViews(q, dates, amounts)
	if err != nil {
		FailInternal(c, err, "Failed to load transactions")
		return
	}
	Success(c, views)
}

// transactionQuery selects transactions joined with their category color.
func transactionQuery() *gorm.DB {
	return database.DB.Table("transactions").
		Select("transactions.id, transactions.username, transactions.type, transactions.amount, transactions.date, categories.color").
		Joins("LEFT JOIN categories ON categories.type = transactions.type")
}

func scanViews(q *gorm.DB, dates filter.DateRange, amounts filter.AmountRange) ([]models.TransactionView, error) {
	views := []models.TransactionView{}
	err := q.Scopes(dates.Scope("transactions.date"), amounts.Scope("transactions.amount")).
		Order("transactions.date DESC, transactions.id DESC").
		Scan(&views).Error
	return views, err
}

// buildFilters reads the date and amount filters from the query string.
func buildFilters(c *gin.Context) (filter.DateRange, filter.AmountRange, bool) {
	params := c.Request.URL.Query()
	dates, err := filter.BuildDateFilter(params)
	if err != nil {
		FailFilter(c, err)
		return filter.DateRange{}, filter.AmountRange{}, false
	}
	amounts, err := filter.BuildAmountFilter(params)
	if err != nil {
		FailFilter(c, err)
		return filter.DateRange{}, filter.AmountRange{}, false
	}
	return dates, amounts, true
}

// dateParam wraps a single YYYY-MM-DD value as a date filter query.
func dateParam(day string) filter.Params {
	return url.Values{filter.ParamFrom: {strings.TrimSpace(day)}}
}
