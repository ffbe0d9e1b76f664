package api

import (
	"fmt"
	"time"

	"ledger/middleware"
	"ledger/models"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

const transactionsSheet = "Transactions"

// ExportHandler spreadsheet export
type ExportHandler struct {
	verifier *middleware.Verifier
}

// NewExportHandler creates the export handler
func NewExportHandler(verifier *middleware.Verifier) *ExportHandler {
	return &ExportHandler{verifier: verifier}
}

// ExportTransactions writes the filtered transactions as an Excel workbook
// @Summary Export transactions
// @Tags transactions
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param username query string false "Owner"
// @Param date query string false "Single day, YYYY-MM-DD"
// @Param from query string false "Lower bound, YYYY-MM-DD"
// @Param upTo query string false "Upper bound, YYYY-MM-DD"
// @Param min query number false "Minimum amount"
// @Param max query number false "Maximum amount"
// @Success 200 {file} file "xlsx workbook"
// @Failure 400 {object} Response
// @Failure 401 {object} Response
// @Router /api/transactions/export [get]
func (h *ExportHandler) ExportTransactions(c *gin.Context) {
	dates, amounts, ok := buildFilters(c)
	if !ok {
		return
	}
	if !authorize(c, h.verifier, middleware.Admin()) {
		return
	}

	q := transactionQuery()
	if username := c.Query("username"); username != "" {
		q = q.Where("transactions.username = ?", username)
	}
	views, err := scanViews(q, dates, amounts)
	if err != nil {
		FailInternal(c, err, "Failed to load transactions")
		return
	}

	f, err := buildWorkbook(views)
	if err != nil {
		FailInternal(c, err, "Failed to build workbook")
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("transactions_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	if err := f.Write(c.Writer); err != nil {
		middleware.Logger(c).WithError(err).Error("failed to write workbook")
	}
}

var cellBorder = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
}

// buildWorkbook lays out one row per transaction and a total row.
func buildWorkbook(views []models.TransactionView) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", transactionsSheet); err != nil {
		f.Close()
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    cellBorder,
	})
	if err != nil {
		f.Close()
		return nil, err
	}
	dataStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    cellBorder,
	})
	totalStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    cellBorder,
	})

	f.SetColWidth(transactionsSheet, "A", "A", 10)
	f.SetColWidth(transactionsSheet, "B", "B", 18)
	f.SetColWidth(transactionsSheet, "C", "C", 18)
	f.SetColWidth(transactionsSheet, "D", "D", 12)
	f.SetColWidth(transactionsSheet, "E", "E", 22)

	headers := []string{"ID", "Username", "Category", "Amount", "Date"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(transactionsSheet, cell, header)
		f.SetCellStyle(transactionsSheet, cell, cell, headerStyle)
	}

	var total float64
	for i, v := range views {
		row := i + 2
		f.SetCellValue(transactionsSheet, fmt.Sprintf("A%d", row), v.ID)
		f.SetCellValue(transactionsSheet, fmt.Sprintf("B%d", row), v.Username)
		f.SetCellValue(transactionsSheet, fmt.Sprintf("C%d", row), v.Type)
		f.SetCellValue(transactionsSheet, fmt.Sprintf("D%d", row), v.Amount)
		f.SetCellValue(transactionsSheet, fmt.Sprintf("E%d", row), v.Date.UTC().Format("2006-01-02 15:04:05"))
		f.SetCellStyle(transactionsSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("E%d", row), dataStyle)
		total += v.Amount
	}

	totalRow := len(views) + 2
	f.SetCellValue(transactionsSheet, fmt.Sprintf("A%d", totalRow), "Total")
	f.MergeCell(transactionsSheet, fmt.Sprintf("A%d", totalRow), fmt.Sprintf("C%d", totalRow))
	f.SetCellValue(transactionsSheet, fmt.Sprintf("D%d", totalRow), total)
	f.SetCellValue(transactionsSheet, fmt.Sprintf("E%d", totalRow), fmt.Sprintf("%d transactions", len(views)))
	f.SetCellStyle(transactionsSheet, fmt.Sprintf("A%d", totalRow), fmt.Sprintf("E%d", totalRow), totalStyle)

	return f, nil
}
