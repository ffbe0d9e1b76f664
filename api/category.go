package api

import (
	"errors"
	"strings"

	"ledger/archive"
	"ledger/cache"
	"ledger/database"
	"ledger/events"
	"ledger/middleware"
	"ledger/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CategoryHandler category management
type CategoryHandler struct {
	verifier  *middleware.Verifier
	cache     *cache.Cache
	publisher events.Publisher
	archive   *archive.Archive
}

// NewCategoryHandler creates the category handler. cache and archive may be nil.
func NewCategoryHandler(verifier *middleware.Verifier, c *cache.Cache, publisher events.Publisher, arch *archive.Archive) *CategoryHandler {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &CategoryHandler{verifier: verifier, cache: c, publisher: publisher, archive: arch}
}

// CategoryRequest create/update body
type CategoryRequest struct {
	Type  *string `json:"type" example:"Groceries"`
	Color *string `json:"color" example:"#22c55e"`
}

// DeleteCategoriesRequest bulk delete body
type DeleteCategoriesRequest struct {
	Types *[]string `json:"types"`
}

// CategoryChange result of an update or delete
type CategoryChange struct {
	Count    int64    `json:"count"`
	Fallback string   `json:"fallback,omitempty"`
	Deleted  []string `json:"deleted,omitempty"`
}

// ListCategories returns every category
// @Summary List categories
// @Tags categories
// @Produce json
// @Success 200 {object} Response{data=[]models.Category}
// @Router /api/categories [get]
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	if !authorize(c, h.verifier, middleware.Simple()) {
		return
	}

	ctx := c.Request.Context()
	var categories []models.Category
	hit, err := h.cache.Get(ctx, cache.CategoriesKey, &categories)
	if err != nil {
		middleware.Logger(c).WithError(err).Warn("category cache read failed")
	}
	if hit {
		Success(c, categories)
		return
	}

	categories = []models.Category{}
	if err := database.DB.Order("id").Find(&categories).Error; err != nil {
		FailInternal(c, err, "Failed to load categories")
		return
	}
	if err := h.cache.Set(ctx, cache.CategoriesKey, categories); err != nil {
		middleware.Logger(c).WithError(err).Warn("category cache write failed")
	}

	Success(c, categories)
}

// CreateCategory adds a category
// @Summary Create a category
// @Tags categories
// @Accept json
// @Produce json
// @Param request body CategoryRequest true "Category"
// @Success 201 {object} Response{data=models.Category}
// @Failure 400 {object} Response
// @Failure 401 {object} Response
// @Router /api/categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	if !requireFields(c, field{"type", req.Type}) {
		return
	}
	if req.Color != nil && strings.TrimSpace(*req.Color) == "" {
		Fail(c, KindEmptyParameter, "Empty parameter: color")
		return
	}
	if !authorize(c, h.verifier, middleware.Admin()) {
		return
	}

	category := models.Category{Type: strings.TrimSpace(*req.Type), Color: models.DefaultCategoryColor}
	if req.Color != nil {
		category.Color = strings.TrimSpace(*req.Color)
	}

	exists, err := categoryExists(category.Type)
	if err != nil {
		FailInternal(c, err, "Failed to check category")
		return
	}
	if exists {
		Fail(c, KindAlreadyExists, "Category already exists")
		return
	}

	if err := database.DB.Create(&category).Error; err != nil {
		FailInternal(c, err, "Failed to create category")
		return
	}
	h.invalidate(c)

	Created(c, "Category created", category)
}

// UpdateCategory renames or recolors a category; transactions follow a rename
// @Summary Update a category
// @Tags categories
// @Accept json
// @Produce json
// @Param type path string true "Current category type"
// @Param request body CategoryRequest true "New type and color"
// @Success 200 {object} Response{data=CategoryChange}
// @Failure 400 {object} Response
// @Failure 401 {object} Response
// @Failure 404 {object} Response
// @Router /api/categories/{type} [patch]
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	var req CategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	if !requireFields(c, field{"type", req.Type}, field{"color", req.Color}) {
		return
	}
	if !authorize(c, h.verifier, middleware.Admin()) {
		return
	}

	oldType := c.Param("type")
	newType := strings.TrimSpace(*req.Type)

	var category models.Category
	if err := database.DB.Where("type = ?", oldType).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			Fail(c, KindNotFound, "Category not found")
			return
		}
		FailInternal(c, err, "Failed to load category")
		return
	}

	if newType != oldType {
		exists, err := categoryExists(newType)
		if err != nil {
			FailInternal(c, err, "Failed to check category")
			return
		}
		if exists {
			Fail(c, KindAlreadyExists, "Category already exists")
			return
		}
	}

	if err := database.DB.Model(&category).Updates(map[string]interface{}{
		"type":  newType,
		"color": strings.TrimSpace(*req.Color),
	}).Error; err != nil {
		FailInternal(c, err, "Failed to update category")
		return
	}

	var count int64
	if newType != oldType {
		result := database.DB.Model(&models.Transaction{}).Where("type = ?", oldType).Update("type", newType)
		if result.Error != nil {
			FailInternal(c, result.Error, "Failed to update transactions")
			return
		}
		count = result.RowsAffected
	}
	h.invalidate(c)

	SuccessWithMessage(c, "Category updated", CategoryChange{Count: count})
}

// DeleteCategories removes categories and moves their transactions to the fallback category
// @Summary Delete categories
// @Description All named categories must exist. The last remaining category cannot be deleted;
// @Description when every category is named the oldest one is kept. Transactions move to the
// @Description oldest surviving category.
// @Tags categories
// @Accept json
// @Produce json
// @Param request body DeleteCategoriesRequest true "Types to delete"
// @Success 200 {object} Response{data=CategoryChange}
// @Failure 400 {object} Response
// @Failure 401 {object} Response
// @Failure 404 {object} Response
// @Router /api/categories [delete]
func (h *CategoryHandler) DeleteCategories(c *gin.Context) {
	var req DeleteCategoriesRequest
	if !bindJSON(c, &req) {
		return
	}
	var types []string
	if req.Types != nil {
		types = *req.Types
	}
	if !requireList(c, "types", types, req.Types != nil) {
		return
	}
	if !authorize(c, h.verifier, middleware.Admin()) {
		return
	}

	var all []models.Category
	if err := database.DB.Order("id").Find(&all).Error; err != nil {
		FailInternal(c, err, "Failed to load categories")
		return
	}

	plan, missing := planCategoryDeletion(all, uniqueStrings(types))
	if len(missing) > 0 {
		FailWithData(c, KindNotFound, "Category not found", gin.H{"missing": missing})
		return
	}
	if len(all) <= 1 {
		Fail(c, KindInvalidParameter, "Cannot delete the only category")
		return
	}

	result := database.DB.Model(&models.Transaction{}).Where("type IN ?", plan.deleted).Update("type", plan.fallback)
	if result.Error != nil {
		FailInternal(c, result.Error, "Failed to reassign transactions")
		return
	}
	count := result.RowsAffected

	if err := database.DB.Where("type IN ?", plan.deleted).Delete(&models.Category{}).Error; err != nil {
		FailInternal(c, err, "Failed to delete categories")
		return
	}
	h.invalidate(c)

	by := ""
	if claims := middleware.GetCurrentClaims(c); claims != nil {
		by = claims.Username
	}
	if err := h.archive.LogReassignment(c.Request.Context(), plan.deleted, plan.fallback, count, by); err != nil {
		middleware.Logger(c).WithError(err).Warn("category reassignment not archived")
	}
	change := CategoryChange{Count: count, Fallback: plan.fallback, Deleted: plan.deleted}
	publish(c, h.publisher, events.CategoriesDeleted, change)

	SuccessWithMessage(c, "Categories deleted", change)
}

type categoryDeletion struct {
	deleted  []string
	fallback string
}

// planCategoryDeletion validates types against all (ordered by id) and picks the fallback.
// When every category is named the oldest one survives.
func planCategoryDeletion(all []models.Category, types []string) (categoryDeletion, []string) {
	known := make(map[string]bool, len(all))
	for _, cat := range all {
		known[cat.Type] = true
	}

	var missing []string
	named := make(map[string]bool, len(types))
	for _, t := range types {
		if !known[t] {
			missing = append(missing, t)
		}
		named[t] = true
	}
	if len(missing) > 0 || len(all) == 0 {
		return categoryDeletion{}, missing
	}

	if len(named) >= len(all) {
		delete(named, all[0].Type)
	}

	var plan categoryDeletion
	for _, cat := range all {
		if named[cat.Type] {
			plan.deleted = append(plan.deleted, cat.Type)
		} else if plan.fallback == "" {
			plan.fallback = cat.Type
		}
	}
	return plan, nil
}

func categoryExists(categoryType string) (bool, error) {
	var count int64
	err := database.DB.Model(&models.Category{}).Where("type = ?", categoryType).Count(&count).Error
	return count > 0, err
}

func (h *CategoryHandler) invalidate(c *gin.Context) {
	if err := h.cache.Delete(c.Request.Context(), cache.CategoriesKey); err != nil {
		middleware.Logger(c).WithError(err).Warn("category cache invalidation failed")
	}
}
