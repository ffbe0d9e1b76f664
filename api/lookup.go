package api

import (
	"errors"

	"ledger/database"
	"ledger/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// findUser loads a user by username, answering 404 when absent.
func findUser(c *gin.Context, username string) (*models.User, bool) {
	var user models.User
	if err := database.DB.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			Fail(c, KindNotFound, "User not found")
			return nil, false
		}
		FailInternal(c, err, "Failed to load user")
		return nil, false
	}
	return &user, true
}

// findCategory loads a category by type, answering 404 when absent.
func findCategory(c *gin.Context, categoryType string) (*models.Category, bool) {
	var category models.Category
	if err := database.DB.Where("type = ?", categoryType).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			Fail(c, KindNotFound, "Category not found")
			return nil, false
		}
		FailInternal(c, err, "Failed to load category")
		return nil, false
	}
	return &category, true
}

// findGroup loads a group with its members in insertion order, answering 404 when absent.
func findGroup(c *gin.Context, name string) (*models.Group, bool) {
	var group models.Group
	if err := database.DB.Preload("Members", orderByID).Where("name = ?", name).First(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			Fail(c, KindNotFound, "Group not found")
			return nil, false
		}
		FailInternal(c, err, "Failed to load group")
		return nil, false
	}
	return &group, true
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}
