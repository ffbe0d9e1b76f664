package api

import (
	"net/http"

	"ledger/middleware"

	"github.com/gin-gonic/gin"
)

// Response envelope of every endpoint
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Kind    ErrorKind   `json:"kind,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	// RefreshedTokenMessage is set when the access token was renewed during this request.
	RefreshedTokenMessage string `json:"refreshedTokenMessage,omitempty"`
}

// Success 200 with data
func Success(c *gin.Context, data interface{}) {
	SuccessWithMessage(c, "success", data)
}

// SuccessWithMessage 200 with a message
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:                  http.StatusOK,
		Message:               message,
		Data:                  data,
		RefreshedTokenMessage: c.GetString(middleware.RefreshedTokenMessageKey),
	})
}

// Created 201 with data
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:                  http.StatusCreated,
		Message:               message,
		Data:                  data,
		RefreshedTokenMessage: c.GetString(middleware.RefreshedTokenMessageKey),
	})
}
