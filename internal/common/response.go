// Package common holds the JSON response envelope shared by every handler.
package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// OK writes the success envelope. code 0 means success; non-zero codes in
// Fail group by range: 1xxxx client errors, 4xxxx auth/not-found, 5xxxx
// server errors.
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "ok",
		"data":    data,
	})
}

func Fail(c *gin.Context, httpStatus int, code int, msg string) {
	c.JSON(httpStatus, gin.H{
		"code":    code,
		"message": msg,
		"data":    nil,
	})
}
