package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskly_backend/internal/shared/validation"
)

// respondValidation は検証エラーをフィールド単位の422エンベロープで返します。
// 検証エラーでない場合はfalseを返し、呼び出し元で個別処理します。
func respondValidation(c *gin.Context, err error) bool {
	var verr *validation.Error
	if !errors.As(err, &verr) {
		return false
	}
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"message": "The given data was invalid.",
		"errors":  verr.Fields,
	})
	return true
}
