package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Recovery middleware для обработки паник и предотвращения краша приложения
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		// Логируем панику с контекстом запроса
		log.Printf("[PANIC] %s %s from %s: %v\n",
			c.Request.Method, c.Request.URL.Path, c.ClientIP(), recovered)

		// Возвращаем 500 ошибку клиенту
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Внутренняя ошибка сервера",
			"message": "Произошла непредвиденная ошибка. Пожалуйста, попробуйте позже.",
		})

		c.Abort()
	})
}
