package api

import (
	"net/http"

	"tailortally/server/internal/services"

	"github.com/gin-gonic/gin"
)

// AdminController управляет паролем администратора
type AdminController struct {
	settings *services.SettingsService
}

// NewAdminController создает новый контроллер администратора
func NewAdminController(settings *services.SettingsService) *AdminController {
	return &AdminController{
		settings: settings,
	}
}

// VerifyPassword проверяет пароль администратора
// POST /api/v1/admin/verify-password
func (ac *AdminController) VerifyPassword(c *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Неверные данные",
			"details": err.Error(),
		})
		return
	}

	ok, err := ac.settings.VerifyAdminPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Ошибка проверки пароля",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"valid": ok})
}

// ChangePassword меняет пароль администратора
// POST /api/v1/admin/change-password
func (ac *AdminController) ChangePassword(c *gin.Context) {
	var req struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Неверные данные",
			"details": err.Error(),
		})
		return
	}

	if err := ac.settings.ChangeAdminPassword(req.CurrentPassword, req.NewPassword); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Ошибка смены пароля",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Пароль администратора изменен"})
}
