package api

import (
	"net/http"

	"tailortally/server/internal/services"

	"github.com/gin-gonic/gin"
)

// DashboardController управляет API endpoints дашборда
type DashboardController struct {
	service *services.DashboardService
}

// NewDashboardController создает новый контроллер дашборда
func NewDashboardController(service *services.DashboardService) *DashboardController {
	return &DashboardController{
		service: service,
	}
}

// GetStats возвращает сводку мастерской
// GET /api/v1/dashboard/stats
func (dc *DashboardController) GetStats(c *gin.Context) {
	stats, err := dc.service.GetStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Ошибка получения статистики",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}
