package api

import (
	"net/http"

	"tailortally/server/internal/models"
	"tailortally/server/internal/services"

	"github.com/gin-gonic/gin"
)

// TailorController управляет API endpoints справочника портных
type TailorController struct {
	service *services.TailorService
}

// NewTailorController создает новый контроллер портных
func NewTailorController(service *services.TailorService) *TailorController {
	return &TailorController{
		service: service,
	}
}

// GetTailors получает список портных
// GET /api/v1/tailors?include_inactive=true
func (tc *TailorController) GetTailors(c *gin.Context) {
	includeInactive := c.Query("include_inactive") == "true"
	tailors, err := tc.service.GetAllTailors(includeInactive)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Ошибка получения портных",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tailors": tailors,
		"count":   len(tailors),
	})
}

// GetTailor получает портного по ID
// GET /api/v1/tailors/:id
func (tc *TailorController) GetTailor(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return
	}

	tailor, err := tc.service.GetTailorByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Портной не найден",
		})
		return
	}

	c.JSON(http.StatusOK, tailor)
}

// CreateTailor создает портного
// POST /api/v1/tailors
func (tc *TailorController) CreateTailor(c *gin.Context) {
	var req models.Tailor
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Неверные данные",
			"details": err.Error(),
		})
		return
	}

	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Имя портного обязательно",
		})
		return
	}
	req.IsActive = true

	if err := tc.service.CreateTailor(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Ошибка создания портного",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, req)
}

// UpdateTailor обновляет данные портного
// PUT /api/v1/tailors/:id
func (tc *TailorController) UpdateTailor(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return
	}

	var req models.Tailor
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Неверные данные",
			"details": err.Error(),
		})
		return
	}

	if err := tc.service.UpdateTailor(id, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Ошибка обновления портного",
			"details": err.Error(),
		})
		return
	}

	tailor, err := tc.service.GetTailorByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Ошибка получения обновленного портного",
		})
		return
	}

	c.JSON(http.StatusOK, tailor)
}

// DeleteTailor удаляет портного
// DELETE /api/v1/tailors/:id
func (tc *TailorController) DeleteTailor(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return
	}

	if err := tc.service.DeleteTailor(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Ошибка удаления портного",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Портной удален",
	})
}
