package api

import (
	"net/http"

	"tailortally/server/internal/models"
	"tailortally/server/internal/services"

	"github.com/gin-gonic/gin"
)

// SchoolController управляет API endpoints справочника школ
type SchoolController struct {
	service *services.SchoolService
}

// NewSchoolController создает новый контроллер школ
func NewSchoolController(service *services.SchoolService) *SchoolController {
	return &SchoolController{
		service: service,
	}
}

// GetSchools получает список всех школ
// GET /api/v1/schools
func (sc *SchoolController) GetSchools(c *gin.Context) {
	schools, err := sc.service.GetAllSchools()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Ошибка получения школ",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"schools": schools,
		"count":   len(schools),
	})
}

// CreateSchool создает школу
// POST /api/v1/schools
func (sc *SchoolController) CreateSchool(c *gin.Context) {
	var req models.School
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Неверные данные",
			"details": err.Error(),
		})
		return
	}

	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Название школы обязательно",
		})
		return
	}

	if err := sc.service.CreateSchool(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Ошибка создания школы",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, req)
}

// UpdateSchool обновляет название школы
// PUT /api/v1/schools/:id
func (sc *SchoolController) UpdateSchool(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return
	}

	var req models.School
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Неверные данные",
			"details": err.Error(),
		})
		return
	}

	if err := sc.service.UpdateSchool(id, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Ошибка обновления школы",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Школа обновлена"})
}

// DeleteSchool удаляет школу
// DELETE /api/v1/schools/:id
func (sc *SchoolController) DeleteSchool(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return
	}

	if err := sc.service.DeleteSchool(id); err != nil {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Ошибка удаления школы",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Школа удалена"})
}
