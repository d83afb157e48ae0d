package api

import (
	"net/http"

	"tailortally/server/internal/services"

	"github.com/gin-gonic/gin"
)

// ImportController принимает загрузку прайс-листов правил расхода
type ImportController struct {
	service *services.ImportService
}

// NewImportController создает новый контроллер импорта
func NewImportController(service *services.ImportService) *ImportController {
	return &ImportController{
		service: service,
	}
}

// ImportRules импортирует прайс-лист (CSV или XLSX)
// POST /api/v1/catalog/import (multipart/form-data, поле file)
func (ic *ImportController) ImportRules(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Файл не найден в запросе (поле file)",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Ошибка открытия файла",
			"details": err.Error(),
		})
		return
	}
	defer file.Close()

	result, err := ic.service.ImportRules(file, fileHeader.Filename)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Ошибка импорта прайс-листа",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}
