package api

import (
	"net/http"
	"strconv"

	"tailortally/server/internal/models"
	"tailortally/server/internal/services"

	"github.com/gin-gonic/gin"
)

// CatalogController управляет API endpoints каталога изделий
type CatalogController struct {
	service *services.CatalogService
}

// NewCatalogController создает новый контроллер каталога
func NewCatalogController(service *services.CatalogService) *CatalogController {
	return &CatalogController{
		service: service,
	}
}

// GetCatalog возвращает снимок каталога (изделия с размерами и правилами)
// GET /api/v1/catalog
func (cc *CatalogController) GetCatalog(c *gin.Context) {
	products := cc.service.GetAllProducts()
	c.JSON(http.StatusOK, gin.H{
		"products":    products,
		"count":       len(products),
		"last_update": cc.service.GetLastUpdate(),
	})
}

// ReloadCatalog принудительно перечитывает каталог из БД
// POST /api/v1/catalog/reload
func (cc *CatalogController) ReloadCatalog(c *gin.Context) {
	if err := cc.service.LoadCatalog(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Ошибка обновления каталога",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     "Каталог обновлен",
		"last_update": cc.service.GetLastUpdate(),
	})
}

// CreateProduct создает изделие
// POST /api/v1/catalog/products
func (cc *CatalogController) CreateProduct(c *gin.Context) {
	var req models.Product
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Неверные данные",
			"details": err.Error(),
		})
		return
	}

	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Название изделия обязательно",
		})
		return
	}
	req.IsActive = true

	if err := cc.service.CreateProduct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Ошибка создания изделия",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, req)
}

// UpdateProduct обновляет изделие
// PUT /api/v1/catalog/products/:id
func (cc *CatalogController) UpdateProduct(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return
	}

	var req models.Product
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Неверные данные",
			"details": err.Error(),
		})
		return
	}

	if err := cc.service.UpdateProduct(id, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Ошибка обновления изделия",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Изделие обновлено"})
}

// DeleteProduct удаляет (или деактивирует) изделие
// DELETE /api/v1/catalog/products/:id
func (cc *CatalogController) DeleteProduct(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return
	}

	if err := cc.service.DeleteProduct(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Ошибка удаления изделия",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Изделие удалено"})
}

// CreateSize добавляет размер к изделию
// POST /api/v1/catalog/sizes
func (cc *CatalogController) CreateSize(c *gin.Context) {
	var req models.Size
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Неверные данные",
			"details": err.Error(),
		})
		return
	}

	if req.ProductID == 0 || req.Label == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Изделие и метка размера обязательны",
		})
		return
	}
	req.IsActive = true

	if err := cc.service.CreateSize(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Ошибка создания размера",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, req)
}

// UpdateSize обновляет размер
// PUT /api/v1/catalog/sizes/:id
func (cc *CatalogController) UpdateSize(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return
	}

	var req models.Size
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Неверные данные",
			"details": err.Error(),
		})
		return
	}

	if err := cc.service.UpdateSize(id, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Ошибка обновления размера",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Размер обновлен"})
}

// DeleteSize удаляет размер
// DELETE /api/v1/catalog/sizes/:id
func (cc *CatalogController) DeleteSize(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return
	}

	if err := cc.service.DeleteSize(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Ошибка удаления размера",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Размер удален"})
}

// CreateMaterialRule добавляет правило расхода
// POST /api/v1/catalog/rules
func (cc *CatalogController) CreateMaterialRule(c *gin.Context) {
	var req models.MaterialRule
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Неверные данные",
			"details": err.Error(),
		})
		return
	}

	if req.SizeID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Размер обязателен",
		})
		return
	}
	if req.Unit == "" {
		req.Unit = "meters"
	}

	if err := cc.service.CreateMaterialRule(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Ошибка создания правила расхода",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, req)
}

// UpdateMaterialRule обновляет правило расхода
// PUT /api/v1/catalog/rules/:id
func (cc *CatalogController) UpdateMaterialRule(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return
	}

	var req models.MaterialRule
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Неверные данные",
			"details": err.Error(),
		})
		return
	}

	if err := cc.service.UpdateMaterialRule(id, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Ошибка обновления правила расхода",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Правило расхода обновлено"})
}

// DeleteMaterialRule удаляет правило расхода
// DELETE /api/v1/catalog/rules/:id
func (cc *CatalogController) DeleteMaterialRule(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return
	}

	if err := cc.service.DeleteMaterialRule(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Ошибка удаления правила расхода",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Правило расхода удалено"})
}

// parseUintParam читает числовой path-параметр, сам отвечая 400 при ошибке
func parseUintParam(c *gin.Context, name string) (uint, error) {
	value, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Неверный ID в адресе запроса",
		})
		return 0, err
	}
	return uint(value), nil
}
