package api

import (
	"net/http"
	"time"

	"tailortally/server/internal/services"

	"github.com/gin-gonic/gin"
)

// OrderController управляет API endpoints заказов
type OrderController struct {
	service  *services.OrderService
	settings *services.SettingsService
}

// NewOrderController создает новый контроллер заказов
func NewOrderController(service *services.OrderService, settings *services.SettingsService) *OrderController {
	return &OrderController{
		service:  service,
		settings: settings,
	}
}

// CreateOrder создает заказ
// POST /api/v1/orders
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var req services.CreateOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Неверные данные",
			"details": err.Error(),
		})
		return
	}

	order, err := oc.service.CreateOrder(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Ошибка создания заказа",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, order)
}

// GetOrders возвращает заказы, новые первыми
// GET /api/v1/orders?search=...&status=...
func (oc *OrderController) GetOrders(c *gin.Context) {
	orders, err := oc.service.ListOrders(c.Query("search"), c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Ошибка получения заказов",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// GetOrder возвращает заказ со строками, сгруппированными для отображения
// GET /api/v1/orders/:id
func (oc *OrderController) GetOrder(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return
	}

	detail, err := oc.service.GetOrderDetail(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Заказ не найден",
		})
		return
	}

	c.JSON(http.StatusOK, detail)
}

// DeleteOrder удаляет заказ целиком (требуется пароль администратора)
// DELETE /api/v1/orders/:id
func (oc *OrderController) DeleteOrder(c *gin.Context) {
	if !oc.requireAdminPassword(c) {
		return
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return
	}

	if err := oc.service.DeleteOrder(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Ошибка удаления заказа",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Заказ удален"})
}

// UpdateLine правит строку заказа (требуется пароль администратора)
// PUT /api/v1/orders/lines/:line_id
func (oc *OrderController) UpdateLine(c *gin.Context) {
	if !oc.requireAdminPassword(c) {
		return
	}

	lineID, err := parseUintParam(c, "line_id")
	if err != nil {
		return
	}

	var req services.UpdateLineInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Неверные данные",
			"details": err.Error(),
		})
		return
	}

	if err := oc.service.UpdateLine(lineID, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Ошибка обновления строки заказа",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Строка заказа обновлена"})
}

// DeleteLine удаляет строку заказа (требуется пароль администратора)
// DELETE /api/v1/orders/lines/:line_id
func (oc *OrderController) DeleteLine(c *gin.Context) {
	if !oc.requireAdminPassword(c) {
		return
	}

	lineID, err := parseUintParam(c, "line_id")
	if err != nil {
		return
	}

	if err := oc.service.DeleteLine(lineID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Ошибка удаления строки заказа",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Строка заказа удалена"})
}

// deliveryRequest — запрос на фиксацию сдачи изделий
type deliveryRequest struct {
	Quantity      int        `json:"quantity" binding:"required"`
	DateDelivered *time.Time `json:"date_delivered"`
}

// RecordDelivery фиксирует сдачу готовых изделий по строке заказа
// POST /api/v1/orders/lines/:line_id/deliveries
func (oc *OrderController) RecordDelivery(c *gin.Context) {
	lineID, err := parseUintParam(c, "line_id")
	if err != nil {
		return
	}

	var req deliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Неверные данные",
			"details": err.Error(),
		})
		return
	}

	date := time.Time{}
	if req.DateDelivered != nil {
		date = *req.DateDelivered
	}

	order, err := oc.service.RecordDelivery(lineID, req.Quantity, date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Ошибка записи сдачи",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, order)
}

// requireAdminPassword проверяет заголовок X-Admin-Password.
// Возвращает false и сам пишет ответ, если доступ запрещен.
func (oc *OrderController) requireAdminPassword(c *gin.Context) bool {
	password := c.GetHeader("X-Admin-Password")
	if password == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Требуется пароль администратора (заголовок X-Admin-Password)",
		})
		return false
	}

	ok, err := oc.settings.VerifyAdminPassword(password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Ошибка проверки пароля",
			"details": err.Error(),
		})
		return false
	}
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Неверный пароль администратора",
		})
		return false
	}
	return true
}
