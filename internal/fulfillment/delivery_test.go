package fulfillment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tailortally/server/internal/models"
)

func lineWithDeliveries(quantity int, delivered ...int) models.OrderLine {
	line := models.OrderLine{Quantity: quantity, MaterialReqPerUnit: 1.5, Unit: "meters"}
	for _, q := range delivered {
		line.Deliveries = append(line.Deliveries, models.Delivery{
			QuantityDelivered: q,
			DateDelivered:     time.Now(),
		})
	}
	return line
}

func TestPendingAfterDeliverySequence(t *testing.T) {
	line := lineWithDeliveries(10)
	assert.Equal(t, 0, DeliveredQty(&line))
	assert.Equal(t, 10, PendingQty(&line))
	assert.False(t, LineDone(&line))

	line = lineWithDeliveries(10, 4)
	assert.Equal(t, 4, DeliveredQty(&line))
	assert.Equal(t, 6, PendingQty(&line))
	assert.False(t, LineDone(&line))

	line = lineWithDeliveries(10, 4, 6)
	assert.Equal(t, 10, DeliveredQty(&line))
	assert.Equal(t, 0, PendingQty(&line))
	assert.True(t, LineDone(&line))
}

func TestOverDeliveryNegativePending(t *testing.T) {
	line := lineWithDeliveries(5, 4, 3)

	assert.Equal(t, 7, DeliveredQty(&line))
	assert.Equal(t, -2, PendingQty(&line), "пересдача сохраняется как отрицательный остаток")
	assert.True(t, LineDone(&line), "пересданная строка считается закрытой")
	assert.Zero(t, MaterialInHand(&line))
}

func TestMaterialInHandAndUsed(t *testing.T) {
	line := lineWithDeliveries(10, 4)

	assert.InDelta(t, 9.0, MaterialInHand(&line), 1e-9) // 6 * 1.5
	assert.InDelta(t, 6.0, MaterialUsed(&line), 1e-9)   // 4 * 1.5
}

func TestValidateDeliveryQty(t *testing.T) {
	assert.NoError(t, ValidateDeliveryQty(1))
	assert.Error(t, ValidateDeliveryQty(0))
	assert.Error(t, ValidateDeliveryQty(-2))
}

func TestDeriveStatus(t *testing.T) {
	// без строк заказ остается в ожидании
	assert.Equal(t, models.OrderStatusPending, DeriveStatus(nil))

	// ни одной сдачи
	lines := []models.OrderLine{lineWithDeliveries(5), lineWithDeliveries(3)}
	assert.Equal(t, models.OrderStatusPending, DeriveStatus(lines))

	// частичная сдача по одной строке
	lines = []models.OrderLine{lineWithDeliveries(5, 2), lineWithDeliveries(3)}
	assert.Equal(t, models.OrderStatusInProgress, DeriveStatus(lines))

	// одна строка закрыта, вторая нет
	lines = []models.OrderLine{lineWithDeliveries(5, 5), lineWithDeliveries(3)}
	assert.Equal(t, models.OrderStatusInProgress, DeriveStatus(lines))

	// все строки закрыты
	lines = []models.OrderLine{lineWithDeliveries(5, 5), lineWithDeliveries(3, 1, 2)}
	assert.Equal(t, models.OrderStatusCompleted, DeriveStatus(lines))

	// пересдача тоже закрывает заказ
	lines = []models.OrderLine{lineWithDeliveries(5, 7)}
	assert.Equal(t, models.OrderStatusCompleted, DeriveStatus(lines))
}
