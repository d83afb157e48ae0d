package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tailortally/server/internal/models"
)

func tallyLine(quantity int, perUnit float64, delivered ...int) models.OrderLine {
	line := models.OrderLine{
		Quantity:           quantity,
		MaterialReqPerUnit: perUnit,
		TotalMaterialReq:   float64(quantity) * perUnit,
		Unit:               "meters",
	}
	for _, q := range delivered {
		line.Deliveries = append(line.Deliveries, models.Delivery{QuantityDelivered: q})
	}
	return line
}

func TestTallyOrders(t *testing.T) {
	orders := []models.Order{
		// полностью сдан: 4 шт по 1.5 м
		{OrderLines: []models.OrderLine{tallyLine(4, 1.5, 4)}},
		// в работе: сдано 4 из 10
		{OrderLines: []models.OrderLine{tallyLine(10, 1.5, 4)}},
		// еще не начат
		{OrderLines: []models.OrderLine{tallyLine(2, 1.5)}},
	}

	stats := &DashboardStats{}
	tallyOrders(orders, stats)

	assert.Equal(t, 3, stats.TotalOrders)
	assert.Equal(t, 1, stats.CompletedOrders)
	assert.Equal(t, 2, stats.ActiveOrders)

	// расход считается по всем строкам: закрытый заказ не исчезает из issued
	assert.InDelta(t, 24.0, stats.MaterialIssued, 1e-9) // 6 + 15 + 3
	assert.InDelta(t, 12.0, stats.MaterialDone, 1e-9)   // 6 + 6
	assert.InDelta(t, 12.0, stats.MaterialPending, 1e-9)
	assert.InDelta(t, stats.MaterialIssued, stats.MaterialDone+stats.MaterialPending, 1e-9)

	assert.Equal(t, 8, stats.PiecesPending) // 6 + 2
}

func TestTallyOrdersEmpty(t *testing.T) {
	stats := &DashboardStats{}
	tallyOrders(nil, stats)

	assert.Zero(t, stats.TotalOrders)
	assert.Zero(t, stats.MaterialIssued)
	assert.Zero(t, stats.MaterialPending)
}
