package fulfillment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tailortally/server/internal/models"
)

func uintPtr(v uint) *uint        { return &v }
func strPtr(v string) *string     { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestComputeGroupTotals(t *testing.T) {
	lines := []models.OrderLine{
		{ProductID: 1, SchoolID: uintPtr(7), Unit: "meters", Quantity: 9, TotalMaterialReq: 13.5, GivenCloth: floatPtr(12.0)},
		{ProductID: 1, SchoolID: uintPtr(7), Unit: "meters", Quantity: 5, TotalMaterialReq: 7.5},
		{ProductID: 2, SchoolID: nil, Unit: "meters", Quantity: 3, TotalMaterialReq: 6.0},
	}

	totals := ComputeGroupTotals(lines)
	require.Len(t, totals, 2)

	grouped := totals[GroupKey{ProductID: 1, SchoolID: 7, Unit: "meters"}]
	assert.Equal(t, 14, grouped.TotalQuantity) // 9 + 5
	assert.InDelta(t, 21.0, grouped.TotalEstimated, 1e-9)
	assert.InDelta(t, 12.0, grouped.TotalGiven, 1e-9)
	assert.True(t, grouped.HasGiven)

	single := totals[GroupKey{ProductID: 2, SchoolID: 0, Unit: "meters"}]
	assert.Equal(t, 3, single.TotalQuantity)
	assert.False(t, single.HasGiven, "выданная ткань не указана — не путать с нулем")
}

func TestGroupTotalsVariance(t *testing.T) {
	short := GroupTotals{TotalGiven: 10, TotalEstimated: 12, HasGiven: true}
	assert.InDelta(t, -2.0, short.Variance(), 1e-9, "выдано меньше расчета")

	surplus := GroupTotals{TotalGiven: 14, TotalEstimated: 12, HasGiven: true}
	assert.InDelta(t, 2.0, surplus.Variance(), 1e-9, "выдано с запасом")
}

func TestGroupForDisplay(t *testing.T) {
	lines := []models.OrderLine{
		{ProductID: 2, Unit: "meters", Quantity: 3, TotalMaterialReq: 6.0, ProductName: "Shirt"},
		{ProductID: 1, SchoolID: uintPtr(7), Unit: "meters", Quantity: 9, TotalMaterialReq: 13.5, ProductName: "Pant", SchoolName: strPtr("Central"), GivenCloth: floatPtr(20.0)},
		{ProductID: 2, Unit: "meters", Quantity: 2, TotalMaterialReq: 4.0, ProductName: "Shirt"},
		{ProductID: 1, SchoolID: uintPtr(7), Unit: "meters", Quantity: 5, TotalMaterialReq: 7.5, ProductName: "Pant", SchoolName: strPtr("Central")},
	}

	sorted, groups := GroupForDisplay(lines)
	require.Len(t, sorted, 4)
	require.Len(t, groups, 2)

	// сортировка по (изделие, школа), Pant раньше Shirt
	assert.Equal(t, "Pant", groups[0].ProductName)
	assert.Equal(t, 0, groups[0].Start)
	assert.Equal(t, 2, groups[0].Span)
	require.NotNil(t, groups[0].SchoolName)
	assert.Equal(t, "Central", *groups[0].SchoolName)
	assert.Equal(t, 14, groups[0].Totals.TotalQuantity)
	assert.InDelta(t, 21.0, groups[0].Totals.TotalEstimated, 1e-9)
	assert.InDelta(t, -1.0, groups[0].Totals.Variance(), 1e-9)

	assert.Equal(t, "Shirt", groups[1].ProductName)
	assert.Equal(t, 2, groups[1].Start)
	assert.Equal(t, 2, groups[1].Span)
	assert.Nil(t, groups[1].SchoolName)
	assert.False(t, groups[1].Totals.HasGiven)

	// устойчивость: относительный порядок равных строк сохранен
	assert.Equal(t, 9, sorted[0].Quantity)
	assert.Equal(t, 5, sorted[1].Quantity)
	assert.Equal(t, 3, sorted[2].Quantity)
	assert.Equal(t, 2, sorted[3].Quantity)
}

func TestGroupForDisplayMixedUnits(t *testing.T) {
	// одно изделие в разных единицах измерения — это разные группы:
	// количества и расход в метрах и штуках не складываются
	lines := []models.OrderLine{
		{ProductID: 1, Unit: "meters", Quantity: 2, TotalMaterialReq: 3.0, ProductName: "Pant"},
		{ProductID: 1, Unit: "yards", Quantity: 1, TotalMaterialReq: 1.0, ProductName: "Pant"},
		{ProductID: 1, Unit: "meters", Quantity: 4, TotalMaterialReq: 6.0, ProductName: "Pant"},
	}

	sorted, groups := GroupForDisplay(lines)
	require.Len(t, sorted, 3)
	require.Len(t, groups, 2)

	// метры идут первыми и остаются смежными
	assert.Equal(t, 0, groups[0].Start)
	assert.Equal(t, 2, groups[0].Span)
	assert.Equal(t, "meters", sorted[0].Unit)
	assert.Equal(t, "meters", sorted[1].Unit)
	assert.Equal(t, 6, groups[0].Totals.TotalQuantity)
	assert.InDelta(t, 9.0, groups[0].Totals.TotalEstimated, 1e-9)

	assert.Equal(t, 2, groups[1].Start)
	assert.Equal(t, 1, groups[1].Span)
	assert.Equal(t, "yards", sorted[2].Unit)
	assert.Equal(t, 1, groups[1].Totals.TotalQuantity)
	assert.InDelta(t, 1.0, groups[1].Totals.TotalEstimated, 1e-9)

	// ни одна строка не потеряна в агрегатах
	totalQty := 0
	for _, g := range groups {
		totalQty += g.Totals.TotalQuantity
	}
	assert.Equal(t, 7, totalQty)
}

func TestGroupForDisplayNoSchoolBeforeSchool(t *testing.T) {
	lines := []models.OrderLine{
		{ProductID: 1, SchoolID: uintPtr(7), Unit: "meters", Quantity: 1, ProductName: "Pant", SchoolName: strPtr("Central")},
		{ProductID: 1, Unit: "meters", Quantity: 2, ProductName: "Pant"},
	}

	sorted, groups := GroupForDisplay(lines)
	require.Len(t, groups, 2)
	assert.Nil(t, sorted[0].SchoolName, "строка без школы идет первой при одинаковом изделии")
	assert.Equal(t, 1, groups[0].Span)
	assert.Equal(t, 1, groups[1].Span)
}

func TestGroupForDisplayEmpty(t *testing.T) {
	sorted, groups := GroupForDisplay(nil)
	assert.Empty(t, sorted)
	assert.Empty(t, groups)
}

func TestEndToEndLineScenario(t *testing.T) {
	// 4 изделия по 1.5 м = 6.00 м; после сдачи 4 строка закрыта
	size := testSize()
	s := Selection{}.WithProduct(1).WithSize(size.ID).WithRule(size, 101).WithQuantity(4)
	require.InDelta(t, 6.0, s.TotalMaterial, 1e-9)

	line := models.OrderLine{
		ProductID:          s.ProductID,
		SizeID:             s.SizeID,
		FabricWidthInches:  s.FabricWidthInches,
		MaterialReqPerUnit: s.MaterialReqPerUnit,
		Unit:               s.Unit,
		Quantity:           s.Quantity,
		TotalMaterialReq:   s.TotalMaterial,
	}
	assert.Equal(t, models.OrderStatusPending, DeriveStatus([]models.OrderLine{line}))

	line.Deliveries = append(line.Deliveries, models.Delivery{QuantityDelivered: 4})
	assert.True(t, LineDone(&line))
	assert.Equal(t, models.OrderStatusCompleted, DeriveStatus([]models.OrderLine{line}))
}
