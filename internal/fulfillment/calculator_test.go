package fulfillment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tailortally/server/internal/models"
)

func intPtr(v int) *int { return &v }

func testSize() *models.Size {
	return &models.Size{
		ID:    10,
		Label: "30",
		MaterialRules: []models.MaterialRule{
			{ID: 101, SizeID: 10, FabricWidthInches: intPtr(36), LengthRequired: 1.5, Unit: "meters"},
			{ID: 102, SizeID: 10, FabricWidthInches: intPtr(60), LengthRequired: 1.0, Unit: "meters"},
		},
	}
}

func TestComputeLineTotal(t *testing.T) {
	rule := &models.MaterialRule{ID: 101, LengthRequired: 1.5, Unit: "meters"}

	assert.InDelta(t, 6.0, ComputeLineTotal(4, rule), 1e-9)
	assert.Equal(t, 0.0, ComputeLineTotal(0, rule))
	assert.Equal(t, 0.0, ComputeLineTotal(-3, rule))
	assert.Equal(t, 0.0, ComputeLineTotal(4, nil))
}

func TestSelectRule(t *testing.T) {
	size := testSize()

	rule := SelectRule(size, 102)
	require.NotNil(t, rule)
	assert.Equal(t, uint(102), rule.ID)
	assert.Equal(t, 1.0, rule.LengthRequired)

	// несуществующий ID и nil-размер не приводят к панике
	assert.Nil(t, SelectRule(size, 999))
	assert.Nil(t, SelectRule(nil, 101))
}

func TestAutoSelectDefaultRule(t *testing.T) {
	size := testSize()

	rule := AutoSelectDefaultRule(size)
	require.NotNil(t, rule)
	assert.Equal(t, uint(101), rule.ID, "правило по умолчанию — первое в исходном порядке")

	assert.Nil(t, AutoSelectDefaultRule(nil))
	assert.Nil(t, AutoSelectDefaultRule(&models.Size{ID: 11}))
}

func TestSelectionWithRuleAndQuantity(t *testing.T) {
	size := testSize()

	s := Selection{}.WithProduct(1).WithSize(size.ID).WithRule(size, 101).WithQuantity(4)

	assert.Equal(t, uint(101), s.RuleID)
	assert.Equal(t, 1.5, s.MaterialReqPerUnit)
	assert.Equal(t, "meters", s.Unit)
	assert.InDelta(t, 6.0, s.TotalMaterial, 1e-9)

	// порядок "количество, затем правило" дает тот же итог
	s2 := Selection{}.WithProduct(1).WithSize(size.ID).WithQuantity(4).WithRule(size, 101)
	assert.Equal(t, s.TotalMaterial, s2.TotalMaterial)
}

func TestSelectionRuleIdempotent(t *testing.T) {
	size := testSize()

	s := Selection{}.WithProduct(1).WithSize(size.ID).WithQuantity(3).WithRule(size, 102)
	again := s.WithRule(size, 102)

	assert.Equal(t, s, again, "повторный выбор того же правила не меняет состояние")
}

func TestSelectionRuleLookupMiss(t *testing.T) {
	size := testSize()

	s := Selection{}.WithProduct(1).WithSize(size.ID).WithQuantity(2).WithRule(size, 101)
	after := s.WithRule(size, 999)

	assert.Equal(t, s, after, "несуществующее правило сохраняет прежний выбор")

	// устаревшая ссылка после перезагрузки каталога тоже не-оп
	empty := &models.Size{ID: 10}
	assert.Equal(t, s, s.WithRule(empty, 101))
}

func TestSelectionProductResetClearsDownstream(t *testing.T) {
	size := testSize()

	s := Selection{}.WithProduct(1).WithSize(size.ID).WithQuantity(5).WithRule(size, 101)
	require.NotZero(t, s.TotalMaterial)

	reset := s.WithProduct(2)

	assert.Equal(t, uint(2), reset.ProductID)
	assert.Zero(t, reset.SizeID)
	assert.Zero(t, reset.RuleID)
	assert.Nil(t, reset.FabricWidthInches)
	assert.Zero(t, reset.MaterialReqPerUnit)
	assert.Empty(t, reset.Unit)
	assert.Zero(t, reset.TotalMaterial)
	assert.Equal(t, 5, reset.Quantity, "количество переживает смену изделия")
}

func TestSelectionSizeResetClearsRule(t *testing.T) {
	size := testSize()

	s := Selection{}.WithProduct(1).WithSize(size.ID).WithRule(size, 102)
	reset := s.WithSize(11)

	assert.Equal(t, uint(11), reset.SizeID)
	assert.Zero(t, reset.RuleID)
	assert.Zero(t, reset.TotalMaterial)
}

func TestSelectionNegativeQuantity(t *testing.T) {
	size := testSize()

	s := Selection{}.WithProduct(1).WithSize(size.ID).WithRule(size, 101).WithQuantity(-7)

	assert.Zero(t, s.Quantity)
	assert.Zero(t, s.TotalMaterial)
}

func TestApplyDefaultRule(t *testing.T) {
	single := &models.Size{
		ID: 20,
		MaterialRules: []models.MaterialRule{
			{ID: 201, SizeID: 20, LengthRequired: 2.25, Unit: "meters"},
		},
	}

	// единственное правило выбирается сразу, даже без количества
	s := Selection{}.WithProduct(1).WithSize(single.ID).ApplyDefaultRule(single)
	assert.Equal(t, uint(201), s.RuleID)

	// при нескольких правилах выбор откладывается до положительного количества
	multi := testSize()
	s = Selection{}.WithProduct(1).WithSize(multi.ID).ApplyDefaultRule(multi)
	assert.Zero(t, s.RuleID)

	s = s.WithQuantity(3).ApplyDefaultRule(multi)
	assert.Equal(t, uint(101), s.RuleID)
	assert.InDelta(t, 4.5, s.TotalMaterial, 1e-9)

	// явный выбор пользователя не перетирается
	s = Selection{}.WithProduct(1).WithSize(multi.ID).WithRule(multi, 102).WithQuantity(3)
	s = s.ApplyDefaultRule(multi)
	assert.Equal(t, uint(102), s.RuleID)
}

func TestFindSize(t *testing.T) {
	product := &models.Product{
		ID:    1,
		Sizes: []models.Size{{ID: 10, Label: "30"}, {ID: 11, Label: "32"}},
	}

	size := FindSize(product, 11)
	require.NotNil(t, size)
	assert.Equal(t, "32", size.Label)

	assert.Nil(t, FindSize(product, 99))
	assert.Nil(t, FindSize(nil, 10))
}
