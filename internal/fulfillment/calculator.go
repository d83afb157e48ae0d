// Package fulfillment содержит чистую логику расчета расхода материала
// и состояния выполнения заказа. Пакет не выполняет I/O и работает
// с неизменяемым снимком каталога: любое изменение выбора выражается
// как "новое состояние из старого плюс событие".
package fulfillment

import (
	"tailortally/server/internal/models"
)

// Selection — состояние выбора одной строки заказа (изделие, размер,
// правило расхода, количество) вместе с производными значениями.
// Нулевой ID означает "не выбрано".
type Selection struct {
	ProductID          uint
	SizeID             uint
	RuleID             uint
	FabricWidthInches  *int
	MaterialReqPerUnit float64
	Unit               string
	Quantity           int
	TotalMaterial      float64
}

// WithProduct выбирает изделие. Смена изделия всегда сбрасывает размер,
// правило и все производные значения: частичное состояние не должно
// переживать смену изделия, иначе возможны несовместимые комбинации
// единиц измерения и ширины ткани.
func (s Selection) WithProduct(productID uint) Selection {
	s.ProductID = productID
	s.SizeID = 0
	return s.clearRule()
}

// WithSize выбирает размер. Сбрасывает правило и производные значения.
func (s Selection) WithSize(sizeID uint) Selection {
	s.SizeID = sizeID
	return s.clearRule()
}

// WithRule выбирает правило расхода по его ID внутри размера.
// Если правило не найдено (lookup-miss или устаревшая ссылка после
// обновления каталога), прежний выбор сохраняется без ошибки.
func (s Selection) WithRule(size *models.Size, ruleID uint) Selection {
	rule := SelectRule(size, ruleID)
	if rule == nil {
		return s
	}
	s.RuleID = rule.ID
	s.FabricWidthInches = rule.FabricWidthInches
	s.MaterialReqPerUnit = rule.LengthRequired
	s.Unit = rule.Unit
	s.TotalMaterial = ComputeLineTotal(s.Quantity, rule)
	return s
}

// WithQuantity устанавливает количество. Отрицательное или отсутствующее
// значение нормализуется в 0 — производные значения никогда не NaN.
func (s Selection) WithQuantity(quantity int) Selection {
	if quantity < 0 {
		quantity = 0
	}
	s.Quantity = quantity
	s.TotalMaterial = float64(quantity) * s.MaterialReqPerUnit
	return s
}

// ApplyDefaultRule выбирает правило по умолчанию: первое правило размера
// в исходном порядке (без пересортировки). Срабатывает, если правило еще
// не выбрано и либо у размера ровно одно правило, либо количество стало
// положительным. Результат детерминирован для одного и того же каталога.
func (s Selection) ApplyDefaultRule(size *models.Size) Selection {
	if s.RuleID != 0 {
		return s
	}
	rule := AutoSelectDefaultRule(size)
	if rule == nil {
		return s
	}
	if len(size.MaterialRules) == 1 || s.Quantity > 0 {
		return s.WithRule(size, rule.ID)
	}
	return s
}

func (s Selection) clearRule() Selection {
	s.RuleID = 0
	s.FabricWidthInches = nil
	s.MaterialReqPerUnit = 0
	s.Unit = ""
	s.TotalMaterial = 0
	return s
}

// SelectRule ищет правило по ID в коллекции правил размера.
// Возвращает nil, если размер не задан или правило не найдено —
// вызывающий код не должен падать на несуществующем ID.
func SelectRule(size *models.Size, ruleID uint) *models.MaterialRule {
	if size == nil {
		return nil
	}
	for i := range size.MaterialRules {
		if size.MaterialRules[i].ID == ruleID {
			return &size.MaterialRules[i]
		}
	}
	return nil
}

// AutoSelectDefaultRule возвращает первое правило размера в исходном
// порядке или nil, если правил нет.
func AutoSelectDefaultRule(size *models.Size) *models.MaterialRule {
	if size == nil || len(size.MaterialRules) == 0 {
		return nil
	}
	return &size.MaterialRules[0]
}

// ComputeLineTotal возвращает общий расход материала для строки:
// количество * расход на единицу. Неположительное количество дает 0.
func ComputeLineTotal(quantity int, rule *models.MaterialRule) float64 {
	if rule == nil || quantity <= 0 {
		return 0
	}
	return float64(quantity) * rule.LengthRequired
}

// FindSize ищет размер по ID внутри изделия. nil при отсутствии.
func FindSize(product *models.Product, sizeID uint) *models.Size {
	if product == nil {
		return nil
	}
	for i := range product.Sizes {
		if product.Sizes[i].ID == sizeID {
			return &product.Sizes[i]
		}
	}
	return nil
}
