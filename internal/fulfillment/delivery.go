package fulfillment

import (
	"fmt"

	"tailortally/server/internal/models"
)

// DeliveredQty возвращает суммарное количество сданных изделий по строке.
func DeliveredQty(line *models.OrderLine) int {
	total := 0
	for i := range line.Deliveries {
		total += line.Deliveries[i].QuantityDelivered
	}
	return total
}

// PendingQty возвращает остаток к сдаче: quantity - delivered.
// Значение может быть отрицательным при пересдаче — исторический факт
// сохраняется как есть, без ограничения снизу.
func PendingQty(line *models.OrderLine) int {
	return line.Quantity - DeliveredQty(line)
}

// LineDone сообщает, закрыта ли строка: остаток <= 0.
// Пересданная строка (отрицательный остаток) тоже считается закрытой.
func LineDone(line *models.OrderLine) bool {
	return PendingQty(line) <= 0
}

// MaterialInHand возвращает материал, еще находящийся в работе по строке:
// остаток * расход на единицу. При отрицательном остатке возвращает 0.
func MaterialInHand(line *models.OrderLine) float64 {
	pending := PendingQty(line)
	if pending <= 0 {
		return 0
	}
	return float64(pending) * line.MaterialReqPerUnit
}

// MaterialUsed возвращает материал по уже сданным изделиям строки.
func MaterialUsed(line *models.OrderLine) float64 {
	return float64(DeliveredQty(line)) * line.MaterialReqPerUnit
}

// ValidateDeliveryQty проверяет количество для новой записи сдачи.
// Принимается только положительное количество; проверка против остатка
// намеренно отсутствует — пересдача допустима и фиксируется как есть.
func ValidateDeliveryQty(quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("количество сдачи должно быть положительным, получено %d", quantity)
	}
	return nil
}

// DeriveStatus выводит статус заказа из состояния его строк:
//   - все строки закрыты (и есть хотя бы одна) -> Completed
//   - есть хотя бы одна сдача -> In Progress
//   - иначе -> Pending
func DeriveStatus(lines []models.OrderLine) string {
	if len(lines) == 0 {
		return models.OrderStatusPending
	}
	allDone := true
	anyDelivered := false
	for i := range lines {
		if DeliveredQty(&lines[i]) > 0 {
			anyDelivered = true
		}
		if !LineDone(&lines[i]) {
			allDone = false
		}
	}
	if allDone {
		return models.OrderStatusCompleted
	}
	if anyDelivered {
		return models.OrderStatusInProgress
	}
	return models.OrderStatusPending
}
