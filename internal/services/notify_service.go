package services

import (
	"fmt"
	"log"
	"strings"

	"tailortally/server/internal/models"
)

// NotifyService уведомляет владельца мастерской о новых заказах.
// Реальной отправки почты нет: письмо формируется и пишется в лог,
// чтобы формат был готов к подключению SMTP.
type NotifyService struct {
	email string
}

// NewNotifyService создает новый сервис уведомлений
func NewNotifyService(email string) *NotifyService {
	return &NotifyService{email: email}
}

// NotifyOrderCreated "отправляет" письмо о создании заказа
func (n *NotifyService) NotifyOrderCreated(order *models.Order, tailorName string) {
	if n.email == "" {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Новый заказ #%d для портного %s\n", order.ID, tailorName)
	if order.SlipNo != nil && *order.SlipNo != "" {
		fmt.Fprintf(&b, "Квитанция: %s\n", *order.SlipNo)
	}
	for _, line := range order.OrderLines {
		fmt.Fprintf(&b, "- %s %s x%d (%.2f %s)\n",
			line.ProductName, line.SizeLabel, line.Quantity, line.TotalMaterialReq, line.Unit)
	}

	log.Printf("📧 [симуляция email -> %s]\n%s", n.email, b.String())
}

// NotifyOrderCompleted "отправляет" письмо о полном закрытии заказа
func (n *NotifyService) NotifyOrderCompleted(orderID uint, tailorName string) {
	if n.email == "" {
		return
	}
	log.Printf("📧 [симуляция email -> %s] Заказ #%d портного %s полностью сдан", n.email, orderID, tailorName)
}
