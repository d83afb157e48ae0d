package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"tailortally/server/internal/fulfillment"
	"tailortally/server/internal/models"
	"tailortally/server/internal/utils"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"gorm.io/gorm"
)

const OrderEventsTopic = "tailor-orders" // Топик Kafka для событий заказов

// OrderService управляет заказами: создание со снимком правил расхода,
// поиск, правки строк, фиксация сдач и вывод статуса.
type OrderService struct {
	db          *gorm.DB
	catalog     *CatalogService
	schools     *SchoolService
	redisUtil   *utils.RedisClient
	notify      *NotifyService
	kafkaWriter *kafka.Writer
}

// NewOrderService создает новый сервис заказов.
// При пустом kafkaBrokers события просто не отправляются.
func NewOrderService(db *gorm.DB, catalog *CatalogService, schools *SchoolService, redisUtil *utils.RedisClient, notify *NotifyService, kafkaBrokers string) *OrderService {
	var writer *kafka.Writer
	if kafkaBrokers != "" {
		brokers := strings.Split(kafkaBrokers, ",")
		writer = &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    OrderEventsTopic,
			Balancer: &kafka.LeastBytes{},
			Async:    true, // Не блокируем HTTP-ответ отправкой события
		}
		log.Printf("✅ Kafka producer заказов подключен к %s", kafkaBrokers)
	}

	return &OrderService{
		db:          db,
		catalog:     catalog,
		schools:     schools,
		redisUtil:   redisUtil,
		notify:      notify,
		kafkaWriter: writer,
	}
}

// Close закрывает Kafka writer
func (s *OrderService) Close() error {
	if s.kafkaWriter != nil {
		return s.kafkaWriter.Close()
	}
	return nil
}

// OrderLineInput — строка создаваемого заказа.
// Правило расхода выбирается в порядке: явный rule_id -> ширина ткани ->
// первое правило размера. school_name позволяет создать школу на лету.
type OrderLineInput struct {
	ProductID         uint     `json:"product_id" binding:"required"`
	SizeID            uint     `json:"size_id" binding:"required"`
	RuleID            *uint    `json:"rule_id"`
	FabricWidthInches *int     `json:"fabric_width_inches"`
	SchoolID          *uint    `json:"school_id"`
	SchoolName        *string  `json:"school_name"`
	Quantity          int      `json:"quantity" binding:"required"`
	GivenCloth        *float64 `json:"given_cloth"`
	GroupID           *string  `json:"group_id"`
}

// CreateOrderInput — запрос на создание заказа
type CreateOrderInput struct {
	TailorID uint             `json:"tailor_id" binding:"required"`
	SlipNo   *string          `json:"slip_no"`
	Notes    *string          `json:"notes"`
	Lines    []OrderLineInput `json:"lines" binding:"required"`
}

// OrderEvent — событие заказа, публикуемое в Kafka (JSON)
type OrderEvent struct {
	Type          string    `json:"type"` // order_created / delivery_recorded / order_completed
	OrderID       uint      `json:"order_id"`
	TailorID      uint      `json:"tailor_id"`
	TailorName    string    `json:"tailor_name"`
	Status        string    `json:"status"`
	TotalMaterial float64   `json:"total_material"`
	Timestamp     time.Time `json:"timestamp"`
}

// OrderDetail — заказ с отсортированными строками и диапазонами групп
// для отображения
type OrderDetail struct {
	Order  *models.Order              `json:"order"`
	Groups []fulfillment.DisplayGroup `json:"groups"`
}

// CreateOrder создает заказ. Для каждой строки правило расхода разрешается
// по каталогу и копируется в строку: последующие правки каталога не меняют
// уже созданные заказы. Строки одной группы (изделие + школа) получают общий
// group_id, выданная ткань закрепляется за первой строкой группы.
func (s *OrderService) CreateOrder(input *CreateOrderInput) (*models.Order, error) {
	if len(input.Lines) == 0 {
		return nil, fmt.Errorf("заказ должен содержать хотя бы одну строку")
	}

	var tailor models.Tailor
	if err := s.db.First(&tailor, input.TailorID).Error; err != nil {
		return nil, fmt.Errorf("портной %d не найден: %w", input.TailorID, err)
	}

	lines, err := s.buildLines(input.Lines)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		TailorID: input.TailorID,
		SlipNo:   input.SlipNo,
		Notes:    input.Notes,
		Status:   models.OrderStatusPending,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("ошибка создания заказа: %w", err)
		}
		for i := range lines {
			lines[i].OrderID = order.ID
		}
		if err := tx.Create(&lines).Error; err != nil {
			return fmt.Errorf("ошибка создания строк заказа: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	created, err := s.GetOrderByID(order.ID)
	if err != nil {
		return nil, err
	}

	s.publishEvent("order_created", created, tailor.Name)
	s.invalidateStatsCache()
	if s.notify != nil {
		s.notify.NotifyOrderCreated(created, tailor.Name)
	}

	log.Printf("✅ Создан заказ #%d для портного %s (%d строк)", created.ID, tailor.Name, len(created.OrderLines))
	return created, nil
}

// buildLines разрешает правила расхода и собирает строки заказа со снимком
func (s *OrderService) buildLines(inputs []OrderLineInput) ([]models.OrderLine, error) {
	lines := make([]models.OrderLine, 0, len(inputs))

	// group_id назначается на каждую уникальную пару (изделие, школа),
	// если клиент не прислал свой
	type localGroup struct {
		productID uint
		schoolID  uint
	}
	groupIDs := make(map[localGroup]string)
	groupSeen := make(map[string]bool) // группа уже получила given_cloth

	for i, in := range inputs {
		if in.Quantity <= 0 {
			return nil, fmt.Errorf("строка %d: количество должно быть положительным", i+1)
		}

		product := s.catalog.GetProduct(in.ProductID)
		if product == nil {
			return nil, fmt.Errorf("строка %d: изделие %d не найдено в каталоге", i+1, in.ProductID)
		}
		size := fulfillment.FindSize(product, in.SizeID)
		if size == nil {
			return nil, fmt.Errorf("строка %d: размер %d не найден у изделия %q", i+1, in.SizeID, product.Name)
		}

		rule, err := s.resolveRule(size, &in)
		if err != nil {
			return nil, fmt.Errorf("строка %d: %w", i+1, err)
		}

		schoolID, err := s.resolveSchool(&in)
		if err != nil {
			return nil, fmt.Errorf("строка %d: %w", i+1, err)
		}

		groupID := in.GroupID
		if groupID == nil {
			key := localGroup{productID: in.ProductID}
			if schoolID != nil {
				key.schoolID = *schoolID
			}
			id, ok := groupIDs[key]
			if !ok {
				id = uuid.New().String()
				groupIDs[key] = id
			}
			groupID = &id
		}

		// Выданная ткань хранится один раз на группу, на ее первой строке
		givenCloth := in.GivenCloth
		if givenCloth != nil {
			if groupSeen[*groupID] {
				givenCloth = nil
			} else {
				groupSeen[*groupID] = true
			}
		}

		lines = append(lines, models.OrderLine{
			ProductID:          in.ProductID,
			SizeID:             in.SizeID,
			SchoolID:           schoolID,
			GroupID:            groupID,
			FabricWidthInches:  rule.FabricWidthInches,
			MaterialReqPerUnit: rule.LengthRequired,
			Unit:               rule.Unit,
			Quantity:           in.Quantity,
			TotalMaterialReq:   fulfillment.ComputeLineTotal(in.Quantity, rule),
			GivenCloth:         givenCloth,
		})
	}

	return lines, nil
}

// resolveRule выбирает правило расхода: явный ID, затем совпадение по ширине
// ткани, затем первое правило размера
func (s *OrderService) resolveRule(size *models.Size, in *OrderLineInput) (*models.MaterialRule, error) {
	if in.RuleID != nil {
		rule := fulfillment.SelectRule(size, *in.RuleID)
		if rule == nil {
			return nil, fmt.Errorf("правило расхода %d не найдено у размера %q", *in.RuleID, size.Label)
		}
		return rule, nil
	}

	if in.FabricWidthInches != nil {
		for i := range size.MaterialRules {
			w := size.MaterialRules[i].FabricWidthInches
			if w != nil && *w == *in.FabricWidthInches {
				return &size.MaterialRules[i], nil
			}
		}
	}

	rule := fulfillment.AutoSelectDefaultRule(size)
	if rule == nil {
		return nil, fmt.Errorf("у размера %q нет правил расхода", size.Label)
	}
	return rule, nil
}

// resolveSchool возвращает ID школы: по school_id или создавая по school_name
func (s *OrderService) resolveSchool(in *OrderLineInput) (*uint, error) {
	if in.SchoolID != nil {
		var school models.School
		if err := s.db.First(&school, *in.SchoolID).Error; err != nil {
			return nil, fmt.Errorf("школа %d не найдена: %w", *in.SchoolID, err)
		}
		return in.SchoolID, nil
	}
	if in.SchoolName != nil && *in.SchoolName != "" {
		school, err := s.schools.GetOrCreateSchool(*in.SchoolName)
		if err != nil {
			return nil, err
		}
		return &school.ID, nil
	}
	return nil, nil
}

// GetOrderByID загружает заказ со строками, сдачами и справочниками
// и заполняет производные поля
func (s *OrderService) GetOrderByID(id uint) (*models.Order, error) {
	var order models.Order
	err := s.db.
		Preload("Tailor").
		Preload("OrderLines").
		Preload("OrderLines.Product").
		Preload("OrderLines.Size").
		Preload("OrderLines.School").
		Preload("OrderLines.Deliveries").
		First(&order, id).Error
	if err != nil {
		return nil, err
	}
	s.mapOrder(&order)
	return &order, nil
}

// GetOrderDetail возвращает заказ со строками, отсортированными для
// отображения, и диапазонами групп
func (s *OrderService) GetOrderDetail(id uint) (*OrderDetail, error) {
	order, err := s.GetOrderByID(id)
	if err != nil {
		return nil, err
	}
	sorted, groups := fulfillment.GroupForDisplay(order.OrderLines)
	order.OrderLines = sorted
	return &OrderDetail{Order: order, Groups: groups}, nil
}

// ListOrders возвращает заказы, новые первыми.
// search фильтрует по имени портного (подстрока, без регистра),
// status — по статусу заказа.
func (s *OrderService) ListOrders(search, status string) ([]models.Order, error) {
	query := s.db.
		Joins("JOIN tailors ON tailors.id = orders.tailor_id").
		Preload("Tailor").
		Preload("OrderLines").
		Preload("OrderLines.Product").
		Preload("OrderLines.Size").
		Preload("OrderLines.School").
		Preload("OrderLines.Deliveries").
		Order("orders.created_at DESC")

	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("tailors.name ILIKE ? OR orders.slip_no ILIKE ? OR orders.notes ILIKE ?", pattern, pattern, pattern)
	}
	if status != "" {
		query = query.Where("orders.status = ?", status)
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	for i := range orders {
		s.mapOrder(&orders[i])
	}
	return orders, nil
}

// mapOrder заполняет производные поля строк и статус заказа
func (s *OrderService) mapOrder(order *models.Order) {
	for i := range order.OrderLines {
		line := &order.OrderLines[i]
		line.ProductName = line.Product.Name
		line.SizeLabel = line.Size.Label
		if line.School != nil {
			line.SchoolName = &line.School.Name
		}
		line.DeliveredQty = fulfillment.DeliveredQty(line)
		line.PendingQty = fulfillment.PendingQty(line)
		line.MaterialInHand = fulfillment.MaterialInHand(line)
	}
	order.Status = fulfillment.DeriveStatus(order.OrderLines)
}

// UpdateLineInput — правка строки заказа (только под паролем администратора)
type UpdateLineInput struct {
	Quantity   *int     `json:"quantity"`
	SchoolID   *uint    `json:"school_id"`
	GivenCloth *float64 `json:"given_cloth"`
}

// UpdateLine правит строку заказа. При смене количества итоговый расход
// пересчитывается по снимку правила, хранящемуся в строке.
func (s *OrderService) UpdateLine(lineID uint, input *UpdateLineInput) error {
	var line models.OrderLine
	if err := s.db.First(&line, lineID).Error; err != nil {
		return fmt.Errorf("строка заказа %d не найдена: %w", lineID, err)
	}

	updates := map[string]interface{}{}
	if input.Quantity != nil {
		if *input.Quantity <= 0 {
			return fmt.Errorf("количество должно быть положительным")
		}
		updates["quantity"] = *input.Quantity
		updates["total_material_req"] = float64(*input.Quantity) * line.MaterialReqPerUnit
	}
	if input.SchoolID != nil {
		var school models.School
		if err := s.db.First(&school, *input.SchoolID).Error; err != nil {
			return fmt.Errorf("школа %d не найдена: %w", *input.SchoolID, err)
		}
		updates["school_id"] = *input.SchoolID
	}
	if input.GivenCloth != nil {
		updates["given_cloth"] = *input.GivenCloth
	}
	if len(updates) == 0 {
		return nil
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.OrderLine{}).Where("id = ?", lineID).Updates(updates).Error; err != nil {
			return err
		}
		return s.recomputeStatus(tx, line.OrderID)
	})
	if err != nil {
		return err
	}

	s.invalidateStatsCache()
	return nil
}

// DeleteLine удаляет строку заказа вместе с ее сдачами
func (s *OrderService) DeleteLine(lineID uint) error {
	var line models.OrderLine
	if err := s.db.First(&line, lineID).Error; err != nil {
		return fmt.Errorf("строка заказа %d не найдена: %w", lineID, err)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_line_id = ?", lineID).Delete(&models.Delivery{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.OrderLine{}, lineID).Error; err != nil {
			return err
		}
		return s.recomputeStatus(tx, line.OrderID)
	})
	if err != nil {
		return err
	}

	s.invalidateStatsCache()
	log.Printf("🗑 Удалена строка %d заказа %d", lineID, line.OrderID)
	return nil
}

// DeleteOrder удаляет заказ целиком вместе со строками и сдачами
func (s *OrderService) DeleteOrder(orderID uint) error {
	var order models.Order
	if err := s.db.First(&order, orderID).Error; err != nil {
		return fmt.Errorf("заказ %d не найден: %w", orderID, err)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var lineIDs []uint
		if err := tx.Model(&models.OrderLine{}).Where("order_id = ?", orderID).Pluck("id", &lineIDs).Error; err != nil {
			return err
		}
		if len(lineIDs) > 0 {
			if err := tx.Where("order_line_id IN ?", lineIDs).Delete(&models.Delivery{}).Error; err != nil {
				return err
			}
			if err := tx.Where("order_id = ?", orderID).Delete(&models.OrderLine{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Order{}, orderID).Error
	})
	if err != nil {
		return err
	}

	s.invalidateStatsCache()
	log.Printf("🗑 Удален заказ %d", orderID)
	return nil
}

// RecordDelivery фиксирует сдачу готовых изделий по строке.
// Количество сверх остатка допустимо: остаток уходит в минус и строка
// считается закрытой.
func (s *OrderService) RecordDelivery(lineID uint, quantity int, date time.Time) (*models.Order, error) {
	if err := fulfillment.ValidateDeliveryQty(quantity); err != nil {
		return nil, err
	}

	var line models.OrderLine
	if err := s.db.First(&line, lineID).Error; err != nil {
		return nil, fmt.Errorf("строка заказа %d не найдена: %w", lineID, err)
	}

	if date.IsZero() {
		date = time.Now().UTC()
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		delivery := models.Delivery{
			OrderLineID:       lineID,
			QuantityDelivered: quantity,
			DateDelivered:     date,
		}
		if err := tx.Create(&delivery).Error; err != nil {
			return fmt.Errorf("ошибка записи сдачи: %w", err)
		}
		return s.recomputeStatus(tx, line.OrderID)
	})
	if err != nil {
		return nil, err
	}

	order, err := s.GetOrderByID(line.OrderID)
	if err != nil {
		return nil, err
	}

	s.publishEvent("delivery_recorded", order, order.Tailor.Name)
	s.invalidateStatsCache()

	if order.Status == models.OrderStatusCompleted {
		s.publishEvent("order_completed", order, order.Tailor.Name)
		if s.notify != nil {
			s.notify.NotifyOrderCompleted(order.ID, order.Tailor.Name)
		}
	}

	return order, nil
}

// recomputeStatus пересчитывает статус заказа из состояния его строк
func (s *OrderService) recomputeStatus(tx *gorm.DB, orderID uint) error {
	var lines []models.OrderLine
	if err := tx.Preload("Deliveries").Where("order_id = ?", orderID).Find(&lines).Error; err != nil {
		return err
	}
	status := fulfillment.DeriveStatus(lines)
	return tx.Model(&models.Order{}).Where("id = ?", orderID).Update("status", status).Error
}

// publishEvent отправляет JSON-событие заказа в Kafka (асинхронно)
func (s *OrderService) publishEvent(eventType string, order *models.Order, tailorName string) {
	if s.kafkaWriter == nil {
		return
	}

	total := 0.0
	for i := range order.OrderLines {
		total += order.OrderLines[i].TotalMaterialReq
	}

	event := OrderEvent{
		Type:          eventType,
		OrderID:       order.ID,
		TailorID:      order.TailorID,
		TailorName:    tailorName,
		Status:        order.Status,
		TotalMaterial: total,
		Timestamp:     time.Now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("⚠️ Ошибка сериализации события заказа %d: %v", order.ID, err)
		return
	}

	go func() {
		// Background context: контекст запроса может быть уже отменен
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := s.kafkaWriter.WriteMessages(bgCtx, kafka.Message{
			Key:   []byte(fmt.Sprintf("%d", order.ID)),
			Value: data,
		})
		if err != nil {
			errStr := err.Error()
			// Топик создастся автоматически при первой записи
			if !strings.Contains(errStr, "Unknown Topic Or Partition") &&
				!strings.Contains(errStr, "context canceled") {
				log.Printf("⚠️ Kafka error при отправке события заказа %d: %v", order.ID, err)
			}
		}
	}()
}

// invalidateStatsCache сбрасывает кэш статистики дашборда
func (s *OrderService) invalidateStatsCache() {
	if s.redisUtil == nil {
		return
	}
	if err := s.redisUtil.Delete(DashboardStatsCacheKey); err != nil {
		log.Printf("⚠️ Ошибка сброса кэша статистики: %v", err)
	}
}
