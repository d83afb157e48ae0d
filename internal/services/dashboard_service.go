package services

import (
	"log"
	"time"

	"tailortally/server/internal/fulfillment"
	"tailortally/server/internal/models"
	"tailortally/server/internal/utils"

	"gorm.io/gorm"
)

const DashboardStatsCacheKey = "dashboard:stats" // Ключ кэша статистики в Redis

// DashboardStats — сводка мастерской для дашборда
type DashboardStats struct {
	ActiveOrders    int          `json:"active_orders"`
	CompletedOrders int          `json:"completed_orders"`
	TotalOrders     int          `json:"total_orders"`
	MaterialIssued  float64      `json:"material_issued"`  // расчетный расход по всем строкам всех заказов
	MaterialDone    float64      `json:"material_done"`    // материал по сданным изделиям
	MaterialPending float64      `json:"material_pending"` // issued - done
	PiecesPending   int          `json:"pieces_pending"`   // изделий к сдаче
	TopProducts     []TopProduct `json:"top_products"`
	TopTailors      []TopTailor  `json:"top_tailors"`
	GeneratedAt     time.Time    `json:"generated_at"`
}

// TopProduct — изделие в топе по заказанному количеству
type TopProduct struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
}

// TopTailor — портной в топе по числу заказов
type TopTailor struct {
	TailorID uint   `json:"tailor_id"`
	Name     string `json:"name"`
	Orders   int    `json:"orders"`
}

// DashboardService считает сводку мастерской.
// Результат кэшируется в Redis; кэш сбрасывается при любом изменении заказов.
type DashboardService struct {
	db        *gorm.DB
	redisUtil *utils.RedisClient
	cacheTTL  time.Duration
}

// NewDashboardService создает новый сервис дашборда
func NewDashboardService(db *gorm.DB, redisUtil *utils.RedisClient, cacheTTLSeconds int) *DashboardService {
	if cacheTTLSeconds <= 0 {
		cacheTTLSeconds = 60
	}
	return &DashboardService{
		db:        db,
		redisUtil: redisUtil,
		cacheTTL:  time.Duration(cacheTTLSeconds) * time.Second,
	}
}

// GetStats возвращает сводку, из кэша если он свежий
func (s *DashboardService) GetStats() (*DashboardStats, error) {
	if s.redisUtil != nil {
		var cached DashboardStats
		if err := s.redisUtil.GetJSON(DashboardStatsCacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	stats, err := s.computeStats()
	if err != nil {
		return nil, err
	}

	if s.redisUtil != nil {
		if err := s.redisUtil.Set(DashboardStatsCacheKey, stats, s.cacheTTL); err != nil {
			log.Printf("⚠️ Ошибка записи кэша статистики: %v", err)
		}
	}

	return stats, nil
}

// computeStats строит сводку из БД
func (s *DashboardService) computeStats() (*DashboardStats, error) {
	stats := &DashboardStats{GeneratedAt: time.Now().UTC()}

	var orders []models.Order
	err := s.db.Preload("OrderLines").Preload("OrderLines.Deliveries").Find(&orders).Error
	if err != nil {
		return nil, err
	}

	tallyOrders(orders, stats)

	// Топ-5 изделий по заказанному количеству
	err = s.db.Model(&models.OrderLine{}).
		Select("order_lines.product_id, products.name, SUM(order_lines.quantity) AS quantity").
		Joins("JOIN products ON products.id = order_lines.product_id").
		Group("order_lines.product_id, products.name").
		Order("quantity DESC").
		Limit(5).
		Scan(&stats.TopProducts).Error
	if err != nil {
		return nil, err
	}

	// Топ-5 портных по числу заказов
	err = s.db.Model(&models.Order{}).
		Select("orders.tailor_id, tailors.name, COUNT(*) AS orders").
		Joins("JOIN tailors ON tailors.id = orders.tailor_id").
		Group("orders.tailor_id, tailors.name").
		Order("orders DESC").
		Limit(5).
		Scan(&stats.TopTailors).Error
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// tallyOrders считает счетчики заказов и материала.
// MaterialIssued — расход по ВСЕМ строкам, включая закрытые:
// закрытие заказа не уменьшает выданный материал, остаток = issued - done.
func tallyOrders(orders []models.Order, stats *DashboardStats) {
	stats.TotalOrders = len(orders)
	for i := range orders {
		status := fulfillment.DeriveStatus(orders[i].OrderLines)
		if status == models.OrderStatusCompleted {
			stats.CompletedOrders++
		} else {
			stats.ActiveOrders++
		}
		for j := range orders[i].OrderLines {
			line := &orders[i].OrderLines[j]
			stats.MaterialIssued += line.TotalMaterialReq
			stats.MaterialDone += fulfillment.MaterialUsed(line)
			if pending := fulfillment.PendingQty(line); pending > 0 {
				stats.PiecesPending += pending
			}
		}
	}
	stats.MaterialPending = stats.MaterialIssued - stats.MaterialDone
}
