package services

import (
	"fmt"
	"log"
	"sync"
	"time"

	"tailortally/server/internal/models"
	"tailortally/server/internal/utils"

	"gorm.io/gorm"
)

const CatalogUpdateChannel = "catalog:update" // Канал для Pub/Sub обновлений каталога

// CatalogService управляет каталогом изделий (изделия, размеры, правила расхода)
// и его in-memory снимком. Снимок используется при создании заказов: правило
// копируется в строку заказа, поэтому правки каталога не трогают старые заказы.
type CatalogService struct {
	db             *gorm.DB
	redisUtil      *utils.RedisClient // Redis для Pub/Sub
	mu             sync.RWMutex
	products       map[uint]models.Product
	lastUpdate     time.Time
	updateInterval time.Duration
	stopPubSub     chan struct{}
}

// NewCatalogService создает новый сервис каталога
func NewCatalogService(db *gorm.DB, redisUtil *utils.RedisClient) *CatalogService {
	return &CatalogService{
		db:             db,
		redisUtil:      redisUtil,
		products:       make(map[uint]models.Product),
		updateInterval: 5 * time.Minute, // Fallback: обновляем каждые 5 минут
		stopPubSub:     make(chan struct{}),
	}
}

// LoadCatalog загружает каталог из БД и обновляет in-memory снимок.
// Потокобезопасно: сначала строит новую мапу, потом атомарно заменяет.
func (cs *CatalogService) LoadCatalog() error {
	var products []models.Product
	err := cs.db.Where("is_active = ?", true).
		Preload("Sizes", "is_active = ?", true).
		Preload("Sizes.MaterialRules").
		Order("name").
		Find(&products).Error
	if err != nil {
		return err
	}

	productsMap := make(map[uint]models.Product, len(products))
	for _, p := range products {
		productsMap[p.ID] = p
	}

	cs.mu.Lock()
	cs.products = productsMap
	cs.lastUpdate = time.Now()
	cs.mu.Unlock()

	log.Printf("✅ Каталог обновлен из БД: %d изделий", len(productsMap))
	return nil
}

// GetProduct возвращает изделие из снимка (с размерами и правилами).
// nil, если изделие не найдено или неактивно.
func (cs *CatalogService) GetProduct(id uint) *models.Product {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	if p, ok := cs.products[id]; ok {
		return &p
	}
	return nil
}

// GetAllProducts возвращает все изделия снимка
func (cs *CatalogService) GetAllProducts() []models.Product {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	result := make([]models.Product, 0, len(cs.products))
	for _, p := range cs.products {
		result = append(result, p)
	}
	return result
}

// GetLastUpdate возвращает время последнего обновления снимка
func (cs *CatalogService) GetLastUpdate() time.Time {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.lastUpdate
}

// StartAutoReload запускает автоматическое обновление снимка.
// Redis Pub/Sub для мгновенного обновления + таймер как fallback.
func (cs *CatalogService) StartAutoReload() {
	if cs.redisUtil != nil {
		go cs.startPubSubListener()
		log.Println("📡 Redis Pub/Sub для каталога запущен (мгновенное обновление)")
	}

	go func() {
		ticker := time.NewTicker(cs.updateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := cs.LoadCatalog(); err != nil {
					log.Printf("⚠️ Ошибка автообновления каталога: %v", err)
				}
			case <-cs.stopPubSub:
				return
			}
		}
	}()
	log.Println("🔄 Fallback автообновление каталога запущено (каждые 5 минут)")
}

// startPubSubListener слушает Redis канал для мгновенного обновления каталога
func (cs *CatalogService) startPubSubListener() {
	if cs.redisUtil == nil {
		return
	}

	ch, closeFn := cs.redisUtil.Subscribe(CatalogUpdateChannel)
	defer func() {
		if err := closeFn(); err != nil {
			log.Printf("⚠️ Ошибка закрытия Pub/Sub: %v", err)
		}
	}()

	log.Printf("👂 Слушаем канал Redis: %s", CatalogUpdateChannel)

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				log.Println("⚠️ Pub/Sub канал закрыт, переподписываемся...")
				ch, closeFn = cs.redisUtil.Subscribe(CatalogUpdateChannel)
				continue
			}
			if msg != nil {
				log.Printf("🔔 Получено событие обновления каталога из Redis: %s", msg.Payload)
				if err := cs.LoadCatalog(); err != nil {
					log.Printf("⚠️ Ошибка обновления каталога по Pub/Sub: %v", err)
				}
			}
		case <-cs.stopPubSub:
			log.Println("🛑 Остановка Pub/Sub listener для каталога")
			return
		}
	}
}

// PublishUpdate публикует событие обновления каталога в Redis
// и сразу перечитывает локальный снимок
func (cs *CatalogService) PublishUpdate() error {
	if err := cs.LoadCatalog(); err != nil {
		return err
	}
	if cs.redisUtil == nil {
		return nil // Если Redis нет, обновились локально
	}
	return cs.redisUtil.Publish(CatalogUpdateChannel, "now")
}

// --- CRUD каталога ---

// CreateProduct создает изделие
func (cs *CatalogService) CreateProduct(product *models.Product) error {
	var existing models.Product
	if err := cs.db.Where("name = ?", product.Name).First(&existing).Error; err == nil {
		return fmt.Errorf("изделие с названием %q уже существует", product.Name)
	}
	if err := cs.db.Create(product).Error; err != nil {
		return err
	}
	return cs.PublishUpdate()
}

// UpdateProduct обновляет изделие
func (cs *CatalogService) UpdateProduct(id uint, product *models.Product) error {
	if err := cs.db.Model(&models.Product{}).Where("id = ?", id).Updates(map[string]interface{}{
		"name":      product.Name,
		"category":  product.Category,
		"is_active": product.IsActive,
	}).Error; err != nil {
		return err
	}
	return cs.PublishUpdate()
}

// DeleteProduct удаляет изделие. Изделие, на которое ссылаются строки заказов,
// не удаляется, а деактивируется — исторические заказы хранят ссылку на него.
func (cs *CatalogService) DeleteProduct(id uint) error {
	var refs int64
	if err := cs.db.Model(&models.OrderLine{}).Where("product_id = ?", id).Count(&refs).Error; err != nil {
		return err
	}
	if refs > 0 {
		if err := cs.db.Model(&models.Product{}).Where("id = ?", id).Update("is_active", false).Error; err != nil {
			return err
		}
		log.Printf("ℹ️ Изделие %d деактивировано вместо удаления (%d ссылок из заказов)", id, refs)
		return cs.PublishUpdate()
	}
	if err := cs.db.Delete(&models.Product{}, id).Error; err != nil {
		return err
	}
	return cs.PublishUpdate()
}

// CreateSize добавляет размер к изделию
func (cs *CatalogService) CreateSize(size *models.Size) error {
	var product models.Product
	if err := cs.db.First(&product, size.ProductID).Error; err != nil {
		return fmt.Errorf("изделие %d не найдено: %w", size.ProductID, err)
	}
	if err := cs.db.Create(size).Error; err != nil {
		return err
	}
	return cs.PublishUpdate()
}

// UpdateSize обновляет размер
func (cs *CatalogService) UpdateSize(id uint, size *models.Size) error {
	if err := cs.db.Model(&models.Size{}).Where("id = ?", id).Updates(map[string]interface{}{
		"label":       size.Label,
		"order_index": size.OrderIndex,
		"is_active":   size.IsActive,
	}).Error; err != nil {
		return err
	}
	return cs.PublishUpdate()
}

// DeleteSize удаляет размер (деактивация при наличии ссылок из заказов)
func (cs *CatalogService) DeleteSize(id uint) error {
	var refs int64
	if err := cs.db.Model(&models.OrderLine{}).Where("size_id = ?", id).Count(&refs).Error; err != nil {
		return err
	}
	if refs > 0 {
		if err := cs.db.Model(&models.Size{}).Where("id = ?", id).Update("is_active", false).Error; err != nil {
			return err
		}
		return cs.PublishUpdate()
	}
	if err := cs.db.Delete(&models.Size{}, id).Error; err != nil {
		return err
	}
	return cs.PublishUpdate()
}

// CreateMaterialRule добавляет правило расхода к размеру
func (cs *CatalogService) CreateMaterialRule(rule *models.MaterialRule) error {
	var size models.Size
	if err := cs.db.First(&size, rule.SizeID).Error; err != nil {
		return fmt.Errorf("размер %d не найден: %w", rule.SizeID, err)
	}
	if rule.LengthRequired <= 0 {
		return fmt.Errorf("расход на единицу должен быть положительным")
	}
	if err := cs.db.Create(rule).Error; err != nil {
		return err
	}
	return cs.PublishUpdate()
}

// UpdateMaterialRule обновляет правило расхода. Уже созданные строки заказов
// не пересчитываются: они хранят снимок правила на момент создания.
func (cs *CatalogService) UpdateMaterialRule(id uint, rule *models.MaterialRule) error {
	if rule.LengthRequired <= 0 {
		return fmt.Errorf("расход на единицу должен быть положительным")
	}
	if err := cs.db.Model(&models.MaterialRule{}).Where("id = ?", id).Updates(map[string]interface{}{
		"fabric_width_inches": rule.FabricWidthInches,
		"length_required":     rule.LengthRequired,
		"unit":                rule.Unit,
	}).Error; err != nil {
		return err
	}
	return cs.PublishUpdate()
}

// DeleteMaterialRule удаляет правило расхода. Строки заказов правило
// не удерживают — они хранят копию значений, а не ссылку.
func (cs *CatalogService) DeleteMaterialRule(id uint) error {
	if err := cs.db.Delete(&models.MaterialRule{}, id).Error; err != nil {
		return err
	}
	return cs.PublishUpdate()
}
