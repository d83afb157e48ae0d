package main

import (
	"log"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"tailortally/server/internal/config"
	"tailortally/server/internal/database"
	"tailortally/server/internal/models"
)

// seedProduct описывает изделие с размерами и правилами расхода
type seedProduct struct {
	name     string
	category string
	sizes    []seedSize
}

type seedSize struct {
	label string
	rules []seedRule
}

type seedRule struct {
	width  *int
	length float64
	unit   string
}

func widthPtr(v int) *int { return &v }

// Базовый каталог школьной формы: брюки и рубашки с правилами на две
// стандартные ширины ткани (36" и 60"), обувь и спортивная форма поштучно
var seedCatalog = []seedProduct{
	{
		name:     "Pant",
		category: "Uniform",
		sizes: []seedSize{
			{label: "26", rules: []seedRule{{widthPtr(36), 1.1, "meters"}, {widthPtr(60), 0.8, "meters"}}},
			{label: "28", rules: []seedRule{{widthPtr(36), 1.2, "meters"}, {widthPtr(60), 0.9, "meters"}}},
			{label: "30", rules: []seedRule{{widthPtr(36), 1.3, "meters"}, {widthPtr(60), 1.0, "meters"}}},
			{label: "32", rules: []seedRule{{widthPtr(36), 1.4, "meters"}, {widthPtr(60), 1.05, "meters"}}},
			{label: "34", rules: []seedRule{{widthPtr(36), 1.5, "meters"}, {widthPtr(60), 1.1, "meters"}}},
		},
	},
	{
		name:     "Shirt",
		category: "Uniform",
		sizes: []seedSize{
			{label: "S", rules: []seedRule{{widthPtr(36), 1.6, "meters"}, {widthPtr(60), 1.2, "meters"}}},
			{label: "M", rules: []seedRule{{widthPtr(36), 1.8, "meters"}, {widthPtr(60), 1.3, "meters"}}},
			{label: "L", rules: []seedRule{{widthPtr(36), 2.0, "meters"}, {widthPtr(60), 1.45, "meters"}}},
			{label: "XL", rules: []seedRule{{widthPtr(36), 2.2, "meters"}, {widthPtr(60), 1.6, "meters"}}},
		},
	},
	{
		name:     "Skirt",
		category: "Uniform",
		sizes: []seedSize{
			{label: "26", rules: []seedRule{{widthPtr(36), 1.4, "meters"}, {widthPtr(60), 1.0, "meters"}}},
			{label: "28", rules: []seedRule{{widthPtr(36), 1.5, "meters"}, {widthPtr(60), 1.1, "meters"}}},
			{label: "30", rules: []seedRule{{widthPtr(36), 1.6, "meters"}, {widthPtr(60), 1.2, "meters"}}},
		},
	},
	{
		name:     "Shoes",
		category: "Footwear",
		sizes: []seedSize{
			{label: "5", rules: []seedRule{{nil, 1, "pairs"}}},
			{label: "6", rules: []seedRule{{nil, 1, "pairs"}}},
			{label: "7", rules: []seedRule{{nil, 1, "pairs"}}},
			{label: "8", rules: []seedRule{{nil, 1, "pairs"}}},
		},
	},
	{
		name:     "Sports T-Shirt",
		category: "Sports",
		sizes: []seedSize{
			{label: "S", rules: []seedRule{{nil, 1, "pieces"}}},
			{label: "M", rules: []seedRule{{nil, 1, "pieces"}}},
			{label: "L", rules: []seedRule{{nil, 1, "pieces"}}},
		},
	},
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️ .env файл не найден, используем переменные окружения системы")
	}

	cfg := config.Load()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Ошибка подключения к PostgreSQL: %v", err)
	}
	defer database.ClosePostgres(db)

	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Ошибка миграции: %v", err)
	}

	created, skipped := 0, 0
	for _, sp := range seedCatalog {
		if err := seedOneProduct(db, sp, &created, &skipped); err != nil {
			log.Fatalf("❌ Ошибка загрузки изделия %q: %v", sp.name, err)
		}
	}

	log.Printf("✅ Каталог загружен: создано %d правил, пропущено %d (уже существуют)", created, skipped)
}

// seedOneProduct создает изделие, его размеры и правила, пропуская уже
// существующие записи — скрипт можно запускать повторно
func seedOneProduct(db *gorm.DB, sp seedProduct, created, skipped *int) error {
	var product models.Product
	err := db.Where("name = ?", sp.name).First(&product).Error
	if err == gorm.ErrRecordNotFound {
		product = models.Product{Name: sp.name, Category: sp.category, IsActive: true}
		if err := db.Create(&product).Error; err != nil {
			return err
		}
		log.Printf("➕ Изделие %q создано", sp.name)
	} else if err != nil {
		return err
	}

	for idx, ss := range sp.sizes {
		var size models.Size
		err := db.Where("product_id = ? AND label = ?", product.ID, ss.label).First(&size).Error
		if err == gorm.ErrRecordNotFound {
			size = models.Size{ProductID: product.ID, Label: ss.label, OrderIndex: idx, IsActive: true}
			if err := db.Create(&size).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		for _, sr := range ss.rules {
			query := db.Where("size_id = ?", size.ID)
			if sr.width != nil {
				query = query.Where("fabric_width_inches = ?", *sr.width)
			} else {
				query = query.Where("fabric_width_inches IS NULL")
			}

			var rule models.MaterialRule
			err := query.First(&rule).Error
			if err == gorm.ErrRecordNotFound {
				rule = models.MaterialRule{
					SizeID:            size.ID,
					FabricWidthInches: sr.width,
					LengthRequired:    sr.length,
					Unit:              sr.unit,
				}
				if err := db.Create(&rule).Error; err != nil {
					return err
				}
				*created++
				continue
			}
			if err != nil {
				return err
			}
			*skipped++
		}
	}
	return nil
}
