package models

// Product представляет изделие в каталоге (например "Рубашка", "Блейзер")
type Product struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	Name     string `json:"name" gorm:"type:varchar(255);uniqueIndex;not null"`
	Category string `json:"category" gorm:"type:varchar(100);default:'General'"` // например "School Uniform", "Mens Wear"
	IsActive bool   `json:"is_active" gorm:"default:true"`

	Sizes []Size `json:"sizes" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// TableName указывает имя таблицы в БД
func (Product) TableName() string {
	return "products"
}

// Size представляет размер изделия ("38", "S", "32 L / 26 W")
type Size struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	ProductID  uint   `json:"product_id" gorm:"index;not null"`
	Label      string `json:"label" gorm:"type:varchar(100);not null"`
	OrderIndex int    `json:"order_index" gorm:"default:0"` // порядок отображения размеров внутри изделия
	IsActive   bool   `json:"is_active" gorm:"default:true"`

	MaterialRules []MaterialRule `json:"material_rules" gorm:"foreignKey:SizeID;constraint:OnDelete:CASCADE"`
}

// TableName указывает имя таблицы в БД
func (Size) TableName() string {
	return "sizes"
}

// MaterialRule описывает расход материала на единицу для размера.
// FabricWidthInches == nil означает "любая ширина ткани".
type MaterialRule struct {
	ID                uint    `json:"id" gorm:"primaryKey"`
	SizeID            uint    `json:"size_id" gorm:"index;not null"`
	FabricWidthInches *int    `json:"fabric_width_inches" gorm:"type:integer"` // ограничение по ширине ткани (36, 60 дюймов)
	LengthRequired    float64 `json:"length_required" gorm:"not null"`
	Unit              string  `json:"unit" gorm:"type:varchar(20);default:'meters'"` // meters, yards, grams, pairs
}

// TableName указывает имя таблицы в БД
func (MaterialRule) TableName() string {
	return "material_rules"
}
