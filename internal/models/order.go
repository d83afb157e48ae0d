package models

import (
	"time"
)

// Статусы заказа. Статус выводится сервером из состояния доставок,
// клиент воспринимает его как непрозрачное значение.
const (
	OrderStatusPending    = "Pending"
	OrderStatusInProgress = "In Progress"
	OrderStatusCompleted  = "Completed"
)

// Order представляет заказ портному, состоящий из строк (OrderLine)
type Order struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	TailorID   uint      `json:"tailor_id" gorm:"index;not null"`
	SlipNo     *string   `json:"slip_no" gorm:"type:varchar(100)"` // номер бумажной квитанции
	Status     string    `json:"status" gorm:"type:varchar(20);default:'Pending'"`
	CreatedAt  time.Time `json:"created_at"`
	Notes      *string   `json:"notes" gorm:"type:text"`
	GivenCloth *float64  `json:"given_cloth"` // ткань, выданная заказчиком на весь заказ

	Tailor     Tailor      `json:"-" gorm:"foreignKey:TailorID"`
	OrderLines []OrderLine `json:"order_lines" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName указывает имя таблицы в БД
func (Order) TableName() string {
	return "orders"
}

// OrderLine представляет одну строку заказа: (изделие, размер, правило, количество).
// MaterialReqPerUnit, Unit и FabricWidthInches — снимок выбранного MaterialRule
// на момент создания строки. Последующие правки правила НЕ меняют уже созданные
// строки (исторический снимок).
type OrderLine struct {
	ID        uint    `json:"id" gorm:"primaryKey"`
	OrderID   uint    `json:"order_id" gorm:"index;not null"`
	ProductID uint    `json:"product_id" gorm:"index;not null"`
	SizeID    uint    `json:"size_id" gorm:"index;not null"`
	SchoolID  *uint   `json:"school_id" gorm:"index"`
	GroupID   *string `json:"group_id" gorm:"type:varchar(36);index"` // ключ корреляции строк, созданных одной группой

	FabricWidthInches  *int    `json:"fabric_width_inches"`
	MaterialReqPerUnit float64 `json:"material_req_per_unit"`
	Unit               string  `json:"unit" gorm:"type:varchar(20)"`

	Quantity         int      `json:"quantity" gorm:"not null"`
	TotalMaterialReq float64  `json:"total_material_req"` // quantity * material_req_per_unit
	GivenCloth       *float64 `json:"given_cloth"`        // доля выданной ткани, закреплённая за группой (только первая строка группы)

	Product    Product    `json:"-" gorm:"foreignKey:ProductID"`
	Size       Size       `json:"-" gorm:"foreignKey:SizeID"`
	School     *School    `json:"-" gorm:"foreignKey:SchoolID"`
	Deliveries []Delivery `json:"deliveries" gorm:"foreignKey:OrderLineID;constraint:OnDelete:CASCADE"`

	// Денормализованные поля ответа API, заполняются при маппинге заказа
	ProductName    string  `json:"product_name" gorm:"-"`
	SizeLabel      string  `json:"size_label" gorm:"-"`
	SchoolName     *string `json:"school_name,omitempty" gorm:"-"`
	DeliveredQty   int     `json:"delivered_qty" gorm:"-"`
	PendingQty     int     `json:"pending_qty" gorm:"-"`
	MaterialInHand float64 `json:"material_in_hand" gorm:"-"`
}

// TableName указывает имя таблицы в БД
func (OrderLine) TableName() string {
	return "order_lines"
}

// Delivery представляет факт сдачи готовых изделий по строке заказа.
// Записи только добавляются, никогда не редактируются и не удаляются.
type Delivery struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	OrderLineID       uint      `json:"order_line_id" gorm:"index;not null"`
	QuantityDelivered int       `json:"quantity_delivered" gorm:"not null"`
	DateDelivered     time.Time `json:"date_delivered"`
}

// TableName указывает имя таблицы в БД
func (Delivery) TableName() string {
	return "deliveries"
}
