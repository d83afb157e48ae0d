package models

// Tailor представляет портного, которому выдаются заказы
type Tailor struct {
	ID       uint    `json:"id" gorm:"primaryKey"`
	Name     string  `json:"name" gorm:"type:varchar(255);uniqueIndex;not null"`
	Phone    *string `json:"phone" gorm:"type:varchar(50)"`
	Email    *string `json:"email" gorm:"type:varchar(255)"` // для уведомлений о новых заказах
	IsActive bool    `json:"is_active" gorm:"default:true"`
}

// TableName указывает имя таблицы в БД
func (Tailor) TableName() string {
	return "tailors"
}
