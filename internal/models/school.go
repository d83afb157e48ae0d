package models

// School представляет школу — необязательную метку группировки строк заказа
type School struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"type:varchar(255);uniqueIndex;not null"`
}

// TableName указывает имя таблицы в БД
func (School) TableName() string {
	return "schools"
}
