package models

// Setting представляет пару ключ-значение в таблице настроек.
// Сейчас используется один ключ: admin_password (bcrypt-хэш).
type Setting struct {
	Key   string `json:"key" gorm:"type:varchar(100);primaryKey"`
	Value string `json:"value" gorm:"type:text;not null"`
}

// TableName указывает имя таблицы в БД
func (Setting) TableName() string {
	return "settings"
}

// SettingAdminPassword — ключ настройки с bcrypt-хэшем пароля администратора
const SettingAdminPassword = "admin_password"
