package models

import (
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AutoMigrate создает таблицы в БД
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&Product{},
		&Size{},
		&MaterialRule{},
		&Tailor{},
		&School{},
		&Order{},
		&OrderLine{},
		&Delivery{},
		&Setting{},
	)
	if err != nil {
		return fmt.Errorf("ошибка миграции таблиц: %w", err)
	}

	// Инициализируем пароль администратора по умолчанию
	if err := EnsureAdminPassword(db, "admin"); err != nil {
		log.Printf("⚠️ Ошибка инициализации пароля администратора: %v", err)
	}

	return nil
}

// EnsureAdminPassword создает запись admin_password с bcrypt-хэшем,
// если она еще не существует. Существующий пароль никогда не перезаписывается.
func EnsureAdminPassword(db *gorm.DB, defaultPassword string) error {
	var setting Setting
	err := db.First(&setting, "key = ?", SettingAdminPassword).Error
	if err == nil {
		return nil // пароль уже установлен
	}
	if err != gorm.ErrRecordNotFound {
		return fmt.Errorf("ошибка чтения настройки %s: %w", SettingAdminPassword, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(defaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("ошибка хэширования пароля: %w", err)
	}

	if err := db.Create(&Setting{Key: SettingAdminPassword, Value: string(hash)}).Error; err != nil {
		return fmt.Errorf("ошибка сохранения пароля администратора: %w", err)
	}

	log.Println("🔐 Пароль администратора по умолчанию установлен (admin)")
	return nil
}
