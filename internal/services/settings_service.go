package services

import (
	"fmt"
	"log"

	"tailortally/server/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SettingsService управляет настройками, в том числе паролем администратора.
// Пароль нужен для правок и удаления строк уже созданных заказов.
type SettingsService struct {
	db *gorm.DB
}

// NewSettingsService создает новый экземпляр SettingsService
func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{db: db}
}

// VerifyAdminPassword сверяет пароль с bcrypt-хэшем из настроек
func (s *SettingsService) VerifyAdminPassword(password string) (bool, error) {
	var setting models.Setting
	if err := s.db.First(&setting, "key = ?", models.SettingAdminPassword).Error; err != nil {
		return false, fmt.Errorf("пароль администратора не настроен: %w", err)
	}
	err := bcrypt.CompareHashAndPassword([]byte(setting.Value), []byte(password))
	if err != nil {
		return false, nil
	}
	return true, nil
}

// ChangeAdminPassword меняет пароль администратора.
// Требует корректный текущий пароль.
func (s *SettingsService) ChangeAdminPassword(currentPassword, newPassword string) error {
	ok, err := s.VerifyAdminPassword(currentPassword)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("текущий пароль неверен")
	}
	if len(newPassword) < 4 {
		return fmt.Errorf("новый пароль слишком короткий")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("ошибка хэширования пароля: %w", err)
	}

	err = s.db.Model(&models.Setting{}).
		Where("key = ?", models.SettingAdminPassword).
		Update("value", string(hash)).Error
	if err != nil {
		return fmt.Errorf("ошибка сохранения пароля: %w", err)
	}

	log.Println("🔐 Пароль администратора изменен")
	return nil
}
