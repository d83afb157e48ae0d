package services

import (
	"fmt"

	"tailortally/server/internal/models"

	"gorm.io/gorm"
)

// TailorService управляет справочником портных
type TailorService struct {
	db *gorm.DB
}

// NewTailorService создает новый экземпляр TailorService
func NewTailorService(db *gorm.DB) *TailorService {
	return &TailorService{db: db}
}

// GetAllTailors получает список портных (активных по умолчанию)
func (s *TailorService) GetAllTailors(includeInactive bool) ([]models.Tailor, error) {
	var tailors []models.Tailor
	query := s.db.Order("name")
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Find(&tailors).Error; err != nil {
		return nil, err
	}
	return tailors, nil
}

// GetTailorByID получает портного по ID
func (s *TailorService) GetTailorByID(id uint) (*models.Tailor, error) {
	var tailor models.Tailor
	if err := s.db.First(&tailor, id).Error; err != nil {
		return nil, err
	}
	return &tailor, nil
}

// CreateTailor создает портного
func (s *TailorService) CreateTailor(tailor *models.Tailor) error {
	var existing models.Tailor
	if err := s.db.Where("name = ?", tailor.Name).First(&existing).Error; err == nil {
		return fmt.Errorf("портной с именем %q уже существует", tailor.Name)
	}
	return s.db.Create(tailor).Error
}

// UpdateTailor обновляет данные портного
func (s *TailorService) UpdateTailor(id uint, tailor *models.Tailor) error {
	var existing models.Tailor
	if err := s.db.Where("name = ? AND id != ?", tailor.Name, id).First(&existing).Error; err == nil {
		return fmt.Errorf("портной с именем %q уже существует", tailor.Name)
	}
	return s.db.Model(&models.Tailor{}).Where("id = ?", id).Updates(map[string]interface{}{
		"name":      tailor.Name,
		"phone":     tailor.Phone,
		"email":     tailor.Email,
		"is_active": tailor.IsActive,
	}).Error
}

// DeleteTailor удаляет портного. Портной с заказами деактивируется,
// чтобы история заказов не потеряла ссылку.
func (s *TailorService) DeleteTailor(id uint) error {
	var refs int64
	if err := s.db.Model(&models.Order{}).Where("tailor_id = ?", id).Count(&refs).Error; err != nil {
		return err
	}
	if refs > 0 {
		return s.db.Model(&models.Tailor{}).Where("id = ?", id).Update("is_active", false).Error
	}
	return s.db.Delete(&models.Tailor{}, id).Error
}
