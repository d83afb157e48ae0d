package services

import (
	"fmt"

	"tailortally/server/internal/models"

	"gorm.io/gorm"
)

// SchoolService управляет справочником школ
type SchoolService struct {
	db *gorm.DB
}

// NewSchoolService создает новый экземпляр SchoolService
func NewSchoolService(db *gorm.DB) *SchoolService {
	return &SchoolService{db: db}
}

// GetAllSchools получает список всех школ
func (s *SchoolService) GetAllSchools() ([]models.School, error) {
	var schools []models.School
	if err := s.db.Order("name").Find(&schools).Error; err != nil {
		return nil, err
	}
	return schools, nil
}

// CreateSchool создает школу
func (s *SchoolService) CreateSchool(school *models.School) error {
	var existing models.School
	if err := s.db.Where("name = ?", school.Name).First(&existing).Error; err == nil {
		return fmt.Errorf("школа с названием %q уже существует", school.Name)
	}
	return s.db.Create(school).Error
}

// GetOrCreateSchool возвращает школу по имени, создавая ее при отсутствии.
// Используется при создании заказов и импорте.
func (s *SchoolService) GetOrCreateSchool(name string) (*models.School, error) {
	var school models.School
	err := s.db.Where("name = ?", name).First(&school).Error
	if err == nil {
		return &school, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	school = models.School{Name: name}
	if err := s.db.Create(&school).Error; err != nil {
		return nil, err
	}
	return &school, nil
}

// UpdateSchool обновляет название школы
func (s *SchoolService) UpdateSchool(id uint, school *models.School) error {
	var existing models.School
	if err := s.db.Where("name = ? AND id != ?", school.Name, id).First(&existing).Error; err == nil {
		return fmt.Errorf("школа с названием %q уже существует", school.Name)
	}
	return s.db.Model(&models.School{}).Where("id = ?", id).Update("name", school.Name).Error
}

// DeleteSchool удаляет школу. Школа, на которую ссылаются строки заказов,
// не удаляется.
func (s *SchoolService) DeleteSchool(id uint) error {
	var refs int64
	if err := s.db.Model(&models.OrderLine{}).Where("school_id = ?", id).Count(&refs).Error; err != nil {
		return err
	}
	if refs > 0 {
		return fmt.Errorf("школа используется в %d строках заказов и не может быть удалена", refs)
	}
	return s.db.Delete(&models.School{}, id).Error
}
