package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"strconv"
	"strings"
	"unicode/utf8"

	"tailortally/server/internal/models"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
	"gorm.io/gorm"
)

// ImportService загружает прайс-листы правил расхода из CSV/XLSX.
// Каждая строка файла: изделие, размер, ширина ткани, расход, единица.
// Изделия и размеры создаются на лету, правила обновляются по месту.
type ImportService struct {
	db      *gorm.DB
	catalog *CatalogService
}

// NewImportService создает новый сервис импорта
func NewImportService(db *gorm.DB, catalog *CatalogService) *ImportService {
	return &ImportService{db: db, catalog: catalog}
}

// ImportResult — итоги импорта прайс-листа
type ImportResult struct {
	ProductsCreated int      `json:"products_created"`
	SizesCreated    int      `json:"sizes_created"`
	RulesCreated    int      `json:"rules_created"`
	RulesUpdated    int      `json:"rules_updated"`
	RowsSkipped     int      `json:"rows_skipped"`
	Errors          []string `json:"errors,omitempty"`
}

// колонки, которые мы умеем распознавать в заголовке.
// Правила расхода не привязаны к школе, поэтому колонка школы
// в прайс-листе не распознается и просто игнорируется.
var importColumns = map[string][]string{
	"product": {"product", "изделие", "товар", "item"},
	"size":    {"size", "размер", "label"},
	"width":   {"width", "ширина", "fabric"},
	"length":  {"length", "расход", "метраж", "required"},
	"unit":    {"unit", "единица", "ед"},
}

// ImportRules парсит файл и применяет его к каталогу
func (s *ImportService) ImportRules(file multipart.File, filename string) (*ImportResult, error) {
	rows, err := s.parseUploadedFile(file, filename)
	if err != nil {
		return nil, err
	}

	headerIdx, mapping, err := detectHeaderRow(rows)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	for i := headerIdx + 1; i < len(rows); i++ {
		if err := s.importRow(rows[i], mapping, result); err != nil {
			result.RowsSkipped++
			result.Errors = append(result.Errors, fmt.Sprintf("строка %d: %v", i+1, err))
		}
	}

	if s.catalog != nil {
		if err := s.catalog.PublishUpdate(); err != nil {
			log.Printf("⚠️ Ошибка обновления снимка каталога после импорта: %v", err)
		}
	}

	log.Printf("📥 Импорт %s: изделий +%d, размеров +%d, правил +%d/обновлено %d, пропущено %d",
		filename, result.ProductsCreated, result.SizesCreated, result.RulesCreated, result.RulesUpdated, result.RowsSkipped)
	return result, nil
}

// importRow применяет одну строку прайс-листа
func (s *ImportService) importRow(row []string, mapping map[string]int, result *ImportResult) error {
	productName := cellAt(row, mapping, "product")
	sizeLabel := cellAt(row, mapping, "size")
	lengthStr := cellAt(row, mapping, "length")

	if productName == "" && sizeLabel == "" && lengthStr == "" {
		return fmt.Errorf("пустая строка")
	}
	if productName == "" || sizeLabel == "" {
		return fmt.Errorf("не указано изделие или размер")
	}

	length, err := parseImportFloat(lengthStr)
	if err != nil || length <= 0 {
		return fmt.Errorf("неверный расход %q", lengthStr)
	}

	unit := cellAt(row, mapping, "unit")
	if unit == "" {
		unit = "meters"
	}

	var width *int
	if widthStr := cellAt(row, mapping, "width"); widthStr != "" {
		w, err := strconv.Atoi(strings.TrimSuffix(widthStr, "\""))
		if err != nil {
			return fmt.Errorf("неверная ширина ткани %q", widthStr)
		}
		width = &w
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		// Изделие: ищем по имени, создаем при отсутствии
		var product models.Product
		err := tx.Where("name = ?", productName).First(&product).Error
		if err == gorm.ErrRecordNotFound {
			product = models.Product{Name: productName, IsActive: true}
			if err := tx.Create(&product).Error; err != nil {
				return err
			}
			result.ProductsCreated++
		} else if err != nil {
			return err
		}

		// Размер
		var size models.Size
		err = tx.Where("product_id = ? AND label = ?", product.ID, sizeLabel).First(&size).Error
		if err == gorm.ErrRecordNotFound {
			size = models.Size{ProductID: product.ID, Label: sizeLabel, IsActive: true}
			if err := tx.Create(&size).Error; err != nil {
				return err
			}
			result.SizesCreated++
		} else if err != nil {
			return err
		}

		// Правило: ключ (размер, ширина ткани); существующее обновляется
		query := tx.Where("size_id = ?", size.ID)
		if width != nil {
			query = query.Where("fabric_width_inches = ?", *width)
		} else {
			query = query.Where("fabric_width_inches IS NULL")
		}

		var rule models.MaterialRule
		err = query.First(&rule).Error
		if err == gorm.ErrRecordNotFound {
			rule = models.MaterialRule{
				SizeID:            size.ID,
				FabricWidthInches: width,
				LengthRequired:    length,
				Unit:              unit,
			}
			if err := tx.Create(&rule).Error; err != nil {
				return err
			}
			result.RulesCreated++
			return nil
		}
		if err != nil {
			return err
		}

		if rule.LengthRequired != length || rule.Unit != unit {
			rule.LengthRequired = length
			rule.Unit = unit
			if err := tx.Save(&rule).Error; err != nil {
				return err
			}
			result.RulesUpdated++
		}
		return nil
	})
}

// parseUploadedFile читает CSV или XLSX в таблицу строк
func (s *ImportService) parseUploadedFile(file multipart.File, filename string) ([][]string, error) {
	lower := strings.ToLower(filename)
	if strings.HasSuffix(lower, ".csv") {
		return parseCSV(file)
	}
	if strings.HasSuffix(lower, ".xlsx") {
		return parseXLSX(file)
	}
	return nil, fmt.Errorf("неподдерживаемый формат файла: %s. Используйте .csv или .xlsx", filename)
}

// parseCSV читает CSV с определением кодировки и разделителя
func parseCSV(file multipart.File) ([][]string, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла: %w", err)
	}

	// Прайс-листы из старых программ часто в Windows-1251
	utf8Data := data
	if !utf8.Valid(data) {
		decoder := charmap.Windows1251.NewDecoder()
		converted, _, err := transform.Bytes(decoder, data)
		if err == nil {
			utf8Data = converted
		}
	}

	reader := csv.NewReader(bytes.NewReader(utf8Data))
	reader.Comma = detectDelimiter(utf8Data)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("⚠️ Ошибка чтения строки CSV: %v, пропускаем", err)
			continue
		}
		for i := range record {
			record[i] = strings.TrimSpace(strings.Trim(record[i], "\"'\t"))
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// parseXLSX читает первый лист XLSX файла
func parseXLSX(file multipart.File) ([][]string, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла: %w", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия XLSX: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("в файле нет листов")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения листа %q: %w", sheets[0], err)
	}
	for _, row := range rows {
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
		}
	}
	return rows, nil
}

// detectDelimiter определяет разделитель CSV файла
func detectDelimiter(data []byte) rune {
	sample := string(data)
	if len(sample) > 1000 {
		sample = sample[:1000]
	}

	commaCount := strings.Count(sample, ",")
	semicolonCount := strings.Count(sample, ";")
	tabCount := strings.Count(sample, "\t")

	delimiter := ','
	maxCount := commaCount
	if semicolonCount > maxCount {
		maxCount = semicolonCount
		delimiter = ';'
	}
	if tabCount > maxCount {
		delimiter = '\t'
	}
	return delimiter
}

// detectHeaderRow ищет строку заголовков среди первых 10 строк файла:
// строка считается заголовком, если распознано не меньше 4 известных колонок
func detectHeaderRow(rows [][]string) (int, map[string]int, error) {
	if len(rows) == 0 {
		return 0, nil, fmt.Errorf("файл пуст")
	}

	limit := len(rows)
	if limit > 10 {
		limit = 10
	}

	bestIdx := -1
	var bestMapping map[string]int
	for i := 0; i < limit; i++ {
		mapping := matchColumns(rows[i])
		if len(mapping) >= 4 && (bestMapping == nil || len(mapping) > len(bestMapping)) {
			bestIdx = i
			bestMapping = mapping
		}
	}

	if bestIdx < 0 {
		return 0, nil, fmt.Errorf("не найдена строка заголовков: нужны колонки изделие/размер/ширина/расход")
	}
	return bestIdx, bestMapping, nil
}

// matchColumns сопоставляет ячейки строки с известными колонками
func matchColumns(row []string) map[string]int {
	mapping := make(map[string]int)
	for idx, cell := range row {
		cellLower := strings.ToLower(strings.TrimSpace(cell))
		if cellLower == "" {
			continue
		}
		for column, keywords := range importColumns {
			if _, taken := mapping[column]; taken {
				continue
			}
			for _, kw := range keywords {
				if strings.Contains(cellLower, kw) {
					mapping[column] = idx
					break
				}
			}
		}
	}
	return mapping
}

func cellAt(row []string, mapping map[string]int, column string) string {
	idx, ok := mapping[column]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseImportFloat парсит число с точкой или запятой в качестве разделителя
func parseImportFloat(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	return strconv.ParseFloat(s, 64)
}
