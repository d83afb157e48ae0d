package fulfillment

import (
	"sort"

	"tailortally/server/internal/models"
)

// GroupKey — канонический ключ группы строк: изделие + школа + единица
// измерения. SchoolID == 0 означает строку без школы. Группировка
// пересчитывается из текущих строк заказа, а не хранится.
type GroupKey struct {
	ProductID uint
	SchoolID  uint
	Unit      string
}

// KeyForLine возвращает канонический ключ группы для строки заказа.
func KeyForLine(line *models.OrderLine) GroupKey {
	key := GroupKey{ProductID: line.ProductID, Unit: line.Unit}
	if line.SchoolID != nil {
		key.SchoolID = *line.SchoolID
	}
	return key
}

// GroupTotals — агрегаты по группе строк. TotalGiven суммирует выданную
// ткань только по строкам, где она указана (первая строка группы);
// HasGiven отличает "выдано 0" от "не указано".
type GroupTotals struct {
	TotalGiven     float64
	TotalEstimated float64
	TotalQuantity  int
	HasGiven       bool
}

// Variance возвращает расхождение: выдано - расчетный расход.
// Отрицательное значение — выдано меньше расчета, положительное — запас.
func (t GroupTotals) Variance() float64 {
	return t.TotalGiven - t.TotalEstimated
}

// ComputeGroupTotals агрегирует строки заказа по каноническому ключу группы.
func ComputeGroupTotals(lines []models.OrderLine) map[GroupKey]GroupTotals {
	totals := make(map[GroupKey]GroupTotals)
	for i := range lines {
		key := KeyForLine(&lines[i])
		t := totals[key]
		t.TotalEstimated += lines[i].TotalMaterialReq
		t.TotalQuantity += lines[i].Quantity
		if lines[i].GivenCloth != nil {
			t.TotalGiven += *lines[i].GivenCloth
			t.HasGiven = true
		}
		totals[key] = t
	}
	return totals
}

// DisplayGroup — непрерывный диапазон строк одной группы в отображаемом
// порядке. Start — индекс первой строки диапазона, Span — число строк.
type DisplayGroup struct {
	Start       int         `json:"start"`
	Span        int         `json:"span"`
	ProductName string      `json:"product_name"`
	SchoolName  *string     `json:"school_name,omitempty"`
	Totals      GroupTotals `json:"totals"`
	Key         GroupKey    `json:"-"`
}

// GroupForDisplay сортирует строки по (имя изделия, имя школы, единица)
// устойчиво и одним проходом выделяет диапазоны соседних строк с одинаковым
// отображаемым ключом. Единица измерения входит в ключ: строки одного
// изделия в разных единицах не складываются в одну группу. Строки без
// школы идут раньше строк со школой при одинаковом изделии (пустая строка
// сортируется первой). Возвращает отсортированную копию порядка строк
// и диапазоны групп.
func GroupForDisplay(lines []models.OrderLine) ([]models.OrderLine, []DisplayGroup) {
	sorted := make([]models.OrderLine, len(lines))
	copy(sorted, lines)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].ProductName != sorted[j].ProductName {
			return sorted[i].ProductName < sorted[j].ProductName
		}
		if a, b := schoolSortName(&sorted[i]), schoolSortName(&sorted[j]); a != b {
			return a < b
		}
		return sorted[i].Unit < sorted[j].Unit
	})

	totals := ComputeGroupTotals(sorted)

	var groups []DisplayGroup
	for i := 0; i < len(sorted); {
		j := i + 1
		for j < len(sorted) && sameDisplayGroup(&sorted[i], &sorted[j]) {
			j++
		}
		key := KeyForLine(&sorted[i])
		groups = append(groups, DisplayGroup{
			Start:       i,
			Span:        j - i,
			ProductName: sorted[i].ProductName,
			SchoolName:  sorted[i].SchoolName,
			Totals:      totals[key],
			Key:         key,
		})
		i = j
	}

	return sorted, groups
}

func sameDisplayGroup(a, b *models.OrderLine) bool {
	return a.ProductName == b.ProductName &&
		schoolSortName(a) == schoolSortName(b) &&
		a.Unit == b.Unit
}

func schoolSortName(line *models.OrderLine) string {
	if line.SchoolName == nil {
		return ""
	}
	return *line.SchoolName
}
