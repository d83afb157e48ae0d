package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectHeaderRow(t *testing.T) {
	rows := [][]string{
		{"Прайс-лист ателье", "", "", "", ""},
		{"", "", "", "", ""},
		{"Изделие", "Размер", "Ширина ткани", "Расход на шт", "Единица"},
		{"Pant", "30", "36", "1.5", "meters"},
	}

	idx, mapping, err := detectHeaderRow(rows)
	require.NoError(t, err)
	assert.Equal(t, 2, idx)
	assert.Equal(t, 0, mapping["product"])
	assert.Equal(t, 1, mapping["size"])
	assert.Equal(t, 2, mapping["width"])
	assert.Equal(t, 3, mapping["length"])
	assert.Equal(t, 4, mapping["unit"])
}

func TestDetectHeaderRowEnglish(t *testing.T) {
	rows := [][]string{
		{"Product", "Size", "Fabric Width", "Length Required", "Unit"},
		{"Shirt", "M", "60", "1.2", "meters"},
	}

	idx, mapping, err := detectHeaderRow(rows)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	assert.Len(t, mapping, 5)
}

func TestDetectHeaderRowNotFound(t *testing.T) {
	rows := [][]string{
		{"Pant", "30", "36", "1.5"},
		{"Shirt", "M", "60", "1.2"},
	}

	_, _, err := detectHeaderRow(rows)
	assert.Error(t, err, "строки данных не распознаются как заголовок")

	_, _, err = detectHeaderRow(nil)
	assert.Error(t, err)
}

func TestMatchColumnsIgnoresDuplicates(t *testing.T) {
	mapping := matchColumns([]string{"Изделие", "Товар", "Размер"})

	assert.Equal(t, 0, mapping["product"], "первая подходящая колонка выигрывает")
	assert.Equal(t, 2, mapping["size"])
}

func TestMatchColumnsIgnoresSchool(t *testing.T) {
	mapping := matchColumns([]string{"Изделие", "Школа", "Размер", "Расход", "Единица"})

	// колонка школы не распознается: правила расхода к школе не привязаны
	assert.NotContains(t, mapping, "school")
	assert.Len(t, mapping, 4)
}

func TestParseImportFloat(t *testing.T) {
	v, err := parseImportFloat("1.5")
	require.NoError(t, err)
	assert.Equal(t, 1.5, v)

	v, err = parseImportFloat("2,25")
	require.NoError(t, err)
	assert.Equal(t, 2.25, v)

	_, err = parseImportFloat("abc")
	assert.Error(t, err)
}

func TestDetectDelimiter(t *testing.T) {
	assert.Equal(t, ',', detectDelimiter([]byte("a,b,c\n1,2,3")))
	assert.Equal(t, ';', detectDelimiter([]byte("a;b;c\n1;2;3")))
	assert.Equal(t, '\t', detectDelimiter([]byte("a\tb\tc\n1\t2\t3")))
}

func TestCellAt(t *testing.T) {
	row := []string{"Pant", "30", " 1.5 "}
	mapping := map[string]int{"product": 0, "size": 1, "length": 2, "width": 9}

	assert.Equal(t, "Pant", cellAt(row, mapping, "product"))
	assert.Equal(t, "1.5", cellAt(row, mapping, "length"))
	assert.Equal(t, "", cellAt(row, mapping, "width"), "индекс за пределами строки")
	assert.Equal(t, "", cellAt(row, mapping, "unknown"))
}
