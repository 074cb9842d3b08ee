package excel

import "github.com/xuri/excelize/v2"

// templateColumns defines the built-in template: column, title, width.
var templateColumns = []struct {
	column string
	title  string
	width  float64
}{
	{"A", "Số hóa đơn", 12},
	{"B", "Ngày hóa đơn", 14},
	{"C", "MST Bên bán", 15},
	{"D", "Tên người bán", 35},
	{"E", "MST bên mua", 15},
	{"F", "Tên người mua", 35},
	{"G", "Tên hàng hóa", 30},
	{"H", "Đơn vị", 10},
	{"I", "Số lượng", 10},
	{"J", "Đơn giá", 15},
	{"K", "% VAT", 8},
	{"L", "Thành tiền trước VAT", 18},
	{"M", "VAT", 15},
	{"N", "Thành tiền sau VAT", 18},
}

// newDefaultTemplate builds the workbook used when the deployer supplies no
// template: Vietnamese column titles on row 1, bold and centered, with the
// widths the original deployment used.
func newDefaultTemplate() *excelize.File {
	file := excelize.NewFile()
	sheet := file.GetSheetName(file.GetActiveSheetIndex())

	styleID, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
			WrapText:   true,
		},
	})

	for _, col := range templateColumns {
		cell := col.column + "1"
		_ = file.SetCellValue(sheet, cell, col.title)
		if err == nil {
			_ = file.SetCellStyle(sheet, cell, cell, styleID)
		}
		_ = file.SetColWidth(sheet, col.column, col.column, col.width)
	}

	return file
}
