package utils

// GridRect 网格在屏幕上的位置与单格尺寸
type GridRect struct {
	OriginX    float64 // 网格左上角X坐标
	OriginY    float64 // 网格左上角Y坐标
	Cols       int
	Rows       int
	CellWidth  float64
	CellHeight float64
}

// MouseToGridCoords 将鼠标屏幕坐标转换为网格坐标
// 参数:
//   - mouseX, mouseY: 鼠标的屏幕坐标
//
// 返回:
//   - col, row: 列、行索引
//   - isValid: 是否在有效网格范围内
func (r GridRect) MouseToGridCoords(mouseX, mouseY int) (col, row int, isValid bool) {
	if r.CellWidth <= 0 || r.CellHeight <= 0 {
		return 0, 0, false
	}
	x := float64(mouseX)
	y := float64(mouseY)

	// 检查是否在网格范围内
	gridEndX := r.OriginX + float64(r.Cols)*r.CellWidth
	gridEndY := r.OriginY + float64(r.Rows)*r.CellHeight

	if x < r.OriginX || x >= gridEndX || y < r.OriginY || y >= gridEndY {
		return 0, 0, false
	}

	col = int((x - r.OriginX) / r.CellWidth)
	row = int((y - r.OriginY) / r.CellHeight)

	// 边界检查（防止浮点数计算误差导致的越界）
	if col >= r.Cols {
		col = r.Cols - 1
	}
	if row >= r.Rows {
		row = r.Rows - 1
	}

	return col, row, true
}

// GridToScreenCoords 将网格坐标转换为格子左上角的屏幕坐标
func (r GridRect) GridToScreenCoords(col, row int) (x, y float64) {
	return r.OriginX + float64(col)*r.CellWidth, r.OriginY + float64(row)*r.CellHeight
}
