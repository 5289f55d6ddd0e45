package components

// SizeComponent 视图的绘制尺寸（像素）
// 在每次放入格子时由 ViewRegistry 按当前网格尺寸重新计算
type SizeComponent struct {
	Width  float64
	Height float64
}
