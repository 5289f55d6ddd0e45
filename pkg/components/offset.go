package components

// OffsetComponent 视图相对其格子的平移偏移（像素）
// 过渡动画总是从某个偏移滑向 0，动画结束时偏移必须归零
type OffsetComponent struct {
	X float64
	Y float64
}
