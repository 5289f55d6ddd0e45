package components

// OpacityComponent 视图透明度，0 完全透明，1 不透明
type OpacityComponent struct {
	Alpha float64
}
