package config

// 编排设计常量
// 这些时长是动画设计的一部分，不从配置文件读取

const (
	// SwitchDuration 交换/回退时两颗石子的滑动时长（秒）
	SwitchDuration = 1.5

	// RemovalPause 消除前的停顿（秒），让玩家看清匹配的结构
	RemovalPause = 0.3

	// BonusFadeDuration 奖励石子淡入时长（秒）
	BonusFadeDuration = 1.0

	// BonusMoveDuration 奖励石子从出现点移动到落点的时长（秒）
	BonusMoveDuration = 1.0

	// DropDuration 新石子下落补位时长（秒）
	DropDuration = 1.5
)

// 默认几何参数，board.yaml 缺省时使用
const (
	DefaultRows       = 8
	DefaultCols       = 8
	DefaultCellWidth  = 64.0
	DefaultCellHeight = 64.0
	DefaultOriginX    = 32.0
	DefaultOriginY    = 64.0
)

// Geometry 网格几何
// 行高、列宽由网格尺寸除以行列数得到，不从控件实时测量
type Geometry struct {
	Rows   int
	Cols   int
	Width  float64 // 整个网格宽度（像素）
	Height float64 // 整个网格高度（像素）
}

// NewGeometry 由行列数和单格尺寸构造几何
func NewGeometry(rows, cols int, cellWidth, cellHeight float64) Geometry {
	return Geometry{
		Rows:   rows,
		Cols:   cols,
		Width:  float64(cols) * cellWidth,
		Height: float64(rows) * cellHeight,
	}
}

// RowHeight 单行高度
func (g Geometry) RowHeight() float64 {
	if g.Rows == 0 {
		return 0
	}
	return g.Height / float64(g.Rows)
}

// ColWidth 单列宽度
func (g Geometry) ColWidth() float64 {
	if g.Cols == 0 {
		return 0
	}
	return g.Width / float64(g.Cols)
}
