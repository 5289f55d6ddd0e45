// Package logic 定义棋盘逻辑层与动画编排层之间的数据契约
//
// 逻辑层（外部协作者）在每次玩家走子后产生一个 AnimationData 事件，
// 编排层只消费该事件，从不修改逻辑状态。所有类型创建后即视为只读。
package logic

import "fmt"

// Coords 标识一个棋盘格子 (row, col)
// 第 0 行在最上方，行号向下递增
type Coords struct {
	Row int `yaml:"row" json:"row"`
	Col int `yaml:"col" json:"col"`
}

// String 返回 "(row,col)" 形式，便于日志输出
func (c Coords) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Adjacent 判断两个格子是否四邻接：恰好一个坐标轴相差 1
func Adjacent(a, b Coords) bool {
	dr := abs(a.Row - b.Row)
	dc := abs(a.Col - b.Col)
	return dr+dc == 1
}

// BoardSize 棋盘尺寸，由逻辑层决定
type BoardSize struct {
	Rows int
	Cols int
}

// Contains 判断格子是否在棋盘范围内
func (s BoardSize) Contains(c Coords) bool {
	return c.Row >= 0 && c.Row < s.Rows && c.Col >= 0 && c.Col < s.Cols
}

// DropInfo 描述一列的掉落情况
//
// Coords 是该列被消除的最下方格子；从该格向上共 HeightOffset 行被清空，
// 即 row, row-1, ..., row-HeightOffset+1。
// FallingStoneTokens 是新石子的 token，从最下方的补位开始向上排列。
type DropInfo struct {
	Coords             Coords
	HeightOffset       int
	FallingStoneTokens []string
}

// TopRow 返回被清空区域最上方的行号
func (d DropInfo) TopRow() int {
	return d.Coords.Row - d.HeightOffset + 1
}

// Evacuates 判断格子是否位于本列被清空的区域内
func (d DropInfo) Evacuates(c Coords) bool {
	return c.Col == d.Coords.Col && c.Row <= d.Coords.Row && c.Row >= d.TopRow()
}

// ExplosionData 描述一个匹配结构的消除结果
//
// BonusSource / BonusTarget 要么同时存在，要么同时为 nil。
type ExplosionData struct {
	ExplosionInfo []DropInfo
	BonusToken    string
	BonusSource   *Coords
	BonusTarget   *Coords
}

// HasBonus 是否生成奖励石子
func (e ExplosionData) HasBonus() bool {
	return e.BonusSource != nil && e.BonusTarget != nil
}

// IsBonusCell 判断格子是否是奖励石子的落点
func (e ExplosionData) IsBonusCell(c Coords) bool {
	return e.HasBonus() && *e.BonusTarget == c
}

// EffectiveOffset 返回该列新石子需要下落的行数
// 奖励石子占据了一个空位，所以它所在的列少下落一行
func (e ExplosionData) EffectiveOffset(d DropInfo) int {
	if e.HasBonus() && e.BonusTarget.Col == d.Coords.Col {
		return d.HeightOffset - 1
	}
	return d.HeightOffset
}

// BonusTravelRows 返回奖励石子从出现点移动到落点的行数（target.row - source.row）
func (e ExplosionData) BonusTravelRows() int {
	if !e.HasBonus() {
		return 0
	}
	return e.BonusTarget.Row - e.BonusSource.Row
}

// NewStoneCount 返回该结构在掉落阶段需要创建的普通石子视图数量
func (e ExplosionData) NewStoneCount() int {
	n := 0
	for _, d := range e.ExplosionInfo {
		n += len(d.FallingStoneTokens)
	}
	if e.HasBonus() {
		n--
	}
	return n
}

// AnimationData 一次玩家走子产生的完整变更事件
// Explosions 为空表示走子无效，需要回退交换动画
type AnimationData struct {
	SwitchSource Coords
	SwitchTarget Coords
	Explosions   []ExplosionData
}

// IsRevert 走子无效，需要播放反向交换
func (a AnimationData) IsRevert() bool {
	return len(a.Explosions) == 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
