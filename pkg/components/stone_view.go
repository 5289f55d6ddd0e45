package components

import "github.com/decker502/stonecrush/pkg/logic"

// StoneViewComponent 标识一颗石子的视图实体
// 一个视图在任意时刻只绑定一个格子；格子归属由 ViewRegistry 独占管理，
// Cell 只是注册表写入的镜像，便于渲染和调试
type StoneViewComponent struct {
	Token string       // 石子 token，用于查找图片
	Cell  logic.Coords // 当前绑定的格子
	Bonus bool         // 是否为奖励石子
}
