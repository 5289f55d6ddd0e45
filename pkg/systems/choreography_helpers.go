package systems

import (
	"errors"

	"github.com/decker502/stonecrush/pkg/components"
	"github.com/decker502/stonecrush/pkg/config"
	"github.com/decker502/stonecrush/pkg/ecs"
	"github.com/decker502/stonecrush/pkg/logic"
	"github.com/decker502/stonecrush/pkg/utils"
)

// ErrMissingView 编排需要的格子上没有视图（视图网格与逻辑网格不同步）
var ErrMissingView = errors.New("no view at cell")

// Easings 各类过渡使用的缓动函数
type Easings struct {
	Switch utils.EasingFunc
	Bonus  utils.EasingFunc
	Drop   utils.EasingFunc
}

// EasingsFromConfig 从棋盘配置解析缓动函数
func EasingsFromConfig(cfg config.EasingConfig) Easings {
	return Easings{
		Switch: utils.EasingByName(cfg.Switch),
		Bonus:  utils.EasingByName(cfg.Bonus),
		Drop:   utils.EasingByName(cfg.Drop),
	}
}

// boardSize 由几何得到逻辑棋盘尺寸
func boardSize(g config.Geometry) logic.BoardSize {
	return logic.BoardSize{Rows: g.Rows, Cols: g.Cols}
}

func offsetOf(em *ecs.EntityManager, id ecs.EntityID) *components.OffsetComponent {
	offset, ok := ecs.GetComponent[*components.OffsetComponent](em, id)
	if !ok {
		offset = &components.OffsetComponent{}
		ecs.AddComponent(em, id, offset)
	}
	return offset
}

func opacityOf(em *ecs.EntityManager, id ecs.EntityID) *components.OpacityComponent {
	opacity, ok := ecs.GetComponent[*components.OpacityComponent](em, id)
	if !ok {
		opacity = &components.OpacityComponent{Alpha: 1}
		ecs.AddComponent(em, id, opacity)
	}
	return opacity
}
