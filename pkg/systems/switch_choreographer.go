package systems

import (
	"fmt"
	"log"

	"github.com/decker502/stonecrush/pkg/anim"
	"github.com/decker502/stonecrush/pkg/config"
	"github.com/decker502/stonecrush/pkg/ecs"
	"github.com/decker502/stonecrush/pkg/logic"
)

// SwitchChoreographer 编排两颗相邻石子的交换
//
// 视图的格子绑定立即交换，视觉上各自从旧位置滑到新位置。
// 用 (target, source) 再调用一次即得到完全相反的回退动画。
type SwitchChoreographer struct {
	entityManager *ecs.EntityManager
	registry      *ViewRegistry
	layout        LayoutFunc
	easings       Easings
}

// NewSwitchChoreographer 创建交换编排器
func NewSwitchChoreographer(em *ecs.EntityManager, registry *ViewRegistry, layout LayoutFunc, easings Easings) *SwitchChoreographer {
	return &SwitchChoreographer{
		entityManager: em,
		registry:      registry,
		layout:        layout,
		easings:       easings,
	}
}

// Switch 交换 source 与 target 两个格子上的视图，返回并行的两段滑动
func (c *SwitchChoreographer) Switch(source, target logic.Coords) (anim.Transition, error) {
	g := c.layout()
	if err := logic.ValidateSwitch(boardSize(g), source, target); err != nil {
		return nil, err
	}

	sourceView, ok := c.registry.Get(source.Col, source.Row)
	if !ok {
		return nil, fmt.Errorf("%w: switch source %v", ErrMissingView, source)
	}
	targetView, ok := c.registry.Get(target.Col, target.Row)
	if !ok {
		return nil, fmt.Errorf("%w: switch target %v", ErrMissingView, target)
	}

	// 先移除两者再交叉放入，注册表中不会出现重复绑定
	c.registry.Remove(target.Col, target.Row)
	c.registry.Remove(source.Col, source.Row)
	if err := c.registry.Place(sourceView, target.Col, target.Row); err != nil {
		return nil, err
	}
	if err := c.registry.Place(targetView, source.Col, source.Row); err != nil {
		return nil, err
	}

	log.Printf("[SwitchChoreographer] 交换 %v <-> %v", source, target)

	return anim.NewParallel(
		c.slideInto(g, sourceView, source, target),
		c.slideInto(g, targetView, target, source),
	), nil
}

// slideInto 视图已绑定到 to，起始偏移让它看起来仍在 from
func (c *SwitchChoreographer) slideInto(g config.Geometry, id ecs.EntityID, from, to logic.Coords) anim.Transition {
	dx := float64(from.Col-to.Col) * g.ColWidth()
	dy := float64(from.Row-to.Row) * g.RowHeight()
	return anim.NewDropIn(offsetOf(c.entityManager, id), dx, dy, config.SwitchDuration, c.easings.Switch)
}
