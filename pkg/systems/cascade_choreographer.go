package systems

import (
	"fmt"
	"log"

	"github.com/decker502/stonecrush/pkg/anim"
	"github.com/decker502/stonecrush/pkg/config"
	"github.com/decker502/stonecrush/pkg/ecs"
	"github.com/decker502/stonecrush/pkg/entities"
	"github.com/decker502/stonecrush/pkg/logic"
)

// CascadeChoreographer 编排一个匹配结构的消除、奖励石子出现与下落补位
//
// 三个阶段各自返回一个过渡，由 ChoreographySystem 在上一阶段完成后再构建下一阶段，
// 视图的创建与移除都发生在阶段开始的那一刻。
type CascadeChoreographer struct {
	entityManager *ecs.EntityManager
	registry      *ViewRegistry
	layout        LayoutFunc
	easings       Easings
}

// NewCascadeChoreographer 创建消除编排器
func NewCascadeChoreographer(em *ecs.EntityManager, registry *ViewRegistry, layout LayoutFunc, easings Easings) *CascadeChoreographer {
	return &CascadeChoreographer{
		entityManager: em,
		registry:      registry,
		layout:        layout,
		easings:       easings,
	}
}

// RemovalPause 消除前的停顿
func (c *CascadeChoreographer) RemovalPause() anim.Transition {
	return anim.NewPause(config.RemovalPause)
}

// Remove 每一列从 DropInfo.Coords 向上清空 HeightOffset 个视图并销毁
// 返回被销毁的视图数量
func (c *CascadeChoreographer) Remove(e logic.ExplosionData) int {
	removed := 0
	for _, d := range e.ExplosionInfo {
		for _, id := range c.registry.RemoveRange(d.Coords.Col, d.Coords.Row, d.HeightOffset) {
			c.entityManager.DestroyEntity(id)
			removed++
		}
	}
	log.Printf("[CascadeChoreographer] 移除 %d 个视图（%d 列）", removed, len(e.ExplosionInfo))
	return removed
}

// BonusAppear 在奖励落点创建奖励石子：先在出现点淡入，再滑到落点
// 结构没有奖励石子时返回 nil
func (c *CascadeChoreographer) BonusAppear(e logic.ExplosionData) (anim.Transition, error) {
	if !e.HasBonus() {
		return nil, nil
	}

	g := c.layout()
	target := *e.BonusTarget
	id := entities.NewStoneViewEntity(c.entityManager, e.BonusToken, true)
	if err := c.registry.Place(id, target.Col, target.Row); err != nil {
		c.entityManager.DestroyEntity(id)
		return nil, fmt.Errorf("place bonus stone: %w", err)
	}

	rows := e.BonusTravelRows()
	startY := -float64(rows) * g.RowHeight()

	offset := offsetOf(c.entityManager, id)
	offset.X, offset.Y = 0, startY
	opacity := opacityOf(c.entityManager, id)
	opacity.Alpha = 0

	seq := anim.NewSequence(anim.NewFade(opacity, 0, 1, config.BonusFadeDuration, c.easings.Bonus))
	if rows != 0 {
		seq.Add(anim.NewSlide(offset, 0, startY, 0, 0, config.BonusMoveDuration, c.easings.Bonus))
	}

	log.Printf("[CascadeChoreographer] 奖励石子 %q 出现于 %v，落点 %v（%d 行）",
		e.BonusToken, *e.BonusSource, target, rows)
	return seq, nil
}

// Drop 为每一列创建新石子视图，从上方有效偏移处并行滑落到格子
// 奖励石子占据的格子被跳过；返回的整数是新建视图数量
func (c *CascadeChoreographer) Drop(e logic.ExplosionData) (anim.Transition, int, error) {
	g := c.layout()
	drops := anim.NewParallel()
	created := 0

	for _, d := range e.ExplosionInfo {
		startY := -float64(e.EffectiveOffset(d)) * g.RowHeight()
		for i, token := range d.FallingStoneTokens {
			cell := logic.Coords{Row: d.Coords.Row - i, Col: d.Coords.Col}
			if e.IsBonusCell(cell) {
				continue
			}

			id := entities.NewStoneViewEntity(c.entityManager, token, false)
			if err := c.registry.Place(id, cell.Col, cell.Row); err != nil {
				c.entityManager.DestroyEntity(id)
				return nil, created, fmt.Errorf("drop stone %q: %w", token, err)
			}
			offset := offsetOf(c.entityManager, id)
			offset.Y = startY
			drops.Add(anim.NewDropIn(offset, 0, startY, config.DropDuration, c.easings.Drop))
			created++
		}
	}

	log.Printf("[CascadeChoreographer] 下落补位 %d 个视图", created)
	return drops, created, nil
}
