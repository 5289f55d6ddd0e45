package systems

import (
	"errors"
	"fmt"
	"log"

	"github.com/decker502/stonecrush/pkg/components"
	"github.com/decker502/stonecrush/pkg/config"
	"github.com/decker502/stonecrush/pkg/ecs"
	"github.com/decker502/stonecrush/pkg/logic"
)

var (
	// ErrCellOccupied 目标格子已经绑定了另一个视图
	ErrCellOccupied = errors.New("cell already holds a view")
	// ErrViewAlreadyPlaced 视图已经绑定在另一个格子上
	ErrViewAlreadyPlaced = errors.New("view already bound to another cell")
)

// LayoutFunc 返回当前网格几何
// 每次放置视图时调用，几何变化后重新放置的视图自动跟随
type LayoutFunc func() config.Geometry

// ViewRegistry 格子 -> 石子视图的独占映射
//
// 一个视图任意时刻只属于一个格子，移动总是先移除再放入，从不复制。
// 只在游戏循环线程上访问，不加锁。
type ViewRegistry struct {
	entityManager *ecs.EntityManager
	layout        LayoutFunc
	cells         map[logic.Coords]ecs.EntityID
	owners        map[ecs.EntityID]logic.Coords
}

// NewViewRegistry 创建视图注册表
func NewViewRegistry(em *ecs.EntityManager, layout LayoutFunc) *ViewRegistry {
	return &ViewRegistry{
		entityManager: em,
		layout:        layout,
		cells:         make(map[logic.Coords]ecs.EntityID),
		owners:        make(map[ecs.EntityID]logic.Coords),
	}
}

// Get 返回格子上的视图
func (r *ViewRegistry) Get(col, row int) (ecs.EntityID, bool) {
	id, ok := r.cells[logic.Coords{Row: row, Col: col}]
	return id, ok
}

// Place 把视图绑定到格子，并按当前网格尺寸设置视图大小
func (r *ViewRegistry) Place(id ecs.EntityID, col, row int) error {
	cell := logic.Coords{Row: row, Col: col}
	if other, ok := r.cells[cell]; ok {
		return fmt.Errorf("%w: %v holds view %d, cannot place view %d", ErrCellOccupied, cell, other, id)
	}
	if prev, ok := r.owners[id]; ok {
		return fmt.Errorf("%w: view %d is at %v, cannot place at %v", ErrViewAlreadyPlaced, id, prev, cell)
	}

	r.cells[cell] = id
	r.owners[id] = cell

	if view, ok := ecs.GetComponent[*components.StoneViewComponent](r.entityManager, id); ok {
		view.Cell = cell
	}
	r.bindSize(id)
	return nil
}

// bindSize 尺寸 = 网格尺寸 / 行列数，每次重新计算，不缓存
func (r *ViewRegistry) bindSize(id ecs.EntityID) {
	if r.layout == nil {
		return
	}
	g := r.layout()
	size := &components.SizeComponent{Width: g.ColWidth(), Height: g.RowHeight()}
	if existing, ok := ecs.GetComponent[*components.SizeComponent](r.entityManager, id); ok {
		*existing = *size
		return
	}
	ecs.AddComponent(r.entityManager, id, size)
}

// Remove 解除单个格子的绑定，格子为空时为无操作
func (r *ViewRegistry) Remove(col, row int) (ecs.EntityID, bool) {
	cell := logic.Coords{Row: row, Col: col}
	id, ok := r.cells[cell]
	if !ok {
		return 0, false
	}
	delete(r.cells, cell)
	delete(r.owners, id)
	return id, true
}

// RemoveRange 从 (col,row) 开始向上（行号递减）解除 count 个格子的绑定
// 返回实际移除的视图；空格子被跳过
func (r *ViewRegistry) RemoveRange(col, row, count int) []ecs.EntityID {
	removed := make([]ecs.EntityID, 0, count)
	for i := 0; i < count; i++ {
		if id, ok := r.Remove(col, row-i); ok {
			removed = append(removed, id)
		} else {
			log.Printf("[ViewRegistry] 格子 (%d,%d) 没有视图，跳过", row-i, col)
		}
	}
	return removed
}

// Len 已绑定的格子数
func (r *ViewRegistry) Len() int {
	return len(r.cells)
}

// MissingCells 返回棋盘内没有视图的格子（按行优先顺序）
func (r *ViewRegistry) MissingCells(size logic.BoardSize) []logic.Coords {
	var missing []logic.Coords
	for row := 0; row < size.Rows; row++ {
		for col := 0; col < size.Cols; col++ {
			c := logic.Coords{Row: row, Col: col}
			if _, ok := r.cells[c]; !ok {
				missing = append(missing, c)
			}
		}
	}
	return missing
}

// Clear 解除所有绑定，返回被解除的视图
func (r *ViewRegistry) Clear() []ecs.EntityID {
	ids := make([]ecs.EntityID, 0, len(r.owners))
	for id := range r.owners {
		ids = append(ids, id)
	}
	r.cells = make(map[logic.Coords]ecs.EntityID)
	r.owners = make(map[ecs.EntityID]logic.Coords)
	return ids
}
