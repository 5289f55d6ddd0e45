package systems

import (
	"image"
	"log"
	"sort"

	"github.com/decker502/stonecrush/pkg/components"
	"github.com/decker502/stonecrush/pkg/ecs"
	"github.com/decker502/stonecrush/pkg/logic"
	"github.com/decker502/stonecrush/pkg/utils"
	"github.com/hajimehoshi/ebiten/v2"
)

// StoneImageSource 按 token 提供石子图片
// game.ResourceManager 实现了它
type StoneImageSource interface {
	StoneImage(token string) *ebiten.Image
}

// RenderSystem 绘制所有石子视图
//
// 视图的屏幕位置 = 网格原点 + 格子位置 + OffsetComponent，
// 透明度来自 OpacityComponent，大小来自 SizeComponent。
// 绘制裁剪在网格矩形内，从上方滑入的石子在进入网格前不可见。
type RenderSystem struct {
	entityManager *ecs.EntityManager
	images        StoneImageSource
	layout        LayoutFunc
	originX       float64
	originY       float64
	warned        map[string]bool // 已警告过缺图的 token
}

// NewRenderSystem 创建渲染系统
func NewRenderSystem(em *ecs.EntityManager, images StoneImageSource, layout LayoutFunc, originX, originY float64) *RenderSystem {
	return &RenderSystem{
		entityManager: em,
		images:        images,
		layout:        layout,
		originX:       originX,
		originY:       originY,
		warned:        make(map[string]bool),
	}
}

// SetOrigin 网格左上角的屏幕坐标
func (s *RenderSystem) SetOrigin(x, y float64) {
	s.originX, s.originY = x, y
}

// BoardRect 网格在屏幕上的矩形
func (s *RenderSystem) BoardRect() image.Rectangle {
	g := s.layout()
	return image.Rect(int(s.originX), int(s.originY), int(s.originX+g.Width), int(s.originY+g.Height))
}

// grid 当前布局下网格的屏幕矩形
func (s *RenderSystem) grid() utils.GridRect {
	g := s.layout()
	return utils.GridRect{
		OriginX:    s.originX,
		OriginY:    s.originY,
		Cols:       g.Cols,
		Rows:       g.Rows,
		CellWidth:  g.ColWidth(),
		CellHeight: g.RowHeight(),
	}
}

// CellAt 屏幕坐标下的格子
func (s *RenderSystem) CellAt(x, y int) (logic.Coords, bool) {
	col, row, ok := s.grid().MouseToGridCoords(x, y)
	return logic.Coords{Row: row, Col: col}, ok
}

// drawItem 一帧内要绘制的视图
type drawItem struct {
	id    ecs.EntityID
	view  *components.StoneViewComponent
	x, y  float64
	alpha float64
}

// Draw 绘制所有石子视图
func (s *RenderSystem) Draw(screen *ebiten.Image) {
	items := s.collect()
	if len(items) == 0 {
		return
	}

	board, ok := screen.SubImage(s.BoardRect().Intersect(screen.Bounds())).(*ebiten.Image)
	if !ok {
		return
	}

	for _, it := range items {
		img := s.spriteOf(it.id, it.view.Token)
		if img == nil {
			continue
		}
		size, _ := ecs.GetComponent[*components.SizeComponent](s.entityManager, it.id)

		op := &ebiten.DrawImageOptions{}
		bounds := img.Bounds()
		if size != nil && bounds.Dx() > 0 && bounds.Dy() > 0 {
			op.GeoM.Scale(size.Width/float64(bounds.Dx()), size.Height/float64(bounds.Dy()))
		}
		op.GeoM.Translate(it.x, it.y)
		op.ColorScale.ScaleAlpha(float32(it.alpha))
		board.DrawImage(img, op)
	}
}

// collect 计算所有视图的屏幕坐标并排序
// 普通石子按行绘制，奖励石子最后绘制，保证它在淡入时覆盖在最上层
func (s *RenderSystem) collect() []drawItem {
	grid := s.grid()

	ids := ecs.GetEntitiesWith1[*components.StoneViewComponent](s.entityManager)
	items := make([]drawItem, 0, len(ids))
	for _, id := range ids {
		view, _ := ecs.GetComponent[*components.StoneViewComponent](s.entityManager, id)
		it := drawItem{id: id, view: view, alpha: 1}
		it.x, it.y = grid.GridToScreenCoords(view.Cell.Col, view.Cell.Row)
		if off, ok := ecs.GetComponent[*components.OffsetComponent](s.entityManager, id); ok {
			it.x += off.X
			it.y += off.Y
		}
		if op, ok := ecs.GetComponent[*components.OpacityComponent](s.entityManager, id); ok {
			it.alpha = op.Alpha
		}
		items = append(items, it)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].view.Bonus != items[j].view.Bonus {
			return !items[i].view.Bonus
		}
		if items[i].view.Cell.Row != items[j].view.Cell.Row {
			return items[i].view.Cell.Row < items[j].view.Cell.Row
		}
		return items[i].view.Cell.Col < items[j].view.Cell.Col
	})
	return items
}

// spriteOf 首次绘制时解析图片并缓存到 SpriteComponent
func (s *RenderSystem) spriteOf(id ecs.EntityID, token string) *ebiten.Image {
	sprite, ok := ecs.GetComponent[*components.SpriteComponent](s.entityManager, id)
	if !ok {
		sprite = &components.SpriteComponent{}
		ecs.AddComponent(s.entityManager, id, sprite)
	}
	if sprite.Image != nil {
		return sprite.Image
	}
	if s.images == nil {
		return nil
	}

	sprite.Image = s.images.StoneImage(token)
	if sprite.Image == nil && !s.warned[token] {
		s.warned[token] = true
		log.Printf("[RenderSystem] 警告: 石子 %q 没有可用图片", token)
	}
	return sprite.Image
}
