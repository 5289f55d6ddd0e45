// Package terminal 在终端里播放编排，不需要图形窗口
//
// 每个格子占 CellCols x CellRows 个字符，视图偏移按比例换算成字符位移，
// 透明度通过把前景色向背景色混合来表现。
package terminal

import (
	"context"
	"fmt"
	"image/color"
	"log"
	"math"
	"time"

	"github.com/decker502/stonecrush/pkg/components"
	"github.com/decker502/stonecrush/pkg/config"
	"github.com/decker502/stonecrush/pkg/ecs"
	"github.com/decker502/stonecrush/pkg/systems"
	"github.com/gdamore/tcell/v2"
)

// 每个格子的字符尺寸
const (
	CellCols = 4
	CellRows = 2
)

// 棋盘左上角在终端里的位置，第 0 行留给状态栏
const (
	boardLeft = 1
	boardTop  = 2
)

const frameInterval = 16 * time.Millisecond // ~60 FPS

// TokenColors 由 token 得到颜色，config.BoardConfig.TokenColor 满足它
type TokenColors func(token string) color.RGBA

// Renderer 把石子视图画到 tcell 屏幕上
type Renderer struct {
	entityManager *ecs.EntityManager
	layout        systems.LayoutFunc
	colors        TokenColors
	background    tcell.Color
}

// NewRenderer 创建终端渲染器
func NewRenderer(em *ecs.EntityManager, layout systems.LayoutFunc, colors TokenColors) *Renderer {
	return &Renderer{
		entityManager: em,
		layout:        layout,
		colors:        colors,
		background:    tcell.ColorBlack,
	}
}

// Draw 清屏并绘制所有视图和状态栏
func (r *Renderer) Draw(screen tcell.Screen, status string) {
	screen.Clear()
	g := r.layout()

	r.drawFrame(screen, g)

	for _, id := range ecs.GetEntitiesWith1[*components.StoneViewComponent](r.entityManager) {
		r.drawView(screen, g, id)
	}

	drawText(screen, 0, 0, tcell.StyleDefault.Foreground(tcell.ColorWhite), status)
	screen.Show()
}

// drawFrame 棋盘外框
func (r *Renderer) drawFrame(screen tcell.Screen, g config.Geometry) {
	style := tcell.StyleDefault.Foreground(tcell.ColorGray)
	w, h := g.Cols*CellCols, g.Rows*CellRows
	for x := -1; x <= w; x++ {
		screen.SetContent(boardLeft+x, boardTop-1, '─', nil, style)
		screen.SetContent(boardLeft+x, boardTop+h, '─', nil, style)
	}
	for y := 0; y < h; y++ {
		screen.SetContent(boardLeft-1, boardTop+y, '│', nil, style)
		screen.SetContent(boardLeft+w, boardTop+y, '│', nil, style)
	}
}

// CellOrigin 视图在终端中的左上角字符坐标
func (r *Renderer) CellOrigin(g config.Geometry, view *components.StoneViewComponent, off *components.OffsetComponent) (int, int) {
	x := boardLeft + view.Cell.Col*CellCols
	y := boardTop + view.Cell.Row*CellRows
	if off != nil {
		if cw := g.ColWidth(); cw > 0 {
			x += int(math.Round(off.X / cw * CellCols))
		}
		if rh := g.RowHeight(); rh > 0 {
			y += int(math.Round(off.Y / rh * CellRows))
		}
	}
	return x, y
}

func (r *Renderer) drawView(screen tcell.Screen, g config.Geometry, id ecs.EntityID) {
	view, _ := ecs.GetComponent[*components.StoneViewComponent](r.entityManager, id)
	off, _ := ecs.GetComponent[*components.OffsetComponent](r.entityManager, id)
	alpha := 1.0
	if op, ok := ecs.GetComponent[*components.OpacityComponent](r.entityManager, id); ok {
		alpha = op.Alpha
	}
	if alpha <= 0 {
		return
	}

	x, y := r.CellOrigin(g, view, off)
	fg := r.blend(view.Token, alpha)
	style := tcell.StyleDefault.Foreground(fg).Background(r.background)
	if view.Bonus {
		style = style.Bold(true)
	}

	glyph := Glyph(view.Bonus)
	maxX, maxY := boardLeft+g.Cols*CellCols, boardTop+g.Rows*CellRows
	for dy := 0; dy < CellRows; dy++ {
		for dx := 0; dx < CellCols-1; dx++ {
			cx, cy := x+dx, y+dy
			// 裁剪在棋盘内
			if cx < boardLeft || cy < boardTop || cx >= maxX || cy >= maxY {
				continue
			}
			screen.SetContent(cx, cy, glyph, nil, style)
		}
	}
}

// blend 按透明度把 token 颜色混向黑色背景
func (r *Renderer) blend(token string, alpha float64) tcell.Color {
	c := color.RGBA{R: 0xc0, G: 0xc0, B: 0xc0, A: 0xff}
	if r.colors != nil {
		c = r.colors(token)
	}
	scale := func(v uint8) int32 { return int32(math.Round(float64(v) * alpha)) }
	return tcell.NewRGBColor(scale(c.R), scale(c.G), scale(c.B))
}

// Glyph 格子里显示的字符：奖励石子为 ★，其余为实心块
func Glyph(bonus bool) rune {
	if bonus {
		return '★'
	}
	return '█'
}

func drawText(screen tcell.Screen, x, y int, style tcell.Style, s string) {
	for i, ch := range []rune(s) {
		screen.SetContent(x+i, y, ch, nil, style)
	}
}

// StatusLine 状态栏文本
func StatusLine(choreography *systems.ChoreographySystem, playback *systems.PlaybackSystem) string {
	state := choreography.State().String()
	if choreography.State() == systems.StateCascadePlaying {
		state = fmt.Sprintf("%s #%d %s", state, choreography.ExplosionIndex(), choreography.Phase())
	}
	line := fmt.Sprintf("[%s] played %d rejected %d", state, playback.Played(), playback.Rejected())
	if playback.Paused() {
		line += " (paused)"
	}
	if err := playback.LastError(); err != nil {
		line += " last error: " + err.Error()
	}
	return line + "   space: pause  +/-: speed  q: quit"
}

// Loop 终端主循环
type Loop struct {
	screen       tcell.Screen
	renderer     *Renderer
	choreography *systems.ChoreographySystem
	playback     *systems.PlaybackSystem
	speed        float64
	onSpeed      func(speed float64)
}

// NewLoop 创建主循环，screen 必须已经 Init
func NewLoop(screen tcell.Screen, renderer *Renderer, choreography *systems.ChoreographySystem, playback *systems.PlaybackSystem, speed float64) *Loop {
	if speed <= 0 {
		speed = 1
	}
	choreography.SetTimeScale(speed)
	return &Loop{
		screen:       screen,
		renderer:     renderer,
		choreography: choreography,
		playback:     playback,
		speed:        speed,
	}
}

// Speed 当前动画速度倍率
func (l *Loop) Speed() float64 {
	return l.speed
}

// SetSpeedListener 速度调整后回调，用于写回设置
func (l *Loop) SetSpeedListener(fn func(speed float64)) {
	l.onSpeed = fn
}

// HandleEvent 处理一个终端事件，返回 false 表示退出
func (l *Loop) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() == tcell.KeyRune {
			switch ev.Rune() {
			case 'q':
				return false
			case ' ':
				l.playback.SetPaused(!l.playback.Paused())
			case '+', '=':
				l.setSpeed(l.speed * 2)
			case '-':
				l.setSpeed(l.speed / 2)
			}
		}
	case *tcell.EventResize:
		l.screen.Sync()
	}
	return true
}

func (l *Loop) setSpeed(speed float64) {
	l.speed = math.Min(math.Max(speed, 0.25), 4)
	l.choreography.SetTimeScale(l.speed)
	log.Printf("[Terminal] 动画速度 x%.2f", l.speed)
	if l.onSpeed != nil {
		l.onSpeed(l.speed)
	}
}

// Step 推进一帧并重绘
func (l *Loop) Step(deltaTime float64) {
	l.playback.Update(deltaTime)
	l.renderer.Draw(l.screen, StatusLine(l.choreography, l.playback))
}

// Run 运行直到用户退出或 ctx 结束
func (l *Loop) Run(ctx context.Context) error {
	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := l.screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-eventChan:
			if !l.HandleEvent(ev) {
				return nil
			}
		case now := <-ticker.C:
			l.Step(now.Sub(last).Seconds())
			last = now
		}
	}
}
