package scenes

import (
	"fmt"
	"image/color"
	"log"

	"github.com/decker502/stonecrush/pkg/audio"
	"github.com/decker502/stonecrush/pkg/config"
	"github.com/decker502/stonecrush/pkg/ecs"
	"github.com/decker502/stonecrush/pkg/events"
	"github.com/decker502/stonecrush/pkg/game"
	"github.com/decker502/stonecrush/pkg/logic"
	"github.com/decker502/stonecrush/pkg/systems"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// HUD 位置
const (
	hudX       = 8
	hudY       = 8
	hudLineGap = 16
)

var backgroundColor = color.RGBA{R: 0x1e, G: 0x1e, B: 0x2a, A: 0xff}

// BoardSceneOptions 创建棋盘场景所需的依赖
type BoardSceneOptions struct {
	Config    *config.BoardConfig
	Resources *game.ResourceManager
	Settings  *game.SettingsManager // 可为 nil
	Cues      *audio.CuePlayer      // 可为 nil
	Source    events.Source         // 可为 nil
	Interval  float64               // 两次走子之间的空闲时间（秒）
	Board     logic.StoneSource     // 初始棋盘，nil 时按调色板生成
	Listener  systems.PhaseListener // 额外的阶段回调（例如 websocket 广播），可为 nil
}

// BoardScene 播放编排的主场景
//
// 每帧：处理按键 → PlaybackSystem 取事件并推进编排 → RenderSystem 绘制 → HUD。
type BoardScene struct {
	entityManager *ecs.EntityManager
	choreography  *systems.ChoreographySystem
	playback      *systems.PlaybackSystem
	render        *systems.RenderSystem
	settings      *game.SettingsManager
	cues          *audio.CuePlayer
	phaseText     string
	hover         *logic.Coords // 鼠标所在格子
}

// NewBoardScene 创建棋盘场景并生成初始棋盘
func NewBoardScene(opts BoardSceneOptions) (*BoardScene, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultBoardConfig()
	}
	layout := systems.GeometryFromConfig(cfg)
	resources := opts.Resources
	if resources == nil {
		resources = game.NewResourceManager(cfg.TokenColor, int(cfg.CellWidth))
	}

	em := ecs.NewEntityManager()
	choreography := systems.NewChoreographySystem(em, layout, systems.EasingsFromConfig(cfg.Easing))

	s := &BoardScene{
		entityManager: em,
		choreography:  choreography,
		playback:      systems.NewPlaybackSystem(choreography, opts.Source, opts.Interval),
		render:        systems.NewRenderSystem(em, resources, layout, cfg.OriginX, cfg.OriginY),
		settings:      opts.Settings,
		cues:          opts.Cues,
		phaseText:     systems.StateIdle.String(),
	}

	var cueListener systems.PhaseListener
	if s.cues != nil {
		cueListener = s.cues.OnPhase
	}
	choreography.SetListener(systems.MultiListener(s.onPhase, cueListener, opts.Listener))

	if s.settings != nil {
		choreography.SetTimeScale(s.settings.GetSettings().AnimationSpeed)
	}

	board := opts.Board
	if board == nil {
		board = logic.PatternBoard(logic.BoardSize{Rows: cfg.Rows, Cols: cfg.Cols}, cfg.Tokens())
	}
	if err := choreography.Reset(board); err != nil {
		return nil, fmt.Errorf("initial board: %w", err)
	}

	log.Printf("[BoardScene] 场景已创建: %dx%d", cfg.Rows, cfg.Cols)
	return s, nil
}

// Choreography 编排系统
func (s *BoardScene) Choreography() *systems.ChoreographySystem {
	return s.choreography
}

// Playback 播放系统
func (s *BoardScene) Playback() *systems.PlaybackSystem {
	return s.playback
}

func (s *BoardScene) onPhase(e systems.PhaseEvent) {
	if e.State == systems.StateCascadePlaying {
		s.phaseText = fmt.Sprintf("%s #%d %s", e.State, e.Explosion, e.Phase)
		return
	}
	s.phaseText = e.State.String()
}

// Update 处理输入并推进播放
func (s *BoardScene) Update(deltaTime float64) {
	s.handleInput()
	s.Hover(ebiten.CursorPosition())
	s.Step(deltaTime)
}

// Step 推进播放，不读取输入
func (s *BoardScene) Step(deltaTime float64) {
	s.playback.Update(deltaTime)
}

// Hover 记录屏幕坐标下的格子，HUD 显示它的 token
func (s *BoardScene) Hover(x, y int) {
	if c, ok := s.render.CellAt(x, y); ok {
		s.hover = &c
		return
	}
	s.hover = nil
}

func (s *BoardScene) handleInput() {
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		s.TogglePause()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEqual) || inpututil.IsKeyJustPressed(ebiten.KeyNumpadAdd) {
		s.ScaleSpeed(2)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyMinus) || inpututil.IsKeyJustPressed(ebiten.KeyNumpadSubtract) {
		s.ScaleSpeed(0.5)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyM) {
		s.ToggleSound()
	}
}

// TogglePause 暂停/继续取新事件
func (s *BoardScene) TogglePause() {
	s.playback.SetPaused(!s.playback.Paused())
}

// ScaleSpeed 动画速度乘以 factor
func (s *BoardScene) ScaleSpeed(factor float64) {
	if s.settings == nil {
		return
	}
	s.settings.SetAnimationSpeed(s.settings.GetSettings().AnimationSpeed * factor)
	s.choreography.SetTimeScale(s.settings.GetSettings().AnimationSpeed)
	log.Printf("[BoardScene] 动画速度 x%.2f", s.settings.GetSettings().AnimationSpeed)
}

// ToggleSound 开关提示音
func (s *BoardScene) ToggleSound() {
	if s.settings == nil {
		return
	}
	enabled := !s.settings.GetSettings().SoundEnabled
	s.settings.SetSoundEnabled(enabled)
	if s.cues != nil {
		s.cues.SetEnabled(enabled)
	}
}

// Draw 绘制棋盘和 HUD
func (s *BoardScene) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)
	s.render.Draw(screen)

	for i, line := range s.hudLines() {
		ebitenutil.DebugPrintAt(screen, line, hudX, hudY+i*hudLineGap)
	}
}

// hudLines 状态文字
func (s *BoardScene) hudLines() []string {
	status := s.phaseText
	if s.playback.Paused() {
		status += " (paused)"
	}
	lines := []string{
		fmt.Sprintf("%s  played %d  rejected %d", status, s.playback.Played(), s.playback.Rejected()),
	}
	if err := s.playback.LastError(); err != nil {
		lines = append(lines, "error: "+err.Error())
	}
	if s.hover != nil {
		if token, _, ok := s.choreography.ViewAt(*s.hover); ok {
			lines = append(lines, fmt.Sprintf("(%d,%d) %s", s.hover.Row, s.hover.Col, token))
		}
	}
	return lines
}

// SaveOnExit 退出时保存播放设置
func (s *BoardScene) SaveOnExit() bool {
	if s.settings == nil {
		return true
	}
	if err := s.settings.Save(); err != nil {
		log.Printf("[BoardScene] 保存设置失败: %v", err)
		return false
	}
	return true
}
