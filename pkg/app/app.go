// Package app 提供应用的核心包装器
//
// 该包将初始化逻辑从 main 包提取出来，窗口前端与终端前端共用同一个 Session。
package app

import (
	"fmt"
	"image/color"
	"log"

	"github.com/decker502/stonecrush/pkg/game"
	"github.com/decker502/stonecrush/pkg/scenes"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// BoardSceneName 场景工厂识别的棋盘场景名
const BoardSceneName = "board"

// App 是窗口前端的核心包装器，实现 ebiten.Game 接口
type App struct {
	session                  *Session
	sceneManager             *game.SceneManager
	resources                *game.ResourceManager
	pendingWindowSizeReset   bool // 延迟设置窗口大小标志
	windowSizeResetCountdown int  // 延迟帧数
}

// NewApp 创建并初始化窗口应用
func NewApp(session *Session) (*App, error) {
	a := &App{
		session:   session,
		resources: game.NewResourceManager(session.Board.TokenColor, int(session.Board.CellWidth)),
	}

	if _, err := a.resources.PreloadStones(); err != nil {
		log.Printf("[App] 预加载石子图片失败，按需加载: %v", err)
	}

	// 创建场景管理器
	a.sceneManager = game.NewSceneManager()
	var factoryErr error
	a.sceneManager.SetSceneFactory(func(name string) game.Scene {
		if name != BoardSceneName {
			log.Printf("[App] 未知场景: %s", name)
			return nil
		}
		scene, err := scenes.NewBoardScene(session.SceneOptions(a.resources))
		if err != nil {
			factoryErr = err
			log.Printf("[App] 创建场景失败: %v", err)
			return nil
		}
		return scene
	})

	if !a.sceneManager.LoadScene(BoardSceneName) {
		return nil, fmt.Errorf("场景创建失败: %w", factoryErr)
	}

	if session.Settings.GetSettings().Fullscreen {
		ebiten.SetFullscreen(true)
	}
	return a, nil
}

// Update 更新逻辑
// 每个 tick 调用一次（通常每秒 60 次）
func (a *App) Update() error {
	// 延迟设置窗口大小（退出全屏后需要等待几帧才能正确设置）
	if a.pendingWindowSizeReset {
		a.windowSizeResetCountdown--
		if a.windowSizeResetCountdown <= 0 {
			w, h := a.session.Board.ScreenSize()
			ebiten.SetWindowSize(w, h)
			log.Printf("[App] Delayed SetWindowSize(%d, %d)", w, h)
			a.pendingWindowSizeReset = false
		}
	}

	// F11 切换全屏
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		if ebiten.IsFullscreen() {
			ebiten.SetFullscreen(false)
			if ebiten.IsWindowMaximized() || ebiten.IsWindowMinimized() {
				ebiten.RestoreWindow()
			}
			// 延迟几帧后设置窗口大小，让窗口管理器有时间处理
			a.pendingWindowSizeReset = true
			a.windowSizeResetCountdown = 3
			a.session.Settings.SetFullscreen(false)
			log.Printf("[App] Exit fullscreen, will reset window size in 3 frames")
		} else {
			ebiten.SetFullscreen(true)
			a.session.Settings.SetFullscreen(true)
		}
	}

	// R 从头重播（脚本源重新开始）
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		a.sceneManager.Reload()
	}

	deltaTime := 1.0 / float64(ebiten.TPS())
	a.sceneManager.Update(deltaTime)
	return nil
}

// Draw 绘制画面
func (a *App) Draw(screen *ebiten.Image) {
	a.sceneManager.Draw(screen)
}

// DrawFinalScreen 实现 FinalScreenDrawer 接口
// 用于控制全屏时的缩放和 letterbox 颜色
func (a *App) DrawFinalScreen(screen ebiten.FinalScreen, offscreen *ebiten.Image, geoM ebiten.GeoM) {
	screen.Fill(color.Black)
	op := &ebiten.DrawImageOptions{}
	op.GeoM = geoM
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(offscreen, op)
}

// Layout 返回逻辑屏幕尺寸，由棋盘配置决定
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return a.session.Board.ScreenSize()
}

// GetSceneManager 返回场景管理器
// 用于在关闭时保存设置
func (a *App) GetSceneManager() *game.SceneManager {
	return a.sceneManager
}
