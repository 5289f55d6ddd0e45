package app

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/decker502/stonecrush/pkg/audio"
	"github.com/decker502/stonecrush/pkg/config"
	"github.com/decker502/stonecrush/pkg/events"
	"github.com/decker502/stonecrush/pkg/game"
	"github.com/decker502/stonecrush/pkg/logic"
	"github.com/decker502/stonecrush/pkg/scenes"
	"github.com/decker502/stonecrush/pkg/systems"
	wsrecv "github.com/decker502/stonecrush/pkg/transport/websocket"
)

// AppName gdata 存储使用的应用名
const AppName = "stonecrush"

// DefaultBoardConfigPath 默认棋盘配置
const DefaultBoardConfigPath = "data/board.yaml"

// Config 定义应用启动配置
type Config struct {
	// Verbose 启用详细日志输出
	Verbose bool
	// BoardConfig 棋盘配置路径，为空时使用 DefaultBoardConfigPath
	BoardConfig string
	// Script 回放脚本路径，为空则不回放
	Script string
	// Listen websocket 监听地址（如 ":8080"），为空则不监听
	Listen string
	// Speed 大于 0 时覆盖保存的动画速度
	Speed float64
	// NoSound 关闭提示音
	NoSound bool
	// NoPersist 不读写 gdata（测试和一次性运行）
	NoPersist bool
}

// Session 两个前端共享的运行时依赖
type Session struct {
	Board    *config.BoardConfig
	Settings *game.SettingsManager
	Cues     *audio.CuePlayer
	Receiver *wsrecv.Receiver // 未监听时为 nil

	script *events.Script
	listen string
}

// ConfigureLogging 非 verbose 模式下丢弃日志
func ConfigureLogging(verbose bool) {
	if !verbose {
		log.SetOutput(io.Discard)
		log.SetFlags(0)
	}
}

// NewSession 加载配置、设置和脚本
//
// 调用此函数前，如需读取嵌入的 data/，必须先调用 embedded.Init()。
func NewSession(cfg Config) (*Session, error) {
	ConfigureLogging(cfg.Verbose)

	path := cfg.BoardConfig
	if path == "" {
		path = DefaultBoardConfigPath
	}
	board, err := config.LoadBoardConfig(path)
	if err != nil {
		return nil, fmt.Errorf("棋盘配置加载失败: %w", err)
	}
	log.Printf("[App] 棋盘配置 %s: %dx%d", path, board.Rows, board.Cols)

	s := &Session{Board: board, listen: cfg.Listen}

	if cfg.Script != "" {
		script, err := events.LoadScript(cfg.Script)
		if err != nil {
			return nil, err
		}
		if initial, _ := script.NewBoard(); initial != nil {
			want := logic.BoardSize{Rows: board.Rows, Cols: board.Cols}
			if initial.Size() != want {
				return nil, fmt.Errorf("script board %dx%d does not match board config %dx%d",
					initial.Size().Rows, initial.Size().Cols, want.Rows, want.Cols)
			}
		}
		s.script = script
	}

	if cfg.NoPersist {
		s.Settings = game.NewSettingsManager(nil)
	} else {
		s.Settings = game.OpenSettingsManager(AppName)
	}
	if cfg.Speed > 0 {
		s.Settings.SetAnimationSpeed(cfg.Speed)
	}

	settings := s.Settings.GetSettings()
	s.Cues = audio.Start(settings.SoundEnabled && !cfg.NoSound, settings.SoundVolume)

	if cfg.Listen != "" {
		s.Receiver = wsrecv.NewReceiver(wsrecv.DefaultQueueSize)
	}
	return s, nil
}

// Serve 启动 websocket 接收端（若配置了监听地址），不阻塞
// errc 在服务退出时收到 ListenAndServe 的结果
func (s *Session) Serve(ctx context.Context) <-chan error {
	errc := make(chan error, 1)
	if s.Receiver == nil {
		close(errc)
		return errc
	}
	go s.Receiver.Run(ctx)
	go func() {
		errc <- s.Receiver.ListenAndServe(ctx, s.listen)
		close(errc)
	}()
	return errc
}

// Source 组合脚本与 websocket 事件源
// 每次调用都会得到一个从头开始的脚本源
func (s *Session) Source() events.Source {
	var sources []events.Source
	if s.script != nil {
		sources = append(sources, events.NewScriptSource(s.script))
	}
	if s.Receiver != nil {
		sources = append(sources, s.Receiver)
	}
	return events.Merge(sources...)
}

// Interval 两次走子之间的空闲时间
func (s *Session) Interval() float64 {
	if s.script == nil {
		return 0
	}
	return s.script.Interval
}

// InitialBoard 初始棋盘，脚本没有棋盘时返回 nil
func (s *Session) InitialBoard() logic.StoneSource {
	if s.script == nil {
		return nil
	}
	board, err := s.script.NewBoard()
	if err != nil || board == nil {
		return nil
	}
	return board
}

// Listener 把阶段变化广播给 websocket 客户端
func (s *Session) Listener() systems.PhaseListener {
	if s.Receiver == nil {
		return nil
	}
	return func(e systems.PhaseEvent) {
		s.Receiver.Notify(e.State.String(), e.Phase.String(), e.Explosion)
	}
}

// SceneOptions 构造棋盘场景参数
func (s *Session) SceneOptions(resources *game.ResourceManager) scenes.BoardSceneOptions {
	return scenes.BoardSceneOptions{
		Config:    s.Board,
		Resources: resources,
		Settings:  s.Settings,
		Cues:      s.Cues,
		Source:    s.Source(),
		Interval:  s.Interval(),
		Board:     s.InitialBoard(),
		Listener:  s.Listener(),
	}
}

// Close 保存设置并释放声卡
func (s *Session) Close() {
	if err := s.Settings.Save(); err != nil {
		log.Printf("[App] 保存设置失败: %v", err)
	}
	s.Cues.Cleanup()
}
