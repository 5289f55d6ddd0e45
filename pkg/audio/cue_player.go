package audio

import (
	"log"
	"sync"
	"time"

	"github.com/decker502/stonecrush/pkg/systems"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

const sampleRate = beep.SampleRate(44100)

// CueFor 阶段事件对应的提示音
func CueFor(e systems.PhaseEvent) Cue {
	switch e.State {
	case systems.StateSwitchPlaying:
		return CueSwitch
	case systems.StateRevertPlaying:
		return CueRevert
	case systems.StateCascadePlaying:
		switch e.Phase {
		case systems.PhaseRemoving:
			return CueRemove
		case systems.PhaseBonusAppearing:
			return CueBonus
		case systems.PhaseDropping:
			return CueDrop
		}
	}
	return CueNone
}

// CuePlayer 把阶段事件转换成提示音
type CuePlayer struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	initialized bool
	enabled     bool
	volume      float64
	played      []Cue // 最近播放的提示音，供调试与测试

	openSpeaker func(mixer *beep.Mixer) error
}

// openDefaultSpeaker 打开系统声卡并挂上混音器
func openDefaultSpeaker(mixer *beep.Mixer) error {
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return err
	}
	speaker.Play(mixer)
	return nil
}

// NewCuePlayer 创建提示音播放器，需要调用 Initialize 才会出声
func NewCuePlayer(enabled bool, volume float64) *CuePlayer {
	return &CuePlayer{
		mixer:       &beep.Mixer{},
		enabled:     enabled,
		volume:      volume,
		openSpeaker: openDefaultSpeaker,
	}
}

// Initialize 初始化声卡
// 失败不是致命错误，调用方记录日志后可以继续运行
func (p *CuePlayer) Initialize() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.initializeLocked()
}

func (p *CuePlayer) initializeLocked() error {
	if p.initialized {
		return nil
	}
	if err := p.openSpeaker(p.mixer); err != nil {
		return err
	}
	p.initialized = true
	return nil
}

// Cleanup 停止所有声音
func (p *CuePlayer) Cleanup() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return
	}
	speaker.Lock()
	p.mixer.Clear()
	speaker.Unlock()
	p.initialized = false
}

// SetEnabled 开关提示音
// 以静音启动的播放器在第一次打开时才初始化声卡
func (p *CuePlayer) SetEnabled(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = enabled
	if enabled {
		if err := p.initializeLocked(); err != nil {
			logInitError(err)
		}
	}
}

// SetVolume 设置音量 0.0 ~ 1.0
func (p *CuePlayer) SetVolume(volume float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = volume
}

// Play 播放一个提示音
// 返回是否真的交给了声卡
func (p *CuePlayer) Play(c Cue) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.enabled || c == CueNone {
		return false
	}
	p.played = append(p.played, c)
	if len(p.played) > 16 {
		p.played = p.played[1:]
	}
	if !p.initialized {
		return false
	}

	s := CreateCue(c, p.volume, sampleRate)
	if s == nil {
		return false
	}
	speaker.Lock()
	p.mixer.Add(s)
	speaker.Unlock()
	return true
}

// OnPhase 可直接作为 systems.PhaseListener 使用
func (p *CuePlayer) OnPhase(e systems.PhaseEvent) {
	if c := CueFor(e); c != CueNone {
		p.Play(c)
	}
}

// Played 最近请求过的提示音（含未初始化时被静默丢弃的）
func (p *CuePlayer) Played() []Cue {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Cue(nil), p.played...)
}

// logInitError 统一的初始化失败日志
func logInitError(err error) {
	log.Printf("[Audio] 声卡初始化失败，提示音关闭: %v", err)
}

// Start 创建并尝试初始化播放器；失败时返回一个静默的播放器
func Start(enabled bool, volume float64) *CuePlayer {
	p := NewCuePlayer(enabled, volume)
	if !enabled {
		return p
	}
	if err := p.Initialize(); err != nil {
		logInitError(err)
	}
	return p
}
