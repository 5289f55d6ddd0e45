// Package audio 为编排的各个阶段播放简短的合成提示音
//
// 所有声音都在运行时合成，没有音频文件。
// 声卡不可用时 CuePlayer 保持未初始化状态，所有 Play 调用都是无操作。
package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
)

// Cue 提示音种类
type Cue int

const (
	CueNone Cue = iota
	CueSwitch
	CueRevert
	CueRemove
	CueBonus
	CueDrop
)

func (c Cue) String() string {
	switch c {
	case CueSwitch:
		return "switch"
	case CueRevert:
		return "revert"
	case CueRemove:
		return "remove"
	case CueBonus:
		return "bonus"
	case CueDrop:
		return "drop"
	}
	return "none"
}

// 各提示音的时长
const (
	switchCueDuration = 120 * time.Millisecond
	revertCueDuration = 200 * time.Millisecond
	removeCueDuration = 150 * time.Millisecond
	bonusCueDuration  = 300 * time.Millisecond
	dropCueDuration   = 250 * time.Millisecond
	cueAttack         = 5 * time.Millisecond
	cueRelease        = 60 * time.Millisecond
)

// sweep 频率线性变化的正弦波
type sweep struct {
	from, to float64
	phase    float64
	position int
	total    int
	rate     beep.SampleRate
}

// NewSweep 创建扫频振荡器，duration 结束后流结束
func NewSweep(from, to float64, duration time.Duration, rate beep.SampleRate) beep.Streamer {
	return &sweep{from: from, to: to, total: rate.N(duration), rate: rate}
}

func (s *sweep) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if s.position >= s.total {
			return i, i > 0
		}
		p := float64(s.position) / float64(s.total)
		freq := s.from + (s.to-s.from)*p
		val := math.Sin(2 * math.Pi * s.phase)

		samples[i][0] = val
		samples[i][1] = val

		s.phase += freq / float64(s.rate)
		s.phase -= math.Floor(s.phase)
		s.position++
	}
	return len(samples), true
}

func (s *sweep) Err() error { return nil }

// envelope 起音/释音包络
type envelope struct {
	streamer beep.Streamer
	position int
	attack   int
	release  int
	total    int
}

// NewEnvelope 对流施加线性起音和释音，total 之后截断
func NewEnvelope(s beep.Streamer, duration, attack, release time.Duration, rate beep.SampleRate) beep.Streamer {
	return &envelope{
		streamer: s,
		attack:   rate.N(attack),
		release:  rate.N(release),
		total:    rate.N(duration),
	}
}

func (e *envelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = e.streamer.Stream(samples)
	for i := 0; i < n; i++ {
		if e.position >= e.total {
			return i, i > 0
		}
		vol := 1.0
		if e.attack > 0 && e.position < e.attack {
			vol = float64(e.position) / float64(e.attack)
		}
		if remaining := e.total - e.position; e.release > 0 && remaining < e.release {
			vol = math.Min(vol, float64(remaining)/float64(e.release))
		}
		samples[i][0] *= vol
		samples[i][1] *= vol
		e.position++
	}
	return n, ok
}

func (e *envelope) Err() error { return e.streamer.Err() }

// newVolume math.Log2(0) 是 -Inf，音量为 0 时直接静音
func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol), Silent: false}
}

func shaped(s beep.Streamer, d time.Duration, rate beep.SampleRate) beep.Streamer {
	return NewEnvelope(s, d, cueAttack, cueRelease, rate)
}

// CreateCue 合成一个提示音，CueNone 返回 nil
func CreateCue(c Cue, volume float64, rate beep.SampleRate) beep.Streamer {
	var s beep.Streamer
	switch c {
	case CueSwitch:
		s = shaped(NewSweep(440, 660, switchCueDuration, rate), switchCueDuration, rate)
	case CueRevert:
		s = shaped(NewSweep(520, 260, revertCueDuration, rate), revertCueDuration, rate)
	case CueRemove:
		s = shaped(NewSweep(900, 700, removeCueDuration, rate), removeCueDuration, rate)
	case CueBonus:
		s = bonusChime(rate)
	case CueDrop:
		s = shaped(NewSweep(330, 180, dropCueDuration, rate), dropCueDuration, rate)
	default:
		return nil
	}
	return newVolume(s, volume*0.3)
}

// bonusChime 基音加八度泛音
func bonusChime(rate beep.SampleRate) beep.Streamer {
	fund, err := generators.SineTone(rate, 880)
	if err != nil {
		return shaped(NewSweep(880, 880, bonusCueDuration, rate), bonusCueDuration, rate)
	}
	over, err := generators.SineTone(rate, 1760)
	if err != nil {
		return shaped(beep.Take(rate.N(bonusCueDuration), fund), bonusCueDuration, rate)
	}
	mixed := beep.Mix(
		newVolume(fund, 0.7),
		newVolume(over, 0.3),
	)
	return shaped(beep.Take(rate.N(bonusCueDuration), mixed), bonusCueDuration, rate)
}
