package anim

import (
	"math"

	"github.com/decker502/stonecrush/pkg/components"
	"github.com/decker502/stonecrush/pkg/utils"
)

// clock 所有计时类过渡共享的进度计算
type clock struct {
	duration float64
	elapsed  float64
}

func (c *clock) reset() {
	c.elapsed = 0
}

// advance 推进时间并返回 [0,1] 的进度
func (c *clock) advance(dt float64) float64 {
	c.elapsed += dt
	if c.duration <= 0 {
		return 1
	}
	return utils.Clamp01(c.elapsed / c.duration)
}

// overrun 完成那一帧超出 duration 的时间
func (c *clock) overrun() float64 {
	if c.duration <= 0 {
		return c.elapsed
	}
	return math.Max(0, c.elapsed-c.duration)
}

// Slide 把视图偏移从 From 平移到 To
type Slide struct {
	clock
	target       *components.OffsetComponent
	fromX, fromY float64
	toX, toY     float64
	ease         utils.EasingFunc
	finished     bool
}

// NewSlide 创建平移过渡，duration 单位为秒
func NewSlide(target *components.OffsetComponent, fromX, fromY, toX, toY, duration float64, ease utils.EasingFunc) *Slide {
	if ease == nil {
		ease = utils.EaseLinear
	}
	return &Slide{
		clock:  clock{duration: duration},
		target: target,
		fromX:  fromX, fromY: fromY,
		toX: toX, toY: toY,
		ease: ease,
	}
}

// NewDropIn 从偏移 (fromX, fromY) 滑回格子原位的常用写法
func NewDropIn(target *components.OffsetComponent, fromX, fromY, duration float64, ease utils.EasingFunc) *Slide {
	return NewSlide(target, fromX, fromY, 0, 0, duration, ease)
}

// Start 把偏移置为起点
func (s *Slide) Start() {
	s.reset()
	s.finished = false
	s.target.X = s.fromX
	s.target.Y = s.fromY
}

// Update 推进平移
func (s *Slide) Update(dt float64) bool {
	if s.finished {
		return true
	}
	p := s.advance(dt)
	e := s.ease(p)
	s.target.X = utils.Lerp(s.fromX, s.toX, e)
	s.target.Y = utils.Lerp(s.fromY, s.toY, e)
	if p >= 1 {
		// 终点精确落位，避免浮点残留
		s.target.X = s.toX
		s.target.Y = s.toY
		s.finished = true
	}
	return s.finished
}

// Fade 把视图透明度从 From 过渡到 To
type Fade struct {
	clock
	target   *components.OpacityComponent
	from, to float64
	ease     utils.EasingFunc
	finished bool
}

// NewFade 创建透明度过渡
func NewFade(target *components.OpacityComponent, from, to, duration float64, ease utils.EasingFunc) *Fade {
	if ease == nil {
		ease = utils.EaseLinear
	}
	return &Fade{
		clock:  clock{duration: duration},
		target: target,
		from:   from,
		to:     to,
		ease:   ease,
	}
}

// Start 把透明度置为起点
func (f *Fade) Start() {
	f.reset()
	f.finished = false
	f.target.Alpha = f.from
}

// Update 推进透明度
func (f *Fade) Update(dt float64) bool {
	if f.finished {
		return true
	}
	p := f.advance(dt)
	f.target.Alpha = utils.Lerp(f.from, f.to, f.ease(p))
	if p >= 1 {
		f.target.Alpha = f.to
		f.finished = true
	}
	return f.finished
}

// Pause 纯等待
type Pause struct {
	clock
}

// NewPause 创建等待过渡
func NewPause(duration float64) *Pause {
	return &Pause{clock: clock{duration: duration}}
}

// Start 重置计时
func (p *Pause) Start() {
	p.reset()
}

// Update 推进计时
func (p *Pause) Update(dt float64) bool {
	return p.advance(dt) >= 1
}
