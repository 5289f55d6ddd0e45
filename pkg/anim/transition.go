// Package anim 提供时间驱动的过渡动画原语及其组合
//
// 所有过渡都在同一个游戏循环线程上推进：调用方每帧调用 Update(dt)，
// 返回 true 表示过渡已完成。没有任何阻塞等待，
// "并行" 只是同时开始、各自计时、以最后一个完成为准。
package anim

import "math"

// Transition 单个可推进的过渡
//
// Start 在过渡开始时调用一次，负责把目标属性设置为起始值；
// Update 推进 dt 秒，返回是否完成。完成后继续调用 Update 必须是无操作。
type Transition interface {
	Start()
	Update(dt float64) bool
}

// overrunner 能报告完成帧剩余时间的过渡，Sequence 把剩余时间交给下一个子过渡
type overrunner interface {
	overrun() float64
}

// leftover 过渡完成后未用掉的时间，不支持的过渡视为 0
func leftover(t Transition) float64 {
	if o, ok := t.(overrunner); ok {
		return o.overrun()
	}
	return 0
}

// Parallel 并行组：所有子过渡同时开始，最后一个完成时整体完成
type Parallel struct {
	children []Transition
	done     []bool
	rest     float64
}

// NewParallel 创建并行组，nil 子过渡会被忽略
func NewParallel(children ...Transition) *Parallel {
	p := &Parallel{}
	for _, c := range children {
		p.Add(c)
	}
	return p
}

// Add 追加子过渡，必须在 Start 之前调用
func (p *Parallel) Add(t Transition) {
	if t == nil {
		return
	}
	p.children = append(p.children, t)
	p.done = append(p.done, false)
}

// Len 子过渡数量
func (p *Parallel) Len() int {
	return len(p.children)
}

// Start 启动所有子过渡
func (p *Parallel) Start() {
	for i, c := range p.children {
		p.done[i] = false
		c.Start()
	}
}

// Update 推进所有未完成的子过渡
// 整体完成时剩余时间取本帧完成的子过渡中最小的那个
func (p *Parallel) Update(dt float64) bool {
	all := true
	rest := dt
	for i, c := range p.children {
		if p.done[i] {
			continue
		}
		if c.Update(dt) {
			p.done[i] = true
			rest = math.Min(rest, leftover(c))
		} else {
			all = false
		}
	}
	if all {
		p.rest = rest
	}
	return all
}

func (p *Parallel) overrun() float64 {
	return p.rest
}

// Sequence 顺序组：前一个子过渡完成后才启动下一个
type Sequence struct {
	children []Transition
	index    int
	rest     float64
}

// NewSequence 创建顺序组，nil 子过渡会被忽略
func NewSequence(children ...Transition) *Sequence {
	s := &Sequence{}
	for _, c := range children {
		s.Add(c)
	}
	return s
}

// Add 追加子过渡，必须在 Start 之前调用
func (s *Sequence) Add(t Transition) {
	if t == nil {
		return
	}
	s.children = append(s.children, t)
}

// Len 子过渡数量
func (s *Sequence) Len() int {
	return len(s.children)
}

// Start 只启动第一个子过渡
func (s *Sequence) Start() {
	s.index = 0
	if len(s.children) > 0 {
		s.children[0].Start()
	}
}

// Update 推进当前子过渡；某个子过渡完成的那一帧会立即启动下一个，
// 并把本帧剩余的时间交给它，所以零时长的子过渡会在同一帧内依次完成
func (s *Sequence) Update(dt float64) bool {
	for s.index < len(s.children) {
		if !s.children[s.index].Update(dt) {
			return false
		}
		dt = leftover(s.children[s.index])
		s.index++
		if s.index < len(s.children) {
			s.children[s.index].Start()
		}
	}
	s.rest = dt
	return true
}

func (s *Sequence) overrun() float64 {
	return s.rest
}
