package systems

import (
	"log"

	"github.com/decker502/stonecrush/pkg/events"
)

// PlaybackSystem 把事件源接到编排系统上
//
// 只有编排空闲且空闲时间达到 interval 后才从事件源取下一条事件，
// 所以同一时刻最多一个事件在播放。事件被拒绝只记录日志，继续取下一条。
type PlaybackSystem struct {
	choreography *ChoreographySystem
	source       events.Source
	interval     float64
	idleTime     float64
	paused       bool

	played   int
	rejected int
	lastErr  error
}

// NewPlaybackSystem 创建播放系统，source 可以为 nil（只显示初始棋盘）
func NewPlaybackSystem(choreography *ChoreographySystem, source events.Source, interval float64) *PlaybackSystem {
	return &PlaybackSystem{
		choreography: choreography,
		source:       source,
		interval:     interval,
		idleTime:     interval, // 第一条事件不等待
	}
}

// SetPaused 暂停/继续：暂停时正在播放的事件仍会播完，但不再取新事件
func (s *PlaybackSystem) SetPaused(paused bool) {
	s.paused = paused
}

// Paused 是否暂停
func (s *PlaybackSystem) Paused() bool {
	return s.paused
}

// Played 已开始播放的走子数
func (s *PlaybackSystem) Played() int {
	return s.played
}

// Rejected 被拒绝的事件数
func (s *PlaybackSystem) Rejected() int {
	return s.rejected
}

// LastError 最近一次被拒绝或中止的原因
func (s *PlaybackSystem) LastError() error {
	if err := s.choreography.LastError(); err != nil {
		return err
	}
	return s.lastErr
}

// Update 先取事件再推进编排
func (s *PlaybackSystem) Update(deltaTime float64) {
	if s.choreography.IsIdle() {
		s.idleTime += deltaTime
		if !s.paused && s.source != nil && s.idleTime >= s.interval {
			if e, ok := s.source.Poll(); ok {
				s.apply(e)
			}
		}
	}
	s.choreography.Update(deltaTime)
}

func (s *PlaybackSystem) apply(e events.Event) {
	switch {
	case e.Board != nil:
		if err := s.choreography.Reset(e.Board); err != nil {
			s.reject(err)
			return
		}
		s.idleTime = s.interval
	case e.Move != nil:
		if err := s.choreography.Play(*e.Move); err != nil {
			s.reject(err)
			return
		}
		s.played++
		s.idleTime = 0
	}
}

func (s *PlaybackSystem) reject(err error) {
	s.rejected++
	s.lastErr = err
	log.Printf("[PlaybackSystem] 事件被拒绝: %v", err)
}
