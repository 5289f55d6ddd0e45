package events

import "github.com/decker502/stonecrush/pkg/logic"

// Event 事件源交给播放器的一条消息
// Board 和 Move 只有一个非空：Board 表示重建整个棋盘，Move 表示播放一次走子
type Event struct {
	Board *logic.Board
	Move  *logic.AnimationData
}

// Source 非阻塞的事件源
// 播放器只在编排空闲时调用 Poll，所以同一时刻最多一个事件在播放
type Source interface {
	Poll() (Event, bool)
}

// multiSource 按顺序轮询多个事件源
type multiSource []Source

// Merge 合并多个事件源；前面的源有事件时优先
func Merge(sources ...Source) Source {
	var ms multiSource
	for _, s := range sources {
		if s != nil {
			ms = append(ms, s)
		}
	}
	return ms
}

func (ms multiSource) Poll() (Event, bool) {
	for _, s := range ms {
		if e, ok := s.Poll(); ok {
			return e, true
		}
	}
	return Event{}, false
}
