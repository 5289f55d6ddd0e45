package events

import (
	"encoding/json"
	"fmt"

	"github.com/decker502/stonecrush/pkg/logic"
)

// 线上消息类型
const (
	MessageBoard = "board"
	MessageMove  = "move"
)

// Message websocket 上传输的 json 消息
type Message struct {
	Type  string     `json:"type"`
	Board [][]string `json:"board,omitempty"`
	Move  *MoveDTO   `json:"move,omitempty"`
}

// DecodeMessage 把一条 json 消息转换为事件
func DecodeMessage(data []byte) (Event, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Event{}, fmt.Errorf("invalid message: %w", err)
	}
	return msg.Event()
}

// Event 把消息转换为事件
func (m Message) Event() (Event, error) {
	switch m.Type {
	case MessageBoard:
		board, err := logic.NewBoard(m.Board)
		if err != nil {
			return Event{}, fmt.Errorf("board message: %w", err)
		}
		return Event{Board: board}, nil
	case MessageMove:
		if m.Move == nil {
			return Event{}, fmt.Errorf("move message without move")
		}
		data := m.Move.ToAnimationData()
		return Event{Move: &data}, nil
	}
	return Event{}, fmt.Errorf("unknown message type %q", m.Type)
}
