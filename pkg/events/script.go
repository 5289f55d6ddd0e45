package events

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/decker502/stonecrush/pkg/embedded"
	"github.com/decker502/stonecrush/pkg/logic"
	"gopkg.in/yaml.v3"
)

// Script 回放脚本
//
// 示例：
//
//	interval: 0.5
//	loop: false
//	board:
//	  - [ruby, jade, ...]
//	moves:
//	  - source: {row: 2, col: 2}
//	    target: {row: 2, col: 3}
type Script struct {
	Interval float64    `yaml:"interval"` // 两次走子之间的空闲时间（秒）
	Loop     bool       `yaml:"loop"`     // 播放完后从初始棋盘重新开始
	Board    [][]string `yaml:"board"`
	Moves    []MoveDTO  `yaml:"moves"`
}

// LoadScript 从 data/ 嵌入资源或磁盘加载脚本
func LoadScript(path string) (*Script, error) {
	var (
		data []byte
		err  error
	)
	if embedded.IsInitialized() && strings.HasPrefix(path, "data/") {
		data, err = embedded.ReadFile(path)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read script %s: %w", path, err)
	}

	script, err := ParseScript(data)
	if err != nil {
		return nil, fmt.Errorf("script %s: %w", path, err)
	}
	log.Printf("[Script] 加载脚本 %s: %d 步", path, len(script.Moves))
	return script, nil
}

// ParseScript 解析 yaml 脚本
func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse script YAML: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate 检查脚本本身的格式；走子事件的契约由播放器校验
func (s *Script) Validate() error {
	if s.Interval < 0 {
		return fmt.Errorf("interval must be >= 0, got %v", s.Interval)
	}
	if s.Loop && len(s.Board) == 0 {
		return fmt.Errorf("loop requires an initial board")
	}
	if len(s.Board) > 0 {
		if _, err := logic.NewBoard(s.Board); err != nil {
			return fmt.Errorf("invalid board: %w", err)
		}
	}
	return nil
}

// NewBoard 构造脚本的初始棋盘，没有棋盘时返回 nil
func (s *Script) NewBoard() (*logic.Board, error) {
	if len(s.Board) == 0 {
		return nil, nil
	}
	return logic.NewBoard(s.Board)
}

// ScriptSource 依次产出脚本的棋盘和走子
type ScriptSource struct {
	script    *Script
	next      int
	boardSent bool
}

// NewScriptSource 创建脚本事件源
func NewScriptSource(script *Script) *ScriptSource {
	return &ScriptSource{script: script}
}

// Interval 两次走子之间的空闲时间
func (s *ScriptSource) Interval() float64 {
	return s.script.Interval
}

// Done 脚本是否已经播放完（循环脚本永远不会完）
func (s *ScriptSource) Done() bool {
	return !s.script.Loop && s.boardSent && s.next >= len(s.script.Moves)
}

// Poll 返回下一条事件
func (s *ScriptSource) Poll() (Event, bool) {
	if !s.boardSent {
		s.boardSent = true
		if board, err := s.script.NewBoard(); err == nil && board != nil {
			return Event{Board: board}, true
		}
	}

	if s.next >= len(s.script.Moves) {
		if !s.script.Loop || len(s.script.Moves) == 0 {
			return Event{}, false
		}
		log.Printf("[ScriptSource] 脚本播放完毕，重新开始")
		s.next = 0
		s.boardSent = false
		return s.Poll()
	}

	move := s.script.Moves[s.next].ToAnimationData()
	s.next++
	return Event{Move: &move}, true
}
