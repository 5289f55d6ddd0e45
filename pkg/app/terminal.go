package app

import (
	"fmt"

	"github.com/decker502/stonecrush/pkg/ecs"
	"github.com/decker502/stonecrush/pkg/logic"
	"github.com/decker502/stonecrush/pkg/systems"
	"github.com/decker502/stonecrush/pkg/terminal"
	"github.com/gdamore/tcell/v2"
)

// NewTerminalLoop 为已 Init 的 screen 搭建终端前端
func (s *Session) NewTerminalLoop(screen tcell.Screen) (*terminal.Loop, error) {
	layout := systems.GeometryFromConfig(s.Board)

	em := ecs.NewEntityManager()
	choreography := systems.NewChoreographySystem(em, layout, systems.EasingsFromConfig(s.Board.Easing))
	choreography.SetListener(systems.MultiListener(s.Cues.OnPhase, s.Listener()))

	board := s.InitialBoard()
	if board == nil {
		board = logic.PatternBoard(logic.BoardSize{Rows: s.Board.Rows, Cols: s.Board.Cols}, s.Board.Tokens())
	}
	if err := choreography.Reset(board); err != nil {
		return nil, fmt.Errorf("initial board: %w", err)
	}

	playback := systems.NewPlaybackSystem(choreography, s.Source(), s.Interval())
	renderer := terminal.NewRenderer(em, layout, s.Board.TokenColor)
	loop := terminal.NewLoop(screen, renderer, choreography, playback, s.Settings.GetSettings().AnimationSpeed)
	loop.SetSpeedListener(s.Settings.SetAnimationSpeed)
	return loop, nil
}
