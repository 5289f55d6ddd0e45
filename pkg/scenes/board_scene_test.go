package scenes

import (
	"strings"
	"testing"

	"github.com/decker502/stonecrush/pkg/config"
	"github.com/decker502/stonecrush/pkg/events"
	"github.com/decker502/stonecrush/pkg/game"
	"github.com/decker502/stonecrush/pkg/logic"
	"github.com/decker502/stonecrush/pkg/systems"
	"github.com/hajimehoshi/ebiten/v2"
)

func smallConfig() *config.BoardConfig {
	cfg := config.DefaultBoardConfig()
	cfg.Rows, cfg.Cols = 4, 4
	cfg.Palette = map[string]string{"ruby": "#ff0000", "jade": "#00a86b"}
	cfg.Easing = config.EasingConfig{}
	return cfg
}

type sliceSource struct{ events []events.Event }

func (s *sliceSource) Poll() (events.Event, bool) {
	if len(s.events) == 0 {
		return events.Event{}, false
	}
	e := s.events[0]
	s.events = s.events[1:]
	return e, true
}

func TestNewBoardSceneGeneratesBoard(t *testing.T) {
	s, err := NewBoardScene(BoardSceneOptions{Config: smallConfig()})
	if err != nil {
		t.Fatalf("NewBoardScene: %v", err)
	}
	token, _, ok := s.Choreography().ViewAt(logic.Coords{Row: 0, Col: 0})
	if !ok || token != "jade" {
		t.Errorf("(0,0) = %q, want jade (first sorted palette token)", token)
	}
	if s.Choreography().Registry().Len() != 16 {
		t.Errorf("registry holds %d views", s.Choreography().Registry().Len())
	}
}

func TestNewBoardSceneRejectsMismatchedBoard(t *testing.T) {
	board, _ := logic.NewBoard([][]string{{"a"}})
	if _, err := NewBoardScene(BoardSceneOptions{Config: smallConfig(), Board: board}); err == nil {
		t.Error("mismatched initial board should fail")
	}
}

func TestBoardScenePlaysEvents(t *testing.T) {
	move := logic.AnimationData{
		SwitchSource: logic.Coords{Row: 0, Col: 0},
		SwitchTarget: logic.Coords{Row: 0, Col: 1},
	}
	var seen []systems.ChoreographyState
	s, err := NewBoardScene(BoardSceneOptions{
		Config:   smallConfig(),
		Settings: game.NewSettingsManager(nil),
		Source:   &sliceSource{events: []events.Event{{Move: &move}}},
		Listener: func(e systems.PhaseEvent) { seen = append(seen, e.State) },
	})
	if err != nil {
		t.Fatalf("NewBoardScene: %v", err)
	}

	s.Step(0.25)
	if s.Choreography().State() != systems.StateSwitchPlaying {
		t.Fatalf("state = %v", s.Choreography().State())
	}
	if !strings.HasPrefix(s.hudLines()[0], "switch") {
		t.Errorf("hud = %q", s.hudLines()[0])
	}
	for i := 0; i < 20; i++ {
		s.Step(0.25)
	}
	if !s.Choreography().IsIdle() {
		t.Errorf("state = %v after revert", s.Choreography().State())
	}
	want := []systems.ChoreographyState{systems.StateSwitchPlaying, systems.StateRevertPlaying, systems.StateIdle}
	if len(seen) != len(want) {
		t.Fatalf("listener saw %v", seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("listener saw %v, want %v", seen, want)
		}
	}

	s.Draw(ebiten.NewImage(400, 400))
}

func TestBoardSceneControls(t *testing.T) {
	settings := game.NewSettingsManager(nil)
	s, err := NewBoardScene(BoardSceneOptions{Config: smallConfig(), Settings: settings})
	if err != nil {
		t.Fatalf("NewBoardScene: %v", err)
	}

	s.ScaleSpeed(2)
	if settings.GetSettings().AnimationSpeed != 2 {
		t.Errorf("speed = %v", settings.GetSettings().AnimationSpeed)
	}
	s.ToggleSound()
	if settings.GetSettings().SoundEnabled {
		t.Error("sound should be off")
	}
	s.TogglePause()
	if !strings.Contains(s.hudLines()[0], "(paused)") {
		t.Errorf("hud = %q", s.hudLines()[0])
	}
	if !s.SaveOnExit() {
		t.Error("SaveOnExit in degraded mode should succeed")
	}
}

func TestBoardSceneHover(t *testing.T) {
	cfg := smallConfig()
	s, err := NewBoardScene(BoardSceneOptions{Config: cfg})
	if err != nil {
		t.Fatalf("NewBoardScene: %v", err)
	}

	// (row 1, col 1) 的中心
	s.Hover(int(cfg.OriginX+cfg.CellWidth*1.5), int(cfg.OriginY+cfg.CellHeight*1.5))
	lines := s.hudLines()
	if got := lines[len(lines)-1]; got != "(1,1) ruby" {
		t.Errorf("hover line = %q, want (1,1) ruby", got)
	}

	s.Hover(0, 0)
	if len(s.hudLines()) != 1 {
		t.Errorf("outside the board there is no hover line: %v", s.hudLines())
	}
}
