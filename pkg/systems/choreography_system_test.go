package systems

import (
	"errors"
	"reflect"
	"testing"

	"github.com/decker502/stonecrush/pkg/components"
	"github.com/decker502/stonecrush/pkg/entities"
	"github.com/decker502/stonecrush/pkg/logic"
)

// bonusEvent (0,6)<->(0,7) 交换后，第 1 列 (4,1)(3,1) 被消除，奖励石子从 (0,1) 落到 (4,1)
func bonusEvent() logic.AnimationData {
	return logic.AnimationData{
		SwitchSource: logic.Coords{Row: 0, Col: 6},
		SwitchTarget: logic.Coords{Row: 0, Col: 7},
		Explosions: []logic.ExplosionData{{
			ExplosionInfo: []logic.DropInfo{
				{Coords: logic.Coords{Row: 4, Col: 1}, HeightOffset: 2, FallingStoneTokens: []string{"A", "B"}},
			},
			BonusToken:  "star",
			BonusSource: coordsPtr(0, 1),
			BonusTarget: coordsPtr(4, 1),
		}},
	}
}

func TestRevertScenario(t *testing.T) {
	s, em := newTestChoreography(t)

	data := logic.AnimationData{
		SwitchSource: logic.Coords{Row: 2, Col: 2},
		SwitchTarget: logic.Coords{Row: 2, Col: 3},
	}
	if err := s.Play(data); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if s.State() != StateSwitchPlaying {
		t.Fatalf("state = %v, want switch", s.State())
	}

	// 正向交换开始时，原 (2,2) 的视图已绑定到 (2,3)，视觉上仍在左边一格
	token, off, _ := s.ViewAt(logic.Coords{Row: 2, Col: 3})
	if token != testToken(2, 2) || off.X != -testCell {
		t.Errorf("(2,3) = %q at x=%v, want %q at x=%v", token, off.X, testToken(2, 2), -testCell)
	}
	token, off, _ = s.ViewAt(logic.Coords{Row: 2, Col: 2})
	if token != testToken(2, 3) || off.X != testCell {
		t.Errorf("(2,2) = %q at x=%v, want %q at x=%v", token, off.X, testToken(2, 3), testCell)
	}

	n := stepUntil(t, s, func() bool { return s.State() == StateRevertPlaying }, 50)
	if n != 6 {
		t.Errorf("switch took %d ticks, want 6", n)
	}

	n = runToIdle(t, s)
	if n != 6 {
		t.Errorf("revert took %d ticks, want 6", n)
	}
	if got := tokenAt(t, s, 2, 2); got != testToken(2, 2) {
		t.Errorf("(2,2) = %q after revert", got)
	}
	if got := tokenAt(t, s, 2, 3); got != testToken(2, 3) {
		t.Errorf("(2,3) = %q after revert", got)
	}
	if s.LastError() != nil {
		t.Errorf("LastError = %v", s.LastError())
	}
	assertConsistent(t, s, em)
}

func TestListenerOrder(t *testing.T) {
	s, _ := newTestChoreography(t)

	var got []PhaseEvent
	s.SetListener(func(e PhaseEvent) { got = append(got, e) })

	if err := s.Play(bonusEvent()); err != nil {
		t.Fatalf("Play: %v", err)
	}
	runToIdle(t, s)

	want := []PhaseEvent{
		{State: StateSwitchPlaying, Phase: PhaseRemoving},
		{State: StateCascadePlaying, Phase: PhaseRemoving},
		{State: StateCascadePlaying, Phase: PhaseBonusAppearing},
		{State: StateCascadePlaying, Phase: PhaseDropping},
		{State: StateIdle},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("events = %+v\nwant %+v", got, want)
	}
}

func TestBonusCascadeTimeline(t *testing.T) {
	s, em := newTestChoreography(t)

	if err := s.Play(bonusEvent()); err != nil {
		t.Fatalf("Play: %v", err)
	}

	// 交换 6 帧
	stepUntil(t, s, func() bool { return s.State() == StateCascadePlaying }, 6)

	// 停顿期间被消除的视图还在
	if s.Phase() != PhaseRemoving {
		t.Fatalf("phase = %v, want removing", s.Phase())
	}
	if got := tokenAt(t, s, 4, 1); got != testToken(4, 1) {
		t.Errorf("(4,1) = %q during removal pause", got)
	}

	// 停顿 0.3 秒 → 2 帧后移除并开始奖励石子
	n := stepUntil(t, s, func() bool { return s.Phase() == PhaseBonusAppearing }, 10)
	if n != 2 {
		t.Errorf("removal pause took %d ticks, want 2", n)
	}
	if _, ok := s.Registry().Get(1, 3); ok {
		t.Error("(3,1) still bound once the bonus phase began")
	}
	if got := tokenAt(t, s, 4, 1); got != "star" {
		t.Errorf("(4,1) = %q, want star", got)
	}

	bonusID, _ := s.Registry().Get(1, 4)

	// 淡入 4 帧 + 移动 4 帧，之后才开始下落
	n = stepUntil(t, s, func() bool { return s.Phase() == PhaseDropping }, 20)
	if n != 8 {
		t.Errorf("bonus phase took %d ticks, want 8", n)
	}
	if a := opacityOf(em, bonusID).Alpha; a != 1 {
		t.Errorf("bonus alpha when drop starts = %v", a)
	}
	if off := offsetOf(em, bonusID); off.Y != 0 {
		t.Errorf("bonus offset when drop starts = %v", off.Y)
	}

	token, off, _ := s.ViewAt(logic.Coords{Row: 3, Col: 1})
	if token != "B" || off.Y != -testCell {
		t.Errorf("(3,1) = %q at y=%v, want B at y=%v", token, off.Y, -testCell)
	}

	n = runToIdle(t, s)
	if n != 6 {
		t.Errorf("drop took %d ticks, want 6", n)
	}
	if got := tokenAt(t, s, 0, 6); got != testToken(0, 7) {
		t.Errorf("switch not kept: (0,6) = %q", got)
	}
	assertConsistent(t, s, em)
}

func TestSequentialExplosions(t *testing.T) {
	s, em := newTestChoreography(t)

	data := logic.AnimationData{
		SwitchSource: logic.Coords{Row: 0, Col: 6},
		SwitchTarget: logic.Coords{Row: 0, Col: 7},
		Explosions: []logic.ExplosionData{
			{ExplosionInfo: []logic.DropInfo{
				{Coords: logic.Coords{Row: 4, Col: 1}, HeightOffset: 2, FallingStoneTokens: []string{"A", "B"}},
			}},
			{ExplosionInfo: []logic.DropInfo{
				{Coords: logic.Coords{Row: 4, Col: 1}, HeightOffset: 1, FallingStoneTokens: []string{"C"}},
			}},
		},
	}

	var indices []int
	s.SetListener(func(e PhaseEvent) {
		if e.State == StateCascadePlaying && e.Phase == PhaseRemoving {
			indices = append(indices, e.Explosion)
		}
	})

	if err := s.Play(data); err != nil {
		t.Fatalf("Play: %v", err)
	}

	// 第二个结构必须等第一个的下落完成后才开始
	stepUntil(t, s, func() bool { return s.ExplosionIndex() == 1 }, 50)
	if s.Phase() != PhaseRemoving {
		t.Errorf("second explosion entered in phase %v", s.Phase())
	}
	if _, off, _ := s.ViewAt(logic.Coords{Row: 4, Col: 1}); off.Y != 0 {
		t.Errorf("first drop still moving when second explosion began: y=%v", off.Y)
	}
	if got := tokenAt(t, s, 4, 1); got != "A" {
		t.Errorf("(4,1) = %q before second removal", got)
	}

	runToIdle(t, s)

	if !reflect.DeepEqual(indices, []int{0, 1}) {
		t.Errorf("explosion order = %v", indices)
	}
	if got := tokenAt(t, s, 4, 1); got != "C" {
		t.Errorf("(4,1) = %q, want C", got)
	}
	if got := tokenAt(t, s, 3, 1); got != "B" {
		t.Errorf("(3,1) = %q, want B", got)
	}
	assertConsistent(t, s, em)
}

func TestPlayBusy(t *testing.T) {
	s, _ := newTestChoreography(t)

	if err := s.Play(bonusEvent()); err != nil {
		t.Fatalf("Play: %v", err)
	}
	err := s.Play(logic.AnimationData{
		SwitchSource: logic.Coords{Row: 2, Col: 2},
		SwitchTarget: logic.Coords{Row: 2, Col: 3},
	})
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("second Play err = %v, want ErrBusy", err)
	}
	if err := s.Reset(newTestBoard(t)); !errors.Is(err, ErrBusy) {
		t.Errorf("Reset while playing err = %v, want ErrBusy", err)
	}

	runToIdle(t, s)
	if err := s.Play(logic.AnimationData{
		SwitchSource: logic.Coords{Row: 2, Col: 2},
		SwitchTarget: logic.Coords{Row: 2, Col: 3},
	}); err != nil {
		t.Errorf("Play after idle: %v", err)
	}
}

func TestPlayRejectsInvalidEvent(t *testing.T) {
	tests := []struct {
		name string
		data logic.AnimationData
	}{
		{
			name: "非相邻交换",
			data: logic.AnimationData{
				SwitchSource: logic.Coords{Row: 2, Col: 2},
				SwitchTarget: logic.Coords{Row: 4, Col: 2},
			},
		},
		{
			name: "token 数量不符",
			data: logic.AnimationData{
				SwitchSource: logic.Coords{Row: 2, Col: 2},
				SwitchTarget: logic.Coords{Row: 2, Col: 3},
				Explosions: []logic.ExplosionData{{ExplosionInfo: []logic.DropInfo{
					{Coords: logic.Coords{Row: 2, Col: 2}, HeightOffset: 2, FallingStoneTokens: []string{"A"}},
				}}},
			},
		},
		{
			name: "奖励落点不在清空区域",
			data: logic.AnimationData{
				SwitchSource: logic.Coords{Row: 2, Col: 2},
				SwitchTarget: logic.Coords{Row: 2, Col: 3},
				Explosions: []logic.ExplosionData{{
					ExplosionInfo: []logic.DropInfo{
						{Coords: logic.Coords{Row: 2, Col: 2}, HeightOffset: 1, FallingStoneTokens: []string{"A"}},
					},
					BonusToken:  "star",
					BonusSource: coordsPtr(0, 2),
					BonusTarget: coordsPtr(1, 2),
				}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, em := newTestChoreography(t)
			called := false
			s.SetListener(func(PhaseEvent) { called = true })

			err := s.Play(tt.data)
			if !errors.Is(err, logic.ErrContractViolation) {
				t.Fatalf("err = %v, want ErrContractViolation", err)
			}
			if !s.IsIdle() || called {
				t.Error("rejected event must not start a choreography")
			}
			s.Update(testTick)
			if got := tokenAt(t, s, 2, 2); got != testToken(2, 2) {
				t.Errorf("(2,2) = %q after rejected event", got)
			}
			assertConsistent(t, s, em)
		})
	}
}

func TestPlayMissingViewAborts(t *testing.T) {
	s, _ := newTestChoreography(t)
	s.Registry().Remove(2, 2)

	err := s.Play(logic.AnimationData{
		SwitchSource: logic.Coords{Row: 2, Col: 2},
		SwitchTarget: logic.Coords{Row: 2, Col: 3},
	})
	if !errors.Is(err, ErrMissingView) {
		t.Fatalf("err = %v, want ErrMissingView", err)
	}
	if !s.IsIdle() {
		t.Errorf("state = %v after abort", s.State())
	}
	if !errors.Is(s.LastError(), ErrMissingView) {
		t.Errorf("LastError = %v", s.LastError())
	}
}

// TestOwnershipViolationAborts 编排中途格子被占用：中止剩余编排，不重试
func TestOwnershipViolationAborts(t *testing.T) {
	s, em := newTestChoreography(t)

	var last PhaseEvent
	s.SetListener(func(e PhaseEvent) { last = e })

	if err := s.Play(bonusEvent()); err != nil {
		t.Fatalf("Play: %v", err)
	}
	stepUntil(t, s, func() bool { return s.Phase() == PhaseBonusAppearing }, 20)

	// 下落阶段需要的 (3,1) 被外部占用
	intruder := entities.NewStoneViewEntity(em, "intruder", false)
	if err := s.Registry().Place(intruder, 1, 3); err != nil {
		t.Fatalf("Place intruder: %v", err)
	}

	runToIdle(t, s)

	if !errors.Is(s.LastError(), ErrCellOccupied) {
		t.Fatalf("LastError = %v, want ErrCellOccupied", s.LastError())
	}
	if last.State != StateIdle {
		t.Errorf("last event = %+v, want idle", last)
	}
	if got := tokenAt(t, s, 3, 1); got != "intruder" {
		t.Errorf("(3,1) = %q", got)
	}

	// 之后仍可接受新事件，且新事件清除 LastError
	if err := s.Play(logic.AnimationData{
		SwitchSource: logic.Coords{Row: 6, Col: 6},
		SwitchTarget: logic.Coords{Row: 6, Col: 7},
	}); err != nil {
		t.Fatalf("Play after abort: %v", err)
	}
	if s.LastError() != nil {
		t.Errorf("LastError not cleared: %v", s.LastError())
	}
}

func TestTimeScale(t *testing.T) {
	tests := []struct {
		scale float64
		want  int
	}{
		{1, 12},
		{2, 6},
		{0, 12}, // 非法值按 1 处理
	}

	for _, tt := range tests {
		s, _ := newTestChoreography(t)
		s.SetTimeScale(tt.scale)
		if err := s.Play(logic.AnimationData{
			SwitchSource: logic.Coords{Row: 1, Col: 1},
			SwitchTarget: logic.Coords{Row: 2, Col: 1},
		}); err != nil {
			t.Fatalf("Play: %v", err)
		}
		if n := runToIdle(t, s); n != tt.want {
			t.Errorf("scale %v: revert round trip took %d ticks, want %d", tt.scale, n, tt.want)
		}
	}
}

func TestResetSizeMismatch(t *testing.T) {
	s, _ := newTestChoreography(t)

	small, err := logic.NewBoard([][]string{{"a", "b"}, {"c", "d"}})
	if err != nil {
		t.Fatalf("NewBoard: %v", err)
	}
	if err := s.Reset(small); !errors.Is(err, logic.ErrContractViolation) {
		t.Errorf("err = %v, want ErrContractViolation", err)
	}
	if got := tokenAt(t, s, 0, 0); got != testToken(0, 0) {
		t.Errorf("board changed by rejected reset: %q", got)
	}
}

func TestResetReplacesViews(t *testing.T) {
	s, em := newTestChoreography(t)

	if err := s.Reset(newTestBoard(t)); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	assertConsistent(t, s, em)

	id, _ := s.Registry().Get(5, 3)
	size, ok := em.GetComponent(id, reflect.TypeOf(&components.SizeComponent{}))
	if !ok {
		t.Fatal("view has no size")
	}
	if sz := size.(*components.SizeComponent); sz.Width != testCell || sz.Height != testCell {
		t.Errorf("size = %+v", sz)
	}
}

func TestMultiListener(t *testing.T) {
	var order []string
	l := MultiListener(
		func(PhaseEvent) { order = append(order, "a") },
		nil,
		func(PhaseEvent) { order = append(order, "b") },
	)
	l(PhaseEvent{})
	if !reflect.DeepEqual(order, []string{"a", "b"}) {
		t.Errorf("order = %v", order)
	}
}
