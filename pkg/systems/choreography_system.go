package systems

import (
	"errors"
	"fmt"
	"log"

	"github.com/decker502/stonecrush/pkg/anim"
	"github.com/decker502/stonecrush/pkg/components"
	"github.com/decker502/stonecrush/pkg/config"
	"github.com/decker502/stonecrush/pkg/ecs"
	"github.com/decker502/stonecrush/pkg/entities"
	"github.com/decker502/stonecrush/pkg/logic"
)

// ErrBusy 上一次走子的动画尚未播放完
var ErrBusy = errors.New("choreography already playing")

// ChoreographyState 编排状态
type ChoreographyState int

const (
	StateIdle ChoreographyState = iota
	StateSwitchPlaying
	StateRevertPlaying
	StateCascadePlaying
)

func (s ChoreographyState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSwitchPlaying:
		return "switch"
	case StateRevertPlaying:
		return "revert"
	case StateCascadePlaying:
		return "cascade"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// CascadePhase 单个结构内部的阶段
type CascadePhase int

const (
	PhaseRemoving CascadePhase = iota
	PhaseBonusAppearing
	PhaseDropping
)

func (p CascadePhase) String() string {
	switch p {
	case PhaseRemoving:
		return "removing"
	case PhaseBonusAppearing:
		return "bonus"
	case PhaseDropping:
		return "dropping"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// PhaseEvent 每次进入新状态/阶段时发出
// Phase 和 Explosion 仅在 StateCascadePlaying 时有意义
type PhaseEvent struct {
	State     ChoreographyState
	Phase     CascadePhase
	Explosion int
}

// PhaseListener 阶段通知回调（音效等）
type PhaseListener func(PhaseEvent)

// MultiListener 依次通知多个回调，nil 被忽略
func MultiListener(listeners ...PhaseListener) PhaseListener {
	var ls []PhaseListener
	for _, l := range listeners {
		if l != nil {
			ls = append(ls, l)
		}
	}
	return func(e PhaseEvent) {
		for _, l := range ls {
			l(e)
		}
	}
}

// ChoreographySystem 把一次走子的 AnimationData 编排成按序播放的过渡
//
// 状态机：
//
//	Idle → SwitchPlaying → RevertPlaying → Idle                      （无消除）
//	Idle → SwitchPlaying → Cascade(0: removing→bonus→dropping) … Cascade(n-1) → Idle
//
// 状态推进只由当前过渡完成触发，没有嵌套回调。一次只处理一个事件。
type ChoreographySystem struct {
	entityManager *ecs.EntityManager
	registry      *ViewRegistry
	layout        LayoutFunc
	switcher      *SwitchChoreographer
	cascade       *CascadeChoreographer

	state     ChoreographyState
	phase     CascadePhase
	index     int
	event     *logic.AnimationData
	current   anim.Transition
	listener  PhaseListener
	lastErr   error
	timeScale float64
}

// NewChoreographySystem 创建编排系统及其注册表、交换与消除编排器
func NewChoreographySystem(em *ecs.EntityManager, layout LayoutFunc, easings Easings) *ChoreographySystem {
	registry := NewViewRegistry(em, layout)
	return &ChoreographySystem{
		entityManager: em,
		registry:      registry,
		layout:        layout,
		switcher:      NewSwitchChoreographer(em, registry, layout, easings),
		cascade:       NewCascadeChoreographer(em, registry, layout, easings),
		state:         StateIdle,
		timeScale:     1,
	}
}

// Registry 返回视图注册表
func (s *ChoreographySystem) Registry() *ViewRegistry {
	return s.registry
}

// SetListener 设置阶段通知回调
func (s *ChoreographySystem) SetListener(l PhaseListener) {
	s.listener = l
}

// SetTimeScale 动画速度倍率，<=0 视为 1
func (s *ChoreographySystem) SetTimeScale(scale float64) {
	if scale <= 0 {
		scale = 1
	}
	s.timeScale = scale
}

// State 当前状态
func (s *ChoreographySystem) State() ChoreographyState {
	return s.state
}

// Phase 当前结构的阶段（仅 StateCascadePlaying 有效）
func (s *ChoreographySystem) Phase() CascadePhase {
	return s.phase
}

// ExplosionIndex 当前处理的结构序号（仅 StateCascadePlaying 有效）
func (s *ChoreographySystem) ExplosionIndex() int {
	return s.index
}

// IsIdle 是否可以接受下一个事件
func (s *ChoreographySystem) IsIdle() bool {
	return s.state == StateIdle
}

// LastError 上一个被中止事件的错误
func (s *ChoreographySystem) LastError() error {
	return s.lastErr
}

// Reset 按逻辑层当前棋盘重建整个视图网格
// 只能在 Idle 时调用
func (s *ChoreographySystem) Reset(src logic.StoneSource) error {
	if !s.IsIdle() {
		return ErrBusy
	}
	size := boardSize(s.layout())
	if src.Size() != size {
		return fmt.Errorf("%w: board %dx%d does not match layout %dx%d",
			logic.ErrContractViolation, src.Size().Rows, src.Size().Cols, size.Rows, size.Cols)
	}

	for _, id := range s.registry.Clear() {
		s.entityManager.DestroyEntity(id)
	}
	s.entityManager.RemoveMarkedEntities()

	for row := 0; row < size.Rows; row++ {
		for col := 0; col < size.Cols; col++ {
			token := src.TokenAt(logic.Coords{Row: row, Col: col})
			id := entities.NewStoneViewEntity(s.entityManager, token, false)
			if err := s.registry.Place(id, col, row); err != nil {
				return err
			}
		}
	}
	log.Printf("[ChoreographySystem] 初始棋盘 %dx%d 已生成", size.Rows, size.Cols)
	return nil
}

// Play 开始播放一次走子的动画
//
// 非 Idle 时返回 ErrBusy；事件不满足契约时返回包装了 logic.ErrContractViolation 的错误，
// 视图网格保持不变。
func (s *ChoreographySystem) Play(data logic.AnimationData) error {
	if !s.IsIdle() {
		return ErrBusy
	}
	if err := data.Validate(boardSize(s.layout())); err != nil {
		log.Printf("[ChoreographySystem] 拒绝事件: %v", err)
		return err
	}

	s.event = &data
	s.lastErr = nil
	log.Printf("[ChoreographySystem] 开始播放: 交换 %v <-> %v，%d 个结构",
		data.SwitchSource, data.SwitchTarget, len(data.Explosions))

	tr, err := s.switcher.Switch(data.SwitchSource, data.SwitchTarget)
	if err != nil {
		s.abort(err)
		return err
	}
	s.enter(StateSwitchPlaying, tr)
	return nil
}

// Update 推进当前过渡；过渡完成时进入下一状态
func (s *ChoreographySystem) Update(deltaTime float64) {
	defer s.entityManager.RemoveMarkedEntities()

	if s.state == StateIdle || s.current == nil {
		return
	}
	if !s.current.Update(deltaTime * s.timeScale) {
		return
	}
	if err := s.advance(); err != nil {
		s.abort(err)
	}
}

// advance 当前过渡完成后的状态转移
func (s *ChoreographySystem) advance() error {
	switch s.state {
	case StateSwitchPlaying:
		if s.event.IsRevert() {
			tr, err := s.switcher.Switch(s.event.SwitchTarget, s.event.SwitchSource)
			if err != nil {
				return err
			}
			s.enter(StateRevertPlaying, tr)
			return nil
		}
		s.enterRemoving(0)
		return nil

	case StateRevertPlaying:
		s.finish()
		return nil

	case StateCascadePlaying:
		explosion := s.event.Explosions[s.index]
		switch s.phase {
		case PhaseRemoving:
			s.cascade.Remove(explosion)
			tr, err := s.cascade.BonusAppear(explosion)
			if err != nil {
				return err
			}
			if tr != nil {
				s.phase = PhaseBonusAppearing
				s.enter(StateCascadePlaying, tr)
				return nil
			}
			return s.enterDropping(explosion)

		case PhaseBonusAppearing:
			return s.enterDropping(explosion)

		case PhaseDropping:
			if s.index+1 < len(s.event.Explosions) {
				s.enterRemoving(s.index + 1)
				return nil
			}
			s.finish()
			return nil
		}
	}
	return fmt.Errorf("unexpected completion in state %v", s.state)
}

func (s *ChoreographySystem) enterRemoving(index int) {
	s.index = index
	s.phase = PhaseRemoving
	s.enter(StateCascadePlaying, s.cascade.RemovalPause())
}

func (s *ChoreographySystem) enterDropping(explosion logic.ExplosionData) error {
	tr, _, err := s.cascade.Drop(explosion)
	if err != nil {
		return err
	}
	s.phase = PhaseDropping
	s.enter(StateCascadePlaying, tr)
	return nil
}

// enter 切换状态并启动新过渡
func (s *ChoreographySystem) enter(state ChoreographyState, tr anim.Transition) {
	s.state = state
	s.current = tr
	tr.Start()
	if s.listener != nil {
		s.listener(PhaseEvent{State: s.state, Phase: s.phase, Explosion: s.index})
	}
}

func (s *ChoreographySystem) finish() {
	log.Printf("[ChoreographySystem] 播放完成")
	s.reset()
	if s.listener != nil {
		s.listener(PhaseEvent{State: StateIdle})
	}
}

// abort 中止当前事件的剩余编排，不重试
func (s *ChoreographySystem) abort(err error) {
	log.Printf("[ChoreographySystem] 中止编排（%v/%v #%d）: %v", s.state, s.phase, s.index, err)
	s.lastErr = err
	s.reset()
	if s.listener != nil {
		s.listener(PhaseEvent{State: StateIdle})
	}
}

func (s *ChoreographySystem) reset() {
	s.state = StateIdle
	s.phase = PhaseRemoving
	s.index = 0
	s.event = nil
	s.current = nil
}

// ViewAt 便捷查询：格子上视图的 token 与偏移
func (s *ChoreographySystem) ViewAt(c logic.Coords) (string, components.OffsetComponent, bool) {
	id, ok := s.registry.Get(c.Col, c.Row)
	if !ok {
		return "", components.OffsetComponent{}, false
	}
	view, ok := ecs.GetComponent[*components.StoneViewComponent](s.entityManager, id)
	if !ok {
		return "", components.OffsetComponent{}, false
	}
	return view.Token, *offsetOf(s.entityManager, id), true
}

// GeometryFromConfig 便于调用方从配置构造 LayoutFunc
func GeometryFromConfig(cfg *config.BoardConfig) LayoutFunc {
	return func() config.Geometry { return cfg.Geometry() }
}
