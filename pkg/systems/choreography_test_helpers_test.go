package systems

import (
	"fmt"
	"testing"

	"github.com/decker502/stonecrush/pkg/config"
	"github.com/decker502/stonecrush/pkg/ecs"
	"github.com/decker502/stonecrush/pkg/logic"
	"github.com/decker502/stonecrush/pkg/utils"
)

// 测试用几何：8x8，每格 64 像素
const (
	testRows = 8
	testCols = 8
	testCell = 64.0
	testTick = 0.25 // 固定步长，所有设计时长都是它的整数倍或不超过两步
)

var testSize = logic.BoardSize{Rows: testRows, Cols: testCols}

func testLayout() config.Geometry {
	return config.NewGeometry(testRows, testCols, testCell, testCell)
}

func linearEasings() Easings {
	return Easings{Switch: utils.EaseLinear, Bonus: utils.EaseLinear, Drop: utils.EaseLinear}
}

// testToken 初始棋盘上每个格子的 token 形如 "r4c1"
func testToken(row, col int) string {
	return fmt.Sprintf("r%dc%d", row, col)
}

func newTestBoard(t *testing.T) *logic.Board {
	t.Helper()
	rows := make([][]string, testRows)
	for r := range rows {
		rows[r] = make([]string, testCols)
		for c := range rows[r] {
			rows[r][c] = testToken(r, c)
		}
	}
	b, err := logic.NewBoard(rows)
	if err != nil {
		t.Fatalf("NewBoard: %v", err)
	}
	return b
}

// newTestChoreography 创建编排系统并生成初始棋盘
func newTestChoreography(t *testing.T) (*ChoreographySystem, *ecs.EntityManager) {
	t.Helper()
	em := ecs.NewEntityManager()
	s := NewChoreographySystem(em, testLayout, linearEasings())
	if err := s.Reset(newTestBoard(t)); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	return s, em
}

// stepUntil 以 testTick 推进，直到 cond 成立；返回所用帧数
func stepUntil(t *testing.T, s *ChoreographySystem, cond func() bool, limit int) int {
	t.Helper()
	for i := 1; i <= limit; i++ {
		s.Update(testTick)
		if cond() {
			return i
		}
	}
	t.Fatalf("condition not reached after %d ticks (state=%v phase=%v)", limit, s.State(), s.Phase())
	return -1
}

func runToIdle(t *testing.T, s *ChoreographySystem) int {
	t.Helper()
	return stepUntil(t, s, s.IsIdle, 200)
}

// assertConsistent 每个格子恰好一个视图，且所有偏移归零、完全不透明
func assertConsistent(t *testing.T, s *ChoreographySystem, em *ecs.EntityManager) {
	t.Helper()
	if missing := s.Registry().MissingCells(testSize); len(missing) != 0 {
		t.Errorf("cells without a view: %v", missing)
	}
	if s.Registry().Len() != testRows*testCols {
		t.Errorf("registry holds %d views, want %d", s.Registry().Len(), testRows*testCols)
	}
	if em.Count() != testRows*testCols {
		t.Errorf("entity manager holds %d entities, want %d", em.Count(), testRows*testCols)
	}
	for row := 0; row < testRows; row++ {
		for col := 0; col < testCols; col++ {
			c := logic.Coords{Row: row, Col: col}
			_, off, ok := s.ViewAt(c)
			if !ok {
				continue
			}
			if off.X != 0 || off.Y != 0 {
				t.Errorf("view at %v has residual offset (%v, %v)", c, off.X, off.Y)
			}
			id, _ := s.Registry().Get(col, row)
			if op := opacityOf(em, id); op.Alpha != 1 {
				t.Errorf("view at %v has alpha %v", c, op.Alpha)
			}
		}
	}
}

func tokenAt(t *testing.T, s *ChoreographySystem, row, col int) string {
	t.Helper()
	token, _, ok := s.ViewAt(logic.Coords{Row: row, Col: col})
	if !ok {
		t.Fatalf("no view at (%d,%d)", row, col)
	}
	return token
}

func coordsPtr(row, col int) *logic.Coords {
	return &logic.Coords{Row: row, Col: col}
}
