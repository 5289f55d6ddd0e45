package logic

import (
	"errors"
	"fmt"
)

// ErrContractViolation 表示逻辑层交来的事件不满足契约
// 这意味着逻辑棋盘与视图棋盘已经不同步，是上游缺陷，不能静默容忍
var ErrContractViolation = errors.New("animation contract violation")

func violation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrContractViolation, fmt.Sprintf(format, args...))
}

// ValidateSwitch 检查交换的两个格子在棋盘内且四邻接
func ValidateSwitch(size BoardSize, source, target Coords) error {
	if !size.Contains(source) {
		return violation("switch source %v out of board %dx%d", source, size.Rows, size.Cols)
	}
	if !size.Contains(target) {
		return violation("switch target %v out of board %dx%d", target, size.Rows, size.Cols)
	}
	if !Adjacent(source, target) {
		return violation("switch %v -> %v is not 4-adjacent", source, target)
	}
	return nil
}

// Validate 检查整个事件的契约
func (a AnimationData) Validate(size BoardSize) error {
	if err := ValidateSwitch(size, a.SwitchSource, a.SwitchTarget); err != nil {
		return err
	}
	for i, e := range a.Explosions {
		if err := e.Validate(size); err != nil {
			return fmt.Errorf("explosion %d: %w", i, err)
		}
	}
	return nil
}

// Validate 检查单个结构的契约
func (e ExplosionData) Validate(size BoardSize) error {
	if len(e.ExplosionInfo) == 0 {
		return violation("explosion without drop info")
	}

	columns := make(map[int]bool, len(e.ExplosionInfo))
	for _, d := range e.ExplosionInfo {
		if !size.Contains(d.Coords) {
			return violation("drop coords %v out of board %dx%d", d.Coords, size.Rows, size.Cols)
		}
		if d.HeightOffset < 1 {
			return violation("drop %v heightOffset %d < 1", d.Coords, d.HeightOffset)
		}
		if d.HeightOffset != len(d.FallingStoneTokens) {
			return violation("drop %v heightOffset %d != %d falling tokens",
				d.Coords, d.HeightOffset, len(d.FallingStoneTokens))
		}
		if d.TopRow() < 0 {
			return violation("drop %v evacuates %d rows beyond the top row", d.Coords, d.HeightOffset)
		}
		if columns[d.Coords.Col] {
			return violation("column %d listed twice", d.Coords.Col)
		}
		columns[d.Coords.Col] = true
	}

	if (e.BonusSource == nil) != (e.BonusTarget == nil) {
		return violation("bonus source and target must be present together")
	}
	if !e.HasBonus() {
		return nil
	}
	if e.BonusToken == "" {
		return violation("bonus stone without token")
	}
	if !size.Contains(*e.BonusSource) || !size.Contains(*e.BonusTarget) {
		return violation("bonus %v -> %v out of board", *e.BonusSource, *e.BonusTarget)
	}
	if e.BonusSource.Col != e.BonusTarget.Col {
		return violation("bonus %v -> %v must stay in one column", *e.BonusSource, *e.BonusTarget)
	}
	for _, d := range e.ExplosionInfo {
		if d.Evacuates(*e.BonusTarget) {
			return nil
		}
	}
	return violation("bonus target %v is not inside an evacuated range", *e.BonusTarget)
}
