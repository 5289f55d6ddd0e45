package logic

import "fmt"

// StoneSource 是编排层对逻辑层的唯一查询接口
// 仅在初始渲染时使用，用来生成起始的视图网格，动画过程中不会调用
type StoneSource interface {
	Size() BoardSize
	TokenAt(c Coords) string
}

// Board 内存中的 token 网格，实现 StoneSource
// 用于脚本回放和测试；真实逻辑层可以提供自己的实现
type Board struct {
	size   BoardSize
	tokens [][]string
}

// NewBoard 由按行排列的 token 构造棋盘
// 每一行的长度必须一致
func NewBoard(rows [][]string) (*Board, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("board has no rows")
	}
	cols := len(rows[0])
	if cols == 0 {
		return nil, fmt.Errorf("board has no columns")
	}
	tokens := make([][]string, len(rows))
	for r, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("board row %d has %d columns, want %d", r, len(row), cols)
		}
		tokens[r] = append([]string(nil), row...)
	}
	return &Board{
		size:   BoardSize{Rows: len(rows), Cols: cols},
		tokens: tokens,
	}, nil
}

// Size 返回棋盘尺寸
func (b *Board) Size() BoardSize {
	return b.size
}

// TokenAt 返回格子上石子的显示 token，越界返回空字符串
func (b *Board) TokenAt(c Coords) string {
	if !b.size.Contains(c) {
		return ""
	}
	return b.tokens[c.Row][c.Col]
}

// PatternBoard 用 tokens 循环填充一个确定性的棋盘
// 没有脚本提供初始棋盘时使用；tokens 为空时每格为 "stone"
func PatternBoard(size BoardSize, tokens []string) *Board {
	if len(tokens) == 0 {
		tokens = []string{"stone"}
	}
	rows := make([][]string, size.Rows)
	for r := range rows {
		rows[r] = make([]string, size.Cols)
		for c := range rows[r] {
			rows[r][c] = tokens[(r*2+c)%len(tokens)]
		}
	}
	return &Board{size: size, tokens: rows}
}
