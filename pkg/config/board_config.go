package config

import (
	"fmt"
	"image/color"
	"os"
	"sort"
	"strings"

	"github.com/decker502/stonecrush/pkg/embedded"
	"gopkg.in/yaml.v3"
)

// BoardConfig 棋盘显示配置
//
// 配置文件位置: data/board.yaml
type BoardConfig struct {
	// Rows / Cols 棋盘行列数（必须与逻辑层一致）
	Rows int `yaml:"rows"`
	Cols int `yaml:"cols"`

	// CellWidth / CellHeight 单格像素尺寸
	CellWidth  float64 `yaml:"cellWidth"`
	CellHeight float64 `yaml:"cellHeight"`

	// OriginX / OriginY 网格左上角在窗口中的位置
	OriginX float64 `yaml:"originX"`
	OriginY float64 `yaml:"originY"`

	// Palette token -> "#rrggbb"，没有图片资源时用纯色块代替
	Palette map[string]string `yaml:"palette"`

	// Easing 各类过渡使用的缓动函数名称
	Easing EasingConfig `yaml:"easing"`
}

// EasingConfig 缓动函数名称
// 可选值见 utils.EasingByName，空字符串为线性
type EasingConfig struct {
	Switch string `yaml:"switch"`
	Bonus  string `yaml:"bonus"`
	Drop   string `yaml:"drop"`
}

// DefaultBoardConfig 返回默认配置
func DefaultBoardConfig() *BoardConfig {
	return &BoardConfig{
		Rows:       DefaultRows,
		Cols:       DefaultCols,
		CellWidth:  DefaultCellWidth,
		CellHeight: DefaultCellHeight,
		OriginX:    DefaultOriginX,
		OriginY:    DefaultOriginY,
		Palette:    map[string]string{},
		Easing: EasingConfig{
			Switch: "inOutCubic",
			Bonus:  "outQuad",
			Drop:   "inQuad",
		},
	}
}

// LoadBoardConfig 加载棋盘配置
//
// 以 "data/" 开头且 embedded 已初始化时从嵌入资源读取，否则读磁盘文件。
func LoadBoardConfig(path string) (*BoardConfig, error) {
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
		return nil, fmt.Errorf("failed to read board config: %w", err)
	}
	return ParseBoardConfig(data)
}

// ParseBoardConfig 解析 YAML 配置，未填写的字段取默认值
func ParseBoardConfig(data []byte) (*BoardConfig, error) {
	cfg := DefaultBoardConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse board config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid board config: %w", err)
	}
	return cfg, nil
}

// Validate 验证配置有效性
func (c *BoardConfig) Validate() error {
	if c.Rows <= 0 || c.Cols <= 0 {
		return fmt.Errorf("board size must be positive, got %dx%d", c.Rows, c.Cols)
	}
	if c.CellWidth <= 0 || c.CellHeight <= 0 {
		return fmt.Errorf("cell size must be positive, got %.1fx%.1f", c.CellWidth, c.CellHeight)
	}
	for token, hex := range c.Palette {
		if _, err := ParseHexColor(hex); err != nil {
			return fmt.Errorf("palette entry %q: %w", token, err)
		}
	}
	return nil
}

// Geometry 返回网格几何
func (c *BoardConfig) Geometry() Geometry {
	return NewGeometry(c.Rows, c.Cols, c.CellWidth, c.CellHeight)
}

// ScreenSize 窗口逻辑尺寸：网格加四周留白
func (c *BoardConfig) ScreenSize() (int, int) {
	g := c.Geometry()
	return int(g.Width + 2*c.OriginX), int(g.Height + c.OriginY + c.OriginX)
}

// TokenColor 返回 token 的调色板颜色
// 未配置的 token 根据名称哈希生成一个稳定的颜色
func (c *BoardConfig) TokenColor(token string) color.RGBA {
	if hex, ok := c.Palette[token]; ok {
		if col, err := ParseHexColor(hex); err == nil {
			return col
		}
	}
	var h uint32 = 2166136261
	for i := 0; i < len(token); i++ {
		h ^= uint32(token[i])
		h *= 16777619
	}
	return color.RGBA{R: uint8(h>>16) | 0x40, G: uint8(h>>8) | 0x40, B: uint8(h) | 0x40, A: 0xff}
}

// Tokens 调色板中的 token，按名称排序
func (c *BoardConfig) Tokens() []string {
	tokens := make([]string, 0, len(c.Palette))
	for token := range c.Palette {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}

// ParseHexColor 解析 "#rrggbb" 颜色
func ParseHexColor(s string) (color.RGBA, error) {
	var col color.RGBA
	col.A = 0xff
	if len(s) != 7 || s[0] != '#' {
		return col, fmt.Errorf("color %q must look like #rrggbb", s)
	}
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &col.R, &col.G, &col.B); err != nil {
		return col, fmt.Errorf("color %q: %w", s, err)
	}
	return col, nil
}
