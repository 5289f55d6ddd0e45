package components

import "github.com/hajimehoshi/ebiten/v2"

// SpriteComponent 存储实体的视觉表现(当前绘制的图像)
// 石子图片在首次绘制时由 RenderSystem 按 token 解析并缓存到这里
type SpriteComponent struct {
	Image *ebiten.Image
}
