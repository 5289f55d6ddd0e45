package game

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/decker502/stonecrush/pkg/embedded"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// StoneImageDir is where per-token stone images are looked up: <dir>/<token>.png
const StoneImageDir = "assets/stones"

// TokenPalette maps a stone token to the color of its generated swatch.
// config.BoardConfig.TokenColor satisfies it.
type TokenPalette func(token string) color.RGBA

// ResourceManager is responsible for centralized management of board images.
// It loads stone images once and reuses them for every view with the same token.
//
// Stone images are resolved in this order:
//   - assets/stones/<token>.png from the embedded file system (or disk when
//     embedded resources are not initialized)
//   - a generated swatch colored by the board palette
//
// Thread Safety Note:
// This implementation is NOT thread-safe. It is only used from the game loop.
type ResourceManager struct {
	imageCache map[string]*ebiten.Image // Cache for loaded images: path -> Image
	stoneCache map[string]*ebiten.Image // Cache for resolved stone images: token -> Image
	palette    TokenPalette
	swatchSize int
}

// NewResourceManager creates a ResourceManager with empty caches.
//
// Parameters:
//   - palette: color source for generated swatches, may be nil (gray swatches)
//   - swatchSize: side length in pixels of generated swatches
func NewResourceManager(palette TokenPalette, swatchSize int) *ResourceManager {
	if swatchSize <= 0 {
		swatchSize = 64
	}
	return &ResourceManager{
		imageCache: make(map[string]*ebiten.Image),
		stoneCache: make(map[string]*ebiten.Image),
		palette:    palette,
		swatchSize: swatchSize,
	}
}

// LoadImage loads an image from the specified path and caches it for future use.
// If the image has already been loaded, it returns the cached instance.
//
// Error handling:
//   - Returns an error if the file does not exist or cannot be opened.
//   - Returns an error if the image format is not supported or the file is corrupted.
func (rm *ResourceManager) LoadImage(p string) (*ebiten.Image, error) {
	if cachedImage, exists := rm.imageCache[p]; exists {
		return cachedImage, nil
	}

	file, err := openResource(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file %s: %w", p, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", p, err)
	}

	ebitenImg := ebiten.NewImageFromImage(img)
	rm.imageCache[p] = ebitenImg
	return ebitenImg, nil
}

// GetImage retrieves a previously loaded image from the cache, or nil.
func (rm *ResourceManager) GetImage(p string) *ebiten.Image {
	return rm.imageCache[p]
}

// StoneImage returns the image for a stone token.
// It never returns nil: tokens without an image file get a generated swatch.
func (rm *ResourceManager) StoneImage(token string) *ebiten.Image {
	if img, ok := rm.stoneCache[token]; ok {
		return img
	}

	p := StoneImagePath(token)
	var img *ebiten.Image
	if embedded.IsInitialized() && !embedded.Exists(p) {
		// 没有图片的 token 直接使用调色板色块
		img = rm.swatch(token)
	} else {
		var err error
		if img, err = rm.LoadImage(p); err != nil {
			log.Printf("[ResourceManager] 石子图片 %s 不可用，使用色块: %v", p, err)
			img = rm.swatch(token)
		}
	}
	rm.stoneCache[token] = img
	return img
}

// PreloadStones loads every image under StoneImageDir so the first frame does not decode.
// Returns the tokens that were loaded, in file name order.
func (rm *ResourceManager) PreloadStones() ([]string, error) {
	pattern := path.Join(StoneImageDir, "*.png")
	var (
		files []string
		err   error
	)
	if embedded.IsInitialized() {
		files, err = embedded.Glob(pattern)
	} else {
		files, err = filepath.Glob(filepath.FromSlash(pattern))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list stone images: %w", err)
	}

	tokens := make([]string, 0, len(files))
	for _, f := range files {
		token := strings.TrimSuffix(path.Base(filepath.ToSlash(f)), ".png")
		rm.StoneImage(token)
		tokens = append(tokens, token)
	}
	log.Printf("[ResourceManager] 预加载石子图片 %d 张", len(tokens))
	return tokens, nil
}

// StoneImagePath returns the image path for a token.
func StoneImagePath(token string) string {
	return path.Join(StoneImageDir, token+".png")
}

// swatch draws a rounded-looking colored stone: a filled square with a lighter core.
func (rm *ResourceManager) swatch(token string) *ebiten.Image {
	c := color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}
	if rm.palette != nil {
		c = rm.palette(token)
	}

	size := float32(rm.swatchSize)
	margin := size / 16
	img := ebiten.NewImage(rm.swatchSize, rm.swatchSize)
	vector.DrawFilledRect(img, margin, margin, size-2*margin, size-2*margin, c, true)
	vector.DrawFilledCircle(img, size/2, size/2, size/4, lighten(c), true)
	return img
}

func lighten(c color.RGBA) color.RGBA {
	mix := func(v uint8) uint8 { return v + (0xff-v)/2 }
	return color.RGBA{R: mix(c.R), G: mix(c.G), B: mix(c.B), A: c.A}
}

// openResource opens from embedded resources when initialized, else from disk.
func openResource(p string) (io.ReadCloser, error) {
	if embedded.IsInitialized() {
		return embedded.Open(p)
	}
	return os.Open(p)
}
