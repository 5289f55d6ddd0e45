package game

import (
	"os"
	"testing"

	"github.com/quasilyte/gdata/v2"
)

// openTestGdata 在临时 HOME 下打开 gdata 存储
func openTestGdata(t *testing.T, appName string) *gdata.Manager {
	t.Helper()
	tempDir := t.TempDir()
	originalHome := os.Getenv("HOME")
	os.Setenv("HOME", tempDir)
	t.Cleanup(func() { os.Setenv("HOME", originalHome) })

	gdataManager, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		t.Fatalf("Failed to create gdata manager: %v", err)
	}
	return gdataManager
}

// TestDefaultSettings 测试 DefaultSettings() 返回正确的默认值
func TestDefaultSettings(t *testing.T) {
	settings := DefaultSettings()

	if settings.AnimationSpeed != 1.0 {
		t.Errorf("AnimationSpeed: got %v, want 1.0", settings.AnimationSpeed)
	}
	if settings.SoundVolume != 0.8 {
		t.Errorf("SoundVolume: got %v, want 0.8", settings.SoundVolume)
	}
	if !settings.SoundEnabled {
		t.Error("SoundEnabled: got false, want true")
	}
	if settings.Fullscreen {
		t.Error("Fullscreen: got true, want false")
	}
}

// TestNewSettingsManagerNilGdata 测试 gdataManager 为 nil 时的降级场景
func TestNewSettingsManagerNilGdata(t *testing.T) {
	sm := NewSettingsManager(nil)

	if sm.GetSettings() == nil {
		t.Fatal("GetSettings() returned nil in degraded mode")
	}
	if sm.GetSettings().AnimationSpeed != 1.0 {
		t.Errorf("Degraded mode AnimationSpeed: got %v, want 1.0", sm.GetSettings().AnimationSpeed)
	}
	if err := sm.Save(); err != nil {
		t.Errorf("Save() in degraded mode should return nil, got: %v", err)
	}
}

// TestSettingsLoadSave 测试 Load() 和 Save() 功能
func TestSettingsLoadSave(t *testing.T) {
	gdataManager := openTestGdata(t, "test_stonecrush_settings")

	sm1 := NewSettingsManager(gdataManager)
	sm1.SetAnimationSpeed(2)
	sm1.SetSoundVolume(0.6)
	sm1.SetSoundEnabled(false)
	sm1.SetFullscreen(true)

	if err := sm1.Save(); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	settings := NewSettingsManager(gdataManager).GetSettings()

	if settings.AnimationSpeed != 2 {
		t.Errorf("Loaded AnimationSpeed: got %v, want 2", settings.AnimationSpeed)
	}
	if settings.SoundVolume != 0.6 {
		t.Errorf("Loaded SoundVolume: got %v, want 0.6", settings.SoundVolume)
	}
	if settings.SoundEnabled {
		t.Error("Loaded SoundEnabled: got true, want false")
	}
	if !settings.Fullscreen {
		t.Error("Loaded Fullscreen: got false, want true")
	}
}

// TestLoadCorruptSettings 存档损坏时回退到默认设置并返回错误
func TestLoadCorruptSettings(t *testing.T) {
	gdataManager := openTestGdata(t, "test_stonecrush_corrupt")

	if err := gdataManager.SaveObjectProp(settingsObject, settingsProperty, []byte("animationSpeed: [1")); err != nil {
		t.Fatalf("SaveObjectProp: %v", err)
	}

	sm := NewSettingsManager(gdataManager)
	if sm.GetSettings().AnimationSpeed != 1.0 {
		t.Errorf("AnimationSpeed after corrupt load: got %v", sm.GetSettings().AnimationSpeed)
	}
	if err := sm.Load(); err == nil {
		t.Error("Load() of corrupt settings should fail")
	}
}

// TestSetAnimationSpeedClamp 测试 SetAnimationSpeed 范围校验
func TestSetAnimationSpeedClamp(t *testing.T) {
	sm := NewSettingsManager(nil)

	tests := []struct {
		input    float64
		expected float64
	}{
		{1.5, 1.5},   // 正常值
		{0.25, 0.25}, // 下限
		{4, 4},       // 上限
		{0.1, 0.25},  // 低于下限
		{10, 4},      // 高于上限
		{0, 1},       // 未设置
		{-2, 1},      // 非法值
	}

	for _, tt := range tests {
		sm.SetAnimationSpeed(tt.input)
		if sm.GetSettings().AnimationSpeed != tt.expected {
			t.Errorf("SetAnimationSpeed(%v): got %v, want %v",
				tt.input, sm.GetSettings().AnimationSpeed, tt.expected)
		}
	}
}

// TestSetSoundVolumeClamp 测试 SetSoundVolume 范围校验
func TestSetSoundVolumeClamp(t *testing.T) {
	sm := NewSettingsManager(nil)

	tests := []struct {
		input    float64
		expected float64
	}{
		{0.5, 0.5},
		{0.0, 0.0},
		{1.0, 1.0},
		{-0.5, 0.0},
		{1.5, 1.0},
	}

	for _, tt := range tests {
		sm.SetSoundVolume(tt.input)
		if sm.GetSettings().SoundVolume != tt.expected {
			t.Errorf("SetSoundVolume(%v): got %v, want %v",
				tt.input, sm.GetSettings().SoundVolume, tt.expected)
		}
	}
}

// TestLoadNilGdataManager 测试降级模式下 Load() 使用默认设置
func TestLoadNilGdataManager(t *testing.T) {
	sm := NewSettingsManager(nil)
	sm.SetAnimationSpeed(3)

	if err := sm.Load(); err != nil {
		t.Errorf("Load() in degraded mode should return nil, got: %v", err)
	}
	if sm.GetSettings().AnimationSpeed != 1.0 {
		t.Errorf("After Load() in degraded mode, AnimationSpeed: got %v, want 1.0",
			sm.GetSettings().AnimationSpeed)
	}
}
