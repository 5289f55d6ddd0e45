package utils

import "math"

// Easing Functions (缓动函数)
//
// 所有函数接受进度 t ∈ [0, 1]，返回缓动后的进度。
// 过渡动画用它们把线性时间映射为位移或透明度的变化曲线。
//
// 参考：https://easings.net/

// EasingFunc 缓动函数类型
type EasingFunc func(t float64) float64

// EaseLinear 线性缓动（匀速）
func EaseLinear(t float64) float64 {
	return t
}

// EaseInQuad 二次方缓入，开始慢结束快
// 下落的石子使用它模拟重力加速
func EaseInQuad(t float64) float64 {
	return t * t
}

// EaseOutQuad 二次方缓出，开始快结束慢
func EaseOutQuad(t float64) float64 {
	return 1 - (1-t)*(1-t)
}

// EaseInOutCubic 三次方缓入缓出
//
//	t < 0.5: f(t) = 4t³
//	t >= 0.5: f(t) = 1 - (-2t + 2)³ / 2
func EaseInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

// EaseOutBounce 落地回弹
func EaseOutBounce(t float64) float64 {
	const n1 = 7.5625
	const d1 = 2.75

	switch {
	case t < 1/d1:
		return n1 * t * t
	case t < 2/d1:
		t -= 1.5 / d1
		return n1*t*t + 0.75
	case t < 2.5/d1:
		t -= 2.25 / d1
		return n1*t*t + 0.9375
	default:
		t -= 2.625 / d1
		return n1*t*t + 0.984375
	}
}

// EasingByName 按名称查找缓动函数，未知名称返回线性
// 名称与 board.yaml 中的写法一致
func EasingByName(name string) EasingFunc {
	switch name {
	case "inQuad":
		return EaseInQuad
	case "outQuad":
		return EaseOutQuad
	case "inOutCubic":
		return EaseInOutCubic
	case "outBounce":
		return EaseOutBounce
	default:
		return EaseLinear
	}
}

// Clamp01 把进度限制在 [0, 1]
func Clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// Lerp 线性插值
// t=0 返回 a，t=1 返回 b
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
