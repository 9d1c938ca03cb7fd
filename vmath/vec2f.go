package vmath

import (
	"math"
)

// Vec2F is a float64 2D vector for simulation-space math
type Vec2F struct {
	X, Y float64
}

func V2FAdd(a, b Vec2F) Vec2F {
	return Vec2F{a.X + b.X, a.Y + b.Y}
}

func V2FSub(a, b Vec2F) Vec2F {
	return Vec2F{a.X - b.X, a.Y - b.Y}
}

func V2FScale(v Vec2F, s float64) Vec2F {
	return Vec2F{v.X * s, v.Y * s}
}

// V2FMul is the component-wise product
func V2FMul(a, b Vec2F) Vec2F {
	return Vec2F{a.X * b.X, a.Y * b.Y}
}

// V2FDiv is the component-wise quotient, no zero guard
func V2FDiv(a, b Vec2F) Vec2F {
	return Vec2F{a.X / b.X, a.Y / b.Y}
}

func V2FDot(a, b Vec2F) float64 {
	return a.X*b.X + a.Y*b.Y
}

func V2FMagSq(v Vec2F) float64 {
	return v.X*v.X + v.Y*v.Y
}

func V2FMag(v Vec2F) float64 {
	return math.Sqrt(V2FMagSq(v))
}

// V2FNormalize returns the unit vector, zero-safe
func V2FNormalize(v Vec2F) Vec2F {
	mag := V2FMag(v)
	if mag == 0 {
		return Vec2F{}
	}
	inv := 1.0 / mag
	return Vec2F{v.X * inv, v.Y * inv}
}

// V2FRotate rotates counter-clockwise by angle radians
func V2FRotate(v Vec2F, angle float64) Vec2F {
	sin, cos := math.Sincos(angle)
	return Vec2F{v.X*cos - v.Y*sin, v.X*sin + v.Y*cos}
}

// V2FPolar builds a vector from radius and angle
func V2FPolar(r, theta float64) Vec2F {
	sin, cos := math.Sincos(theta)
	return Vec2F{r * cos, r * sin}
}

// V2FFinite reports whether both components are neither NaN nor Inf
func V2FFinite(v Vec2F) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) && !math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}

// FixedMod returns n mod m in [0, m) for any sign of n
func FixedMod(n, m int) int {
	return ((n % m) + m) % m
}

// CeilDiv returns ceil(a/b) for a >= 0, b > 0
func CeilDiv(a, b int) int {
	return (a + b - 1) / b
}
