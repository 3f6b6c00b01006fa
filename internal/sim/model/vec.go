package model

import "math"

type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func V(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{X: v.X + o.X, Y: v.Y + o.Y} }

func (v Vec2) Dist(o Vec2) float64 { return math.Hypot(o.X-v.X, o.Y-v.Y) }

// MoveToward advances v by speed along the straight line to target and never
// overshoots: within speed of the target it lands exactly on it.
func (v Vec2) MoveToward(target Vec2, speed float64) Vec2 {
	d := v.Dist(target)
	if d <= speed {
		return target
	}
	k := speed / d
	return Vec2{X: v.X + (target.X-v.X)*k, Y: v.Y + (target.Y-v.Y)*k}
}
