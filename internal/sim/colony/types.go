package colony

import (
	"math"

	"emberhold/internal/sim/tasks"
)

type Vec2 struct{ X, Y int }

func (v Vec2) ToArray() [2]int { return [2]int{v.X, v.Y} }

func dist(a, b Vec2) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}

func manhattan(a, b Vec2) int {
	return absInt(a.X-b.X) + absInt(a.Y-b.Y)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func vFromTask(v tasks.Vec2) Vec2 { return Vec2{X: v.X, Y: v.Y} }
func vToTask(v Vec2) tasks.Vec2   { return tasks.Vec2{X: v.X, Y: v.Y} }
