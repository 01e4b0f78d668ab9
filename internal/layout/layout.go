// Package layout places graph nodes with a simple force-directed simulation.
package layout

import (
	"math"

	"fossilbed/strata/internal/graph"
)

// Defaults for Options.
const (
	DefaultIterations = 80
	DefaultPadding    = 40.0
	DefaultRepulsion  = 2000.0
)

const (
	springFactor = 0.02
	damping      = 0.8
	stepScale    = 0.1
	initRadius   = 0.35
)

// Options describes the viewport and simulation length.
type Options struct {
	Width      float64
	Height     float64
	Iterations int
	Padding    float64
	Repulsion  float64
}

func (o Options) withDefaults() Options {
	if o.Iterations <= 0 {
		o.Iterations = DefaultIterations
	}
	if o.Padding <= 0 {
		o.Padding = DefaultPadding
	}
	if o.Repulsion <= 0 {
		o.Repulsion = DefaultRepulsion
	}
	// shrink padding so the usable box never inverts on tiny viewports
	o.Padding = math.Min(o.Padding, math.Min(o.Width, o.Height)/4)
	return o
}

// Layout writes X and Y for every node in place. Edges whose endpoints are
// not in nodes are ignored. Coordinates end inside [0,Width]×[0,Height].
func Layout(nodes []graph.Node, edges []graph.Edge, opts Options) {
	if len(nodes) == 0 {
		return
	}
	if !finite(opts.Width) || !finite(opts.Height) || opts.Width <= 0 || opts.Height <= 0 {
		for i := range nodes {
			nodes[i].X, nodes[i].Y = 0, 0
		}
		return
	}
	opts = opts.withDefaults()

	n := len(nodes)
	cx, cy := opts.Width/2, opts.Height/2
	radius := initRadius * math.Min(opts.Width, opts.Height)
	for i := range nodes {
		angle := 2 * math.Pi * float64(i) / float64(n)
		nodes[i].X = cx + radius*math.Cos(angle)
		nodes[i].Y = cy + radius*math.Sin(angle)
	}

	index := make(map[string]int, n)
	for i, nd := range nodes {
		index[nd.ID] = i
	}
	type spring struct {
		a, b   int
		weight float64
	}
	var springs []spring
	for _, e := range edges {
		a, okA := index[e.Source]
		b, okB := index[e.Target]
		if !okA || !okB || a == b {
			continue
		}
		springs = append(springs, spring{a, b, e.Weight})
	}

	vx := make([]float64, n)
	vy := make([]float64, n)
	for iter := 0; iter < opts.Iterations; iter++ {
		temp := 1 - float64(iter)/float64(opts.Iterations)

		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				dx := nodes[i].X - nodes[j].X
				dy := nodes[i].Y - nodes[j].Y
				dist := math.Max(math.Hypot(dx, dy), 1)
				if dx == 0 && dy == 0 {
					// coincident nodes: push apart along a fixed direction
					dx = 1
				}
				f := opts.Repulsion / (dist * dist)
				fx, fy := f*dx/dist, f*dy/dist
				vx[i] += fx
				vy[i] += fy
				vx[j] -= fx
				vy[j] -= fy
			}
		}

		for _, s := range springs {
			dx := nodes[s.b].X - nodes[s.a].X
			dy := nodes[s.b].Y - nodes[s.a].Y
			dist := math.Hypot(dx, dy)
			if dist == 0 {
				continue
			}
			f := dist * springFactor * s.weight
			fx, fy := f*dx/dist, f*dy/dist
			vx[s.a] += fx
			vy[s.a] += fy
			vx[s.b] -= fx
			vy[s.b] -= fy
		}

		for i := range nodes {
			vx[i] *= damping
			vy[i] *= damping
			nodes[i].X += vx[i] * stepScale * temp
			nodes[i].Y += vy[i] * stepScale * temp
			if !finite(nodes[i].X) || !finite(nodes[i].Y) {
				nodes[i].X, nodes[i].Y = cx, cy
				vx[i], vy[i] = 0, 0
			}
		}
	}

	fit(nodes, opts)
}

// fit scales uniformly (never up) and centers the nodes inside the padded viewport.
func fit(nodes []graph.Node, opts Options) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, nd := range nodes {
		minX, maxX = math.Min(minX, nd.X), math.Max(maxX, nd.X)
		minY, maxY = math.Min(minY, nd.Y), math.Max(maxY, nd.Y)
	}

	innerW := opts.Width - 2*opts.Padding
	innerH := opts.Height - 2*opts.Padding
	spanX, spanY := maxX-minX, maxY-minY

	scale := 1.0
	if spanX > 0 {
		scale = math.Min(scale, innerW/spanX)
	}
	if spanY > 0 {
		scale = math.Min(scale, innerH/spanY)
	}

	midX, midY := (minX+maxX)/2, (minY+maxY)/2
	cx, cy := opts.Width/2, opts.Height/2
	for i := range nodes {
		nodes[i].X = clamp(cx+(nodes[i].X-midX)*scale, 0, opts.Width)
		nodes[i].Y = clamp(cy+(nodes[i].Y-midY)*scale, 0, opts.Height)
	}
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return (lo + hi) / 2
	}
	return math.Max(lo, math.Min(hi, v))
}
