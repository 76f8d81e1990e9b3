package pca

import (
	"sync"

	"github.com/okian/podium/internal/domain/model"
)

// Projector projects row sets while keeping the orientation of each axis
// stable between calls. An eigenvector and its negation are equally valid, so
// a slightly different row set can mirror the whole projection; the projector
// remembers the previous coordinates per row id and flips an axis whenever the
// new values anti-correlate with the remembered ones.
type Projector struct {
	mu      sync.Mutex
	history map[model.ID][2]float64
	opts    []Option
}

// NewProjector returns a projector with an empty history.
func NewProjector(opts ...Option) *Projector {
	return &Projector{opts: opts}
}

// Project computes the projection of rows over columns and aligns each axis
// with the previous result. Results with fewer than two points leave the
// history untouched.
func (p *Projector) Project(rows []model.Row, columns []string) Result {
	res := Project(rows, columns, p.opts...)

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(res.Points) < 2 {
		return res
	}
	if p.history != nil {
		for axis := 0; axis < 2; axis++ {
			if p.alignment(res.Points, axis) < 0 {
				flipAxis(&res, axis)
			}
		}
	}

	p.history = make(map[model.ID][2]float64, len(res.Points))
	for _, pt := range res.Points {
		p.history[pt.RowID] = [2]float64{pt.PC1, pt.PC2}
	}
	return res
}

// HistorySize returns the number of rows remembered from the last projection.
func (p *Projector) HistorySize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.history)
}

// Reset forgets the remembered orientation.
func (p *Projector) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.history = nil
}

// alignment is the dot product of new and remembered values on axis over the
// row ids both results share.
func (p *Projector) alignment(points []Point, axis int) float64 {
	var dot float64
	for _, pt := range points {
		prev, ok := p.history[pt.RowID]
		if !ok {
			continue
		}
		dot += axisValue(pt, axis) * prev[axis]
	}
	return dot
}

func axisValue(pt Point, axis int) float64 {
	if axis == 0 {
		return pt.PC1
	}
	return pt.PC2
}

func flipAxis(res *Result, axis int) {
	name := AxisPC1
	if axis == 1 {
		name = AxisPC2
	}
	for i := range res.Points {
		if axis == 0 {
			res.Points[i].PC1 = -res.Points[i].PC1
		} else {
			res.Points[i].PC2 = -res.Points[i].PC2
		}
	}
	for c, w := range res.Loadings[name] {
		res.Loadings[name][c] = -w
	}
}
