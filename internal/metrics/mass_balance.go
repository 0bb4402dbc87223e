// Package metrics provides run-level diagnostics computed from the
// state trajectory.
package metrics

import (
	"math"

	"github.com/maagusrm/esbmtk/internal/boxmodel"
)

// Pool identifies one reservoir's share of a conserved element in
// the state vector.
type Pool struct {
	Slot   int
	Volume float64 // 1 for slots already holding mass
}

// MassBalance tracks the relative drift of the summed mass of a
// closed set of pools. The first observation fixes the reference.
type MassBalance struct {
	name    string
	pools   []Pool
	initial float64
	drift   float64
	seen    bool
}

func NewMassBalance(name string, pools []Pool) *MassBalance {
	return &MassBalance{name: name, pools: pools}
}

func (m *MassBalance) Name() string { return m.name }

func (m *MassBalance) Observe(y boxmodel.State, t float64) {
	var total float64
	for _, p := range m.pools {
		total += y[p.Slot] * p.Volume
	}
	if !m.seen {
		m.initial = total
		m.seen = true
		return
	}
	if m.initial != 0 {
		if d := math.Abs(total-m.initial) / math.Abs(m.initial); d > m.drift {
			m.drift = d
		}
	}
}

// Value returns the worst relative drift seen so far.
func (m *MassBalance) Value() float64 { return m.drift }

func (m *MassBalance) Reset() {
	m.initial = 0
	m.drift = 0
	m.seen = false
}
