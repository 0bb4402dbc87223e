package metrics

import "github.com/maagusrm/esbmtk/internal/boxmodel"

// IsotopePair names the total and light slots of one reservoir.
type IsotopePair struct {
	Total int
	Light int
}

// IsotopeBound watches the invariant 0 <= L <= M across a run and
// reports the worst violation as a fraction of the total mass.
type IsotopeBound struct {
	name  string
	pairs []IsotopePair
	worst float64
}

func NewIsotopeBound(name string, pairs []IsotopePair) *IsotopeBound {
	return &IsotopeBound{name: name, pairs: pairs}
}

func (m *IsotopeBound) Name() string { return m.name }

func (m *IsotopeBound) Observe(y boxmodel.State, t float64) {
	for _, p := range m.pairs {
		total, light := y[p.Total], y[p.Light]
		if total <= 0 {
			continue
		}
		var v float64
		if light < 0 {
			v = -light / total
		} else if light > total {
			v = (light - total) / total
		}
		if v > m.worst {
			m.worst = v
		}
	}
}

// Value returns the worst relative violation, zero for a clean run.
func (m *IsotopeBound) Value() float64 { return m.worst }

func (m *IsotopeBound) Reset() { m.worst = 0 }
