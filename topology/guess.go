package topology

import (
	"math"

	"github.com/pkg/errors"

	"github.com/chemfiles/go-chemfiles/cell"
	"github.com/chemfiles/go-chemfiles/elements"
)

const (
	bondGuessFactor   = 1.3
	bondGuessMinDist  = 0.5 // angstrom
	cellListThreshold = 3000
)

// bucketKey identifies one cell in the neighbour grid.
type bucketKey struct{ x, y, z int }

// GuessBonds derives bonds for the topology from positions and cell
// geometry: atoms i<j are bonded when their PBC-wrapped distance d satisfies
// 0.5 < d < 1.3*(r_i + r_j), using element covalent radii. Angles,
// dihedrals, and impropers are rederived afterward.
//
// For N at or above cellListThreshold atoms, a neighbour grid (bucket side
// 2*1.3*max-covalent-radius) is used instead of the O(N^2) scan.
func GuessBonds(t *Topology, positions []cell.Vector3, box cell.UnitCell) error {
	if len(positions) != len(t.atoms) {
		return errors.Errorf("topology: have %d positions for %d atoms", len(positions), len(t.atoms))
	}

	radii := make([]float64, len(t.atoms))
	for i, a := range t.atoms {
		if d, ok := elements.Lookup(a.Type); ok {
			radii[i] = d.CovalentRadius
		}
	}

	t.ClearBonds()

	tryBond := func(i, j int) {
		d := distance(box, positions[i], positions[j])
		if d <= bondGuessMinDist {
			return
		}
		if d < (radii[i]+radii[j])*bondGuessFactor {
			// AddBond cannot fail here: i != j and both indices are valid.
			_ = t.AddBond(i, j, BondOrderUnknown, "")
		}
	}

	if len(positions) < cellListThreshold {
		for i := 0; i < len(positions); i++ {
			for j := i + 1; j < len(positions); j++ {
				tryBond(i, j)
			}
		}
		return nil
	}

	bucketSide := elements.MaxCovalentRadius() * bondGuessFactor * 2
	if bucketSide <= 0 {
		bucketSide = 1
	}

	grid := make(map[bucketKey][]int)
	keyOf := func(v cell.Vector3) bucketKey {
		return bucketKey{
			int(math.Floor(v[0] / bucketSide)),
			int(math.Floor(v[1] / bucketSide)),
			int(math.Floor(v[2] / bucketSide)),
		}
	}
	for i, p := range positions {
		k := keyOf(p)
		grid[k] = append(grid[k], i)
	}

	seen := make(map[Bond]bool)
	for i, p := range positions {
		k := keyOf(p)
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				for dz := -1; dz <= 1; dz++ {
					nk := bucketKey{k.x + dx, k.y + dy, k.z + dz}
					for _, j := range grid[nk] {
						if j <= i {
							continue
						}
						b := Bond{i, j}
						if seen[b] {
							continue
						}
						seen[b] = true
						tryBond(i, j)
					}
				}
			}
		}
	}
	return nil
}

func distance(box cell.UnitCell, a, b cell.Vector3) float64 {
	d := cell.Vector3{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
	d = box.Wrap(d)
	return math.Sqrt(d[0]*d[0] + d[1]*d[1] + d[2]*d[2])
}
