// Package topology implements the connectivity graph shared by every Frame:
// atoms, bonds, residues, and the angle/dihedral/improper sets derived from
// bonds.
//
// Derived data uses a dirty-flag-and-rebuild-on-read policy: mutation sets
// a flag, the next call to Angles/Dihedrals/Impropers recomputes if needed.
package topology

import (
	"sort"

	"github.com/pkg/errors"
)

// Bond is an unordered atom pair stored canonically with I < J.
type Bond struct {
	I, J int
}

// Angle is three atoms (I, J, K) with J the vertex, canonicalised so I < K.
type Angle struct{ I, J, K int }

// Dihedral is four chained atoms (I, J, K, L) along bonds I-J, J-K, K-L,
// canonicalised so I < L.
type Dihedral struct{ I, J, K, L int }

// Improper is a central atom C with three substituents, canonicalised so
// the substituents are ascending.
type Improper struct{ I, C, J, K int }

type bondInfo struct {
	order BondOrder
	typ   string
}

// Topology owns the atom list, the bond set, and cached derived data.
type Topology struct {
	atoms         []Atom
	bonds         []Bond // sorted ascending by (I, J)
	bondInfo      map[Bond]bondInfo
	residues      []*Residue
	residueOfAtom map[int]int

	dirty     bool
	angles    []Angle
	dihedrals []Dihedral
	impropers []Improper
}

// New returns an empty topology.
func New() *Topology {
	return &Topology{
		bondInfo:      make(map[Bond]bondInfo),
		residueOfAtom: make(map[int]int),
	}
}

// Atoms returns the atom slice. Callers must not retain it across a
// mutating call (AddAtom, Resize, Remove may reallocate).
func (t *Topology) Atoms() []Atom { return t.atoms }

// Size returns the number of atoms.
func (t *Topology) Size() int { return len(t.atoms) }

// Atom returns a copy of atom i.
func (t *Topology) Atom(i int) Atom { return t.atoms[i] }

// SetAtom replaces atom i in place.
func (t *Topology) SetAtom(i int, atom Atom) { t.atoms[i] = atom }

// AddAtom appends atom to the topology and returns its new index.
func (t *Topology) AddAtom(atom Atom) int {
	t.atoms = append(t.atoms, atom)
	return len(t.atoms) - 1
}

// Resize pads the topology with default atoms or truncates it to n atoms.
// Truncation drops every bond (and derived angle/dihedral/improper)
// touching a removed index and evicts those atoms from their residues.
func (t *Topology) Resize(n int) {
	if n < 0 {
		n = 0
	}
	if n >= len(t.atoms) {
		for len(t.atoms) < n {
			t.atoms = append(t.atoms, NewAtom(""))
		}
		return
	}

	// n < len(t.atoms): truncate, cleaning up bonds/residues referencing
	// dropped indices.
	kept := t.bonds[:0]
	newInfo := make(map[Bond]bondInfo)
	for _, b := range t.bonds {
		if b.I < n && b.J < n {
			kept = append(kept, b)
			newInfo[b] = t.bondInfo[b]
		}
	}
	t.bonds = append([]Bond(nil), kept...)
	t.bondInfo = newInfo

	t.atoms = t.atoms[:n]

	for _, r := range t.residues {
		filtered := r.atoms[:0]
		for _, a := range r.atoms {
			if a < n {
				filtered = append(filtered, a)
			}
		}
		r.atoms = append([]int(nil), filtered...)
	}
	for a := range t.residueOfAtom {
		if a >= n {
			delete(t.residueOfAtom, a)
		}
	}

	t.dirty = true
}

// Remove deletes atom i, shifting every higher index down by one across
// bonds, residues, and residue-of-atom bookkeeping.
func (t *Topology) Remove(i int) error {
	if i < 0 || i >= len(t.atoms) {
		return errors.Errorf("topology: atom index %d out of bounds [0, %d)", i, len(t.atoms))
	}

	t.atoms = append(t.atoms[:i], t.atoms[i+1:]...)

	shift := func(idx int) int {
		if idx > i {
			return idx - 1
		}
		return idx
	}

	newBonds := t.bonds[:0]
	newInfo := make(map[Bond]bondInfo)
	for _, b := range t.bonds {
		if b.I == i || b.J == i {
			continue
		}
		nb := Bond{shift(b.I), shift(b.J)}
		newBonds = append(newBonds, nb)
		newInfo[nb] = t.bondInfo[b]
	}
	t.bonds = append([]Bond(nil), newBonds...)
	t.bondInfo = newInfo

	newResOf := make(map[int]int)
	for a, r := range t.residueOfAtom {
		if a == i {
			continue
		}
		newResOf[shift(a)] = r
	}
	t.residueOfAtom = newResOf

	for _, r := range t.residues {
		out := r.atoms[:0]
		for _, a := range r.atoms {
			if a == i {
				continue
			}
			out = append(out, shift(a))
		}
		r.atoms = append([]int(nil), out...)
	}

	t.dirty = true
	return nil
}

func bondKey(i, j int) Bond {
	if i < j {
		return Bond{i, j}
	}
	return Bond{j, i}
}

// AddBond inserts a bond between i and j, requiring i != j and both in
// range. If the bond already exists, its order/type are updated instead of
// creating a duplicate.
func (t *Topology) AddBond(i, j int, order BondOrder, typ string) error {
	if i == j {
		return errors.New("topology: cannot bond an atom to itself")
	}
	if i < 0 || i >= len(t.atoms) || j < 0 || j >= len(t.atoms) {
		return errors.Errorf("topology: bond endpoint out of range (%d, %d), have %d atoms", i, j, len(t.atoms))
	}

	key := bondKey(i, j)
	if _, exists := t.bondInfo[key]; exists {
		t.bondInfo[key] = bondInfo{order, typ}
		return nil
	}

	idx := sort.Search(len(t.bonds), func(k int) bool {
		b := t.bonds[k]
		return b.I > key.I || (b.I == key.I && b.J >= key.J)
	})
	t.bonds = append(t.bonds, Bond{})
	copy(t.bonds[idx+1:], t.bonds[idx:])
	t.bonds[idx] = key
	t.bondInfo[key] = bondInfo{order, typ}

	t.dirty = true
	return nil
}

// RemoveBond deletes the bond between i and j, a no-op if absent.
func (t *Topology) RemoveBond(i, j int) {
	key := bondKey(i, j)
	if _, ok := t.bondInfo[key]; !ok {
		return
	}
	delete(t.bondInfo, key)
	for idx, b := range t.bonds {
		if b == key {
			t.bonds = append(t.bonds[:idx], t.bonds[idx+1:]...)
			break
		}
	}
	t.dirty = true
}

// ClearBonds removes every bond (and derived angle/dihedral/improper).
func (t *Topology) ClearBonds() {
	t.bonds = nil
	t.bondInfo = make(map[Bond]bondInfo)
	t.dirty = true
}

// Bonds returns the sorted bond set.
func (t *Topology) Bonds() []Bond { return t.bonds }

// BondOrderOf returns the order and type string of the bond between i and j.
func (t *Topology) BondOrderOf(i, j int) (BondOrder, string, bool) {
	info, ok := t.bondInfo[bondKey(i, j)]
	if !ok {
		return BondOrderUnknown, "", false
	}
	return info.order, info.typ, true
}

// AddResidue attaches r to the topology, failing if any of its atoms
// already belong to another residue or its id collides with an existing
// one.
func (t *Topology) AddResidue(r *Residue) error {
	if id, ok := r.ID(); ok {
		for _, existing := range t.residues {
			if eid, eok := existing.ID(); eok && eid == id {
				return errors.Errorf("topology: residue id %d already present", id)
			}
		}
	}
	for _, a := range r.atoms {
		if _, taken := t.residueOfAtom[a]; taken {
			return errors.Errorf("topology: atom %d is already in another residue", a)
		}
	}

	idx := len(t.residues)
	t.residues = append(t.residues, r)
	for _, a := range r.atoms {
		t.residueOfAtom[a] = idx
	}
	return nil
}

// Residues returns the residue list in addition order.
func (t *Topology) Residues() []*Residue { return t.residues }

// ResidueFor returns the residue index owning atom i, if any.
func (t *Topology) ResidueFor(i int) (int, bool) {
	idx, ok := t.residueOfAtom[i]
	return idx, ok
}

// AreLinked reports whether any bond has one endpoint in residue r1 and the
// other in r2. A residue is trivially linked to itself.
func (t *Topology) AreLinked(r1, r2 int) bool {
	if r1 == r2 {
		return true
	}
	a, b := t.residues[r1], t.residues[r2]
	for _, bond := range t.bonds {
		inA1, inB1 := a.Contains(bond.I), b.Contains(bond.I)
		inA2, inB2 := a.Contains(bond.J), b.Contains(bond.J)
		if (inA1 && inB2) || (inB1 && inA2) {
			return true
		}
	}
	return false
}

// neighbours builds an adjacency list from the current bond set.
func (t *Topology) neighbours() map[int][]int {
	adj := make(map[int][]int, len(t.atoms))
	for _, b := range t.bonds {
		adj[b.I] = append(adj[b.I], b.J)
		adj[b.J] = append(adj[b.J], b.I)
	}
	return adj
}

func (t *Topology) rebuildDerived() {
	adj := t.neighbours()

	seenAngle := make(map[Angle]bool)
	var angles []Angle
	for j, neigh := range adj {
		sort.Ints(neigh)
		for a := 0; a < len(neigh); a++ {
			for b := a + 1; b < len(neigh); b++ {
				i, k := neigh[a], neigh[b]
				if i > k {
					i, k = k, i
				}
				ang := Angle{i, j, k}
				if !seenAngle[ang] {
					seenAngle[ang] = true
					angles = append(angles, ang)
				}
			}
		}
	}
	sort.Slice(angles, func(x, y int) bool {
		if angles[x].J != angles[y].J {
			return angles[x].J < angles[y].J
		}
		if angles[x].I != angles[y].I {
			return angles[x].I < angles[y].I
		}
		return angles[x].K < angles[y].K
	})

	seenDihedral := make(map[Dihedral]bool)
	var dihedrals []Dihedral
	for _, bond := range t.bonds {
		j, k := bond.I, bond.J
		for _, i := range adj[j] {
			if i == j || i == k {
				continue
			}
			for _, l := range adj[k] {
				if l == i || l == j || l == k {
					continue
				}
				d := Dihedral{i, j, k, l}
				if d.I > d.L {
					d.I, d.J, d.K, d.L = d.L, d.K, d.J, d.I
				}
				if !seenDihedral[d] {
					seenDihedral[d] = true
					dihedrals = append(dihedrals, d)
				}
			}
		}
	}
	sort.Slice(dihedrals, func(x, y int) bool {
		a, b := dihedrals[x], dihedrals[y]
		if a.I != b.I {
			return a.I < b.I
		}
		if a.J != b.J {
			return a.J < b.J
		}
		if a.K != b.K {
			return a.K < b.K
		}
		return a.L < b.L
	})

	seenImproper := make(map[Improper]bool)
	var impropers []Improper
	for c, neigh := range adj {
		if len(neigh) < 3 {
			continue
		}
		sort.Ints(neigh)
		for a := 0; a < len(neigh); a++ {
			for b := a + 1; b < len(neigh); b++ {
				for d := b + 1; d < len(neigh); d++ {
					imp := Improper{neigh[a], c, neigh[b], neigh[d]}
					if !seenImproper[imp] {
						seenImproper[imp] = true
						impropers = append(impropers, imp)
					}
				}
			}
		}
	}
	sort.Slice(impropers, func(x, y int) bool {
		a, b := impropers[x], impropers[y]
		if a.C != b.C {
			return a.C < b.C
		}
		if a.I != b.I {
			return a.I < b.I
		}
		if a.J != b.J {
			return a.J < b.J
		}
		return a.K < b.K
	})

	t.angles = angles
	t.dihedrals = dihedrals
	t.impropers = impropers
	t.dirty = false
}

// Angles returns the derived angle list, recomputing it if bonds changed
// since the last call.
func (t *Topology) Angles() []Angle {
	if t.dirty {
		t.rebuildDerived()
	}
	return t.angles
}

// Dihedrals returns the derived dihedral list, recomputing it if bonds
// changed since the last call.
func (t *Topology) Dihedrals() []Dihedral {
	if t.dirty {
		t.rebuildDerived()
	}
	return t.dihedrals
}

// Impropers returns the derived improper list, recomputing it if bonds
// changed since the last call.
func (t *Topology) Impropers() []Improper {
	if t.dirty {
		t.rebuildDerived()
	}
	return t.impropers
}
