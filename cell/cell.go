// Package cell implements UnitCell, the periodic simulation box shared by
// every Frame.
package cell

import (
	"math"

	"github.com/pkg/errors"
)

// Shape tags the kind of periodicity a UnitCell has.
type Shape int

const (
	Infinite Shape = iota
	Orthorhombic
	Triclinic
)

func (s Shape) String() string {
	switch s {
	case Infinite:
		return "infinite"
	case Orthorhombic:
		return "orthorhombic"
	case Triclinic:
		return "triclinic"
	default:
		return "unknown"
	}
}

// Vector3 mirrors property.Vector3 without importing it, keeping cell
// dependency-free for packages (topology, fileio) that only need geometry.
type Vector3 [3]float64

// Matrix3 is a 3x3 matrix stored as columns: Matrix3[i] is cell vector i.
type Matrix3 [3]Vector3

const (
	angleTolerance  = 1e-3 // degrees
	lengthTolerance = 1e-5 // angstrom
)

// warnFunc is wired from the chemfiles root package's init, letting this
// package report non-fatal diagnostics through the same process-wide
// callback the rest of the module uses, without importing chemfiles itself
// (which imports cell, so the reverse import would cycle).
var warnFunc = func(string, ...interface{}) {}

// SetWarnFunc installs fn as this package's destination for non-fatal
// diagnostics.
func SetWarnFunc(fn func(string, ...interface{})) {
	warnFunc = fn
}

// UnitCell is the periodic simulation box: a 3x3 matrix of cell vectors (in
// column-vector convention), its cached inverse, and a shape tag.
type UnitCell struct {
	matrix  Matrix3
	inverse Matrix3
	shape   Shape
}

// NewInfinite constructs a cell with a zero matrix and no periodicity.
func NewInfinite() UnitCell {
	return UnitCell{shape: Infinite}
}

// FromLengths builds an orthorhombic cell (or an infinite one, if all
// lengths are zero) from edge lengths in angstrom.
func FromLengths(a, b, c float64) (UnitCell, error) {
	if a < 0 || b < 0 || c < 0 {
		return UnitCell{}, errors.Errorf("cell: negative length (%g, %g, %g)", a, b, c)
	}

	zeros := 0
	for _, l := range []float64{a, b, c} {
		if isZeroLength(l) {
			zeros++
		}
	}

	if zeros == 3 {
		return NewInfinite(), nil
	}

	if zeros == 1 || zeros == 2 {
		warnFunc("cell: %d of the three lengths (%g, %g, %g) are zero, result may be surprising", zeros, a, b, c)
	}

	m := Matrix3{
		{a, 0, 0},
		{0, b, 0},
		{0, 0, c},
	}
	return fromMatrixUnchecked(m, Orthorhombic), nil
}

// FromLengthsAngles builds a triclinic (or orthorhombic/infinite) cell from
// edge lengths in angstrom and angles in degrees.
func FromLengthsAngles(a, b, c, alpha, beta, gamma float64) (UnitCell, error) {
	if a < 0 || b < 0 || c < 0 {
		return UnitCell{}, errors.Errorf("cell: negative length (%g, %g, %g)", a, b, c)
	}

	if isZeroLength(a) && isZeroLength(b) && isZeroLength(c) {
		return NewInfinite(), nil
	}

	for _, angle := range []float64{alpha, beta, gamma} {
		if angle <= 0 || angle >= 180 {
			return UnitCell{}, errors.Errorf("cell: angle %g out of range (0, 180)", angle)
		}
	}

	if isRightAngle(alpha) && isRightAngle(beta) && isRightAngle(gamma) {
		return FromLengths(a, b, c)
	}

	m := matrixFromLengthsAngles(a, b, c, alpha, beta, gamma)
	return fromMatrixUnchecked(m, Triclinic), nil
}

// FromMatrix classifies an explicit 3x3 matrix of cell vectors: all-zero is
// Infinite, nonzero-diagonal is Orthorhombic, anything else is Triclinic.
// Lengths and angles are derived from the vectors themselves (norms and
// pairwise angles), so the matrix need not be in canonical upper-triangular
// orientation — a matrix built from lengths/angles always is, but one
// reconstructed from a format that stores cell vectors at an arbitrary
// orientation (e.g. DCD's CHARMM>25 convention) need not be. The only hard
// requirement is a non-negative determinant (a right-handed cell).
func FromMatrix(m Matrix3) (UnitCell, error) {
	det := determinant(m)
	if det < 0 {
		return UnitCell{}, errors.Errorf("cell: matrix has negative determinant %g (left-handed cell)", det)
	}

	if isZeroMatrix(m) {
		return NewInfinite(), nil
	}

	if isDiagonal(m) {
		return fromMatrixUnchecked(m, Orthorhombic), nil
	}

	return fromMatrixUnchecked(m, Triclinic), nil
}

func fromMatrixUnchecked(m Matrix3, shape Shape) UnitCell {
	c := UnitCell{matrix: m, shape: shape}
	c.inverse = invert(m)
	return c
}

// Shape reports whether the cell is infinite, orthorhombic, or triclinic.
func (c UnitCell) Shape() Shape { return c.shape }

// Matrix returns the cell's 3x3 matrix, column i being cell vector i.
func (c UnitCell) Matrix() Matrix3 { return c.matrix }

// Lengths returns the lengths of the three cell vectors.
func (c UnitCell) Lengths() (a, b, c2 float64) {
	m := c.matrix
	return norm(m[0]), norm(m[1]), norm(m[2])
}

// Angles returns (alpha, beta, gamma) in degrees: alpha between b and c,
// beta between a and c, gamma between a and b.
func (c UnitCell) Angles() (alpha, beta, gamma float64) {
	if c.shape == Infinite {
		return 0, 0, 0
	}
	m := c.matrix
	alpha = angleBetween(m[1], m[2])
	beta = angleBetween(m[0], m[2])
	gamma = angleBetween(m[0], m[1])
	return
}

// Volume returns 0 for an infinite cell, else |det(matrix)|.
func (c UnitCell) Volume() float64 {
	if c.shape == Infinite {
		return 0
	}
	return math.Abs(determinant(c.matrix))
}

// SetLengths rebuilds the cell with new edge lengths, keeping the shape
// (Orthorhombic stays diagonal, Triclinic is reset to canonical
// upper-triangular orientation using its current angles). It is an error to
// call this on an Infinite cell. If the cell's current matrix is not
// already in canonical orientation (e.g. one reconstructed from a raw,
// arbitrarily-oriented matrix), that orientation is lost; this warns rather
// than silently discarding it.
func (c UnitCell) SetLengths(a, b, cc float64) (UnitCell, error) {
	if c.shape == Infinite {
		return UnitCell{}, errors.New("cell: cannot set lengths on an infinite cell")
	}
	if a < 0 || b < 0 || cc < 0 {
		return UnitCell{}, errors.Errorf("cell: negative length (%g, %g, %g)", a, b, cc)
	}
	if !isUpperTriangular(c.matrix) {
		warnFunc("cell: resetting unit cell orientation in SetLengths")
	}
	if c.shape == Orthorhombic {
		return FromLengths(a, b, cc)
	}
	alpha, beta, gamma := c.Angles()
	return FromLengthsAngles(a, b, cc, alpha, beta, gamma)
}

// SetAngles rebuilds a Triclinic cell with new angles, keeping its current
// lengths and resetting orientation to canonical upper-triangular form. It
// is an error to call this on a cell that is not Triclinic. As with
// SetLengths, resetting a non-canonically-oriented matrix warns rather than
// silently discarding the orientation.
func (c UnitCell) SetAngles(alpha, beta, gamma float64) (UnitCell, error) {
	if c.shape != Triclinic {
		return UnitCell{}, errors.New("cell: SetAngles requires a triclinic cell")
	}
	if !isUpperTriangular(c.matrix) {
		warnFunc("cell: resetting unit cell orientation in SetAngles")
	}
	a, b, cc := c.Lengths()
	return FromLengthsAngles(a, b, cc, alpha, beta, gamma)
}

// Wrap translates v by the nearest integer combination of cell vectors so
// the result lies in the cell's central image: each fractional component
// ends up in (-0.5, 0.5], so wrapping an already wrapped vector is a no-op.
func (c UnitCell) Wrap(v Vector3) Vector3 {
	switch c.shape {
	case Infinite:
		return v
	case Orthorhombic:
		a, b, cc := c.Lengths()
		lengths := [3]float64{a, b, cc}
		out := v
		for i := 0; i < 3; i++ {
			if lengths[i] != 0 {
				out[i] -= math.Ceil(out[i]/lengths[i]-0.5) * lengths[i]
			}
		}
		return out
	default: // Triclinic
		frac := mulMatVec(c.inverse, v)
		for i := 0; i < 3; i++ {
			frac[i] -= math.Ceil(frac[i] - 0.5)
		}
		return mulMatVec(c.matrix, frac)
	}
}

func isZeroLength(l float64) bool { return math.Abs(l) < lengthTolerance }

func isRightAngle(deg float64) bool { return math.Abs(deg-90) < angleTolerance }

func isZeroMatrix(m Matrix3) bool {
	for _, row := range m {
		for _, v := range row {
			if !isZeroLength(v) {
				return false
			}
		}
	}
	return true
}

func isDiagonal(m Matrix3) bool {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if i == j {
				continue
			}
			if !isZeroLength(m[i][j]) {
				return false
			}
		}
	}
	// at least one diagonal element must be nonzero to count as orthorhombic
	// rather than the already-handled all-zero case.
	return !isZeroLength(m[0][0]) || !isZeroLength(m[1][1]) || !isZeroLength(m[2][2])
}

// isUpperTriangular checks the chemfiles convention: columns are vectors,
// vector 0 lies along x (y=z=0), vector 1 lies in the xy plane (z=0).
func isUpperTriangular(m Matrix3) bool {
	return isZeroLength(m[0][1]) && isZeroLength(m[0][2]) && isZeroLength(m[1][2])
}

func determinant(m Matrix3) float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[1][0]*(m[0][1]*m[2][2]-m[0][2]*m[2][1]) +
		m[2][0]*(m[0][1]*m[1][2]-m[0][2]*m[1][1])
}

// invert returns the matrix inverse treating Matrix3 as columns; callers
// multiply column vectors via mulMatVec.
func invert(m Matrix3) Matrix3 {
	det := determinant(m)
	if det == 0 {
		return Matrix3{}
	}
	inv := 1 / det
	var r Matrix3
	r[0][0] = (m[1][1]*m[2][2] - m[1][2]*m[2][1]) * inv
	r[1][0] = (m[1][2]*m[2][0] - m[1][0]*m[2][2]) * inv
	r[2][0] = (m[1][0]*m[2][1] - m[1][1]*m[2][0]) * inv

	r[0][1] = (m[0][2]*m[2][1] - m[0][1]*m[2][2]) * inv
	r[1][1] = (m[0][0]*m[2][2] - m[0][2]*m[2][0]) * inv
	r[2][1] = (m[0][1]*m[2][0] - m[0][0]*m[2][1]) * inv

	r[0][2] = (m[0][1]*m[1][2] - m[0][2]*m[1][1]) * inv
	r[1][2] = (m[0][2]*m[1][0] - m[0][0]*m[1][2]) * inv
	r[2][2] = (m[0][0]*m[1][1] - m[0][1]*m[1][0]) * inv
	return r
}

// mulMatVec treats m as columns [v0 v1 v2] and computes v0*x + v1*y + v2*z.
func mulMatVec(m Matrix3, v Vector3) Vector3 {
	var out Vector3
	for i := 0; i < 3; i++ {
		out[i] = m[0][i]*v[0] + m[1][i]*v[1] + m[2][i]*v[2]
	}
	return out
}

func norm(v Vector3) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

func dot(a, b Vector3) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func angleBetween(a, b Vector3) float64 {
	na, nb := norm(a), norm(b)
	if na == 0 || nb == 0 {
		return 90
	}
	cos := dot(a, b) / (na * nb)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos) * 180 / math.Pi
}

// matrixFromLengthsAngles builds the canonical upper-triangular cell matrix:
// a along x, b in the xy plane, c completing the triad.
func matrixFromLengthsAngles(a, b, c, alpha, beta, gamma float64) Matrix3 {
	toRad := math.Pi / 180
	cosAlpha, cosBeta, cosGamma := math.Cos(alpha*toRad), math.Cos(beta*toRad), math.Cos(gamma*toRad)
	sinGamma := math.Sin(gamma * toRad)

	v0 := Vector3{a, 0, 0}
	v1 := Vector3{b * cosGamma, b * sinGamma, 0}

	cx := c * cosBeta
	cy := 0.0
	if sinGamma != 0 {
		cy = c * (cosAlpha - cosBeta*cosGamma) / sinGamma
	}
	czSq := c*c - cx*cx - cy*cy
	if czSq < 0 {
		czSq = 0
	}
	cz := math.Sqrt(czSq)
	v2 := Vector3{cx, cy, cz}

	return Matrix3{v0, v1, v2}
}
