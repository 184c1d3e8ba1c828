package arnoldi

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// machineEps is the float64 machine epsilon, matching the constant the
// reference algorithm (yixuan/arpack-eigen) derives from
// std::numeric_limits<double>::epsilon().
const machineEps = 2.220446049250313e-16

// precConv is the residual floor used to test Ritz-pair convergence: eps^(2/3).
var precConv = math.Pow(machineEps, 2.0/3.0)

// maxDGKSRounds bounds the number of DGKS re-orthogonalization passes run
// per Arnoldi/Lanczos step (ARPACK's own default cap for this correction).
const maxDGKSRounds = 5

// givensRotation returns cos/sin such that applying
// [ c  s]   [a]   [r]
// [-s  c] * [b] = [0]
// with r = hypot(a, b). If both a and b are zero it returns the identity.
func givensRotation(a, b float64) (c, s float64) {
	if a == 0 && b == 0 {
		return 1, 0
	}
	r := math.Hypot(a, b)
	return a / r, b / r
}

// HessenbergQR factors an n x n upper-Hessenberg matrix H = Q*R using a
// sequence of n-1 Givens rotations acting on adjacent rows, and exposes the
// transformed products the implicit-restart step needs (R, R*Q, and
// application of Q/Q^T to arbitrary matrices or vectors) without ever
// forming Q densely.
//
// Rotation convention: rotation i acts on rows/columns i, i+1 with
// Gi = [[c, -s], [s, c]], so that Gi^T zeroes H[i+1, i]. Q = G0*G1*...*G(n-2).
type HessenbergQR struct {
	n   int
	r   *mat.Dense
	cos []float64
	sin []float64
}

// NewHessenbergQR returns a HessenbergQR ready to factorize n x n matrices.
func NewHessenbergQR(n int) *HessenbergQR {
	return &HessenbergQR{n: n}
}

// Factorize computes the QR decomposition of the upper-Hessenberg matrix h.
func (qr *HessenbergQR) Factorize(h mat.Matrix) {
	n := qr.n
	r := mat.NewDense(n, n, nil)
	r.Copy(h)
	cos := make([]float64, n-1)
	sin := make([]float64, n-1)

	for i := 0; i < n-1; i++ {
		a, b := r.At(i, i), r.At(i+1, i)
		c, s := givensRotation(a, b)
		cos[i], sin[i] = c, s
		for j := i; j < n; j++ {
			ri, ri1 := r.At(i, j), r.At(i+1, j)
			r.Set(i, j, c*ri+s*ri1)
			r.Set(i+1, j, -s*ri+c*ri1)
		}
		r.Set(i+1, i, 0)
	}

	qr.r, qr.cos, qr.sin = r, cos, sin
}

// MatrixR returns R, the upper-triangular factor.
func (qr *HessenbergQR) MatrixR() *mat.Dense {
	out := mat.NewDense(qr.n, qr.n, nil)
	out.Copy(qr.r)
	return out
}

// MatrixRQ returns R*Q, the upper-Hessenberg matrix formed by restarting
// with this shift: if R = Q^T*(H - shift*I), then R*Q = Q^T*H*Q - shift*I.
func (qr *HessenbergQR) MatrixRQ() *mat.Dense {
	out := mat.NewDense(qr.n, qr.n, nil)
	out.Copy(qr.r)
	qr.ApplyYQTo(out)
	return out
}

// ApplyQYTo overwrites y with Q*y (y is an n x p matrix or n x 1 vector).
func (qr *HessenbergQR) ApplyQYTo(y *mat.Dense) {
	_, p := y.Dims()
	for i := qr.n - 2; i >= 0; i-- {
		c, s := qr.cos[i], qr.sin[i]
		for j := 0; j < p; j++ {
			yi, yi1 := y.At(i, j), y.At(i+1, j)
			y.Set(i, j, c*yi-s*yi1)
			y.Set(i+1, j, s*yi+c*yi1)
		}
	}
}

// ApplyQtYTo overwrites y with Q^T*y.
func (qr *HessenbergQR) ApplyQtYTo(y *mat.Dense) {
	_, p := y.Dims()
	for i := 0; i < qr.n-1; i++ {
		c, s := qr.cos[i], qr.sin[i]
		for j := 0; j < p; j++ {
			yi, yi1 := y.At(i, j), y.At(i+1, j)
			y.Set(i, j, c*yi+s*yi1)
			y.Set(i+1, j, -s*yi+c*yi1)
		}
	}
}

// ApplyYQTo overwrites y with y*Q.
func (qr *HessenbergQR) ApplyYQTo(y *mat.Dense) {
	rows, _ := y.Dims()
	for i := 0; i < qr.n-1; i++ {
		c, s := qr.cos[i], qr.sin[i]
		for j := 0; j < rows; j++ {
			yi, yi1 := y.At(j, i), y.At(j, i+1)
			y.Set(j, i, c*yi+s*yi1)
			y.Set(j, i+1, -s*yi+c*yi1)
		}
	}
}

// ApplyYQtTo overwrites y with y*Q^T.
func (qr *HessenbergQR) ApplyYQtTo(y *mat.Dense) {
	rows, _ := y.Dims()
	for i := qr.n - 2; i >= 0; i-- {
		c, s := qr.cos[i], qr.sin[i]
		for j := 0; j < rows; j++ {
			yi, yi1 := y.At(j, i), y.At(j, i+1)
			y.Set(j, i, c*yi-s*yi1)
			y.Set(j, i+1, s*yi+c*yi1)
		}
	}
}

// TridiagQR specializes HessenbergQR to symmetric tridiagonal input,
// exploiting the extra zeros so that each rotation updates only columns i,
// i+1 and i+2 (rather than the full trailing block).
// Externally it behaves identically to HessenbergQR applied to the same
// matrix (same R, same Q, same Apply* results).
type TridiagQR struct {
	HessenbergQR
}

// NewTridiagQR returns a TridiagQR ready to factorize n x n matrices.
func NewTridiagQR(n int) *TridiagQR {
	return &TridiagQR{HessenbergQR{n: n}}
}

// Factorize computes the QR decomposition of the tridiagonal matrix h,
// which is supplied as a full n x n matrix (only the tridiagonal band is read).
func (qr *TridiagQR) Factorize(h mat.Matrix) {
	n := qr.n
	r := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		r.Set(i, i, h.At(i, i))
		if i+1 < n {
			sub := h.At(i+1, i)
			r.Set(i+1, i, sub)
			r.Set(i, i+1, sub)
		}
	}
	cos := make([]float64, n-1)
	sin := make([]float64, n-1)

	for i := 0; i < n-1; i++ {
		a, b := r.At(i, i), r.At(i+1, i)
		c, s := givensRotation(a, b)
		cos[i], sin[i] = c, s
		r.Set(i, i, c*a+s*b)
		// Only columns i, i+1, i+2 of row i+1 can be nonzero before this
		// rotation; row i only has columns i, i+1 (tridiagonal plus the one
		// column of fill-in introduced by the previous rotation, already
		// folded into r by construction of the running update below).
		hi := r.At(i, i + 1)
		hi1 := r.At(i+1, i+1)
		r.Set(i, i+1, c*hi+s*hi1)
		r.Set(i+1, i+1, -s*hi+c*hi1)
		if i+2 < n {
			hi2 := r.At(i+1, i+2)
			r.Set(i, i+2, s*hi2)
			r.Set(i+1, i+2, c*hi2)
		}
		r.Set(i+1, i, 0)
	}

	qr.r, qr.cos, qr.sin = r, cos, sin
}
