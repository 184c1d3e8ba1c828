package arnoldi

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// eigSymTridiag computes the eigenvalues (ascending) and orthonormal
// eigenvectors of the m x m symmetric tridiagonal matrix held in h (only
// the tridiagonal band of h is read). Mirrors mat.EigenSym.Factorize, which
// itself wraps lapack64.Syev; applied here to the small Krylov-projected
// matrix rather than the original n x n operator.
func eigSymTridiag(h *mat.Dense) (vals []float64, vecs *mat.Dense, err error) {
	m, _ := h.Dims()
	sym := mat.NewSymDense(m, nil)
	for i := 0; i < m; i++ {
		sym.SetSym(i, i, h.At(i, i))
		if i+1 < m {
			sym.SetSym(i, i+1, h.At(i, i+1))
		}
	}

	var eig mat.EigenSym
	ok := eig.Factorize(sym, true)
	if !ok {
		return nil, nil, errors.New("arnoldi: symmetric eigendecomposition failed to converge")
	}

	vals = eig.Values(nil)
	vd := mat.NewDense(m, m, nil)
	eig.VectorsTo(vd)
	return vals, vd, nil
}

// eigGeneralHessenberg computes the (possibly complex) eigenvalues and
// right eigenvectors of the m x m upper-Hessenberg matrix h. Mirrors
// mat.Eigen.Factorize, which wraps lapack64.Geev.
func eigGeneralHessenberg(h *mat.Dense) (vals []complex128, vecs *mat.CDense, err error) {
	m, _ := h.Dims()

	var eig mat.Eigen
	ok := eig.Factorize(h, mat.EigenRight)
	if !ok {
		return nil, nil, errors.New("arnoldi: general eigendecomposition failed to converge")
	}

	vals = eig.Values(nil)
	cv := mat.NewCDense(m, m, nil)
	eig.VectorsTo(cv)
	return vals, cv, nil
}
