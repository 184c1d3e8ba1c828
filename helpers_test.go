package arnoldi

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// denseProduct is a concrete Product backed by a dense matrix, used only by
// tests to exercise the engines end-to-end. Production callers supply their
// own operator (sparse, matrix-free, ...); a dense wrapper is never exported.
type denseProduct struct {
	a *mat.Dense
}

func newDenseProduct(a *mat.Dense) *denseProduct {
	return &denseProduct{a: a}
}

func (p *denseProduct) Dim() int {
	r, _ := p.a.Dims()
	return r
}

func (p *denseProduct) Apply(dst, x *mat.VecDense) {
	dst.MulVec(p.a, x)
}

// denseRealShiftSolve solves (A - sigma*I)*y = x by dense LU factorization,
// refactored whenever the shift changes.
type denseRealShiftSolve struct {
	a     *mat.Dense
	sigma float64
	lu    mat.LU
	ready bool
}

func newDenseRealShiftSolve(a *mat.Dense) *denseRealShiftSolve {
	return &denseRealShiftSolve{a: a}
}

func (p *denseRealShiftSolve) Dim() int {
	r, _ := p.a.Dims()
	return r
}

func (p *denseRealShiftSolve) SetShift(sigma float64) {
	p.sigma = sigma
	p.ready = false
}

func (p *denseRealShiftSolve) factorize() {
	n := p.Dim()
	shifted := mat.NewDense(n, n, nil)
	shifted.Copy(p.a)
	for i := 0; i < n; i++ {
		shifted.Set(i, i, shifted.At(i, i)-p.sigma)
	}
	p.lu.Factorize(shifted)
	p.ready = true
}

func (p *denseRealShiftSolve) Apply(dst, x *mat.VecDense) {
	if !p.ready {
		p.factorize()
	}
	if err := p.lu.SolveVecTo(dst, false, x); err != nil {
		panic(err)
	}
}

// denseComplexShiftSolve solves Re((A - sigma*I)^-1 * x) by factoring the
// real 2n x 2n system equivalent to the complex shift.
type denseComplexShiftSolve struct {
	a               *mat.Dense
	sigmaRe, sigmaIm float64
	lu              mat.LU
	ready           bool
}

func newDenseComplexShiftSolve(a *mat.Dense) *denseComplexShiftSolve {
	return &denseComplexShiftSolve{a: a}
}

func (p *denseComplexShiftSolve) Dim() int {
	r, _ := p.a.Dims()
	return r
}

func (p *denseComplexShiftSolve) SetShift(sigmaRe, sigmaIm float64) {
	p.sigmaRe, p.sigmaIm = sigmaRe, sigmaIm
	p.ready = false
}

// factorize builds the 2n x 2n real block form of (A - sigma*I) acting on
// (Re,Im) pairs: [[A-sigmaRe*I, sigmaIm*I], [-sigmaIm*I, A-sigmaRe*I]].
func (p *denseComplexShiftSolve) factorize() {
	n := p.Dim()
	block := mat.NewDense(2*n, 2*n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := p.a.At(i, j)
			block.Set(i, j, v)
			block.Set(n+i, n+j, v)
		}
		block.Set(i, i, block.At(i, i)-p.sigmaRe)
		block.Set(n+i, n+i, block.At(n+i, n+i)-p.sigmaRe)
		block.Set(i, n+i, p.sigmaIm)
		block.Set(n+i, i, -p.sigmaIm)
	}
	p.lu.Factorize(block)
	p.ready = true
}

func (p *denseComplexShiftSolve) Apply(dst, x *mat.VecDense) {
	if !p.ready {
		p.factorize()
	}
	n := p.Dim()
	rhs := mat.NewVecDense(2*n, nil)
	for i := 0; i < n; i++ {
		rhs.SetVec(i, x.AtVec(i))
	}
	sol := mat.NewVecDense(2*n, nil)
	if err := p.lu.SolveVecTo(sol, false, rhs); err != nil {
		panic(err)
	}
	for i := 0; i < n; i++ {
		dst.SetVec(i, sol.AtVec(i))
	}
}

// diag builds an n x n diagonal matrix from vals.
func diag(vals ...float64) *mat.Dense {
	n := len(vals)
	d := mat.NewDense(n, n, nil)
	for i, v := range vals {
		d.Set(i, i, v)
	}
	return d
}

// unitVector returns the length-n vector (1,1,...,1)/sqrt(n).
func unitVector(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1
	}
	scale := 1 / math.Sqrt(float64(n))
	for i := range v {
		v[i] *= scale
	}
	return v
}
