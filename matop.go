package arnoldi

import "gonum.org/v1/gonum/mat"

// Product is a caller-supplied linear operator y = A*x on an n-dimensional
// real vector space. Both SymEigs and GenEigs consume it directly; the
// shift-and-invert wrappers adapt RealShiftSolve/ComplexShiftSolve into a
// Product that computes (A - sigma*I)^-1 * x instead.
type Product interface {
	// Dim returns n, the dimension of the (square) operator.
	Dim() int
	// Apply computes dst = A*x. x and dst must be disjoint and have length Dim().
	Apply(dst, x *mat.VecDense)
}

// RealShiftSolve is a caller-supplied operator that can solve shifted
// systems (A - sigma*I)*y = x for a real shift sigma. Used by
// SymShiftInvert and GenRealShiftInvert.
type RealShiftSolve interface {
	Dim() int
	// SetShift fixes sigma for subsequent Apply calls.
	SetShift(sigma float64)
	// Apply computes dst = (A - sigma*I)^-1 * x using the shift set by SetShift.
	Apply(dst, x *mat.VecDense)
}

// ComplexShiftSolve is a caller-supplied operator that can solve shifted
// systems for a complex shift sigma = sigmaRe + i*sigmaIm, returning the
// real part of the result. Used by GenComplexShiftInvert.
type ComplexShiftSolve interface {
	Dim() int
	// SetShift fixes sigma = sigmaRe + i*sigmaIm for subsequent Apply calls.
	SetShift(sigmaRe, sigmaIm float64)
	// Apply computes dst = Re((A - sigma*I)^-1 * x) using the shift set by SetShift.
	Apply(dst, x *mat.VecDense)
}
