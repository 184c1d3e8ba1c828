package arnoldi

import (
	"math"
	"math/cmplx"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// GenEigs computes a few eigenvalues and eigenvectors of a general
// (non-symmetric) real linear operator via Arnoldi factorization and
// implicitly restarted QR (IRAM), mixing real single shifts with Householder
// double shifts whenever a restart shift pair is complex-conjugate.
type GenEigs struct {
	op      Product
	n, k, m int
	rule    SelectionRule
	nevConj int

	v *mat.Dense // n x m
	h *mat.Dense // m x m, upper Hessenberg
	f []float64  // length n

	ritzVal  []complex128 // length m
	ritzVec  *mat.CDense  // m x k
	ritzConv []bool       // length k

	numIter, numOps int
}

// NewGenEigs constructs a general eigensolver for op requesting k
// eigenpairs from an m-dimensional Krylov subspace, ranked by rule.
func NewGenEigs(op Product, k, m int, rule SelectionRule) (*GenEigs, error) {
	n := op.Dim()
	if n < 1 {
		return nil, errNotSquare(n, n)
	}
	if k < 1 || k >= n {
		return nil, errBadK(k, n)
	}
	if m < k+2 || m > n {
		return nil, errBadM(m, k, n, 2)
	}
	if err := validateForGeneral(rule); err != nil {
		return nil, err
	}
	return &GenEigs{
		op:       op,
		n:        n,
		k:        k,
		m:        m,
		rule:     rule,
		nevConj:  k,
		v:        mat.NewDense(n, m, nil),
		h:        mat.NewDense(m, m, nil),
		f:        make([]float64, n),
		ritzVal:  make([]complex128, m),
		ritzVec:  mat.NewCDense(m, k, nil),
		ritzConv: make([]bool, k),
	}, nil
}

// Init resets the solver and loads initVec (length n) as the start vector.
func (s *GenEigs) Init(initVec []float64) error {
	if len(initVec) != s.n {
		return errInitVecLen(len(initVec), s.n)
	}
	v := make([]float64, s.n)
	copy(v, initVec)
	return s.initFrom(v)
}

// InitRandom resets the solver and loads a random start vector.
func (s *GenEigs) InitRandom() error {
	v := make([]float64, s.n)
	for i := range v {
		v[i] = rand.NormFloat64()
	}
	return s.initFrom(v)
}

func (s *GenEigs) initFrom(v []float64) error {
	s.v.Zero()
	s.h.Zero()
	for i := range s.f {
		s.f[i] = 0
	}
	for i := range s.ritzVal {
		s.ritzVal[i] = 0
	}
	for i := 0; i < s.m; i++ {
		for j := 0; j < s.k; j++ {
			s.ritzVec.Set(i, j, 0)
		}
	}
	for i := range s.ritzConv {
		s.ritzConv[i] = false
	}
	s.numIter, s.numOps = 0, 0
	s.nevConj = s.k

	norm := floats.Norm(v, 2)
	floats.Scale(1/norm, v)
	s.v.SetCol(0, v)

	w := make([]float64, s.n)
	s.applyOp(w, v)
	alpha := floats.Dot(v, w)
	s.h.Set(0, 0, alpha)

	f := make([]float64, s.n)
	copy(f, w)
	floats.AddScaled(f, -alpha, v)
	copy(s.f, f)
	return nil
}

func (s *GenEigs) applyOp(dst, x []float64) {
	xv := mat.NewVecDense(s.n, x)
	dv := mat.NewVecDense(s.n, dst)
	s.op.Apply(dv, xv)
	s.numOps++
}

// factorizeFrom extends the Arnoldi factorization from length fromK to
// length toM, starting from residual fk. Identical recurrence to the
// symmetric engine's (see symeigs.go); unlike the symmetric case, h need
// not be tridiagonal, so no banding assumption is made.
func (s *GenEigs) factorizeFrom(fromK, toM int, fk []float64) {
	if toM <= fromK {
		return
	}
	f := make([]float64, s.n)
	copy(f, fk)

	for i := fromK; i < toM; i++ {
		beta := floats.Norm(f, 2)
		var v []float64
		if beta < machineEps*frobeniusNorm(s.h) {
			v = s.randomOrthogonal(i)
			beta = 0
		} else {
			v = make([]float64, s.n)
			copy(v, f)
			floats.Scale(1/beta, v)
		}
		s.v.SetCol(i, v)
		for j := 0; j < i; j++ {
			s.h.Set(i, j, 0)
		}
		if i > 0 {
			s.h.Set(i, i-1, beta)
		}

		w := make([]float64, s.n)
		s.applyOp(w, v)

		h := make([]float64, i+1)
		for col := 0; col <= i; col++ {
			vj := mat.Col(nil, col, s.v)
			h[col] = floats.Dot(vj, w)
		}
		newf := make([]float64, s.n)
		copy(newf, w)
		for col := 0; col <= i; col++ {
			vj := mat.Col(nil, col, s.v)
			floats.AddScaled(newf, -h[col], vj)
		}

		prevNorm := floats.Norm(newf, 2)
		for round := 0; round < maxDGKSRounds; round++ {
			corr := make([]float64, i+1)
			for col := 0; col <= i; col++ {
				vj := mat.Col(nil, col, s.v)
				corr[col] = floats.Dot(vj, newf)
			}
			for col := 0; col <= i; col++ {
				vj := mat.Col(nil, col, s.v)
				floats.AddScaled(newf, -corr[col], vj)
				h[col] += corr[col]
			}
			newNorm := floats.Norm(newf, 2)
			significant := newNorm <= prevNorm/math.Sqrt2
			prevNorm = newNorm
			if round >= 1 && !significant {
				break
			}
		}

		for col := 0; col <= i; col++ {
			s.h.Set(col, i, h[col])
		}
		f = newf
	}
	copy(s.f, f)
}

func (s *GenEigs) randomOrthogonal(upTo int) []float64 {
	v := make([]float64, s.n)
	for attempt := 0; attempt < 10; attempt++ {
		for j := range v {
			v[j] = rand.NormFloat64()
		}
		for col := 0; col < upTo; col++ {
			vj := mat.Col(nil, col, s.v)
			d := floats.Dot(vj, v)
			floats.AddScaled(v, -d, vj)
		}
		norm := floats.Norm(v, 2)
		if norm > machineEps {
			floats.Scale(1/norm, v)
			return v
		}
	}
	return v
}

func (s *GenEigs) isComplex(v complex128) bool {
	return math.Abs(imag(v)) > precConv
}

func (s *GenEigs) isConjPair(v1, v2 complex128) bool {
	return cmplxAbs(v1-cmplx.Conj(v2)) < precConv
}

// retrieveRitzPair eigendecomposes H, ranks the results by the active
// selection rule, stores the first k pairs, and determines nevConj: the
// restart boundary is widened by one whenever the k-th and (k+1)-th ranked
// Ritz values form a conjugate pair, so a double-shift restart never
// straddles the boundary.
func (s *GenEigs) retrieveRitzPair() error {
	vals, vecs, err := eigGeneralHessenberg(s.h)
	if err != nil {
		return err
	}
	idx := sortedIndices(vals, s.rule)

	for i, src := range idx {
		s.ritzVal[i] = vals[src]
	}
	for i := 0; i < s.k; i++ {
		src := idx[i]
		for row := 0; row < s.m; row++ {
			s.ritzVec.Set(row, i, vecs.At(row, src))
		}
	}

	if s.k < s.m && s.isComplex(s.ritzVal[s.k-1]) && s.isConjPair(s.ritzVal[s.k-1], s.ritzVal[s.k]) {
		s.nevConj = s.k + 1
	} else {
		s.nevConj = s.k
	}
	return nil
}

func (s *GenEigs) converged(tol float64) bool {
	fNorm := floats.Norm(s.f, 2)
	all := true
	for i := 0; i < s.k; i++ {
		bound := tol * math.Max(precConv, cmplxAbs(s.ritzVal[i]))
		resid := cmplxAbs(s.ritzVec.At(s.m-1, i)) * fNorm
		conv := resid < bound
		s.ritzConv[i] = conv
		if !conv {
			all = false
		}
	}
	return all
}

// restart contracts the factorization from length m to kPrime, applying a
// double-shift step for each conjugate Ritz-value pair in [kPrime, m) and a
// real single-shift step otherwise, then re-factorizes back out to length m.
func (s *GenEigs) restart(kPrime int) {
	if kPrime >= s.m {
		return
	}
	hqr := NewHessenbergQR(s.m)
	dqr := NewDoubleShiftQR()
	em := make([]float64, s.m)
	em[s.m-1] = 1
	emMat := mat.NewDense(s.m, 1, em)

	vRows, _ := s.v.Dims()
	vBlock := mat.NewDense(vRows, s.m, nil)

	for i := kPrime; i < s.m; {
		if i+1 < s.m && s.isComplex(s.ritzVal[i]) && s.isConjPair(s.ritzVal[i], s.ritzVal[i+1]) {
			re := real(s.ritzVal[i])
			mag := cmplxAbs(s.ritzVal[i])
			if err := dqr.Factorize(s.h, 2*re, mag*mag); err != nil {
				return
			}

			vBlock.Copy(s.v)
			if err := dqr.ApplyYQTo(vBlock); err != nil {
				return
			}
			s.v.Copy(vBlock)

			newH, err := dqr.MatrixQtHQ()
			if err != nil {
				return
			}
			s.h.Copy(newH)

			if err := dqr.ApplyQtYTo(em); err != nil {
				return
			}
			i += 2
		} else {
			mu := real(s.ritzVal[i])
			shifted := mat.NewDense(s.m, s.m, nil)
			shifted.Copy(s.h)
			for d := 0; d < s.m; d++ {
				shifted.Set(d, d, shifted.At(d, d)-mu)
			}
			hqr.Factorize(shifted)

			vBlock.Copy(s.v)
			hqr.ApplyYQTo(vBlock)
			s.v.Copy(vBlock)

			newH := hqr.MatrixRQ()
			for d := 0; d < s.m; d++ {
				newH.Set(d, d, newH.At(d, d)+mu)
			}
			s.h.Copy(newH)

			hqr.ApplyQtYTo(emMat)
			i++
		}
	}

	fk := make([]float64, s.n)
	copy(fk, s.f)
	floats.Scale(em[kPrime-1], fk)
	s.factorizeFrom(kPrime, s.m, fk)
	if err := s.retrieveRitzPair(); err != nil {
		return
	}
	s.numIter++
}

// finalSortByMagnitude re-sorts the first k stored Ritz pairs by descending
// magnitude, always applied for the general engine.
func (s *GenEigs) finalSortByMagnitude() {
	idx := sortedIndices(s.ritzVal[:s.k], LargestMagn)

	old := make([]complex128, s.m*s.k)
	for col := 0; col < s.k; col++ {
		for row := 0; row < s.m; row++ {
			old[col*s.m+row] = s.ritzVec.At(row, col)
		}
	}
	newVal := make([]complex128, s.k)
	newConv := make([]bool, s.k)
	for i, src := range idx {
		newVal[i] = s.ritzVal[src]
		newConv[i] = s.ritzConv[src]
		for row := 0; row < s.m; row++ {
			s.ritzVec.Set(row, i, old[src*s.m+row])
		}
	}
	copy(s.ritzVal[:s.k], newVal)
	copy(s.ritzConv, newConv)
}

// Compute runs the restart loop to completion or maxit restarts, whichever
// comes first, and returns the number of converged eigenpairs.
func (s *GenEigs) Compute(maxit int, tol float64) (int, error) {
	s.factorizeFrom(1, s.m, s.f)
	if err := s.retrieveRitzPair(); err != nil {
		return 0, err
	}

	for i := 0; i < maxit; i++ {
		if s.converged(tol) {
			break
		}
		s.restart(s.nevConj)
	}

	s.finalSortByMagnitude()

	nconv := 0
	for _, c := range s.ritzConv {
		if c {
			nconv++
		}
	}
	return nconv, nil
}

// NumIterations returns the number of outer restarts performed.
func (s *GenEigs) NumIterations() int { return s.numIter }

// NumOperations returns the number of times the operator was applied.
func (s *GenEigs) NumOperations() int { return s.numOps }

// Eigenvalues returns the converged eigenvalues.
func (s *GenEigs) Eigenvalues() []complex128 {
	var res []complex128
	for i := 0; i < s.k; i++ {
		if s.ritzConv[i] {
			res = append(res, s.ritzVal[i])
		}
	}
	return res
}

// Eigenvectors returns the converged eigenvectors as columns of an n x
// nconv complex matrix.
func (s *GenEigs) Eigenvectors() *mat.CDense {
	var cols []int
	for i := 0; i < s.k; i++ {
		if s.ritzConv[i] {
			cols = append(cols, i)
		}
	}
	out := mat.NewCDense(s.n, len(cols), nil)
	if len(cols) == 0 {
		return out
	}
	for row := 0; row < s.n; row++ {
		for ci, col := range cols {
			var sum complex128
			for l := 0; l < s.m; l++ {
				sum += complex(s.v.At(row, l), 0) * s.ritzVec.At(l, col)
			}
			out.Set(row, ci, sum)
		}
	}
	return out
}
