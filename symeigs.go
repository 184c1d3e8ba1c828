package arnoldi

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// SymEigs computes a few eigenvalues and eigenvectors of a symmetric linear
// operator via Lanczos factorization and implicitly restarted single-shift
// QR (IRLM).
type SymEigs struct {
	op   Product
	n, k, m int
	rule SelectionRule

	v    *mat.Dense // n x m, columns 0..step-1 meaningful
	h    *mat.Dense // m x m, tridiagonal
	f    []float64  // length n, current residual
	step int        // current factorization length j

	ritzVal  []float64  // length m, descending under rule (BothEnds: see retrieveRitzPair)
	ritzVec  *mat.Dense // m x k
	ritzConv []bool     // length k

	numIter, numOps int
}

// NewSymEigs constructs a symmetric eigensolver for op requesting k
// eigenpairs from an m-dimensional Krylov subspace, ranked by rule. The
// solver is left uninitialized; call Init or InitRandom before Compute.
func NewSymEigs(op Product, k, m int, rule SelectionRule) (*SymEigs, error) {
	n := op.Dim()
	if n < 1 {
		return nil, errNotSquare(n, n)
	}
	if k < 1 || k >= n {
		return nil, errBadK(k, n)
	}
	if m < k+1 || m > n {
		return nil, errBadM(m, k, n, 1)
	}
	if err := validateForSymmetric(rule); err != nil {
		return nil, err
	}
	return &SymEigs{
		op:       op,
		n:        n,
		k:        k,
		m:        m,
		rule:     rule,
		v:        mat.NewDense(n, m, nil),
		h:        mat.NewDense(m, m, nil),
		f:        make([]float64, n),
		ritzVal:  make([]float64, m),
		ritzVec:  mat.NewDense(m, k, nil),
		ritzConv: make([]bool, k),
	}, nil
}

// Init resets the solver and loads initVec (length n) as the start vector.
func (s *SymEigs) Init(initVec []float64) error {
	if len(initVec) != s.n {
		return errInitVecLen(len(initVec), s.n)
	}
	v := make([]float64, s.n)
	copy(v, initVec)
	return s.initFrom(v)
}

// InitRandom resets the solver and loads a random start vector.
func (s *SymEigs) InitRandom() error {
	v := make([]float64, s.n)
	for i := range v {
		v[i] = rand.NormFloat64()
	}
	return s.initFrom(v)
}

func (s *SymEigs) initFrom(v []float64) error {
	s.v.Zero()
	s.h.Zero()
	for i := range s.f {
		s.f[i] = 0
	}
	for i := range s.ritzVal {
		s.ritzVal[i] = 0
	}
	s.ritzVec.Zero()
	for i := range s.ritzConv {
		s.ritzConv[i] = false
	}
	s.step = 1
	s.numIter, s.numOps = 0, 0

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

func (s *SymEigs) applyOp(dst, x []float64) {
	xv := mat.NewVecDense(s.n, x)
	dv := mat.NewVecDense(s.n, dst)
	s.op.Apply(dv, xv)
	s.numOps++
}

// factorizeFrom extends the Lanczos factorization from length fromK to
// length toM, starting from residual fk.
func (s *SymEigs) factorizeFrom(fromK, toM int, fk []float64) {
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
	s.step = toM
}

// randomOrthogonal returns a unit vector orthogonal to V[:,0:upTo].
func (s *SymEigs) randomOrthogonal(upTo int) []float64 {
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

func frobeniusNorm(m *mat.Dense) float64 {
	r, c := m.Dims()
	var sum float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			x := m.At(i, j)
			sum += x * x
		}
	}
	return math.Sqrt(sum)
}

// retrieveRitzPair eigendecomposes H, ranks the results by the active
// selection rule, and stores the first k pairs (with BothEnds's low/high
// split applied to those first k slots only).
func (s *SymEigs) retrieveRitzPair() error {
	vals, vecs, err := eigSymTridiag(s.h)
	if err != nil {
		return err
	}
	cvals := make([]complex128, s.m)
	for i, v := range vals {
		cvals[i] = complex(v, 0)
	}
	idx := sortedIndices(cvals, s.rule)

	for i, src := range idx {
		s.ritzVal[i] = vals[src]
	}
	for i := 0; i < s.k; i++ {
		col := mat.Col(nil, idx[i], vecs)
		s.ritzVec.SetCol(i, col)
	}

	if s.rule == BothEnds {
		top := (s.k + 1) / 2
		bot := s.k - top
		for j := 0; j < bot; j++ {
			tailPos := s.m - 1 - j
			// Swap rather than copy, so the displaced middle values end up
			// in the tail, where restart takes its shifts from.
			s.ritzVal[top+j], s.ritzVal[tailPos] = s.ritzVal[tailPos], s.ritzVal[top+j]
			col := mat.Col(nil, idx[tailPos], vecs)
			s.ritzVec.SetCol(top+j, col)
		}
	}
	return nil
}

// converged tests the first k Ritz pairs against the residual bound.
func (s *SymEigs) converged(tol float64) bool {
	fNorm := floats.Norm(s.f, 2)
	all := true
	for i := 0; i < s.k; i++ {
		bound := tol * math.Max(precConv, math.Abs(s.ritzVal[i]))
		resid := math.Abs(s.ritzVec.At(s.m-1, i)) * fNorm
		conv := resid < bound
		s.ritzConv[i] = conv
		if !conv {
			all = false
		}
	}
	return all
}

// restart contracts the factorization from length m to kPrime via m-kPrime
// real single-shift QR steps using the unwanted (tail) Ritz values as
// shifts, then re-factorizes back out to length m.
func (s *SymEigs) restart(kPrime int) {
	if s.step != s.m || kPrime >= s.m {
		return
	}
	qr := NewTridiagQR(s.m)
	em := make([]float64, s.m)
	em[s.m-1] = 1
	emMat := mat.NewDense(s.m, 1, em)

	vRows, _ := s.v.Dims()
	vBlock := mat.NewDense(vRows, s.m, nil)

	for i := kPrime; i < s.m; i++ {
		shifted := mat.NewDense(s.m, s.m, nil)
		shifted.Copy(s.h)
		for d := 0; d < s.m; d++ {
			shifted.Set(d, d, shifted.At(d, d)-s.ritzVal[i])
		}
		qr.Factorize(shifted)

		vBlock.Copy(s.v)
		qr.ApplyYQTo(vBlock)
		s.v.Copy(vBlock)

		newH := qr.MatrixRQ()
		for d := 0; d < s.m; d++ {
			newH.Set(d, d, newH.At(d, d)+s.ritzVal[i])
		}
		s.h.Copy(newH)

		qr.ApplyQtYTo(emMat)
	}

	fk := make([]float64, s.n)
	copy(fk, s.f)
	floats.Scale(em[kPrime-1], fk)
	s.factorizeFrom(kPrime, s.m, fk)
	if err := s.retrieveRitzPair(); err != nil {
		// Eigendecomposition failure here indicates a broken invariant
		// (non-finite entries in H); there is no way to recover mid-restart,
		// so the solver simply stops improving and converged() will keep
		// failing until maxit is exhausted.
		return
	}
	s.numIter++
}

// finalSortByMagnitude re-sorts the first k stored Ritz pairs by descending
// magnitude. Skipped for BothEnds, whose own split already defines the
// intended return order (see retrieveRitzPair).
func (s *SymEigs) finalSortByMagnitude() {
	cvals := make([]complex128, s.k)
	for i := 0; i < s.k; i++ {
		cvals[i] = complex(s.ritzVal[i], 0)
	}
	idx := sortedIndices(cvals, LargestMagn)

	newVal := make([]float64, s.k)
	newConv := make([]bool, s.k)
	newVec := mat.NewDense(s.m, s.k, nil)
	for i, src := range idx {
		newVal[i] = s.ritzVal[src]
		newConv[i] = s.ritzConv[src]
		col := mat.Col(nil, src, s.ritzVec)
		newVec.SetCol(i, col)
	}
	copy(s.ritzVal[:s.k], newVal)
	copy(s.ritzConv, newConv)
	s.ritzVec.Copy(newVec)
}

// Compute runs the restart loop to completion or maxit restarts, whichever
// comes first, and returns the number of converged eigenpairs.
func (s *SymEigs) Compute(maxit int, tol float64) (int, error) {
	s.factorizeFrom(1, s.m, s.f)
	if err := s.retrieveRitzPair(); err != nil {
		return 0, err
	}

	for i := 0; i < maxit; i++ {
		if s.converged(tol) {
			break
		}
		s.restart(s.k)
	}

	if s.rule != BothEnds {
		s.finalSortByMagnitude()
	}

	nconv := 0
	for _, c := range s.ritzConv {
		if c {
			nconv++
		}
	}
	return nconv, nil
}

// NumIterations returns the number of outer restarts performed.
func (s *SymEigs) NumIterations() int { return s.numIter }

// NumOperations returns the number of times the operator was applied.
func (s *SymEigs) NumOperations() int { return s.numOps }

// Eigenvalues returns the converged eigenvalues.
func (s *SymEigs) Eigenvalues() []float64 {
	var res []float64
	for i := 0; i < s.k; i++ {
		if s.ritzConv[i] {
			res = append(res, s.ritzVal[i])
		}
	}
	return res
}

// Eigenvectors returns the converged eigenvectors as columns of an n x
// nconv matrix.
func (s *SymEigs) Eigenvectors() *mat.Dense {
	nconv := 0
	for _, c := range s.ritzConv {
		if c {
			nconv++
		}
	}
	if nconv == 0 {
		return mat.NewDense(s.n, 0, nil)
	}

	ritzVecConv := mat.NewDense(s.m, nconv, nil)
	j := 0
	for i := 0; i < s.k; i++ {
		if s.ritzConv[i] {
			col := mat.Col(nil, i, s.ritzVec)
			ritzVecConv.SetCol(j, col)
			j++
		}
	}
	out := mat.NewDense(s.n, nconv, nil)
	out.Mul(s.v, ritzVecConv)
	return out
}
