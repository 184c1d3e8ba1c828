package arnoldi

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// DoubleShiftQR performs one implicit double-shift QR step on an upper
// Hessenberg matrix H: it factors (H^2 - s*H + t*I) without forming it
// explicitly, via a chain of 3-element Householder reflectors that zero
// the first column and then chase the resulting bulge down the
// subdiagonal, deflating at subdiagonal entries that are already
// negligible. Used by GenEigs when a restart shift is a complex-conjugate
// pair; s and t are chosen so that x^2 - s*x + t = 0 has that pair as roots.
type DoubleShiftQR struct {
	n        int
	h        [][]float64
	s, t     float64
	refU     [][3]float64
	computed bool
}

// NewDoubleShiftQR returns a DoubleShiftQR with no matrix factorized yet.
func NewDoubleShiftQR() *DoubleShiftQR {
	return &DoubleShiftQR{}
}

// Factorize computes the implicit double-shift QR step for the upper
// Hessenberg matrix h with shift constants s, t.
func (qr *DoubleShiftQR) Factorize(h mat.Matrix, s, t float64) error {
	rows, cols := h.Dims()
	if rows != cols {
		return errNotSquare(rows, cols)
	}
	n := rows
	hh := make([][]float64, n)
	for i := range hh {
		hh[i] = make([]float64, n)
		for j := i; j < n; j++ {
			hh[i][j] = h.At(i, j)
		}
	}
	for i := 1; i < n; i++ {
		hh[i][i-1] = h.At(i, i-1)
	}

	qr.n, qr.h, qr.s, qr.t = n, hh, s, t
	qr.refU = make([][3]float64, n)
	qr.computed = false

	if n < 2 {
		qr.computed = true
		return nil
	}

	prec2 := math.Min(math.Pow(machineEps, 2.0/3.0), float64(n)*machineEps)

	zeroInd := []int{0}
	for i := 1; i < n-1; i++ {
		if math.Abs(hh[i][i-1]) <= prec2 {
			hh[i][i-1] = 0
			zeroInd = append(zeroInd, i)
		}
	}
	zeroInd = append(zeroInd, n)

	for bi := 0; bi < len(zeroInd)-1; bi++ {
		start := zeroInd[bi]
		end := zeroInd[bi+1] - 1
		blockSize := end - start + 1

		qr.computeReflectorsFromBlock(start, blockSize)

		if end < n-1 && blockSize >= 2 {
			for j := start; j < end; j++ {
				cnt := min(3, end-j+1)
				qr.applyPXBlock(j, cnt, end+1, n-1-end, j)
			}
		}
		if start > 0 && blockSize >= 2 {
			for j := start; j < end; j++ {
				cnt := min(3, end-j+1)
				qr.applyXPBlock(0, start, j, cnt, j)
			}
		}
	}

	qr.computed = true
	return nil
}

// computeReflector sets the ind-th reflector from the 3-vector (x1,x2,x3).
func (qr *DoubleShiftQR) computeReflector(x1, x2, x3 float64, ind int) {
	if math.Abs(x1)+math.Abs(x2)+math.Abs(x3) <= 3*machineEps {
		qr.refU[ind] = [3]float64{}
		return
	}
	var sign float64
	switch {
	case x1 > 0:
		sign = 1
	case x1 < 0:
		sign = -1
	}
	tmp := x2*x2 + x3*x3
	x1New := x1 + sign*math.Sqrt(x1*x1+tmp)
	xNorm := math.Sqrt(x1New*x1New + tmp)
	qr.refU[ind] = [3]float64{x1New / xNorm, x2 / xNorm, x3 / xNorm}
}

func (qr *DoubleShiftQR) computeReflectorFromCol(row, col, ind int) {
	qr.computeReflector(qr.h[row][col], qr.h[row+1][col], qr.h[row+2][col], ind)
}

// computeReflectorsFromBlock builds the reflector chain for the diagonal
// block spanning global rows/cols [start, start+blockSize-1], assuming the
// block's subdiagonal entries are all nonzero (deflation already removed
// the zero ones between blocks).
func (qr *DoubleShiftQR) computeReflectorsFromBlock(start, blockSize int) {
	if blockSize == 1 {
		qr.computeReflector(0, 0, 0, start)
		return
	}
	if blockSize == 2 {
		x := qr.h[start][start]*(qr.h[start][start]-qr.s) + qr.h[start][start+1]*qr.h[start+1][start] + qr.t
		y := qr.h[start+1][start] * (qr.h[start][start] + qr.h[start+1][start+1] - qr.s)
		qr.computeReflector(x, y, 0, start)
		qr.applyPXBlock(start, 2, start, 2, start)
		qr.applyXPBlock(start, 2, start, 2, start)
		qr.computeReflector(0, 0, 0, start+1)
		return
	}

	x := qr.h[start][start]*(qr.h[start][start]-qr.s) + qr.h[start][start+1]*qr.h[start+1][start] + qr.t
	y := qr.h[start+1][start] * (qr.h[start][start] + qr.h[start+1][start+1] - qr.s)
	z := qr.h[start+2][start+1] * qr.h[start+1][start]
	qr.computeReflector(x, y, z, start)
	qr.applyPXBlock(start, 3, start, blockSize, start)
	qr.applyXPBlock(start, min(blockSize, 4), start, 3, start)

	for i := 1; i < blockSize-2; i++ {
		qr.computeReflectorFromCol(start+i, start+i-1, start+i)
		qr.applyPXBlock(start+i, 3, start+i-1, blockSize-i+1, start+i)
		qr.applyXPBlock(start, min(blockSize, i+4), start+i, 3, start+i)
	}

	last := start + blockSize - 2
	qr.computeReflector(qr.h[start+blockSize-2][start+blockSize-3], qr.h[start+blockSize-1][start+blockSize-3], 0, last)
	qr.applyPXBlock(start+blockSize-2, 2, start+blockSize-3, 3, last)
	qr.applyXPBlock(start, blockSize, start+blockSize-2, 2, last)

	qr.computeReflector(0, 0, 0, start+blockSize-1)
}

// applyPXBlock applies reflector uInd from the left to the block of qr.h
// spanning rows [rowStart, rowStart+nrow-1], cols [colStart, colStart+ncol-1].
func (qr *DoubleShiftQR) applyPXBlock(rowStart, nrow, colStart, ncol, uInd int) {
	sqrt2 := math.Sqrt2
	u0 := sqrt2 * qr.refU[uInd][0]
	u1 := sqrt2 * qr.refU[uInd][1]
	u2 := sqrt2 * qr.refU[uInd][2]
	if math.Abs(u0)+math.Abs(u1)+math.Abs(u2) <= 3*sqrt2*machineEps {
		return
	}
	for j := 0; j < ncol; j++ {
		col := colStart + j
		if nrow == 2 {
			x0, x1 := qr.h[rowStart][col], qr.h[rowStart+1][col]
			tmp := u0*x0 + u1*x1
			qr.h[rowStart][col] = x0 - tmp*u0
			qr.h[rowStart+1][col] = x1 - tmp*u1
		} else {
			x0, x1, x2 := qr.h[rowStart][col], qr.h[rowStart+1][col], qr.h[rowStart+2][col]
			tmp := u0*x0 + u1*x1 + u2*x2
			qr.h[rowStart][col] = x0 - tmp*u0
			qr.h[rowStart+1][col] = x1 - tmp*u1
			qr.h[rowStart+2][col] = x2 - tmp*u2
		}
	}
}

// applyXPBlock applies reflector uInd from the right to the block of qr.h
// spanning rows [rowStart, rowStart+nrow-1], cols [colStart, colStart+ncol-1].
func (qr *DoubleShiftQR) applyXPBlock(rowStart, nrow, colStart, ncol, uInd int) {
	sqrt2 := math.Sqrt2
	u0 := sqrt2 * qr.refU[uInd][0]
	u1 := sqrt2 * qr.refU[uInd][1]
	u2 := sqrt2 * qr.refU[uInd][2]
	if math.Abs(u0)+math.Abs(u1)+math.Abs(u2) <= 3*sqrt2*machineEps {
		return
	}
	for i := 0; i < nrow; i++ {
		row := rowStart + i
		if ncol == 2 {
			x0, x1 := qr.h[row][colStart], qr.h[row][colStart+1]
			tmp := u0*x0 + u1*x1
			qr.h[row][colStart] = x0 - tmp*u0
			qr.h[row][colStart+1] = x1 - tmp*u1
		} else {
			x0, x1, x2 := qr.h[row][colStart], qr.h[row][colStart+1], qr.h[row][colStart+2]
			tmp := u0*x0 + u1*x1 + u2*x2
			qr.h[row][colStart] = x0 - tmp*u0
			qr.h[row][colStart+1] = x1 - tmp*u1
			qr.h[row][colStart+2] = x2 - tmp*u2
		}
	}
}

// MatrixQtHQ returns Q^T*H*Q, the result of the implicit double-shift step.
func (qr *DoubleShiftQR) MatrixQtHQ() (*mat.Dense, error) {
	if !qr.computed {
		return nil, errNotComputed("DoubleShiftQR.MatrixQtHQ")
	}
	out := mat.NewDense(qr.n, qr.n, nil)
	for i := 0; i < qr.n; i++ {
		for j := 0; j < qr.n; j++ {
			out.Set(i, j, qr.h[i][j])
		}
	}
	return out, nil
}

// ApplyQtYTo overwrites the length-n vector y with Q^T*y.
func (qr *DoubleShiftQR) ApplyQtYTo(y []float64) error {
	if !qr.computed {
		return errNotComputed("DoubleShiftQR.ApplyQtYTo")
	}
	for i := 0; i < qr.n-1; i++ {
		qr.applyPXVec(y, i, i)
	}
	return nil
}

func (qr *DoubleShiftQR) applyPXVec(x []float64, idx, uInd int) {
	u0, u1, u2 := qr.refU[uInd][0], qr.refU[uInd][1], qr.refU[uInd][2]
	if math.Abs(u0)+math.Abs(u1)+math.Abs(u2) <= 3*machineEps {
		return
	}
	u2IsZero := math.Abs(u2) <= machineEps
	dot := x[idx]*u0 + x[idx+1]*u1
	if !u2IsZero {
		dot += x[idx+2] * u2
	}
	dot *= 2
	x[idx] -= dot * u0
	x[idx+1] -= dot * u1
	if !u2IsZero {
		x[idx+2] -= dot * u2
	}
}

// ApplyYQTo overwrites the r x n matrix Y with Y*Q.
func (qr *DoubleShiftQR) ApplyYQTo(y *mat.Dense) error {
	if !qr.computed {
		return errNotComputed("DoubleShiftQR.ApplyYQTo")
	}
	rows, _ := y.Dims()
	for i := 0; i < qr.n-2; i++ {
		qr.applyXPBlockDense(y, 0, rows, i, 3, i)
	}
	qr.applyXPBlockDense(y, 0, rows, qr.n-2, 2, qr.n-2)
	return nil
}

func (qr *DoubleShiftQR) applyXPBlockDense(y *mat.Dense, rowStart, nrow, colStart, ncol, uInd int) {
	sqrt2 := math.Sqrt2
	u0 := sqrt2 * qr.refU[uInd][0]
	u1 := sqrt2 * qr.refU[uInd][1]
	u2 := sqrt2 * qr.refU[uInd][2]
	if math.Abs(u0)+math.Abs(u1)+math.Abs(u2) <= 3*sqrt2*machineEps {
		return
	}
	for i := 0; i < nrow; i++ {
		row := rowStart + i
		if ncol == 2 {
			x0, x1 := y.At(row, colStart), y.At(row, colStart+1)
			tmp := u0*x0 + u1*x1
			y.Set(row, colStart, x0-tmp*u0)
			y.Set(row, colStart+1, x1-tmp*u1)
		} else {
			x0, x1, x2 := y.At(row, colStart), y.At(row, colStart+1), y.At(row, colStart+2)
			tmp := u0*x0 + u1*x1 + u2*x2
			y.Set(row, colStart, x0-tmp*u0)
			y.Set(row, colStart+1, x1-tmp*u1)
			y.Set(row, colStart+2, x2-tmp*u2)
		}
	}
}
