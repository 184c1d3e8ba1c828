package arnoldi

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

const qrTol = 1e-9

func sampleHessenberg(n int) *mat.Dense {
	h := mat.NewDense(n, n, nil)
	v := 1.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if j >= i-1 {
				h.Set(i, j, v)
				v += 0.37
			}
		}
	}
	return h
}

func sampleTridiag(n int) *mat.Dense {
	h := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		h.Set(i, i, float64(2*i+3))
		if i+1 < n {
			off := float64(i+1) * 0.8
			h.Set(i, i+1, off)
			h.Set(i+1, i, off)
		}
	}
	return h
}

func denseQFromApplyQY(n int, applyQY func(*mat.Dense)) *mat.Dense {
	q := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		q.Set(i, i, 1)
	}
	applyQY(q)
	return q
}

func maxAbsDiff(a, b mat.Matrix) float64 {
	r, c := a.Dims()
	var max float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			d := math.Abs(a.At(i, j) - b.At(i, j))
			if d > max {
				max = d
			}
		}
	}
	return max
}

func TestHessenbergQRRoundTrip(t *testing.T) {
	n := 6
	h := sampleHessenberg(n)

	qr := NewHessenbergQR(n)
	qr.Factorize(h)

	q := denseQFromApplyQY(n, qr.ApplyQYTo)

	var qtq mat.Dense
	qtq.Mul(q.T(), q)
	ident := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		ident.Set(i, i, 1)
	}
	assert.Less(t, maxAbsDiff(&qtq, ident), qrTol, "Q not orthogonal")

	r := qr.MatrixR()
	for i := 0; i < n; i++ {
		for j := 0; j < i; j++ {
			assert.InDelta(t, 0, r.At(i, j), qrTol, "R not upper triangular at (%d,%d)", i, j)
		}
	}

	var recon mat.Dense
	recon.Mul(q, r)
	assert.Less(t, maxAbsDiff(&recon, h), qrTol, "Q*R does not reconstruct H")
}

func TestHessenbergQRMatrixRQ(t *testing.T) {
	n := 5
	h := sampleHessenberg(n)

	qr := NewHessenbergQR(n)
	qr.Factorize(h)

	rq := qr.MatrixRQ()

	// Independently form Q^T*H*Q via ApplyQtYTo/ApplyYQTo and compare.
	want := mat.NewDense(n, n, nil)
	want.Copy(h)
	qr.ApplyQtYTo(want)
	qr.ApplyYQTo(want)

	assert.Less(t, maxAbsDiff(rq, want), qrTol)
}

func TestHessenbergQRApplyRoundTrips(t *testing.T) {
	n := 5
	h := sampleHessenberg(n)
	qr := NewHessenbergQR(n)
	qr.Factorize(h)

	y := mat.NewDense(n, 1, []float64{1, 2, 3, 4, 5})
	orig := mat.NewDense(n, 1, nil)
	orig.Copy(y)

	qr.ApplyQYTo(y)
	qr.ApplyQtYTo(y)
	assert.Less(t, maxAbsDiff(y, orig), qrTol, "Q^T*Q*y != y")

	z := mat.NewDense(1, n, []float64{1, 2, 3, 4, 5})
	origZ := mat.NewDense(1, n, nil)
	origZ.Copy(z)

	qr.ApplyYQTo(z)
	qr.ApplyYQtTo(z)
	assert.Less(t, maxAbsDiff(z, origZ), qrTol, "y*Q*Q^T != y")
}

func TestTridiagQRMatchesHessenbergQR(t *testing.T) {
	n := 5
	h := sampleTridiag(n)

	tqr := NewTridiagQR(n)
	tqr.Factorize(h)

	hqr := NewHessenbergQR(n)
	hqr.Factorize(h)

	assert.Less(t, maxAbsDiff(tqr.MatrixR(), hqr.MatrixR()), qrTol)
	assert.Less(t, maxAbsDiff(tqr.MatrixRQ(), hqr.MatrixRQ()), qrTol)

	r := tqr.MatrixR()
	for i := 0; i < n; i++ {
		for j := 0; j < i; j++ {
			assert.InDelta(t, 0, r.At(i, j), qrTol)
		}
	}
}

func TestGivensRotation(t *testing.T) {
	c, s := givensRotation(3, 4)
	require.InDelta(t, 0.6, c, 1e-12)
	require.InDelta(t, 0.8, s, 1e-12)
	assert.InDelta(t, 1, c*c+s*s, 1e-12)

	c0, s0 := givensRotation(0, 0)
	assert.Equal(t, 1.0, c0)
	assert.Equal(t, 0.0, s0)
}
