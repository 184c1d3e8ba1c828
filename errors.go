package arnoldi

import "github.com/pkg/errors"

// argument errors reported by constructors and Init. Numerical breakdown
// during factorization is never surfaced this way; it is handled by
// re-seeding the residual vector (see factorizeFrom in symeigs.go/geneigs.go).

func errNotSquare(rows, cols int) error {
	return errors.Errorf("arnoldi: operator is not square: %d rows, %d cols", rows, cols)
}

func errBadK(k, n int) error {
	return errors.Errorf("arnoldi: k out of range: k=%d, need 1 <= k < n=%d", k, n)
}

func errBadM(m, k, n, kOffset int) error {
	return errors.Errorf("arnoldi: m out of range: m=%d, need k+%d <= m <= n (k=%d, n=%d)", m, kOffset, k, n)
}

func errInitVecLen(got, want int) error {
	return errors.Errorf("arnoldi: init vector has length %d, want %d", got, want)
}

func errInvalidRule(rule SelectionRule, engine string) error {
	return errors.Errorf("arnoldi: selection rule %s is not valid for the %s engine", rule, engine)
}

func errNotComputed(what string) error {
	return errors.Errorf("arnoldi: %s: Factorize has not been called", what)
}
