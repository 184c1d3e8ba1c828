// Package arnoldi computes a handful of eigenvalues and eigenvectors of a
// large square matrix using the implicitly restarted Arnoldi/Lanczos method
// (IRAM/IRLM). It never forms a dense eigendecomposition of the operator
// itself; instead it drives a user-supplied matrix-vector product through a
// Krylov factorization that is repeatedly compressed by an implicit shifted
// QR step.
//
// SymEigs handles symmetric operators via a Lanczos factorization (each new
// basis vector is orthogonalized against all previous ones) and a real
// single-shift restart. GenEigs handles general (non-symmetric)
// operators via a full Arnoldi recurrence and a restart that mixes real
// single shifts with double shifts for complex-conjugate Ritz pairs. Both
// engines are parameterized by a SelectionRule that orders candidate Ritz
// values.
//
// SymShiftInvert, GenRealShiftInvert and GenComplexShiftInvert wrap the two
// engines to find eigenvalues near a shift point sigma, by running the
// Krylov process against (A - sigma*I)^-1 and back-transforming the
// resulting Ritz values.
package arnoldi
