package arnoldi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRanksBefore(t *testing.T) {
	cases := []struct {
		name   string
		a, b   complex128
		rule   SelectionRule
		before bool
	}{
		{"largest magn", 3 + 4i, 1, LargestMagn, true},
		{"smallest magn", 1, 3 + 4i, SmallestMagn, true},
		{"largest real", 2, 1 + 100i, LargestReal, true},
		{"smallest real", -2, 1, SmallestReal, true},
		{"largest imag", 1 + 5i, 10 + 1i, LargestImag, true},
		{"smallest imag", 1 + 1i, 10 + 5i, SmallestImag, true},
		{"largest alge", 5, 2, LargestAlge, true},
		{"smallest alge", -5, 2, SmallestAlge, true},
		{"both ends behaves like largest alge", 5, 2, BothEnds, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.before, ranksBefore(c.a, c.b, c.rule))
		})
	}
}

func TestSortedIndices(t *testing.T) {
	vals := []complex128{3, 1, 4, 1, 5, 9, 2, 6}
	idx := sortedIndices(vals, LargestMagn)
	require.Len(t, idx, len(vals))
	for i := 1; i < len(idx); i++ {
		assert.GreaterOrEqual(t, cmplxAbs(vals[idx[i-1]]), cmplxAbs(vals[idx[i]]))
	}

	idxSmall := sortedIndices(vals, SmallestMagn)
	for i := 1; i < len(idxSmall); i++ {
		assert.LessOrEqual(t, cmplxAbs(vals[idxSmall[i-1]]), cmplxAbs(vals[idxSmall[i]]))
	}
}

func TestValidateForSymmetric(t *testing.T) {
	valid := []SelectionRule{LargestMagn, SmallestMagn, LargestAlge, SmallestAlge, BothEnds}
	for _, r := range valid {
		assert.NoError(t, validateForSymmetric(r))
	}
	invalid := []SelectionRule{LargestReal, SmallestReal, LargestImag, SmallestImag}
	for _, r := range invalid {
		assert.Error(t, validateForSymmetric(r))
	}
}

func TestValidateForGeneral(t *testing.T) {
	valid := []SelectionRule{LargestMagn, SmallestMagn, LargestReal, SmallestReal, LargestImag, SmallestImag}
	for _, r := range valid {
		assert.NoError(t, validateForGeneral(r))
	}
	invalid := []SelectionRule{LargestAlge, SmallestAlge, BothEnds}
	for _, r := range invalid {
		assert.Error(t, validateForGeneral(r))
	}
}

func TestSelectionRuleString(t *testing.T) {
	assert.Equal(t, "LargestMagn", LargestMagn.String())
	assert.Equal(t, "BothEnds", BothEnds.String())
	assert.Equal(t, "SelectionRule(?)", SelectionRule(99).String())
}
