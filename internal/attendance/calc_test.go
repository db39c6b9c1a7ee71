package attendance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0.0, Percentage(5, 0))
	assert.InDelta(t, 75.0, Percentage(15, 20), 1e-9)
	assert.InDelta(t, 66.666666, Percentage(2, 3), 1e-5)
	assert.Equal(t, 66.67, Round2(Percentage(2, 3)))
}

func TestClassesNeeded(t *testing.T) {
	assert.Equal(t, 1, ClassesNeeded(0, 0, 75))
	// 10/20 needs 20 more: 30/40 is exactly 75%.
	assert.Equal(t, 20, ClassesNeeded(10, 20, 75))
	assert.Equal(t, 0, ClassesNeeded(15, 20, 75))
	assert.Equal(t, classesNeededCap, ClassesNeeded(9, 10, 100))
}

func TestClassesNeededFloatBoundaries(t *testing.T) {
	// 57/100*100 is 56.99999999999999 in float64.
	assert.Equal(t, 1, ClassesNeeded(57, 100, 57))
	// 29/50*100 falls just under 58.
	assert.Equal(t, 30, ClassesNeeded(0, 21, 58))
	assert.Equal(t, 29, ClassesNeeded(1, 22, 58))
}

func TestClassesNeededMatchesFloatLoop(t *testing.T) {
	reference := func(p, total, minReq int) int {
		if total == 0 {
			return 1
		}
		n := 0
		for (float64(p+n)/float64(total+n))*100 < float64(minReq) && n < 1000 {
			n++
		}
		return n
	}
	for total := 1; total <= 100; total++ {
		for p := 0; p <= total; p++ {
			for minReq := 50; minReq <= 90; minReq++ {
				assert.Equal(t, reference(p, total, minReq), ClassesNeeded(p, total, minReq), "p=%d t=%d min=%d", p, total, minReq)
			}
		}
	}
}

func TestClassesNeededNonIncreasingInPresent(t *testing.T) {
	for _, minReq := range []int{60, 75, 90} {
		prev := ClassesNeeded(0, 40, minReq)
		for p := 1; p <= 40; p++ {
			cur := ClassesNeeded(p, 40, minReq)
			assert.LessOrEqual(t, cur, prev, "p=%d min=%d", p, minReq)
			prev = cur
		}
	}
}

func TestBunkableClasses(t *testing.T) {
	// 40 lectures in term, 75% needs 30 present; 18 already present, 20 remaining.
	assert.Equal(t, 8, BunkableClasses(18, 20, 40, 75))
	// Needs more than remaining.
	assert.Equal(t, 0, BunkableClasses(5, 20, 40, 75))
	// Already past the target: negative need is treated as invalid.
	assert.Equal(t, 0, BunkableClasses(35, 36, 40, 75))
	// Fractional requirement rounds up: 75% of 30 is 22.5 so 23 needed, 13 more.
	assert.Equal(t, 7, BunkableClasses(10, 10, 30, 75))
	assert.Equal(t, 0, BunkableClasses(10, 20, 0, 75))
}

func TestBunkableClassesNoRemaining(t *testing.T) {
	for p := 0; p <= 30; p += 5 {
		assert.Equal(t, 0, BunkableClasses(p, 30, 30, 75))
		assert.Equal(t, 0, BunkableClasses(p, 31, 30, 75))
	}
}

func TestCeilDiv(t *testing.T) {
	assert.Equal(t, 3, ceilDiv(5, 2))
	assert.Equal(t, 2, ceilDiv(4, 2))
	assert.Equal(t, -2, ceilDiv(-5, 2))
	assert.Equal(t, 0, ceilDiv(0, 7))
}
