// Package prob defines the pluggable probability oracle the coder queries
// before committing each bit, and a reference Laplace-smoothed
// implementation of it.
package prob

// FixedScale is the fixed-point denominator probabilities are expressed
// against. An Oracle's P1Fixed returns a value in [1, FixedScale-1].
const FixedScale = 1 << 16

// Context is what an Oracle is told about the current sliding window:
// its length, and how many of the bits it currently holds are 1s. The
// coder never looks past these two numbers, so a model indexed by the
// full context bit pattern is free to ignore them and use something
// richer internally.
type Context struct {
	ContextLength int
	CountOnes     int
}

// Oracle estimates the probability that the next bit is 1, scaled by
// FixedScale. This is the entire contract the coder state machine depends
// on; any implementation satisfying it is interchangeable.
type Oracle interface {
	P1Fixed(ctx Context) uint32
}

// Func adapts a plain function value to the Oracle interface.
type Func func(ctx Context) uint32

// P1Fixed calls f.
func (f Func) P1Fixed(ctx Context) uint32 { return f(ctx) }

// Reference is the Laplace-smoothed oracle: it depends only on the
// context length and the count of 1-bits currently held in the window.
//
//	numerator   = count_ones + 1
//	denominator = context_length + 2
//	p1_fixed    = round(numerator * FixedScale / denominator)
//
// round() rounds halves up by adding denominator/2 before the integer
// division, then the result is clamped to [1, FixedScale-1]. At
// context_length == 0 this formula already evaluates to FixedScale/2, so
// no special case is needed.
var Reference Oracle = Func(laplace)

func laplace(ctx Context) uint32 {
	numerator := uint64(ctx.CountOnes) + 1
	denominator := uint64(ctx.ContextLength) + 2
	p := (numerator*FixedScale + denominator/2) / denominator
	switch {
	case p < 1:
		return 1
	case p >= FixedScale:
		return FixedScale - 1
	default:
		return uint32(p)
	}
}
