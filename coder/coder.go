// Package coder implements the binary arithmetic coder state machine:
// interval narrowing, renormalization with bits-to-follow carry
// propagation, and the encode/decode symmetry described by the Witten,
// Neal & Cleary construction. It depends on nothing beyond a probability
// value for the current step; callers supply that via package prob.
package coder

import (
	"github.com/fumin/bac/bitio"
	"github.com/fumin/bac/prob"
)

const (
	// Precision is the bit width of the interval registers.
	Precision = 31

	// TotalFrequency is 2^Precision, the width of the coder's interval.
	TotalFrequency = uint32(1) << Precision

	// Half, Quarter and ThreeQuarter mark the renormalization thresholds.
	Half         = uint32(1) << (Precision - 1)
	Quarter      = uint32(1) << (Precision - 2)
	ThreeQuarter = 3 * Quarter
)

// State holds the coder's interval registers. Value is meaningful only
// during decode; bitsToFollow and the packer are only exercised during
// encode.
type State struct {
	Low, High uint32
	Value     uint32

	bitsToFollow int
}

// New returns a State with the initial interval [0, TotalFrequency-1].
func New() *State {
	return &State{High: TotalFrequency - 1}
}

// scaledP0 converts the oracle's fixed-point estimate for bit 1 into a
// scaled probability of bit 0 against TotalFrequency, saturating at
// TotalFrequency-1 the way §4.D requires (in practice p1Fixed's own
// [1, FixedScale-1] clamp keeps this branch from ever firing).
func scaledP0(p1Fixed uint32) uint64 {
	p0Fixed := uint64(prob.FixedScale) - uint64(p1Fixed)
	sp0 := p0Fixed * uint64(TotalFrequency) / uint64(prob.FixedScale)
	if sp0 >= uint64(TotalFrequency) {
		sp0 = uint64(TotalFrequency) - 1
	}
	return sp0
}

// narrow commits to bit within [low, high] given the pre-scaled
// probability of 0 for that interval, returning the new bounds.
func narrow(low, high uint32, sp0 uint64, bit int) (uint32, uint32) {
	rng := uint64(high) - uint64(low) + 1
	split := low + uint32(rng*sp0/uint64(TotalFrequency))
	if bit == 0 {
		return low, split - 1
	}
	return split, high
}

// EncodeBit narrows the interval for the known bit, estimated by
// p1Fixed, and renormalizes, flushing determined bits through w.
func (s *State) EncodeBit(w *bitio.Writer, bit int, p1Fixed uint32) error {
	sp0 := scaledP0(p1Fixed)
	s.Low, s.High = narrow(s.Low, s.High, sp0, bit)
	assert(s.Low <= s.High, "low > high after encode narrowing")
	return s.renormEncode(w)
}

func (s *State) renormEncode(w *bitio.Writer) error {
	for {
		switch {
		case s.High < Half:
			if err := s.emit(w, 0); err != nil {
				return err
			}
		case s.Low >= Half:
			if err := s.emit(w, 1); err != nil {
				return err
			}
			s.Low -= Half
			s.High -= Half
		case s.Low >= Quarter && s.High < ThreeQuarter:
			s.bitsToFollow++
			s.Low -= Quarter
			s.High -= Quarter
		default:
			return nil
		}
		s.Low <<= 1
		s.High = s.High<<1 | 1
	}
}

// emit writes bit, then flushes any pending opposite-polarity follow
// bits accumulated by the middle-straddle case.
func (s *State) emit(w *bitio.Writer, bit int) error {
	if err := w.WriteBit(bit); err != nil {
		return err
	}
	follow := 1 - bit
	for i := 0; i < s.bitsToFollow; i++ {
		if err := w.WriteBit(follow); err != nil {
			return err
		}
	}
	s.bitsToFollow = 0
	return nil
}

// Finish emits the final disambiguating bit and its follow bits once the
// last input bit has been coded, then flushes the packer's partial byte.
func (s *State) Finish(w *bitio.Writer) error {
	s.bitsToFollow++
	bit := 1
	if s.Low < Quarter {
		bit = 0
	}
	if err := s.emit(w, bit); err != nil {
		return err
	}
	return w.Flush()
}

// DecodeInit loads Value from the first Precision bits of r, MSB-first,
// with missing bits defaulting to zero per bitio.Reader's past-end
// behavior.
func (s *State) DecodeInit(r *bitio.Reader) {
	for i := 0; i < Precision; i++ {
		s.Value = s.Value<<1 | uint32(r.ReadBit())
	}
}

// DecodeBit locates the coded bit from Value relative to the split point
// implied by p1Fixed, narrows and renormalizes identically to the
// encoder, and returns the decoded bit.
func (s *State) DecodeBit(r *bitio.Reader, p1Fixed uint32) int {
	sp0 := scaledP0(p1Fixed)

	rng := uint64(s.High) - uint64(s.Low) + 1
	scaledValue := ((uint64(s.Value)-uint64(s.Low)+1)*uint64(TotalFrequency) - 1) / rng

	bit := 0
	if scaledValue >= sp0 {
		bit = 1
	}

	s.Low, s.High = narrow(s.Low, s.High, sp0, bit)
	assert(s.Low <= s.High, "low > high after decode narrowing")
	s.renormDecode(r)
	return bit
}

func (s *State) renormDecode(r *bitio.Reader) {
	for {
		switch {
		case s.High < Half:
			// nothing to subtract; still shift below.
		case s.Low >= Half:
			s.Value -= Half
			s.Low -= Half
			s.High -= Half
		case s.Low >= Quarter && s.High < ThreeQuarter:
			s.Value -= Quarter
			s.Low -= Quarter
			s.High -= Quarter
		default:
			return
		}
		s.Low <<= 1
		s.High = s.High<<1 | 1
		s.Value = s.Value<<1 | uint32(r.ReadBit())
	}
}

// assert panics on an internal invariant breach. These indicate a bug in
// this package, not a caller error, so bac's drivers recover and report
// them distinctly from precondition violations.
func assert(cond bool, msg string) {
	if !cond {
		panic("coder: invariant violated: " + msg)
	}
}
