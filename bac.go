// Package bac implements a lossless binary compressor built on adaptive
// binary arithmetic coding: a sliding-window context of the last
// context_length coded bits drives a pluggable probability oracle, which
// in turn drives the coder state machine in package coder.
//
// Encode and Decode are the only entry points. Both are pure functions of
// their arguments — no state persists between calls, and independent
// calls may run concurrently on different goroutines since each owns its
// own coder.State and context.Ring.
package bac

import (
	"github.com/pkg/errors"

	"github.com/fumin/bac/bitio"
	"github.com/fumin/bac/coder"
	"github.com/fumin/bac/context"
	"github.com/fumin/bac/prob"
)

// ErrInvalidArgument reports a precondition violation: a negative bit
// length, or a context length that is negative or exceeds MaxContextBits.
var ErrInvalidArgument = errors.New("bac: invalid argument")

// MaxContextBits is the largest context_length Encode and Decode accept.
const MaxContextBits = context.MaxBits

// Encode arithmetic-codes the first bitLength bits of sequence, read
// MSB-first, against a sliding window of the last contextLength coded
// bits. oracle estimates each bit's probability of being 1 from that
// window; a nil oracle uses prob.Reference. sequence may be shorter than
// ⌈bitLength/8⌉ bytes' worth of real data only if the excess bits are
// known to be zero, since bits past len(sequence)*8 read as zero.
func Encode(sequence []byte, bitLength, contextLength int, oracle prob.Oracle) ([]byte, error) {
	if bitLength < 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "negative bit length %d", bitLength)
	}
	ring, err := context.New(contextLength)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidArgument, err.Error())
	}
	if oracle == nil {
		oracle = prob.Reference
	}

	w := bitio.NewWriter()
	s := coder.New()

	err = withRecover(func() error {
		for i := 0; i < bitLength; i++ {
			bit := bitAt(sequence, i)
			p1 := oracle.P1Fixed(prob.Context{ContextLength: contextLength, CountOnes: ring.CountOnes()})
			if err := s.EncodeBit(w, bit, p1); err != nil {
				return err
			}
			ring.Push(bit)
		}
		return s.Finish(w)
	})
	if err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// Decode recovers decodedBitLength bits from encoded, returning
// ⌈decodedBitLength/8⌉ bytes whose first decodedBitLength bits (MSB-first)
// are the recovered data; the trailing bits of the last byte are zero.
// contextLength and oracle must match the values Encode was called with,
// or the result is undefined (not an error).
func Decode(encoded []byte, decodedBitLength, contextLength int, oracle prob.Oracle) ([]byte, error) {
	if decodedBitLength < 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "negative bit length %d", decodedBitLength)
	}
	ring, err := context.New(contextLength)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidArgument, err.Error())
	}
	if oracle == nil {
		oracle = prob.Reference
	}

	r := bitio.NewReader(encoded)
	s := coder.New()
	s.DecodeInit(r)

	out := make([]byte, (decodedBitLength+7)/8)
	err = withRecover(func() error {
		for i := 0; i < decodedBitLength; i++ {
			p1 := oracle.P1Fixed(prob.Context{ContextLength: contextLength, CountOnes: ring.CountOnes()})
			bit := s.DecodeBit(r, p1)
			setBitAt(out, i, bit)
			ring.Push(bit)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// withRecover runs fn, converting an internal coder panic (an invariant
// breach, which is a bug in this module rather than a caller error) into
// a plain error so a library caller never sees a killed goroutine.
func withRecover(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("bac: internal coder fault: %v", r)
		}
	}()
	return fn()
}

func bitAt(buf []byte, i int) int {
	byteIdx := i / 8
	if byteIdx >= len(buf) {
		return 0
	}
	shift := uint(7 - i%8)
	return int(buf[byteIdx]>>shift) & 1
}

func setBitAt(buf []byte, i, bit int) {
	if bit == 0 {
		return
	}
	byteIdx := i / 8
	shift := uint(7 - i%8)
	buf[byteIdx] |= 1 << shift
}
