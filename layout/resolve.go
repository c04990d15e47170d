// Package layout is the pointer-chasing heart of the runtime: it reads and writes
// struct, list, text, data and object fields through pointers, performing
// far-pointer chasing, allocation, bounds checking, zeroing and lossless in-place
// upgrades. Everything here is keyed by a pointer's location (a segment plus a word
// address) rather than by any notion of a schema -- the schema lives entirely in the
// generated-code collaborator this package doesn't know about.
package layout

import (
	"github.com/segmentwire/segmentwire/arena"
	"github.com/segmentwire/segmentwire/segment"
	"github.com/segmentwire/segmentwire/wireptr"
	"github.com/segmentwire/segmentwire/word"
	"github.com/segmentwire/segmentwire/wirerr"
)

// target is a resolved pointer: the segment and word address the data actually lives
// at, plus the struct/list pointer word describing its shape. far pointers have
// already been chased by the time a target exists.
type target struct {
	seg  *segment.Reader
	addr word.Size
	tag  wireptr.Pointer
}

// btarget is target's builder-side counterpart, over a writable segment.
type btarget struct {
	seg  *segment.Builder
	addr word.Size
	tag  wireptr.Pointer
}

// followFarsReader resolves raw, which lives at word ptrAddr of seg, into its target.
// Validation failures are recorded on a and ok is false; the caller must then fall
// back to a default.
func followFarsReader(a *arena.Reader, seg *segment.Reader, ptrAddr word.Size, raw wireptr.Pointer) (target, bool) {
	switch raw.Kind() {
	case wireptr.Struct, wireptr.List:
		return target{seg: seg, addr: ptrAddr + 1 + word.Size(raw.Offset()), tag: raw}, true

	case wireptr.Far:
		if a.Metrics != nil {
			if raw.IsDoubleFar() {
				a.Metrics.RecordFarPointerFollow("double")
			} else {
				a.Metrics.RecordFarPointerFollow("single")
			}
		}
		farSeg := a.TryGetSegment(raw.FarSegmentID())
		if farSeg == nil {
			a.ReportError(wirerr.NewValidationError(wirerr.ErrSegmentID, "far pointer segment", ""))
			return target{}, false
		}
		padAddr := raw.FarOffset()

		if raw.IsDoubleFar() {
			if !farSeg.ContainsInterval(padAddr, padAddr+2) {
				a.ReportError(wirerr.NewValidationError(wirerr.ErrOutOfBounds, "double-far landing pad", ""))
				return target{}, false
			}
			pad0 := wireptr.Raw(farSeg.Word(padAddr)).Get()
			pad1 := wireptr.Raw(farSeg.Word(padAddr + 1)).Get()
			if pad0.Kind() != wireptr.Far {
				a.ReportError(wirerr.NewValidationError(wirerr.ErrMalformed, "double-far's first pad is not far", ""))
				return target{}, false
			}
			finalSeg := a.TryGetSegment(pad0.FarSegmentID())
			if finalSeg == nil {
				a.ReportError(wirerr.NewValidationError(wirerr.ErrSegmentID, "double-far final segment", ""))
				return target{}, false
			}
			return target{seg: finalSeg, addr: pad0.FarOffset(), tag: pad1}, true
		}

		if !farSeg.ContainsInterval(padAddr, padAddr+1) {
			a.ReportError(wirerr.NewValidationError(wirerr.ErrOutOfBounds, "far landing pad", ""))
			return target{}, false
		}
		pad := wireptr.Raw(farSeg.Word(padAddr)).Get()
		if pad.Kind() == wireptr.Far {
			a.ReportError(wirerr.NewValidationError(wirerr.ErrMalformed, "far pointer chains directly to another far pointer", ""))
			return target{}, false
		}
		return target{seg: farSeg, addr: padAddr + 1 + word.Size(pad.Offset()), tag: pad}, true

	default:
		a.ReportError(wirerr.NewValidationError(wirerr.ErrReservedPointer, "", ""))
		return target{}, false
	}
}

// resolveReader follows raw (at ptrAddr in seg) to its target, recording and
// reporting validation failures. ok is false for a null pointer too, which is not an
// error -- callers should fall back to the field's default either way.
func resolveReader(a *arena.Reader, seg *segment.Reader, ptrAddr word.Size, raw wireptr.Pointer) (target, bool) {
	if raw.IsNull() {
		return target{}, false
	}
	return followFarsReader(a, seg, ptrAddr, raw)
}

// followFarsBuilder is followFarsReader's builder-side counterpart: a message a
// builder owns is well-formed by construction, so a pointer chain the runtime itself
// never wrote indicates programmer misuse (e.g. corrupting a segment by hand) and is
// fatal rather than recorded and defaulted.
func followFarsBuilder(a *arena.Builder, seg *segment.Builder, ptrAddr word.Size, raw wireptr.Pointer) btarget {
	switch raw.Kind() {
	case wireptr.Struct, wireptr.List:
		return btarget{seg: seg, addr: ptrAddr + 1 + word.Size(raw.Offset()), tag: raw}

	case wireptr.Far:
		if a.Metrics != nil {
			if raw.IsDoubleFar() {
				a.Metrics.RecordFarPointerFollow("double")
			} else {
				a.Metrics.RecordFarPointerFollow("single")
			}
		}
		farSeg := a.GetSegment(raw.FarSegmentID())
		padAddr := raw.FarOffset()
		if raw.IsDoubleFar() {
			pad0 := wireptr.Raw(farSeg.Word(padAddr)).Get()
			pad1 := wireptr.Raw(farSeg.Word(padAddr + 1)).Get()
			if pad0.Kind() != wireptr.Far {
				wirerr.Fail(wirerr.ErrMalformed, "double-far's first pad is not far")
			}
			finalSeg := a.GetSegment(pad0.FarSegmentID())
			return btarget{seg: finalSeg, addr: pad0.FarOffset(), tag: pad1}
		}
		pad := wireptr.Raw(farSeg.Word(padAddr)).Get()
		return btarget{seg: farSeg, addr: padAddr + 1 + word.Size(pad.Offset()), tag: pad}

	default:
		wirerr.Fail(wirerr.ErrReservedPointer, "builder segment contains a reserved pointer kind")
		return btarget{}
	}
}
