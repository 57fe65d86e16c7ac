// Package path normalizes raw path element sequences into a canonical
// event stream suitable for tessellation.
//
// Raw paths as produced by [honnef.co/go/curve], SVG parsing, or font
// outlines are loosely structured: subpaths may or may not be closed,
// MoveTo both ends one subpath and starts the next, and segments carry
// only their new control points. The event stream makes the structure
// explicit: every subpath is bracketed by a Begin and an End event, every
// drawing event carries its full set of points including the start point,
// and End records whether the subpath was closed explicitly.
package path

import (
	"fmt"
	"iter"

	"honnef.co/go/curve"
)

type EventKind uint8

const (
	// Begin starts a subpath at At.
	Begin EventKind = iota
	// Line is a line segment from From to To.
	Line
	// Quadratic is a quadratic Bézier from From to To with control Ctrl1.
	Quadratic
	// Cubic is a cubic Bézier from From to To with controls Ctrl1, Ctrl2.
	Cubic
	// End terminates a subpath. Last is the final on-curve point, First
	// the point the subpath began at. Closed reports whether the subpath
	// was terminated by an explicit close.
	End
)

func (k EventKind) String() string {
	switch k {
	case Begin:
		return "Begin"
	case Line:
		return "Line"
	case Quadratic:
		return "Quadratic"
	case Cubic:
		return "Cubic"
	case End:
		return "End"
	default:
		return fmt.Sprintf("EventKind(%d)", k)
	}
}

// Event is one element of the normalized stream. Which fields are
// meaningful depends on Kind; unused fields are zero.
type Event struct {
	Kind EventKind

	// At is the start point of a Begin event.
	At curve.Point
	// From and To are the endpoints of a drawing event.
	From, To curve.Point
	// Ctrl1 and Ctrl2 are Bézier control points for Quadratic and Cubic
	// events. Quadratic uses only Ctrl1.
	Ctrl1, Ctrl2 curve.Point
	// Last and First describe an End event.
	Last, First curve.Point
	// Closed is set on an End event produced by an explicit close. For a
	// closed subpath Last equals First; the closing line segment is the
	// consumer's responsibility.
	Closed bool
}

func (ev Event) String() string {
	switch ev.Kind {
	case Begin:
		return fmt.Sprintf("Begin(%v)", ev.At)
	case Line:
		return fmt.Sprintf("Line(%v → %v)", ev.From, ev.To)
	case Quadratic:
		return fmt.Sprintf("Quadratic(%v, %v, %v)", ev.From, ev.Ctrl1, ev.To)
	case Cubic:
		return fmt.Sprintf("Cubic(%v, %v, %v, %v)", ev.From, ev.Ctrl1, ev.Ctrl2, ev.To)
	case End:
		return fmt.Sprintf("End(%v, first: %v, closed: %t)", ev.Last, ev.First, ev.Closed)
	default:
		return fmt.Sprintf("Event{Kind: %d}", ev.Kind)
	}
}

// A ParseError reports a malformed input sequence, such as a drawing
// segment before any MoveTo.
type ParseError struct {
	// Index is the position of the offending element in the input.
	Index   int
	Element curve.PathElement
}

func (err *ParseError) Error() string {
	op := "segment"
	switch err.Element.Kind {
	case curve.LineToKind:
		op = "LineTo"
	case curve.QuadToKind:
		op = "QuadTo"
	case curve.CubicToKind:
		op = "CubicTo"
	}
	return fmt.Sprintf("path element %d: %s before MoveTo", err.Index, op)
}

// An EventStream turns a sequence of path elements into normalized
// events. The zero value is not usable; use [NewEventStream].
//
// Streams are single use. To iterate a path again, construct a new
// stream.
type EventStream struct {
	elems []curve.PathElement
	idx   int
	err   error

	// pending holds an event that logically follows the one we just
	// returned. A MoveTo that terminates a previous subpath produces
	// End then Begin; a drawing segment after a close produces Begin
	// then the segment.
	pending    Event
	hasPending bool

	first    curve.Point
	prev     curve.Point
	started  bool
	needsEnd bool
	done     bool
}

func NewEventStream(elems []curve.PathElement) *EventStream {
	return &EventStream{elems: elems}
}

// Next returns the next event in the stream. It returns false once the
// stream is exhausted or an error has occurred; check Err afterwards.
func (s *EventStream) Next() (Event, bool) {
	if s.done || s.err != nil {
		return Event{}, false
	}
	if s.hasPending {
		s.hasPending = false
		return s.pending, true
	}
	for s.idx < len(s.elems) {
		el := s.elems[s.idx]
		s.idx++
		switch el.Kind {
		case curve.MoveToKind:
			ev, ok := s.moveTo(el.P0)
			if ok {
				return ev, true
			}
		case curve.LineToKind:
			if ev, ok := s.draw(Event{Kind: Line, From: s.prev, To: el.P0}, el); ok {
				s.prev = el.P0
				return ev, true
			}
			return Event{}, false
		case curve.QuadToKind:
			if ev, ok := s.draw(Event{Kind: Quadratic, From: s.prev, Ctrl1: el.P0, To: el.P1}, el); ok {
				s.prev = el.P1
				return ev, true
			}
			return Event{}, false
		case curve.CubicToKind:
			if ev, ok := s.draw(Event{Kind: Cubic, From: s.prev, Ctrl1: el.P0, Ctrl2: el.P1, To: el.P2}, el); ok {
				s.prev = el.P2
				return ev, true
			}
			return Event{}, false
		case curve.ClosePathKind:
			if !s.needsEnd {
				// Stray close, nothing to terminate.
				continue
			}
			s.needsEnd = false
			s.prev = s.first
			return Event{Kind: End, Last: s.first, First: s.first, Closed: true}, true
		}
	}
	s.done = true
	if s.needsEnd {
		s.needsEnd = false
		return Event{Kind: End, Last: s.prev, First: s.first, Closed: false}, true
	}
	return Event{}, false
}

// moveTo handles a MoveTo element. If a subpath is open it returns its
// End event and defers the Begin; otherwise it returns the Begin
// directly.
func (s *EventStream) moveTo(p curve.Point) (Event, bool) {
	begin := Event{Kind: Begin, At: p}
	var out Event
	if s.needsEnd {
		out = Event{Kind: End, Last: s.prev, First: s.first, Closed: false}
		s.pending = begin
		s.hasPending = true
	} else {
		out = begin
	}
	s.first = p
	s.prev = p
	s.started = true
	s.needsEnd = true
	return out, true
}

// draw handles a drawing segment. A segment before any MoveTo is a parse
// error. A segment after a close reopens the subpath at the close point,
// so the segment's Begin is returned first and the segment itself is
// deferred.
func (s *EventStream) draw(ev Event, el curve.PathElement) (Event, bool) {
	if !s.started {
		s.err = &ParseError{Index: s.idx - 1, Element: el}
		return Event{}, false
	}
	if !s.needsEnd {
		s.first = s.prev
		s.needsEnd = true
		s.pending = ev
		s.hasPending = true
		return Event{Kind: Begin, At: s.prev}, true
	}
	return ev, true
}

// Err returns the first error encountered by Next.
func (s *EventStream) Err() error {
	return s.err
}

// Events returns an iterator over the normalized events of elems. If the
// input is malformed the iteration stops early; use [Collect] or a
// manual [EventStream] when errors need to be observed.
func Events(elems []curve.PathElement) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		s := NewEventStream(elems)
		for {
			ev, ok := s.Next()
			if !ok {
				return
			}
			if !yield(ev) {
				return
			}
		}
	}
}

// Collect normalizes elems into a slice of events.
func Collect(elems []curve.PathElement) ([]Event, error) {
	s := NewEventStream(elems)
	var evs []Event
	for {
		ev, ok := s.Next()
		if !ok {
			break
		}
		evs = append(evs, ev)
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return evs, nil
}
