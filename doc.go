// Package hrec provides typed heterogeneous records: ordered chains of
// fields that each carry a key tag type and a value of their own type.
//
// A record is a [List] built from [Nil], [Cons] and [Member]. Looking a
// field up by key yields an [Optional], which is either a [Present] holding
// the value or an [Absent] that only remembers the value type.
//
// Lookups are meant to be resolved ahead of time by cmd/hrecgen, which
// reads *.hrec declarations and emits accessors whose return types are
// already Present[V] or Absent[V]. [Get] and [Find] perform the same
// left-biased search over a list at run time, for code that builds
// records by hand.
package hrec
