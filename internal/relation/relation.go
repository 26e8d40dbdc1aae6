// Package relation implements the relational algebra the rule engine runs
// on: relations are sets of string tuples with named attributes, and the
// operations are select, project, rename, natural join, and merge.
package relation

import (
	"sort"
	"strings"
)

// Tuple is one row. Values align with the owning relation's header.
type Tuple []string

// key is the set-membership key. 0x1f never appears in parsed constants.
func (t Tuple) key() string {
	return strings.Join(t, "\x1f")
}

// Relation is a set of tuples under a header of attribute names.
type Relation struct {
	Header []string
	rows   map[string]Tuple
}

// NewRelation returns an empty relation with the given header.
func NewRelation(header []string) *Relation {
	return &Relation{Header: header, rows: make(map[string]Tuple)}
}

// Add inserts t and reports whether it was not already present.
func (r *Relation) Add(t Tuple) bool {
	k := t.key()
	if _, ok := r.rows[k]; ok {
		return false
	}
	r.rows[k] = t
	return true
}

// Contains reports set membership.
func (r *Relation) Contains(t Tuple) bool {
	_, ok := r.rows[t.key()]
	return ok
}

// Len returns the number of tuples.
func (r *Relation) Len() int { return len(r.rows) }

// Rows returns the tuples sorted lexicographically by column values. All
// rendering goes through this so output is deterministic.
func (r *Relation) Rows() []Tuple {
	keys := make([]string, 0, len(r.rows))
	for k := range r.rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Tuple, len(keys))
	for i, k := range keys {
		out[i] = r.rows[k]
	}
	return out
}

// Clone returns an independent copy sharing no row storage.
func (r *Relation) Clone() *Relation {
	out := NewRelation(append([]string(nil), r.Header...))
	for k, t := range r.rows {
		out.rows[k] = t
	}
	return out
}

// Merge adds every tuple of other and returns how many were new. Headers
// must have equal width; attribute names are not compared.
func (r *Relation) Merge(other *Relation) int {
	added := 0
	for _, t := range other.rows {
		if r.Add(t) {
			added++
		}
	}
	return added
}

// SelectConst keeps tuples whose col equals value.
func (r *Relation) SelectConst(col int, value string) *Relation {
	out := NewRelation(r.Header)
	for _, t := range r.rows {
		if t[col] == value {
			out.Add(t)
		}
	}
	return out
}

// SelectEq keeps tuples whose columns a and b hold the same value.
func (r *Relation) SelectEq(a, b int) *Relation {
	out := NewRelation(r.Header)
	for _, t := range r.rows {
		if t[a] == t[b] {
			out.Add(t)
		}
	}
	return out
}

// Project keeps the given columns in the given order. Columns may repeat or
// reorder; the header follows along.
func (r *Relation) Project(cols []int) *Relation {
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = r.Header[c]
	}
	out := NewRelation(header)
	for _, t := range r.rows {
		row := make(Tuple, len(cols))
		for i, c := range cols {
			row[i] = t[c]
		}
		out.Add(row)
	}
	return out
}

// Rename replaces the header. The width must match.
func (r *Relation) Rename(header []string) *Relation {
	if len(header) != len(r.Header) {
		panic("relation: rename width mismatch")
	}
	out := r.Clone()
	out.Header = header
	return out
}

// NaturalJoin joins on attributes the two headers share. With no shared
// attributes it degrades to the cross product. The result header is r's
// header followed by other's non-shared attributes.
func (r *Relation) NaturalJoin(other *Relation) *Relation {
	var leftShared, rightShared []int
	var rightKeep []int
	header := append([]string(nil), r.Header...)
	for j, name := range other.Header {
		if i := indexOf(r.Header, name); i >= 0 {
			leftShared = append(leftShared, i)
			rightShared = append(rightShared, j)
		} else {
			rightKeep = append(rightKeep, j)
			header = append(header, name)
		}
	}

	byKey := make(map[string][]Tuple, other.Len())
	for _, t := range other.rows {
		k := pick(t, rightShared).key()
		byKey[k] = append(byKey[k], t)
	}

	out := NewRelation(header)
	for _, lt := range r.rows {
		k := pick(lt, leftShared).key()
		for _, rt := range byKey[k] {
			row := make(Tuple, 0, len(header))
			row = append(row, lt...)
			row = append(row, pick(rt, rightKeep)...)
			out.Add(row)
		}
	}
	return out
}

// Union adds other's tuples into a copy of r. Both relations must have the
// same width.
func (r *Relation) Union(other *Relation) *Relation {
	out := r.Clone()
	out.Merge(other)
	return out
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

func pick(t Tuple, cols []int) Tuple {
	out := make(Tuple, len(cols))
	for i, c := range cols {
		out[i] = t[c]
	}
	return out
}
