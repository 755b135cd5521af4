// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package predicate defines the intermediate filter representation the
// match folder produces: a recursive And/Or/Nor/Leaf/Raw tree, independent
// of any particular backend wire format.
package predicate

// Operator names a leaf comparison. The compiler does not reject an
// operator outside this set: one with no Mongo mapping lowers as $eq.
type Operator string

const (
	Eq          Operator = "eq"
	Ne          Operator = "ne"
	Lt          Operator = "lt"
	Le          Operator = "le"
	Gt          Operator = "gt"
	Ge          Operator = "ge"
	In          Operator = "in"
	Nin         Operator = "nin"
	Regex       Operator = "regex"
	Exists      Operator = "exists"
	Size        Operator = "size"
	Text        Operator = "text"
	DatePart    Operator = "datepart"
	JSONContain Operator = "jsoncontain"
	JSONLength  Operator = "jsonlength"
	JSONType    Operator = "jsontype"
)

// FieldRef marks a Leaf value as a reference to another document field
// rather than a literal. The compiler neither produces nor interprets
// it: whereColumn lowers to a Raw $expr comparison instead.
type FieldRef string

// Node is any member of the predicate tree.
type Node interface {
	isNode()
}

// Leaf is a single field/operator/value comparison.
type Leaf struct {
	Field    string
	Operator Operator
	Value    interface{}
}

// And is a conjunction of children. Invariant: never empty once it
// reaches a Plan — empty And/Or nodes are elided by the folder.
type And struct {
	Children []Node
}

// Or is a disjunction of children. Same non-empty invariant as And.
type Or struct {
	Children []Node
}

// Nor negates its single child. Produced trees always carry exactly one
// child (negation callbacks fold to one node); the type permits more so
// a caller composing trees by hand isn't forced through a slice literal
// of one.
type Nor struct {
	Children []Node
}

// Raw is an opaque backend fragment substituted verbatim, produced by
// whereRaw/havingRaw after bindings have been spliced in.
type Raw struct {
	Expression interface{}
}

func (Leaf) isNode() {}
func (And) isNode()  {}
func (Or) isNode()   {}
func (Nor) isNode()  {}
func (Raw) isNode()  {}

// IsEmpty reports whether a node folds away to nothing — true for a nil
// node, or an And/Or with zero children.
func IsEmpty(n Node) bool {
	if n == nil {
		return true
	}
	switch v := n.(type) {
	case And:
		return len(v.Children) == 0
	case Or:
		return len(v.Children) == 0
	}
	return false
}
