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

package compiler

import (
	"encoding/json"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/warlockjs/cascade-sub003/predicate"
)

// lowerNode turns a predicate.Node into its document-store wire
// fragment. The result is always a bson.M, except for a Raw node whose
// expression was spliced in as something other than an object (left
// verbatim — the caller wrote it, the compiler does not police it).
func lowerNode(n predicate.Node) interface{} {
	switch v := n.(type) {
	case predicate.Leaf:
		return lowerLeaf(v)
	case predicate.And:
		return lowerAndChildren(v.Children)
	case predicate.Or:
		return bson.M{"$or": lowerChildren(v.Children)}
	case predicate.Nor:
		return bson.M{"$nor": lowerChildren(v.Children)}
	case predicate.Raw:
		return lowerRaw(v)
	default:
		return bson.M{}
	}
}

func lowerChildren(children []predicate.Node) bson.A {
	out := make(bson.A, 0, len(children))
	for _, c := range children {
		out = append(out, lowerNode(c))
	}
	return out
}

// lowerAndChildren merges every child's lowered fragment into one
// bson.M, falling back to an explicit $and array entry when two
// children would otherwise collide on the same key.
func lowerAndChildren(children []predicate.Node) bson.M {
	out := bson.M{}
	for _, c := range children {
		lowered := lowerNode(c)
		m, ok := lowered.(bson.M)
		if !ok {
			// Non-object fragment (a Raw spliced in as something else):
			// can only be combined via $and.
			mergeAndList(out, lowered)
			continue
		}
		for k, v := range m {
			mergeKey(out, k, v)
		}
	}
	return out
}

func mergeKey(dst bson.M, key string, value interface{}) {
	existing, collide := dst[key]
	if !collide {
		dst[key] = value
		return
	}
	delete(dst, key)
	list, _ := dst["$and"].(bson.A)
	list = append(list, bson.M{key: existing}, bson.M{key: value})
	dst["$and"] = list
}

func mergeAndList(dst bson.M, fragment interface{}) {
	list, _ := dst["$and"].(bson.A)
	list = append(list, fragment)
	dst["$and"] = list
}

func lowerRaw(r predicate.Raw) interface{} {
	s, ok := r.Expression.(string)
	if !ok {
		return r.Expression
	}
	var m bson.M
	if err := json.Unmarshal([]byte(s), &m); err == nil {
		return m
	}
	return s
}

func lowerLeaf(l predicate.Leaf) bson.M {
	if bag, ok := l.Value.(map[predicate.Operator]interface{}); ok {
		out := bson.M{}
		for op, v := range bag {
			applyOperator(out, l.Field, op, v)
		}
		return out
	}
	out := bson.M{}
	applyOperator(out, l.Field, l.Operator, l.Value)
	return out
}

// applyOperator writes field's lowered condition into out. For Eq it
// writes the bare value (Mongo convention: {field: v} not
// {field:{$eq:v}}); every other operator nests under its $-prefixed key.
func applyOperator(out bson.M, field string, op predicate.Operator, value interface{}) {
	switch op {
	case predicate.Eq, "":
		setFieldCondition(out, field, value)
	case predicate.Regex:
		setFieldCondition(out, field, lowerRegex(value))
	case predicate.JSONContain:
		setFieldCondition(out, field, lowerJSONContain(value))
	default:
		setFieldCondition(out, field, bson.M{mongoOp(op): value})
	}
}

// setFieldCondition merges a single field's condition into out,
// unioning with any existing bson.M condition on the same field (two
// operators on the same field arrive here one at a time when a leaf's
// bag has more than one key).
func setFieldCondition(out bson.M, field string, value interface{}) {
	existing, ok := out[field]
	if !ok {
		out[field] = value
		return
	}
	existingM, eok := existing.(bson.M)
	valueM, vok := value.(bson.M)
	if eok && vok {
		for k, v := range valueM {
			existingM[k] = v
		}
		return
	}
	out[field] = value
}

func lowerRegex(value interface{}) primitive.Regex {
	spec, ok := value.(regexSpec)
	if !ok {
		return primitive.Regex{Pattern: toString(value), Options: "i"}
	}
	pattern := regexp.QuoteMeta(spec.pattern)
	switch spec.anchor {
	case "^":
		pattern = "^" + pattern
	case "$":
		pattern = pattern + "$"
	}
	return primitive.Regex{Pattern: pattern, Options: "i"}
}

func lowerJSONContain(value interface{}) bson.M {
	if arr, ok := value.(bson.A); ok {
		return bson.M{"$all": arr}
	}
	if arr, ok := value.([]interface{}); ok {
		return bson.M{"$all": bson.A(arr)}
	}
	return bson.M{"$elemMatch": bson.M{"$eq": value}}
}

func toString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, _ := json.Marshal(v)
	return string(b)
}
