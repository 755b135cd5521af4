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
	"go.mongodb.org/mongo-driver/bson"

	"github.com/warlockjs/cascade-sub003/plan"
	"github.com/warlockjs/cascade-sub003/query"
)

// lookupLowering is buildLookup's result: the $lookup body plus any
// follow-on entries it must synthesize (the empty-array guard for an
// inner join, the always-true match for a cross join) and a
// degradation note when the join kind has no native equivalent.
type lookupLowering struct {
	entries     []plan.Entry
	degradation string
}

// foldLookupOp lowers one join/lookup operation (spec.md §4.1).
func foldLookupOp(op query.Operation) lookupLowering {
	if op.Kind == query.KindJoinRaw {
		return lookupLowering{entries: []plan.Entry{{Stage: plan.Lookup, Body: op.Payload.(query.JoinRawPayload).Stage}}}
	}

	p := op.Payload.(query.JoinPayload)
	lookup := bson.M{
		"from":         p.Table,
		"localField":   p.LocalField,
		"foreignField": p.ForeignField,
		"as":           p.As,
	}
	entries := []plan.Entry{{Stage: plan.Lookup, Body: lookup}}

	switch op.Kind {
	case query.KindInnerJoin:
		entries = append(entries, plan.Entry{
			Stage: plan.Match,
			Body:  bson.M{p.As: bson.M{"$exists": true, "$ne": bson.A{}}},
		})
		return lookupLowering{entries: entries}

	case query.KindCrossJoin:
		entries = append(entries, plan.Entry{Stage: plan.Match, Body: bson.M{}})
		return lookupLowering{entries: entries}

	case query.KindRightJoin:
		return lookupLowering{entries: entries, degradation: "rightJoin on " + p.Table + " mapped to a left-outer lookup: the backend has no native right-outer lookup"}

	case query.KindFullJoin:
		return lookupLowering{entries: entries, degradation: "fullJoin on " + p.Table + " mapped to a left-outer lookup: the backend has no native full-outer lookup"}

	default:
		return lookupLowering{entries: entries}
	}
}
