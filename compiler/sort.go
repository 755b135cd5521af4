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

	"go.mongodb.org/mongo-driver/bson"

	"github.com/warlockjs/cascade-sub003/query"
)

// foldSortRun walks a sort buffer. Earlier operations take precedence;
// a later one naming an already-seen field is ignored (spec.md §3).
func foldSortRun(ops []query.Operation) bson.M {
	out := newOrderedFields()
	for _, op := range ops {
		switch op.Kind {
		case query.KindOrderBy, query.KindOrderByDesc:
			p := op.Payload.(query.SortPayload)
			if _, seen := out.get(p.Field); seen {
				continue
			}
			dir := -1
			if p.Ascending {
				dir = 1
			}
			out.set(p.Field, dir)
		case query.KindOrderByRaw:
			p := op.Payload.(query.RawPayload)
			var frag bson.M
			if err := json.Unmarshal([]byte(p.Expression), &frag); err != nil {
				continue
			}
			for _, k := range sortedBsonKeys(frag) {
				if _, seen := out.get(k); seen {
					continue
				}
				out.set(k, frag[k])
			}
		}
	}
	if out.len() == 0 {
		return nil
	}
	body := bson.M{}
	out.each(func(field string, v interface{}) { body[field] = v })
	return body
}

func sortedBsonKeys(m bson.M) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
