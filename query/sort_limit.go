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

package query

// OrderBy appends an ascending or descending sort key. Within a sort
// run, earlier operations take precedence; later ones naming the same
// field are ignored (spec.md §3).
func (b *Builder) OrderBy(field string, ascending bool) *Builder {
	return b.append(Operation{
		Stage: StageSort, Mergeable: true, Kind: KindOrderBy,
		Payload: SortPayload{Field: field, Ascending: ascending},
	})
}

// OrderByDesc is OrderBy(field, false).
func (b *Builder) OrderByDesc(field string) *Builder {
	return b.append(Operation{
		Stage: StageSort, Mergeable: true, Kind: KindOrderByDesc,
		Payload: SortPayload{Field: field, Ascending: false},
	})
}

// OrderByRaw splices an opaque backend sort fragment in.
func (b *Builder) OrderByRaw(expr string) *Builder {
	return b.append(Operation{
		Stage: StageSort, Mergeable: true, Kind: KindOrderByRaw,
		Payload: RawPayload{Expression: expr},
	})
}

// OrderByRandom lowers to its own non-mergeable window-stage sample
// (spec.md's stage enum names "window"; this is its builder entry
// point — see SPEC_FULL.md Supplemented Features).
func (b *Builder) OrderByRandom(sampleSize int) *Builder {
	return b.append(Operation{
		Stage: StageWindow, Mergeable: false, Kind: KindOrderByRandom,
		Payload: RandomSortPayload{SampleSize: sampleSize},
	})
}

// Limit is non-mergeable: the last value wins at execution, prior ones
// are shadowed (spec.md §3).
func (b *Builder) Limit(n int) *Builder {
	return b.append(Operation{Stage: StageLimit, Mergeable: false, Kind: KindLimit, Payload: LimitSkipPayload{N: n}})
}

// Skip is Limit's pagination counterpart.
func (b *Builder) Skip(n int) *Builder {
	return b.append(Operation{Stage: StageSkip, Mergeable: false, Kind: KindSkip, Payload: LimitSkipPayload{N: n}})
}
