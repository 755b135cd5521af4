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

func joinOp(kind Kind, table, localField, foreignField, as string) Operation {
	return Operation{
		Stage: StageLookup, Mergeable: false, Kind: kind,
		Payload: JoinPayload{Table: table, LocalField: localField, ForeignField: foreignField, As: as},
	}
}

// Join is an alias for LeftJoin — the document-store backend natively
// supports only a left-outer lookup (spec.md §4.1).
func (b *Builder) Join(table, localField, foreignField, as string) *Builder {
	return b.append(joinOp(KindJoin, table, localField, foreignField, as))
}

// LeftJoin lowers directly to a $lookup stage.
func (b *Builder) LeftJoin(table, localField, foreignField, as string) *Builder {
	return b.append(joinOp(KindLeftJoin, table, localField, foreignField, as))
}

// InnerJoin additionally appends a match filtering empty join arrays
// (spec.md §4.1), applied by the compiler after the lookup.
func (b *Builder) InnerJoin(table, localField, foreignField, as string) *Builder {
	return b.append(joinOp(KindInnerJoin, table, localField, foreignField, as))
}

// RightJoin is best-effort mapped to a left join with a recorded
// degradation, since a right-outer lookup has no native equivalent.
func (b *Builder) RightJoin(table, localField, foreignField, as string) *Builder {
	return b.append(joinOp(KindRightJoin, table, localField, foreignField, as))
}

// FullJoin is RightJoin's full-outer counterpart — same degradation.
func (b *Builder) FullJoin(table, localField, foreignField, as string) *Builder {
	return b.append(joinOp(KindFullJoin, table, localField, foreignField, as))
}

// CrossJoin synthesizes an always-true match alongside the lookup.
func (b *Builder) CrossJoin(table, as string) *Builder {
	return b.append(joinOp(KindCrossJoin, table, "", "", as))
}

// JoinRaw splices an opaque lookup stage body in verbatim.
func (b *Builder) JoinRaw(stage interface{}) *Builder {
	return b.append(Operation{Stage: StageLookup, Mergeable: false, Kind: KindJoinRaw, Payload: JoinRawPayload{Stage: stage}})
}
