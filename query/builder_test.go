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

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// spec.md §8: ∀L, clone(L).log == L.log, and mutating the clone leaves
// L unchanged.
func TestBuilder_CloneIndependence(t *testing.T) {
	b := New("events").Where("a", 1).Where("b", 2)
	clone := b.Clone()

	require.Equal(t, b.Log().Ops(), clone.Log().Ops())

	clone.Where("c", 3)
	require.Len(t, b.Log().Ops(), 2)
	require.Len(t, clone.Log().Ops(), 3)
}

func TestBuilder_CloneCopiesScopeState(t *testing.T) {
	b := New("events").PendingGlobalScope("active", After, func(sub *Builder) {
		sub.Where("status", "active")
	})
	b.WithoutGlobalScope("active")

	clone := b.Clone()
	clone.WithoutGlobalScope("something-else")

	require.True(t, clone.disabledScopes["active"])
	require.False(t, b.disabledScopes["something-else"])
}

func TestBuilder_ApplyGlobalScopesOrdersBeforeAfter(t *testing.T) {
	b := New("events").
		PendingGlobalScope("tenant", Before, func(sub *Builder) {
			sub.Where("tenant", "T1")
		}).
		PendingGlobalScope("sort", After, func(sub *Builder) {
			sub.OrderBy("createdAt", true)
		}).
		Where("status", "active")

	b.ApplyGlobalScopes()
	ops := b.Log().Ops()
	require.Len(t, ops, 3)
	require.Equal(t, KindWhereEq, ops[0].Kind)
	require.Equal(t, KindWhereEq, ops[1].Kind)
	require.Equal(t, KindOrderBy, ops[2].Kind)

	// Second call is a no-op.
	b.ApplyGlobalScopes()
	require.Len(t, b.Log().Ops(), 3)
}

// spec.md §8: compile(L) is deterministic — two global scopes sharing
// the same timing must contribute in registration order, not whatever
// order Go's map iteration happens to produce.
func TestBuilder_ApplyGlobalScopesSameTimingPreservesRegistrationOrder(t *testing.T) {
	for i := 0; i < 20; i++ {
		b := New("events").
			PendingGlobalScope("tenant", After, func(sub *Builder) { sub.Where("tenant", "T1") }).
			PendingGlobalScope("region", After, func(sub *Builder) { sub.Where("region", "R1") }).
			PendingGlobalScope("status", After, func(sub *Builder) { sub.Where("status", "active") }).
			Where("a", 1)

		b.ApplyGlobalScopes()
		ops := b.Log().Ops()
		require.Len(t, ops, 4)

		fields := make([]string, len(ops))
		for j, op := range ops {
			fields[j] = op.Payload.(FilterPayload).Field
		}
		require.Equal(t, []string{"a", "tenant", "region", "status"}, fields)
	}
}

func TestBuilder_WithoutGlobalScopeRecordsAuditTrail(t *testing.T) {
	b := New("events").
		PendingGlobalScope("soft-delete", Before, func(sub *Builder) {
			sub.WhereNull("deletedAt")
		}).
		WithoutGlobalScope("soft-delete")

	b.ApplyGlobalScopes()
	applied := b.AppliedScopes()
	require.Len(t, applied, 1)
	require.Equal(t, "soft-delete", applied[0].Name)
	require.True(t, applied[0].Disabled)
	require.Empty(t, b.Log().Ops())
}

func TestBuilder_ScopeRunsImmediately(t *testing.T) {
	b := New("events").AvailableLocalScope("recent", func(sub *Builder) {
		sub.OrderByDesc("createdAt")
	})
	b.Scope("recent")
	require.Len(t, b.Log().Ops(), 1)
	require.Equal(t, KindOrderByDesc, b.Log().Ops()[0].Kind)
}

// spec.md §8: where(f,v) and whereMap({f:v}) record the same field/value
// pair in the same match stage. They are different kinds (whereEq vs
// whereObject); the compiler folds both to the same filter (see the
// compiler package's TestCompile_WhereMapRoundTrip).
func TestBuilder_WhereAndWhereMapAgree(t *testing.T) {
	list := New("events").Where("status", "active")
	asMap := New("events").WhereMap(map[string]interface{}{"status": "active"})
	require.Len(t, list.Log().Ops(), 1)
	require.Len(t, asMap.Log().Ops(), 1)

	eqOp, objOp := list.Log().Ops()[0], asMap.Log().Ops()[0]
	require.Equal(t, eqOp.Stage, objOp.Stage)
	require.Equal(t, eqOp.Mergeable, objOp.Mergeable)
	eq := eqOp.Payload.(FilterPayload)
	require.Equal(t, map[string]interface{}{eq.Field: eq.Value}, objOp.Payload.(ObjectFilterPayload).Fields)
}

func TestLog_RemoveStageDropsOnlyThatStage(t *testing.T) {
	b := New("events").Where("a", 1).OrderBy("b", true)
	b.Log().RemoveStage(StageSort)

	ops := b.Log().Ops()
	require.Len(t, ops, 1)
	require.Equal(t, StageMatch, ops[0].Stage)
}
