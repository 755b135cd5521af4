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
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/warlockjs/cascade-sub003/plan"
	"github.com/warlockjs/cascade-sub003/predicate"
	"github.com/warlockjs/cascade-sub003/query"
)

// seed test 1: AND fold.
func TestCompile_AndFold(t *testing.T) {
	b := query.New("events").Where("a", 1).Where("b", predicate.Ge, 2)

	p, err := Compile(b, Options{})
	require.NoError(t, err)
	require.Len(t, p.Entries, 1)
	require.Equal(t, plan.Match, p.Entries[0].Stage)
	require.Equal(t, bson.M{"a": 1, "b": bson.M{"$gte": 2}}, p.Entries[0].Body)
}

// seed test 2: OR latch — the trailing where appended after the latch
// joins the or-list.
func TestCompile_OrLatch(t *testing.T) {
	b := query.New("events").Where("a", 1).OrWhere("b", 2).Where("c", 3)

	p, err := Compile(b, Options{})
	require.NoError(t, err)
	require.Len(t, p.Entries, 1)
	require.Equal(t, bson.M{"$or": bson.A{
		bson.M{"a": 1}, bson.M{"b": 2}, bson.M{"c": 3},
	}}, p.Entries[0].Body)
}

// seed test 3: callback nesting.
func TestCompile_CallbackNesting(t *testing.T) {
	b := query.New("events").
		Where("status", "active").
		WhereCallback(func(sub *query.Builder) {
			sub.Where("x", 1).OrWhere("y", 2)
		})

	p, err := Compile(b, Options{})
	require.NoError(t, err)
	require.Len(t, p.Entries, 1)
	require.Equal(t, bson.M{
		"status": "active",
		"$or":    bson.A{bson.M{"x": 1}, bson.M{"y": 2}},
	}, p.Entries[0].Body)
}

// seed test 4: group + aggregate + rename.
func TestCompile_GroupAggregateRename(t *testing.T) {
	b := query.New("events").GroupBy("type", map[string]query.Aggregate{
		"total": {Op: query.AggSum, Field: "duration"},
	})

	p, err := Compile(b, Options{})
	require.NoError(t, err)
	require.Len(t, p.Entries, 2)

	require.Equal(t, plan.Group, p.Entries[0].Stage)
	require.Equal(t, bson.M{
		"_id":   "$type",
		"total": bson.M{"$sum": "$duration"},
	}, p.Entries[0].Body)

	require.Equal(t, plan.Project, p.Entries[1].Stage)
	require.Equal(t, bson.M{
		"type":  "$_id",
		"total": 1,
		"_id":   0,
	}, p.Entries[1].Body)
}

// spec.md §8: compile(L) is deterministic.
func TestCompile_Deterministic(t *testing.T) {
	build := func() *query.Builder {
		return query.New("events").
			WhereMap(map[string]interface{}{"a": 1, "b": 2, "c": 3}).
			GroupByMap(map[string]interface{}{"x": "$x", "y": "$y"}, map[string]query.Aggregate{
				"total": {Op: query.AggSum, Field: "duration"},
				"count": {Op: query.AggCount},
			})
	}

	first, err := Compile(build(), Options{})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Compile(build(), Options{})
		require.NoError(t, err)
		require.Equal(t, first.Entries, again.Entries)
	}
}

// spec.md §8: a log with only mergeable match ops and no callbacks
// produces exactly one match entry.
func TestCompile_SingleMatchEntry(t *testing.T) {
	b := query.New("events").Where("a", 1).Where("b", 2).WhereNotNull("c")
	p, err := Compile(b, Options{})
	require.NoError(t, err)
	require.Len(t, p.Entries, 1)
}

// spec.md §8: a log ending limit(a)...limit(b) has effective limit b.
func TestCompile_LastLimitWins(t *testing.T) {
	b := query.New("events").Where("a", 1).Limit(10).Skip(5).Limit(20)
	p, err := Compile(b, Options{})
	require.NoError(t, err)

	var limits []interface{}
	for _, e := range p.Entries {
		if e.Stage == plan.Limit {
			limits = append(limits, e.Body)
		}
	}
	require.Equal(t, []interface{}{20}, limits)
}

// spec.md §8: round-trip — where(f,v).get() and where({f:v}).get() agree.
func TestCompile_WhereMapRoundTrip(t *testing.T) {
	list, err := Compile(query.New("events").Where("status", "active"), Options{})
	require.NoError(t, err)
	asMap, err := Compile(query.New("events").WhereMap(map[string]interface{}{"status": "active"}), Options{})
	require.NoError(t, err)

	require.Equal(t, list.Entries, asMap.Entries)
}

// spec.md §8: a sub-builder with at least one orWhere* folds to a pure
// Or predicate.
func TestCompile_SubBuilderPureOr(t *testing.T) {
	b := query.New("events").WhereCallback(func(sub *query.Builder) {
		sub.Where("x", 1).OrWhere("y", 2).OrWhere("z", 3)
	})
	p, err := Compile(b, Options{})
	require.NoError(t, err)
	require.Len(t, p.Entries, 1)
	require.Equal(t, bson.M{"$or": bson.A{
		bson.M{"x": 1}, bson.M{"y": 2}, bson.M{"z": 3},
	}}, p.Entries[0].Body)
}

func TestCompile_HavingAfterGroup(t *testing.T) {
	b := query.New("events").
		GroupBy("type", map[string]query.Aggregate{"total": {Op: query.AggSum, Field: "duration"}}).
		Having("total", predicate.Gt, 100)

	p, err := Compile(b, Options{})
	require.NoError(t, err)
	require.Len(t, p.Entries, 3)
	require.Equal(t, plan.Group, p.Entries[0].Stage)
	require.Equal(t, plan.Project, p.Entries[1].Stage)
	require.Equal(t, plan.Match, p.Entries[2].Stage)
	require.Equal(t, bson.M{"total": bson.M{"$gt": 100}}, p.Entries[2].Body)
}

func TestCompile_EmptyMatchRunEmitsNoEntry(t *testing.T) {
	b := query.New("events")
	p, err := Compile(b, Options{})
	require.NoError(t, err)
	require.Empty(t, p.Entries)
}

// operators other than the Eq/Regex/JSONContain special cases must
// lower to their own $-prefixed Mongo key, not silently fall back to
// $eq (mongoOp's default).
func TestCompile_WhereNullLowersToExistsFalse(t *testing.T) {
	b := query.New("events").WhereNull("deletedAt")
	p, err := Compile(b, Options{})
	require.NoError(t, err)
	require.Equal(t, bson.M{"deletedAt": bson.M{"$exists": false}}, p.Entries[0].Body)
}

func TestCompile_WhereFieldExistsLowersToExistsTrue(t *testing.T) {
	b := query.New("events").WhereFieldExists("avatar")
	p, err := Compile(b, Options{})
	require.NoError(t, err)
	require.Equal(t, bson.M{"avatar": bson.M{"$exists": true}}, p.Entries[0].Body)
}

func TestCompile_WhereSizeEqLowersToSizeOperator(t *testing.T) {
	b := query.New("events").WhereSize("tags", predicate.Eq, 3)
	p, err := Compile(b, Options{})
	require.NoError(t, err)
	require.Equal(t, bson.M{"tags": bson.M{"$size": 3}}, p.Entries[0].Body)
}

func TestCompile_WhereJSONTypeLowersToTypeOperator(t *testing.T) {
	b := query.New("events").WhereJSONType("payload", "object")
	p, err := Compile(b, Options{})
	require.NoError(t, err)
	require.Equal(t, bson.M{"payload": bson.M{"$type": "object"}}, p.Entries[0].Body)
}

func TestCompile_PipelineRendersStageNames(t *testing.T) {
	b := query.New("events").Where("a", 1).Limit(5)
	p, err := Compile(b, Options{})
	require.NoError(t, err)

	pipeline := p.Pipeline()
	require.Len(t, pipeline, 2)
	require.Equal(t, "$match", pipeline[0][0].Key)
	require.Equal(t, "$limit", pipeline[1][0].Key)
}
