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

package syncadapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/warlockjs/cascade-sub003/cqerrors"
)

type recordedCall struct {
	table  string
	filter bson.M
	update bson.M
	opts   UpdateOptions
}

type fakeUpdater struct {
	calls  []recordedCall
	result int
	err    error
}

func (f *fakeUpdater) UpdateMany(ctx context.Context, table string, filter, update bson.M, opts UpdateOptions) (int, error) {
	f.calls = append(f.calls, recordedCall{table: table, filter: filter, update: update, opts: opts})
	return f.result, f.err
}

// spec.md §8 seed test 5.
func TestProcess_FilteredElementStrategy(t *testing.T) {
	updater := &fakeUpdater{result: 1}
	instructions := []Instruction{{
		TargetTable:     "posts",
		Filter:          bson.M{"_id": "P1"},
		Update:          bson.M{"$set": bson.M{"comments.$.text": "hi"}},
		ArrayField:      "comments",
		IdentifierField: "cid",
		IdentifierValue: "C7",
		IsArrayUpdate:   true,
	}}

	total, err := Process(context.Background(), instructions, updater)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, updater.calls, 1)

	call := updater.calls[0]
	require.Equal(t, "posts", call.table)
	require.Equal(t, bson.M{"$set": bson.M{"comments.$[elem].text": "hi"}}, call.update)
	require.Equal(t, []bson.M{{"elem.cid": "C7"}}, call.opts.ArrayFilters)
	require.Equal(t, bson.M{"_id": "P1", "comments": bson.M{"$exists": true, "$ne": bson.A{}}}, call.filter)
}

func TestProcess_PositionalIndexStrategySkipsRewrite(t *testing.T) {
	updater := &fakeUpdater{result: 1}
	instructions := []Instruction{{
		TargetTable:     "posts",
		Filter:          bson.M{"_id": "P1", "comments.cid": "C7"},
		Update:          bson.M{"$set": bson.M{"comments.$.text": "hi"}},
		ArrayField:      "comments",
		IdentifierField: "cid",
		IdentifierValue: "C7",
		IsArrayUpdate:   true,
	}}

	_, err := Process(context.Background(), instructions, updater)
	require.NoError(t, err)

	call := updater.calls[0]
	require.Equal(t, bson.M{"$set": bson.M{"comments.$.text": "hi"}}, call.update)
	require.Empty(t, call.opts.ArrayFilters)
	require.Equal(t, bson.M{"_id": "P1", "comments.cid": "C7"}, call.filter)
}

func TestProcess_NonArrayUpdatePassesThrough(t *testing.T) {
	updater := &fakeUpdater{result: 3}
	instructions := []Instruction{{
		TargetTable: "posts",
		Filter:      bson.M{"status": "draft"},
		Update:      bson.M{"$set": bson.M{"status": "published"}},
	}}

	total, err := Process(context.Background(), instructions, updater)
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Empty(t, updater.calls[0].opts.ArrayFilters)
}

func TestProcess_ArrayUpdateMissingFieldsIsInvalidArgument(t *testing.T) {
	updater := &fakeUpdater{}
	instructions := []Instruction{{
		TargetTable:   "posts",
		IsArrayUpdate: true,
	}}

	_, err := Process(context.Background(), instructions, updater)
	require.Error(t, err)
	var invalid *cqerrors.InvalidArgumentError
	require.ErrorAs(t, err, &invalid)
}

func TestProcess_AccumulatesAcrossInstructions(t *testing.T) {
	updater := &fakeUpdater{result: 2}
	instructions := []Instruction{
		{TargetTable: "posts", Filter: bson.M{"a": 1}, Update: bson.M{"$set": bson.M{"x": 1}}},
		{TargetTable: "posts", Filter: bson.M{"a": 2}, Update: bson.M{"$set": bson.M{"x": 2}}},
	}

	total, err := Process(context.Background(), instructions, updater)
	require.NoError(t, err)
	require.Equal(t, 4, total)
	require.Len(t, updater.calls, 2)
}

func TestProcess_StopsOnFirstError(t *testing.T) {
	updater := &fakeUpdater{err: context.Canceled}
	instructions := []Instruction{
		{TargetTable: "posts", Filter: bson.M{"a": 1}, Update: bson.M{}},
		{TargetTable: "posts", Filter: bson.M{"a": 2}, Update: bson.M{}},
	}

	_, err := Process(context.Background(), instructions, updater)
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, updater.calls, 1)
}

func TestWidenFilter_LeavesExistingArrayConstraintAlone(t *testing.T) {
	filter := bson.M{"comments.cid": "C7"}
	widened := widenFilter(filter, "comments")
	require.Equal(t, filter, widened)
}
