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

package memdriver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/warlockjs/cascade-sub003/compiler"
	"github.com/warlockjs/cascade-sub003/driver"
	"github.com/warlockjs/cascade-sub003/query"
	"github.com/warlockjs/cascade-sub003/syncadapter"
	"github.com/warlockjs/cascade-sub003/txctx"
)

func TestStore_InsertAndExecuteMatch(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.Insert(ctx, "events", bson.M{"type": "click", "duration": 3}, driver.Options{})
	require.NoError(t, err)
	_, err = s.Insert(ctx, "events", bson.M{"type": "view", "duration": 1}, driver.Options{})
	require.NoError(t, err)

	b := s.QueryBuilder("events").Where("type", "click")
	p, err := compiler.Compile(b, compiler.Options{})
	require.NoError(t, err)

	out, err := s.Execute(ctx, "events", p, driver.Options{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "click", out[0]["type"])
}

func TestStore_GroupByAndRename(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, _ = s.Insert(ctx, "events", bson.M{"type": "click", "duration": 3}, driver.Options{})
	_, _ = s.Insert(ctx, "events", bson.M{"type": "click", "duration": 5}, driver.Options{})
	_, _ = s.Insert(ctx, "events", bson.M{"type": "view", "duration": 2}, driver.Options{})

	b := s.QueryBuilder("events").GroupBy("type", map[string]query.Aggregate{
		"total": {Op: query.AggSum, Field: "duration"},
	})
	p, err := compiler.Compile(b, compiler.Options{})
	require.NoError(t, err)

	out, err := s.Execute(ctx, "events", p, driver.Options{})
	require.NoError(t, err)
	require.Len(t, out, 2)

	totals := map[string]float64{}
	for _, doc := range out {
		totals[doc["type"].(string)] = doc["total"].(float64)
	}
	require.Equal(t, float64(8), totals["click"])
	require.Equal(t, float64(2), totals["view"])
}

func TestStore_LimitSkipSort(t *testing.T) {
	s := New()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, _ = s.Insert(ctx, "events", bson.M{"n": i}, driver.Options{})
	}

	b := s.QueryBuilder("events").OrderByDesc("n").Skip(1).Limit(2)
	p, err := compiler.Compile(b, compiler.Options{})
	require.NoError(t, err)

	out, err := s.Execute(ctx, "events", p, driver.Options{})
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, 3, out[0]["n"])
	require.Equal(t, 2, out[1]["n"])
}

func TestStore_SyncAdapterFilteredElementUpdate(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, err := s.Insert(ctx, "posts", bson.M{
		"_id":      "P1",
		"comments": bson.A{bson.M{"cid": "C7", "text": "old"}, bson.M{"cid": "C8", "text": "other"}},
	}, driver.Options{})
	require.NoError(t, err)

	instructions := []syncadapter.Instruction{{
		TargetTable:     "posts",
		Filter:          bson.M{"_id": "P1"},
		Update:          bson.M{"$set": bson.M{"comments.$.text": "hi"}},
		ArrayField:      "comments",
		IdentifierField: "cid",
		IdentifierValue: "C7",
		IsArrayUpdate:   true,
	}}

	total, err := syncadapter.Process(ctx, instructions, driver.AsSyncUpdater(s))
	require.NoError(t, err)
	require.Equal(t, 1, total)

	b := s.QueryBuilder("posts")
	p, err := compiler.Compile(b, compiler.Options{})
	require.NoError(t, err)
	out, err := s.Execute(ctx, "posts", p, driver.Options{})
	require.NoError(t, err)
	require.Len(t, out, 1)

	comments := out[0]["comments"].(bson.A)
	require.Equal(t, "hi", comments[0].(bson.M)["text"])
	require.Equal(t, "other", comments[1].(bson.M)["text"])
}

func TestStore_TransactionRollbackRestoresSnapshot(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, err := s.Insert(ctx, "events", bson.M{"n": 1}, driver.Options{})
	require.NoError(t, err)

	tx, err := s.BeginTransaction(ctx)
	require.NoError(t, err)

	_, err = s.Insert(tx.Context, "events", bson.M{"n": 2}, driver.Options{})
	require.NoError(t, err)
	require.Len(t, s.tables["events"], 2)

	require.NoError(t, tx.Rollback())
	require.Len(t, s.tables["events"], 1)

	// Rollback is a safe no-op the second time.
	require.NoError(t, tx.Rollback())
}

// spec.md §8 seed test 6, exercised through a real driver call.
func TestStore_HonorsAmbientSessionOnInsert(t *testing.T) {
	s := New()
	txCtx := txctx.Enter(context.Background(), "S1")

	doc, err := s.Insert(txCtx, "events", bson.M{"n": 1}, driver.Options{})
	require.NoError(t, err)
	require.NotNil(t, doc)
	// Store does not persist the session; Insert fills opts through
	// HonorSession, so check what HonorSession yields for the same ctx.
	require.Equal(t, "S1", driver.HonorSession(txCtx, driver.Options{}).Session)

	// A call without ambient session and without opts.Session still
	// succeeds, and its Options.Session stays unset.
	_, err = s.Insert(context.Background(), "events", bson.M{"n": 2}, driver.Options{})
	require.NoError(t, err)
	require.Nil(t, driver.HonorSession(context.Background(), driver.Options{}).Session)
}

func TestStore_LookupJoin(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, _ = s.Insert(ctx, "authors", bson.M{"_id": "A1", "name": "Ada"}, driver.Options{})
	_, _ = s.Insert(ctx, "posts", bson.M{"authorId": "A1", "title": "Hello"}, driver.Options{})

	b := s.QueryBuilder("posts").Join("authors", "authorId", "_id", "author")
	p, err := compiler.Compile(b, compiler.Options{})
	require.NoError(t, err)

	out, err := s.Execute(ctx, "posts", p, driver.Options{})
	require.NoError(t, err)
	require.Len(t, out, 1)

	authors := out[0]["author"].(bson.A)
	require.Len(t, authors, 1)
	require.Equal(t, "Ada", authors[0].(bson.M)["name"])
}
