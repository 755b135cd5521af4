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

// Package memdriver is an in-memory reference implementation of
// driver.Driver (spec.md §6), used by the core's own tests and as a
// worked example of what a real driver's contract looks like. It is
// not meant to back production traffic — there is no persistence, no
// indexing, and the aggregation engine in aggregate.go only covers the
// subset of stage bodies the compiler package actually emits.
package memdriver

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/warlockjs/cascade-sub003/cqerrors"
	"github.com/warlockjs/cascade-sub003/driver"
	"github.com/warlockjs/cascade-sub003/plan"
	"github.com/warlockjs/cascade-sub003/query"
	"github.com/warlockjs/cascade-sub003/txctx"
)

// Store is an in-memory document store keyed by table name, guarded by
// a single mutex — the teacher's memory.Database uses the same coarse
// locking strategy rather than per-table locks.
type Store struct {
	mu     sync.Mutex
	tables map[string][]bson.M
}

// New returns an empty Store.
func New() *Store {
	return &Store{tables: map[string][]bson.M{}}
}

var _ driver.Driver = (*Store)(nil)

func (s *Store) rows(table string) []bson.M {
	return s.tables[table]
}

func cloneDoc(d bson.M) bson.M {
	out := make(bson.M, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

func stampID(d bson.M) bson.M {
	if _, ok := d["_id"]; !ok {
		d["_id"] = primitive.NewObjectID()
	}
	return d
}

func (s *Store) Insert(ctx context.Context, table string, doc bson.M, opts driver.Options) (bson.M, error) {
	opts = driver.HonorSession(ctx, opts)
	s.mu.Lock()
	defer s.mu.Unlock()
	inserted := stampID(cloneDoc(doc))
	s.tables[table] = append(s.tables[table], inserted)
	return cloneDoc(inserted), nil
}

func (s *Store) InsertMany(ctx context.Context, table string, docs []bson.M, opts driver.Options) ([]bson.M, error) {
	opts = driver.HonorSession(ctx, opts)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]bson.M, 0, len(docs))
	for _, d := range docs {
		inserted := stampID(cloneDoc(d))
		s.tables[table] = append(s.tables[table], inserted)
		out = append(out, cloneDoc(inserted))
	}
	return out, nil
}

func (s *Store) Update(ctx context.Context, table string, filter, update bson.M, opts driver.Options) (int, error) {
	opts = driver.HonorSession(ctx, opts)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows(table) {
		if matchDocument(row, filter) {
			applyUpdate(row, update, opts.ArrayFilters)
			return 1, nil
		}
	}
	return 0, nil
}

func (s *Store) UpdateMany(ctx context.Context, table string, filter, update bson.M, opts driver.Options) (int, error) {
	opts = driver.HonorSession(ctx, opts)
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, row := range s.rows(table) {
		if matchDocument(row, filter) {
			applyUpdate(row, update, opts.ArrayFilters)
			count++
		}
	}
	return count, nil
}

func (s *Store) Replace(ctx context.Context, table string, filter, doc bson.M, opts driver.Options) (bson.M, error) {
	opts = driver.HonorSession(ctx, opts)
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.rows(table)
	for i, row := range rows {
		if matchDocument(row, filter) {
			replaced := cloneDoc(doc)
			replaced["_id"] = row["_id"]
			rows[i] = replaced
			return cloneDoc(replaced), nil
		}
	}
	return nil, nil
}

func (s *Store) FindOneAndUpdate(ctx context.Context, table string, filter, update bson.M, opts driver.Options) (bson.M, error) {
	opts = driver.HonorSession(ctx, opts)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows(table) {
		if matchDocument(row, filter) {
			applyUpdate(row, update, opts.ArrayFilters)
			return cloneDoc(row), nil
		}
	}
	return nil, nil
}

func (s *Store) FindOneAndDelete(ctx context.Context, table string, filter bson.M, opts driver.Options) (bson.M, error) {
	opts = driver.HonorSession(ctx, opts)
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.rows(table)
	for i, row := range rows {
		if matchDocument(row, filter) {
			s.tables[table] = append(rows[:i], rows[i+1:]...)
			return cloneDoc(row), nil
		}
	}
	return nil, nil
}

func (s *Store) Upsert(ctx context.Context, table string, filter, doc bson.M, opts driver.Options) (bson.M, error) {
	opts = driver.HonorSession(ctx, opts)
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.rows(table)
	for i, row := range rows {
		if matchDocument(row, filter) {
			replaced := cloneDoc(doc)
			replaced["_id"] = row["_id"]
			rows[i] = replaced
			return cloneDoc(replaced), nil
		}
	}
	inserted := stampID(cloneDoc(doc))
	s.tables[table] = append(s.tables[table], inserted)
	return cloneDoc(inserted), nil
}

func (s *Store) Delete(ctx context.Context, table string, filter bson.M, opts driver.Options) (int, error) {
	opts = driver.HonorSession(ctx, opts)
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.rows(table)
	for i, row := range rows {
		if matchDocument(row, filter) {
			s.tables[table] = append(rows[:i], rows[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (s *Store) DeleteMany(ctx context.Context, table string, filter bson.M, opts driver.Options) (int, error) {
	opts = driver.HonorSession(ctx, opts)
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.rows(table)
	kept := rows[:0]
	count := 0
	for _, row := range rows {
		if matchDocument(row, filter) {
			count++
			continue
		}
		kept = append(kept, row)
	}
	s.tables[table] = kept
	return count, nil
}

func (s *Store) TruncateTable(ctx context.Context, table string, opts driver.Options) (int, error) {
	opts = driver.HonorSession(ctx, opts)
	s.mu.Lock()
	defer s.mu.Unlock()
	count := len(s.tables[table])
	delete(s.tables, table)
	return count, nil
}

// BeginTransaction snapshots every table so Rollback can restore it.
// There is no write-ahead log and no isolation between concurrent
// transactions beyond the Store's single mutex — sufficient to exercise
// txctx propagation (spec.md §8 seed test 6), not a production
// transaction model.
func (s *Store) BeginTransaction(ctx context.Context) (*driver.Transaction, error) {
	s.mu.Lock()
	snapshot := make(map[string][]bson.M, len(s.tables))
	for k, rows := range s.tables {
		cp := make([]bson.M, len(rows))
		for i, r := range rows {
			cp[i] = cloneDoc(r)
		}
		snapshot[k] = cp
	}
	s.mu.Unlock()

	session := &txSession{}
	txCtx := txctx.Enter(ctx, session)

	return driver.NewTransaction(txCtx, func() error {
		return nil
	}, func() error {
		s.mu.Lock()
		s.tables = snapshot
		s.mu.Unlock()
		return nil
	}), nil
}

// txSession is the opaque handle stamped into the ambient context; the
// Store itself never inspects it beyond presence.
type txSession struct{}

func (s *Store) QueryBuilder(table string) *query.Builder {
	return query.New(table)
}

// Execute runs a compiled Plan against table's rows (spec.md §2: "the
// Compiler produces a Plan → a Driver executes the plan").
func (s *Store) Execute(ctx context.Context, table string, p *plan.Plan, opts driver.Options) ([]bson.M, error) {
	opts = driver.HonorSession(ctx, opts)
	s.mu.Lock()
	rows := make([]bson.M, len(s.rows(table)))
	for i, r := range s.rows(table) {
		rows[i] = cloneDoc(r)
	}
	tables := make(map[string][]bson.M, len(s.tables))
	for name, trows := range s.tables {
		cp := make([]bson.M, len(trows))
		for i, r := range trows {
			cp[i] = cloneDoc(r)
		}
		tables[name] = cp
	}
	s.mu.Unlock()

	out, err := runPipeline(rows, tables, p.Entries)
	if err != nil {
		return nil, cqerrors.WrapBackendError(err, p)
	}
	return out, nil
}

var errUnsupportedStage = errors.New("memdriver: unsupported pipeline stage")
