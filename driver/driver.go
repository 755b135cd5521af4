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

// Package driver declares the external interface the core consumes
// (spec.md §6): a Driver executes a compiled Plan and performs the
// direct CRUD operations the query surface doesn't go through a Plan
// for. The core ships no production driver, only the contract and an
// in-memory reference implementation under memdriver.
package driver

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/warlockjs/cascade-sub003/cqerrors"
	"github.com/warlockjs/cascade-sub003/plan"
	"github.com/warlockjs/cascade-sub003/query"
	"github.com/warlockjs/cascade-sub003/syncadapter"
	"github.com/warlockjs/cascade-sub003/txctx"
)

// Options carries the per-call knobs every Driver method accepts. If
// Session is nil, HonorSession fills it from the ambient txctx scope —
// "all driver operations must honor the ambient session unless
// opts.session is already supplied" (spec.md §6).
type Options struct {
	Session      interface{}
	ArrayFilters []bson.M
}

// HonorSession returns opts with Session set from ctx's ambient scope
// when the caller didn't already supply one. Driver implementations
// call this at the top of every method (spec.md §6).
func HonorSession(ctx context.Context, opts Options) Options {
	if opts.Session != nil {
		return opts
	}
	if s, ok := txctx.GetSession(ctx); ok {
		opts.Session = s
	}
	return opts
}

// Transaction is the handle returned by BeginTransaction. Commit and
// Rollback are each safe to call more than once — the second call is a
// no-op — per spec.md §5's finalize guard.
type Transaction struct {
	Context  context.Context
	commit   func() error
	rollback func() error
	once     sync.Once
	err      error
}

// NewTransaction constructs a Transaction handle. Driver implementations
// call this from BeginTransaction; commit and rollback are each invoked
// at most once regardless of how many times Commit/Rollback are called.
func NewTransaction(ctx context.Context, commit, rollback func() error) *Transaction {
	return &Transaction{Context: ctx, commit: commit, rollback: rollback}
}

// Commit finalizes the transaction. If the underlying commit fails
// after the session has already produced side effects, it attempts a
// best-effort rollback (its error, if any, is attached but never
// shadows the commit failure) and returns a
// cqerrors.TransactionFinalizationError (spec.md §7).
func (t *Transaction) Commit() error {
	t.once.Do(func() {
		if commitErr := t.commit(); commitErr != nil {
			rollbackErr := t.rollback()
			t.err = cqerrors.NewTransactionFinalizationError(commitErr, rollbackErr)
		}
	})
	return t.err
}

func (t *Transaction) Rollback() error {
	t.once.Do(func() { t.err = t.rollback() })
	return t.err
}

// Driver is the external collaborator the core compiles plans for and
// issues direct CRUD calls against (spec.md §6). Every method honors
// the ambient transaction session unless opts.Session is already set.
type Driver interface {
	Insert(ctx context.Context, table string, doc bson.M, opts Options) (bson.M, error)
	InsertMany(ctx context.Context, table string, docs []bson.M, opts Options) ([]bson.M, error)
	Update(ctx context.Context, table string, filter, update bson.M, opts Options) (int, error)
	UpdateMany(ctx context.Context, table string, filter, update bson.M, opts Options) (int, error)
	Replace(ctx context.Context, table string, filter, doc bson.M, opts Options) (bson.M, error)
	FindOneAndUpdate(ctx context.Context, table string, filter, update bson.M, opts Options) (bson.M, error)
	FindOneAndDelete(ctx context.Context, table string, filter bson.M, opts Options) (bson.M, error)
	Upsert(ctx context.Context, table string, filter, doc bson.M, opts Options) (bson.M, error)
	Delete(ctx context.Context, table string, filter bson.M, opts Options) (int, error)
	DeleteMany(ctx context.Context, table string, filter bson.M, opts Options) (int, error)
	TruncateTable(ctx context.Context, table string, opts Options) (int, error)
	BeginTransaction(ctx context.Context) (*Transaction, error)
	QueryBuilder(table string) *query.Builder
	// Execute runs a compiled Plan (the Compiler's output) and returns
	// the resulting documents. Not part of spec.md §6's CRUD list, but
	// named there as "the Driver executes the plan" in §2's data flow.
	Execute(ctx context.Context, table string, p *plan.Plan, opts Options) ([]bson.M, error)
}

// AsSyncUpdater adapts d to syncadapter.Updater: the Sync Adapter speaks
// syncadapter.UpdateOptions (just array filters), while Driver.UpdateMany
// speaks the richer Options (session plus array filters). The adapter is
// the seam between the two call conventions; the ambient session is
// still picked up inside d.UpdateMany via the ctx passed at call time.
func AsSyncUpdater(d Driver) syncadapter.Updater {
	return syncUpdaterAdapter{d: d}
}

type syncUpdaterAdapter struct {
	d Driver
}

func (a syncUpdaterAdapter) UpdateMany(ctx context.Context, table string, filter, update bson.M, opts syncadapter.UpdateOptions) (int, error) {
	return a.d.UpdateMany(ctx, table, filter, update, Options{ArrayFilters: opts.ArrayFilters})
}
