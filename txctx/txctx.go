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

// Package txctx is the ambient Transaction Context (spec.md §4.6): a
// per-logical-task scope carrying an active session handle, surviving
// asynchronous suspension. Go has no goroutine-local storage, so it is
// threaded explicitly as a context.Context — the fallback spec.md §9
// itself prescribes for environments lacking task-local storage,
// mirroring the teacher's sql.Context/sql.Session wrapping convention.
package txctx

import (
	"context"
	"sync"
)

type ctxKey struct{}

// scope is the mutable cell a logical task's context.Context points
// at. setSession writes into it in place so that any holder of a
// context derived from this scope (not a deeper child scope) observes
// the write without re-threading a new context — the closest Go gets
// to "write into the current scope only" without true goroutine-local
// storage.
type scope struct {
	mu      sync.Mutex
	session interface{}
	hasSess bool
}

// Enter pushes a new scope onto ctx, optionally seeded with an initial
// session. A non-nil session shadows the parent's; with a nil session
// the child starts with the parent scope's session as it is at Enter
// time (later SetSession calls on either scope are not shared).
// GetSession always reads the nearest enclosing scope.
func Enter(ctx context.Context, session interface{}) context.Context {
	s := &scope{}
	if session != nil {
		s.session = session
		s.hasSess = true
	} else if parent, ok := GetSession(ctx); ok {
		s.session = parent
		s.hasSess = true
	}
	return context.WithValue(ctx, ctxKey{}, s)
}

// Exit is a no-op at this layer: ctx is an immutable value, so "exiting"
// a scope is simply the caller reverting to the parent context.Context
// it held before calling Enter. It exists to name the operation spec.md
// §4.6 describes; Run calls it on every path. The driver's Transaction
// does not call it: a caller leaves the transaction's scope by no longer
// using Transaction.Context.
func Exit(ctx context.Context) {}

// GetSession returns the nearest enclosing scope's session, or
// (nil, false) if there is no scope or that scope has no session.
func GetSession(ctx context.Context) (interface{}, bool) {
	s, ok := ctx.Value(ctxKey{}).(*scope)
	if !ok {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session, s.hasSess
}

// SetSession writes into the current scope only — it panics if called
// outside any Enter'd scope, since there is no ambient scope to write
// into (mirrors spec.md's "writes into the current scope only").
func SetSession(ctx context.Context, session interface{}) {
	s, ok := ctx.Value(ctxKey{}).(*scope)
	if !ok {
		panic("txctx: SetSession called outside an entered scope")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session
	s.hasSess = true
}

// Run enters a scope seeded with session, runs task against the child
// context, and exits on all paths (including a panic unwinding through
// task, since Exit does no cleanup work to skip).
func Run(ctx context.Context, session interface{}, task func(context.Context) error) error {
	child := Enter(ctx, session)
	defer Exit(child)
	return task(child)
}
