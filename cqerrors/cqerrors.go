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

// Package cqerrors is the error taxonomy shared by the compiler and sync
// adapter (spec.md §7): CompilationError, BackendError,
// TransactionFinalizationError, InvalidArgumentError.
package cqerrors

import "github.com/pkg/errors"

// CompilationError wraps a malformed-builder-state failure: an unknown
// operation kind, an aggregate descriptor missing its field, a group
// spec of unsupported shape. Fatal, raised synchronously from the
// compilation step.
type CompilationError struct {
	Reason string
	cause  error
}

func (e *CompilationError) Error() string {
	if e.cause != nil {
		return "compilation error: " + e.Reason + ": " + e.cause.Error()
	}
	return "compilation error: " + e.Reason
}

func (e *CompilationError) Unwrap() error { return e.cause }

// NewCompilationError constructs a CompilationError, attaching a stack
// trace via github.com/pkg/errors so the caller can diagnose where the
// malformed builder state originated.
func NewCompilationError(reason string) error {
	return &CompilationError{Reason: reason, cause: errors.New(reason)}
}

// BackendError wraps a driver-surfaced failure verbatim — the Compiler
// and Sync Adapter never rewrite it, only attach the offending plan for
// diagnostics.
type BackendError struct {
	Plan  interface{}
	cause error
}

func (e *BackendError) Error() string {
	return "backend error: " + e.cause.Error()
}

func (e *BackendError) Unwrap() error { return e.cause }

// WrapBackendError attaches plan to a driver error for diagnostics
// without altering the underlying error's identity (errors.Is/As still
// see through to cause).
func WrapBackendError(cause error, plan interface{}) error {
	if cause == nil {
		return nil
	}
	return &BackendError{Plan: plan, cause: errors.WithStack(cause)}
}

// TransactionFinalizationError is raised if commit fails after the
// session has already produced side effects. The core attempts a
// best-effort rollback before this propagates; a rollback failure is
// kept in RollbackErr and shown in Error(), but never replaces cause.
type TransactionFinalizationError struct {
	cause          error
	RollbackErr    error
}

func (e *TransactionFinalizationError) Error() string {
	msg := "transaction finalization error: " + e.cause.Error()
	if e.RollbackErr != nil {
		msg += " (best-effort rollback also failed: " + e.RollbackErr.Error() + ")"
	}
	return msg
}

func (e *TransactionFinalizationError) Unwrap() error { return e.cause }

// NewTransactionFinalizationError wraps a commit failure, recording a
// secondary rollback error (if any) without letting it shadow cause.
func NewTransactionFinalizationError(cause error, rollbackErr error) error {
	return &TransactionFinalizationError{cause: errors.WithStack(cause), RollbackErr: rollbackErr}
}

// InvalidArgumentError is raised by the Sync Adapter when an array
// update lacks its required fields.
type InvalidArgumentError struct {
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return "invalid argument: " + e.Reason
}

// NewInvalidArgumentError constructs an InvalidArgumentError.
func NewInvalidArgumentError(reason string) error {
	return &InvalidArgumentError{Reason: reason}
}
