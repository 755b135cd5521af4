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

package cqerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewCompilationError_MessageAndUnwrap(t *testing.T) {
	err := NewCompilationError("unknown operation kind")
	require.Contains(t, err.Error(), "compilation error")
	require.Contains(t, err.Error(), "unknown operation kind")

	var ce *CompilationError
	require.True(t, errors.As(err, &ce))
	require.NotNil(t, ce.Unwrap())
}

func TestWrapBackendError_NilPassesThrough(t *testing.T) {
	require.NoError(t, WrapBackendError(nil, nil))
}

func TestWrapBackendError_PreservesCauseIdentity(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := WrapBackendError(cause, "some-plan")

	require.True(t, errors.Is(wrapped, cause))
	var be *BackendError
	require.True(t, errors.As(wrapped, &be))
	require.Equal(t, "some-plan", be.Plan)
	require.Contains(t, wrapped.Error(), "backend error")
}

func TestNewTransactionFinalizationError_WithoutRollbackErr(t *testing.T) {
	cause := errors.New("commit failed")
	err := NewTransactionFinalizationError(cause, nil)
	require.Contains(t, err.Error(), "transaction finalization error")
	require.NotContains(t, err.Error(), "rollback also failed")
}

func TestNewTransactionFinalizationError_WithRollbackErr(t *testing.T) {
	cause := errors.New("commit failed")
	rollbackErr := errors.New("rollback also failed: network timeout")
	err := NewTransactionFinalizationError(cause, rollbackErr)
	require.Contains(t, err.Error(), "commit failed")
	require.Contains(t, err.Error(), "best-effort rollback also failed")
}

func TestNewInvalidArgumentError(t *testing.T) {
	err := NewInvalidArgumentError("array update missing identifierField")
	require.Contains(t, err.Error(), "invalid argument")
	require.Contains(t, err.Error(), "array update missing identifierField")
}
