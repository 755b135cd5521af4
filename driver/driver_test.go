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

package driver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/warlockjs/cascade-sub003/cqerrors"
)

func TestTransaction_CommitSuccessNeverRollsBack(t *testing.T) {
	rolledBack := false
	tx := NewTransaction(context.Background(),
		func() error { return nil },
		func() error { rolledBack = true; return nil },
	)

	require.NoError(t, tx.Commit())
	require.False(t, rolledBack)
}

// spec.md §7: a failed commit triggers a best-effort rollback and
// surfaces as a TransactionFinalizationError.
func TestTransaction_CommitFailureRollsBackAndWraps(t *testing.T) {
	commitErr := errors.New("commit rejected")
	rolledBack := false
	tx := NewTransaction(context.Background(),
		func() error { return commitErr },
		func() error { rolledBack = true; return nil },
	)

	err := tx.Commit()
	require.True(t, rolledBack)
	var fe *cqerrors.TransactionFinalizationError
	require.True(t, errors.As(err, &fe))
	require.ErrorIs(t, err, commitErr)
}

func TestTransaction_CommitFailureRollbackAlsoFailsStillWrapsCommitErr(t *testing.T) {
	commitErr := errors.New("commit rejected")
	rollbackErr := errors.New("rollback unreachable")
	tx := NewTransaction(context.Background(),
		func() error { return commitErr },
		func() error { return rollbackErr },
	)

	err := tx.Commit()
	require.ErrorIs(t, err, commitErr)
	require.Contains(t, err.Error(), "rollback unreachable")
}

// Commit/Rollback are each at most once regardless of call count.
func TestTransaction_CommitIsSafeToCallTwice(t *testing.T) {
	calls := 0
	tx := NewTransaction(context.Background(),
		func() error { calls++; return nil },
		func() error { return nil },
	)

	require.NoError(t, tx.Commit())
	require.NoError(t, tx.Commit())
	require.Equal(t, 1, calls)
}
