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

package txctx

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetSession_NoScope(t *testing.T) {
	_, ok := GetSession(context.Background())
	require.False(t, ok)
}

func TestEnterGetSession(t *testing.T) {
	ctx := Enter(context.Background(), "S1")
	s, ok := GetSession(ctx)
	require.True(t, ok)
	require.Equal(t, "S1", s)
}

func TestSetSession_OutsideScopePanics(t *testing.T) {
	require.Panics(t, func() {
		SetSession(context.Background(), "S1")
	})
}

func TestSetSession_WritesCurrentScope(t *testing.T) {
	ctx := Enter(context.Background(), nil)
	_, ok := GetSession(ctx)
	require.False(t, ok)

	SetSession(ctx, "S2")
	s, ok := GetSession(ctx)
	require.True(t, ok)
	require.Equal(t, "S2", s)
}

// spec.md §8 seed test 6, the context half: a task run inside Run
// observes the session, and the base context outside it sees none.
func TestRun_ObservesSessionOnlyInsideScope(t *testing.T) {
	base := context.Background()
	var observed interface{}

	err := Run(base, "S3", func(ctx context.Context) error {
		s, ok := GetSession(ctx)
		require.True(t, ok)
		observed = s
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, "S3", observed)

	_, ok := GetSession(base)
	require.False(t, ok)
}

// spec.md §8: transaction isolation — two concurrent tasks each running
// Run({session: S_i}, fn) each observe only S_i during fn.
func TestRun_ConcurrentIsolation(t *testing.T) {
	base := context.Background()
	var wg sync.WaitGroup
	results := make([]string, 10)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			session := "session-" + string(rune('A'+i))
			_ = Run(base, session, func(ctx context.Context) error {
				s, _ := GetSession(ctx)
				results[i] = s.(string)
				return nil
			})
		}(i)
	}
	wg.Wait()

	for i, r := range results {
		require.Equal(t, "session-"+string(rune('A'+i)), r)
	}
}

func TestRun_PropagatesTaskError(t *testing.T) {
	boom := context.Canceled
	err := Run(context.Background(), "S", func(ctx context.Context) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
}
