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

package predicate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsEmpty_Nil(t *testing.T) {
	require.True(t, IsEmpty(nil))
}

func TestIsEmpty_EmptyAndOr(t *testing.T) {
	require.True(t, IsEmpty(And{}))
	require.True(t, IsEmpty(Or{}))
}

func TestIsEmpty_NonEmpty(t *testing.T) {
	leaf := Leaf{Field: "a", Operator: Eq, Value: 1}
	require.False(t, IsEmpty(leaf))
	require.False(t, IsEmpty(And{Children: []Node{leaf}}))
	require.False(t, IsEmpty(Or{Children: []Node{leaf}}))
}

func TestIsEmpty_NorNeverEmpty(t *testing.T) {
	// Nor isn't special-cased by IsEmpty — only And/Or collapse.
	require.False(t, IsEmpty(Nor{}))
}

func TestFieldRef_DistinctFromString(t *testing.T) {
	leaf := Leaf{Field: "endsAt", Operator: Gt, Value: FieldRef("startsAt")}
	ref, ok := leaf.Value.(FieldRef)
	require.True(t, ok)
	require.Equal(t, FieldRef("startsAt"), ref)
}
