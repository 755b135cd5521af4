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

package plan

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestPlan_AppendRecordsOrder(t *testing.T) {
	p := &Plan{}
	p.Append(Match, bson.M{"a": 1})
	p.Append(Limit, 5)

	require.Len(t, p.Entries, 2)
	require.Equal(t, Match, p.Entries[0].Stage)
	require.Equal(t, Limit, p.Entries[1].Stage)
	require.Equal(t, 5, p.Entries[1].Body)
}

func TestPlan_DegradeAppendsNote(t *testing.T) {
	p := &Plan{}
	p.Degrade("rightJoin lowered to leftJoin with swapped fields")
	require.Equal(t, []string{"rightJoin lowered to leftJoin with swapped fields"}, p.Degradations)
}

// spec.md §4.8: degradations are never silently dropped — empty by
// default, populated only when a best-effort lowering occurred.
func TestPlan_DegradationsEmptyByDefault(t *testing.T) {
	p := &Plan{}
	p.Append(Match, bson.M{"a": 1})
	require.Empty(t, p.Degradations)
}

func TestPlan_PipelineRendersSingleKeyDocuments(t *testing.T) {
	p := &Plan{}
	p.Append(Match, bson.M{"status": "active"})
	p.Append(Group, bson.M{"_id": "$type"})
	p.Append(Sort, bson.M{"createdAt": -1})

	pipeline := p.Pipeline()
	require.Len(t, pipeline, 3)
	require.Equal(t, bson.D{{Key: "$match", Value: bson.M{"status": "active"}}}, pipeline[0])
	require.Equal(t, bson.D{{Key: "$group", Value: bson.M{"_id": "$type"}}}, pipeline[1])
	require.Equal(t, bson.D{{Key: "$sort", Value: bson.M{"createdAt": -1}}}, pipeline[2])
}

func TestPlan_PipelineEmptyForEmptyPlan(t *testing.T) {
	p := &Plan{}
	require.Empty(t, p.Pipeline())
}
