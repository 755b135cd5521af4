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

package compiler

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/warlockjs/cascade-sub003/query"
)

// foldWindowOp lowers the window stage's sole supported kind,
// orderByRandom, to a $sample (SPEC_FULL.md Supplemented Features).
func foldWindowOp(op query.Operation) bson.M {
	p := op.Payload.(query.RandomSortPayload)
	return bson.M{"size": p.SampleSize}
}
