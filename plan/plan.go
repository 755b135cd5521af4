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

// Package plan is the sole interface between the Compiler and a Driver:
// an ordered sequence of stage entries, each a backend-native body, with
// no remaining knowledge of the Operation Log that produced it.
package plan

import "go.mongodb.org/mongo-driver/bson"

// StageName is a document-store aggregation pipeline stage key, e.g.
// "$match", "$project".
type StageName string

const (
	Match   StageName = "$match"
	Project StageName = "$project"
	Sort    StageName = "$sort"
	Group   StageName = "$group"
	Lookup  StageName = "$lookup"
	Limit   StageName = "$limit"
	Skip    StageName = "$skip"
	Sample  StageName = "$sample"
	Unwind  StageName = "$unwind"
)

// Entry is one compiled pipeline stage: a single-key pair of stage name
// to backend-native body (spec.md §6, "Plan format").
type Entry struct {
	Stage StageName
	Body  interface{}
}

// Plan is the ordered compiled output of the Compiler.
type Plan struct {
	Entries []Entry

	// Degradations records best-effort lowerings that mapped an
	// unsupported construct onto a supported one (e.g. rightJoin -> left
	// join). Never silently dropped (spec.md §4.8).
	Degradations []string
}

// Append adds entry as the next stage.
func (p *Plan) Append(stage StageName, body interface{}) {
	p.Entries = append(p.Entries, Entry{Stage: stage, Body: body})
}

// Degrade records a best-effort-lowering note.
func (p *Plan) Degrade(note string) {
	p.Degradations = append(p.Degradations, note)
}

// Pipeline renders the Plan as a mongo.Pipeline-shaped document list —
// the literal wire format a document-store driver's Aggregate call
// consumes (grounded in other_examples' goodm Pipeline.Execute, which
// passes exactly this shape to coll.Aggregate).
func (p *Plan) Pipeline() []bson.D {
	out := make([]bson.D, 0, len(p.Entries))
	for _, e := range p.Entries {
		out = append(out, bson.D{{Key: string(e.Stage), Value: e.Body}})
	}
	return out
}
