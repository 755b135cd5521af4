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

// Package syncadapter translates a batch of Sync Instructions — updates
// to an element nested inside an embedded array, across many parent
// documents — into one or two backend writes per instruction (spec.md
// §4.7).
package syncadapter

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/warlockjs/cascade-sub003/cqerrors"
)

// Instruction is one sync request (spec.md §3's "Sync Instruction").
type Instruction struct {
	TargetTable     string
	Filter          bson.M
	Update          bson.M
	ArrayField      string
	IdentifierField string
	IdentifierValue interface{}
	IsArrayUpdate   bool
}

// UpdateOptions carries the per-element filter array a filtered-element
// strategy update needs (Mongo's arrayFilters update option).
type UpdateOptions struct {
	ArrayFilters []bson.M
}

// Updater is the minimal backend surface the adapter needs — satisfied
// by a Driver's UpdateMany.
type Updater interface {
	UpdateMany(ctx context.Context, table string, filter, update bson.M, opts UpdateOptions) (int, error)
}

// Process executes every instruction and returns the total count of
// affected documents across all of them.
func Process(ctx context.Context, instructions []Instruction, updater Updater) (int, error) {
	total := 0
	for _, instr := range instructions {
		modified, err := processOne(ctx, instr, updater)
		if err != nil {
			return total, err
		}
		total += modified
	}
	return total, nil
}

func processOne(ctx context.Context, instr Instruction, updater Updater) (int, error) {
	if !instr.IsArrayUpdate {
		return updater.UpdateMany(ctx, instr.TargetTable, instr.Filter, instr.Update, UpdateOptions{})
	}

	if instr.ArrayField == "" || instr.IdentifierField == "" {
		return 0, cqerrors.NewInvalidArgumentError("array update requires arrayField and identifierField")
	}

	positionalKey := instr.ArrayField + "." + instr.IdentifierField
	if _, ok := instr.Filter[positionalKey]; ok {
		// Positional-index strategy: the filter already pins the
		// element, so "$" in the update already targets it.
		return updater.UpdateMany(ctx, instr.TargetTable, instr.Filter, instr.Update, UpdateOptions{})
	}

	// Filtered-element strategy.
	rewritten := rewriteArrayPaths(instr.Update, instr.ArrayField)
	arrayFilter := bson.M{"elem." + instr.IdentifierField: instr.IdentifierValue}
	filter := widenFilter(instr.Filter, instr.ArrayField)

	return updater.UpdateMany(ctx, instr.TargetTable, filter, rewritten, UpdateOptions{ArrayFilters: []bson.M{arrayFilter}})
}

// rewriteArrayPaths walks update recursively, replacing every key
// containing "<arrayField>.$" with "<arrayField>.$[elem]" (spec.md
// §4.7). The operator names wrapping the path (set, unset, …) are not
// inspected — only path-shaped keys are rewritten.
func rewriteArrayPaths(update bson.M, arrayField string) bson.M {
	needle := arrayField + ".$"
	replacement := arrayField + ".$[elem]"
	out := bson.M{}
	for k, v := range update {
		newKey := k
		if strings.Contains(k, needle) {
			newKey = strings.Replace(k, needle, replacement, 1)
		}
		if nested, ok := v.(bson.M); ok {
			out[newKey] = rewriteArrayPaths(nested, arrayField)
			continue
		}
		if nested, ok := v.(map[string]interface{}); ok {
			out[newKey] = rewriteArrayPaths(bson.M(nested), arrayField)
			continue
		}
		out[newKey] = v
	}
	return out
}

// widenFilter adds an "array exists and non-empty" guard unless filter
// already constrains the array field, to avoid a full-collection scan
// (spec.md §4.7).
func widenFilter(filter bson.M, arrayField string) bson.M {
	for k := range filter {
		if k == arrayField || strings.HasPrefix(k, arrayField+".") {
			return filter
		}
	}
	out := bson.M{}
	for k, v := range filter {
		out[k] = v
	}
	out[arrayField] = bson.M{"$exists": true, "$ne": bson.A{}}
	return out
}
