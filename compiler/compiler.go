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

// Package compiler translates a query.Builder's Operation Log into a
// plan.Plan: bucketing mergeable runs into stages (§4.2), then lowering
// each bucket (match folder §4.3, projection folder §4.4, group folder
// §4.5, sort/window/lookup/limit/skip).
package compiler

import (
	"github.com/warlockjs/cascade-sub003/plan"
	"github.com/warlockjs/cascade-sub003/query"
)

// Compile lowers b's operation log into a Plan. Global scopes are
// applied (exactly once, idempotent on repeat calls) before reading the
// log, so compiling the same Builder twice is safe and deterministic.
func Compile(b *query.Builder, opts Options) (*plan.Plan, error) {
	b.ApplyGlobalScopes()
	log := opts.logger()

	p := &plan.Plan{}
	ops := b.Log().Ops()

	var (
		bufStage query.Stage
		buf      []query.Operation
		haveBuf  bool
	)

	flush := func() error {
		if !haveBuf {
			return nil
		}
		if err := lowerBucket(p, bufStage, buf, log); err != nil {
			return err
		}
		buf = nil
		haveBuf = false
		return nil
	}

	for _, op := range ops {
		if haveBuf && op.Mergeable && op.Stage == bufStage {
			buf = append(buf, op)
			continue
		}
		if err := flush(); err != nil {
			return nil, err
		}
		bufStage = op.Stage
		buf = []query.Operation{op}
		haveBuf = true
	}
	if err := flush(); err != nil {
		return nil, err
	}

	collapseLastWins(p, plan.Limit)
	collapseLastWins(p, plan.Skip)
	return p, nil
}

// lowerBucket dispatches one flushed stage-run to its folder and
// appends whatever plan entries it produces (spec.md §4.2 step 4).
func lowerBucket(p *plan.Plan, stage query.Stage, buf []query.Operation, log logEntry) error {
	switch stage {
	case query.StageMatch:
		node, err := foldMatchRun(buf)
		if err != nil {
			return err
		}
		if node == nil {
			return nil
		}
		p.Append(plan.Match, lowerNode(node))

	case query.StageProject:
		body, err := foldProjectRun(buf)
		if err != nil {
			return err
		}
		if body == nil {
			return nil
		}
		p.Append(plan.Project, body)

	case query.StageSort:
		body := foldSortRun(buf)
		if body == nil {
			return nil
		}
		p.Append(plan.Sort, body)

	case query.StageGroup:
		for _, op := range buf {
			res, err := foldGroupOp(op)
			if err != nil {
				return err
			}
			p.Append(plan.Group, res.groupBody)
			if res.renameBody != nil {
				p.Append(plan.Project, res.renameBody)
			}
		}

	case query.StageLookup:
		for _, op := range buf {
			lowering := foldLookupOp(op)
			if lowering.degradation != "" {
				p.Degrade(lowering.degradation)
				log.Warn(lowering.degradation)
			}
			p.Entries = append(p.Entries, lowering.entries...)
		}

	case query.StageLimit:
		for _, op := range buf {
			p.Append(plan.Limit, op.Payload.(query.LimitSkipPayload).N)
		}

	case query.StageSkip:
		for _, op := range buf {
			p.Append(plan.Skip, op.Payload.(query.LimitSkipPayload).N)
		}

	case query.StageWindow:
		for _, op := range buf {
			p.Append(plan.Sample, foldWindowOp(op))
		}
	}
	return nil
}

// collapseLastWins keeps only the last entry of the given stage,
// dropping earlier ones in place (spec.md §3, §8: "the plan's effective
// limit/skip is the last value").
func collapseLastWins(p *plan.Plan, stage plan.StageName) {
	lastIdx := -1
	for i, e := range p.Entries {
		if e.Stage == stage {
			lastIdx = i
		}
	}
	if lastIdx < 0 {
		return
	}
	out := p.Entries[:0]
	for i, e := range p.Entries {
		if e.Stage == stage && i != lastIdx {
			continue
		}
		out = append(out, e)
	}
	p.Entries = out
}

// logEntry is the minimal logging surface compiler needs — satisfied
// by *logrus.Entry.
type logEntry interface {
	Warn(args ...interface{})
}
