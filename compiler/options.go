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

import "github.com/sirupsen/logrus"

// Options configures one Compile call. The zero value is silent and
// correct — there is no configuration file or environment variable
// surface (SPEC_FULL.md Ambient Stack: Configuration).
type Options struct {
	Logger *logrus.Entry
}

var defaultLogger = func() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}()

// WithLogger returns opts with its logger replaced by log. Compile logs
// degradations (spec.md §4.8) and nothing else.
func WithLogger(opts Options, log *logrus.Entry) Options {
	opts.Logger = log
	return opts
}

func (o Options) logger() *logrus.Entry {
	if o.Logger != nil {
		return o.Logger
	}
	return defaultLogger
}
