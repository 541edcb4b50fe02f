// Copyright 2024-2025 The Burrow Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package debug includes assertion and debug-logging helpers.
//
// Precondition violations in this module are programmer errors with no
// recovery path: [Assert] and [Fatalf] emit a structured FATAL line carrying
// the caller's source location and then panic. Verbose tracing only exists
// in binaries built with the debug tag; see [Log].
package debug

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Assert panics with a FATAL diagnostic if cond is false.
//
// Unlike [Log], assertions are compiled into every build: the conditions
// they guard are API contracts, not internal consistency checks.
func Assert(cond bool, format string, args ...any) {
	if cond {
		return
	}
	fatal(2, format, args...)
}

// Fatalf emits a FATAL diagnostic for an unconditional programmer error and
// panics.
func Fatalf(format string, args ...any) {
	fatal(2, format, args...)
}

func fatal(skip int, format string, args ...any) {
	_, file, line, _ := runtime.Caller(skip)
	msg := fmt.Sprintf(format, args...)

	buf := new(strings.Builder)
	fmt.Fprintf(buf, "FATAL %s:%d: %s\n", filepath.Base(file), line, msg)
	_, _ = os.Stderr.WriteString(buf.String())
	_ = os.Stderr.Sync()

	panic(fmt.Errorf("burrow: %s", msg))
}
