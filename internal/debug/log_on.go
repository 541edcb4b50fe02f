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

//go:build debug

package debug

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/timandy/routine"
)

// Enabled is true if the module is being built with the debug tag, which
// enables trace logging and the more expensive internal consistency checks.
const Enabled = true

var logPattern *regexp.Regexp

func init() {
	flag.Func("burrow.filter", "regexp to filter debug logs by", func(s string) (err error) {
		logPattern, err = regexp.Compile(s)
		return err
	})
}

// Log prints a trace line to stderr.
//
// context is optional args for fmt.Sprintf that are printed before
// operation, for grouping related lines.
func Log(context []any, operation, format string, args ...any) {
	skip := 1
again:
	pc, file, line, _ := runtime.Caller(skip)

	fn := runtime.FuncForPC(pc)
	name := fn.Name()
	name = name[strings.LastIndex(name, ".")+1:]
	if strings.Contains(name, "Log") || strings.HasPrefix(name, "log") {
		skip++
		goto again
	}

	buf := new(strings.Builder)
	fmt.Fprintf(buf, "%s:%d [g%04d", filepath.Base(file), line, routine.Goid())
	if len(context) >= 1 {
		fmt.Fprintf(buf, ", "+context[0].(string), context[1:]...)
	}
	fmt.Fprintf(buf, "] %s: ", operation)
	fmt.Fprintf(buf, format, args...)

	if logPattern != nil && !logPattern.MatchString(buf.String()) {
		return
	}

	buf.WriteByte('\n')
	_, _ = os.Stderr.WriteString(buf.String())
	_ = os.Stderr.Sync()
}
