// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"strings"
	"testing"
)

func TestBuildString(t *testing.T) {
	build := Build{Version: "1.2.0", Commit: "abc1234", Dirty: true, BuildTime: "2026-03-01T12:00:00Z"}
	if got, want := build.String(), "1.2.0 (abc1234-dirty, 2026-03-01T12:00:00Z)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	build.Dirty = false
	if got := build.String(); strings.Contains(got, "dirty") {
		t.Errorf("clean build rendered as %q", got)
	}
}

func TestCurrentDefaults(t *testing.T) {
	build := Current()
	if build.Version != Version || build.Commit != GitCommit {
		t.Errorf("Current() = %+v", build)
	}
	if build.GoVersion == "" || !strings.Contains(build.Platform, "/") {
		t.Errorf("Current() toolchain fields = %q / %q", build.GoVersion, build.Platform)
	}
	if !strings.Contains(Full(), Info()) {
		t.Errorf("Full() %q does not include Info() %q", Full(), Info())
	}
}
