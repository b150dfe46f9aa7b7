// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package driverpkg

import (
	"reflect"
	"strings"
	"testing"

	"github.com/bluemutedwisdom/anaconda/pkg/log/testlog"
	"github.com/bluemutedwisdom/anaconda/pkg/runner"
)

const listOut = `/media/DD/rpms/x86_64/kmod-megaraid_sas-07.725-1.el9.x86_64.rpm
kmod-megaraid_sas
modules firmwares
Broadcom MegaRAID SAS driver
for 9300 series adapters
---
/media/DD/rpms/x86_64/kmod-e1000e-3.8.7-1.el9.x86_64.rpm
kmod-e1000e
modules
---
/media/DD/rpms/x86_64/vendor-tools-1.0-1.x86_64.rpm
vendor-tools

Userspace tools
---
`

//func ParseList(out string) []DriverPackage
func TestParseList(t *testing.T) {
	tlog := testlog.NewTestLog(t, true, false)
	defer tlog.Freeze()
	pkgs := ParseList(listOut)
	if len(pkgs) != 3 {
		t.Fatalf("want 3 packages, got %d: %#v", len(pkgs), pkgs)
	}
	want := []struct {
		name, desc string
		flags      Flags
	}{
		{"kmod-megaraid_sas", "Broadcom MegaRAID SAS driver\nfor 9300 series adapters", Flags{Modules: true, Firmware: true}},
		{"kmod-e1000e", "", Flags{Modules: true}},
		{"vendor-tools", "Userspace tools", Flags{}},
	}
	for i, w := range want {
		p := pkgs[i]
		if p.Source == "" || p.Name != w.name || p.Description != w.desc || !reflect.DeepEqual(p.Flags, w.flags) {
			t.Errorf("%d: got %#v", i, p)
		}
		if p.Selected() {
			t.Errorf("%d: selected by default", i)
		}
	}
}

func TestParseListMalformed(t *testing.T) {
	tlog := testlog.NewTestLog(t, true, false)
	defer tlog.Freeze()
	for _, td := range []struct {
		name  string
		out   string
		names []string
	}{
		{"empty", "", nil},
		{"onlySeparators", "---\n---\n", nil},
		{"noName", "/a.rpm\n\nmodules\n---\n/b.rpm\nb\nmodules\n---\n", []string{"b"}},
		{"unterminatedComplete", "/a.rpm\na\nmodules\n---\n/b.rpm\nb\nmodules\ndesc", []string{"a", "b"}},
		{"unterminatedShort", "/a.rpm\na\nmodules\n---\n/b.rpm\nb", []string{"a"}},
		{"crlf", "/a.rpm\r\na\r\nmodules\r\n---\r\n", []string{"a"}},
	} {
		t.Run(td.name, func(t *testing.T) {
			var got []string
			for _, p := range ParseList(td.out) {
				got = append(got, p.Name)
			}
			if !reflect.DeepEqual(got, td.names) {
				t.Errorf("got %v want %v", got, td.names)
			}
		})
	}
}

// k well-formed records always yield k packages with descriptions intact
func TestParseListRecordCount(t *testing.T) {
	for k := 0; k < 25; k++ {
		var sb strings.Builder
		for i := 0; i < k; i++ {
			sb.WriteString("/r/p.rpm\nname\nmodules\n")
			for j := 0; j < i%4; j++ {
				sb.WriteString("line\n")
			}
			sb.WriteString(RecordSep + "\n")
		}
		pkgs := ParseList(sb.String())
		if len(pkgs) != k {
			t.Fatalf("k=%d: got %d", k, len(pkgs))
		}
		for i, p := range pkgs {
			lines := 0
			if p.Description != "" {
				lines = len(strings.Split(p.Description, "\n"))
			}
			if lines != i%4 {
				t.Errorf("k=%d rec %d: %d description lines", k, i, lines)
			}
		}
	}
}

//func ParseFlags(s string) Flags
func TestFlags(t *testing.T) {
	f := ParseFlags("modules  firmwares vendor_x")
	if !f.Modules || !f.Firmware || !f.ProvidesDrivers() {
		t.Errorf("got %#v", f)
	}
	if sw := f.Switches(); !reflect.DeepEqual(sw, []string{"--modules", "--firmwares", "--vendor_x"}) {
		t.Errorf("switches %v", sw)
	}
	if f.String() != "modules firmwares vendor_x" {
		t.Errorf("string %q", f.String())
	}
	f = ParseFlags("")
	if f.ProvidesDrivers() || len(f.Switches()) != 0 {
		t.Errorf("empty flags: %#v", f)
	}
	if !ParseFlags("firmware").Firmware {
		t.Errorf("singular firmware not recognized")
	}
}

//func List(repo, kver, installerVer string) []DriverPackage
func TestList(t *testing.T) {
	tlog := testlog.NewTestLog(t, true, false)
	defer tlog.Freeze()
	key := testlog.CmdKey("dd_list", "-d", "/media/DD/rpms/x86_64", "-k", "5.14.0", "-a", "34.25")
	tlog.UseMappedCmdHijacker(testlog.CmdMap{
		key: {Result: runner.Result{Stdout: listOut}},
	})
	pkgs := List("/media/DD/rpms/x86_64", "5.14.0", "34.25")
	if len(pkgs) != 3 || pkgs[0].Repo != "/media/DD/rpms/x86_64" {
		t.Errorf("got %#v", pkgs)
	}
	if pkgs := List("/elsewhere", "5.14.0", "34.25"); len(pkgs) != 0 {
		t.Errorf("tool failure should yield nothing, got %#v", pkgs)
	}
}

func TestArchiveAndDisplay(t *testing.T) {
	p := DriverPackage{Source: "kmod-foo.rpm", Name: "kmod-foo", Repo: "/r/rpms/x86_64", Description: "a\nb"}
	if p.Archive() != "/r/rpms/x86_64/kmod-foo.rpm" {
		t.Errorf("archive %s", p.Archive())
	}
	p.Source = "/abs/kmod-foo.rpm"
	if p.Archive() != "/abs/kmod-foo.rpm" {
		t.Errorf("archive %s", p.Archive())
	}
	if d := p.Display(); !strings.HasPrefix(d, "kmod-foo (kmod-foo.rpm)\n") || strings.Count(d, "\n") != 2 {
		t.Errorf("display %q", d)
	}
}
