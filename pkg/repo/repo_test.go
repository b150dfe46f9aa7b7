// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package repo

import (
	"os"
	fp "path/filepath"
	"testing"

	"github.com/bluemutedwisdom/anaconda/pkg/log/testlog"
)

func mkRepo(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(fp.Join(dir, "rpms", "x86_64"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(fp.Join(dir, "rhdd3"), []byte("Driver Update Disk version 3"), 0644); err != nil {
		t.Fatal(err)
	}
}

//func Find(root, arch string, l Layout) []string
func TestQualification(t *testing.T) {
	tlog := testlog.NewTestLog(t, true, false)
	defer tlog.Freeze()
	for _, td := range []struct {
		name  string
		mutate func(dir string) error
	}{
		{"complete", func(string) error { return nil }},
		{"nomarker", func(d string) error { return os.Remove(fp.Join(d, "rhdd3")) }},
		{"markerIsDir", func(d string) error {
			if err := os.Remove(fp.Join(d, "rhdd3")); err != nil {
				return err
			}
			return os.Mkdir(fp.Join(d, "rhdd3"), 0755)
		}},
		{"nopackages", func(d string) error { return os.RemoveAll(fp.Join(d, "rpms")) }},
		{"noarch", func(d string) error { return os.Remove(fp.Join(d, "rpms", "x86_64")) }},
		{"otherarch", func(d string) error {
			return os.Rename(fp.Join(d, "rpms", "x86_64"), fp.Join(d, "rpms", "aarch64"))
		}},
	} {
		t.Run(td.name, func(t *testing.T) {
			root := t.TempDir()
			mkRepo(t, root)
			if err := td.mutate(root); err != nil {
				t.Fatal(err)
			}
			got := Find(root, "x86_64", DefaultLayout)
			if td.name == "complete" {
				if len(got) != 1 || got[0] != fp.Join(root, "rpms", "x86_64") {
					t.Errorf("want repo, got %v", got)
				}
			} else if len(got) != 0 {
				t.Errorf("want no repo, got %v", got)
			}
		})
	}
}

func TestFindNestedAndSymlinks(t *testing.T) {
	tlog := testlog.NewTestLog(t, true, false)
	defer tlog.Freeze()
	root := t.TempDir()
	outside := t.TempDir()
	mkRepo(t, fp.Join(root, "a"))
	mkRepo(t, fp.Join(root, "b", "deeper"))
	mkRepo(t, outside)
	if err := os.Symlink(outside, fp.Join(root, "c")); err != nil {
		t.Fatal(err)
	}
	//loop back to root; must not recurse forever or report duplicates
	if err := os.Symlink(root, fp.Join(root, "b", "loop")); err != nil {
		t.Fatal(err)
	}
	got := Find(root, "x86_64", DefaultLayout)
	want := []string{
		fp.Join(root, "a", "rpms", "x86_64"),
		fp.Join(root, "b", "deeper", "rpms", "x86_64"),
		fp.Join(root, "c", "rpms", "x86_64"),
	}
	if len(got) != len(want) {
		t.Fatalf("\ngot  %v\nwant %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%d: got %s want %s", i, got[i], want[i])
		}
	}
}

//func AskRequested(pkgDir string, l Layout) bool
func TestAskRequested(t *testing.T) {
	root := t.TempDir()
	mkRepo(t, root)
	pkgDir := fp.Join(root, "rpms", "x86_64")
	if AskRequested(pkgDir, DefaultLayout) {
		t.Errorf("ask without marker")
	}
	if err := os.WriteFile(fp.Join(root, "rhdd3.ask"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	if !AskRequested(pkgDir, DefaultLayout) {
		t.Errorf("marker ignored")
	}
	if AskRequested(pkgDir, Layout{Marker: "rhdd3", Packages: "rpms"}) {
		t.Errorf("empty ask name must disable")
	}
}

//func FindISOs(root string) []Image
func TestFindISOs(t *testing.T) {
	tlog := testlog.NewTestLog(t, true, false)
	defer tlog.Freeze()
	root, err := fp.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for name, size := range map[string]int{"dd.iso": 10, "sub/OTHER.ISO": 20, "readme.txt": 5, "iso": 1} {
		p := fp.Join(root, name)
		if err := os.MkdirAll(fp.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, make([]byte, size), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(fp.Join(root, "dir.iso"), 0755); err != nil {
		t.Fatal(err)
	}
	got := FindISOs(root)
	if len(got) != 2 {
		t.Fatalf("got %#v", got)
	}
	if got[0].Rel != "dd.iso" || got[0].Size != 10 || got[0].Path != fp.Join(root, "dd.iso") {
		t.Errorf("got %#v", got[0])
	}
	if got[1].Rel != fp.Join("sub", "OTHER.ISO") || got[1].Size != 20 {
		t.Errorf("got %#v", got[1])
	}
}
