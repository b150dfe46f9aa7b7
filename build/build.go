// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

//go:build mage
// +build mage

/*
 build file for mage build system
 list tgts with
mage -d build -w . -l

 build tgt with
mage -d build -w . bins:initramfs
*/

package main

import (
	"context"
	"fmt"
	"os"
	fp "path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	importPath = "github.com/bluemutedwisdom/anaconda"
	mainPkg    = importPath + "/cmd/driver-updates"
)

//output dir; override with env var WORKDIR
var workDir = "work"

func init() {
	if wd, ok := os.LookupEnv("WORKDIR"); ok {
		workDir = wd
	}
}

var Default = Bins.Initramfs

type Bins mg.Namespace

//static binary suitable for inclusion in the installer initramfs
func (Bins) Initramfs(ctx context.Context) error {
	mg.CtxDeps(ctx, workdir)
	env := map[string]string{"CGO_ENABLED": "0"}
	return build(env, "-o", fp.Join(workDir, "driver-updates"), mainPkg)
}

//binary for the host, for use with the list subcommand
func (Bins) Host(ctx context.Context) error {
	mg.CtxDeps(ctx, workdir)
	return build(nil, "-o", fp.Join(workDir, "driver-updates-host"), mainPkg)
}

//writes the default config file to the work dir
func (Bins) Config(ctx context.Context) error {
	mg.CtxDeps(ctx, Bins.Host)
	out, err := sh.Output(fp.Join(workDir, "driver-updates-host"), "defaults")
	if err != nil {
		return err
	}
	return os.WriteFile(fp.Join(workDir, "driver-updates.toml"), []byte(out+"\n"), 0644)
}

func build(env map[string]string, args ...string) error {
	ldflags := os.ExpandEnv("-X 'main.buildId=${BUILD_INFO}' -s -w")
	all := append([]string{"build", "-trimpath", "-ldflags", ldflags}, args...)
	for k, v := range env {
		fmt.Printf("%s=%s\n", k, v)
	}
	return sh.RunWith(env, "go", all...)
}

func workdir() {
	//ignore errors
	_ = os.MkdirAll(workDir, 0755)
}

/* Env vars
RUN - passed to go test -run. Only tests that match the given regex will run.
COUNT - passed to go test -count. Use 1 to bypass test result caching.
*/

type Tests mg.Namespace

//runs unit tests
func (Tests) Unit(ctx context.Context) error {
	args := []string{"test"}
	if run, ok := os.LookupEnv("RUN"); ok {
		args = append(args, "-run", run)
	}
	if count, ok := os.LookupEnv("COUNT"); ok {
		args = append(args, "-count", count)
	}
	return sh.RunV("go", append(args, "./...")...)
}

//runs go vet, and gofmt in list mode
func (Tests) Lint(ctx context.Context) error {
	if err := sh.RunV("go", "vet", "./..."); err != nil {
		return err
	}
	out, err := sh.Output("gofmt", "-l", "cmd", "pkg")
	if err != nil {
		return err
	}
	if strings.TrimSpace(out) != "" {
		return fmt.Errorf("not gofmt'd:\n%s", out)
	}
	return nil
}
