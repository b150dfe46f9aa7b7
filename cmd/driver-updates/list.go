// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package main

import (
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bluemutedwisdom/anaconda/pkg/config"
	"github.com/bluemutedwisdom/anaconda/pkg/driverpkg"
	"github.com/bluemutedwisdom/anaconda/pkg/media"
	"github.com/bluemutedwisdom/anaconda/pkg/repo"
)

type pkgReport struct {
	Name        string `yaml:"name"`
	Source      string `yaml:"source"`
	Flags       string `yaml:"flags"`
	Description string `yaml:"description,omitempty"`
}

type repoReport struct {
	Path     string      `yaml:"path"`
	Ask      bool        `yaml:"ask,omitempty"`
	Packages []pkgReport `yaml:"packages"`
}

type imageReport struct {
	Path       string `yaml:"path"`
	Size       string `yaml:"size"`
	DriverDisk bool   `yaml:"driver_disk"`
}

type listReport struct {
	Arch   string        `yaml:"arch"`
	Kernel string        `yaml:"kernel"`
	Repos  []repoReport  `yaml:"repos"`
	Images []imageReport `yaml:"images,omitempty"`
}

func newListCmd(opts *options) *cobra.Command {
	var arch string
	cmd := &cobra.Command{
		Use:   "list <dir>",
		Short: "Show the driver repositories and images found in a dir",
		Long: `Walk a mounted driver disk or a copy of one and print, as YAML, the
repositories usable on this machine and the packages each offers. Nothing is
extracted or loaded.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if arch != "" {
				cfg.System.Arch = arch
			}
			driverpkg.ListTool = cfg.Tools.List
			rep := inspect(cfg, args[0])
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(rep); err != nil {
				return err
			}
			return enc.Close()
		},
	}
	cmd.Flags().StringVar(&arch, "arch", "", "architecture to look for (default: this machine's)")
	return cmd
}

func inspect(cfg *config.Configuration, dir string) listReport {
	l := repo.Layout{
		Marker:   cfg.Discovery.Marker,
		Packages: cfg.Discovery.Packages,
		Ask:      cfg.Discovery.Ask,
	}
	rep := listReport{Arch: cfg.System.Arch, Kernel: cfg.System.Kernel}
	for _, r := range repo.Find(dir, cfg.System.Arch, l) {
		rr := repoReport{Path: r, Ask: repo.AskRequested(r, l), Packages: []pkgReport{}}
		for _, p := range driverpkg.List(r, cfg.System.Kernel, cfg.System.InstallerVersion) {
			rr.Packages = append(rr.Packages, pkgReport{
				Name:        p.Name,
				Source:      p.Source,
				Flags:       p.Flags.String(),
				Description: p.Description,
			})
		}
		rep.Repos = append(rep.Repos, rr)
	}
	for _, img := range repo.FindISOs(dir) {
		dd, _ := media.IsDriverISO(img.Path, l.Marker, l.Packages)
		rep.Images = append(rep.Images, imageReport{
			Path:       img.Rel,
			Size:       humanize.Bytes(uint64(img.Size)),
			DriverDisk: dd,
		})
	}
	return rep
}

func newDefaultsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "defaults",
		Short: "Print a config file holding the default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return config.WriteDefaults(cmd.OutOrStdout())
		},
	}
}
