// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

//Package menu implements paged text menus for operator choices.
//
//Items are numbered from 1 across all pages; the operator may only pick
//numbers shown on the current page. End of input is treated as 'c'.
package menu

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bluemutedwisdom/anaconda/pkg/log"
)

const DefaultPageSize = 20

// Anything that can be listed in a menu.
type Item interface {
	Display() string
}

// An Item with a selection state, for multi-select menus.
type Toggler interface {
	Item
	Selected() bool
	SetSelected(bool)
}

//User selection from a single-select menu. Non-negative values are item indexes.
type Choice int

const (
	ChoiceNone    Choice = -1 - iota //operator declined
	ChoiceRefresh                    //-2; caller should rebuild the list
)

type Menu struct {
	Title    string
	PageSize int
	in       *bufio.Reader
	out      io.Writer
}

func New(in io.Reader, out io.Writer) *Menu {
	return &Menu{
		PageSize: DefaultPageSize,
		in:       bufio.NewReader(in),
		out:      out,
	}
}

// Pages returns the number of pages needed for n items; at least 1.
func Pages(n, pageSize int) int {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if n <= 0 {
		return 1
	}
	return (n + pageSize - 1) / pageSize
}

func (m *Menu) pageSize() int {
	if m.PageSize < 1 {
		return DefaultPageSize
	}
	return m.PageSize
}

// bounds of page as item indexes, [first, end)
func (m *Menu) bounds(page, n int) (first, end int) {
	first = page * m.pageSize()
	end = first + m.pageSize()
	if end > n {
		end = n
	}
	return
}

// read one command; end of input reads as "c"
func (m *Menu) read() string {
	line, err := m.in.ReadString('\n')
	line = strings.TrimSpace(line)
	if err != nil && line == "" {
		if err != io.EOF {
			log.Logf("menu input: %s", err)
		}
		return "c"
	}
	return line
}

// item number on the current page, or -1
func (m *Menu) pick(cmd string, page, n int) int {
	num, err := strconv.Atoi(cmd)
	if err != nil {
		return -1
	}
	first, end := m.bounds(page, n)
	if num < first+1 || num > end {
		return -1
	}
	return num - 1
}

func (m *Menu) render(page, n int, line func(i int) string, prompt string) {
	if m.Title != "" {
		fmt.Fprintf(m.out, "\n%s\n", m.Title)
	}
	first, end := m.bounds(page, n)
	for i := first; i < end; i++ {
		fmt.Fprintln(m.out, line(i))
	}
	fmt.Fprintf(m.out, "(page %d of %d)\n%s: ", page+1, Pages(n, m.pageSize()), prompt)
}

// Multi lets the operator toggle items until they continue. Returns the
// selected items, or nil if there are none.
func (m *Menu) Multi(items []Toggler) []Toggler {
	page, pages := 0, Pages(len(items), m.pageSize())
	line := func(i int) string {
		check := " "
		if items[i].Selected() {
			check = "x"
		}
		return fmt.Sprintf("%3d) [%s] %s", i+1, check, items[i].Display())
	}
	for {
		m.render(page, len(items), line, "# to toggle selection, 'n'-next page, 'p'-previous page or 'c'-continue")
		cmd := m.read()
		switch cmd {
		case "c":
			var sel []Toggler
			for _, it := range items {
				if it.Selected() {
					sel = append(sel, it)
				}
			}
			return sel
		case "n":
			if page+1 < pages {
				page++
			}
			continue
		case "p":
			if page > 0 {
				page--
			}
			continue
		}
		if i := m.pick(cmd, page, len(items)); i >= 0 {
			items[i].SetSelected(!items[i].Selected())
			continue
		}
		fmt.Fprintf(m.out, "invalid input %q\n", cmd)
	}
}

// Single returns the index of the item the operator picks. 'c' returns
// ChoiceNone; if refresh is true 'r' returns ChoiceRefresh.
func (m *Menu) Single(items []Item, refresh bool) Choice {
	page, pages := 0, Pages(len(items), m.pageSize())
	line := func(i int) string { return fmt.Sprintf("%3d) %s", i+1, items[i].Display()) }
	prompt := "# to select, 'n'-next page, 'p'-previous page or 'c'-cancel"
	if refresh {
		prompt = "# to select, 'r'-refresh, 'n'-next page, 'p'-previous page or 'c'-cancel"
	}
	for {
		m.render(page, len(items), line, prompt)
		cmd := m.read()
		switch {
		case cmd == "c":
			return ChoiceNone
		case cmd == "r" && refresh:
			return ChoiceRefresh
		case cmd == "n":
			if page+1 < pages {
				page++
			}
			continue
		case cmd == "p":
			if page > 0 {
				page--
			}
			continue
		}
		if i := m.pick(cmd, page, len(items)); i >= 0 {
			log.Logf("menu choice: %s", items[i].Display())
			return Choice(i)
		}
		fmt.Fprintf(m.out, "invalid input %q\n", cmd)
	}
}

// Text is an Item displaying a fixed string.
type Text string

func (t Text) Display() string { return string(t) }
