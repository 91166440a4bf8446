// Copyright (c) 2026 Canonical Ltd
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package pxe

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownFamily is returned when parsing a bootloader family name fails.
var ErrUnknownFamily = errors.New("unknown bootloader family")

// Family is a network bootloader family. Every family has its own
// naming convention for per-host configuration files.
type Family int

const (
	Syslinux Family = iota + 1
	Pxegrub
	Pxegrub2
	Ztp
	Poap
	Ipxe
)

// Families lists every supported family.
var Families = []Family{Syslinux, Pxegrub, Pxegrub2, Ztp, Poap, Ipxe}

var familyNames = map[Family]string{
	Syslinux: "syslinux",
	Pxegrub:  "pxegrub",
	Pxegrub2: "pxegrub2",
	Ztp:      "ztp",
	Poap:     "poap",
	Ipxe:     "ipxe",
}

func (f Family) String() string {
	if name, ok := familyNames[f]; ok {
		return name
	}

	return fmt.Sprintf("Family(%d)", int(f))
}

// ParseFamily returns the Family with the given name. "pxelinux" is
// accepted as an alias of "syslinux".
func ParseFamily(name string) (Family, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "pxelinux" {
		return Syslinux, nil
	}

	for f, n := range familyNames {
		if n == name {
			return f, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownFamily, name)
}
