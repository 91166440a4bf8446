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

import "strings"

// MACAddress is a hardware address in its colon separated form
// (aa:bb:cc:dd:ee:ff), case-insensitive. It is used verbatim: no format
// validation happens here, so a malformed address produces malformed
// paths rather than an error.
type MACAddress string

// Dashed returns the address in lower case with dashes (aa-bb-cc-dd-ee-ff).
func (m MACAddress) Dashed() string {
	return strings.ToLower(m.dashed())
}

// DashedUpper returns the address in upper case with dashes (AA-BB-CC-DD-EE-FF).
func (m MACAddress) DashedUpper() string {
	return strings.ToUpper(m.dashed())
}

// Plain returns the address in upper case without separators (AABBCCDDEEFF).
func (m MACAddress) Plain() string {
	return strings.ToUpper(strings.ReplaceAll(string(m), ":", ""))
}

// Lower returns the address in lower case, keeping colons.
func (m MACAddress) Lower() string {
	return strings.ToLower(string(m))
}

func (m MACAddress) dashed() string {
	return strings.ReplaceAll(string(m), ":", "-")
}
