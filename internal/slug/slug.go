// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug builds URL fragment identifiers for events on the public
// page. Anchors depend on title and position only, so they survive the
// identifier churn of a full-replace save.
package slug

import (
	"strconv"
	"strings"
)

// Generate lowercases s and joins its ASCII letter and digit runs with
// single hyphens. "Outreach: Nursing Ministry" becomes
// "outreach-nursing-ministry".
func Generate(s string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// Anchors returns one unique anchor per title, in order. Repeated slugs get
// a numeric suffix and titles without usable characters fall back to
// "event-N" where N is the 1-based position.
func Anchors(titles []string) []string {
	out := make([]string, len(titles))
	used := make(map[string]int, len(titles))
	for i, t := range titles {
		s := Generate(t)
		if s == "" {
			s = "event-" + strconv.Itoa(i+1)
		}
		base := s
		for used[s] > 0 {
			used[base]++
			s = base + "-" + strconv.Itoa(used[base])
		}
		used[s]++
		out[i] = s
	}
	return out
}
