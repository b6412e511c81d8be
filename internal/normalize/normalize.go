// Package normalize canonicalizes loosely typed spreadsheet cells into the
// enum-like values the video platform accepts.
//
// Every function is total: a value that cannot be interpreted yields a
// "no match" result rather than an error.
package normalize

import (
	"fmt"
	"net/url"
	"strings"
)

var truthy = map[string]bool{
	"true": true,
	"1":    true,
	"evet": true,
	"yes":  true,
}

var privacySynonyms = map[string]string{
	"scheduled":  "private",
	"özel":       "private",
	"ozel":       "private",
	"halka açık": "public",
	"halka acik": "public",
	"liste dışı": "unlisted",
	"liste disi": "unlisted",
}

// Privacy values accepted by the platform.
const (
	Public   = "public"
	Private  = "private"
	Unlisted = "unlisted"
)

// ParseBool reports whether value is one of the accepted truthy tokens.
func ParseBool(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case nil:
		return false
	}
	return truthy[strings.ToLower(strings.TrimSpace(fmt.Sprint(value)))]
}

// ParseTags splits a comma separated list, trimming entries and dropping empties.
//
// A []string is cleaned the same way. Any other type yields an empty, non-nil slice.
func ParseTags(value any) []string {
	var parts []string
	switch v := value.(type) {
	case string:
		parts = strings.Split(v, ",")
	case []string:
		parts = v
	}

	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// Privacy resolves a privacy cell into public, private or unlisted.
func Privacy(value any) (string, bool) {
	if value == nil {
		return "", false
	}
	s := strings.ToLower(strings.TrimSpace(fmt.Sprint(value)))
	if mapped, ok := privacySynonyms[s]; ok {
		s = mapped
	}
	switch s {
	case Public, Private, Unlisted:
		return s, true
	}
	return "", false
}

// PlaylistID accepts either a bare ID or a playlist URL and returns the ID.
//
// URLs without a list parameter yield an empty string.
func PlaylistID(value string) string {
	s := strings.TrimSpace(value)
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return s
	}

	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(u.Query().Get("list"))
}
