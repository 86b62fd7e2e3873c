package xtool

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	hexIDPattern     = regexp.MustCompile(`0x[0-9a-f]+`)
	childrenMarker   = regexp.MustCompile(`child(?:ren)?:`)
	netWMNamePattern = regexp.MustCompile(`_NET_WM_NAME(?:\(\w+\))? = "((?:[^\\"]|\\"|\\\\)*)"`)
)

// FormatID renders an X window id the way the X11 tools print it.
func FormatID(xid uint32) string {
	return fmt.Sprintf("0x%x", xid)
}

// IsHexID reports whether s is a single lowercase 0x-prefixed hex id.
func IsHexID(s string) bool {
	return hexIDPattern.FindString(s) == s && s != ""
}

// FindHexID returns the first hex window id in s.
func FindHexID(s string) (string, bool) {
	id := hexIDPattern.FindString(s)
	return id, id != ""
}

// ParseHexIDs returns every hex window id in s in order of appearance.
func ParseHexIDs(s string) []string {
	return hexIDPattern.FindAllString(s, -1)
}

// FindIDForTitle returns the hex id printed immediately before the quoted
// title in an xwininfo tree. An empty title matches a child printed as "".
func FindIDForTitle(tree, title string) (string, bool) {
	pattern, err := regexp.Compile(`(0x[0-9a-f]+) +"` + regexp.QuoteMeta(title) + `"`)
	if err != nil {
		return "", false
	}
	m := pattern.FindStringSubmatch(tree)
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}

// FirstChild returns the first hex id listed after the child/children marker
// of an xwininfo tree.
func FirstChild(tree string) (string, bool) {
	loc := childrenMarker.FindStringIndex(tree)
	if loc == nil {
		return "", false
	}
	rest := tree[loc[1]:]
	// Only the first child section counts.
	if next := childrenMarker.FindStringIndex(rest); next != nil {
		rest = rest[:next[0]]
	}
	return FindHexID(rest)
}

// ParseNetWMName extracts and unescapes the _NET_WM_NAME value from xprop output.
func ParseNetWMName(out string) (string, bool) {
	m := netWMNamePattern.FindStringSubmatch(out)
	if len(m) < 2 {
		return "", false
	}
	return unescapeXprop(m[1]), true
}

// HasCardinalProperty reports whether xprop output shows prop set as a CARDINAL.
func HasCardinalProperty(out, prop string) bool {
	if prop == "" {
		return false
	}
	return strings.Contains(out, prop+"(CARDINAL)")
}

func unescapeXprop(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && (s[i+1] == '"' || s[i+1] == '\\') {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
