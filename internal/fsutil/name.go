package fsutil

import "strings"

// SafeName turns a folder title into a file name stem usable on every OS.
// Reserved characters become '_' and control characters are dropped.
func SafeName(title string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, strings.TrimSpace(title))
	if name == "" || name == "." || name == ".." {
		return "folder"
	}
	return name
}
