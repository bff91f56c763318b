package pieces

import "strings"

// webseedURL joins base/name/path with exactly one separator at each
// seam. Single-file v1 torrents are addressed by name alone.
func webseedURL(base, name string, paths []string, single bool) string {
	url := strings.TrimRight(base, `/`) + `/` + strings.Trim(name, `/`)
	if single {
		return url
	}
	for _, part := range paths {
		url += `/` + part
	}
	return url
}
