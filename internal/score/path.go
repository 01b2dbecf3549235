package score

import (
	"path/filepath"
	"strings"
)

// CanonicalPath normalizes a path split on '/' or '\'. A "." segment is
// dropped, ".." removes the previous segment, and any segment containing
// ".score" is dropped. A ".." that would climb above the root of a rooted
// path is ignored; on a relative path it is kept. The result uses '/'
// separators and keeps a leading separator.
func CanonicalPath(path string) string {
	parts := strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' })
	rooted := strings.HasPrefix(path, "/") || strings.HasPrefix(path, "\\")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		switch {
		case part == ".":
		case part == "..":
			switch {
			case len(out) > 0 && out[len(out)-1] != "..":
				out = out[:len(out)-1]
			case !rooted:
				out = append(out, part)
			}
		case strings.Contains(part, ".score"):
		default:
			out = append(out, part)
		}
	}
	joined := strings.Join(out, "/")
	if rooted {
		return "/" + joined
	}
	return joined
}

// ResolveWavePath resolves a wav element's path attribute against the
// directory of the score file it came from. Absolute wave paths are only
// canonicalized.
func ResolveWavePath(scorePath, wavePath string) string {
	if filepath.IsAbs(wavePath) || scorePath == "" {
		return filepath.FromSlash(CanonicalPath(wavePath))
	}
	dir := filepath.ToSlash(filepath.Dir(scorePath))
	return filepath.FromSlash(CanonicalPath(dir + "/" + wavePath))
}
