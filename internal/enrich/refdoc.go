package enrich

import "strings"

// Reference-doc marker: "以下是<N>个参考文档" with N a run of digits. Everything
// from the marker onward is the reference doc; everything before is the
// user-visible body.
const (
	refMarkerHead = "以下是"
	refMarkerTail = "个参考文档"
)

// SplitReference partitions a response into user-facing body and reference-doc
// text. When no marker is present the reference doc is empty and the body is
// the input unchanged.
func SplitReference(text string) (body, refDoc string) {
	idx := findReferenceMarker(text)
	if idx < 0 {
		return text, ""
	}
	return strings.TrimSpace(text[:idx]), strings.TrimSpace(text[idx:])
}

// findReferenceMarker returns the byte offset of the reference marker, or -1.
func findReferenceMarker(text string) int {
	from := 0
	for {
		rel := strings.Index(text[from:], refMarkerHead)
		if rel < 0 {
			return -1
		}
		start := from + rel
		rest := text[start+len(refMarkerHead):]
		digits := 0
		for digits < len(rest) && rest[digits] >= '0' && rest[digits] <= '9' {
			digits++
		}
		if digits > 0 && strings.HasPrefix(rest[digits:], refMarkerTail) {
			return start
		}
		from = start + len(refMarkerHead)
	}
}
