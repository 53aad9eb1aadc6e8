// Package content turns raw completion text into renderable answer content.
// Everything in this package is pure and safe for concurrent use.
package content

import "strings"

// fenceMarkerMinLength is the shortest backtick run treated as a fence marker
const fenceMarkerMinLength = 3

// Fence is one fenced code block located by ScanFences.
// Offsets are byte positions in the scanned text.
type Fence struct {
	// Lang is the lowercased first word of the info string ("json", "markdown", ...)
	Lang string
	// Info is the full trimmed info string after the opening marker
	Info string
	// Start is the offset of the first backtick of the opening marker
	Start int
	// ContentStart is the offset just after the opening marker line
	ContentStart int
	// ContentEnd is the offset of the start of the closing marker line
	ContentEnd int
	// End is the offset just past the closing backticks
	End int
	// Depth is the nesting depth, 0 for top-level fences
	Depth int
	// Closed reports whether a matching closing marker was found
	Closed bool

	markerLength int
}

// Content returns the text between the opening and closing marker lines
func (f Fence) Content(text string) string {
	return text[f.ContentStart:f.ContentEnd]
}

// Source returns the full fenced block including both markers
func (f Fence) Source(text string) string {
	return text[f.Start:f.End]
}

// ScanFences tokenizes text on fence marker lines and pairs openers with
// closers by tracking nesting depth.
//
// A marker line is optional indentation followed by at least three backticks.
// A marker carrying an info string always opens a block. A bare marker closes
// the innermost open block when it is at least as long as that block's opener;
// otherwise it opens an untagged block. Blocks still open at the end of the
// text are returned with Closed set to false and run to the end of the text.
//
// Fences are returned in the order their opening markers appear.
func ScanFences(text string) []Fence {
	var fences []Fence
	var stack []int

	pos := 0
	for pos < len(text) {
		lineEnd := strings.IndexByte(text[pos:], '\n')
		next := len(text)
		if lineEnd < 0 {
			lineEnd = len(text)
		} else {
			lineEnd += pos
			next = lineEnd + 1
		}

		if m, ok := parseMarker(text[pos:lineEnd]); ok {
			start := pos + m.offset
			top := len(stack) - 1
			if m.info == "" && top >= 0 && m.length >= fences[stack[top]].markerLength {
				f := &fences[stack[top]]
				f.ContentEnd = pos
				f.End = start + m.length
				f.Closed = true
				stack = stack[:top]
			} else {
				fences = append(fences, Fence{
					Lang:         m.lang,
					Info:         m.info,
					Start:        start,
					ContentStart: next,
					Depth:        len(stack),
					markerLength: m.length,
				})
				stack = append(stack, len(fences)-1)
			}
		}

		pos = next
	}

	for _, idx := range stack {
		fences[idx].ContentEnd = len(text)
		fences[idx].End = len(text)
	}

	return fences
}

// TopLevel filters fences down to those that are not nested in another fence
func TopLevel(fences []Fence) []Fence {
	out := make([]Fence, 0, len(fences))
	for _, f := range fences {
		if f.Depth == 0 {
			out = append(out, f)
		}
	}
	return out
}

type marker struct {
	offset int
	length int
	info   string
	lang   string
}

func parseMarker(line string) (marker, bool) {
	line = strings.TrimSuffix(line, "\r")

	offset := 0
	for offset < len(line) && (line[offset] == ' ' || line[offset] == '\t') {
		offset++
	}

	length := 0
	for offset+length < len(line) && line[offset+length] == '`' {
		length++
	}
	if length < fenceMarkerMinLength {
		return marker{}, false
	}

	info := strings.TrimSpace(line[offset+length:])
	if strings.ContainsRune(info, '`') {
		return marker{}, false
	}

	lang := ""
	if fields := strings.Fields(info); len(fields) > 0 {
		lang = strings.ToLower(fields[0])
	}

	return marker{offset: offset, length: length, info: info, lang: lang}, true
}

// proseRanges returns the half-open spans of text lying outside every
// top-level fence, in document order.
func proseRanges(text string, fences []Fence) [][2]int {
	var ranges [][2]int
	pos := 0
	for _, f := range fences {
		if f.Depth != 0 {
			continue
		}
		if f.Start > pos {
			ranges = append(ranges, [2]int{pos, f.Start})
		}
		pos = f.End
	}
	if pos < len(text) {
		ranges = append(ranges, [2]int{pos, len(text)})
	}
	return ranges
}

// mapProse rebuilds text applying fn to every span outside top-level fences.
// Fenced spans are copied unchanged.
func mapProse(text string, fn func(string) string) string {
	fences := ScanFences(text)
	if len(fences) == 0 {
		return fn(text)
	}

	var b strings.Builder
	b.Grow(len(text))
	pos := 0
	for _, r := range proseRanges(text, fences) {
		b.WriteString(text[pos:r[0]])
		b.WriteString(fn(text[r[0]:r[1]]))
		pos = r[1]
	}
	b.WriteString(text[pos:])
	return b.String()
}
