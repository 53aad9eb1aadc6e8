package content

import (
	"regexp"
	"strings"
)

var (
	escapedNewlinePattern = regexp.MustCompile(`\\n([A-Za-z]*)`)
	piPattern             = regexp.MustCompile(`(?i)\bpi\b`)
	sigmaPattern          = regexp.MustCompile(`(?i)\bsigma\b`)
	starPattern           = regexp.MustCompile(`([A-Za-z0-9)])\s*\*\s*([A-Za-z0-9(])`)
	dotParenPattern       = regexp.MustCompile(`\.\s*\)`)
	barPattern            = regexp.MustCompile(`\\bar\b`)
	textCommandPattern    = regexp.MustCompile(`\\text\s*\{([^{}]*)\}`)

	// UTF-8 bullet decoded as Windows-1252 and as Latin-1
	bulletMojibake = strings.NewReplacer("â€¢", `\cdot`, "â\u0080¢", `\cdot`)
)

// latexNCommands are commands starting with "n" that must not be read as an
// escaped newline.
var latexNCommands = map[string]bool{
	"nabla": true, "natural": true, "ne": true, "nearrow": true, "neg": true,
	"neq": true, "newcommand": true, "newline": true, "nexists": true,
	"ngeq": true, "ngtr": true, "ni": true, "nleftarrow": true, "nleq": true,
	"nless": true, "nmid": true, "noindent": true, "nolimits": true,
	"nonumber": true, "normalsize": true, "not": true, "notin": true,
	"nparallel": true, "nrightarrow": true, "nsubseteq": true,
	"nsupseteq": true, "nu": true, "nwarrow": true,
}

// RepairLatex normalizes model-written markdown so a KaTeX-class renderer
// accepts its math. Rewrites run in a fixed order:
//
//  1. literal \n sequences become newlines
//  2. a ```json opener loses its language tag
//  3. \( \) become $ and \[ \] become $$
//  4. bare Pi and Sigma inside math become \Pi and \Sigma
//  5. a standalone * inside math becomes \cdot
//  6. a period just before ) inside math becomes \cdot
//  7. \bar becomes \overline
//  8. mis-encoded bullets become \cdot
//  9. \text{..} becomes \mathrm{..} inside math and is unwrapped outside it
//
// Fenced code bodies are never rewritten, and math regions are matched
// non-greedily between fences so a $ never pairs across a code block.
func RepairLatex(text string) (repaired string) {
	if text == "" {
		return ""
	}

	// A failed rewrite leaves the input as it was.
	defer func() {
		if r := recover(); r != nil {
			repaired = text
		}
	}()

	out := mapProse(text, unescapeNewlines)
	out = stripJSONTags(out)
	return mapProse(out, repairProse)
}

func repairProse(s string) string {
	s = convertDelimiters(s)
	s = walkMath(s, fixMath, nil)
	s = barPattern.ReplaceAllString(s, `\overline`)
	s = bulletMojibake.Replace(s)
	return walkMath(s, textToMathrm, unwrapText)
}

func unescapeNewlines(s string) string {
	if !strings.Contains(s, `\n`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	pos := 0
	for _, m := range escapedNewlinePattern.FindAllStringSubmatchIndex(s, -1) {
		start, end := m[0], m[1]
		letters := s[m[2]:m[3]]
		if start > 0 && s[start-1] == '\\' {
			continue
		}
		if latexNCommands["n"+letters] {
			continue
		}
		b.WriteString(s[pos:start])
		b.WriteByte('\n')
		b.WriteString(letters)
		pos = end
	}
	b.WriteString(s[pos:])
	return b.String()
}

func stripJSONTags(text string) string {
	fences := TopLevel(ScanFences(text))
	for i := len(fences) - 1; i >= 0; i-- {
		f := fences[i]
		if f.Lang != "json" || f.Info != f.Lang {
			continue
		}
		tagStart := f.Start + f.markerLength
		tagEnd := strings.Index(text[tagStart:], f.Info)
		if tagEnd < 0 {
			continue
		}
		tagEnd += tagStart + len(f.Info)
		text = text[:tagStart] + text[tagEnd:]
	}
	return text
}

func convertDelimiters(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		switch s[i+1] {
		case '\\':
			b.WriteString(`\\`)
			i++
		case '(', ')':
			b.WriteByte('$')
			i++
		case '[', ']':
			b.WriteString("$$")
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// walkMath rebuilds s, passing each $$..$$ or $..$ body to mathFn and the
// text between them to proseFn. A nil function leaves its spans unchanged.
// Bodies never contain a $, so the shortest pairing always wins.
func walkMath(s string, mathFn, proseFn func(string) string) string {
	if !strings.ContainsRune(s, '$') {
		if proseFn == nil {
			return s
		}
		return proseFn(s)
	}
	if mathFn == nil {
		mathFn = identity
	}
	if proseFn == nil {
		proseFn = identity
	}

	var b strings.Builder
	b.Grow(len(s))
	prose := 0
	i := 0
	for i < len(s) {
		if s[i] != '$' || (i > 0 && s[i-1] == '\\') {
			i++
			continue
		}

		if strings.HasPrefix(s[i:], "$$") {
			j := strings.IndexByte(s[i+2:], '$')
			if j > 0 && strings.HasPrefix(s[i+2+j:], "$$") {
				b.WriteString(proseFn(s[prose:i]))
				b.WriteString("$$")
				b.WriteString(mathFn(s[i+2 : i+2+j]))
				b.WriteString("$$")
				i += j + 4
				prose = i
				continue
			}
			i += 2
			continue
		}

		j := strings.IndexByte(s[i+1:], '$')
		if j > 0 {
			b.WriteString(proseFn(s[prose:i]))
			b.WriteByte('$')
			b.WriteString(mathFn(s[i+1 : i+1+j]))
			b.WriteByte('$')
			i += j + 2
			prose = i
			continue
		}
		i++
	}
	b.WriteString(proseFn(s[prose:]))
	return b.String()
}

func fixMath(m string) string {
	m = replaceUnescaped(piPattern, m, `\Pi`)
	m = replaceUnescaped(sigmaPattern, m, `\Sigma`)

	// Adjacent products share operands, so repeat until stable.
	for n := 0; n < len(m); n++ {
		next := starPattern.ReplaceAllString(m, `${1} \cdot ${2}`)
		if next == m {
			break
		}
		m = next
	}

	return dotParenPattern.ReplaceAllString(m, `\cdot)`)
}

// replaceUnescaped replaces matches of re that are not already preceded by a
// backslash.
func replaceUnescaped(re *regexp.Regexp, s, replacement string) string {
	locs := re.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return s
	}

	var b strings.Builder
	pos := 0
	for _, loc := range locs {
		if loc[0] > 0 && s[loc[0]-1] == '\\' {
			continue
		}
		b.WriteString(s[pos:loc[0]])
		b.WriteString(replacement)
		pos = loc[1]
	}
	b.WriteString(s[pos:])
	return b.String()
}

func textToMathrm(m string) string {
	return textCommandPattern.ReplaceAllString(m, `\mathrm{${1}}`)
}

func unwrapText(s string) string {
	return textCommandPattern.ReplaceAllString(s, `${1}`)
}

func identity(s string) string {
	return s
}
