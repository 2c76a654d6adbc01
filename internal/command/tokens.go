package command

import (
	"fmt"
	"unicode/utf8"
)

// token is one shell-style argument with its rune span in the source line.
// Start is where the logical text begins (after an opening quote).
type token struct {
	Text  string
	Start int
	End   int
}

// tokenize splits a command line into arguments. Whitespace separates
// arguments; single quotes keep their contents literally; double quotes keep
// their contents with backslash escaping only \ and "; outside quotes a
// backslash escapes the next rune. An unterminated quote is an error.
func tokenize(line string) ([]token, error) {
	toks, open := scan(line)
	if open != 0 {
		return nil, fmt.Errorf("unterminated %c quote", open)
	}
	return toks, nil
}

// fields is tokenize without the spans.
func fields(line string) ([]string, error) {
	toks, err := tokenize(line)
	if err != nil || len(toks) == 0 {
		return nil, err
	}
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = t.Text
	}
	return out, nil
}

// currentWord tokenizes the text before the cursor for completion. It returns
// the completed arguments and the partial argument under the cursor, whose
// span ends at the cursor (an empty token at the cursor after whitespace).
func currentWord(before string) (completed []string, current token) {
	end := utf8.RuneCountInString(before)
	toks, _ := scan(before)
	if n := len(toks); n > 0 && toks[n-1].End == end {
		current = toks[n-1]
		toks = toks[:n-1]
	} else {
		current = token{Start: end, End: end}
	}
	for _, t := range toks {
		completed = append(completed, t.Text)
	}
	return completed, current
}

// scan tokenizes line, tolerating an unterminated quote (returned as open).
func scan(line string) (toks []token, open rune) {
	var (
		buf     []rune
		start   = -1
		quote   rune
		escaped bool
		pos     int
	)
	begin := func(at int) {
		if start < 0 {
			start = at
		}
	}
	flush := func(end int) {
		if start >= 0 {
			toks = append(toks, token{Text: string(buf), Start: start, End: end})
		}
		buf, start = buf[:0], -1
	}

	for _, r := range line {
		at := pos
		pos++
		switch {
		case escaped:
			if quote == '"' && r != '"' && r != '\\' {
				buf = append(buf, '\\')
			}
			begin(at)
			buf = append(buf, r)
			escaped = false
		case r == '\\' && quote != '\'':
			begin(at)
			escaped = true
		case quote != 0 && r == quote:
			quote = 0
		case quote != 0:
			buf = append(buf, r)
		case r == '\'' || r == '"':
			quote = r
			if start < 0 {
				start = at + 1
			}
		case r == ' ' || r == '\t':
			flush(at)
		default:
			begin(at)
			buf = append(buf, r)
		}
	}
	if escaped {
		buf = append(buf, '\\')
	}
	flush(pos)
	return toks, quote
}
