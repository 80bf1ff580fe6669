package config

import "fmt"

type jsoncScanState int

const (
	scanCode jsoncScanState = iota
	scanString
	scanStringEscape
	scanLineComment
	scanBlockComment
)

// normalizeJSONC blanks out comments and drops trailing commas so the result
// decodes as strict JSON. Comment bytes become spaces and newlines survive,
// which keeps decoder offsets aligned with the original file.
func normalizeJSONC(content string) (string, error) {
	buf := []byte(content)
	state := scanCode
	pendingComma := -1

	for i := 0; i < len(buf); i++ {
		ch := buf[i]
		switch state {
		case scanString:
			switch ch {
			case '\\':
				state = scanStringEscape
			case '"':
				state = scanCode
			}
			continue
		case scanStringEscape:
			state = scanString
			continue
		case scanLineComment:
			if ch == '\n' || ch == '\r' {
				state = scanCode
				continue
			}
			buf[i] = ' '
			continue
		case scanBlockComment:
			if ch == '*' && i+1 < len(buf) && buf[i+1] == '/' {
				buf[i], buf[i+1] = ' ', ' '
				i++
				state = scanCode
				continue
			}
			if ch != '\n' && ch != '\r' && ch != '\t' {
				buf[i] = ' '
			}
			continue
		}

		switch {
		case ch == '"':
			pendingComma = -1
			state = scanString
		case ch == '/' && i+1 < len(buf) && buf[i+1] == '/':
			buf[i], buf[i+1] = ' ', ' '
			i++
			state = scanLineComment
		case ch == '/' && i+1 < len(buf) && buf[i+1] == '*':
			buf[i], buf[i+1] = ' ', ' '
			i++
			state = scanBlockComment
		case ch == ',':
			pendingComma = i
		case ch == '}' || ch == ']':
			if pendingComma >= 0 {
				buf[pendingComma] = ' '
			}
			pendingComma = -1
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
		default:
			pendingComma = -1
		}
	}

	if state == scanBlockComment {
		return "", fmt.Errorf("unterminated block comment")
	}
	return string(buf), nil
}
