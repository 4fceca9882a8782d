// Package scpi implements the command syntax parser and parameter detector
// for SCPI-style instrument commands. Parsing is a pure function and a total
// one: malformed input yields a best-effort parse, never an error.
package scpi

import (
	"strings"
)

// PartKind classifies a parsed component.
type PartKind int

const (
	// PartLiteral is plain text (including anything with unmatched brackets).
	PartLiteral PartKind = iota
	// PartOptions is a bracketed options pattern: {A|B|C}.
	PartOptions
	// PartPlaceholder is a numeric placeholder pattern: <N>, <x>, <NR3>, ...
	PartPlaceholder
)

// Part is one space/colon-delimited component of a command, with its byte
// span in the raw string.
type Part struct {
	Text    string
	Start   int // byte offset in Raw, inclusive
	End     int // byte offset in Raw, exclusive
	Kind    PartKind
	Options []string // populated for PartOptions
}

// ParsedCommand is the transient parse result used during parameter editing;
// it is never persisted.
type ParsedCommand struct {
	Raw     string
	Header  string // colon path of the first token, without a leading colon
	IsQuery bool   // trailing ? present (stripped from the last part)
	Parts   []Part
}

// Parse tokenizes a command string. Components are delimited by whitespace,
// commas and colons; a {...} group is kept together even if its option text
// contains delimiters. A trailing ? is the query marker, not a component.
func Parse(raw string) ParsedCommand {
	cmd := ParsedCommand{Raw: raw}

	end := len(raw)
	for end > 0 && isSpace(raw[end-1]) {
		end--
	}
	if end > 0 && raw[end-1] == '?' {
		cmd.IsQuery = true
		end--
	}

	i := 0
	for i < end {
		c := raw[i]
		if isSpace(c) || c == ':' || c == ',' {
			i++
			continue
		}

		start := i
		for i < end {
			c := raw[i]
			if isSpace(c) || c == ':' || c == ',' {
				break
			}
			if c == '{' {
				// Keep a brace group intact; an unterminated group runs to
				// the end of the token scan and stays literal.
				close := strings.IndexByte(raw[i:end], '}')
				if close < 0 {
					i = end
					break
				}
				i += close + 1
				continue
			}
			i++
		}
		cmd.Parts = append(cmd.Parts, classify(raw[start:i], start, i))
	}

	// Header is the leading colon path: every part up to the first part that
	// was split off by whitespace rather than a colon.
	cmd.Header = headerOf(raw, cmd.Parts, end)
	return cmd
}

// headerOf extracts the first whitespace-delimited token, which in SCPI is
// the command's colon path.
func headerOf(raw string, parts []Part, end int) string {
	if len(parts) == 0 {
		return ""
	}
	stop := parts[0].End
	for _, p := range parts[1:] {
		// Extend through parts joined to the previous one by a colon only.
		joined := true
		for j := stop; j < p.Start; j++ {
			if raw[j] != ':' {
				joined = false
				break
			}
		}
		if !joined {
			break
		}
		stop = p.End
	}
	start := parts[0].Start
	return raw[start:stop]
}

func classify(text string, start, end int) Part {
	p := Part{Text: text, Start: start, End: end, Kind: PartLiteral}
	if len(text) >= 2 && text[0] == '{' && text[len(text)-1] == '}' {
		inner := text[1 : len(text)-1]
		p.Kind = PartOptions
		for _, opt := range strings.Split(inner, "|") {
			opt = strings.TrimSpace(opt)
			if opt != "" {
				p.Options = append(p.Options, opt)
			}
		}
		if len(p.Options) == 0 {
			// {} or {|} carries no choices; keep it literal.
			p.Kind = PartLiteral
			p.Options = nil
		}
		return p
	}
	if len(text) >= 3 && text[0] == '<' && text[len(text)-1] == '>' {
		p.Kind = PartPlaceholder
	}
	return p
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t'
}

// NormalizeHeader canonicalizes a command header for schema-library lookup:
// uppercase, no leading colon, no query marker, and mnemonic indices
// collapsed to <X> so CH1:SCALE and CH<x>:SCALE share a key.
func NormalizeHeader(header string) string {
	h := strings.ToUpper(strings.TrimSpace(header))
	h = strings.TrimPrefix(h, ":")
	h = strings.TrimSuffix(h, "?")
	segs := strings.Split(h, ":")
	for i, seg := range segs {
		if prefix, _, ok := mnemonicSplit(seg); ok {
			segs[i] = prefix + "<X>"
		}
	}
	return strings.Join(segs, ":")
}
