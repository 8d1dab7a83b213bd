package ranker

import (
	"bufio"
	"strconv"
	"strings"

	"coursesearch/internal/domain"
)

type parserState int

const (
	stateIdle parserState = iota
	stateHaveTitle
)

const (
	titlePrefix     = "title:"
	relevancePrefix = "relevance:"
)

// ParsedEntry is one closed Title/Relevance pair.
type ParsedEntry struct {
	Title     string
	Relevance float64
	Line      int
}

// ResponseParser reads a model reply line by line. It waits for a "Title:"
// line, then for the "Relevance:" line that closes the entry. Bad lines are
// recorded and skipped; they never abort the parse.
type ResponseParser struct {
	state        parserState
	pendingTitle string
	pendingLine  int

	entries []ParsedEntry
	errs    []*domain.ParseError
}

func NewResponseParser() *ResponseParser {
	return &ResponseParser{}
}

// ParseResponse runs a fresh parser over the whole reply.
func ParseResponse(text string) ([]ParsedEntry, []*domain.ParseError) {
	p := NewResponseParser()
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		p.Feed(line, scanner.Text())
	}
	return p.Finish()
}

// Feed advances the state machine by one line.
func (p *ResponseParser) Feed(lineNo int, raw string) {
	line := normalizeLine(raw)
	lower := strings.ToLower(line)

	switch {
	case strings.HasPrefix(lower, titlePrefix):
		title := cleanValue(line[len(titlePrefix):])
		if p.state == stateHaveTitle {
			p.errs = append(p.errs, &domain.ParseError{Line: p.pendingLine, Text: p.pendingTitle, Reason: "title without relevance"})
		}
		if title == "" {
			p.errs = append(p.errs, &domain.ParseError{Line: lineNo, Text: raw, Reason: "empty title"})
			p.reset()
			return
		}
		p.state = stateHaveTitle
		p.pendingTitle = title
		p.pendingLine = lineNo

	case strings.HasPrefix(lower, relevancePrefix):
		value := cleanValue(line[len(relevancePrefix):])
		if p.state != stateHaveTitle {
			p.errs = append(p.errs, &domain.ParseError{Line: lineNo, Text: raw, Reason: "relevance without title"})
			return
		}
		score, err := parseRelevance(value)
		switch {
		case err != nil:
			p.errs = append(p.errs, &domain.ParseError{Line: lineNo, Text: raw, Reason: "relevance is not a number"})
		case !(score >= 0 && score <= 1):
			p.errs = append(p.errs, &domain.ParseError{Line: lineNo, Text: raw, Reason: "relevance outside [0,1]"})
		default:
			p.entries = append(p.entries, ParsedEntry{Title: p.pendingTitle, Relevance: score, Line: p.pendingLine})
		}
		p.reset()
	}
}

// Finish reports a dangling title, if any, and returns everything collected.
func (p *ResponseParser) Finish() ([]ParsedEntry, []*domain.ParseError) {
	if p.state == stateHaveTitle {
		p.errs = append(p.errs, &domain.ParseError{Line: p.pendingLine, Text: p.pendingTitle, Reason: "title without relevance"})
		p.reset()
	}
	return p.entries, p.errs
}

// parseRelevance reads the leading number of value, so "0.85 (high)" gives
// 0.85. A trailing percent sign scales it: "85%" gives 0.85.
func parseRelevance(value string) (float64, error) {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return 0, strconv.ErrSyntax
	}
	num := strings.TrimRight(fields[0], ",;")
	if pct, ok := strings.CutSuffix(num, "%"); ok {
		score, err := strconv.ParseFloat(pct, 64)
		return score / 100, err
	}
	return strconv.ParseFloat(num, 64)
}

func (p *ResponseParser) reset() {
	p.state = stateIdle
	p.pendingTitle = ""
	p.pendingLine = 0
}

// normalizeLine drops list markers, heading marks and leading emphasis so
// "1. **Title:** X" reads as "Title:** X".
func normalizeLine(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "#")
	s = strings.TrimSpace(s)

	switch {
	case strings.HasPrefix(s, "- "), strings.HasPrefix(s, "* "), strings.HasPrefix(s, "+ "), strings.HasPrefix(s, "• "):
		s = s[strings.Index(s, " ")+1:]
	default:
		i := 0
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if i > 0 && i < len(s) && (s[i] == '.' || s[i] == ')') {
			s = s[i+1:]
		}
	}

	s = strings.TrimSpace(s)
	return strings.TrimLeft(s, "*_")
}

// cleanValue strips the emphasis and quotes a model tends to wrap values in.
func cleanValue(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "*_")
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return strings.TrimSpace(s)
}
