package calculator

import (
	"errors"
	"fmt"
	"strconv"
)

// maxDepth bounds nested parentheses and unary signs so that deeply nested
// input fails as a structural error instead of exhausting the stack.
const maxDepth = 1000

type scanner struct {
	buf   []rune
	pos   int
	depth int
}

func newScanner(s string) scanner {
	return scanner{buf: []rune(s)}
}

func (s *scanner) eof() bool { return s.pos >= len(s.buf) }

func (s *scanner) peek() rune {
	if s.eof() {
		return 0
	}
	return s.buf[s.pos]
}

func (s *scanner) accept(r rune) bool {
	if s.eof() || s.buf[s.pos] != r {
		return false
	}
	s.pos++
	return true
}

func (s *scanner) skipSpaces() {
	for !s.eof() && isSpace(s.buf[s.pos]) {
		s.pos++
	}
}

func (s *scanner) enter() error {
	s.depth++
	if s.depth > maxDepth {
		return fmt.Errorf("%w: nesting deeper than %d at %d", ErrStructural, maxDepth, s.pos)
	}
	return nil
}

func (s *scanner) leave() { s.depth-- }

// skipLeadingSpaces skips whitespace before the first token and reports
// whether it contained a line terminator.
func (s *scanner) skipLeadingSpaces() bool {
	lineBreak := false
	for !s.eof() && isSpace(s.buf[s.pos]) {
		if isLineTerminator(s.buf[s.pos]) {
			lineBreak = true
		}
		s.pos++
	}
	return lineBreak
}

func isLineTerminator(r rune) bool {
	switch r {
	case '\n', '\r', '\u2028', '\u2029':
		return true
	}
	return false
}

// acceptSign consumes a '+' or '-'. A doubled sign with nothing in between
// is an increment or decrement token, which cannot apply to a literal.
func (s *scanner) acceptSign(r rune) (bool, error) {
	if !s.accept(r) {
		return false, nil
	}
	if s.peek() == r {
		return false, fmt.Errorf("%w: unexpected %c%c at %d", ErrStructural, r, r, s.pos-1)
	}
	return true, nil
}

// evaluate parses and computes a simple arithmetic expression.
// A line break before the first token leaves the expression without a value.
func evaluate(expression string) (float64, error) {
	s := newScanner(expression)
	if s.skipLeadingSpaces() {
		return 0, fmt.Errorf("%w: line break before the expression", ErrStructural)
	}
	v, err := parseAddSub(&s)
	if err != nil {
		return 0, err
	}
	s.skipSpaces()
	if !s.eof() {
		return 0, fmt.Errorf("%w: unexpected %q at %d", ErrStructural, s.peek(), s.pos)
	}
	return v, nil
}

func parseAddSub(s *scanner) (float64, error) {
	v, err := parseMulDiv(s)
	if err != nil {
		return 0, err
	}
	for {
		s.skipSpaces()
		switch s.peek() {
		case '+', '-':
			op := s.peek()
			if _, err := s.acceptSign(op); err != nil {
				return 0, err
			}
			rhs, err := parseMulDiv(s)
			if err != nil {
				return 0, err
			}
			if op == '+' {
				v += rhs
			} else {
				v -= rhs
			}
		default:
			return v, nil
		}
	}
}

func parseMulDiv(s *scanner) (float64, error) {
	v, err := parseUnary(s)
	if err != nil {
		return 0, err
	}
	for {
		s.skipSpaces()
		switch {
		case s.accept('*'):
			rhs, err := parseUnary(s)
			if err != nil {
				return 0, err
			}
			v *= rhs
		case s.accept('/'):
			rhs, err := parseUnary(s)
			if err != nil {
				return 0, err
			}
			// IEEE division: x/0 is ±Inf or NaN and is rejected by formatting
			v /= rhs
		default:
			return v, nil
		}
	}
}

func parseUnary(s *scanner) (float64, error) {
	s.skipSpaces()
	for _, sign := range []rune{'+', '-'} {
		ok, err := s.acceptSign(sign)
		if err != nil {
			return 0, err
		}
		if !ok {
			continue
		}
		if err := s.enter(); err != nil {
			return 0, err
		}
		v, err := parseUnary(s)
		s.leave()
		if err != nil {
			return 0, err
		}
		if sign == '-' {
			return -v, nil
		}
		return v, nil
	}
	return parsePrimary(s)
}

func parsePrimary(s *scanner) (float64, error) {
	s.skipSpaces()
	if s.eof() {
		return 0, fmt.Errorf("%w: unexpected end of expression", ErrStructural)
	}
	if s.accept('(') {
		if err := s.enter(); err != nil {
			return 0, err
		}
		v, err := parseAddSub(s)
		s.leave()
		if err != nil {
			return 0, err
		}
		s.skipSpaces()
		if !s.accept(')') {
			return 0, fmt.Errorf("%w: missing closing parenthesis at %d", ErrStructural, s.pos)
		}
		return v, nil
	}
	if isDigit(s.peek()) || s.peek() == '.' {
		return s.readNumber()
	}
	return 0, fmt.Errorf("%w: unexpected %q at %d", ErrStructural, s.peek(), s.pos)
}

// readNumber reads a decimal literal: digits with an optional fraction, or a
// bare fraction such as ".5". "5." is accepted as 5.
func (s *scanner) readNumber() (float64, error) {
	start := s.pos
	intDigits := 0
	for !s.eof() && isDigit(s.peek()) {
		s.pos++
		intDigits++
	}
	fracDigits := 0
	if s.accept('.') {
		for !s.eof() && isDigit(s.peek()) {
			s.pos++
			fracDigits++
		}
	}
	if intDigits == 0 && fracDigits == 0 {
		return 0, fmt.Errorf("%w: lone decimal point at %d", ErrStructural, start)
	}

	literal := string(s.buf[start:s.pos])
	v, err := strconv.ParseFloat(literal, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, fmt.Errorf("%w: strconv.ParseFloat(%s) > %w", ErrStructural, literal, err)
	}
	// out-of-range literals come back as ±Inf and fail the finiteness check
	return v, nil
}
