package calculator

import (
	"strings"
	"unicode"
)

// Class is the routing decision for an input string.
type Class int

const (
	// ClassSimple input is evaluated locally.
	ClassSimple Class = iota
	// ClassComplex input always goes to the AI path.
	ClassComplex
)

func (c Class) String() string {
	if c == ClassSimple {
		return "simple"
	}
	return "complex"
}

var glyphReplacer = strings.NewReplacer("×", "*", "÷", "/")

// Normalize rewrites the keypad multiplication and division glyphs to ASCII operators.
func Normalize(expression string) string {
	return glyphReplacer.Replace(expression)
}

// Classify reports whether a normalized expression only contains digits,
// arithmetic operators, parentheses, decimal points and whitespace.
func Classify(normalized string) Class {
	for _, r := range normalized {
		if !isSimpleRune(r) {
			return ClassComplex
		}
	}
	return ClassSimple
}

func isSimpleRune(r rune) bool {
	if isDigit(r) || isSpace(r) {
		return true
	}
	switch r {
	case '+', '-', '*', '/', '(', ')', '.':
		return true
	}
	return false
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// isSpace matches the ECMAScript whitespace and line terminator set, which
// differs from unicode.IsSpace on NEL and the byte order mark.
func isSpace(r rune) bool {
	switch r {
	case '\ufeff':
		return true
	case '\u0085':
		return false
	}
	return unicode.IsSpace(r)
}
