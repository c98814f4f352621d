package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "3*4/2", Normalize("3×4÷2"))
	assert.Equal(t, "1+1", Normalize("1+1"))
	assert.Equal(t, "", Normalize(""))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		expression string
		want       Class
	}{
		{name: "digits and operators", expression: "1+2*(3-4)/5.5", want: ClassSimple},
		{name: "whitespace kinds", expression: "1\t+\n2\r\f\v", want: ClassSimple},
		{name: "no-break space", expression: "1\u00a0+\u00a02", want: ClassSimple},
		{name: "byte order mark", expression: "\ufeff1+2", want: ClassSimple},
		{name: "empty input", expression: "", want: ClassSimple},
		{name: "caret", expression: "2^3", want: ClassComplex},
		{name: "percent", expression: "50%", want: ClassComplex},
		{name: "letters", expression: "sqrt(16)", want: ClassComplex},
		{name: "scientific notation", expression: "1e5", want: ClassComplex},
		{name: "next line is not whitespace", expression: "1\u0085+2", want: ClassComplex},
		{name: "unnormalized glyph", expression: "3\u00d74", want: ClassComplex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.expression))
		})
	}
}
