package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  bool
	}{
		{name: "simple", email: "john.doe@example.com", want: true},
		{name: "single char sides", email: "a@b", want: true},
		{name: "plus addressing", email: "john+test@example.com", want: true},
		{name: "empty", email: "", want: false},
		{name: "no at", email: "john.example.com", want: false},
		{name: "empty local part", email: "@example.com", want: false},
		{name: "empty domain part", email: "john@", want: false},
		{name: "two ats", email: "john@doe@example.com", want: false},
		{name: "whitespace inside", email: "john doe@example.com", want: false},
		{name: "surrounding whitespace", email: " john@example.com", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidEmail(tt.email))
		})
	}
}

func TestIsNonBlank(t *testing.T) {
	assert.True(t, IsNonBlank("John"))
	assert.True(t, IsNonBlank("  John "))
	assert.False(t, IsNonBlank(""))
	assert.False(t, IsNonBlank("   "))
	assert.False(t, IsNonBlank("\t\n"))
}

func TestSameEmail(t *testing.T) {
	assert.True(t, SameEmail("John.Doe@Example.com", "john.doe@example.com"))
	assert.False(t, SameEmail("john@example.com", "jane@example.com"))
	assert.Equal(t, "john@example.com", EmailKey(" JOHN@example.COM "))
}
