package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Example.COM", "example.com"},
		{"  example.com  ", "example.com"},
		{"https://example.com", "example.com"},
		{"http://www.example.com", "example.com"},
		{"www.example.com/contact?ref=x", "example.com"},
		{"example.com/", "example.com"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeDomain(tt.in), "input %q", tt.in)
	}
}
