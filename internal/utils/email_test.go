package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSubject(t *testing.T) {
	cases := []struct {
		input    string
		expected string
	}{
		{"Re: Weekly update", "Weekly update"},
		{"RE: re: Weekly update", "re: Weekly update"},
		{"Fwd: Invoice attached", "Invoice attached"},
		{"FW: quick question", "quick question"},
		{"  Plain subject  ", "Plain subject"},
		{"", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.expected, NormalizeSubject(c.input), "input %q", c.input)
	}
}

func TestExtractDomainFromEmail(t *testing.T) {
	cases := []struct {
		input    string
		expected string
	}{
		{"user@Example.COM", "example.com"},
		{"Shop Deals <deals@shop.com>", "shop.com"},
		{" user@domain.org ", "domain.org"},
		{"not-an-email", ""},
		{"a@b@c", ""},
		{"", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.expected, ExtractDomainFromEmail(c.input), "input %q", c.input)
	}
}
