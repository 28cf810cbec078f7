package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSelfLink(t *testing.T) {
	tests := []struct {
		href string
		want bool
	}{
		{"react.dev", true},
		{"react.dev/", true},
		{"https://react.dev/", true},
		{"https://react.dev", true},
		{"HTTPS://REACT.DEV/", true},
		{"https://fr.react.dev/", false},
		{"https://react.dev/learn", false},
		{"http://react.dev/", true},
		{"//react.dev", true},
		{"https://react.dev/?lang=fr", false},
		{"http://fr.react.dev", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSelfLink(tt.href, "react.dev", "https://react.dev/"))
		})
	}
}

func TestHostOf(t *testing.T) {
	assert.Equal(t, "fr.react.dev", HostOf("https://FR.react.dev/learn"))
	assert.Equal(t, "", HostOf("::not a url"))
}

func TestContainsHost(t *testing.T) {
	assert.True(t, ContainsHost("https://GitHub.com/reactjs/fr.react.dev", "github.com"))
	assert.False(t, ContainsHost("https://ja.react.dev/", "github.com"))
	assert.False(t, ContainsHost("https://ja.react.dev/", ""))
}

func TestSameURL(t *testing.T) {
	assert.True(t, SameURL("https://react.dev/learn/", "https://react.dev/learn"))
	assert.False(t, SameURL("https://react.dev/learn?x=1", "https://react.dev/learn"))
	assert.False(t, SameURL("https://react.dev/", "https://fr.react.dev/"))
}
