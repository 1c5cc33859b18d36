package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var testCategories = map[string][]string{
	"mosque":   {"masjid", "مسجد"},
	"gym":      {"gymnasium", "fitness center"},
	"school":   {"madrasa"},
	"hospital": {"clinic"},
}

func TestMatchCategory(t *testing.T) {
	tests := []struct {
		term   string
		want   string
		wantOK bool
	}{
		{"mosque", "mosque", true},
		{"  Mosque ", "mosque", true},
		{"masjid", "mosque", true},
		{"مسجد", "mosque", true},
		{"jamia mosque", "", false},
		{"car park", "", false},
		{"school bus", "", false},
		{"Fitness   Center", "gym", true},
		{"gymnasium", "gym", true},
		{"security", "", false},
		{"gymkhana", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			got, ok := MatchCategory(tt.term, testCategories)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContainsAnySubstring(t *testing.T) {
	vocab := []string{"rent", "sale", "kiraya"}

	assert.True(t, ContainsAnySubstring("3 bedroom house for RENT in DHA", vocab))
	assert.True(t, ContainsAnySubstring("ghar kiraya pe chahiye", vocab))
	assert.False(t, ContainsAnySubstring("3 bedroom house in DHA", vocab))
	assert.False(t, ContainsAnySubstring("anything", []string{"", "  "}))
	assert.True(t, ContainsAnySubstring("house nearest to a school", []string{"near"}))
}
