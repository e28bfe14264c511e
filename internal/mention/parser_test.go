// ABOUTME: Tests for mention token parsing
// ABOUTME: Covers first-match extraction, non-matches and malformed tokens

package mention

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantID  int64
		wantOK  bool
	}{
		{"simple mention", "#42", 42, true},
		{"mention inside text", "hello #7 how are you", 7, true},
		{"mention at end", "ping #123", 123, true},
		{"first of several", "#1 and #2", 1, true},
		{"adjacent text", "see ticket#99 please", 99, true},
		{"no mention", "hello everyone", 0, false},
		{"bare marker", "just a # sign", 0, false},
		{"marker before word", "#general", 0, false},
		{"empty content", "", 0, false},
		{"digits without marker", "call 555", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := Parse(tt.content)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantID, m.MemberID)
			}
		})
	}
}

func TestParse_OverflowingID(t *testing.T) {
	// More digits than int64 can hold: not a valid membership token
	_, ok := Parse("#99999999999999999999999999")
	assert.False(t, ok)
}
