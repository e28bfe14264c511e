// ABOUTME: Pure parsing of bot mention tokens inside message text
// ABOUTME: Recognizes #<digits> membership references, no side effects

package mention

import (
	"regexp"
	"strconv"
)

// pattern matches a membership reference: a # marker immediately followed by
// decimal digits. There is no escaping, so a literal #123 in ordinary text is
// indistinguishable from an intended mention; resolution failure downstream
// is a silent no-op, which keeps that ambiguity harmless.
var pattern = regexp.MustCompile(`#(\d+)`)

// Mention is a reference extracted from message text. The target is a
// channel membership ID.
type Mention struct {
	MemberID int64
}

// Explicit is a caller-supplied mention accompanying message creation,
// bypassing text scanning. Name must match the resolved bot's name for the
// mention to be honored.
type Explicit struct {
	MemberID int64  `json:"memberId"`
	Name     string `json:"name"`
}

// Parse scans content for the first #<digits> token and returns the
// referenced membership ID. Malformed tokens simply don't match; there is no
// error case.
func Parse(content string) (Mention, bool) {
	m := pattern.FindStringSubmatch(content)
	if m == nil {
		return Mention{}, false
	}

	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		// Digits too long to fit an int64 cannot name a membership
		return Mention{}, false
	}

	return Mention{MemberID: id}, true
}
