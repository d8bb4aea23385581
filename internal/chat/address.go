package chat

import (
	"strings"

	"github.com/samber/lo"
)

// ParseAddressed splits "receiver: body" on the first colon. The receiver and
// body are trimmed; any further colons stay in the body. ok is false when the
// text carries no colon and should be broadcast instead.
func ParseAddressed(text string) (receiver, body string, ok bool) {
	before, after, found := strings.Cut(text, ":")
	if !found {
		return "", "", false
	}
	return strings.TrimSpace(before), strings.TrimSpace(after), true
}

// SplitReceivers turns "bob, carol ,dave" into an ordered list of names.
// Empty entries are dropped.
func SplitReceivers(list string) []string {
	names := lo.Map(strings.Split(list, ","), func(name string, _ int) string {
		return strings.TrimSpace(name)
	})
	return lo.Compact(names)
}
