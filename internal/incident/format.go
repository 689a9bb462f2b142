package incident

import "fmt"

// FormatReply composes the single Slack reply combining both generated
// messages under labeled sections. Slack mrkdwn, not GitHub markdown.
func FormatReply(r *Record) string {
	return fmt.Sprintf(`*Incident Communication Messages Generated*

*Customer-Facing Message:*
%s

---

*Internal Team Message:*
%s

---
_Messages saved for future reference._`, r.CustomerMessage, r.InternalMessage)
}
