// Package dedupe drops activities the platform delivers more than once.
//
// Bot Framework retries a webhook POST it considers failed, and Matrix sync can
// replay events after a reconnect. Channels call Seen with a key built from the
// delivery's identifiers and skip the work when it reports true:
//
//	if filter.Seen(dedupe.Key(channelID, conversationID, activityID)) {
//	    return // already handled
//	}
//
// When handling fails in a way the sender will retry, call Forget so the retry
// is processed.
package dedupe
