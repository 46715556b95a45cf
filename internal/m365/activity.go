// ABOUTME: Bot Framework activity schema, limited to the fields this channel reads or writes
// ABOUTME: Reply builds the outbound message activity for an inbound one

package m365

import "strings"

// Activity types handled by the channel.
const (
	ActivityTypeMessage            = "message"
	ActivityTypeConversationUpdate = "conversationUpdate"
	ActivityTypeTyping             = "typing"
)

// ChannelAccount identifies a user or bot on a channel.
type ChannelAccount struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Role string `json:"role,omitempty"`
}

// ConversationAccount identifies a conversation.
type ConversationAccount struct {
	ID               string `json:"id"`
	Name             string `json:"name,omitempty"`
	ConversationType string `json:"conversationType,omitempty"`
	TenantID         string `json:"tenantId,omitempty"`
	IsGroup          bool   `json:"isGroup,omitempty"`
}

// Activity is one Bot Framework activity.
type Activity struct {
	Type         string              `json:"type"`
	ID           string              `json:"id,omitempty"`
	Timestamp    string              `json:"timestamp,omitempty"`
	ChannelID    string              `json:"channelId,omitempty"`
	ServiceURL   string              `json:"serviceUrl,omitempty"`
	From         ChannelAccount      `json:"from"`
	Recipient    ChannelAccount      `json:"recipient"`
	Conversation ConversationAccount `json:"conversation"`
	Text         string              `json:"text,omitempty"`
	TextFormat   string              `json:"textFormat,omitempty"`
	Locale       string              `json:"locale,omitempty"`
	ReplyToID    string              `json:"replyToId,omitempty"`
	MembersAdded []ChannelAccount    `json:"membersAdded,omitempty"`
}

// Reply returns a message activity answering a, addressed back to its sender.
func (a *Activity) Reply(text string) *Activity {
	return &Activity{
		Type:         ActivityTypeMessage,
		ChannelID:    a.ChannelID,
		ServiceURL:   a.ServiceURL,
		From:         a.Recipient,
		Recipient:    a.From,
		Conversation: a.Conversation,
		Text:         text,
		TextFormat:   "plain",
		Locale:       a.Locale,
		ReplyToID:    a.ID,
	}
}

// JoinedMembers returns the added members other than the bot itself.
func (a *Activity) JoinedMembers() []ChannelAccount {
	var joined []ChannelAccount
	for _, m := range a.MembersAdded {
		if m.ID != a.Recipient.ID {
			joined = append(joined, m)
		}
	}
	return joined
}

// normalizeServiceURL drops a trailing slash and folds case for comparison.
func normalizeServiceURL(u string) string {
	return strings.ToLower(strings.TrimRight(u, "/"))
}
