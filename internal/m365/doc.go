// ABOUTME: Package m365 is the Microsoft 365 / Bot Framework webhook channel
// ABOUTME: Inbound activities are routed through channel.Router, replies go back via the connector

// Package m365 serves the Bot Framework messaging endpoint.
//
// Inbound activities arrive on POST /api/messages after the auth middleware
// has verified the caller's token. Message activities are answered through
// the shared channel rules; conversationUpdate activities that add a user get
// the welcome text. Replies are posted to the activity's serviceUrl using a
// client-credentials token from the connection selected for that request.
package m365
