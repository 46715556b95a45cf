// Package server runs the webhook's HTTP listener.
//
// Routes:
//
//	GET  /health        liveness, always "OK"
//	GET  /api/messages  probe, 200 with empty body
//	POST /api/messages  Bot Framework activities, behind auth.HTTPAuthMiddleware
//
// With tailscale enabled the listener lives on a tsnet node; funnel mode
// exposes it publicly on :443 so the Bot Framework can deliver activities.
package server
