// Package auth authenticates inbound webhook requests for foundry-agent.
//
// # Verifiers
//
// Every verifier implements TokenVerifier and returns the token's claims as an
// AuthContext:
//
//   - JWKSVerifier: RS256 tokens issued by the Bot Framework. Signing keys are
//     discovered through the OpenID metadata document (jwks_uri) and cached for
//     24 hours. An unseen kid triggers an early refresh, at most every 5 minutes.
//     Issuer must be https://api.botframework.com and the audience must be the
//     bot's app ID.
//
//   - JWTVerifier: HS256 tokens signed with a shared secret. Meant for local
//     testing without a Bot Framework registration; Generate mints tokens.
//
// # HTTP Middleware
//
//	mux.Handle("/api/messages", auth.HTTPAuthMiddleware(verifier, logger)(handler))
//
// POST requests need "Authorization: Bearer <token>". GET and HEAD pass through
// so health probes on the same route succeed. Verified claims are attached to
// the request context:
//
//	if ac := auth.FromContext(r.Context()); ac != nil {
//	    // ac.ServiceURL, ac.AppID, ...
//	}
package auth
