// Package server runs the loopback HTTP endpoint for the OAuth installed-app flow
// and supplies the router and middleware shared with the live event stream.
//
// # Router
//
// [Router] is implemented by [Mux], a thin layer over chi. [Handler] implementations
// carry their own routes so registration stays with the handler.
//
// # OAuth Callback Handler
//
// [OAuthHandler] validates the state parameter (CSRF protection), exchanges the
// authorization code for tokens and sends the result through a channel. It only
// processes one callback.
//
// [Login] ties these together: it binds the callback listener, opens the consent
// page in a browser, waits for the callback (or a timeout) and shuts the server down.
package server
