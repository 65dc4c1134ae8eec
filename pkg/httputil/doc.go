// Package httputil provides shared HTTP handler utilities: consistent JSON
// responses, error envelopes, request parsing helpers, and middleware.
//
// # Overview
//
// Handlers write responses through the Write* helpers so every endpoint
// returns the same shapes. Errors are always
//
//	{"error": "message"}
//
// with an appropriate status code. Request helpers parse gorilla/mux path
// variables and query parameters with typed defaults.
//
// Middleware composes with Chain:
//
//	handler := httputil.Chain(
//	    httputil.RequestIDMiddleware,
//	    httputil.RecoveryMiddleware,
//	)(apiServer)
package httputil
