// Package rack implements a Rack-style middleware composition layer: an
// ordered Registry of named handlers, each wrapping the next, a Dispatcher that
// builds the per-request Env, invokes the chain once and emits the resulting
// (status, headers, body) triple, and a read-only Request facade over the Env.
//
// Middleware packages make their factories available through a Catalog source
// registered from init(); the Registry resolves pending names against the
// Catalog when it is sealed on first dispatch. Constructed handlers are shared
// by every later request, so they must not keep per-request mutable fields.
package rack
