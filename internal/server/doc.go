// Package server hosts the Fiber HTTP service that fronts the rack dispatcher.
// It translates each Fiber request into a CGI-style host Env, runs the sealed
// middleware stack, and writes the status/headers/body back through Fiber.
// Diagnostics live under /-/ and never reach the middleware stack; see the
// routes subpackage. Keep exports narrow and accept explicit dependencies.
package server
