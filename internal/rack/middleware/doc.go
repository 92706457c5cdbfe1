// Package middleware ships the built-in rack handlers. Importing the package
// provides the "rack/middleware" source on the default catalog; registering
// any of HeadRequest, MethodOverride, ContentLength, CommonLogger or Metrics
// with that source makes the registry able to construct it.
//
// Every handler here is a stateless decorator: one instance serves all
// requests, so per-request data lives in the Env only.
package middleware
