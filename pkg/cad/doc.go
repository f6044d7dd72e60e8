// Package cad provides typed drawing operations on top of retry-protected
// automation proxies.
//
// The types here mirror the engine's object model: an [Application] holds
// open [Document]s, a document has [Layout]s whose [Space] contains
// entities, and a [BlockReference] carries [Attribute]s. Every method makes
// one or more remote calls through an [automation.Proxy], so transient
// engine failures are already retried by the time an error is returned.
package cad
