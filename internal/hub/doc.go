// Package hub implements the event-sequencing layer of statekit.
//
// The hub owns the logical clock that assigns every event a strictly
// increasing version number, registers extensions, and hands each
// extension a capability surface (ExtensionContext) for publishing and
// resolving shared state through the registry.
//
// The hub deliberately does NOT deliver events. Event-bus dispatch is an
// external collaborator's job; callers stamp events here and route them
// themselves. This keeps the sequencing layer synchronous and the version
// assignment trivially linearizable.
//
// Versioning model:
//
// Events are stamped with a monotonic counter from Clock.Next(), never
// wall-clock timestamps. Shared state published in response to an event is
// keyed by that event's number, so state ordering always agrees with event
// ordering.
package hub
