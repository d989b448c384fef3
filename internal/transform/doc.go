// Package transform holds the named transformer registry used to reshape
// request and response payloads.
//
// A transformer converts data forward (towards the wire) and, optionally, in
// reverse (from the wire). Registrations come in three forms:
//
//	reg.Register("user", schema.NewMapper(userSchema)) // forward + reverse
//	reg.RegisterFunc("trim", trimStrings)               // same function both ways
//	reg.RegisterRef("dates", "iso-dates")               // resolved by name on each use
//
// Applying an unknown name is a no-op that returns the input unchanged, and
// reversing a transformer without a reverse direction is a no-op too. Chains
// name several transformers separated by whitespace or commas and apply them
// left to right:
//
//	out, err := reg.ApplyForwardChain(transform.ParseChain("user, dates"), in)
//
// Registration is expected to happen during setup; the registry is safe for
// concurrent use but does not order a registration against an in-flight
// resolution of the same name.
package transform
