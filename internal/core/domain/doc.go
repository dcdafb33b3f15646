// Package domain defines the core domain models for sdncli.
//
// Domain models are pure values without IO dependencies. This package
// contains:
//
//   - Envelope: the uniform request body sent for every resource operation
//   - Operation: the verb embedded in the envelope context
//   - Endpoint / Registry: the command to resource mapping from configuration
//   - Errors: coded domain errors, matched with errors.Is
package domain
