// Package decision handles the recommendation document produced by an
// external language model: its schema, its validation, and the guided retry
// loop that asks for it.
//
// The generator is untrusted. Its output is parsed as JSON and validated;
// when an attempt fails validation, the violations are written into the next
// prompt as explicit corrections. The loop is an explicit state machine
// (Attempt) driven by two pure functions, BuildPrompt and ShouldRetry, so the
// feedback and backoff logic can be tested without a model.
package decision
