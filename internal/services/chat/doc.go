// Package chat owns chat rooms and their append-only message logs.
//
// The registry issues Room capabilities on create and join; each capability
// carries the speaker identity it was issued with, so two handles to the
// same room never race on message attribution.
package chat
