// Package composer holds the state of one campaign draft while an operator
// edits it. Each user event (typing a subject, pasting recipients, picking
// a file, submitting) is a method on Controller that runs to completion
// under the controller's lock.
//
// Recipient files are decoded in the background. Every selection gets a
// fresh tag and a decode result is applied only when its tag is still the
// current one, so a slow read of an older file can never overwrite a newer
// selection.
//
// Manager keeps one Controller per draft id and evicts drafts that have
// been idle longer than the configured TTL.
package composer
