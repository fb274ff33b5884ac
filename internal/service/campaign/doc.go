// Package campaign implements the submission gate for a composed campaign.
//
// Validate and GateAttachment are the pure checks that decide whether a
// draft may leave the process. Service wraps the external sending
// collaborator with single-flight locking, outcome recording and metrics.
// It depends on the interfaces defined in repository.go and never imports
// from api/ or composer/.
//
// Implementations of Sender live in sender/, of History in
// repository/postgres/, and of Archive in archive/.
package campaign
