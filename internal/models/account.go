// Package models contains the entities tracked by the account ledger.
package models

import "time"

// Account is a provisioned media-server account tracked locally.
//
// FirstLoginAt is nil until the first activity is observed on the remote
// server; once set it is never changed. IsDeleted transitions false→true
// exactly once; rows are never physically removed, preserving audit history.
type Account struct {
	ID           int64
	Username     string
	RemoteID     string
	CreatedAt    time.Time
	FirstLoginAt *time.Time
	IsDeleted    bool
}

// DeletionEvent describes one retention-expired account removal, delivered
// to every registered administrator and admin group.
type DeletionEvent struct {
	Username     string
	RemoteID     string
	FirstLoginAt time.Time
	Reason       string
}

// ReasonRetentionExpired is the single deletion reason the expiry sweep emits.
const ReasonRetentionExpired = "retention period expired"
