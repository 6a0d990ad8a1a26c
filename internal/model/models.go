// Package model defines the data models shared by the games, the ledger and the transport.
package model

import (
	"strconv"
	"strings"
)

// Player identifies a chat participant. Only ID is used for equality and scoring;
// DisplayName and Handle are best effort and may be empty.
type Player struct {
	ID          int64
	DisplayName string
	Handle      string
	IsBot       bool
}

// Name returns the best human-readable name for the player.
func (p Player) Name() string {
	if name := strings.TrimSpace(p.DisplayName); name != "" {
		return name
	}
	if p.Handle != "" {
		return p.Handle
	}
	return "ID:" + strconv.FormatInt(p.ID, 10)
}

// Mention returns "@handle" when the player has a handle, otherwise the display name.
func (p Player) Mention() string {
	if p.Handle != "" {
		return "@" + p.Handle
	}
	return p.Name()
}

// Score is one row of the score ledger.
type Score struct {
	UserID int64 `db:"user_id" json:"user_id"`
	Points int64 `db:"points" json:"points"`
}
