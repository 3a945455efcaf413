// Package models holds the gorm models. Every model uses a UUID string
// primary key assigned just before insert.
package models

import "github.com/google/uuid"

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}
