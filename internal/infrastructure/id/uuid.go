package id

import "github.com/google/uuid"

// UUIDGenerator issues random version 4 UUIDs for orders.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }
