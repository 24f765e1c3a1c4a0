package models

import "time"

// Dictionary scheme parameter defaults.
const (
	DefaultScheme     = "BFV"
	DefaultPolyDegree = 8192
	DefaultSlotCount  = 8192
	DefaultEncoding   = "BATCH"
)

// Dictionary is one versioned, owner-scoped encrypted vocabulary together
// with the FHE scheme parameters index vectors and queries were encoded with.
// Version is unique per owner; re-uploading a version overwrites EncVocab.
type Dictionary struct {
	ID      int64
	OwnerID int64
	Version int

	EncVocab []byte

	Scheme     string
	PolyDegree int
	SlotCount  int
	Encoding   string

	CreatedAt time.Time
}
