package models

// IndexVector ties one document to its encrypted searchable representation
// for one dictionary version. The physical artifact lives at
// {VectorDir}/{ID}.eiv; the id is only known after the row is persisted, so
// the blob write always follows row creation.
type IndexVector struct {
	ID      int64
	OwnerID int64
	DocID   int64
	DictID  int64
	// VectorDir is the directory the .eiv blob was written under.
	VectorDir string
}
