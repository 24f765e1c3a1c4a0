package models

import "time"

// RootFolderID is the logical id of the implicit root folder. It is never a
// row in the folders table; a zero parent is stored as NULL.
const RootFolderID int64 = 0

// Folder is a node in the per-owner folder tree. ParentID zero means the
// folder sits at the root.
type Folder struct {
	ID       int64
	OwnerID  int64
	ParentID int64
	// EncName is the folder name, encrypted client-side.
	EncName   string
	CreatedAt time.Time
}
