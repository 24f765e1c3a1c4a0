package models

import "time"

// File describes server-side metadata of one encrypted document. The
// ciphertext itself lives on disk at the blobstore's file path for (owner, id).
type File struct {
	ID      int64
	OwnerID int64
	// FolderID zero means the file sits at the root.
	FolderID int64

	// CipherTitle is the document title, encrypted client-side.
	CipherTitle string
	// StoragePath is the directory the blob was written under, recorded at
	// upload time.
	StoragePath string
	Mime        string
	UploadedAt  time.Time
}
