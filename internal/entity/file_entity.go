package entity

type FileMetadata struct {
	CollectionID string `json:"collection_id"`
}

// UploadedFileInfo is the backend's descriptor for an uploaded file. The
// portal holds it only long enough to reference the file id in the next
// outgoing message.
type UploadedFileInfo struct {
	ID        string       `json:"id"`
	Filename  string       `json:"filename"`
	Filepath  string       `json:"filepath"`
	Metadata  FileMetadata `json:"metadata"`
	CreatedAt string       `json:"createdAt"`
	UpdatedAt string       `json:"updatedAt"`
}
