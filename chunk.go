package cs

import "time"

// ChunkPayload is one unit of transport:
// a window of a transport-encoded document.
type ChunkPayload struct {
	Data        string
	Index       int
	TotalChunks int
	ChunkSetID  string
}

// ChunkBody is the JSON body of a chunk transaction.
type ChunkBody struct {
	Chunk    string        `json:"chunk"`
	Metadata ChunkMetadata `json:"metadata"`
}

// ChunkMetadata describes a chunk's place in its chunk set.
type ChunkMetadata struct {
	ChunkIndex  int    `json:"chunkIndex"`
	TotalChunks int    `json:"totalChunks"`
	ChunkSetID  string `json:"chunkSetId"`
	ProjectID   string `json:"projectId"`
	ProjectName string `json:"projectName"`
}

// Manifest is the JSON body of a manifest transaction.
// Chunks lists chunk transaction ids in index order.
type Manifest struct {
	ProjectID   string    `json:"projectId"`
	ProjectName string    `json:"projectName"`
	ChunkSetID  string    `json:"chunkSetId"`
	TotalChunks int       `json:"totalChunks"`
	Chunks      []TxID    `json:"chunks"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Kinds of document.
const (
	KindProject         = "project"
	KindFolderStructure = "folder-structure"
	KindProfile         = "profile"
)

// Progress reports how far a multi-chunk operation has come.
type Progress struct {
	Current, Total int
	Percent        float64
}

// ProgressFunc receives a Progress after every chunk.
type ProgressFunc func(Progress)

// Report calls f, if non-nil, with the progress after current of total chunks.
func (f ProgressFunc) Report(current, total int) {
	if f == nil {
		return
	}
	f(Progress{
		Current: current,
		Total:   total,
		Percent: 100 * float64(current) / float64(total),
	})
}
