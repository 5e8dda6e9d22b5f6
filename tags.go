package cs

import (
	"strconv"
	"strings"
	"time"
)

// Canonical tag names.
const (
	TagAppName     = "App-Name"
	TagDataType    = "Data-Type"
	TagProjectID   = "Project-ID"
	TagProjectName = "Project-Name"
	TagAuthor      = "Author"
	TagChunkSetID  = "Chunk-Set-ID"
	TagChunkIndex  = "Chunk-Index"
	TagTotalChunks = "Total-Chunks"
	TagCreatedAt   = "Created-At"
	TagFolder      = "Folder"
	TagRootTx      = "Root-TX"
)

// TimeFormat is the layout of Created-At tag values.
const TimeFormat = time.RFC3339Nano

// TagContext carries what the tag builder needs to know
// about the document a chunk set belongs to.
type TagContext struct {
	App         string
	Kind        string // e.g. KindProject
	LogicalID   string
	Name        string
	Author      string
	Folder      string // optional
	RootTxID    TxID   // optional; set on every version after the first
	ChunkSetID  string
	TotalChunks int
	At          time.Time
}

// ChunkDataType is the Data-Type tag value for chunks of the given kind.
func ChunkDataType(kind string) string { return kind + "-chunk" }

// ManifestDataType is the Data-Type tag value for manifests of the given kind.
func ManifestDataType(kind string) string { return kind + "-manifest" }

// ChunkTags builds the tags for the chunk at the given index.
func ChunkTags(tc TagContext, index int) Tags {
	tags := Tags{
		{Name: TagAppName, Value: tc.App},
		{Name: TagDataType, Value: ChunkDataType(tc.Kind)},
		{Name: TagProjectID, Value: tc.LogicalID},
		{Name: TagProjectName, Value: tc.Name},
		{Name: TagAuthor, Value: strings.ToLower(tc.Author)},
		{Name: TagChunkSetID, Value: tc.ChunkSetID},
		{Name: TagChunkIndex, Value: strconv.Itoa(index)},
		{Name: TagTotalChunks, Value: strconv.Itoa(tc.TotalChunks)},
		{Name: TagCreatedAt, Value: tc.At.UTC().Format(TimeFormat)},
	}
	return tc.appendOptional(tags)
}

// ManifestTags builds the tags for a chunk set's manifest.
func ManifestTags(tc TagContext) Tags {
	tags := Tags{
		{Name: TagAppName, Value: tc.App},
		{Name: TagDataType, Value: ManifestDataType(tc.Kind)},
		{Name: TagProjectID, Value: tc.LogicalID},
		{Name: TagProjectName, Value: tc.Name},
		{Name: TagAuthor, Value: strings.ToLower(tc.Author)},
		{Name: TagChunkSetID, Value: tc.ChunkSetID},
		{Name: TagTotalChunks, Value: strconv.Itoa(tc.TotalChunks)},
		{Name: TagCreatedAt, Value: tc.At.UTC().Format(TimeFormat)},
	}
	return tc.appendOptional(tags)
}

func (tc TagContext) appendOptional(tags Tags) Tags {
	if tc.Folder != "" {
		tags = append(tags, Tag{Name: TagFolder, Value: tc.Folder})
	}
	if tc.RootTxID != "" {
		tags = append(tags, Tag{Name: TagRootTx, Value: string(tc.RootTxID)})
	}
	return tags
}

// DocumentFilters builds query filters matching the manifests
// of one logical document.
// When root is non-empty,
// only versions tagged with that root match.
func DocumentFilters(app, kind, logicalID string, root TxID) []TagFilter {
	filters := []TagFilter{
		Filter(TagAppName, app),
		Filter(TagDataType, ManifestDataType(kind)),
		Filter(TagProjectID, logicalID),
	}
	if root != "" {
		filters = append(filters, Filter(TagRootTx, string(root)))
	}
	return filters
}

// ChunkIndex parses the Chunk-Index tag.
// It returns false when the tag is absent or malformed.
func ChunkIndex(tags Tags) (int, bool) {
	v, ok := tags.Get(TagChunkIndex)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// CreatedAt parses the Created-At tag.
func CreatedAt(tags Tags) (time.Time, bool) {
	v, ok := tags.Get(TagCreatedAt)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(TimeFormat, v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
