// Package doc saves and loads whole documents:
// projects, folder structures, and profiles.
//
// Each save is a new chunk set with its own manifest.
// Versions of one logical document are tied together
// by the Root-TX tag,
// which names the manifest of the first version,
// and the reference store remembers the newest.
package doc

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/clayledger/cs"
	"github.com/clayledger/cs/codec"
	"github.com/clayledger/cs/confirm"
	"github.com/clayledger/cs/locate"
	"github.com/clayledger/cs/ref"
	"github.com/clayledger/cs/upload"
)

// Document is one version of a logical document.
type Document struct {
	Kind      string // cs.KindProject if empty
	LogicalID string
	Name      string
	Author    string // the uploader's identity if empty
	Folder    string
	Body      string
}

// Saved describes a stored version.
type Saved struct {
	Ref    cs.Reference
	Result upload.Result
}

// Service stores and retrieves documents.
type Service struct {
	G        cs.Getter
	Uploader *upload.Uploader
	Waiter   *confirm.Waiter // optional
	Refs     ref.Store
	Decoder  codec.Decoder

	App       string
	ChunkSize int // codec.DefaultChunkSize if zero

	// Concurrency bounds parallel chunk fetches.
	// Zero means locate.DefaultConcurrency.
	Concurrency int

	Log *zap.Logger
}

// New produces a Service with the default decoder and chunk size.
func New(app string, g cs.Getter, u *upload.Uploader, refs ref.Store) *Service {
	return &Service{
		G:         g,
		Uploader:  u,
		Refs:      refs,
		Decoder:   codec.DefaultDecoder,
		App:       app,
		ChunkSize: codec.DefaultChunkSize,
		Log:       zap.NewNop(),
	}
}

func (s *Service) resolver() *ref.Resolver {
	return &ref.Resolver{Refs: s.Refs, G: s.G, App: s.App, Log: s.logger()}
}

func (s *Service) locator() *locate.Locator {
	return &locate.Locator{G: s.G, Concurrency: s.Concurrency, Log: s.logger()}
}

// Save stores d as the newest version of its logical document.
//
// The first version's manifest becomes the document's root.
// Every later version carries a Root-TX tag naming it.
// If a Waiter is configured,
// Save returns only once the new manifest is visible to queries.
// The reference is updated last,
// so a failed save leaves it naming the previous version.
func (s *Service) Save(ctx context.Context, d Document, progress cs.ProgressFunc) (Saved, error) {
	if d.LogicalID == "" {
		return Saved{}, errors.New("document has no logical id")
	}
	if d.Kind == "" {
		d.Kind = cs.KindProject
	}
	if d.Author == "" {
		d.Author = s.Uploader.Owner()
	}

	log := s.logger().With(zap.String("kind", d.Kind), zap.String("logical_id", d.LogicalID))

	var root cs.TxID
	prev, err := s.resolver().Latest(ctx, d.Kind, d.LogicalID)
	switch {
	case err == nil:
		root = prev.RootTxID
	case errors.Is(err, cs.ErrNotFound):
		// first version
	default:
		return Saved{}, errors.Wrapf(err, "resolving %s", d.LogicalID)
	}

	chunkSize := s.ChunkSize
	if chunkSize <= 0 {
		chunkSize = codec.DefaultChunkSize
	}
	payloads, err := codec.Encode(d.Body, chunkSize)
	if err != nil {
		return Saved{}, err
	}

	tc := cs.TagContext{
		App:       s.App,
		Kind:      d.Kind,
		LogicalID: d.LogicalID,
		Name:      d.Name,
		Author:    d.Author,
		Folder:    d.Folder,
		RootTxID:  root,
	}
	res, err := s.Uploader.UploadChunkSet(ctx, payloads, tc, progress)
	if err != nil {
		return Saved{}, err
	}

	if s.Waiter != nil {
		if err := s.Waiter.WaitForTx(ctx, res.ManifestID); err != nil {
			return Saved{}, errors.Wrapf(err, "confirming manifest %s", res.ManifestID)
		}
	}

	r, err := s.resolver().Save(ctx, d.Kind, d.LogicalID, root, res.ManifestID)
	if err != nil {
		return Saved{}, err
	}

	log.Info("document saved",
		zap.String("manifest", string(res.ManifestID)),
		zap.String("root", string(r.RootTxID)),
		zap.Int("chunks", len(res.TxIDs)),
	)
	return Saved{Ref: r, Result: res}, nil
}

// Load returns the body of the newest version of a logical document
// together with its reference.
func (s *Service) Load(ctx context.Context, kind, logicalID string, progress cs.ProgressFunc) (string, cs.Reference, error) {
	r, err := s.resolver().Latest(ctx, kind, logicalID)
	if err != nil {
		return "", cs.Reference{}, errors.Wrapf(err, "resolving %s", logicalID)
	}
	body, err := s.locator().Download(ctx, r.LatestTxID, s.Decoder, progress)
	if err != nil {
		return "", cs.Reference{}, errors.Wrapf(err, "downloading %s", r.LatestTxID)
	}
	return body, r, nil
}

// LoadAt returns the body of the version of a logical document
// that was newest at the given time,
// and the manifest edge of that version.
// It returns cs.ErrNotFound if the document did not exist yet.
func (s *Service) LoadAt(ctx context.Context, kind, logicalID string, at time.Time, progress cs.ProgressFunc) (string, cs.Edge, error) {
	edges, err := s.History(ctx, kind, logicalID)
	if err != nil {
		return "", cs.Edge{}, err
	}
	// oldest first
	for i, j := 0, len(edges)-1; i < j; i, j = i+1, j-1 {
		edges[i], edges[j] = edges[j], edges[i]
	}
	e, err := cs.FindVersion(edges, at)
	if err != nil {
		return "", cs.Edge{}, errors.Wrapf(err, "finding version of %s at %s", logicalID, at)
	}
	body, err := s.locator().Download(ctx, e.ID, s.Decoder, progress)
	if err != nil {
		return "", cs.Edge{}, errors.Wrapf(err, "downloading %s", e.ID)
	}
	return body, e, nil
}

// History lists the manifests of every version of a logical document,
// newest first.
// Only versions descending from the document's root count.
func (s *Service) History(ctx context.Context, kind, logicalID string) ([]cs.Edge, error) {
	r, err := s.resolver().Latest(ctx, kind, logicalID)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving %s", logicalID)
	}

	var (
		result []cs.Edge
		q      = cs.Query{
			Tags:  cs.DocumentFilters(s.App, kind, logicalID, ""),
			Order: cs.Desc,
		}
	)
	for {
		edges, err := s.G.Query(ctx, q)
		if err != nil {
			return nil, errors.Wrapf(err, "querying versions of %s", logicalID)
		}
		for _, e := range edges {
			if e.ID == r.RootTxID || cs.TxID(e.Tags.Value(cs.TagRootTx)) == r.RootTxID {
				result = append(result, e)
			}
		}
		if len(edges) < q.PageSize() {
			return result, nil
		}
		q.After = edges[len(edges)-1].ID
	}
}

// FolderID is the logical id of an author's folder structure.
func FolderID(author string) string {
	return "folders-" + strings.ToLower(author)
}

// ProfileID is the logical id of an author's profile.
func ProfileID(author string) string {
	return "profile-" + strings.ToLower(author)
}

// SaveFolders stores the folder structure of the given author.
func (s *Service) SaveFolders(ctx context.Context, author, body string) (Saved, error) {
	return s.Save(ctx, Document{
		Kind:      cs.KindFolderStructure,
		LogicalID: FolderID(author),
		Name:      "folders",
		Author:    author,
		Body:      body,
	}, nil)
}

// LoadFolders returns the folder structure of the given author.
func (s *Service) LoadFolders(ctx context.Context, author string) (string, error) {
	body, _, err := s.Load(ctx, cs.KindFolderStructure, FolderID(author), nil)
	return body, err
}

// SaveProfile stores the profile of the given author.
func (s *Service) SaveProfile(ctx context.Context, author, body string) (Saved, error) {
	return s.Save(ctx, Document{
		Kind:      cs.KindProfile,
		LogicalID: ProfileID(author),
		Name:      "profile",
		Author:    author,
		Body:      body,
	}, nil)
}

// LoadProfile returns the profile of the given author.
func (s *Service) LoadProfile(ctx context.Context, author string) (string, error) {
	body, _, err := s.Load(ctx, cs.KindProfile, ProfileID(author), nil)
	return body, err
}

func (s *Service) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
