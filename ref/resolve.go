package ref

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/clayledger/cs"
)

// Key is the store key of the reference to a logical document of the given kind.
// Documents of different kinds may share a logical id.
func Key(kind, logicalID string) string {
	return kind + "/" + logicalID
}

// Resolver finds the latest version of a logical document.
// The local reference wins when there is one;
// otherwise the ledger is queried
// and the answer remembered.
// References are stored under Key(kind, logicalID).
type Resolver struct {
	Refs Store
	G    cs.Getter
	App  string
	Log  *zap.Logger
}

// Latest returns the reference for the newest version of a logical document.
// It returns cs.ErrNotFound if no version exists locally or on the ledger.
func (r *Resolver) Latest(ctx context.Context, kind, logicalID string) (cs.Reference, error) {
	ref, err := r.get(ctx, kind, logicalID)
	if err == nil {
		return ref, nil
	}
	if !errors.Is(err, cs.ErrNotFound) {
		return cs.Reference{}, errors.Wrapf(err, "getting reference %s", logicalID)
	}

	edge, err := r.latestEdge(ctx, kind, logicalID, "")
	if err != nil {
		return cs.Reference{}, err
	}

	root := cs.TxID(edge.Tags.Value(cs.TagRootTx))
	if root == "" {
		root = edge.ID
	}
	if root != edge.ID {
		// Prefer the newest version sharing that root.
		if newer, err := r.latestEdge(ctx, kind, logicalID, root); err == nil {
			edge = newer
		}
	}

	if err := r.Refs.Save(ctx, Key(kind, logicalID), root, edge.ID); err != nil {
		return cs.Reference{}, errors.Wrapf(err, "saving reference %s", logicalID)
	}
	r.logger().Debug("reference recovered from ledger",
		zap.String("logical_id", logicalID),
		zap.String("root", string(root)),
		zap.String("latest", string(edge.ID)),
	)
	return r.get(ctx, kind, logicalID)
}

// Refresh asks the ledger for a version newer than the local reference
// and records it if found.
func (r *Resolver) Refresh(ctx context.Context, kind, logicalID string) (cs.Reference, error) {
	ref, err := r.get(ctx, kind, logicalID)
	if errors.Is(err, cs.ErrNotFound) {
		return r.Latest(ctx, kind, logicalID)
	}
	if err != nil {
		return cs.Reference{}, errors.Wrapf(err, "getting reference %s", logicalID)
	}
	edge, err := r.latestEdge(ctx, kind, logicalID, ref.RootTxID)
	if errors.Is(err, cs.ErrNotFound) {
		return ref, nil
	}
	if err != nil {
		return cs.Reference{}, err
	}
	if edge.ID == ref.LatestTxID {
		return ref, nil
	}
	return r.Save(ctx, kind, logicalID, ref.RootTxID, edge.ID)
}

// Save records latest as the newest version of a logical document
// and returns the updated reference.
// An empty root makes latest the root of a new document.
func (r *Resolver) Save(ctx context.Context, kind, logicalID string, root, latest cs.TxID) (cs.Reference, error) {
	if err := r.Refs.Save(ctx, Key(kind, logicalID), root, latest); err != nil {
		return cs.Reference{}, errors.Wrapf(err, "saving reference %s", logicalID)
	}
	return r.get(ctx, kind, logicalID)
}

// get reads the stored reference,
// reporting it under the caller's logical id.
func (r *Resolver) get(ctx context.Context, kind, logicalID string) (cs.Reference, error) {
	ref, err := r.Refs.Get(ctx, Key(kind, logicalID))
	if err != nil {
		return cs.Reference{}, err
	}
	ref.LogicalID = logicalID
	return ref, nil
}

func (r *Resolver) latestEdge(ctx context.Context, kind, logicalID string, root cs.TxID) (cs.Edge, error) {
	edges, err := r.G.Query(ctx, cs.Query{
		Tags:  cs.DocumentFilters(r.App, kind, logicalID, root),
		First: 1,
		Order: cs.Desc,
	})
	if err != nil {
		return cs.Edge{}, errors.Wrapf(err, "querying versions of %s", logicalID)
	}
	if len(edges) == 0 {
		return cs.Edge{}, cs.ErrNotFound
	}
	return edges[0], nil
}

func (r *Resolver) logger() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}
