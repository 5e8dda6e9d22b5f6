// Package gcs implements a ledger on Google Cloud Storage.
package gcs

import (
	"context"
	"io"
	"net/http"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/clayledger/cs"
	"github.com/clayledger/cs/internal/param"
	"github.com/clayledger/cs/ledger"
	"github.com/clayledger/cs/ledger/bucket"
)

var _ bucket.Bucket = &Bucket{}

// Bucket adapts a Google Cloud Storage bucket to bucket.Bucket.
type Bucket struct {
	h *storage.BucketHandle
}

// New produces a new ledger storing data in the given bucket.
func New(h *storage.BucketHandle) *bucket.Ledger {
	return bucket.New(&Bucket{h: h})
}

// Put implements bucket.Bucket.
func (b *Bucket) Put(ctx context.Context, name string, data []byte, exclusive bool) error {
	obj := b.h.Object(name)
	if exclusive {
		obj = obj.If(storage.Conditions{DoesNotExist: true})
	}
	w := obj.NewWriter(ctx)
	_, err := w.Write(data)
	if err != nil {
		w.Close()
		return errors.Wrapf(err, "writing object %s", name)
	}
	err = w.Close()
	if preconditionFailed(err) {
		return bucket.ErrExists
	}
	return errors.Wrapf(err, "writing object %s", name)
}

func preconditionFailed(err error) bool {
	var e *googleapi.Error
	return errors.As(err, &e) && e.Code == http.StatusPreconditionFailed
}

// Get implements bucket.Bucket.
func (b *Bucket) Get(ctx context.Context, name string) ([]byte, error) {
	r, err := b.h.Object(name).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, cs.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading info of object %s", name)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	return data, errors.Wrapf(err, "reading contents of object %s", name)
}

// List implements bucket.Bucket.
func (b *Bucket) List(ctx context.Context, prefix string, f func(string) error) error {
	iter := b.h.Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		obj, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "iterating over objects")
		}
		err = f(obj.Name)
		if errors.Is(err, bucket.ErrStop) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func init() {
	ledger.Register("gcs", func(ctx context.Context, conf map[string]interface{}) (cs.Ledger, error) {
		var options []option.ClientOption
		creds, err := param.RequireString(conf, "creds")
		if err != nil {
			return nil, err
		}
		bucketName, err := param.RequireString(conf, "bucket")
		if err != nil {
			return nil, err
		}
		options = append(options, option.WithCredentialsFile(creds))
		c, err := storage.NewClient(ctx, options...)
		if err != nil {
			return nil, errors.Wrap(err, "creating cloud storage client")
		}
		return New(c.Bucket(bucketName)), nil
	})
}
