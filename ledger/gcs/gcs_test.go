package gcs

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"os"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/clayledger/cs/testutil"
)

const (
	credsVar = "CS_GCS_TESTING_CREDS"
	projVar  = "CS_GCS_TESTING_PROJECT"
)

func TestLedger(t *testing.T) {
	var (
		creds     = os.Getenv(credsVar)
		projectID = os.Getenv(projVar)
	)
	if creds == "" || projectID == "" {
		t.Skipf("to run TestLedger, set %s to the name of a credentials file and %s to a project ID", credsVar, projVar)
	}

	var r [30]byte
	_, err := rand.Read(r[:])
	if err != nil {
		t.Fatal(err)
	}
	bucketName := hex.EncodeToString(r[:])

	ctx := context.Background()

	client, err := storage.NewClient(ctx, option.WithCredentialsFile(creds))
	if err != nil {
		t.Fatal(err)
	}

	t.Logf("creating bucket %s in project %s", bucketName, projectID)

	bucket := client.Bucket(bucketName)
	err = bucket.Create(ctx, projectID, nil)
	if err != nil {
		t.Fatal(err)
	}

	l := New(bucket)
	testutil.Ledger(ctx, t, l)
	testutil.ReadWrite(ctx, t, l, testutil.Document(30000))
}

func TestPreconditionFailed(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{err: nil},
		{err: errors.New("boom")},
		{err: &googleapi.Error{Code: http.StatusPreconditionFailed}, want: true},
		{err: errors.Wrap(&googleapi.Error{Code: http.StatusPreconditionFailed}, "closing writer"), want: true},
		{err: &googleapi.Error{Code: http.StatusForbidden}},
	}
	for i, c := range cases {
		if got := preconditionFailed(c.err); got != c.want {
			t.Errorf("case %d: got %v, want %v", i, got, c.want)
		}
	}
}
