package s3

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"os"
	"testing"

	"github.com/clayledger/cs/testutil"
)

const (
	bucketVar   = "CS_S3_TESTING_BUCKET"
	endpointVar = "CS_S3_TESTING_ENDPOINT"
)

func TestLedger(t *testing.T) {
	bucketName := os.Getenv(bucketVar)
	if bucketName == "" {
		t.Skipf("to run TestLedger, set %s to the name of a writable bucket (and optionally %s)", bucketVar, endpointVar)
	}

	var r [8]byte
	if _, err := rand.Read(r[:]); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	l, err := New(ctx, Config{
		Bucket:       bucketName,
		Prefix:       "cstest-" + hex.EncodeToString(r[:]),
		Endpoint:     os.Getenv(endpointVar),
		UsePathStyle: os.Getenv(endpointVar) != "",
	})
	if err != nil {
		t.Fatal(err)
	}

	testutil.Ledger(ctx, t, l)
	testutil.ReadWrite(ctx, t, l, testutil.Document(30000))
}

func TestMissingBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Error("expected an error for a missing bucket")
	}
}
