package s3

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"InterviewLo/internal/entity"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
)

func TestArchiveTranscript(t *testing.T) {
	var (
		gotPath string
		gotBody TranscriptArchive
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &gotBody); err != nil {
			t.Errorf("decode body: %v (%s)", err, raw)
		}
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewWithConfig(&aws.Config{
		Region:           aws.String("us-east-1"),
		Endpoint:         aws.String(srv.URL),
		S3ForcePathStyle: aws.Bool(true),
		Credentials:      credentials.NewStaticCredentials("id", "secret", ""),
	}, "interviews")
	if err != nil {
		t.Fatalf("NewWithConfig() error = %v", err)
	}

	sess := entity.Session{
		ID:         "srv-c1",
		CallID:     "c1",
		Mode:       entity.ModeSetup,
		Transcript: []entity.Utterance{{Role: entity.RoleUser, Content: "senior go"}},
	}

	location, err := client.ArchiveTranscript(context.Background(), sess)
	if err != nil {
		t.Fatalf("ArchiveTranscript() error = %v", err)
	}

	wantPath := "/interviews/" + TranscriptKey(sess)
	if gotPath != wantPath {
		t.Errorf("path = %q, want %q", gotPath, wantPath)
	}
	if !strings.HasSuffix(location, TranscriptKey(sess)) {
		t.Errorf("location = %q", location)
	}
	if gotBody.SessionID != "srv-c1" || len(gotBody.Transcript) != 1 {
		t.Errorf("archived body = %+v", gotBody)
	}
}
