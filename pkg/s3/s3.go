package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"InterviewLo/internal/entity"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

type ItfS3 interface {
	UploadJSON(ctx context.Context, key string, v any) (string, error)
	ArchiveTranscript(ctx context.Context, sess entity.Session) (string, error)
}

type s3Client struct {
	uploader   *s3manager.Uploader
	bucketName string
}

// TranscriptArchive is the document stored for a finished session.
type TranscriptArchive struct {
	SessionID   string             `json:"sessionId"`
	CallID      string             `json:"callId,omitempty"`
	UserID      string             `json:"userId,omitempty"`
	InterviewID string             `json:"interviewId,omitempty"`
	Mode        entity.SessionMode `json:"mode"`
	Transcript  []entity.Utterance `json:"transcript"`
	ArchivedAt  time.Time          `json:"archivedAt"`
}

func New() (ItfS3, error) {
	bucket := os.Getenv("AWS_BUCKET_NAME")
	if bucket == "" {
		return nil, errors.New("AWS_BUCKET_NAME is required")
	}

	cfg := &aws.Config{
		Region: aws.String(os.Getenv("AWS_REGION")),
		Credentials: credentials.NewStaticCredentials(
			os.Getenv("AWS_ACCESS_KEY_ID"),
			os.Getenv("AWS_SECRET_ACCESS_KEY"),
			"",
		),
	}
	if endpoint := os.Getenv("AWS_S3_ENDPOINT"); endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
	}

	return NewWithConfig(cfg, bucket)
}

func NewWithConfig(cfg *aws.Config, bucket string) (ItfS3, error) {
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, err
	}

	return &s3Client{
		uploader:   s3manager.NewUploader(sess),
		bucketName: bucket,
	}, nil
}

func (s *s3Client) UploadJSON(ctx context.Context, key string, v any) (string, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", key, err)
	}

	out, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", err
	}

	return out.Location, nil
}

func TranscriptKey(sess entity.Session) string {
	return fmt.Sprintf("transcripts/%s/%s.json", sess.Mode, sess.ID)
}

func (s *s3Client) ArchiveTranscript(ctx context.Context, sess entity.Session) (string, error) {
	return s.UploadJSON(ctx, TranscriptKey(sess), TranscriptArchive{
		SessionID:   sess.ID,
		CallID:      sess.CallID,
		UserID:      sess.UserID,
		InterviewID: sess.InterviewID,
		Mode:        sess.Mode,
		Transcript:  sess.Transcript,
		ArchivedAt:  time.Now().UTC(),
	})
}
