package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/chachabrian/venue-backend/internal/config"
	"github.com/google/uuid"
)

var ErrInvalidKey = errors.New("invalid storage key")

// StoredObject describes a blob after upload.
type StoredObject struct {
	Key         string
	URL         string
	ContentType string
	Size        int64
}

// Storage keeps media blobs in S3 when configured, on local disk otherwise.
type Storage struct {
	useS3    bool
	bucket   string
	region   string
	client   s3iface.S3API
	uploader *s3manager.Uploader

	uploadDir string
	baseURL   string
}

// NewStorage initializes either S3 or local storage based on configuration
func NewStorage(cfg config.StorageConfig, baseURL string) (*Storage, error) {
	if cfg.UseS3() {
		sess, err := session.NewSession(&aws.Config{
			Region: aws.String(cfg.AWSRegion),
			Credentials: credentials.NewStaticCredentials(
				cfg.AWSAccessKey,
				cfg.AWSSecretKey,
				"",
			),
		})
		if err != nil {
			return nil, fmt.Errorf("create AWS session: %w", err)
		}

		return &Storage{
			useS3:    true,
			bucket:   cfg.Bucket,
			region:   cfg.AWSRegion,
			client:   s3.New(sess),
			uploader: s3manager.NewUploader(sess),
		}, nil
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}

	return &Storage{
		uploadDir: cfg.UploadDir,
		baseURL:   strings.TrimRight(baseURL, "/"),
	}, nil
}

func (s *Storage) UsingS3() bool {
	return s.useS3
}

// LocalDir is the directory served under /uploads in local mode.
func (s *Storage) LocalDir() string {
	return s.uploadDir
}

// Upload stores the content of r under folder with a generated key. The
// content type is sniffed from the first bytes.
func (s *Storage) Upload(ctx context.Context, folder, filename string, r io.Reader) (*StoredObject, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	contentType := http.DetectContentType(head)
	body := io.MultiReader(bytes.NewReader(head), r)

	key := path.Join(folder, uuid.NewString()+strings.ToLower(filepath.Ext(filename)))

	if s.useS3 {
		return s.uploadToS3(ctx, key, contentType, body)
	}
	return s.uploadLocally(key, contentType, body)
}

func (s *Storage) uploadToS3(ctx context.Context, key, contentType string, body io.Reader) (*StoredObject, error) {
	counter := &countingReader{r: body}
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        counter,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("upload to S3: %w", err)
	}

	return &StoredObject{
		Key:         key,
		URL:         s.URL(key),
		ContentType: contentType,
		Size:        counter.n,
	}, nil
}

func (s *Storage) uploadLocally(key, contentType string, body io.Reader) (*StoredObject, error) {
	dst := filepath.Join(s.uploadDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, fmt.Errorf("create folder directory: %w", err)
	}

	f, err := os.Create(dst)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, body)
	if err != nil {
		os.Remove(dst)
		return nil, fmt.Errorf("save file: %w", err)
	}

	return &StoredObject{
		Key:         key,
		URL:         s.URL(key),
		ContentType: contentType,
		Size:        size,
	}, nil
}

// URL returns the public URL of key.
func (s *Storage) URL(key string) string {
	if s.useS3 {
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
	}
	return fmt.Sprintf("%s/uploads/%s", s.baseURL, key)
}

// Delete removes the blob stored under key. Deleting a missing blob is not an error.
func (s *Storage) Delete(ctx context.Context, key string) error {
	clean := path.Clean("/" + key)[1:]
	if clean == "" || clean != key {
		return ErrInvalidKey
	}

	if s.useS3 {
		_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		return err
	}

	err := os.Remove(filepath.Join(s.uploadDir, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
