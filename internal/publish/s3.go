package publish

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3 uploads files under Prefix in Bucket.
type S3 struct {
	Bucket  string
	Prefix  string
	Profile string
	// Client overrides the client built from the shared AWS config.
	Client *s3.Client
}

func (u S3) client(ctx context.Context) (*s3.Client, error) {
	if u.Client != nil {
		return u.Client, nil
	}
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithSharedConfigProfile(u.Profile),
		config.WithRetryMode(aws.RetryModeAdaptive),
	)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

// Upload puts every file and returns the object keys in file order.
func (u S3) Upload(ctx context.Context, files []string) ([]string, error) {
	if u.Bucket == "" {
		return nil, fmt.Errorf("s3: no bucket configured")
	}
	c, err := u.client(ctx)
	if err != nil {
		return nil, err
	}
	up := manager.NewUploader(c)
	keys := make([]string, 0, len(files))
	for _, f := range files {
		key := objectKey(u.Prefix, f)
		if err := uploadFile(ctx, up, u.Bucket, key, f); err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func uploadFile(ctx context.Context, up *manager.Uploader, bucket, key, file string) error {
	fh, err := os.Open(filepath.Clean(file))
	if err != nil {
		return err
	}
	defer fh.Close()
	_, err = up.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        fh,
		ContentType: aws.String(contentType(file)),
	})
	if err != nil {
		return fmt.Errorf("s3 upload %s: %w", key, err)
	}
	return nil
}

func objectKey(prefix, file string) string {
	base := filepath.Base(file)
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return base
	}
	return path.Join(prefix, base)
}

func contentType(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".m3u8", ".m3u":
		return "application/vnd.apple.mpegurl"
	case ".xml":
		return "application/xml"
	case ".txt":
		return "text/plain; charset=utf-8"
	}
	return "application/octet-stream"
}
