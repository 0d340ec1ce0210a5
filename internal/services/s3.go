package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"menuhub/internal/config"
	"menuhub/internal/utils/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// maxAvatarBytes bounds what we are willing to copy from a provider.
const maxAvatarBytes = 5 << 20

// ObjectPutter is the subset of the S3 client used for avatars.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3AvatarStore mirrors federated profile pictures into an S3 compatible
// bucket so identities do not hotlink the provider.
type S3AvatarStore struct {
	client     ObjectPutter
	httpClient *http.Client
	bucketName string
	publicBase string
	acl        types.ObjectCannedACL
	logger     *logger.Logger
}

var _ AvatarStore = (*S3AvatarStore)(nil)

// NewS3AvatarStore builds the store from configuration. It returns nil, nil
// when storage is disabled.
func NewS3AvatarStore(ctx context.Context, cfg config.StorageConfig) (*S3AvatarStore, error) {
	log := logger.New("s3_avatars")

	if cfg.Provider == "" || cfg.Provider == "none" {
		log.Info("Avatar storage disabled, provider pictures are kept as-is")
		return nil, nil
	}
	if cfg.S3.AccessKey == "" || cfg.S3.SecretKey == "" {
		return nil, log.Error("S3 credentials are empty ❌", fmt.Errorf("accessKey or secretKey is empty"))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3.AccessKey,
			cfg.S3.SecretKey,
			"",
		)),
		awsconfig.WithRetryMode(aws.RetryModeStandard),
		awsconfig.WithRetryMaxAttempts(3),
	)
	if err != nil {
		return nil, log.Error("Unable to load SDK config ❌", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.%s", cfg.S3.Region, cfg.S3.Endpoint))
			o.UsePathStyle = true
		}
	})

	acl := types.ObjectCannedACLPrivate
	if cfg.Provider == "r2" {
		acl = types.ObjectCannedACLPublicRead
	}

	log.Success("S3 avatar store initialized ✅")
	return NewS3AvatarStoreWithClient(client, cfg.S3, acl), nil
}

func NewS3AvatarStoreWithClient(client ObjectPutter, cfg config.S3Config, acl types.ObjectCannedACL) *S3AvatarStore {
	var base string
	if cfg.Endpoint != "" {
		base = fmt.Sprintf("https://%s.%s/%s", cfg.Region, cfg.Endpoint, cfg.BucketName)
	} else {
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.BucketName, cfg.Region)
	}
	return &S3AvatarStore{
		client:     client,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		bucketName: cfg.BucketName,
		publicBase: base,
		acl:        acl,
		logger:     logger.New("s3_avatars"),
	}
}

// MirrorRemote downloads an image and stores it under avatars/, returning the
// public URL of the copy.
func (s *S3AvatarStore) MirrorRemote(ctx context.Context, sourceURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("build avatar request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch avatar: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch avatar: status %d", resp.StatusCode)
	}
	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("fetch avatar: unexpected content type %q", contentType)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAvatarBytes+1))
	if err != nil {
		return "", fmt.Errorf("read avatar: %w", err)
	}
	if len(body) > maxAvatarBytes {
		return "", fmt.Errorf("avatar exceeds %d bytes", maxAvatarBytes)
	}

	key := "avatars/" + uuid.New().String() + extensionFor(contentType)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ACL:         s.acl,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", s.logger.Error("Failed to upload avatar ❌", err)
	}

	url := s.publicBase + "/" + key
	s.logger.Debug("Mirrored avatar to %s", url)
	return url, nil
}

func extensionFor(contentType string) string {
	exts, err := mime.ExtensionsByType(contentType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	return exts[0]
}
