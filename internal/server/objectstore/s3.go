// Package objectstore issues presigned S3 URLs for entry logos. Any
// S3-compatible backend (MinIO in development) works.
package objectstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// KeyPrefix starts every object key this package generates. Logo references
// without it are treated as external URLs.
const KeyPrefix = "logos/"

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Settings configures the S3 connection.
type Settings struct {
	AccessKey    string
	SecretKey    string
	Bucket       string
	Region       string
	BaseEndpoint string
	Validity     time.Duration
}

// S3Presigner signs PUT and GET URLs for objects in one bucket.
type S3Presigner struct {
	settings Settings
}

func NewS3Presigner(s Settings) *S3Presigner {
	if s.Validity <= 0 {
		s.Validity = 15 * time.Minute
	}
	return &S3Presigner{settings: s}
}

// NewLogoKey returns a fresh object key for an entry's logo.
func NewLogoKey(userID, entryID string, now time.Time) string {
	return fmt.Sprintf("%s%s/%s/%d/%02d/%s", KeyPrefix, userID, entryID, now.Year(), now.Month(), uuid.NewString())
}

// IsStorageKey reports whether ref points into the bucket rather than at an
// external URL.
func IsStorageKey(ref string) bool {
	return strings.HasPrefix(ref, KeyPrefix)
}

// IsOwnedKey reports whether ref is a storage key NewLogoKey could have
// issued for this user's entry.
func IsOwnedKey(ref, userID, entryID string) bool {
	if userID == "" || entryID == "" || strings.Contains(ref, "..") {
		return false
	}
	return strings.HasPrefix(ref, KeyPrefix+userID+"/"+entryID+"/")
}

func (p *S3Presigner) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(p.settings.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			p.settings.AccessKey,
			p.settings.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if p.settings.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(p.settings.BaseEndpoint)
		}
		// MinIO and most self-hosted backends need path-style addressing
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

// PresignPut returns a URL the client can PUT the object to.
func (p *S3Presigner) PresignPut(ctx context.Context, key string) (string, error) {
	pc, err := p.getPresignClient(ctx)
	if err != nil {
		return "", err
	}

	bucket := p.settings.Bucket
	req, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(p.settings.Validity))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

// PresignGet returns a temporary download URL for key.
func (p *S3Presigner) PresignGet(ctx context.Context, key string) (string, error) {
	pc, err := p.getPresignClient(ctx)
	if err != nil {
		return "", err
	}

	bucket := p.settings.Bucket
	req, err := presignGetObject(pc, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(p.settings.Validity))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
