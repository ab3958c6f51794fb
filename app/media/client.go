package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/vibast-solutions/ms-go-onlearn-auth/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const MaxUploadSize = 5 << 20

var (
	ErrEmptyFile       = errors.New("file is empty")
	ErrFileTooLarge    = errors.New("file exceeds the 5 MB limit")
	ErrUnsupportedType = errors.New("unsupported file type, allowed types are jpeg, png, gif and webp")
)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

func (u Upload) Validate() error {
	if u.Size <= 0 || u.Body == nil {
		return ErrEmptyFile
	}
	if u.Size > MaxUploadSize {
		return ErrFileTooLarge
	}
	if _, ok := extensions[u.mediaType()]; !ok {
		return ErrUnsupportedType
	}
	return nil
}

func (u Upload) mediaType() string {
	mediaType, _, err := mime.ParseMediaType(u.ContentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(mediaType)
}

// Asset is a stored object. PublicID is the object key and is what Delete
// expects.
type Asset struct {
	URL      string
	PublicID string
}

type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Client stores avatars on S3 compatible storage.
type Client struct {
	api    objectAPI
	cfg    config.MediaConfig
	newKey func() string
}

func NewClient(ctx context.Context, cfg config.MediaConfig) (*Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	api := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return newClient(api, cfg), nil
}

func newClient(api objectAPI, cfg config.MediaConfig) *Client {
	return &Client{api: api, cfg: cfg, newKey: uuid.NewString}
}

func (c *Client) Upload(ctx context.Context, upload Upload) (*Asset, error) {
	if err := upload.Validate(); err != nil {
		return nil, err
	}

	mediaType := upload.mediaType()
	key := path.Join(c.cfg.Folder, c.newKey()+extensions[mediaType])

	_, err := c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.cfg.Bucket),
		Key:           aws.String(key),
		Body:          upload.Body,
		ContentType:   aws.String(mediaType),
		ContentLength: aws.Int64(upload.Size),
	})
	if err != nil {
		return nil, fmt.Errorf("put object %s: %w", key, err)
	}

	return &Asset{URL: c.objectURL(key), PublicID: key}, nil
}

func (c *Client) Delete(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	_, err := c.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", publicID, err)
	}
	return nil
}

func (c *Client) objectURL(key string) string {
	switch {
	case c.cfg.PublicBaseURL != "":
		return c.cfg.PublicBaseURL + "/" + key
	case c.cfg.Endpoint != "":
		return strings.TrimRight(c.cfg.Endpoint, "/") + "/" + c.cfg.Bucket + "/" + key
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.cfg.Bucket, c.cfg.Region, key)
	}
}
