// Package qr renders product tokens as QR images and stores them.
package qr

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/civoranexus/FSD117-PYxMAFIA/internal/common"
	qrcode "github.com/skip2/go-qrcode"
)

const imageSize = 256

// Renderer turns a token into a presentable artifact and returns its
// reference. Discard removes the artifact of a token that was never stored.
type Renderer interface {
	Render(ctx context.Context, token string) (string, error)
	Discard(ctx context.Context, token string) error
}

// encodePNG is a seam for tests.
var encodePNG = func(content string) ([]byte, error) {
	return qrcode.Encode(content, qrcode.Medium, imageSize)
}

// ObjectStore is the part of *s3.Client the renderer needs.
type ObjectStore interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Renderer encodes payloadPrefix+token and uploads the PNG to
// {bucket}/qrcodes/{token}.png. The returned reference is the public URL.
type S3Renderer struct {
	client        ObjectStore
	bucket        string
	publicBaseURL string
	payloadPrefix string
}

func NewS3Renderer(client ObjectStore, bucket, publicBaseURL, payloadPrefix string) *S3Renderer {
	return &S3Renderer{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		payloadPrefix: payloadPrefix,
	}
}

func ObjectKey(token string) string {
	return "qrcodes/" + token + ".png"
}

func (r *S3Renderer) Render(ctx context.Context, token string) (string, error) {
	png, err := encodePNG(r.payloadPrefix + token)
	if err != nil {
		return "", fmt.Errorf("%w: encode: %v", common.ErrRenderFailed, err)
	}

	key := ObjectKey(token)
	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(png),
		ContentLength: aws.Int64(int64(len(png))),
		ContentType:   aws.String("image/png"),
	})
	if err != nil {
		return "", fmt.Errorf("%w: upload: %v", common.ErrRenderFailed, err)
	}

	return fmt.Sprintf("%s/%s/%s", r.publicBaseURL, r.bucket, key), nil
}

func (r *S3Renderer) Discard(ctx context.Context, token string) error {
	_, err := r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(ObjectKey(token)),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", ObjectKey(token), err)
	}
	return nil
}

// InlineRenderer returns the PNG as a data URI. It needs no object storage
// and is used when S3 is not configured.
type InlineRenderer struct {
	PayloadPrefix string
}

func (r InlineRenderer) Render(_ context.Context, token string) (string, error) {
	png, err := encodePNG(r.PayloadPrefix + token)
	if err != nil {
		return "", fmt.Errorf("%w: encode: %v", common.ErrRenderFailed, err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// Discard is a no-op: nothing is stored outside the record.
func (InlineRenderer) Discard(context.Context, string) error { return nil }

// NewS3Client builds a path-style client for an S3-compatible endpoint
// (MinIO in development).
func NewS3Client(ctx context.Context, region, user, password, endpoint string) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(user, password, "")),
	)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = true
	}), nil
}
