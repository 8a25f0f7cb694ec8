package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Service keeps media in Amazon S3 (or compatible APIs) under
// <prefix>/<class>/<name>.
type S3Service struct {
	client    *s3.Client
	uploader  *manager.Uploader
	bucket    string
	keyPrefix string
}

func NewS3Service(client *s3.Client, bucket, keyPrefix string) (*S3Service, error) {
	if bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}
	return &S3Service{
		client:    client,
		uploader:  manager.NewUploader(client),
		bucket:    bucket,
		keyPrefix: strings.Trim(keyPrefix, "/"),
	}, nil
}

func (s *S3Service) key(class Class, name string) string {
	if s.keyPrefix == "" {
		return string(class) + "/" + name
	}
	return s.keyPrefix + "/" + string(class) + "/" + name
}

func (s *S3Service) Save(ctx context.Context, class Class, originalName string, r io.Reader) (string, error) {
	name := GenerateName(originalName)
	key := s.key(class, name)

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentTypeFor(name)),
		ACL:         types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return name, nil
}

func (s *S3Service) Open(ctx context.Context, class Class, name string) (*Object, error) {
	if !validName(name) {
		return nil, ErrNotFound
	}

	key := s.key(class, name)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}

	contentType := aws.ToString(out.ContentType)
	if contentType == "" {
		contentType = contentTypeFor(name)
	}
	return &Object{
		Name:        name,
		Size:        aws.ToInt64(out.ContentLength),
		ContentType: contentType,
		Body:        out.Body,
	}, nil
}

func (s *S3Service) Delete(ctx context.Context, class Class, name string) error {
	if !validName(name) {
		return nil
	}
	key := s.key(class, name)
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

var _ Service = (*S3Service)(nil)
