// Package storage is the asset store backend: objects go to an
// S3-compatible bucket and are served from a public base URL.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// ObjectPutter is the part of *s3.Client the store uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Options configures NewS3Store.
type Options struct {
	Bucket        string
	Region        string
	User          string
	Password      string
	BaseEndpoint  string
	PublicBaseURL string
}

// PutRequest describes one asset to store.
type PutRequest struct {
	FileName    string
	Folder      string
	Unique      bool
	ContentType string
	Checksum    string
	Data        []byte
}

// Object is a stored asset.
type Object struct {
	ID   string
	Key  string
	Name string
	URL  string
}

type S3Store struct {
	client     ObjectPutter
	bucket     string
	publicBase string
	newID      func() string
}

// NewS3Store builds a store over a static-credential S3 client. Path-style
// addressing keeps it working against MinIO.
func NewS3Store(ctx context.Context, o Options) (*S3Store, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(o.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(o.User, o.Password, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(so *s3.Options) {
		if o.BaseEndpoint != "" {
			so.BaseEndpoint = aws.String(o.BaseEndpoint)
		}
		so.UsePathStyle = true
	})

	return NewWithClient(client, o.Bucket, o.PublicBaseURL), nil
}

func NewWithClient(client ObjectPutter, bucket, publicBaseURL string) *S3Store {
	return &S3Store{
		client:     client,
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBaseURL, "/"),
		newID:      uuid.NewString,
	}
}

// Put writes the asset and returns where it can be fetched from.
func (s *S3Store) Put(ctx context.Context, r PutRequest) (Object, error) {
	id := s.newID()
	name := StoredName(r.FileName, r.Unique, shortID(id))
	key := BuildKey(r.Folder, name)

	in := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(r.Data),
		ContentLength: aws.Int64(int64(len(r.Data))),
		ContentType:   aws.String(r.ContentType),
		Metadata: map[string]string{
			"file-id":       id,
			"original-name": url.QueryEscape(r.FileName),
		},
	}
	if r.Checksum != "" {
		in.Metadata["blake2b"] = r.Checksum
	}

	if _, err := s.client.PutObject(ctx, in); err != nil {
		return Object{}, fmt.Errorf("put object %s: %w", key, err)
	}

	return Object{ID: id, Key: key, Name: name, URL: s.URL(key)}, nil
}

// URL is the public address of key.
func (s *S3Store) URL(key string) string {
	segs := strings.Split(key, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return s.publicBase + "/" + strings.Join(segs, "/")
}

func shortID(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
