// Package s3 implements the (bonus) S3 storage backend, built on the
// teacher repository's own aws-sdk-go dependency.
package s3

import (
	"bytes"
	"context"
	"io/ioutil"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/grailbio/sketch/errs"
	"github.com/grailbio/sketch/storage"
)

func init() {
	storage.Register("s3", newFromArgs)
}

// Backend stores blobs as objects under a bucket/prefix.
type Backend struct {
	Bucket string
	Prefix string
	Region string

	client *s3.S3
}

// New returns an S3 backend for the given bucket/prefix/region.
func New(bucket, prefix, region string) (*Backend, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, errs.E(errs.StorageFailure, "creating AWS session", err)
	}
	return &Backend{Bucket: bucket, Prefix: prefix, Region: region, client: s3.New(sess)}, nil
}

func newFromArgs(args map[string]interface{}) (storage.Backend, error) {
	bucket, _ := args["bucket"].(string)
	if bucket == "" {
		return nil, errs.E(errs.InvalidInput, "s3 backend requires a \"bucket\" arg")
	}
	prefix, _ := args["prefix"].(string)
	region, _ := args["region"].(string)
	return New(bucket, prefix, region)
}

func (b *Backend) key(path string) string {
	if b.Prefix == "" {
		return path
	}
	return b.Prefix + "/" + path
}

// Save implements storage.Backend.
func (b *Backend) Save(ctx context.Context, path string, data []byte) (string, error) {
	key := b.key(path)
	_, err := b.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(b.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return "", errs.E(errs.StorageFailure, "putting s3://%s/%s", b.Bucket, key, err)
	}
	return path, nil
}

// Load implements storage.Backend.
func (b *Backend) Load(ctx context.Context, path string) ([]byte, error) {
	key := b.key(path)
	out, err := b.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errs.E(errs.StorageFailure, "getting s3://%s/%s", b.Bucket, key, err)
	}
	defer out.Body.Close()
	data, err := ioutil.ReadAll(out.Body)
	if err != nil {
		return nil, errs.E(errs.StorageFailure, "reading s3://%s/%s", b.Bucket, key, err)
	}
	return data, nil
}

// InitArgs implements storage.Backend.
func (b *Backend) InitArgs() map[string]interface{} {
	return map[string]interface{}{"bucket": b.Bucket, "prefix": b.Prefix, "region": b.Region}
}
