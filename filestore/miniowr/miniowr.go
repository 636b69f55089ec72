// Package miniowr provides a MinIO implementation of the filestore.FileStore interface.
package miniowr

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/code19m/errx"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/rise-and-shine/thumbnails/apperr"
	"github.com/rise-and-shine/thumbnails/filestore"
	"github.com/rise-and-shine/thumbnails/logger"
	"github.com/rise-and-shine/thumbnails/result"
)

const (
	codeNoSuchKey    = "NoSuchKey"
	codeNoSuchBucket = "NoSuchBucket"
)

// isMissing reports whether err means the object or its bucket does not exist.
func isMissing(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case codeNoSuchKey, codeNoSuchBucket:
		return true
	}
	return false
}

// Client implements the filestore.FileStore interface using MinIO.
type Client struct {
	client *minio.Client
	bucket string
	region string
	log    logger.Logger
}

var _ filestore.FileStore = (*Client)(nil)

// New creates a new MinIO filestore client.
func New(cfg Config, log logger.Logger) (*Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errx.Wrap(err)
	}

	return &Client{
		client: client,
		bucket: cfg.Bucket,
		region: cfg.Region,
		log:    log.Named("minio_store"),
	}, nil
}

// EnsureBucket creates the configured bucket when it does not exist.
func (c *Client) EnsureBucket(ctx context.Context) result.Result[struct{}] {
	return result.Do(ctx, func(ctx context.Context) (struct{}, error) {
		exists, err := c.client.BucketExists(ctx, c.bucket)
		if err != nil || exists {
			return struct{}{}, err
		}
		return struct{}{}, c.client.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{Region: c.region})
	}, c.storageErr("Failed to ensure bucket", ""))
}

func (c *Client) Upload(ctx context.Context, path string, reader io.Reader) result.Result[*filestore.FileInfo] {
	return result.Do(ctx, func(ctx context.Context) (*filestore.FileInfo, error) {
		data, err := io.ReadAll(reader)
		if err != nil {
			return nil, err
		}

		contentType := http.DetectContentType(data)
		if contentType == filestore.ContentTypeOctetStream {
			contentType = filestore.ContentTypeByExt(path)
		}

		info, err := c.client.PutObject(ctx, c.bucket, path, bytes.NewReader(data), int64(len(data)),
			minio.PutObjectOptions{ContentType: contentType},
		)
		if err != nil {
			return nil, err
		}

		return &filestore.FileInfo{
			Path:         path,
			Size:         info.Size,
			ContentType:  contentType,
			ETag:         info.ETag,
			LastModified: info.LastModified,
		}, nil
	}, c.storageErr("Failed to upload file", path))
}

func (c *Client) Download(ctx context.Context, path string) result.Result[[]byte] {
	return result.FlatMap(c.Exists(ctx, path), func(exists bool) result.Result[[]byte] {
		if !exists {
			return result.Err[[]byte](filestore.NotFound(path))
		}

		return result.Do(ctx, func(ctx context.Context) ([]byte, error) {
			obj, err := c.client.GetObject(ctx, c.bucket, path, minio.GetObjectOptions{})
			if err != nil {
				return nil, err
			}
			defer obj.Close()

			return io.ReadAll(obj)
		}, c.storageErr("Failed to download file", path))
	})
}

func (c *Client) Delete(ctx context.Context, path string) result.Result[struct{}] {
	return result.Do(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.client.RemoveObject(ctx, c.bucket, path, minio.RemoveObjectOptions{})
	}, c.storageErr("Failed to delete file", path))
}

func (c *Client) Exists(ctx context.Context, path string) result.Result[bool] {
	return result.Do(ctx, func(ctx context.Context) (bool, error) {
		_, err := c.client.StatObject(ctx, c.bucket, path, minio.StatObjectOptions{})
		if err != nil {
			if isMissing(err) {
				return false, nil
			}
			return false, err
		}
		return true, nil
	}, c.storageErr("Failed to check file existence", path))
}

func (c *Client) List(ctx context.Context, prefix string) result.Result[[]filestore.FileInfo] {
	return result.Do(ctx, func(ctx context.Context) ([]filestore.FileInfo, error) {
		files := make([]filestore.FileInfo, 0)
		for obj := range c.client.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{
			Prefix:    prefix,
			Recursive: true,
		}) {
			if obj.Err != nil {
				return nil, obj.Err
			}
			files = append(files, filestore.FileInfo{
				Path:         obj.Key,
				Size:         obj.Size,
				ContentType:  obj.ContentType,
				ETag:         obj.ETag,
				LastModified: obj.LastModified,
			})
		}
		return files, nil
	}, c.storageErr("Failed to list files", prefix))
}

func (c *Client) storageErr(msg, path string) func(error) error {
	return func(err error) error {
		details := errx.D{"bucket": c.bucket}
		if path != "" {
			details["path"] = path
		}
		e := apperr.Storage(msg, err, details)
		c.log.Errorx(e)
		return e
	}
}
