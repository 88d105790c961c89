// uploader publishes muxed episodes to an S3 bucket using the AWS v1
// SDK.
package uploader

import (
	"context"
	"errors"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/gabriel-vasile/mimetype"
	"github.com/sa6mwa/funidl/internal/app/humanreadable"
	"github.com/sa6mwa/funidl/internal/app/model"
	"github.com/sa6mwa/funidl/internal/app/ports"
	"github.com/sa6mwa/funidl/internal/infra/adapters/logger"
)

var (
	ErrNilPointerRequest error = errors.New("received nil pointer as request")
	ErrFilenameMissing   error = errors.New("empty or missing filename given")
	ErrBucketMissing     error = errors.New("no bucket to upload to")
)

type forUploading struct {
	s3       s3iface.S3API
	uploader s3manageriface.UploaderAPI
}

// New returns an uploader for the profile and region in cfg.
func New(cfg model.AwsConfig) ports.ForUploading {
	s := session.Must(session.NewSessionWithOptions(session.Options{
		Profile: cfg.Profile,
		Config: aws.Config{
			Region: aws.String(cfg.Region),
		},
	}))
	return &forUploading{
		s3:       s3.New(s),
		uploader: s3manager.NewUploader(s),
	}
}

func getContentType(filename string) (contentType string, err error) {
	mimetype.SetLimit(1024 * 1024)
	mimeType, err := mimetype.DetectFile(filename)
	if err != nil {
		return "", err
	}
	return mimeType.String(), nil
}

// remoteSize returns the size of key in bucket or ports.ErrNotFound.
func (u *forUploading) remoteSize(ctx context.Context, bucket, key string) (int64, error) {
	result, err := u.s3.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var awsErr awserr.Error
		if errors.As(err, &awsErr) {
			switch awsErr.Code() {
			case "NotFound", "NoSuchKey":
				return 0, ports.ErrNotFound
			}
		}
		return 0, err
	}
	return aws.Int64Value(result.ContentLength), nil
}

// Upload r.From as r.To to the bucket in r.Store. An object of the
// same size already in the bucket is left alone. If ContentType is
// empty it is detected from the file.
func (u *forUploading) Upload(ctx context.Context, r *ports.ForUploadingRequest) error {
	l := logger.FromContext(ctx)
	if r == nil {
		return ErrNilPointerRequest
	}
	if strings.TrimSpace(r.From) == "" {
		return ErrFilenameMissing
	}
	if strings.TrimSpace(r.Store) == "" {
		return ErrBucketMissing
	}
	if strings.TrimSpace(r.To) == "" {
		r.To = path.Base(r.From)
	}
	if r.StorageClass == "" {
		r.StorageClass = "STANDARD"
	}
	fi, err := os.Stat(r.From)
	if err != nil {
		return err
	}
	if strings.TrimSpace(r.ContentType) == "" {
		r.ContentType, err = getContentType(r.From)
		if err != nil {
			return err
		}
	}

	s3path := "s3://" + path.Join(r.Store, r.To)
	size, err := u.remoteSize(ctx, r.Store, r.To)
	switch {
	case err == nil && size == fi.Size():
		l.Info("Already uploaded", "location", s3path, "size", humanreadable.IEC(size))
		return nil
	case err != nil && !errors.Is(err, ports.ErrNotFound):
		return err
	}

	l.Info("Uploading to S3", "file", r.From, "to", s3path, "storageClass", r.StorageClass, "contentType", r.ContentType, "size", fi.Size(), "humanSize", humanreadable.IEC(fi.Size()))
	f, err := os.Open(r.From)
	if err != nil {
		return err
	}
	defer f.Close()
	result, err := u.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:       aws.String(r.Store),
		Key:          aws.String(r.To),
		ContentType:  aws.String(r.ContentType),
		Body:         f,
		StorageClass: aws.String(r.StorageClass),
	})
	if err != nil {
		return err
	}
	l.Info("Upload succeeded", "location", result.Location)
	return nil
}
