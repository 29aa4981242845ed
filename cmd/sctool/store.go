package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	flag "github.com/spf13/pflag"

	"github.com/hupe1980/sctable/blobstore"
	minioblob "github.com/hupe1980/sctable/blobstore/minio"
	s3blob "github.com/hupe1980/sctable/blobstore/s3"
)

type storeFlags struct {
	kind      string
	root      string
	bucket    string
	prefix    string
	region    string
	endpoint  string
	accessKey string
	secretKey string
	insecure  bool
}

func (f *storeFlags) register(fs *flag.FlagSet, getenv func(string) string) {
	fs.StringVar(&f.kind, "store", "local", "Backend: local, s3 or minio")
	fs.StringVar(&f.root, "root", ".", "Directory of the local store")
	fs.StringVar(&f.bucket, "bucket", "", "Bucket for s3 and minio")
	fs.StringVar(&f.prefix, "prefix", "", "Key prefix inside the bucket")
	fs.StringVar(&f.region, "region", getenv("AWS_REGION"), "AWS region")
	fs.StringVar(&f.endpoint, "endpoint", getenv("MINIO_ENDPOINT"), "MinIO endpoint host:port")
	fs.StringVar(&f.accessKey, "access-key", getenv("MINIO_ACCESS_KEY"), "MinIO access key")
	fs.StringVar(&f.secretKey, "secret-key", getenv("MINIO_SECRET_KEY"), "MinIO secret key")
	fs.BoolVar(&f.insecure, "insecure", false, "Use plain HTTP for MinIO")
}

func (f *storeFlags) open(ctx context.Context) (blobstore.BlobStore, error) {
	switch f.kind {
	case "local":
		return blobstore.NewLocalStore(f.root), nil
	case "s3":
		if f.bucket == "" {
			return nil, fmt.Errorf("%w: --bucket is required for s3", errUsage)
		}
		var optFns []func(*config.LoadOptions) error
		if f.region != "" {
			optFns = append(optFns, config.WithRegion(f.region))
		}
		cfg, err := config.LoadDefaultConfig(ctx, optFns...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		client := awss3.NewFromConfig(cfg, func(o *awss3.Options) {
			o.RetryMaxAttempts = 5
		})
		return s3blob.NewStore(client, f.bucket, f.prefix), nil
	case "minio":
		if f.bucket == "" || f.endpoint == "" {
			return nil, fmt.Errorf("%w: --bucket and --endpoint are required for minio", errUsage)
		}
		client, err := minio.New(f.endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(f.accessKey, f.secretKey, ""),
			Secure: !f.insecure,
			Region: f.region,
		})
		if err != nil {
			return nil, err
		}
		return minioblob.NewStore(client, f.bucket, f.prefix), nil
	}
	return nil, fmt.Errorf("%w: unknown store %q", errUsage, f.kind)
}
