// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	store := s3.NewStore(awss3.NewFromConfig(cfg), "my-bucket", "tables/")
//
// # Features
//
//   - Ranged GETs for reads
//   - Multipart uploads with CRC32C checksums for large tables
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
