// Package blobstore abstracts where table files live.
//
// A BlobStore maps table names such as "L0/000042.sct" to immutable blobs.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, blobs are memory-mapped
//   - MemoryStore: in-process map, for tests and tooling
//   - s3.Store: Amazon S3 with ranged reads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible services
//
// Blobs that can expose their contents without copying implement Mappable.
package blobstore
