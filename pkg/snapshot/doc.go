// Package snapshot writes the managed remote catalog to a JSON document.
//
// A Document carries the products and prices owned by this tool together
// with the environment, owner and generation time. It is written to a Sink:
// FileSink for a local path, S3Sink for an S3 (or S3-compatible) bucket.
//
//	dest, _ := snapshot.ParseDestination("s3://backups/catalog/", "production", time.Now())
//	sink, _ := snapshot.NewSink(ctx, dest, s3cfg)
//	err := snapshot.Export(ctx, sink, snapshot.NewDocument(snap, "production", "catalogsync", time.Now()))
//
// A destination ending in "/" is a directory; the file name becomes
// catalog-<env>-<timestamp>.json.
//
// # Sinks
//
// FileSink creates missing directories and replaces the target through a
// sibling temp file, so readers never see a half-written document.
//
// S3Sink uploads the document with a single PutObject. Tests and callers with
// their own client pass it through WithS3Client; anything satisfying the
// S3Client interface works. Endpoint and ForcePathStyle point the sink at
// S3-compatible services such as MinIO.
//
// # Configuration
//
// S3Config is read from SNAPSHOT_S3_BUCKET, SNAPSHOT_S3_REGION,
// SNAPSHOT_S3_ACCESS_KEY_ID, SNAPSHOT_S3_SECRET_KEY, SNAPSHOT_S3_ENDPOINT,
// SNAPSHOT_S3_FORCE_PATH_STYLE and SNAPSHOT_S3_UPLOAD_TIMEOUT. A bucket named
// in the destination URL wins over SNAPSHOT_S3_BUCKET.
//
// # Errors
//
// Write failures wrap ErrFailedToWrite. S3 failures are additionally
// classified as ErrBucketNotFound, ErrAccessDenied, ErrServiceUnavailable,
// ErrOperationTimeout or ErrOperationCanceled when the cause is recognised:
//
//	if errors.Is(err, snapshot.ErrAccessDenied) {
//		// check the bucket policy
//	}
package snapshot
