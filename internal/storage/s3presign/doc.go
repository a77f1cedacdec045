// Package s3presign signs upload URLs locally against an S3-compatible
// bucket. It stands in for the backend's presigned-URL endpoint on
// self-hosted deployments where files land in a bucket the caller controls.
package s3presign
