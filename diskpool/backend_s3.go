/*
Copyright (C) 2026  Carl-Philip Hänsch

    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
package diskpool

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Backend stores each slot as one object, keyed by slot id. Grounded on
// the teacher's S3Storage persistence path (storage/persistence-s3.go):
// one object per unit of storage, bucket/prefix configured once at
// startup, context-bounded calls.
type S3Backend struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Backend wraps an already-configured *s3.Client (loaded the usual
// aws-sdk-go-v2 way, via config.LoadDefaultConfig) for use as a diskpool
// Backend.
func NewS3Backend(client *s3.Client, bucket, prefix string) *S3Backend {
	return &S3Backend{client: client, bucket: bucket, prefix: prefix}
}

func (b *S3Backend) key(id SlotID) string {
	return fmt.Sprintf("%sslot-%010d.bin", b.prefix, id)
}

// WriteSlot uploads payload as slot id's object, replacing any prior
// content — S3 PutObject is already an atomic replace from the reader's
// point of view.
func (b *S3Backend) WriteSlot(id SlotID, payload []byte) error {
	_, err := b.client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(id)),
		Body:   bytes.NewReader(payload),
	})
	if err != nil {
		return fmt.Errorf("diskpool: s3 put slot %d: %w", id, err)
	}
	return nil
}

// ReadSlot downloads slot id's object.
func (b *S3Backend) ReadSlot(id SlotID) ([]byte, error) {
	out, err := b.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(id)),
	})
	if err != nil {
		return nil, fmt.Errorf("diskpool: s3 get slot %d: %w", id, err)
	}
	defer out.Body.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(out.Body); err != nil {
		return nil, fmt.Errorf("diskpool: s3 read slot %d: %w", id, err)
	}
	return buf.Bytes(), nil
}
