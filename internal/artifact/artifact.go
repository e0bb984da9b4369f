// Venturescope - Business Opportunity Analytics and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/venturescope

// Package artifact persists the frozen parameters the engine loads at init:
// the feature codec state and both model parameter sets.
//
// Artifacts are gob-encoded, gzip-compressed and carry metadata with a
// SHA-256 checksum of the compressed payload. Load verifies the checksum
// before decoding; any mismatch, truncation or missing file is surfaced as
// an error the caller treats as fatal at startup. Writes go through a
// temporary file and rename so a crash never leaves a half-written artifact
// in place.
package artifact

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Artifact kinds.
const (
	KindCodec = "codec"
	KindModel = "model"
)

var (
	// ErrMissing indicates the artifact file does not exist.
	ErrMissing = errors.New("artifact: file not found")

	// ErrCorrupt indicates the artifact failed checksum or decode.
	ErrCorrupt = errors.New("artifact: corrupt or truncated")
)

// Metadata describes a stored artifact.
type Metadata struct {
	// Name identifies the artifact (e.g. "demand", "competition", "codec").
	Name string `json:"name"`

	// Kind is KindCodec or KindModel.
	Kind string `json:"kind"`

	// CreatedAt is when the artifact was written.
	CreatedAt time.Time `json:"created_at"`

	// CodecFingerprint ties the artifact to the codec generation it was
	// produced with.
	CodecFingerprint string `json:"codec_fingerprint"`

	// RecordCount is the number of catalog records behind the artifact.
	RecordCount int `json:"record_count"`

	// Checksum is the SHA-256 of the compressed payload, hex-encoded.
	Checksum string `json:"checksum"`

	// SizeBytes is the compressed payload size.
	SizeBytes int64 `json:"size_bytes"`
}

// envelope is the on-disk representation.
type envelope struct {
	Metadata Metadata
	Payload  []byte
}

// Save writes payload with meta to path. Checksum, size and timestamp are
// filled in here; the caller provides the rest.
func Save(path string, meta Metadata, payload any) error {
	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(payload); err != nil {
		return fmt.Errorf("artifact: encode payload: %w", err)
	}

	var compressed bytes.Buffer
	zw := gzip.NewWriter(&compressed)
	if _, err := zw.Write(raw.Bytes()); err != nil {
		return fmt.Errorf("artifact: compress payload: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("artifact: compress payload: %w", err)
	}

	sum := sha256.Sum256(compressed.Bytes())
	meta.Checksum = hex.EncodeToString(sum[:])
	meta.SizeBytes = int64(compressed.Len())
	meta.CreatedAt = time.Now().UTC()

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("artifact: create directory: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o640) //nolint:gosec // artifact files are not secrets
	if err != nil {
		return fmt.Errorf("artifact: create %s: %w", tmp, err)
	}

	enc := gob.NewEncoder(f)
	if err := enc.Encode(envelope{Metadata: meta, Payload: compressed.Bytes()}); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("artifact: write %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("artifact: close %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("artifact: rename %s: %w", tmp, err)
	}
	return nil
}

// Load reads the artifact at path into payload, verifying the checksum
// first. The returned metadata lets the caller check kind and codec
// fingerprint compatibility.
func Load(path string, payload any) (Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Metadata{}, fmt.Errorf("%w: %s", ErrMissing, path)
		}
		return Metadata{}, fmt.Errorf("artifact: open %s: %w", path, err)
	}
	defer f.Close()

	var env envelope
	if err := gob.NewDecoder(f).Decode(&env); err != nil {
		return Metadata{}, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}

	sum := sha256.Sum256(env.Payload)
	if hex.EncodeToString(sum[:]) != env.Metadata.Checksum {
		return Metadata{}, fmt.Errorf("%w: %s: checksum mismatch", ErrCorrupt, path)
	}

	zr, err := gzip.NewReader(bytes.NewReader(env.Payload))
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	raw, err := io.ReadAll(zr)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	if err := zr.Close(); err != nil {
		return Metadata{}, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}

	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(payload); err != nil {
		return Metadata{}, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}

	return env.Metadata, nil
}
