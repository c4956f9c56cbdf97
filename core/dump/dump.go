// Package dump writes loader output (serialized IFC text or the raw
// tape) to disk as a compressed tar artifact with a hash manifest, and
// reads such artifacts back with integrity verification.
package dump

import (
	"archive/tar"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	"github.com/vegarringdal/web-ifc/core/errors"
)

// CompressionType specifies the compression algorithm for dump archives.
type CompressionType string

const (
	// CompressionXZ uses XZ/LZMA2 compression (default, best ratio).
	CompressionXZ CompressionType = "xz"
	// CompressionGzip uses gzip compression (stdlib, faster).
	CompressionGzip CompressionType = "gzip"
)

// Format identifies what the archive payload is.
type Format string

const (
	// FormatIFC is serialized ISO-10303-21 text.
	FormatIFC Format = "ifc"
	// FormatTape is the raw binary token tape.
	FormatTape Format = "tape"
)

// manifestName is the tar entry carrying the manifest.
const manifestName = "manifest.json"

// Manifest records the payload identity of a dump archive.
type Manifest struct {
	Format      Format          `json:"format"`
	Compression CompressionType `json:"compression"`
	SHA256      string          `json:"sha256"`
	BLAKE3      string          `json:"blake3"`
	SizeBytes   int64           `json:"size_bytes"`
	NumLines    int             `json:"num_lines,omitempty"`
}

// Options configures dump writing.
type Options struct {
	// Compression specifies the algorithm. Defaults to XZ.
	Compression CompressionType
}

// DefaultOptions returns the default dump options (XZ compression).
func DefaultOptions() *Options {
	return &Options{Compression: CompressionXZ}
}

// payloadName returns the tar entry name for a format.
func payloadName(format Format) string {
	return "model." + string(format)
}

// Write stores data as a compressed archive at path and returns the
// manifest that was embedded alongside it.
func Write(path string, data []byte, format Format, numLines int, opts *Options) (*Manifest, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	compression := opts.Compression
	if compression == "" {
		compression = CompressionXZ
	}

	sum256 := sha256.Sum256(data)
	sumB3 := blake3.Sum256(data)
	manifest := &Manifest{
		Format:      format,
		Compression: compression,
		SHA256:      hex.EncodeToString(sum256[:]),
		BLAKE3:      hex.EncodeToString(sumB3[:]),
		SizeBytes:   int64(len(data)),
		NumLines:    numLines,
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, errors.NewIO("create", path, err)
	}
	defer file.Close()

	var compressWriter io.WriteCloser
	switch compression {
	case CompressionGzip:
		compressWriter, err = gzip.NewWriterLevel(file, gzip.BestCompression)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip writer: %w", err)
		}
	case CompressionXZ:
		compressWriter, err = xz.NewWriter(file)
		if err != nil {
			return nil, fmt.Errorf("failed to create xz writer: %w", err)
		}
	default:
		return nil, errors.NewUnsupported("compression", string(compression))
	}

	tarWriter := tar.NewWriter(compressWriter)

	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize manifest: %w", err)
	}
	if err := writeToTar(tarWriter, manifestName, manifestData); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := writeToTar(tarWriter, payloadName(format), data); err != nil {
		return nil, fmt.Errorf("failed to write payload: %w", err)
	}

	if err := tarWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish archive: %w", err)
	}
	if err := compressWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish compression: %w", err)
	}
	return manifest, nil
}

// DetectCompression detects the compression type of a dump archive from
// its magic bytes.
func DetectCompression(path string) (CompressionType, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", errors.NewIO("open", path, err)
	}
	defer file.Close()

	magic := make([]byte, 6)
	n, err := file.Read(magic)
	if err != nil {
		return "", errors.NewIO("read magic bytes", path, err)
	}
	if n < 2 {
		return "", errors.NewValidation("archive", "file too small to detect compression")
	}

	// gzip magic (1f 8b)
	if magic[0] == 0x1f && magic[1] == 0x8b {
		return CompressionGzip, nil
	}

	// XZ magic (fd 37 7a 58 5a 00)
	if n >= 6 && magic[0] == 0xfd && magic[1] == 0x37 && magic[2] == 0x7a &&
		magic[3] == 0x58 && magic[4] == 0x5a && magic[5] == 0x00 {
		return CompressionXZ, nil
	}

	return "", errors.NewUnsupported("compression format", "unknown magic bytes")
}

// Read opens a dump archive, verifies the payload against the embedded
// manifest hashes, and returns both.
func Read(path string) (*Manifest, []byte, error) {
	compression, err := DetectCompression(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to detect compression: %w", err)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.NewIO("open", path, err)
	}
	defer file.Close()

	var decompressReader io.Reader
	switch compression {
	case CompressionGzip:
		gzReader, err := gzip.NewReader(file)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gzReader.Close()
		decompressReader = gzReader
	case CompressionXZ:
		xzReader, err := xz.NewReader(file)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		decompressReader = xzReader
	}

	tarReader := tar.NewReader(decompressReader)

	var manifest *Manifest
	var payload []byte

	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read tar header: %w", err)
		}

		data, err := io.ReadAll(tarReader)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", header.Name, err)
		}

		if header.Name == manifestName {
			manifest = &Manifest{}
			if err := json.Unmarshal(data, manifest); err != nil {
				return nil, nil, errors.NewParse("manifest", -1, err.Error())
			}
		} else {
			payload = data
		}
	}

	if manifest == nil {
		return nil, nil, errors.NewNotFound("manifest", path)
	}
	if payload == nil {
		return nil, nil, errors.NewNotFound("payload", path)
	}

	sum256 := sha256.Sum256(payload)
	if hex.EncodeToString(sum256[:]) != manifest.SHA256 {
		return nil, nil, errors.NewValidation("sha256", "payload hash does not match manifest")
	}
	sumB3 := blake3.Sum256(payload)
	if hex.EncodeToString(sumB3[:]) != manifest.BLAKE3 {
		return nil, nil, errors.NewValidation("blake3", "payload hash does not match manifest")
	}

	return manifest, payload, nil
}

// HashContent returns the hex SHA-256 and BLAKE3 of a byte slice. The
// catalog keys models by these.
func HashContent(data []byte) (sha string, b3 string) {
	sum256 := sha256.Sum256(data)
	sumB3 := blake3.Sum256(data)
	return hex.EncodeToString(sum256[:]), hex.EncodeToString(sumB3[:])
}

// writeToTar writes one file entry to the tar archive.
func writeToTar(tw *tar.Writer, name string, data []byte) error {
	header := &tar.Header{
		Name: name,
		Mode: 0644,
		Size: int64(len(data)),
	}
	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	_, err := tw.Write(data)
	return err
}
