// Package archive turns built binaries into release archives. Every
// archive contains exactly one file — the binary under its canonical
// name — so unpacking at any directory yields the binary directly there.
package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sofmeright/shipgate/src/build"
	"github.com/sofmeright/shipgate/src/config"
)

// Archives of the same binary must be byte-identical across runs, so all
// format timestamp fields are pinned instead of taken from the filesystem.
var epoch = time.Unix(0, 0)

// Package copies the built binary into a staging area under its canonical
// name and compresses it per the target's archive kind. The archive is
// written to destDir under the exact configured archive name.
//
// Only successful build results may be packaged; the caller skips this
// stage for failed targets rather than masking their failure.
func Package(result build.Result, destDir string) (Artifact, error) {
	if result.Status != build.StatusSuccess {
		return Artifact{}, fmt.Errorf("packaging %s: build did not succeed", result.Target.Name)
	}

	target := result.Target
	kind := target.ArchiveKind()

	binName := target.Binary
	if kind == config.ArchiveZip {
		// Windows-family archives carry the platform's executable suffix.
		binName += ".exe"
	}

	staging, err := os.MkdirTemp("", "shipgate-stage-"+target.Name+"-*")
	if err != nil {
		return Artifact{}, fmt.Errorf("packaging %s: %w", target.Name, err)
	}
	defer os.RemoveAll(staging)

	staged := filepath.Join(staging, binName)
	if err := copyFile(result.BinaryPath, staged); err != nil {
		return Artifact{}, fmt.Errorf("packaging %s: staging binary: %w", target.Name, err)
	}

	archivePath := filepath.Join(destDir, target.Archive)
	switch kind {
	case config.ArchiveTarGz:
		err = writeTarGz(archivePath, staged, binName)
	case config.ArchiveZip:
		err = writeZip(archivePath, staged, binName)
	default:
		err = fmt.Errorf("unsupported archive name %q", target.Archive)
	}
	if err != nil {
		// Never leave a partial archive behind for the publisher to find.
		os.Remove(archivePath)
		return Artifact{}, fmt.Errorf("packaging %s: %w", target.Name, err)
	}

	info, err := os.Stat(archivePath)
	if err != nil {
		return Artifact{}, fmt.Errorf("packaging %s: %w", target.Name, err)
	}

	return Artifact{Target: target, Path: archivePath, SizeBytes: info.Size()}, nil
}

// writeTarGz writes a gzip-compressed tar holding the single staged binary.
func writeTarGz(dest, staged, binName string) error {
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewWriterLevel(f, gzip.BestCompression)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(gz)

	info, err := os.Stat(staged)
	if err != nil {
		return err
	}

	hdr := &tar.Header{
		Name:    binName,
		Mode:    0o755,
		Size:    info.Size(),
		ModTime: epoch,
		Format:  tar.FormatUSTAR,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}

	src, err := os.Open(staged)
	if err != nil {
		return err
	}
	defer src.Close()

	if _, err := io.Copy(tw, src); err != nil {
		return err
	}
	if err := tw.Close(); err != nil {
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}
	return f.Close()
}

// writeZip writes a zip holding the single staged binary.
func writeZip(dest, staged, binName string) error {
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	hdr := &zip.FileHeader{
		Name:     binName,
		Method:   zip.Deflate,
		Modified: epoch,
	}
	hdr.SetMode(0o755)

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}

	src, err := os.Open(staged)
	if err != nil {
		return err
	}
	defer src.Close()

	if _, err := io.Copy(w, src); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return f.Close()
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o755)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
