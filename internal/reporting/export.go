package reporting

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"defi-cohort-lab/internal/domain"
	"defi-cohort-lab/internal/tables"
)

// ReportFile is the name of the Markdown summary written by Export.
const ReportFile = "REPORT.md"

// DataVersion hashes the CSV rendering of every output table.
// Identical snapshots always produce the same version.
func DataVersion(snap *domain.Snapshot) (string, error) {
	h := sha256.New()
	for _, t := range tables.FromSnapshot(snap) {
		h.Write([]byte(t.Name + "\n"))
		if err := WriteCSV(h, t); err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil))[:12], nil // short hash
}

// Export writes one CSV and one Parquet file per table plus REPORT.md into dir,
// replacing any previous export. Returns the paths written.
func Export(dir string, run *domain.PipelineRun, snap *domain.Snapshot) ([]string, error) {
	staged, err := StageExport(dir, run, snap)
	if err != nil {
		return nil, err
	}
	return staged.Commit()
}

// StagedExport is a complete export rendered next to its target directory.
// Nothing in the target changes until Commit.
type StagedExport struct {
	dir     string
	staging string
	files   []string
}

// StageExport renders every export file into a hidden sibling of dir.
// A failure removes the staging directory and leaves dir untouched.
func StageExport(dir string, run *domain.PipelineRun, snap *domain.Snapshot) (*StagedExport, error) {
	dir = filepath.Clean(dir)
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		return nil, fmt.Errorf("export path %s is not a directory", dir)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("stat export dir: %w", err)
	}

	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, fmt.Errorf("create export parent: %w", err)
	}
	staging, err := os.MkdirTemp(parent, "."+filepath.Base(dir)+"-staging-")
	if err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	if err := os.Chmod(staging, 0o755); err != nil {
		os.RemoveAll(staging)
		return nil, fmt.Errorf("chmod staging dir: %w", err)
	}

	s := &StagedExport{dir: dir, staging: staging}
	if err := s.render(run, snap); err != nil {
		os.RemoveAll(staging)
		return nil, err
	}
	return s, nil
}

func (s *StagedExport) render(run *domain.PipelineRun, snap *domain.Snapshot) error {
	for _, t := range tables.FromSnapshot(snap) {
		var csvBuf bytes.Buffer
		if err := WriteCSV(&csvBuf, t); err != nil {
			return err
		}
		if err := s.write(t.Name+".csv", csvBuf.Bytes()); err != nil {
			return err
		}

		var pqBuf bytes.Buffer
		if err := WriteParquet(&pqBuf, t); err != nil {
			return err
		}
		if err := s.write(t.Name+".parquet", pqBuf.Bytes()); err != nil {
			return err
		}
	}
	return s.write(ReportFile, []byte(RenderMarkdown(run, snap)))
}

func (s *StagedExport) write(name string, data []byte) error {
	path := filepath.Join(s.staging, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	s.files = append(s.files, name)
	return nil
}

// Commit swaps the staged directory into place and removes the previous export.
// If the swap fails the previous export is restored.
func (s *StagedExport) Commit() ([]string, error) {
	var previous string
	if _, err := os.Stat(s.dir); err == nil {
		previous = s.staging + ".prev"
		if err := os.Rename(s.dir, previous); err != nil {
			s.Discard()
			return nil, fmt.Errorf("move previous export aside: %w", err)
		}
	}

	if err := os.Rename(s.staging, s.dir); err != nil {
		if previous != "" {
			_ = os.Rename(previous, s.dir)
		}
		s.Discard()
		return nil, fmt.Errorf("swap export dir: %w", err)
	}
	if previous != "" {
		os.RemoveAll(previous)
	}

	written := make([]string, len(s.files))
	for i, name := range s.files {
		written[i] = filepath.Join(s.dir, name)
	}
	return written, nil
}

// Discard removes the staged files. The target directory is not touched.
func (s *StagedExport) Discard() {
	os.RemoveAll(s.staging)
}
