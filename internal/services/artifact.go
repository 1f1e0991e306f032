package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/kavyp12/carrer-guide-new-one/internal/models"
)

// ArtifactStore persists report documents durably, keyed by submission ID.
// Put is idempotent: rewriting identical content returns the existing
// reference, rewriting different content is a *models.StorageConflictError.
type ArtifactStore interface {
	Put(doc *models.ReportDocument) (*models.ArtifactReference, error)
	Get(submissionID uuid.UUID) ([]byte, error)
}

type fileArtifactStore struct {
	root string
}

// NewFileArtifactStore stores one file per submission under root. Writes go
// through a temp file and rename, so a report is either fully stored or
// absent.
func NewFileArtifactStore(root string) (ArtifactStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return &fileArtifactStore{root: root}, nil
}

func (s *fileArtifactStore) path(submissionID uuid.UUID) string {
	return filepath.Join(s.root, submissionID.String()+".md")
}

func (s *fileArtifactStore) Put(doc *models.ReportDocument) (*models.ArtifactReference, error) {
	path := s.path(doc.SubmissionID)
	checksum := contentChecksum(doc.Content)

	if existing, err := os.ReadFile(path); err == nil {
		stored := contentChecksum(existing)
		if stored == checksum {
			return &models.ArtifactReference{
				SubmissionID: doc.SubmissionID,
				Location:     path,
				Checksum:     stored,
			}, nil
		}
		return nil, &models.StorageConflictError{
			SubmissionID: doc.SubmissionID.String(),
			Existing:     stored,
			Incoming:     checksum,
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read existing artifact: %w", err)
	}

	tmp, err := os.CreateTemp(s.root, "report-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp artifact: %w", err)
	}
	if _, err := tmp.Write(doc.Content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to close artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to finalize artifact: %w", err)
	}

	return &models.ArtifactReference{
		SubmissionID: doc.SubmissionID,
		Location:     path,
		Checksum:     checksum,
	}, nil
}

func (s *fileArtifactStore) Get(submissionID uuid.UUID) ([]byte, error) {
	content, err := os.ReadFile(s.path(submissionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	return content, nil
}

func contentChecksum(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
