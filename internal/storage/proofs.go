package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ProofStore persists uploaded proof-of-payment files and returns a
// URL path the admin UI can fetch them from.
type ProofStore interface {
	Save(ctx context.Context, signupID int64, filename string, r io.Reader) (string, error)
}

type fsProofStore struct {
	dir string
}

func NewFSProofStore(dir string) (ProofStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create proof dir: %w", err)
	}
	return &fsProofStore{dir: dir}, nil
}

func (s *fsProofStore) Save(ctx context.Context, signupID int64, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".pdf":
	default:
		return "", fmt.Errorf("unsupported proof file type %q", ext)
	}

	name := fmt.Sprintf("%d-%s%s", signupID, uuid.NewString(), ext)
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create proof file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write proof file: %w", err)
	}

	return "/uploads/payment-proofs/" + name, nil
}
