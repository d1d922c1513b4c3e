package repositories

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"certgen/internal/logger"
)

// CertificateRepository stores one artifact per certificate id as
// {id}.{ext}. Writes overwrite; concurrent writers to the same id race and the
// last one wins.
type CertificateRepository interface {
	Save(ctx context.Context, id string, data []byte) (string, error)
	Path(id string) (string, error)
	Exists(ctx context.Context, id string) (bool, error)
	Read(ctx context.Context, id string) ([]byte, error)
	Extension() string
}

type certificateRepository struct {
	dir string
	ext string
	log logger.Logger
}

func NewCertificate(dir, ext string) (CertificateRepository, error) {
	log := logger.New("certificateRepository")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, log.Function("NewCertificate").Err("failed to create certificate directory", err, "dir", dir)
	}

	return &certificateRepository{
		dir: dir,
		ext: ext,
		log: log,
	}, nil
}

func (r *certificateRepository) Extension() string {
	return r.ext
}

func (r *certificateRepository) Path(id string) (string, error) {
	if err := validateID(id); err != nil {
		return "", err
	}
	return filepath.Join(r.dir, id+"."+r.ext), nil
}

func (r *certificateRepository) Save(ctx context.Context, id string, data []byte) (string, error) {
	log := r.log.Function("Save")

	path, err := r.Path(id)
	if err != nil {
		return "", log.Err("refusing to save certificate", err, "id", id)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", log.Err("failed to write certificate", err, "path", path)
	}

	log.Debug("certificate saved", "id", id, "path", path, "bytes", len(data))
	return path, nil
}

func (r *certificateRepository) Exists(ctx context.Context, id string) (bool, error) {
	path, err := r.Path(id)
	if err != nil {
		return false, nil
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, r.log.Function("Exists").Err("failed to stat certificate", err, "path", path)
	}
	return info.Mode().IsRegular(), nil
}

func (r *certificateRepository) Read(ctx context.Context, id string) ([]byte, error) {
	path, err := r.Path(id)
	if err != nil {
		return nil, ErrNotFound
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, r.log.Function("Read").Err("failed to read certificate", err, "path", path)
	}
	return data, nil
}
