package repositories

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"certgen/internal/database"
	"certgen/internal/logger"
	. "certgen/internal/models"
)

const verificationCachePrefix = "verification"

// VerificationRepository keeps {id}.txt sidecar records. Records are plain
// text keyed by a guessable id, so they prove presence, not authorship.
type VerificationRepository interface {
	Save(ctx context.Context, record VerificationRecord) error
	Get(ctx context.Context, id string) (*VerificationRecord, error)
}

type verificationRepository struct {
	dir   string
	cache database.CacheClient
	ttl   time.Duration
	log   logger.Logger
}

func NewVerification(db database.DB, dir string, ttl time.Duration) (VerificationRepository, error) {
	log := logger.New("verificationRepository")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, log.Function("NewVerification").Err("failed to create verification directory", err, "dir", dir)
	}

	return &verificationRepository{
		dir:   dir,
		cache: db.Cache.Verification,
		ttl:   ttl,
		log:   log,
	}, nil
}

func (r *verificationRepository) path(id string) (string, error) {
	if err := validateID(id); err != nil {
		return "", err
	}
	return filepath.Join(r.dir, id+".txt"), nil
}

func (r *verificationRepository) Save(ctx context.Context, record VerificationRecord) error {
	log := r.log.Function("Save")

	path, err := r.path(record.CertificateID)
	if err != nil {
		return log.Err("refusing to save verification record", err, "id", record.CertificateID)
	}

	if err := os.WriteFile(path, []byte(FormatRecord(record)), 0644); err != nil {
		return log.Err("failed to write verification record", err, "path", path)
	}

	if err := r.cacheBuilder(ctx, record.CertificateID).Delete(); err != nil {
		log.Warn("failed to invalidate cached verification record", "id", record.CertificateID, "error", err)
	}

	return nil
}

func (r *verificationRepository) Get(ctx context.Context, id string) (*VerificationRecord, error) {
	log := r.log.Function("Get")

	path, err := r.path(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var record VerificationRecord
	found, err := r.cacheBuilder(ctx, id).Get(&record)
	if err != nil {
		log.Warn("failed to read verification record from cache", "id", id, "error", err)
	}
	if found {
		// The sidecar is the source of truth; a cached copy of a deleted record
		// is dropped.
		_, statErr := os.Stat(path)
		if statErr == nil {
			return &record, nil
		}
		if errors.Is(statErr, fs.ErrNotExist) {
			if err := r.cacheBuilder(ctx, id).Delete(); err != nil {
				log.Warn("failed to drop stale verification record", "id", id, "error", err)
			}
			return nil, ErrNotFound
		}
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, log.Err("failed to read verification record", err, "path", path)
	}

	parsed, err := ParseRecord(string(data))
	if err != nil {
		return nil, log.Err("failed to parse verification record", err, "path", path)
	}
	if parsed.CertificateID == "" {
		parsed.CertificateID = id
	}

	if err := r.cacheBuilder(ctx, id).WithStruct(parsed).WithTTL(r.ttl).Set(); err != nil {
		log.Warn("failed to cache verification record", "id", id, "error", err)
	}

	return parsed, nil
}

func (r *verificationRepository) cacheBuilder(ctx context.Context, id string) *database.CacheBuilder {
	return database.NewCacheBuilder(r.cache, id).
		WithPrefix(verificationCachePrefix).
		WithContext(ctx)
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// FormatRecord renders the sidecar text. Line breaks inside values become
// spaces so each field stays on one line.
func FormatRecord(record VerificationRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", lineBreaks.Replace(record.Name))
	fmt.Fprintf(&b, "Event: %s\n", lineBreaks.Replace(record.Event))
	fmt.Fprintf(&b, "Date: %s\n", lineBreaks.Replace(record.Date))
	fmt.Fprintf(&b, "Certificate ID: %s\n", record.CertificateID)
	if record.Digest != "" {
		fmt.Fprintf(&b, "Digest: %s\n", record.Digest)
	}
	return b.String()
}

// ParseRecord reads sidecar text. "Verified at" is accepted for the
// certificate id as older sidecars used that label.
func ParseRecord(text string) (*VerificationRecord, error) {
	record := &VerificationRecord{}
	seen := 0

	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		value = strings.TrimPrefix(value, " ")

		switch strings.TrimSpace(key) {
		case "Name":
			record.Name = value
		case "Event":
			record.Event = value
		case "Date":
			record.Date = value
		case "Certificate ID", "Verified at":
			record.CertificateID = value
		case "Digest":
			record.Digest = value
		default:
			continue
		}
		seen++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if seen == 0 {
		return nil, errors.New("no recognised fields")
	}
	return record, nil
}
