package services

import (
	"context"
	"errors"
	"fmt"

	"certgen/config"
	"certgen/internal/logger"
	. "certgen/internal/models"
	"certgen/internal/repositories"
)

// ArtifactStore is the part of the certificate store verification needs.
type ArtifactStore interface {
	Exists(ctx context.Context, id string) (bool, error)
	Read(ctx context.Context, id string) ([]byte, error)
}

type RecordStore interface {
	Get(ctx context.Context, id string) (*VerificationRecord, error)
}

// Checker answers whether an id was issued. A negative answer is
// repositories.ErrNotFound.
type Checker interface {
	Check(ctx context.Context, id string) (*Verification, error)
	Strategy() string
}

func NewChecker(strategy string, artifacts ArtifactStore, records RecordStore) (Checker, error) {
	switch strategy {
	case config.StrategyExistence:
		return &ExistenceChecker{artifacts: artifacts, log: logger.New("ExistenceChecker")}, nil
	case config.StrategyRecord:
		return &RecordChecker{artifacts: artifacts, records: records, log: logger.New("RecordChecker")}, nil
	default:
		return nil, fmt.Errorf("unknown verification strategy %q", strategy)
	}
}

// ExistenceChecker verifies an id when its artifact is present.
type ExistenceChecker struct {
	artifacts ArtifactStore
	log       logger.Logger
}

func (c *ExistenceChecker) Strategy() string { return config.StrategyExistence }

func (c *ExistenceChecker) Check(ctx context.Context, id string) (*Verification, error) {
	exists, err := c.artifacts.Exists(ctx, id)
	if err != nil {
		return nil, c.log.Function("Check").Err("failed to check certificate", err, "id", id)
	}
	if !exists {
		return nil, repositories.ErrNotFound
	}

	return &Verification{CertificateID: id, Strategy: c.Strategy()}, nil
}

// RecordChecker verifies an id when its sidecar record is present, and checks
// the artifact digest when both are available.
type RecordChecker struct {
	artifacts ArtifactStore
	records   RecordStore
	log       logger.Logger
}

func (c *RecordChecker) Strategy() string { return config.StrategyRecord }

func (c *RecordChecker) Check(ctx context.Context, id string) (*Verification, error) {
	log := c.log.Function("Check")

	record, err := c.records.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
		return nil, log.Err("failed to read verification record", err, "id", id)
	}

	verification := &Verification{
		CertificateID: id,
		Strategy:      c.Strategy(),
		Record:        record,
	}

	if record.Digest == "" {
		return verification, nil
	}

	data, err := c.artifacts.Read(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		log.Warn("verification record has no artifact", "id", id)
		return verification, nil
	}
	if err != nil {
		return nil, log.Err("failed to read certificate", err, "id", id)
	}

	verification.IntegrityChecked = true
	verification.Intact = Digest(data) == record.Digest
	if !verification.Intact {
		log.Warn("certificate digest mismatch", "id", id)
	}

	return verification, nil
}
