package services

import (
	"context"
	"errors"
	"testing"

	"certgen/config"
	. "certgen/internal/models"
	"certgen/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeArtifacts map[string][]byte

func (f fakeArtifacts) Exists(_ context.Context, id string) (bool, error) {
	_, ok := f[id]
	return ok, nil
}

func (f fakeArtifacts) Read(_ context.Context, id string) ([]byte, error) {
	data, ok := f[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return data, nil
}

type fakeRecords map[string]VerificationRecord

func (f fakeRecords) Get(_ context.Context, id string) (*VerificationRecord, error) {
	record, ok := f[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &record, nil
}

type failingRecords struct{}

func (failingRecords) Get(context.Context, string) (*VerificationRecord, error) {
	return nil, errors.New("disk on fire")
}

func TestNewChecker_UnknownStrategy(t *testing.T) {
	_, err := NewChecker("signature", fakeArtifacts{}, fakeRecords{})
	assert.Error(t, err)
}

func TestExistenceChecker(t *testing.T) {
	checker, err := NewChecker(config.StrategyExistence, fakeArtifacts{"Alice Smith_0": []byte("pdf")}, nil)
	require.NoError(t, err)
	ctx := context.Background()

	got, err := checker.Check(ctx, "Alice Smith_0")
	require.NoError(t, err)
	assert.Equal(t, "Alice Smith_0", got.CertificateID)
	assert.Equal(t, config.StrategyExistence, got.Strategy)
	assert.Nil(t, got.Record)

	_, err = checker.Check(ctx, "Ghost_99")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestRecordChecker(t *testing.T) {
	artifact := []byte("certificate bytes")
	record := VerificationRecord{
		Name:          "Alice Smith",
		Event:         "Go Workshop",
		Date:          "2024-01-01",
		CertificateID: "Alice Smith_0",
		Digest:        Digest(artifact),
	}

	tests := []struct {
		name          string
		artifacts     fakeArtifacts
		records       fakeRecords
		id            string
		wantErr       error
		wantChecked   bool
		wantIntact    bool
		wantRecordNil bool
	}{
		{
			name:        "intact",
			artifacts:   fakeArtifacts{"Alice Smith_0": artifact},
			records:     fakeRecords{"Alice Smith_0": record},
			id:          "Alice Smith_0",
			wantChecked: true,
			wantIntact:  true,
		},
		{
			name:        "tampered",
			artifacts:   fakeArtifacts{"Alice Smith_0": []byte("edited")},
			records:     fakeRecords{"Alice Smith_0": record},
			id:          "Alice Smith_0",
			wantChecked: true,
		},
		{
			name:      "record without artifact",
			artifacts: fakeArtifacts{},
			records:   fakeRecords{"Alice Smith_0": record},
			id:        "Alice Smith_0",
		},
		{
			name:      "artifact without record",
			artifacts: fakeArtifacts{"Alice Smith_0": artifact},
			records:   fakeRecords{},
			id:        "Alice Smith_0",
			wantErr:   repositories.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker, err := NewChecker(config.StrategyRecord, tt.artifacts, tt.records)
			require.NoError(t, err)

			got, err := checker.Check(context.Background(), tt.id)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, got.Record)
			assert.Equal(t, "Alice Smith", got.Record.Name)
			assert.Equal(t, tt.wantChecked, got.IntegrityChecked)
			assert.Equal(t, tt.wantIntact, got.Intact)
		})
	}
}

func TestRecordChecker_StoreFailureIsNotNotFound(t *testing.T) {
	checker, err := NewChecker(config.StrategyRecord, fakeArtifacts{}, failingRecords{})
	require.NoError(t, err)

	_, err = checker.Check(context.Background(), "Alice Smith_0")
	require.Error(t, err)
	assert.NotErrorIs(t, err, repositories.ErrNotFound)
}
