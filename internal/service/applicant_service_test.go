package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/drrm-training-api/internal/dto"
	"github.com/noah-isme/drrm-training-api/internal/models"
	appErrors "github.com/noah-isme/drrm-training-api/pkg/errors"
	"github.com/noah-isme/drrm-training-api/pkg/realtime"
)

type applicantRepoStub struct {
	created     []models.Applicant
	locations   []models.ApplicantLocation
	locationsOf string
	err         error
}

func (a *applicantRepoStub) List(ctx context.Context, filter models.ApplicantFilter) ([]models.Applicant, int, error) {
	if a.err != nil {
		return nil, 0, a.err
	}
	return a.created, len(a.created), nil
}

func (a *applicantRepoStub) Create(ctx context.Context, applicant *models.Applicant) error {
	if a.err != nil {
		return a.err
	}
	applicant.ID = "app-1"
	a.created = append(a.created, *applicant)
	return nil
}

func (a *applicantRepoStub) Locations(ctx context.Context, programID string) ([]models.ApplicantLocation, error) {
	a.locationsOf = programID
	if a.err != nil {
		return nil, a.err
	}
	return a.locations, nil
}

type programReaderStub struct {
	known map[string]bool
}

func (p programReaderStub) Get(ctx context.Context, id string) (*models.Program, error) {
	if !p.known[id] {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
	}
	return &models.Program{ID: id}, nil
}

func TestApplicantServiceCreate(t *testing.T) {
	repo := &applicantRepoStub{}
	cacheRepo := newCacheRepoStub()
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	events := &eventRecorder{}
	programID := "9b1d7c1e-2f4a-4c55-8e8a-0c3c1f7d2a11"
	svc := NewApplicantService(repo, programReaderStub{known: map[string]bool{programID: true}}, cache, events, nil, nil)

	applicant, err := svc.Create(context.Background(), dto.CreateApplicantRequest{
		FullName:     " Juan Dela Cruz ",
		Municipality: "Dagupan ",
		Barangay:     "Bonuan",
		ProgramID:    &programID,
	})
	require.NoError(t, err)
	assert.Equal(t, "app-1", applicant.ID)
	assert.Equal(t, "Juan Dela Cruz", applicant.FullName)
	assert.Equal(t, "Dagupan", applicant.Municipality)
	assert.Equal(t, []string{"coverage:*"}, cacheRepo.patterns)
	assert.Equal(t, []string{realtime.EventCoverageInvalidated}, events.types())
}

func TestApplicantServiceCreateUnknownProgram(t *testing.T) {
	repo := &applicantRepoStub{}
	programID := "9b1d7c1e-2f4a-4c55-8e8a-0c3c1f7d2a11"
	svc := NewApplicantService(repo, programReaderStub{}, nil, nil, nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateApplicantRequest{FullName: "Ana", ProgramID: &programID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
}

func TestApplicantServiceCreateValidation(t *testing.T) {
	svc := NewApplicantService(&applicantRepoStub{}, nil, nil, nil, nil, nil)
	badID := "not-a-uuid"

	for _, req := range []dto.CreateApplicantRequest{{FullName: ""}, {FullName: "Ana", ProgramID: &badID}} {
		_, err := svc.Create(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestApplicantServiceLocations(t *testing.T) {
	repo := &applicantRepoStub{locations: []models.ApplicantLocation{{Municipality: "Dagupan", Barangay: "Bonuan"}}}
	svc := NewApplicantService(repo, nil, nil, nil, nil, nil)

	locations, err := svc.Locations(context.Background(), "p1")
	require.NoError(t, err)
	assert.Len(t, locations, 1)
	assert.Equal(t, "p1", repo.locationsOf)

	repo.err = errors.New("db down")
	_, err = svc.Locations(context.Background(), "")
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)

	_, _, err = svc.List(context.Background(), models.ApplicantFilter{})
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}
