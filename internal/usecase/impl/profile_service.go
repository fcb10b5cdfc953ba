// Package impl contains the application-specific business rules implementations.
package impl

import (
	"context"
	"log/slog"
	"strings"

	"profilemap/config"
	"profilemap/internal/domain/entity"
	domainerrors "profilemap/internal/domain/errors"
	"profilemap/internal/domain/repository"
	"profilemap/internal/domain/service"
	"profilemap/internal/errors"
	"profilemap/internal/usecase"

	"github.com/google/uuid"
	"go.uber.org/fx"
)

// profileService implements the ProfileUsecase interface.
type profileService struct {
	repo         repository.ProfileRepository
	publisher    service.EventPublisher
	defaultPhoto string
	logger       *slog.Logger
}

// ProfileServiceParams holds dependencies for profileService, injected by Fx
type ProfileServiceParams struct {
	fx.In

	Repo      repository.ProfileRepository
	Publisher service.EventPublisher
	Config    *config.Config
	Logger    *slog.Logger
}

// NewProfileService is the constructor for profileService.
func NewProfileService(params ProfileServiceParams) usecase.ProfileUsecase {
	var defaultPhoto string
	if params.Config.Form != nil {
		defaultPhoto = params.Config.Form.DefaultPhoto
	}

	return &profileService{
		repo:         params.Repo,
		publisher:    params.Publisher,
		defaultPhoto: defaultPhoto,
		logger:       params.Logger,
	}
}

// ListProfiles returns every profile in insertion order.
func (srv *profileService) ListProfiles(ctx context.Context) ([]*entity.Profile, error) {
	profiles, err := srv.repo.ListProfiles(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list profiles")
	}

	return profiles, nil
}

// GetProfile retrieves one profile.
func (srv *profileService) GetProfile(ctx context.Context, id string) (*entity.Profile, error) {
	profile, err := srv.repo.FindProfileByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, errors.WithStack(domainerrors.ErrProfileNotFound.WithDetails("id: " + id))
		}

		return nil, errors.Wrap(err, "failed to find profile")
	}

	return profile, nil
}

// CreateProfile validates fields, assigns a UUIDv7 id and stores the profile.
func (srv *profileService) CreateProfile(ctx context.Context, fields *entity.ProfileFields) (*entity.Profile, error) {
	if err := fields.Validate(); err != nil {
		return nil, errors.WithStack(err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate profile id")
	}

	profile := entity.NewProfile(id.String(), srv.withDefaultPhoto(fields))

	version, err := srv.repo.CreateProfile(ctx, profile)
	if err != nil {
		if errors.Is(err, repository.ErrProfileExists) {
			return nil, errors.WithStack(domainerrors.ErrProfileConflict.WithDetails("id: " + profile.ID))
		}

		return nil, errors.Wrap(err, "failed to create profile")
	}

	srv.logger.InfoContext(ctx, "Profile created", slog.String("profile_id", profile.ID))
	srv.publish(ctx, service.ProfileCreated, profile.ID, version)

	return profile, nil
}

// UpdateProfile replaces every field except the id.
func (srv *profileService) UpdateProfile(ctx context.Context, id string, fields *entity.ProfileFields) (*entity.Profile, error) {
	profile, err := srv.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := fields.Validate(); err != nil {
		return nil, errors.WithStack(err)
	}

	profile.Apply(srv.withDefaultPhoto(fields))
	version, err := srv.repo.UpdateProfile(ctx, profile)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, errors.WithStack(domainerrors.ErrProfileNotFound.WithDetails("id: " + id))
		}

		return nil, errors.Wrap(err, "failed to update profile")
	}

	srv.logger.InfoContext(ctx, "Profile updated", slog.String("profile_id", id))
	srv.publish(ctx, service.ProfileUpdated, id, version)

	return profile, nil
}

// DeleteProfile removes a profile. Unconfirmed requests are rejected.
func (srv *profileService) DeleteProfile(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return errors.WithStack(domainerrors.ErrConfirmationRequired)
	}

	version, err := srv.repo.DeleteProfile(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return errors.WithStack(domainerrors.ErrProfileNotFound.WithDetails("id: " + id))
		}

		return errors.Wrap(err, "failed to delete profile")
	}

	srv.logger.InfoContext(ctx, "Profile deleted", slog.String("profile_id", id))
	srv.publish(ctx, service.ProfileDeleted, id, version)

	return nil
}

// withDefaultPhoto copies fields, replacing a blank photo with the configured default.
func (srv *profileService) withDefaultPhoto(fields *entity.ProfileFields) entity.ProfileFields {
	normalized := *fields
	if strings.TrimSpace(normalized.Photo) == "" {
		normalized.Photo = srv.defaultPhoto
	}

	return normalized
}

// publish reports a committed mutation together with the store version it
// produced. Failures are logged only; the store has already changed and map
// sessions also catch up on their next read.
func (srv *profileService) publish(ctx context.Context, eventType service.ProfileEventType, profileID string, version uint64) {
	event := &service.ProfileEvent{
		Type:      eventType,
		ProfileID: profileID,
		Version:   version,
	}
	if err := srv.publisher.PublishProfileEvent(ctx, event); err != nil {
		srv.logger.WarnContext(ctx, "Failed to publish profile event",
			slog.String("type", string(eventType)),
			slog.String("profile_id", profileID),
			slog.Any("error", err),
		)
	}
}
