package impl

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"profilemap/config"
	domainerrors "profilemap/internal/domain/errors"
	"profilemap/internal/errors"
	"profilemap/internal/usecase"
	"profilemap/internal/util"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/fx"
)

const saveFailedMessage = "Failed to save profile"

// formService implements the FormUsecase interface. Forms live in memory
// until submitted, closed or swept. A form id in submitting has a save in
// flight and cannot be submitted again until it returns.
type formService struct {
	mu         sync.Mutex
	forms      map[string]*usecase.Form
	submitting map[string]struct{}

	profiles      usecase.ProfileUsecase
	defaultPhoto  string
	maxPhotoBytes int64
	ttl           time.Duration
	now           func() time.Time
	logger        *slog.Logger
}

// FormServiceParams holds dependencies for formService, injected by Fx
type FormServiceParams struct {
	fx.In

	Profiles usecase.ProfileUsecase
	Config   *config.Config
	Logger   *slog.Logger
}

// NewFormService is the constructor for formService.
func NewFormService(params FormServiceParams) usecase.FormUsecase {
	return newFormService(params.Profiles, params.Config.Form, params.Logger, time.Now)
}

func newFormService(profiles usecase.ProfileUsecase, cfg *config.FormConfig, logger *slog.Logger, now func() time.Time) *formService {
	return &formService{
		forms:         make(map[string]*usecase.Form),
		submitting:    make(map[string]struct{}),
		profiles:      profiles,
		defaultPhoto:  cfg.DefaultPhoto,
		maxPhotoBytes: cfg.MaxPhotoBytes,
		ttl:           cfg.SessionTTL,
		now:           now,
		logger:        logger,
	}
}

// OpenForm prefills an edit form from the store, or starts a blank create form.
func (srv *formService) OpenForm(ctx context.Context, profileID string) (*usecase.Form, error) {
	form := &usecase.Form{
		ID:        uuid.NewString(),
		Mode:      usecase.FormModeCreate,
		UpdatedAt: srv.now(),
	}

	if profileID != "" {
		profile, err := srv.profiles.GetProfile(ctx, profileID)
		if err != nil {
			return nil, err
		}
		form.Mode = usecase.FormModeEdit
		form.ProfileID = profile.ID
		form.Draft = profile.Fields()
	} else {
		form.Draft.Photo = srv.defaultPhoto
	}

	srv.mu.Lock()
	srv.forms[form.ID] = form
	srv.mu.Unlock()

	srv.logger.DebugContext(ctx, "Form opened",
		slog.String("form_id", form.ID),
		slog.String("mode", string(form.Mode)),
	)

	return cloneForm(form), nil
}

func (srv *formService) GetForm(ctx context.Context, formID string) (*usecase.Form, error) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	form, err := srv.lookup(formID)
	if err != nil {
		return nil, err
	}

	return cloneForm(form), nil
}

// ChangeForm applies the changed fields to the draft.
func (srv *formService) ChangeForm(ctx context.Context, formID string, patch *usecase.FormPatch) (*usecase.Form, error) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	form, err := srv.lookup(formID)
	if err != nil {
		return nil, err
	}

	draft := &form.Draft
	if patch.Name != nil {
		draft.Name = *patch.Name
	}
	if patch.Location != nil {
		draft.Location = *patch.Location
	}
	if patch.Description != nil {
		draft.Description = *patch.Description
	}
	if patch.Photo != nil {
		draft.Photo = *patch.Photo
	}
	if patch.Latitude != nil {
		draft.Coordinates.Latitude = parseCoordinate(*patch.Latitude)
	}
	if patch.Longitude != nil {
		draft.Coordinates.Longitude = parseCoordinate(*patch.Longitude)
	}
	form.UpdatedAt = srv.now()

	return cloneForm(form), nil
}

// ReplacePhoto stores the upload as a data URL, replacing the previous photo.
func (srv *formService) ReplacePhoto(ctx context.Context, formID string, data []byte) (*usecase.Form, error) {
	if len(data) == 0 {
		return nil, errors.WithStack(domainerrors.ErrInvalidPhoto.WithDetails("empty upload"))
	}
	if srv.maxPhotoBytes > 0 && int64(len(data)) > srv.maxPhotoBytes {
		return nil, errors.WithStack(domainerrors.ErrPhotoTooLarge.WithDetails(fmt.Sprintf(
			"photo is %s, limit is %s",
			util.FormatBytes(int64(len(data))),
			util.FormatBytes(srv.maxPhotoBytes),
		)))
	}

	mtype := mimetype.Detect(data)
	mediaType, _, _ := strings.Cut(mtype.String(), ";")
	if !strings.HasPrefix(mediaType, "image/") {
		return nil, errors.WithStack(domainerrors.ErrInvalidPhoto.WithDetails("detected " + mediaType))
	}

	srv.mu.Lock()
	defer srv.mu.Unlock()

	form, err := srv.lookup(formID)
	if err != nil {
		return nil, err
	}

	form.Draft.Photo = "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
	form.UpdatedAt = srv.now()

	srv.logger.DebugContext(ctx, "Form photo replaced",
		slog.String("form_id", formID),
		slog.String("media_type", mediaType),
		slog.String("size", util.FormatBytes(int64(len(data)))),
	)

	return cloneForm(form), nil
}

// SubmitForm saves the draft and closes the form. Failures keep it open with
// the error recorded on the form. A second submit while the first is still
// saving fails with ErrFormSubmitting.
func (srv *formService) SubmitForm(ctx context.Context, formID string) (*usecase.FormResult, error) {
	srv.mu.Lock()
	form, err := srv.lookup(formID)
	if err != nil {
		srv.mu.Unlock()

		return nil, err
	}
	if _, busy := srv.submitting[formID]; busy {
		srv.mu.Unlock()

		return nil, errors.WithStack(domainerrors.ErrFormSubmitting.WithDetails("form_id: " + formID))
	}
	srv.submitting[formID] = struct{}{}
	snapshot := cloneForm(form)
	srv.mu.Unlock()

	fields := snapshot.Draft

	var (
		result  = &usecase.FormResult{}
		saveErr error
	)
	if err := fields.Validate(); err != nil {
		saveErr = err
	} else if snapshot.Mode == usecase.FormModeEdit {
		result.Profile, saveErr = srv.profiles.UpdateProfile(ctx, snapshot.ProfileID, &fields)
		result.Notification = usecase.NotificationProfileUpdated
	} else {
		result.Profile, saveErr = srv.profiles.CreateProfile(ctx, &fields)
		result.Notification = usecase.NotificationProfileAdded
	}

	srv.mu.Lock()
	defer srv.mu.Unlock()

	delete(srv.submitting, formID)
	if saveErr != nil {
		if form, ok := srv.forms[formID]; ok {
			form.Error, form.ErrorField = formError(saveErr)
			form.UpdatedAt = srv.now()
		}

		return nil, saveErr
	}

	delete(srv.forms, formID)
	srv.logger.InfoContext(ctx, "Form submitted",
		slog.String("form_id", formID),
		slog.String("profile_id", result.Profile.ID),
	)

	return result, nil
}

func (srv *formService) CloseForm(ctx context.Context, formID string) error {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	if _, err := srv.lookup(formID); err != nil {
		return err
	}
	delete(srv.forms, formID)

	return nil
}

func (srv *formService) SweepExpired(now time.Time) int {
	if srv.ttl <= 0 {
		return 0
	}

	srv.mu.Lock()
	defer srv.mu.Unlock()

	swept := 0
	for id, form := range srv.forms {
		if _, busy := srv.submitting[id]; busy {
			continue
		}
		if now.Sub(form.UpdatedAt) > srv.ttl {
			delete(srv.forms, id)
			swept++
		}
	}

	return swept
}

// lookup must be called with mu held.
func (srv *formService) lookup(formID string) (*usecase.Form, error) {
	form, ok := srv.forms[formID]
	if !ok {
		return nil, errors.WithStack(domainerrors.ErrFormNotFound.WithDetails("id: " + formID))
	}

	return form, nil
}

// parseCoordinate turns typed text into a coordinate. Text that does not
// parse is 0; NaN and infinities are kept for validation to reject.
func parseCoordinate(text string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil && !math.IsInf(v, 0) {
		return 0
	}

	return v
}

// formError picks the message the form shows for a failed submit.
func formError(err error) (message, field string) {
	var verr *domainerrors.ValidationError
	if errors.As(err, &verr) {
		return verr.Message(), verr.Field()
	}

	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message(), ""
	}

	return saveFailedMessage, ""
}

func cloneForm(form *usecase.Form) *usecase.Form {
	c := *form

	return &c
}
