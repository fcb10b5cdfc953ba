package usecase

import (
	"context"
	"time"

	"profilemap/internal/domain/entity"
)

// FormMode tells whether submitting creates or updates a profile.
type FormMode string

const (
	FormModeCreate FormMode = "create"
	FormModeEdit   FormMode = "edit"
)

// Form is an open admin form and its draft.
type Form struct {
	ID         string               `json:"id"`
	Mode       FormMode             `json:"mode"`
	ProfileID  string               `json:"profile_id,omitempty"`
	Draft      entity.ProfileFields `json:"draft"`
	Error      string               `json:"error,omitempty"`
	ErrorField string               `json:"error_field,omitempty"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// FormPatch carries the fields the user changed. Coordinates arrive as typed
// text; text that does not parse becomes 0.
type FormPatch struct {
	Name        *string `json:"name,omitempty"`
	Location    *string `json:"location,omitempty"`
	Description *string `json:"description,omitempty"`
	Photo       *string `json:"photo,omitempty"`
	Latitude    *string `json:"latitude,omitempty"`
	Longitude   *string `json:"longitude,omitempty"`
}

// FormResult is returned by a successful submit.
type FormResult struct {
	Profile      *entity.Profile `json:"profile"`
	Notification string          `json:"notification"`
}

// FormUsecase manages admin form sessions.
type FormUsecase interface {
	// OpenForm opens an edit form when profileID is set, otherwise a create form.
	OpenForm(ctx context.Context, profileID string) (*Form, error)
	GetForm(ctx context.Context, formID string) (*Form, error)
	ChangeForm(ctx context.Context, formID string, patch *FormPatch) (*Form, error)

	// ReplacePhoto swaps the draft photo for the uploaded image.
	ReplacePhoto(ctx context.Context, formID string, data []byte) (*Form, error)

	// SubmitForm validates and saves the draft. A failed submit leaves the
	// form open with its error set.
	SubmitForm(ctx context.Context, formID string) (*FormResult, error)
	CloseForm(ctx context.Context, formID string) error

	// SweepExpired closes forms idle since before now minus the TTL.
	SweepExpired(now time.Time) int
}
