package impl

import (
	"context"
	"net/url"

	"profilemap/internal/domain/entity"
	"profilemap/internal/domain/service"
	"profilemap/internal/errors"
	"profilemap/internal/usecase"
)

// listService implements the ListUsecase interface.
type listService struct {
	profiles usecase.ProfileUsecase
	qrcode   service.QRCodeService
}

// NewListService is the constructor for listService.
func NewListService(profiles usecase.ProfileUsecase, qrcode service.QRCodeService) usecase.ListUsecase {
	return &listService{
		profiles: profiles,
		qrcode:   qrcode,
	}
}

// Search keeps store order.
func (srv *listService) Search(ctx context.Context, term string) ([]*entity.Profile, error) {
	profiles, err := srv.profiles.ListProfiles(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search profiles")
	}

	matches := make([]*entity.Profile, 0, len(profiles))
	for _, p := range profiles {
		if p.Matches(term) {
			matches = append(matches, p)
		}
	}

	return matches, nil
}

func (srv *listService) Preview(ctx context.Context, id string) (*usecase.ProfilePreview, error) {
	profile, err := srv.profiles.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	return &usecase.ProfilePreview{
		Profile:    profile,
		DetailPath: srv.Navigate(profile.ID),
		ShareURL:   srv.qrcode.ProfileURL(profile.ID),
	}, nil
}

func (srv *listService) Navigate(id string) string {
	return "/profiles/" + url.PathEscape(id)
}
