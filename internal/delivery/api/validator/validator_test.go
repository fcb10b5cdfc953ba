package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Name  string `json:"name" validate:"notblank"`
	Photo string `json:"photo" validate:"omitempty,url|datauri"`
	Code  string `json:"code" validate:"max=4"`
}

func TestEchoValidator(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		in      sample
		wantErr string
	}{
		{name: "valid", in: sample{Name: "Ann", Photo: "https://example.com/a.jpg"}},
		{name: "data url", in: sample{Name: "Ann", Photo: "data:image/png;base64,iVBORw0KGgo="}},
		{name: "blank name", in: sample{Name: "   "}, wantErr: "name is required"},
		{name: "bad photo", in: sample{Name: "Ann", Photo: "not a url"}, wantErr: "photo must be a URL or a data URL"},
		{name: "too long", in: sample{Name: "Ann", Code: "abcdef"}, wantErr: "code must be at most 4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&tt.in)
			if tt.wantErr == "" {
				assert.NoError(t, err)

				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}
