package cloudinarystore

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KamdynS/designrelay/imaging"
)

type fakeUploader struct {
	file   interface{}
	params uploader.UploadParams
	resp   *uploader.UploadResult
	err    error
}

func (f *fakeUploader) Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error) {
	f.file = file
	f.params = params
	return f.resp, f.err
}

func TestStore_UploadsDataURI(t *testing.T) {
	up := &fakeUploader{resp: &uploader.UploadResult{SecureURL: "https://res.cloudinary.com/x/a.png", PublicID: "a"}}
	s := newStore(up, "default", zerolog.Nop())

	url, err := s.Store(context.Background(), imaging.Image{B64: "QUJD"}, "designs")
	require.NoError(t, err)
	assert.Equal(t, "https://res.cloudinary.com/x/a.png", url)
	assert.Equal(t, "data:image/png;base64,QUJD", up.file)
	assert.Equal(t, "designs", up.params.Folder)
}

func TestStore_DefaultFolder(t *testing.T) {
	up := &fakeUploader{resp: &uploader.UploadResult{SecureURL: "https://u"}}
	s := newStore(up, "default", zerolog.Nop())
	_, err := s.Store(context.Background(), imaging.Image{B64: "QUJD"}, "")
	require.NoError(t, err)
	assert.Equal(t, "default", up.params.Folder)
}

func TestStore_Errors(t *testing.T) {
	boom := errors.New("network down")
	cases := []struct {
		name string
		up   *fakeUploader
		want string
	}{
		{"transport", &fakeUploader{err: boom}, "network down"},
		{"api error", &fakeUploader{resp: &uploader.UploadResult{Error: api.ErrorResp{Message: "Invalid Signature"}}}, "Invalid Signature"},
		{"no url", &fakeUploader{resp: &uploader.UploadResult{}}, "secure_url"},
		{"nil response", &fakeUploader{}, "empty response"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newStore(tc.up, "", zerolog.Nop())
			_, err := s.Store(context.Background(), imaging.Image{B64: "QUJD"}, "f")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := New(Config{CloudName: "c"}, zerolog.Nop())
	assert.Error(t, err)
}
