package credential

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/afero"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"drivedocs/internal/apperror"
)

// LoadClientConfig reads the OAuth client registration ("credentials.json"
// downloaded from the Google Cloud console) and returns an oauth2 config
// requesting scopes. A missing or malformed file is an apperror.ErrConfig.
func LoadClientConfig(fsys afero.Fs, path string, scopes []string) (*oauth2.Config, error) {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if path == "" {
		return nil, apperror.New("client secret", apperror.ErrConfig, errors.New("path is empty"))
	}

	data, err := afero.ReadFile(fsys, path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperror.New("client secret", apperror.ErrConfig, fmt.Errorf("%s does not exist", path))
	}
	if err != nil {
		return nil, apperror.New("client secret", apperror.ErrConfig, err)
	}

	cfg, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, apperror.New("client secret", apperror.ErrConfig, fmt.Errorf("parsing %s: %w", path, err))
	}
	// Google accepts client credentials in the form body. Pinning the style
	// avoids the library's auto-detection, which retries a failed refresh.
	cfg.Endpoint.AuthStyle = oauth2.AuthStyleInParams

	return cfg, nil
}
