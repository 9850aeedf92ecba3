package getter

import (
	"fmt"
	"net/url"
)

// rawFileURL adds go-getter's archive=false parameter so a ".tar.gz" asset
// is saved as the downloaded file rather than unpacked on the fly.
//
//	rawFileURL("https://host/kustomize_v5.0.0_linux_amd64.tar.gz")
//	→ "https://host/kustomize_v5.0.0_linux_amd64.tar.gz?archive=false"
func rawFileURL(src string) (string, error) {
	u, err := url.Parse(src)
	if err != nil {
		return "", fmt.Errorf("parsing asset url %q: %w", src, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported asset url scheme %q", u.Scheme)
	}

	q := u.Query()
	q.Set("archive", "false")
	u.RawQuery = q.Encode()

	return u.String(), nil
}
