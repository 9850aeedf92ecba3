// Package release resolves kustomize releases from the GitHub release feed.
package release

import "time"

// Release is a published GitHub release.
type Release struct {
	TagName   string    `json:"tag_name"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Assets    []Asset   `json:"assets"`
}

// Asset is a downloadable file attached to a release.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	ContentType        string `json:"content_type"`
	Size               int64  `json:"size"`
}
