// Package tools selects, fetches and caches the platform binary of a release.
package tools

import (
	"errors"
	"fmt"
	"strings"

	"github.com/donaldgifford/setup-kustomize/internal/release"
)

var (
	// ErrAssetNotFound means no asset name contains the platform marker.
	ErrAssetNotFound = errors.New("no asset matches platform")
	// ErrAmbiguousAsset means several assets match in strict mode.
	ErrAmbiguousAsset = errors.New("several assets match platform")
)

// SelectAsset returns the first asset whose name contains the platform marker
// ("linux_amd64", "darwin_arm64", ...). The match is a case-sensitive substring
// test. With strict set, more than one match is an error instead of silently
// taking the first.
func SelectAsset(assets []release.Asset, p Platform, strict bool) (*release.Asset, error) {
	marker := p.Marker()

	var matches []int

	for i := range assets {
		if strings.Contains(assets[i].Name, marker) {
			matches = append(matches, i)

			if !strict {
				break
			}
		}
	}

	switch {
	case len(matches) == 0:
		return nil, fmt.Errorf("%w %s", ErrAssetNotFound, marker)
	case len(matches) > 1:
		names := make([]string, 0, len(matches))
		for _, i := range matches {
			names = append(names, assets[i].Name)
		}

		return nil, fmt.Errorf("%w %s: %s", ErrAmbiguousAsset, marker, strings.Join(names, ", "))
	}

	return &assets[matches[0]], nil
}
