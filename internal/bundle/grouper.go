// Package bundle clusters locators sharing a filename stem into logical
// bundles.
package bundle

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/driveshelf/driveshelf/internal/catalog"
	"github.com/driveshelf/driveshelf/internal/logging"
)

// Role classifies one asset inside a bundle.
type Role string

const (
	RolePrimary    Role = "primary"
	RoleAttachment Role = "attachment"
	RoleMedia      Role = "media"
	RoleImage      Role = "image"
	RoleOther      Role = "other"
)

// Asset is a locator tagged with its role in a bundle. Assets exist only
// inside a grouping pass; they are never persisted independently.
type Asset struct {
	Locator catalog.Locator `json:"locator"`
	Role    Role            `json:"role"`
}

// Descriptor is a logical group of locators sharing a filename stem.
type Descriptor struct {
	Key         string            `json:"key"`
	Label       string            `json:"label"`
	PrimaryData *catalog.Locator  `json:"primaryData,omitempty"`
	Assets      []Asset           `json:"assets"`
	Attachments []catalog.Locator `json:"attachments,omitempty"`
}

// stemPattern strips a trailing _suffix (optionally followed by _<digits>)
// and the file extension: "photo_a_2.jpg" → "photo".
var stemPattern = regexp.MustCompile(`^(.+?)_[^_]+(?:_\d+)?\.[^.]+$`)

// Stem derives the bundle stem from a file name. Names that do not match
// the pattern return "" and are excluded from grouping entirely (they
// remain individually addressable through the catalog).
func Stem(name string) string {
	m := stemPattern.FindStringSubmatch(name)
	if m == nil {
		return ""
	}
	return m[1]
}

func roleFor(l catalog.Locator) Role {
	switch {
	case strings.Contains(l.MimeType, "image"):
		return RoleImage
	case strings.Contains(l.MimeType, "audio"), strings.Contains(l.MimeType, "video"):
		return RoleMedia
	case strings.HasSuffix(l.Name, ".json"):
		return RolePrimary
	default:
		return RoleAttachment
	}
}

// Group clusters locators by shared stem. Within a bundle, role precedence
// follows mime and name in that order; Attachments is recomputed as the
// role=attachment subset of Assets. When multiple primary candidates
// share a stem, the lexicographically smallest name wins and a warning is
// logged.
func Group(locators []catalog.Locator) []Descriptor {
	groups := make(map[string]*Descriptor)
	var order []string

	for _, locator := range locators {
		stem := Stem(locator.Name)
		if stem == "" {
			continue
		}

		entry, ok := groups[stem]
		if !ok {
			entry = &Descriptor{Key: stem, Label: stem}
			groups[stem] = entry
			order = append(order, stem)
		}

		role := roleFor(locator)
		entry.Assets = append(entry.Assets, Asset{Locator: locator, Role: role})

		if role == RolePrimary {
			if entry.PrimaryData == nil {
				l := locator
				entry.PrimaryData = &l
			} else if locator.Name < entry.PrimaryData.Name {
				logging.Warn("multiple primary candidates in bundle",
					zap.String("bundle", stem),
					zap.String("kept", locator.Name),
					zap.String("demoted", entry.PrimaryData.Name))
				l := locator
				entry.PrimaryData = &l
			} else {
				logging.Warn("multiple primary candidates in bundle",
					zap.String("bundle", stem),
					zap.String("kept", entry.PrimaryData.Name),
					zap.String("demoted", locator.Name))
			}
		}
	}

	out := make([]Descriptor, 0, len(order))
	for _, stem := range order {
		entry := groups[stem]
		for _, asset := range entry.Assets {
			if asset.Role == RoleAttachment {
				entry.Attachments = append(entry.Attachments, asset.Locator)
			}
		}
		out = append(out, *entry)
	}
	return out
}

// Find returns the descriptor whose key equals the slug, or nil.
func Find(bundles []Descriptor, key string) *Descriptor {
	for i := range bundles {
		if bundles[i].Key == key {
			return &bundles[i]
		}
	}
	return nil
}
