// Package draft keeps in-progress founder forms keyed by a stable client key,
// so a half-filled form survives reloads and device switches.
package draft

import (
	"context"
	"regexp"

	"github.com/rotisserie/eris"

	"github.com/sells-group/pitchscore/internal/model"
)

var (
	ErrNotFound   = eris.New("draft: not found")
	ErrInvalidKey = eris.New("draft: key must be 1-128 characters of [A-Za-z0-9_-]")
)

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// Store loads and saves drafts.
type Store interface {
	Load(ctx context.Context, key string) (*model.Draft, error)
	Save(ctx context.Context, key string, d model.Draft) error
	Delete(ctx context.Context, key string) error
}

// ValidKey reports whether key is usable as a draft key.
func ValidKey(key string) bool {
	return keyPattern.MatchString(key)
}

func checkKey(key string) error {
	if !ValidKey(key) {
		return ErrInvalidKey
	}
	return nil
}
