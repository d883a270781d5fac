package upload

import (
	"strings"

	"github.com/pkg/errors"
)

// CleanName validates an uploaded filename for use as a relative path or an
// object key. The name must be relative, must not contain NUL, and every
// '/'-separated segment must be non-empty and neither "." nor "..".
func CleanName(name string) (string, error) {
	if name == "" {
		return "", errors.Wrap(ErrUnsafeName, "empty name")
	}
	if strings.ContainsRune(name, 0) {
		return "", errors.Wrapf(ErrUnsafeName, "%q contains NUL", name)
	}
	if strings.HasPrefix(name, "/") {
		return "", errors.Wrapf(ErrUnsafeName, "%q is absolute", name)
	}
	for _, seg := range strings.Split(name, "/") {
		switch seg {
		case "", ".", "..":
			return "", errors.Wrapf(ErrUnsafeName, "%q has segment %q", name, seg)
		}
	}
	return name, nil
}
