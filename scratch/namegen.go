package scratch

import (
	"crypto/rand"
	"path/filepath"

	"github.com/pkg/errors"
)

// nameGenerator produces random names that do not collide with existing
// directory entries at probe time.
type nameGenerator struct {
	osi      osInterface
	alphabet string
	length   int
	attempts int64
}

func newNameGenerator(osi osInterface, opts *Options) nameGenerator {
	return nameGenerator{
		osi:      osi,
		alphabet: opts.nameAlphabet(),
		length:   opts.nameLength(),
		attempts: opts.maxNameAttempts(),
	}
}

// randomName returns one fixed-length candidate drawn uniformly from the
// alphabet. Bytes at or above the largest byte multiple of the alphabet
// size carry modulo bias and are rejected and redrawn.
func (g nameGenerator) randomName() (string, error) {
	limit := 256 - 256%len(g.alphabet)
	if limit == 0 {
		// alphabets longer than a byte's range accept every byte
		limit = 256
	}

	name := make([]byte, 0, g.length)
	buf := make([]byte, g.length)

	for len(name) < g.length {
		if _, err := rand.Read(buf); err != nil {
			return "", errors.Wrap(err, "unable to read random bytes for name")
		}

		for _, v := range buf {
			if int(v) >= limit {
				continue
			}

			name = append(name, g.alphabet[int(v)%len(g.alphabet)])

			if len(name) == g.length {
				break
			}
		}
	}

	return string(name), nil
}

// generateUnique returns parentDir joined with a candidate name that did not
// exist at probe time. The probe leaves a window until actual creation;
// exclusive creation downstream turns a lost race into one more attempt.
func (g nameGenerator) generateUnique(parentDir string) (string, error) {
	for i := int64(0); i < g.attempts; i++ {
		name, err := g.randomName()
		if err != nil {
			return "", err
		}

		candidate := filepath.Join(parentDir, name)
		if _, err := g.osi.Stat(candidate); err != nil {
			return candidate, nil
		}
	}

	return "", errors.WithStack(ErrNameExhausted)
}
