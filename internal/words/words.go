// apps/arena-server/internal/words/words.go
//
// Provides dictionary management for the game engine.
//
// Responsibilities:
//   - Load the word list from a file or fall back to the embedded default.
//   - Normalize entries (trim, lowercase, strip BOM) and keep only
//     alphabetic words of the configured length.
//   - Supply utility functions like Random, Contains, At and Stats.
//
// Unlike the single-list globals this package used to keep, a Dictionary is
// an ordinary value built once in main and handed to whoever needs it.

package words

import (
	"bufio"
	"crypto/rand"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/arena-server/assets"
)

// ErrEmpty is returned when no usable word survives filtering.
var ErrEmpty = errors.New("words: dictionary is empty")

// Dictionary is an ordered, de-duplicated list of same-length words.
type Dictionary struct {
	list   []string
	set    map[string]struct{}
	length int
}

// Load reads path (one word per line) or the embedded list when path is
// empty, keeping alphabetic words with exactly length letters.
func Load(path string, length int) (*Dictionary, error) {
	var (
		raw []string
		err error
	)
	if path == "" {
		raw, err = assets.WordList()
		if err != nil {
			return nil, errors.Wrap(err, "read embedded word list")
		}
	} else {
		raw, err = readWordFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read word list %s", path)
		}
	}

	d := New(raw, length)
	if d.Len() == 0 {
		return nil, ErrEmpty
	}
	source := path
	if source == "" {
		source = "embedded"
	}
	log.Info().Str("source", source).Int("words", d.Len()).Int("length", length).Msg("loaded word list")
	return d, nil
}

// New builds a Dictionary from raw entries.
func New(raw []string, length int) *Dictionary {
	d := &Dictionary{set: make(map[string]struct{}, len(raw)), length: length}
	for _, w := range raw {
		w = normalize(w)
		if len(w) != length || !isAlpha(w) {
			continue
		}
		if _, dup := d.set[w]; dup {
			continue
		}
		d.set[w] = struct{}{}
		d.list = append(d.list, w)
	}
	return d
}

// readWordFile loads one word per line from a file.
func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readWords(f)
}

func readWords(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}

// normalize lowercases, trims and drops a UTF-8 byte order mark.
func normalize(s string) string {
	s = strings.ReplaceAll(s, "\ufeff", "")
	return strings.ToLower(strings.TrimSpace(s))
}

// isAlpha reports whether s is all lowercase ASCII letters.
func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// Words returns a copy of the list in load order.
func (d *Dictionary) Words() []string {
	return append([]string(nil), d.list...)
}

// Len is the number of words.
func (d *Dictionary) Len() int { return len(d.list) }

// Length is the configured word length.
func (d *Dictionary) Length() int { return d.length }

// Contains reports whether w is in the dictionary.
func (d *Dictionary) Contains(w string) bool {
	_, ok := d.set[normalize(w)]
	return ok
}

// At returns the i-th word; i is reduced modulo Len.
func (d *Dictionary) At(i int) string {
	if len(d.list) == 0 {
		return ""
	}
	if i < 0 {
		i = -i
	}
	return d.list[i%len(d.list)]
}

// Random returns a cryptographically random word.
func (d *Dictionary) Random() string {
	if len(d.list) == 0 {
		return ""
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(d.list))))
	if err != nil {
		return d.list[0]
	}
	return d.list[n.Int64()]
}

// Stats returns (words, length) for diagnostics.
func (d *Dictionary) Stats() (count int, length int) {
	return len(d.list), d.length
}
