package chat

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// NewID returns a ULID string. ULIDs are millisecond-ordered, so session and
// message ids sort by creation time like the timestamp ids they replace.
func NewID() (string, error) {
	id, err := ulid.New(ulid.Now(), rand.Reader)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
