package id

import "github.com/teris-io/shortid"

// ShortId returns a compact non-sequential id, or an ulid when the
// generator fails.
func ShortId() string {
	id, err := shortid.Generate()
	if err != nil {
		return GetUlid()
	}
	return id
}
