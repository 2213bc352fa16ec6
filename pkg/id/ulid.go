package id

import "github.com/oklog/ulid/v2"

// GetUlid returns a lexically sortable id, used for run and request ids.
func GetUlid() string {
	return ulid.Make().String()
}
