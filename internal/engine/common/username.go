// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package common

import (
	"strings"
)

const (
	usernameLocalMax   = 20
	usernameLocalShort = 12
	// UsernameSuffixLen is the length of the random collision suffix.
	UsernameSuffixLen = 4
)

// LocalPart returns the part of an email address before the last '@'.
func LocalPart(email string) string {
	if i := strings.LastIndex(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}

// Username derives the preferred directory username for an email.
func Username(prefix, email string) string {
	return prefix + truncate(LocalPart(email), usernameLocalMax)
}

// FallbackUsername is used when Username is taken within the tenant.
func FallbackUsername(prefix, email, suffix string) string {
	return prefix + truncate(LocalPart(email), usernameLocalShort) + "_" + suffix
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
