// Copyright 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ndef

import (
	"os"
	"strings"

	"golang.org/x/text/language"
)

// FallbackLanguage is used when the process locale is unset or unparseable.
const FallbackLanguage = "en"

// localeEnv lists the POSIX locale variables in precedence order.
var localeEnv = []string{"LC_ALL", "LC_MESSAGES", "LANG"}

// DefaultLanguage returns the base language of the process locale, e.g. "fr"
// for LANG=fr_FR.UTF-8.
func DefaultLanguage() string {
	return languageFromEnv(os.Getenv)
}

func languageFromEnv(getenv func(string) string) string {
	for _, key := range localeEnv {
		if lang, ok := parseLocale(getenv(key)); ok {
			return lang
		}
	}
	return FallbackLanguage
}

// parseLocale turns a POSIX locale such as "pt_BR.UTF-8@euro" into its base
// language subtag.
func parseLocale(value string) (string, bool) {
	if i := strings.IndexAny(value, ".@"); i >= 0 {
		value = value[:i]
	}
	if value == "" || value == "C" || value == "POSIX" {
		return "", false
	}

	tag, err := language.Parse(strings.ReplaceAll(value, "_", "-"))
	if err != nil {
		return "", false
	}
	base, conf := tag.Base()
	if conf == language.No {
		return "", false
	}
	return base.String(), true
}
