/**
 * Copyright (c) 2019, The Artemis Authors.
 *
 * Permission to use, copy, modify, and/or distribute this software for any
 * purpose with or without fee is hereby granted, provided that the above
 * copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES
 * WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF
 * MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR
 * ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES
 * WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN
 * ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF
 * OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package bookstore

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Fixtures describes the content of a MemoryStore in a YAML file:
//
//	authors:
//	  - name: Kate Chopin
//	books:
//	  - title: The Awakening
//	    author: Kate Chopin
type Fixtures struct {
	Authors []Author `yaml:"authors"`
	Books   []Book   `yaml:"books"`
}

// ParseFixtures decodes Fixtures from YAML.
func ParseFixtures(data []byte) (*Fixtures, error) {
	fixtures := &Fixtures{}
	if err := yaml.Unmarshal(data, fixtures); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}

	known := map[string]bool{}
	for _, author := range fixtures.Authors {
		if author.Name == "" {
			return nil, fmt.Errorf("invalid fixtures: author without name")
		}
		if known[author.Name] {
			return nil, fmt.Errorf("invalid fixtures: duplicate author %q", author.Name)
		}
		known[author.Name] = true
	}
	for _, book := range fixtures.Books {
		if !known[book.Author] {
			return nil, fmt.Errorf("invalid fixtures: book %q refers to unknown author %q",
				book.Title, book.Author)
		}
	}

	return fixtures, nil
}

// LoadFixtures reads Fixtures from the YAML file at path.
func LoadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures file: %w", err)
	}
	return ParseFixtures(data)
}

// NewStore creates a MemoryStore serving the fixtures.
func (fixtures *Fixtures) NewStore(opts ...MemoryStoreOption) *MemoryStore {
	return NewMemoryStore(fixtures.Authors, fixtures.Books, opts...)
}
