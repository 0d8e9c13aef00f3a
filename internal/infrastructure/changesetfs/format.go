// Package changesetfs stores changesets as markdown files with a YAML
// frontmatter naming the released packages:
//
//	---
//	"pkg-a": minor
//	"pkg-b": patch
//	---
//
//	Summary of the change.
package changesetfs

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/relicta-tech/changeplan/internal/domain/changes"
)

// ErrInvalidFrontmatter is returned for files that are not changesets.
var ErrInvalidFrontmatter = errors.New("missing or invalid frontmatter")

var frontmatterPattern = regexp.MustCompile(`(?s)^\s*---(.*?)\n\s*---(\s*(?:\n|$).*)$`)

// Parse decodes a changeset file. The id is not part of the content and is
// left empty. Releases keep the order of the frontmatter.
func Parse(content []byte) (changes.Changeset, error) {
	m := frontmatterPattern.FindSubmatch(content)
	if m == nil {
		return changes.Changeset{}, ErrInvalidFrontmatter
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(m[1], &doc); err != nil {
		return changes.Changeset{}, fmt.Errorf("%w: %v", ErrInvalidFrontmatter, err)
	}

	cs := changes.Changeset{
		Summary:  strings.TrimSpace(string(m[2])),
		Releases: []changes.Release{},
	}

	// An empty frontmatter decodes to a zero node.
	if doc.Kind == 0 || len(doc.Content) == 0 || doc.Content[0].Tag == "!!null" {
		return cs, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return changes.Changeset{}, fmt.Errorf("%w: frontmatter must map package names to release types", ErrInvalidFrontmatter)
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		name := root.Content[i].Value
		rt, err := changes.ParseReleaseType(root.Content[i+1].Value)
		if err != nil {
			return changes.Changeset{}, fmt.Errorf("%w: package %s: %v", ErrInvalidFrontmatter, name, err)
		}
		cs.Releases = append(cs.Releases, changes.Release{Name: name, Type: rt})
	}
	return cs, nil
}

// Format encodes a changeset as file content. Package names are always
// quoted so scoped names round-trip.
func Format(cs changes.Changeset) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("---\n")

	if len(cs.Releases) > 0 {
		root := &yaml.Node{Kind: yaml.MappingNode}
		for _, r := range cs.Releases {
			root.Content = append(root.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Style: yaml.DoubleQuotedStyle, Value: r.Name},
				&yaml.Node{Kind: yaml.ScalarNode, Value: string(r.Type)},
			)
		}
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(root); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
	}

	buf.WriteString("---\n\n")
	if s := strings.TrimSpace(cs.Summary); s != "" {
		buf.WriteString(s)
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}
