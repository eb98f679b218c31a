// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package render turns the principal's amalgamated view of backend
// configuration payloads into per-file content ready to be written out
// by the charm. Two fragment shapes are supported: a raw string snippet
// for a config file, and nested section key/values rendered as INI.
package render

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/schema"
	"gopkg.in/ini.v1"
)

// completeKey is the payload key a subordinate uses to flag that its
// configuration is fully formed. It is bookkeeping, not file content.
const completeKey = "complete"

var sectionsChecker = schema.StringMap(schema.StringMap(schema.Any()))

// Complete reports whether every backend in the view has flagged its
// payload complete. A missing or false flag means the subordinate is
// still assembling its configuration; an empty view is never complete.
func Complete(view map[string]map[string]interface{}) bool {
	if len(view) == 0 {
		return false
	}
	for _, fragments := range view {
		flag, ok := fragments[completeKey].(bool)
		if !ok || !flag {
			return false
		}
	}
	return true
}

// Files flattens the view into content keyed by config file path.
// Backends are processed in sorted name order, so two backends
// contributing to the same file produce deterministic output: INI
// sections are merged into one file body (later backends win on key
// collisions), and raw snippets are appended in order after any
// sections.
func Files(view map[string]map[string]interface{}) (map[string]string, error) {
	sections := make(map[string]*ini.File)
	snippets := make(map[string][]string)
	paths := set.NewStrings()

	backends := make([]string, 0, len(view))
	for name := range view {
		backends = append(backends, name)
	}
	sort.Strings(backends)

	for _, name := range backends {
		fragments := view[name]
		fragmentPaths := make([]string, 0, len(fragments))
		for path := range fragments {
			if path != completeKey {
				fragmentPaths = append(fragmentPaths, path)
			}
		}
		sort.Strings(fragmentPaths)

		for _, path := range fragmentPaths {
			paths.Add(path)
			switch content := fragments[path].(type) {
			case string:
				snippets[path] = append(snippets[path], content)
			default:
				if err := mergeSections(sections, path, content); err != nil {
					return nil, errors.Annotatef(err, "backend %q, file %q", name, path)
				}
			}
		}
	}

	result := make(map[string]string)
	for _, path := range paths.SortedValues() {
		var buf bytes.Buffer
		if file, ok := sections[path]; ok {
			if _, err := file.WriteTo(&buf); err != nil {
				return nil, errors.Trace(err)
			}
		}
		if extra := snippets[path]; len(extra) > 0 {
			if buf.Len() > 0 && !strings.HasSuffix(buf.String(), "\n") {
				buf.WriteString("\n")
			}
			buf.WriteString(strings.Join(extra, "\n"))
			buf.WriteString("\n")
		}
		result[path] = buf.String()
	}
	return result, nil
}

func mergeSections(files map[string]*ini.File, path string, content interface{}) error {
	coerced, err := sectionsChecker.Coerce(content, nil)
	if err != nil {
		return errors.Annotate(err, "unsupported fragment shape")
	}
	file, ok := files[path]
	if !ok {
		file = ini.Empty()
		files[path] = file
	}

	bySection := coerced.(map[string]interface{})
	sectionNames := make([]string, 0, len(bySection))
	for name := range bySection {
		sectionNames = append(sectionNames, name)
	}
	sort.Strings(sectionNames)

	for _, sectionName := range sectionNames {
		values := bySection[sectionName].(map[string]interface{})
		keys := make([]string, 0, len(values))
		for key := range values {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		section := file.Section(sectionName)
		for _, key := range keys {
			section.Key(key).SetValue(fmt.Sprintf("%v", values[key]))
		}
	}
	return nil
}
