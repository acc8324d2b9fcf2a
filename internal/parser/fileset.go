// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package parser

import (
	"encoding/base64"
	"encoding/json"
	"sort"
	"strings"
)

// Canonical file names of a generated site.
const (
	IndexHTML = "index.html"
	StyleCSS  = "style.css"
	ScriptJS  = "script.js"
)

// File is one generated or extracted file.
type File struct {
	Content  []byte
	Binary   bool
	MimeType string
}

// TextFile returns a text file with the given content.
func TextFile(content string) File {
	return File{Content: []byte(content)}
}

// BinaryFile returns a binary file with the given content and MIME type.
func BinaryFile(content []byte, mimeType string) File {
	return File{Content: content, Binary: true, MimeType: mimeType}
}

// String returns the file content as text.
func (f File) String() string { return string(f.Content) }

// DataURI encodes the file as a data: URI.
func (f File) DataURI() string {
	mime := f.MimeType
	if mime == "" {
		mime = "application/octet-stream"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(f.Content)
}

// FromDataURI decodes a base64 data: URI into a binary file. It reports
// false for anything else.
func FromDataURI(s string) (File, bool) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return File{}, false
	}
	mime, payload, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return File{}, false
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return File{}, false
	}
	return BinaryFile(data, mime), true
}

// FileSet maps file names to content. Names are unique by construction.
type FileSet map[string]File

// Names returns the file names in sorted order.
func (fs FileSet) Names() []string {
	names := make([]string, 0, len(fs))
	for name := range fs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge copies every entry of other into fs, replacing existing names.
func (fs FileSet) Merge(other FileSet) {
	for name, f := range other {
		fs[name] = f
	}
}

// MarshalJSON encodes text files as strings and binary files as data URIs,
// the shape the editor consumes.
func (fs FileSet) MarshalJSON() ([]byte, error) {
	out := make(map[string]string, len(fs))
	for name, f := range fs {
		if f.Binary {
			out[name] = f.DataURI()
		} else {
			out[name] = string(f.Content)
		}
	}
	return json.Marshal(out)
}

// ContentType returns the MIME type for a file name. Binary files carry
// their own type in File.MimeType.
func ContentType(name string) string {
	switch {
	case strings.HasSuffix(name, ".html"), strings.HasSuffix(name, ".htm"):
		return "text/html; charset=utf-8"
	case strings.HasSuffix(name, ".css"):
		return "text/css; charset=utf-8"
	case strings.HasSuffix(name, ".js"):
		return "text/javascript; charset=utf-8"
	case strings.HasSuffix(name, ".json"):
		return "application/json"
	case strings.HasSuffix(name, ".svg"):
		return "image/svg+xml"
	default:
		return "text/plain; charset=utf-8"
	}
}
