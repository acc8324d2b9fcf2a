// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package scrape

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// rewriteAttrs are the <img> attributes that may carry a source URL.
var rewriteAttrs = map[string]bool{"src": true, "data-src": true, "data-lazy-src": true}

// RewriteImageSources replaces <img> sources found in mapping with their
// local references. Tags without a mapped source are copied byte for byte,
// so markup the model produced is otherwise left untouched.
func RewriteImageSources(doc string, mapping map[string]string) string {
	if len(mapping) == 0 || !strings.Contains(doc, "<img") {
		return doc
	}

	var out bytes.Buffer
	z := html.NewTokenizer(strings.NewReader(doc))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if z.Err() == io.EOF {
				return out.String()
			}
			// Malformed input: keep what the tokenizer could not consume.
			out.Write(z.Raw())
			return out.String()
		}

		// Token() lowercases names in place, so copy the raw bytes first.
		raw := append([]byte(nil), z.Raw()...)

		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			out.Write(raw)
			continue
		}

		tok := z.Token()
		if tok.Data != "img" {
			out.Write(raw)
			continue
		}

		changed := false
		for i, a := range tok.Attr {
			if !rewriteAttrs[a.Key] {
				continue
			}
			if local, ok := mapping[strings.TrimSpace(a.Val)]; ok {
				tok.Attr[i].Val = local
				changed = true
			}
		}
		if !changed {
			out.Write(raw)
			continue
		}
		out.WriteString(tok.String())
	}
}
