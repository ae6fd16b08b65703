// Copyright 2025 Updrift Authors
// SPDX-License-Identifier: Apache-2.0

package multipart

import (
	"net/url"
	"regexp"

	"golang.org/x/text/encoding/ianaindex"
)

// disposition is the parsed metadata of one part header block.
type disposition struct {
	name      string
	filename  string
	mediaType string
}

// dispositionPattern captures the field name and, when present, the
// filename of a Content-Disposition: form-data header. The filename
// branch also accepts the RFC 2231 extended form
// filename*=charset'lang'value, capturing the charset and language tags.
var dispositionPattern = regexp.MustCompile(
	`Content-Disposition: form-data;` +
		`(?: name="(?P<name>[^;]*?)")?` +
		`(?:; filename\*?="?` +
		`(?:(?P<enc>[^']+?)'(?P<lang>\w*)')?` +
		`(?P<filename>[^"\r\n]*)"?)?`)

var contentTypePattern = regexp.MustCompile(`Content-Type: ([^\r\n]*)`)

var (
	dispNameIdx     = dispositionPattern.SubexpIndex("name")
	dispEncIdx      = dispositionPattern.SubexpIndex("enc")
	dispFilenameIdx = dispositionPattern.SubexpIndex("filename")
)

// parseHeader parses one part's header block (the bytes between the
// boundary line and the blank line). The field name is required; the
// filename is percent-decoded and, for the extended form, re-decoded
// using the declared charset. A part with no Content-Type header keeps
// an empty media type rather than a guessed default.
func parseHeader(header []byte) (disposition, error) {
	m := dispositionPattern.FindSubmatch(header)
	if m == nil {
		return disposition{}, &ProtocolError{Reason: "malformed Content-Disposition header"}
	}

	d := disposition{name: string(m[dispNameIdx])}
	if d.name == "" {
		return disposition{}, &ProtocolError{Reason: "part header missing field name"}
	}

	if raw := m[dispFilenameIdx]; len(raw) > 0 {
		filename, err := decodeFilename(raw, string(m[dispEncIdx]))
		if err != nil {
			return disposition{}, err
		}
		d.filename = filename
	}

	if ct := contentTypePattern.FindSubmatch(header); ct != nil {
		d.mediaType = string(ct[1])
	}
	return d, nil
}

// decodeFilename percent-decodes a captured filename. When a charset tag
// was declared (filename*=charset'lang'value), the decoded bytes are
// transcoded from that charset to UTF-8.
func decodeFilename(raw []byte, charset string) (string, error) {
	unescaped, err := url.PathUnescape(string(raw))
	if err != nil {
		// Keep literal percent signs that are not valid escapes.
		unescaped = string(raw)
	}
	if charset == "" {
		return unescaped, nil
	}
	enc, err := ianaindex.IANA.Encoding(charset)
	if err != nil || enc == nil {
		return "", &ProtocolError{Reason: "unknown filename charset " + charset}
	}
	decoded, err := enc.NewDecoder().Bytes([]byte(unescaped))
	if err != nil {
		return "", &ProtocolError{Reason: "undecodable filename in charset " + charset}
	}
	return string(decoded), nil
}
