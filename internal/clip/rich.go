package clip

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf16"
)

// MIME targets offered by X11 and Wayland clipboard owners.
const (
	mimeHTML       = "text/html"
	mimeRTF        = "text/rtf"
	mimeURIList    = "text/uri-list"
	mimeGnomeFiles = "x-special/gnome-copied-files"
)

// parseURIList decodes a text/uri-list (RFC 2483) or
// x-special/gnome-copied-files payload into local paths. Bare absolute
// paths are accepted as well. Comment lines, the gnome "copy"/"cut" verb
// and non-file URIs are skipped.
func parseURIList(data []byte) FileList {
	var out FileList
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i == 0 && (line == "copy" || line == "cut") {
			continue
		}
		if strings.HasPrefix(line, "/") {
			out = append(out, filepath.FromSlash(line))
			continue
		}
		u, err := url.Parse(line)
		if err != nil || u.Scheme != "file" || u.Path == "" {
			continue
		}
		out = append(out, filepath.FromSlash(u.Path))
	}
	return out
}

// formatURIList encodes paths as a CRLF-terminated text/uri-list.
func formatURIList(files FileList) []byte {
	var b bytes.Buffer
	for _, p := range files {
		u := url.URL{Scheme: "file", Path: filepath.ToSlash(p)}
		if !strings.HasPrefix(u.Path, "/") {
			u.Path = "/" + u.Path
		}
		b.WriteString(u.String())
		b.WriteString("\r\n")
	}
	return b.Bytes()
}

const cfHTMLHeader = "Version:0.9\r\n" +
	"StartHTML:%010d\r\n" +
	"EndHTML:%010d\r\n" +
	"StartFragment:%010d\r\n" +
	"EndFragment:%010d\r\n"

const (
	fragmentStart = "<!--StartFragment-->"
	fragmentEnd   = "<!--EndFragment-->"
)

// encodeCFHTML wraps an HTML fragment in the Windows "HTML Format"
// envelope. Offsets are byte positions from the start of the payload.
func encodeCFHTML(fragment string) []byte {
	headerLen := len(fmt.Sprintf(cfHTMLHeader, 0, 0, 0, 0))
	prefix := "<html><body>" + fragmentStart
	suffix := fragmentEnd + "</body></html>"

	startHTML := headerLen
	startFrag := startHTML + len(prefix)
	endFrag := startFrag + len(fragment)
	endHTML := endFrag + len(suffix)

	var b bytes.Buffer
	fmt.Fprintf(&b, cfHTMLHeader, startHTML, endHTML, startFrag, endFrag)
	b.WriteString(prefix)
	b.WriteString(fragment)
	b.WriteString(suffix)
	return b.Bytes()
}

var errCFHTML = errors.New("malformed HTML Format payload")

// decodeCFHTML extracts the fragment from a Windows "HTML Format" payload.
func decodeCFHTML(data []byte) (string, error) {
	data = bytes.TrimRight(data, "\x00")
	offsets := make(map[string]int)
	for _, line := range strings.SplitN(string(data), "\r\n", 8) {
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			break
		}
		switch key {
		case "StartHTML", "EndHTML", "StartFragment", "EndFragment":
			n, err := strconv.Atoi(strings.TrimSpace(val))
			if err != nil {
				return "", fmt.Errorf("%w: %s: %w", errCFHTML, key, err)
			}
			offsets[key] = n
		}
	}
	start, okStart := offsets["StartFragment"]
	end, okEnd := offsets["EndFragment"]
	if !okStart || !okEnd || start < 0 || end < start || end > len(data) {
		return "", errCFHTML
	}
	return string(data[start:end]), nil
}

// dropFilesHeader is sizeof(DROPFILES): pFiles, pt.x, pt.y, fNC, fWide.
const dropFilesHeader = 20

// encodeDropFiles builds a CF_HDROP payload: a DROPFILES header followed
// by NUL-terminated UTF-16 paths and a final NUL.
func encodeDropFiles(files FileList) []byte {
	var b bytes.Buffer
	var hdr [dropFilesHeader]byte
	binary.LittleEndian.PutUint32(hdr[0:], dropFilesHeader)
	binary.LittleEndian.PutUint32(hdr[16:], 1)
	b.Write(hdr[:])
	for _, p := range files {
		for _, u := range utf16.Encode([]rune(p)) {
			_ = binary.Write(&b, binary.LittleEndian, u)
		}
		b.Write([]byte{0, 0})
	}
	b.Write([]byte{0, 0})
	return b.Bytes()
}

var errDropFiles = errors.New("malformed CF_HDROP payload")

// decodeDropFiles parses a CF_HDROP payload in either wide or ANSI form.
func decodeDropFiles(data []byte) (FileList, error) {
	if len(data) < dropFilesHeader {
		return nil, errDropFiles
	}
	off := int(binary.LittleEndian.Uint32(data[0:]))
	wide := binary.LittleEndian.Uint32(data[16:]) != 0
	if off < dropFilesHeader || off > len(data) {
		return nil, errDropFiles
	}
	data = data[off:]

	var out FileList
	if !wide {
		for _, p := range bytes.Split(data, []byte{0}) {
			if len(p) == 0 {
				break
			}
			out = append(out, string(p))
		}
		return out, nil
	}

	var cur []uint16
	for i := 0; i+1 < len(data); i += 2 {
		u := binary.LittleEndian.Uint16(data[i:])
		if u != 0 {
			cur = append(cur, u)
			continue
		}
		if len(cur) == 0 {
			break
		}
		out = append(out, string(utf16.Decode(cur)))
		cur = cur[:0]
	}
	return out, nil
}

// encodeUTF16 returns s as NUL-terminated little-endian UTF-16, the
// CF_UNICODETEXT layout.
func encodeUTF16(s string) []byte {
	u := utf16.Encode([]rune(s))
	out := make([]byte, 2*len(u)+2)
	for i, c := range u {
		binary.LittleEndian.PutUint16(out[2*i:], c)
	}
	return out
}
