// ABOUTME: Ogg page scanning for page-framed encoder output
// ABOUTME: Extracts raw codec segments and splits a byte stream into whole pages
package container

import "bytes"

const (
	// PageHeaderSize is the fixed part of an Ogg page header
	PageHeaderSize = 27

	segmentCountOffset = 26
)

// Magic starts every page
var Magic = []byte("OggS")

// ExtractFrames scans pages from the start of buf and concatenates every
// non-empty segment, in table order. Scanning stops at the first position
// that does not begin with Magic or at the end of buf. A page whose header
// or segments run past the end of buf contributes only its complete segments.
func ExtractFrames(buf []byte) []byte {
	var out []byte

	pos := 0
	for pos+PageHeaderSize <= len(buf) && bytes.HasPrefix(buf[pos:], Magic) {
		count := int(buf[pos+segmentCountOffset])
		table := pos + PageHeaderSize
		data := table + count
		if data > len(buf) {
			break
		}

		for _, l := range buf[table:data] {
			n := int(l)
			if data+n > len(buf) {
				return out
			}
			// Zero-length segments are continuation markers
			if n > 0 {
				out = append(out, buf[data:data+n]...)
			}
			data += n
		}
		pos = data
	}

	return out
}

// PageLength returns the total length of the page at the start of buf, or
// false if buf does not yet hold the whole header and segment table.
func PageLength(buf []byte) (int, bool) {
	if len(buf) < PageHeaderSize {
		return 0, false
	}
	count := int(buf[segmentCountOffset])
	if len(buf) < PageHeaderSize+count {
		return 0, false
	}

	n := PageHeaderSize + count
	for _, l := range buf[PageHeaderSize : PageHeaderSize+count] {
		n += int(l)
	}
	return n, true
}

// PageSplitter buffers encoder output and yields whole pages. Encoders may
// split one page across several writes.
type PageSplitter struct {
	buf []byte
}

// Write appends encoder output. It never fails.
func (s *PageSplitter) Write(p []byte) (int, error) {
	s.buf = append(s.buf, p...)
	return len(p), nil
}

// Next returns the next complete page. Bytes before the first Magic are discarded.
func (s *PageSplitter) Next() ([]byte, bool) {
	if i := bytes.Index(s.buf, Magic); i > 0 {
		s.buf = s.buf[i:]
	} else if i < 0 {
		// Keep a possible partial magic at the tail
		if len(s.buf) >= len(Magic) {
			s.buf = s.buf[len(s.buf)-len(Magic)+1:]
		}
		return nil, false
	}

	n, ok := PageLength(s.buf)
	if !ok || len(s.buf) < n {
		return nil, false
	}

	page := make([]byte, n)
	copy(page, s.buf[:n])
	s.buf = s.buf[n:]
	return page, true
}

// Buffered reports how many bytes are waiting for a complete page
func (s *PageSplitter) Buffered() int {
	return len(s.buf)
}
