package stream

import (
	"bufio"
	"fmt"
	"io"
	"net/textproto"
	"strconv"
	"strings"
)

// Boundary separates parts of the debug stream.
const Boundary = "frame"

// ContentType is the response content type of the debug stream.
const ContentType = "multipart/x-mixed-replace; boundary=" + Boundary

// WritePart writes one JPEG part:
//
//	--frame\r\n
//	Content-Type: image/jpeg\r\n
//	Content-Length: N\r\n
//	\r\n
//	<N bytes>\r\n
func WritePart(w io.Writer, data []byte) error {
	if _, err := fmt.Fprintf(w, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", Boundary, len(data)); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\r\n")
	return err
}

// Part is one parsed stream part.
type Part struct {
	ContentType string
	Data        []byte
}

// PartReader parses a debug stream back into parts using Content-Length,
// so each part is available as soon as its payload arrives.
type PartReader struct {
	br *bufio.Reader
	tp *textproto.Reader
}

// NewPartReader reads parts from r.
func NewPartReader(r io.Reader) *PartReader {
	br := bufio.NewReader(r)
	return &PartReader{br: br, tp: textproto.NewReader(br)}
}

// Next returns the next part. It returns io.EOF at a clean end of stream.
func (pr *PartReader) Next() (Part, error) {
	line, err := pr.tp.ReadLine()
	for err == nil && line == "" {
		line, err = pr.tp.ReadLine()
	}
	if err != nil {
		return Part{}, err
	}
	if line == "--"+Boundary+"--" {
		return Part{}, io.EOF
	}
	if line != "--"+Boundary {
		return Part{}, fmt.Errorf("stream: expected boundary, got %q", line)
	}

	hdr, err := pr.tp.ReadMIMEHeader()
	if err != nil {
		return Part{}, fmt.Errorf("stream: part header: %w", err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(hdr.Get("Content-Length")))
	if err != nil || n < 0 {
		return Part{}, fmt.Errorf("stream: bad Content-Length %q", hdr.Get("Content-Length"))
	}

	data := make([]byte, n)
	if _, err := io.ReadFull(pr.br, data); err != nil {
		return Part{}, fmt.Errorf("stream: part payload: %w", err)
	}
	var crlf [2]byte
	if _, err := io.ReadFull(pr.br, crlf[:]); err != nil {
		return Part{}, fmt.Errorf("stream: part trailer: %w", err)
	}
	if crlf != [2]byte{'\r', '\n'} {
		return Part{}, fmt.Errorf("stream: part not terminated by CRLF")
	}
	return Part{ContentType: hdr.Get("Content-Type"), Data: data}, nil
}
