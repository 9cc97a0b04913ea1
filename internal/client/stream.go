package client

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tmaxmax/go-sse"

	"github.com/earlysvahn/ngpt/internal/chat"
)

const doneMarker = "[DONE]"

// Stream sends a streaming request and yields text chunks as they arrive.
// The request is issued when iteration starts; stopping early closes the
// connection. At most one error is yielded, after which iteration ends.
func (c *Client) Stream(ctx context.Context, messages []chat.Message, p Params) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		body, err := c.buildBody(messages, p, true)
		if err != nil {
			yield("", err)
			return
		}
		resp, err := c.do(ctx, http.MethodPost, completionsPath, body, true)
		if err != nil {
			yield("", err)
			return
		}
		defer resp.Body.Close()

		for ev, err := range sse.Read(newDataLineReader(resp.Body), nil) {
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					err = ctxErr
				}
				yield("", fmt.Errorf("read stream: %w", err))
				return
			}

			data := strings.TrimSpace(ev.Data)
			if data == doneMarker {
				return
			}
			content, err := decodeChunk(data, c.baseURL+completionsPath)
			if err != nil {
				yield("", err)
				return
			}
			if content == "" {
				continue
			}
			if !yield(content, nil) {
				return
			}
		}
		if err := ctx.Err(); err != nil {
			yield("", err)
		}
	}
}

// decodeChunk extracts choices[0].delta.content from one stream event.
// Data that is not JSON is skipped. An error object in the stream becomes
// an *APIError.
func decodeChunk(data, url string) (string, error) {
	if data == "" || !gjson.Valid(data) {
		return "", nil
	}
	if msg := gjson.Get(data, "error.message"); msg.Exists() {
		return "", &APIError{StatusCode: http.StatusOK, Message: msg.String(), URL: url}
	}
	return gjson.Get(data, "choices.0.delta.content").String(), nil
}

// dataLineReader ends every data line with a blank line so each one is
// dispatched as its own event. Providers that separate chunks with a
// single newline are read the same as ones that follow the SSE framing.
type dataLineReader struct {
	br  *bufio.Reader
	buf []byte
	err error
}

func newDataLineReader(r io.Reader) *dataLineReader {
	return &dataLineReader{br: bufio.NewReader(r)}
}

var dataPrefix = []byte("data:")

func (d *dataLineReader) Read(p []byte) (int, error) {
	for len(d.buf) == 0 {
		if d.err != nil {
			return 0, d.err
		}
		line, err := d.br.ReadBytes('\n')
		d.err = err
		if len(line) == 0 {
			continue
		}
		d.buf = append(d.buf[:0], line...)
		if bytes.HasPrefix(line, dataPrefix) {
			if line[len(line)-1] != '\n' {
				d.buf = append(d.buf, '\n')
			}
			d.buf = append(d.buf, '\n')
		}
	}
	n := copy(p, d.buf)
	d.buf = d.buf[n:]
	return n, nil
}
