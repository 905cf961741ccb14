package openai_provider

import (
	"bufio"
	"errors"
	"io"
	"net/http"
	"strings"
)

// sseStream reads "data:" events from a server-sent event body. The "[DONE]" sentinel
// is reported as io.EOF.
type sseStream struct {
	resp   *http.Response
	reader *bufio.Reader
}

func newSSEStream(resp *http.Response) *sseStream {
	return &sseStream{resp: resp, reader: bufio.NewReader(resp.Body)}
}

func (s *sseStream) Close() error {
	return s.resp.Body.Close()
}

func (s *sseStream) Recv() ([]byte, error) {
	for {
		data, err := s.readEvent()
		if err != nil {
			return nil, err
		}
		payload := strings.TrimSpace(string(data))
		if payload == "" {
			continue
		}
		if payload == "[DONE]" {
			return nil, io.EOF
		}
		return data, nil
	}
}

func (s *sseStream) readEvent() ([]byte, error) {
	var dataLines []string
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if len(dataLines) > 0 {
				return []byte(strings.Join(dataLines, "\n")), nil
			}
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			continue
		}
		if strings.HasPrefix(line, "data:") {
			dataLines = append(dataLines, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
		if errors.Is(err, io.EOF) {
			if len(dataLines) > 0 {
				return []byte(strings.Join(dataLines, "\n")), nil
			}
			return nil, io.EOF
		}
	}
}
