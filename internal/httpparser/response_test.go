package httpparser

import (
	"strings"
	"testing"
)

func TestReadResponseParsesStatusAndHeaders(t *testing.T) {
	t.Parallel()

	raw := "HTTP/1.0 200 OK\r\n" +
		"Content-Type: audio/mpeg\r\n" +
		"icy-metaint: 16000\r\n" +
		"\r\n" +
		"body bytes that should not be consumed here"

	resp, err := ReadResponse(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("ReadResponse() error = %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if resp.Status != "OK" {
		t.Fatalf("Status = %q, want OK", resp.Status)
	}
	if got := resp.Header.Get("Content-Type"); got != "audio/mpeg" {
		t.Fatalf("Content-Type header = %q, want audio/mpeg", got)
	}
	if got := resp.Header.Get("icy-metaint"); got != "16000" {
		t.Fatalf("icy-metaint header = %q, want 16000", got)
	}
}

func TestReadResponseNonOKStatus(t *testing.T) {
	t.Parallel()

	raw := "HTTP/1.0 404 Not Found\r\n\r\n"
	resp, err := ReadResponse(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("ReadResponse() error = %v", err)
	}
	if resp.StatusCode != 404 {
		t.Fatalf("StatusCode = %d, want 404", resp.StatusCode)
	}
}

func TestReadResponseShortHeader(t *testing.T) {
	t.Parallel()

	if _, err := ReadResponse(strings.NewReader("")); err != ErrShortHeader {
		t.Fatalf("ReadResponse() error = %v, want ErrShortHeader", err)
	}
}

func TestReadResponseMalformedStatusLine(t *testing.T) {
	t.Parallel()

	if _, err := ReadResponse(strings.NewReader("not a status line\r\n\r\n")); err == nil {
		t.Fatal("expected an error for a malformed status line")
	}
}
