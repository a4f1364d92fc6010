package handler

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/lingualoop/learning-api/internal/domain"
)

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		req     events.APIGatewayProxyRequest
		wantErr bool
	}{
		{"plain", events.APIGatewayProxyRequest{Body: `{"text":"hi"}`}, false},
		{"base64", events.APIGatewayProxyRequest{Body: base64.StdEncoding.EncodeToString([]byte(`{"text":"hi"}`)), IsBase64Encoded: true}, false},
		{"empty", events.APIGatewayProxyRequest{Body: "  "}, true},
		{"malformed", events.APIGatewayProxyRequest{Body: `{"text":`}, true},
		{"bad base64", events.APIGatewayProxyRequest{Body: "%%%", IsBase64Encoded: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v struct{ Text string }
			err := decodeJSON(tt.req, &v)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidInput) {
					t.Errorf("decodeJSON() error = %v, want ErrInvalidInput", err)
				}
				return
			}
			if err != nil || v.Text != "hi" {
				t.Errorf("decodeJSON() = %+v, %v", v, err)
			}
		})
	}
}

func TestHeader(t *testing.T) {
	req := events.APIGatewayProxyRequest{
		Headers:           map[string]string{"content-TYPE": "application/json"},
		MultiValueHeaders: map[string][]string{"X-Trace": {"a", "b"}},
	}
	if got := header(req, "Content-Type"); got != "application/json" {
		t.Errorf("header(Content-Type) = %q", got)
	}
	if got := header(req, "x-trace"); got != "a" {
		t.Errorf("header(x-trace) = %q", got)
	}
	if got := header(req, "Authorization"); got != "" {
		t.Errorf("header(Authorization) = %q, want empty", got)
	}
}

func TestParseMultipart(t *testing.T) {
	audio := []byte("RIFF....WAVEfmt")
	req := multipartRequest(t, map[string]string{"userId": " u-1 ", "language": "fr"}, map[string][]byte{"audio": audio})

	if !isMultipart(req) {
		t.Fatal("isMultipart() = false")
	}
	f, err := parseMultipart(req)
	if err != nil {
		t.Fatalf("parseMultipart() error = %v", err)
	}
	if got := f.value("userId"); got != "u-1" {
		t.Errorf("value(userId) = %q, want u-1", got)
	}
	if got := f.value("targetLanguage", "language"); got != "fr" {
		t.Errorf("value(targetLanguage, language) = %q, want fr", got)
	}
	if got := f.file("audio"); !bytes.Equal(got, audio) {
		t.Errorf("file(audio) = %q", got)
	}
	if got := f.file("recording"); !bytes.Equal(got, audio) {
		t.Errorf("file(recording) should fall back to the only file, got %q", got)
	}
}

func TestParseMultipart_Base64Body(t *testing.T) {
	req := multipartRequest(t, map[string]string{"userId": "u-1"}, map[string][]byte{"audio": {1, 2, 3}})
	req.Body = base64.StdEncoding.EncodeToString([]byte(req.Body))
	req.IsBase64Encoded = true

	f, err := parseMultipart(req)
	if err != nil {
		t.Fatalf("parseMultipart() error = %v", err)
	}
	if got := f.file("audio"); !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Errorf("file(audio) = %v", got)
	}
}

func TestParseMultipart_MissingBoundary(t *testing.T) {
	req := events.APIGatewayProxyRequest{
		Headers: map[string]string{"Content-Type": "multipart/form-data"},
		Body:    "--x--",
	}
	if _, err := parseMultipart(req); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("parseMultipart() error = %v, want ErrInvalidInput", err)
	}
}

func TestDecodeBase64Image(t *testing.T) {
	raw := []byte{0xFF, 0xD8, 0xFF}
	enc := base64.StdEncoding.EncodeToString(raw)

	for _, in := range []string{enc, "data:image/jpeg;base64," + enc, "  " + enc + "\n"} {
		got, err := decodeBase64Image(in)
		if err != nil || !bytes.Equal(got, raw) {
			t.Errorf("decodeBase64Image(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := decodeBase64Image("not base64!"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("decodeBase64Image(invalid) error = %v, want ErrInvalidInput", err)
	}
}

func TestCleanTranslation(t *testing.T) {
	tests := map[string]string{
		`"Kucing"`:         "Kucing",
		"'chat'":           "chat",
		"```\nneko\n```":   "neko",
		"  Selamat pagi  ": "Selamat pagi",
		`"`:                `"`,
		`"unbalanced`:      `"unbalanced`,
	}
	for in, want := range tests {
		if got := cleanTranslation(in); got != want {
			t.Errorf("cleanTranslation(%q) = %q, want %q", in, got, want)
		}
	}
}
