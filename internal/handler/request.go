package handler

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/lingualoop/learning-api/internal/domain"
)

// MaxPartSize bounds one multipart part. API Gateway caps payloads at 10 MB.
const MaxPartSize = 10 << 20

// body returns the raw request body, decoding API Gateway's base64 wrapping.
func body(req events.APIGatewayProxyRequest) ([]byte, error) {
	if !req.IsBase64Encoded {
		return []byte(req.Body), nil
	}
	data, err := base64.StdEncoding.DecodeString(req.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: body is not valid base64", domain.ErrInvalidInput)
	}
	return data, nil
}

// decodeJSON decodes the JSON body of req into v.
func decodeJSON(req events.APIGatewayProxyRequest, v any) error {
	data, err := body(req)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%w: request body is required", domain.ErrInvalidInput)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

// header returns the first value of a header, matching names without case.
func header(req events.APIGatewayProxyRequest, name string) string {
	for k, v := range req.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	for k, v := range req.MultiValueHeaders {
		if strings.EqualFold(k, name) && len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

func isMultipart(req events.APIGatewayProxyRequest) bool {
	mediaType, _, err := mime.ParseMediaType(header(req, "Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// form is a parsed multipart/form-data body.
type form struct {
	values map[string]string
	files  map[string][]byte
}

func (f *form) value(names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(f.values[n]); v != "" {
			return v
		}
	}
	return ""
}

// file returns the named file part, or the first file part when none of
// names is present.
func (f *form) file(names ...string) []byte {
	for _, n := range names {
		if data, ok := f.files[n]; ok {
			return data
		}
	}
	for _, data := range f.files {
		return data
	}
	return nil
}

// parseMultipart reads a multipart/form-data body. Parts with a file name
// are files; the rest are values.
func parseMultipart(req events.APIGatewayProxyRequest) (*form, error) {
	_, params, err := mime.ParseMediaType(header(req, "Content-Type"))
	if err != nil || params["boundary"] == "" {
		return nil, fmt.Errorf("%w: multipart boundary is missing", domain.ErrInvalidInput)
	}
	data, err := body(req)
	if err != nil {
		return nil, err
	}

	f := &form{values: map[string]string{}, files: map[string][]byte{}}
	mr := multipart.NewReader(bytes.NewReader(data), params["boundary"])
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: malformed multipart body: %v", domain.ErrInvalidInput, err)
		}

		content, err := io.ReadAll(io.LimitReader(part, MaxPartSize+1))
		part.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: read part %q: %v", domain.ErrInvalidInput, part.FormName(), err)
		}
		if len(content) > MaxPartSize {
			return nil, fmt.Errorf("%w: part %q is too large", domain.ErrInvalidInput, part.FormName())
		}

		name := part.FormName()
		if part.FileName() != "" {
			f.files[name] = content
		} else {
			f.values[name] = string(content)
		}
	}
	return f, nil
}

// decodeBase64Image accepts plain or data URL base64 image payloads.
func decodeBase64Image(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: image is not valid base64", domain.ErrInvalidInput)
	}
	return data, nil
}

func required(value, name string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", domain.ErrInvalidInput, name)
	}
	return nil
}
