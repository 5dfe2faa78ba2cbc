package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

const (
	ContentTypeJSON      = "application/json"
	ContentTypeMultipart = "multipart/form-data"
	ContentTypeForm      = "application/x-www-form-urlencoded"
)

// Params is the parameter mapping passed to a verb method. Values are scalars,
// []byte, fmt.Stringer, or *File for multipart uploads.
type Params map[string]any

// File is a file-like multipart value. When Content is nil the file at Path is read.
type File struct {
	Name        string // filename reported to the server; defaults to the base of Path
	Path        string
	ContentType string
	Content     io.Reader
}

// Body is an encoded request body and the Content-Type that describes it.
type Body struct {
	Bytes       []byte
	ContentType string
}

// EncodeBody serializes params for the declared content type:
//   - application/json: a JSON object
//   - multipart/form-data or no content type: one form field per key
//   - application/x-www-form-urlencoded: a URL-encoded form
//
// Any other content type fails with ErrUnsupportedContentType.
func EncodeBody(params Params, contentType string) (*Body, error) {
	mediaType := ""
	if strings.TrimSpace(contentType) != "" {
		mt, _, err := mime.ParseMediaType(contentType)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedContentType, contentType)
		}
		mediaType = mt
	}

	switch mediaType {
	case ContentTypeJSON:
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("encoding JSON body: %w", err)
		}
		return &Body{Bytes: data, ContentType: contentType}, nil
	case ContentTypeMultipart, "":
		return buildMultipartBody(params)
	case ContentTypeForm:
		values := paramValues(params)
		return &Body{Bytes: []byte(values.Encode()), ContentType: contentType}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedContentType, contentType)
	}
}

// buildMultipartBody writes one part per key, in key order so the output is stable.
func buildMultipartBody(params Params) (*Body, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		switch v := params[key].(type) {
		case *File:
			if err := writeFilePart(writer, key, v); err != nil {
				return nil, err
			}
		case File:
			if err := writeFilePart(writer, key, &v); err != nil {
				return nil, err
			}
		default:
			s, ok := stringify(v)
			if !ok {
				continue
			}
			if err := writer.WriteField(key, s); err != nil {
				return nil, err
			}
		}
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}
	return &Body{Bytes: body.Bytes(), ContentType: writer.FormDataContentType()}, nil
}

func writeFilePart(writer *multipart.Writer, field string, f *File) error {
	if f == nil {
		return nil
	}

	content := f.Content
	if content == nil {
		file, err := os.Open(f.Path)
		if err != nil {
			return err
		}
		defer file.Close()
		content = file
	}

	name := f.Name
	if name == "" && f.Path != "" {
		name = filepath.Base(f.Path)
	}
	if name == "" {
		name = field
	}

	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     field,
		"filename": name,
	}))
	h.Set("Content-Type", contentType)

	part, err := writer.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, content)
	return err
}

// stringify renders a parameter value. It reports false for nil values,
// including typed nil pointers, which are left out of query strings and forms.
// Other pointers render the value they point to.
func stringify(v any) (string, bool) {
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", false
		}
		if _, ok := v.(fmt.Stringer); !ok {
			return stringify(rv.Elem().Interface())
		}
	}

	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case []byte:
		return string(val), true
	case bool:
		return strconv.FormatBool(val), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case fmt.Stringer:
		return val.String(), true
	default:
		return fmt.Sprint(val), true
	}
}

