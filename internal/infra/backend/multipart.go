package backend

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// Field is one text field of a multipart form.
type Field struct {
	Name  string
	Value string
}

// FilePart is one uploaded file.
type FilePart struct {
	FieldName   string
	Filename    string
	ContentType string
	Data        []byte
}

// MultipartPayload encodes fields and files as multipart/form-data, in order.
func MultipartPayload(fields []Field, files ...FilePart) (Payload, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range fields {
		if err := w.WriteField(f.Name, f.Value); err != nil {
			return Payload{}, fmt.Errorf("write field %s: %w", f.Name, err)
		}
	}
	for _, file := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, escapeQuotes(file.FieldName), escapeQuotes(file.Filename)))
		contentType := file.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)
		part, err := w.CreatePart(header)
		if err != nil {
			return Payload{}, fmt.Errorf("create part %s: %w", file.FieldName, err)
		}
		if _, err := part.Write(file.Data); err != nil {
			return Payload{}, fmt.Errorf("write part %s: %w", file.FieldName, err)
		}
	}
	if err := w.Close(); err != nil {
		return Payload{}, err
	}
	return Payload{Body: buf.Bytes(), ContentType: w.FormDataContentType()}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
