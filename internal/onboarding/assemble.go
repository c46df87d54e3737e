package onboarding

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"

	"insurance-service/internal/domain/customer"
	"insurance-service/internal/domain/document"
)

// Payload is a ready-to-send multipart body.
type Payload struct {
	ContentType string
	Body        []byte
}

func (p *Payload) Reader() io.Reader {
	return bytes.NewReader(p.Body)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Assemble writes every scalar field as a text part and every pending
// document as a file part. Persisted documents are left out so the server
// keeps its stored copy.
func Assemble(form customer.Form, docs *Staging) (*Payload, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range form.Fields() {
		if err := w.WriteField(f.Key, f.Value); err != nil {
			return nil, fmt.Errorf("write field %s: %w", f.Key, err)
		}
	}

	if docs != nil {
		for _, t := range document.Keyed {
			d, ok := docs.Get(t)
			if !ok {
				continue
			}
			p, ok := d.(*document.Pending)
			if !ok {
				continue
			}
			if err := writeFile(w, string(t), p); err != nil {
				return nil, err
			}
		}

		for _, d := range docs.Others() {
			p, ok := d.(*document.Pending)
			if !ok {
				continue
			}
			if err := writeFile(w, document.OtherFilesField, p); err != nil {
				return nil, err
			}
			if err := w.WriteField(document.OtherNamesField, p.Name); err != nil {
				return nil, err
			}
		}
	}

	if err := w.Close(); err != nil {
		return nil, err
	}
	return &Payload{ContentType: w.FormDataContentType(), Body: buf.Bytes()}, nil
}

func writeFile(w *multipart.Writer, field string, p *document.Pending) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(p.Name)))
	h.Set("Content-Type", p.MIME)

	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create part %s: %w", field, err)
	}
	if _, err := part.Write(p.Data); err != nil {
		return fmt.Errorf("write part %s: %w", field, err)
	}
	return nil
}

// AssembleFiles builds a body holding only file parts under field, as used
// by claim evidence uploads.
func AssembleFiles(field string, files ...*document.Pending) (*Payload, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, p := range files {
		if err := writeFile(w, field, p); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return &Payload{ContentType: w.FormDataContentType(), Body: buf.Bytes()}, nil
}
