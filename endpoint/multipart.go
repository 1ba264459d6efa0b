package endpoint

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
)

// FormData builds a multipart/form-data upload body. Parts are written in
// the order they are appended.
type FormData struct {
	parts []formPart
}

type formPart struct {
	name        string
	fileName    string
	contentType string
	value       string
	data        []byte
	reader      io.Reader
	path        string
	isFile      bool
}

// AppendField adds a plain form field.
func (f *FormData) AppendField(name, value string) {
	f.parts = append(f.parts, formPart{name: name, value: value})
}

// AppendData adds a file part with in-memory content.
func (f *FormData) AppendData(name, fileName, contentType string, data []byte) {
	f.parts = append(f.parts, formPart{
		name: name, fileName: fileName, contentType: contentType, data: data, isFile: true,
	})
}

// AppendReader adds a file part whose content is read from r when the
// body is encoded.
func (f *FormData) AppendReader(name, fileName, contentType string, r io.Reader) {
	f.parts = append(f.parts, formPart{
		name: name, fileName: fileName, contentType: contentType, reader: r, isFile: true,
	})
}

// AppendFile adds the file at path. The base name is sent as the file name.
func (f *FormData) AppendFile(name, path, contentType string) {
	f.parts = append(f.parts, formPart{
		name: name, fileName: filepath.Base(path), contentType: contentType, path: path, isFile: true,
	})
}

// Len returns the number of parts.
func (f *FormData) Len() int { return len(f.parts) }

// encode builds the body and returns it with its Content-Type header.
func (f *FormData) encode() (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, p := range f.parts {
		if !p.isFile {
			if err := w.WriteField(p.name, p.value); err != nil {
				return nil, "", err
			}
			continue
		}

		var part io.Writer
		var err error
		if p.contentType != "" {
			header := make(textproto.MIMEHeader)
			header.Set("Content-Disposition",
				`form-data; name="`+escapeQuotes(p.name)+`"; filename="`+escapeQuotes(p.fileName)+`"`)
			header.Set("Content-Type", p.contentType)
			part, err = w.CreatePart(header)
		} else {
			part, err = w.CreateFormFile(p.name, p.fileName)
		}
		if err != nil {
			return nil, "", err
		}
		if err := p.writeTo(part); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func (p formPart) writeTo(w io.Writer) error {
	switch {
	case p.path != "":
		file, err := os.Open(p.path)
		if err != nil {
			return err
		}
		defer func() { _ = file.Close() }()
		_, err = io.Copy(w, file)
		return err
	case p.reader != nil:
		_, err := io.Copy(w, p.reader)
		return err
	default:
		_, err := w.Write(p.data)
		return err
	}
}

// escapeQuotes escapes quotes and backslashes in header parameter values.
func escapeQuotes(s string) string {
	var buf bytes.Buffer
	for _, b := range []byte(s) {
		if b == '"' || b == '\\' {
			buf.WriteByte('\\')
		}
		buf.WriteByte(b)
	}
	return buf.String()
}
