package onboarding

import (
	"io"
	"mime"
	"mime/multipart"
	"testing"

	"insurance-service/internal/domain/customer"
	"insurance-service/internal/domain/document"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type part struct {
	name, filename, contentType, body string
}

func readParts(t *testing.T, p *Payload) []part {
	t.Helper()
	_, params, err := mime.ParseMediaType(p.ContentType)
	require.NoError(t, err)

	r := multipart.NewReader(p.Reader(), params["boundary"])
	var parts []part
	for {
		pt, err := r.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		body, err := io.ReadAll(pt)
		require.NoError(t, err)
		parts = append(parts, part{
			name:        pt.FormName(),
			filename:    pt.FileName(),
			contentType: pt.Header.Get("Content-Type"),
			body:        string(body),
		})
	}
	return parts
}

func TestAssembleOmitsPersistedDocuments(t *testing.T) {
	s := NewStaging(KYCPolicy, clock)
	s.LoadPersisted([]document.Record{
		{ID: 1, Type: document.GovernmentID, Name: "passport.pdf"},
		{ID: 2, Type: document.Other, Name: "old-extra.pdf"},
	})
	require.NoError(t, s.Stage(document.ProofOfAddress, File{Name: "bill.png", MIME: "image/png", Data: []byte("PNG")}))
	require.NoError(t, s.AddOther(File{Name: "letter.pdf", MIME: "application/pdf", Data: []byte("PDF1")}))
	require.NoError(t, s.AddOther(File{Name: "deed.pdf", MIME: "application/pdf", Data: []byte("PDF2")}))

	form := customer.Form{Personal: customer.Personal{FirstName: "Jane"}, Policy: customer.PolicySelection{PolicyID: 5}}
	payload, err := Assemble(form, s)
	require.NoError(t, err)

	parts := readParts(t, payload)
	scalars := map[string]string{}
	var files []part
	var otherNames []string
	for _, p := range parts {
		switch {
		case p.filename != "":
			files = append(files, p)
		case p.name == document.OtherNamesField:
			otherNames = append(otherNames, p.body)
		default:
			scalars[p.name] = p.body
		}
	}

	assert.Equal(t, "Jane", scalars["first_name"])
	assert.Equal(t, "5", scalars["policy_id"])

	require.Len(t, files, 3)
	assert.Equal(t, "proof_of_address", files[0].name)
	assert.Equal(t, "image/png", files[0].contentType)
	assert.Equal(t, "PNG", files[0].body)
	assert.Equal(t, document.OtherFilesField, files[1].name)
	assert.Equal(t, document.OtherFilesField, files[2].name)
	assert.Equal(t, []string{"letter.pdf", "deed.pdf"}, otherNames)

	for _, f := range files {
		assert.NotEqual(t, "government_id", f.name)
		assert.NotEqual(t, "passport.pdf", f.filename)
		assert.NotEqual(t, "old-extra.pdf", f.filename)
	}
}

func TestAssembleWithoutDocuments(t *testing.T) {
	payload, err := Assemble(customer.Form{}, nil)
	require.NoError(t, err)
	for _, p := range readParts(t, payload) {
		assert.Empty(t, p.filename)
	}
}

func TestAssembleFiles(t *testing.T) {
	p, err := AssembleFiles("documents",
		&document.Pending{Name: "a.pdf", MIME: "application/pdf", Data: []byte("%PDF-1")},
		&document.Pending{Name: "b.png", MIME: "image/png", Data: []byte("png")},
	)
	require.NoError(t, err)

	parts := readParts(t, p)
	require.Len(t, parts, 2)
	assert.Equal(t, part{"documents", "a.pdf", "application/pdf", "%PDF-1"}, parts[0])
	assert.Equal(t, "b.png", parts[1].filename)
}
