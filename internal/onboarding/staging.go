package onboarding

import (
	"fmt"
	"time"

	"insurance-service/internal/domain/document"
	xerrors "insurance-service/internal/pkg/errors"
)

// StagePolicy bounds what may be staged. A nil Allowed set accepts any type.
type StagePolicy struct {
	MaxBytes int64
	Allowed  map[string]bool
}

// KYCPolicy applies to customer identity documents.
var KYCPolicy = StagePolicy{
	MaxBytes: 10 * 1024 * 1024,
	Allowed: map[string]bool{
		"image/jpeg":      true,
		"image/jpg":       true,
		"image/png":       true,
		"image/gif":       true,
		"application/pdf": true,
	},
}

// ClaimPolicy applies to claim evidence.
var ClaimPolicy = StagePolicy{MaxBytes: 5 * 1024 * 1024}

// Check returns ErrUnsupportedFileType or ErrFileTooLarge, wrapped with detail.
func (p StagePolicy) Check(name, mime string, size int64) error {
	if p.Allowed != nil && !p.Allowed[mime] {
		return fmt.Errorf("%s (%s): %w", name, mime, xerrors.ErrUnsupportedFileType)
	}
	if size > p.MaxBytes {
		return fmt.Errorf("%s is %d bytes, limit %d: %w", name, size, p.MaxBytes, xerrors.ErrFileTooLarge)
	}
	return nil
}

// File is a user-selected file before staging.
type File struct {
	Name string
	MIME string
	Data []byte
}

// Staging holds the documents of one customer until submission. Keyed
// types hold at most one document; "other" documents form a list.
type Staging struct {
	policy StagePolicy
	now    func() time.Time
	keyed  map[document.Type]document.Document
	others []document.Document
}

func NewStaging(policy StagePolicy, now func() time.Time) *Staging {
	if now == nil {
		now = time.Now
	}
	return &Staging{
		policy: policy,
		now:    now,
		keyed:  make(map[document.Type]document.Document),
	}
}

func (s *Staging) pending(f File) (*document.Pending, error) {
	size := int64(len(f.Data))
	if err := s.policy.Check(f.Name, f.MIME, size); err != nil {
		return nil, err
	}
	return &document.Pending{
		Name:       f.Name,
		MIME:       f.MIME,
		Size:       size,
		Data:       f.Data,
		UploadDate: s.now(),
	}, nil
}

// Stage puts f under t, replacing what was there. A rejected file leaves
// the previous entry in place.
func (s *Staging) Stage(t document.Type, f File) error {
	if _, ok := document.ParseKeyed(string(t)); !ok {
		return fmt.Errorf("document type %q: %w", t, xerrors.ErrInvalidInput)
	}
	p, err := s.pending(f)
	if err != nil {
		return err
	}
	s.keyed[t] = p
	return nil
}

// AddOther appends f to the "other documents" list.
func (s *Staging) AddOther(f File) error {
	p, err := s.pending(f)
	if err != nil {
		return err
	}
	s.others = append(s.others, p)
	return nil
}

// RemoveOther drops the i-th other document.
func (s *Staging) RemoveOther(i int) {
	if i < 0 || i >= len(s.others) {
		return
	}
	s.others = append(s.others[:i], s.others[i+1:]...)
}

// Remove clears the keyed document of type t.
func (s *Staging) Remove(t document.Type) {
	delete(s.keyed, t)
}

// LoadPersisted replaces the staging content with stored records.
func (s *Staging) LoadPersisted(records []document.Record) {
	s.keyed = make(map[document.Type]document.Document)
	s.others = nil
	for _, r := range records {
		if r.SupersededAt != nil {
			continue
		}
		if r.Type == document.Other {
			s.others = append(s.others, r.Persisted())
			continue
		}
		s.keyed[r.Type] = r.Persisted()
	}
}

func (s *Staging) Get(t document.Type) (document.Document, bool) {
	d, ok := s.keyed[t]
	return d, ok
}

// Has reports presence, persisted or pending.
func (s *Staging) Has(t document.Type) bool {
	_, ok := s.keyed[t]
	return ok
}

func (s *Staging) Others() []document.Document {
	return s.others
}
