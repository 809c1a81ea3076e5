// Package attest submits processed payload records to an attestation
// backend and returns opaque receipts.
//
// The protocol core treats the backend as a collaborator: it hands over
// canonical bytes plus the derived digest and signature, and gets back a
// record identifier it can later dereference. This package ships a CAS
// backed submitter; other backends integrate by implementing Submitter.
package attest

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"locproto.dev/lp/storage"
)

// Submission is a fully processed payload record ready for attestation.
// CanonicalBytes is authoritative; Digest and Signature are carried so the
// backend can persist them alongside the record without re-deriving.
type Submission struct {
	CanonicalBytes []byte
	Digest         []byte
	Signature      []byte
	SignerKey      string

	// Metadata is optional backend-specific context (chain, channel,
	// tenant). It never participates in hashing.
	Metadata map[string]string
}

// Receipt acknowledges an accepted submission. RecordID is the stable
// content address of the canonical bytes; ReceiptID identifies this
// particular submission event.
type Receipt struct {
	RecordID    string
	ReceiptID   string
	SubmittedAt time.Time
}

// Submitter delivers a record to an attestation backend.
type Submitter interface {
	Submit(sub Submission) (*Receipt, error)
}

var errEmptySubmission = errors.New("attest: empty canonical bytes")

// CASSubmitter stores canonical record bytes in a content-addressable
// store. The record ID in the receipt is the CAS CID.
type CASSubmitter struct {
	cas storage.CAS
	log zerolog.Logger
	now func() time.Time
}

// NewCASSubmitter wires a submitter to cas. logger may be nil to disable
// logging.
func NewCASSubmitter(cas storage.CAS, logger *zerolog.Logger) (*CASSubmitter, error) {
	if cas == nil {
		return nil, errors.New("attest: nil CAS")
	}
	s := &CASSubmitter{cas: cas, log: zerolog.Nop(), now: time.Now}
	if logger != nil {
		s.log = *logger
	}
	return s, nil
}

func (s *CASSubmitter) Submit(sub Submission) (*Receipt, error) {
	if len(sub.CanonicalBytes) == 0 {
		return nil, errEmptySubmission
	}
	id, err := s.cas.Put(sub.CanonicalBytes)
	if err != nil {
		return nil, err
	}
	rcpt := &Receipt{
		RecordID:    id.String(),
		ReceiptID:   uuid.NewString(),
		SubmittedAt: s.now().UTC(),
	}
	s.log.Info().
		Str("record_id", rcpt.RecordID).
		Str("receipt_id", rcpt.ReceiptID).
		Str("signer", sub.SignerKey).
		Int("bytes", len(sub.CanonicalBytes)).
		Msg("record submitted")
	return rcpt, nil
}
