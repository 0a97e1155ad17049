package glyph

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/latticeglyph/internal/codec"
	"github.com/roach88/latticeglyph/internal/verify"
)

// Encoding is a self-describing encoded text: the path, its digest and
// the exact lattice revision it was produced under. It is safe to store or
// transmit as JSON.
type Encoding struct {
	LatticeID      string     `json:"lattice_id"`
	LatticeVersion int64      `json:"lattice_version"`
	LatticeDigest  string     `json:"lattice_digest"`
	Text           string     `json:"text"`
	Path           codec.Path `json:"path"`
	Digest         string     `json:"digest"`
}

// Verify recomputes the path digest and compares it with e.Digest.
func (e *Encoding) Verify() (bool, error) {
	res, err := verify.Verify(e.Path, e.Digest)
	if err != nil {
		return false, err
	}
	return res == verify.Match, nil
}

// MarshalIndent returns the envelope as indented JSON.
func (e *Encoding) MarshalIndent() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

// ParseEncoding reads an envelope written by MarshalIndent or by
// json.Marshal. An envelope nested under "data" (a CLI JSON response) is
// unwrapped. Unknown fields are rejected.
func ParseEncoding(data []byte) (*Encoding, error) {
	var wrapper struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("parse encoding: %w", err)
	}
	if wrapper.Status != "" && len(wrapper.Data) > 0 {
		data = wrapper.Data
	}

	var e Encoding
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&e); err != nil {
		return nil, fmt.Errorf("parse encoding: %w", err)
	}
	switch {
	case e.LatticeID == "":
		return nil, errors.New("parse encoding: lattice_id is required")
	case e.LatticeVersion < 1:
		return nil, errors.New("parse encoding: lattice_version must be positive")
	case e.Digest == "":
		return nil, errors.New("parse encoding: digest is required")
	}
	return &e, nil
}
