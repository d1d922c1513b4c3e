package services

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"certgen/config"
	. "certgen/internal/models"

	"golang.org/x/crypto/blake2b"
)

// CertificateID derives the storage id for the row at index in the valid
// sequence. The positional scheme repeats across uploads with the same name at
// the same index; the hashed scheme appends a content hash.
func CertificateID(row RosterRow, index int, scheme string) string {
	id := fmt.Sprintf("%s_%d", row.Name, index)
	if scheme != config.IDSchemeHashed {
		return id
	}

	sum := blake2b.Sum256([]byte(strings.Join([]string{row.Name, row.Event, row.Date}, "\x1f")))
	return id + "_" + hex.EncodeToString(sum[:4])
}

// VerificationReference is the string encoded in the QR code.
func VerificationReference(baseURL, id string) string {
	return strings.TrimRight(baseURL, "/") + "/verify/" + url.PathEscape(id)
}

// Digest is the hex blake2b-256 of an artifact.
func Digest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}
