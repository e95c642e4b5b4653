package score

import (
	"encoding/hex"
	"encoding/json"

	"github.com/zeebo/blake3"
)

// jsonMarshal is a variable to allow testing of marshal errors.
var jsonMarshal = json.Marshal

// HashBytes computes the BLAKE3 hash of data as a hex string.
func HashBytes(data []byte) string {
	h := blake3.Sum256(data)
	return hex.EncodeToString(h[:])
}

// HashString computes the BLAKE3 hash of s as a hex string.
func HashString(s string) string {
	return HashBytes([]byte(s))
}

// HashDocument hashes the JSON form of an analyzed document. Two analyses of
// the same text with the same options hash identically.
func HashDocument(d *Document) (string, error) {
	data, err := jsonMarshal(d)
	if err != nil {
		return "", err
	}
	return HashBytes(data), nil
}
