package mdns

import (
	"encoding/base64"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeAnnouncementTXT creates TXT records for an announcement.
func EncodeAnnouncementTXT(a *Announcement) TXTRecordMap {
	version := a.Version
	if version == 0 {
		version = ProtocolVersion
	}
	return TXTRecordMap{
		TXTKeyVersion:       strconv.FormatUint(uint64(version), 10),
		TXTKeyDiscriminator: strconv.FormatUint(uint64(a.Discriminator), 10),
		TXTKeySSID:          a.SSID,
		TXTKeySealed:        base64.StdEncoding.EncodeToString(a.Sealed),
		TXTKeyNonce:         base64.StdEncoding.EncodeToString(a.Nonce),
	}
}

// DecodeAnnouncementTXT parses TXT records of a provisioning announcement.
func DecodeAnnouncementTXT(txt TXTRecordMap) (*Announcement, error) {
	a := &Announcement{}

	vStr, ok := txt[TXTKeyVersion]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyVersion)
	}
	v, err := strconv.ParseUint(vStr, 10, 8)
	if err != nil {
		return nil, fmt.Errorf("%w: version %q", ErrInvalidTXTRecord, vStr)
	}
	if v != ProtocolVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	a.Version = uint8(v)

	dStr, ok := txt[TXTKeyDiscriminator]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyDiscriminator)
	}
	d, err := strconv.ParseUint(dStr, 10, 16)
	if err != nil || d > MaxDiscriminator {
		return nil, ErrInvalidDiscriminator
	}
	a.Discriminator = uint16(d)

	a.SSID, ok = txt[TXTKeySSID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeySSID)
	}

	if a.Sealed, err = decodeField(txt, TXTKeySealed); err != nil {
		return nil, err
	}
	if a.Nonce, err = decodeField(txt, TXTKeyNonce); err != nil {
		return nil, err
	}
	if len(a.Nonce) != chacha20poly1305.NonceSize {
		return nil, fmt.Errorf("%w: nonce is %d bytes", ErrInvalidTXTRecord, len(a.Nonce))
	}

	return a, nil
}

func decodeField(txt TXTRecordMap, key string) ([]byte, error) {
	s, ok := txt[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, key)
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidTXTRecord, key, err)
	}
	return b, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to a sorted slice of
// "key=value" strings, the format used by mDNS libraries.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, k+"="+v)
	}
	sort.Strings(result)
	return result
}

// StringsToTXTRecords parses a slice of "key=value" strings into a TXTRecordMap.
// Only the first "=" separates key from value, so base64 padding survives.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		key, value, found := strings.Cut(s, "=")
		if found {
			txt[key] = value
		} else if key != "" {
			txt[key] = ""
		}
	}
	return txt
}
