package credentials

import "strings"

// NormalizeHandle canonicalises a login handle. Staff usernames are trimmed
// and lower-cased. Client phone numbers keep their digits and a leading "+",
// so "+351 912-345-678" and "+351912345678" are the same client.
func NormalizeHandle(partition Partition, handle string) string {
	handle = strings.TrimSpace(handle)
	if partition == PartitionClient {
		return NormalizePhone(handle)
	}
	return strings.ToLower(handle)
}

// NormalizePhone strips everything except digits and a leading plus sign.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	var b strings.Builder
	for i, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
