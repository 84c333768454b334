package record

import "fmt"

// IdentityKind discriminates the IdentityKey variants.
type IdentityKind uint8

const (
	// KindNone is the zero kind: no usable identity.
	KindNone IdentityKind = iota
	// KindEmail identifies a student by normalised email.
	KindEmail
	// KindName identifies a student by normalised (first, last) name pair.
	KindName
	// KindExternalID identifies a student by an export's attendee id.
	KindExternalID
)

func (k IdentityKind) String() string {
	switch k {
	case KindEmail:
		return "email"
	case KindName:
		return "name"
	case KindExternalID:
		return "external_id"
	default:
		return "none"
	}
}

// IdentityKey is the derived value used to match rows that describe the same
// student. It is comparable and safe to use as a map key. Construct it with
// ByEmail, ByName or ByExternalID; the zero value means "no identity".
type IdentityKey struct {
	kind      IdentityKind
	primary   string
	secondary string
}

// ByEmail returns an email identity, or the zero key for a blank email.
func ByEmail(email string) IdentityKey {
	e := NormalizeEmail(email)
	if e == "" {
		return IdentityKey{}
	}
	return IdentityKey{kind: KindEmail, primary: e}
}

// ByName returns a name-pair identity. Either half may be blank, not both.
func ByName(first, last string) IdentityKey {
	f, l := NormalizeName(first), NormalizeName(last)
	if f == "" && l == "" {
		return IdentityKey{}
	}
	return IdentityKey{kind: KindName, primary: f, secondary: l}
}

// ByExternalID returns an attendee-id identity, or the zero key for a blank id.
func ByExternalID(id string) IdentityKey {
	id = NormalizeName(id)
	if id == "" {
		return IdentityKey{}
	}
	return IdentityKey{kind: KindExternalID, primary: id}
}

// DeriveKey applies the precedence email → name pair → external id.
func DeriveKey(email, first, last, externalID string) IdentityKey {
	if k := ByEmail(email); !k.IsZero() {
		return k
	}
	if k := ByName(first, last); !k.IsZero() {
		return k
	}
	return ByExternalID(externalID)
}

// Kind reports which variant the key holds.
func (k IdentityKey) Kind() IdentityKind { return k.kind }

// IsZero reports whether the key carries no identity.
func (k IdentityKey) IsZero() bool { return k.kind == KindNone }

// Email returns the normalised email of an email key, else "".
func (k IdentityKey) Email() string {
	if k.kind != KindEmail {
		return ""
	}
	return k.primary
}

func (k IdentityKey) String() string {
	switch k.kind {
	case KindEmail:
		return "email:" + k.primary
	case KindName:
		return fmt.Sprintf("name:%s|%s", k.primary, k.secondary)
	case KindExternalID:
		return "id:" + k.primary
	default:
		return "none"
	}
}
