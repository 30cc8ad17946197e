package pixvault

// AccountStatus is the lifecycle state of an account. The numeric values
// are the persisted wire values and cannot change.
type AccountStatus int8

const (
	// StatusRejected marks an account whose review was declined. It keeps
	// the permissions of a pending account.
	StatusRejected AccountStatus = -2
	// StatusPending marks a registration awaiting administrator review.
	StatusPending AccountStatus = -1
	// StatusDisabled blocks every authenticated operation for the account.
	StatusDisabled AccountStatus = 0
	// StatusActive is a fully usable account.
	StatusActive AccountStatus = 1
)

// Account is the typed view of one account record. Field semantics are
// owned here; the physical hash layout is owned by the storage layer.
type Account struct {
	Username     string
	PasswordHash string
	IsAdmin      bool
	Status       AccountStatus
	Avatar       string
	Nickname     string
	CTime        int64

	// TokenKey is the optional secondary signing secret. When set, API
	// tokens signed with it stay valid across password changes and can be
	// revoked independently by rotating just this key.
	TokenKey string
}

// accountFields is the fixed field set fetched for an account read.
var accountFields = []string{
	"username", "password", "is_admin", "status",
	"avatar", "nickname", "ctime", "token_key",
}

func accountFromRecord(m map[string]any) *Account {
	return &Account{
		Username:     fieldString(m, "username", ""),
		PasswordHash: fieldString(m, "password", ""),
		IsAdmin:      fieldInt(m, "is_admin", 0) == 1,
		Status:       AccountStatus(fieldInt(m, "status", int64(StatusActive))),
		Avatar:       fieldString(m, "avatar", ""),
		Nickname:     fieldString(m, "nickname", ""),
		CTime:        fieldInt(m, "ctime", 0),
		TokenKey:     fieldString(m, "token_key", ""),
	}
}

// fieldString reads an optional text field with a default. Decoded
// numbers are not coerced back to text; a non-string value yields def.
func fieldString(m map[string]any, name, def string) string {
	v, ok := m[name]
	if !ok || v == nil {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	return s
}

// fieldInt reads an optional numeric field with a default. The codec
// decodes numbers as float64; stored-as-text digits arrive the same way.
func fieldInt(m map[string]any, name string, def int64) int64 {
	v, ok := m[name]
	if !ok || v == nil {
		return def
	}
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return def
	}
}

// truthy mirrors the console's loose boolean convention for config
// values: "1", "true", "on", "yes" (and their decoded forms) are true.
func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x == 1
	case string:
		switch x {
		case "1", "true", "True", "on", "yes":
			return true
		}
	}
	return false
}
