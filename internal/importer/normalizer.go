package importer

import "strings"

// Record holds the canonical fields resolved from a decoded row.
type Record struct {
	Line      int
	Email     string
	FirstName string
	LastName  string
	Phone     string
	Role      string
}

// Accepted header spellings per canonical field, probed in order; the first
// non-empty value wins. Keys are matched against the decoder's lower-cased
// header names, so every alias here is lower-case.
var (
	emailAliases     = []string{"email", "e-mail", "e_mail"}
	firstNameAliases = []string{"nome", "first_name", "firstname", "name", "primeiro_nome"}
	lastNameAliases  = []string{"sobrenome", "last_name", "lastname", "surname", "ultimo_nome"}
	phoneAliases     = []string{"telefone", "phone", "celular", "whatsapp"}
	roleAliases      = []string{"funcao", "função", "role", "papel", "perfil"}
)

// Normalize resolves a row's aliased fields into a Record. Role defaults to
// "member" and is lower-cased; constraining it to the role enumeration is the
// invitation issuer's job, so unexpected values surface downstream instead of
// being silently dropped here.
func Normalize(row Row) Record {
	rec := Record{
		Line:      row.Line,
		Email:     probe(row.Fields, emailAliases),
		FirstName: probe(row.Fields, firstNameAliases),
		LastName:  probe(row.Fields, lastNameAliases),
		Phone:     probe(row.Fields, phoneAliases),
		Role:      strings.ToLower(probe(row.Fields, roleAliases)),
	}
	if rec.Role == "" {
		rec.Role = "member"
	}
	return rec
}

func probe(fields map[string]string, aliases []string) string {
	for _, key := range aliases {
		if value := strings.TrimSpace(fields[key]); value != "" {
			return value
		}
	}
	return ""
}
