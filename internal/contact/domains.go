package contact

import "strings"

// consumerDomains are free-mail providers rejected for lead forms.
var consumerDomains = map[string]struct{}{
	// global
	"gmail.com":      {},
	"googlemail.com": {},
	"yahoo.com":      {},
	"yahoo.co.uk":    {},
	"ymail.com":      {},
	"rocketmail.com": {},
	"hotmail.com":    {},
	"hotmail.co.uk":  {},
	"outlook.com":    {},
	"live.com":       {},
	"msn.com":        {},
	"aol.com":        {},
	"icloud.com":     {},
	"me.com":         {},
	"mac.com":        {},
	"protonmail.com": {},
	"proton.me":      {},
	"pm.me":          {},
	"tutanota.com":   {},
	"zoho.com":       {},
	"mail.com":       {},
	"gmx.com":        {},
	"gmx.net":        {},
	"gmx.de":         {},
	"web.de":         {},
	"yandex.com":     {},
	"yandex.ru":      {},
	"mail.ru":        {},
	"qq.com":         {},
	"163.com":        {},
	"fastmail.com":   {},
	"hey.com":        {},

	// nordic
	"hotmail.no":   {},
	"outlook.no":   {},
	"live.no":      {},
	"yahoo.no":     {},
	"online.no":    {},
	"start.no":     {},
	"frisurf.no":   {},
	"getmail.no":   {},
	"c2i.net":      {},
	"broadpark.no": {},
	"hotmail.se":   {},
	"telia.com":    {},
	"hotmail.dk":   {},
	"live.dk":      {},
}

// EmailDomain returns the lower-cased part after the last '@'
func EmailDomain(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	i := strings.LastIndex(email, "@")
	if i < 0 {
		return ""
	}
	return email[i+1:]
}

// IsConsumerDomain reports whether domain belongs to a free-mail provider
func IsConsumerDomain(domain string) bool {
	_, ok := consumerDomains[strings.ToLower(domain)]
	return ok
}
