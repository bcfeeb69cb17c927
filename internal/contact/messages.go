package contact

// MessageKey names a response string
type MessageKey int

const (
	MsgSuccess MessageKey = iota
	MsgMissingFields
	MsgInvalidEmail
	MsgInvalidBody
	MsgCompanyEmail
	MsgTooManyRequests
	MsgCaptchaFailed
	MsgSendFailed
	MsgAuthFailed
	MsgInternal
	MsgMethodNotAllowed
)

var userMessages = map[Language]map[MessageKey]string{
	LangEN: {
		MsgSuccess:         "Thank you! Your message has been sent. We will get back to you shortly.",
		MsgMissingFields:   "Missing required fields",
		MsgInvalidEmail:    "Please enter a valid email address",
		MsgInvalidBody:     "Invalid request body",
		MsgCompanyEmail:    "Please use your company email address",
		MsgTooManyRequests: "Too many requests. Please try again later.",
		MsgCaptchaFailed:   "CAPTCHA verification failed. Please try again.",
		MsgSendFailed:      "Failed to send message. Please try again later.",
	},
	LangNO: {
		MsgSuccess:         "Takk! Meldingen din er sendt. Vi tar kontakt med deg snart.",
		MsgMissingFields:   "Mangler påkrevde felt",
		MsgInvalidEmail:    "Vennligst oppgi en gyldig e-postadresse",
		MsgInvalidBody:     "Ugyldig forespørsel",
		MsgCompanyEmail:    "Vennligst bruk din bedrifts e-postadresse",
		MsgTooManyRequests: "For mange forespørsler. Vennligst prøv igjen senere.",
		MsgCaptchaFailed:   "CAPTCHA-verifisering mislyktes. Vennligst prøv igjen.",
		MsgSendFailed:      "Kunne ikke sende meldingen. Vennligst prøv igjen senere.",
	},
}

// infraMessages are never localized.
var infraMessages = map[MessageKey]string{
	MsgAuthFailed:       "Internal server error",
	MsgInternal:         "Internal server error",
	MsgMethodNotAllowed: "Method not allowed",
}

// Localize returns the string for key in lang, falling back to English
func Localize(lang Language, key MessageKey) string {
	if msg, ok := infraMessages[key]; ok {
		return msg
	}
	table, ok := userMessages[lang]
	if !ok {
		table = userMessages[LangEN]
	}
	if msg, ok := table[key]; ok {
		return msg
	}
	return userMessages[LangEN][key]
}
