package contact

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"slices"
	"strings"
)

// Language selects the response strings. Only en and no are known.
type Language string

const (
	LangEN Language = "en"
	LangNO Language = "no"
)

// ParseLanguage maps any unrecognized value to English
func ParseLanguage(s string) Language {
	if Language(strings.ToLower(strings.TrimSpace(s))) == LangNO {
		return LangNO
	}
	return LangEN
}

// FormType identifies which site form produced the submission
type FormType string

const (
	FormContact  FormType = "contact"
	FormSupport  FormType = "support"
	FormSecurity FormType = "security"
)

var formLabels = map[FormType]string{
	FormContact:  "Contact",
	FormSupport:  "Support",
	FormSecurity: "Security",
}

// Label returns the subject label for the form type
func (f FormType) Label() string {
	if l, ok := formLabels[f]; ok {
		return l
	}
	return formLabels[FormContact]
}

// captchaFields are the body keys the site widgets use for the CAPTCHA token.
var captchaFields = []string{"cf-turnstile-response", "turnstileToken", "captchaToken"}

// isCaptchaField reports whether key holds a CAPTCHA token
func isCaptchaField(key string) bool {
	return slices.Contains(captchaFields, key)
}

// Submission is a single form post. It lives for one request only.
type Submission struct {
	Email        string `validate:"required,contactemail"`
	Message      string `validate:"required"`
	FirstName    string
	LastName     string
	Name         string
	Company      string
	Phone        string
	FormType     FormType
	Language     Language
	CaptchaToken string

	// Fields holds every decoded key, including ones without a typed field.
	Fields map[string]any
	// Raw is the request body as received.
	Raw json.RawMessage
}

var (
	errNotObject    = errors.New("request body must be a JSON object")
	errTrailingData = errors.New("request body has data after the JSON object")
)

// ParseSubmission decodes a JSON object body. Unknown keys are preserved in
// Fields for the email body.
func ParseSubmission(raw []byte) (*Submission, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, &Error{Kind: KindUserInput, Key: MsgInvalidBody, Err: err}
	}
	if fields == nil {
		return nil, &Error{Kind: KindUserInput, Key: MsgInvalidBody, Err: errNotObject}
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, &Error{Kind: KindUserInput, Key: MsgInvalidBody, Err: errTrailingData}
	}

	sub := &Submission{
		Email:     stringField(fields, "email"),
		Message:   stringField(fields, "message"),
		FirstName: stringField(fields, "firstName"),
		LastName:  stringField(fields, "lastName"),
		Name:      stringField(fields, "name"),
		Company:   stringField(fields, "company"),
		Phone:     stringField(fields, "phone"),
		FormType:  FormType(strings.ToLower(stringField(fields, "formType"))),
		Language:  ParseLanguage(stringField(fields, "language")),
		Fields:    fields,
		Raw:       json.RawMessage(raw),
	}
	if sub.FormType == "" {
		sub.FormType = FormContact
	}
	for _, k := range captchaFields {
		if tok := stringField(fields, k); tok != "" {
			sub.CaptchaToken = tok
			break
		}
	}
	return sub, nil
}

func stringField(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		if v {
			return "true"
		}
	}
	return ""
}

// truthy follows the loose truthiness of the browser payloads: empty
// strings, zero, false and null are skipped in the field listing.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	default:
		return true
	}
}

func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
