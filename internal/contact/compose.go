package contact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"contact-relay-go/internal/mailer"
)

// DisplayName is "first last" when both are set, else name, else "Unknown"
func DisplayName(sub *Submission) string {
	if sub.FirstName != "" && sub.LastName != "" {
		return sub.FirstName + " " + sub.LastName
	}
	if sub.Name != "" {
		return sub.Name
	}
	return "Unknown"
}

// Compose builds the relay message for a validated submission
func Compose(sub *Submission, recipient mailer.Address) *mailer.Message {
	name := DisplayName(sub)
	return &mailer.Message{
		To:      recipient,
		ReplyTo: mailer.Address{Email: sub.Email, Name: name},
		Subject: fmt.Sprintf("%s form submission from %s", sub.FormType.Label(), name),
		Body:    composeBody(sub),
	}
}

func composeBody(sub *Submission) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("New %s form submission\n\n", sub.FormType.Label()))
	b.WriteString("Message:\n")
	b.WriteString(sub.Message)
	b.WriteString("\n\n")

	b.WriteString("Submission details:\n")
	keys := make([]string, 0, len(sub.Fields))
	for k, v := range sub.Fields {
		if k == "message" || isCaptchaField(k) || !truthy(v) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(fmt.Sprintf("- %s: %s\n", k, formatValue(sub.Fields[k])))
	}

	b.WriteString("\nRaw submission:\n")
	b.WriteString(prettyJSON(sub))
	b.WriteString("\n")

	return b.String()
}

func prettyJSON(sub *Submission) string {
	var buf bytes.Buffer
	if len(sub.Raw) > 0 {
		if err := json.Indent(&buf, sub.Raw, "", "  "); err == nil {
			return buf.String()
		}
	}
	out, err := json.MarshalIndent(sub.Fields, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(out)
}
