package mail

import (
	"bytes"
	"fmt"
	"io"
	"time"

	gomail "github.com/emersion/go-message/mail"
)

// Message is a report mail before MIME encoding
type Message struct {
	From     string
	To       string
	Subject  string
	Fallback string
	HTML     string
	Date     time.Time
}

// FallbackText is the plain text part shown by clients that cannot render HTML
func FallbackText(supportAddress string) string {
	return fmt.Sprintf("Kontakta %s om du ser den här texten!", supportAddress)
}

// Build encodes the message as multipart/alternative with a plain text
// fallback part followed by the HTML part.
func (m Message) Build() ([]byte, error) {
	var h gomail.Header
	date := m.Date
	if date.IsZero() {
		date = time.Now()
	}
	h.SetDate(date)
	h.SetAddressList("From", []*gomail.Address{{Address: m.From}})
	h.SetAddressList("To", []*gomail.Address{{Address: m.To}})
	h.SetSubject(m.Subject)

	var buf bytes.Buffer
	w, err := gomail.CreateInlineWriter(&buf, h)
	if err != nil {
		return nil, err
	}

	if err := writePart(w, "text/plain", m.Fallback); err != nil {
		return nil, err
	}
	if err := writePart(w, "text/html", m.HTML); err != nil {
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writePart(w *gomail.InlineWriter, contentType, body string) error {
	var ph gomail.InlineHeader
	ph.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	ph.Set("Content-Transfer-Encoding", "quoted-printable")

	pw, err := w.CreatePart(ph)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(pw, body); err != nil {
		_ = pw.Close()
		return err
	}
	return pw.Close()
}
