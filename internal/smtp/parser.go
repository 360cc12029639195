package smtp

import (
	"bytes"
	"io"
	"regexp"
	"strings"

	"github.com/jhillyerd/enmime"
)

var (
	fromHeaderRe  = regexp.MustCompile(`^(?:"?([^"<]*)"?\s*)?<?([^<>]+@[^<>]+)>?$`)
	scriptStyleRe = regexp.MustCompile(`(?i)<script[^>]*>[\s\S]*?</script>|<style[^>]*>[\s\S]*?</style>`)
	htmlTagRe     = regexp.MustCompile(`<[^>]*>`)
)

// snippetMaxLen caps the stored preview snippet.
const snippetMaxLen = 255

// ParsedEmail holds the decoded parts of an inbound message. To carries the
// raw To header; routing decides between it and the envelope recipient.
type ParsedEmail struct {
	SenderEmail string
	SenderName  string
	To          string
	Subject     string
	Snippet     string
	BodyText    string
	BodyHTML    string
	Attachments []ParsedAttachment
}

// ParsedAttachment is a single decoded attachment part.
type ParsedAttachment struct {
	Filename    string
	ContentType string
	Content     io.Reader
	Size        int64
}

// ParseEmail decodes a raw RFC 5322 message into a ParsedEmail.
func ParseEmail(r io.Reader) (*ParsedEmail, error) {
	env, err := enmime.ReadEnvelope(r)
	if err != nil {
		return nil, err
	}

	parsed := &ParsedEmail{
		To:       env.GetHeader("To"),
		Subject:  env.GetHeader("Subject"),
		BodyText: env.Text,
		BodyHTML: env.HTML,
	}
	parsed.SenderName, parsed.SenderEmail = parseFromHeader(env.GetHeader("From"))
	parsed.Snippet = generateSnippet(parsed.BodyText, parsed.BodyHTML)

	for _, att := range env.Attachments {
		parsed.addAttachment(att)
	}
	// Inline parts without a filename are embedded content, not attachments
	for _, att := range env.Inlines {
		if att.FileName != "" {
			parsed.addAttachment(att)
		}
	}

	return parsed, nil
}

func (p *ParsedEmail) addAttachment(att *enmime.Part) {
	p.Attachments = append(p.Attachments, ParsedAttachment{
		Filename:    att.FileName,
		ContentType: att.ContentType,
		Content:     bytes.NewReader(att.Content),
		Size:        int64(len(att.Content)),
	})
}

// parseFromHeader splits a From header into display name and address.
// Accepts `"Name" <addr>`, `Name <addr>`, and bare addresses.
func parseFromHeader(from string) (name, email string) {
	from = strings.TrimSpace(from)
	if from == "" {
		return "", ""
	}

	matches := fromHeaderRe.FindStringSubmatch(from)
	if len(matches) >= 3 {
		name = strings.Trim(strings.TrimSpace(matches[1]), `"`)
		email = strings.TrimSpace(matches[2])
		return name, email
	}

	// No angle brackets and no recognizable shape, treat the whole thing
	// as the address
	return "", from
}

// generateSnippet builds the list-view preview from the message body,
// preferring plain text over stripped HTML.
func generateSnippet(bodyText, bodyHTML string) string {
	var text string
	if bodyText != "" {
		text = bodyText
	} else if bodyHTML != "" {
		text = stripHTMLTags(bodyHTML)
	}

	text = strings.Join(strings.Fields(text), " ")
	text = strings.TrimSpace(text)

	if len(text) > snippetMaxLen {
		text = text[:snippetMaxLen-3] + "..."
	}

	return text
}

// stripHTMLTags reduces an HTML body to its visible text.
func stripHTMLTags(html string) string {
	html = scriptStyleRe.ReplaceAllString(html, "")
	html = htmlTagRe.ReplaceAllString(html, " ")

	replacer := strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
	)
	return replacer.Replace(html)
}
