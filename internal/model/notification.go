package model

// MaxExcerptLength is the number of characters of the message kept in an alert.
const MaxExcerptLength = 150

// NotificationPayload is the data rendered into an alert.
type NotificationPayload struct {
	Type              OfferType
	SenderName        string
	SenderPhone       string
	GroupName         string
	MessageExcerpt    string
	ConfidencePercent int
}

// Excerpt truncates text to at most n characters.
func Excerpt(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
