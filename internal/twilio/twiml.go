package twilio

import (
	"encoding/xml"

	"github.com/Beny9313/whatsapp-ai-bot/internal/errors"
)

// ContentType is the media type Twilio expects for TwiML responses
const ContentType = "text/xml"

type messagingResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

// MessagingResponse renders a TwiML reply carrying one message. XML
// escaping of the body comes from the encoder.
func MessagingResponse(body string) ([]byte, error) {
	out, err := xml.MarshalIndent(messagingResponse{Message: body}, "", "    ")
	if err != nil {
		return nil, errors.Wrap(err, "marshal twiml response")
	}
	return append([]byte(xml.Header), out...), nil
}
