package telephony

import (
	"bytes"
	"encoding/xml"
)

// TwiML is a minimal Twilio Markup Language response builder.
// It intentionally avoids any provider SDK dependency.
//
// Only the verbs the call flow needs are modeled. Every callback handler must
// answer with exactly one rendered Response document; an HTTP error mid-call
// would drop the call, so rendering must always succeed for valid input.

type Response struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type Say struct {
	XMLName  xml.Name `xml:"Say"`
	Language string   `xml:"language,attr,omitempty"`
	Text     string   `xml:",chardata"`
}

type Pause struct {
	XMLName xml.Name `xml:"Pause"`
	// Length is seconds; kept as a string so fractional pauses like "1.5"
	// render the way Twilio accepts them.
	Length string `xml:"length,attr,omitempty"`
}

type Record struct {
	XMLName     xml.Name `xml:"Record"`
	Action      string   `xml:"action,attr"`
	FinishOnKey string   `xml:"finishOnKey,attr,omitempty"`
	// Timeout is the silence timeout in seconds. Zero is meaningful (no
	// silence timeout), so the attribute is always emitted.
	Timeout   int `xml:"timeout,attr"`
	MaxLength int `xml:"maxLength,attr,omitempty"`
}

type Gather struct {
	XMLName   xml.Name `xml:"Gather"`
	Action    string   `xml:"action,attr"`
	NumDigits int      `xml:"numDigits,attr,omitempty"`
	Timeout   int      `xml:"timeout,attr,omitempty"`
	Say       *Say     `xml:"Say,omitempty"`
}

type Redirect struct {
	XMLName xml.Name `xml:"Redirect"`
	URL     string   `xml:",chardata"`
}

type Hangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

func (r *Response) Append(verbs ...any) *Response {
	r.Verbs = append(r.Verbs, verbs...)
	return r
}

func (r *Response) SayText(text, language string) *Response {
	return r.Append(Say{Language: language, Text: text})
}

func (r *Response) PauseFor(length string) *Response {
	return r.Append(Pause{Length: length})
}

// Render serializes the response with the XML header, indented like the
// documents Twilio's own helpers emit.
func (r *Response) Render() (string, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ContentType is the media type for rendered TwiML responses.
const ContentType = "application/xml"
