package telephony

import "net/http"

// Twilio posts voice webhooks as application/x-www-form-urlencoded.
// These parsers capture only the fields the call flow needs; business logic
// (routing decisions) is not made here.

// VoiceForm is the Call-Start webhook payload subset.
type VoiceForm struct {
	CallSID string
	From    string
	To      string
}

func ParseVoiceForm(r *http.Request) (VoiceForm, error) {
	if err := r.ParseForm(); err != nil {
		return VoiceForm{}, err
	}
	return VoiceForm{
		CallSID: r.PostFormValue("CallSid"),
		From:    r.PostFormValue("From"),
		To:      r.PostFormValue("To"),
	}, nil
}

// RecordingForm is the payload posted when a Record verb finishes.
type RecordingForm struct {
	CallSID      string
	RecordingSID string
	RecordingURL string
}

func ParseRecordingForm(r *http.Request) (RecordingForm, error) {
	if err := r.ParseForm(); err != nil {
		return RecordingForm{}, err
	}
	return RecordingForm{
		CallSID:      r.PostFormValue("CallSid"),
		RecordingSID: r.PostFormValue("RecordingSid"),
		RecordingURL: r.PostFormValue("RecordingUrl"),
	}, nil
}

// ParseDigits returns the Gather digit input. Twilio only fires the Gather
// callback on an actual key press; the no-input fallback arrives via a
// Redirect that appends Digits explicitly, and anything still missing
// defaults to defaultDigits.
func ParseDigits(r *http.Request, defaultDigits string) (string, error) {
	if err := r.ParseForm(); err != nil {
		return "", err
	}
	if d := r.PostFormValue("Digits"); d != "" {
		return d, nil
	}
	// Redirect fallbacks carry Digits in the query string.
	if d := r.URL.Query().Get("Digits"); d != "" {
		return d, nil
	}
	return defaultDigits, nil
}
