package telephony

import (
	"strings"
	"testing"
)

func TestRender_SayRecord(t *testing.T) {
	var r Response
	r.SayText("お名前を教えてください。", "ja-JP")
	r.Append(Record{Action: "/twilio/record_callback?scenario_id=sc1&q_curr=q1", FinishOnKey: "#", Timeout: 0, MaxLength: 180})

	xml, err := r.Render()
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	for _, want := range []string{
		`<Say language="ja-JP">お名前を教えてください。</Say>`,
		`timeout="0"`,
		`finishOnKey="#"`,
		`maxLength="180"`,
	} {
		if !strings.Contains(xml, want) {
			t.Fatalf("expected %q in:\n%s", want, xml)
		}
	}
}

func TestRender_ZeroTimeoutAlwaysEmitted(t *testing.T) {
	// Questions record with no silence timeout; the attribute must not be
	// dropped as an empty value.
	var r Response
	r.Append(Record{Action: "/a", Timeout: 0})
	xml, err := r.Render()
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !strings.Contains(xml, `timeout="0"`) {
		t.Fatalf("expected timeout=\"0\" in:\n%s", xml)
	}
}

func TestRender_GatherWithNestedSayAndRedirectFallback(t *testing.T) {
	var r Response
	r.Append(Gather{
		Action:    "/twilio/message_confirm?scenario_id=sc1",
		NumDigits: 1,
		Timeout:   10,
		Say:       &Say{Language: "ja-JP", Text: "他にお話しすることはありますか？"},
	})
	r.Append(Redirect{URL: "/twilio/message_confirm?scenario_id=sc1&Digits=2"})
	r.Append(Hangup{})

	xml, err := r.Render()
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !strings.Contains(xml, "<Gather") || !strings.Contains(xml, "</Gather>") {
		t.Fatalf("expected Gather element in:\n%s", xml)
	}
	gatherStart := strings.Index(xml, "<Gather")
	gatherEnd := strings.Index(xml, "</Gather>")
	if say := strings.Index(xml, "他にお話しする"); say < gatherStart || say > gatherEnd {
		t.Fatalf("expected Say nested inside Gather:\n%s", xml)
	}
	if !strings.Contains(xml, "Digits=2</Redirect>") {
		t.Fatalf("expected redirect fallback in:\n%s", xml)
	}
	if !strings.Contains(xml, "<Hangup") {
		t.Fatalf("expected Hangup in:\n%s", xml)
	}
}

func TestRender_PauseFraction(t *testing.T) {
	var r Response
	r.PauseFor("1.5")
	xml, err := r.Render()
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !strings.Contains(xml, `length="1.5"`) {
		t.Fatalf("expected fractional pause in:\n%s", xml)
	}
}
