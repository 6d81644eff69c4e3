package callbacks

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	cases := []struct {
		data, key, payload string
	}{
		{"check_another", "check_another", ""},
		{"\fcheck_another", "check_another", ""},
		{"\fpick|Result(22-25)", "pick", "Result(22-25)"},
		{"", "", ""},
	}
	for _, tc := range cases {
		key, payload := ParseCallbackData(&tele.Callback{Data: tc.data})
		if key != tc.key || payload != tc.payload {
			t.Fatalf("ParseCallbackData(%q) = (%q, %q), want (%q, %q)", tc.data, key, payload, tc.key, tc.payload)
		}
	}
	if k, p := ParseCallbackData(nil); k != "" || p != "" {
		t.Fatal("nil callback must parse to empty values")
	}
}
