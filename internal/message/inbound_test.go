package message

import "testing"

func TestRefreshRequested(t *testing.T) {
	cases := []struct {
		payload string
		want    bool
	}{
		{`{"REQUEST_WEATHER":1}`, true},
		{`{"REQUEST_WEATHER":true}`, true},
		{`{"100":1}`, true},
		{`{"100":"1"}`, true},
		{`{"100":0}`, false},
		{`{"REQUEST_WEATHER":false}`, false},
		{`{"REQUEST_WEATHER":""}`, false},
		{`{"10009":1}`, false},
		{`{}`, false},
	}

	for _, tc := range cases {
		in, err := ParseInbound([]byte(tc.payload))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.payload, err)
		}
		if got := in.RefreshRequested(); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.payload, tc.want, got)
		}
	}
}

func TestParseInboundRejectsGarbage(t *testing.T) {
	if _, err := ParseInbound([]byte("not-json")); err == nil {
		t.Fatalf("expected error")
	}
}
