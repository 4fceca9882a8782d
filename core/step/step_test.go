package step

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEncodeDecode(t *testing.T) {
	l := List{Steps: []Step{
		{
			ID:            "a",
			Kind:          KindWrite,
			Label:         "Write CH1:SCALE 0.5",
			Params:        map[string]string{"command": "CH1:SCALE 0.5"},
			BoundDeviceID: "scope",
		},
		{
			ID:   "b",
			Kind: KindRawCode,
			Params: map[string]string{
				"code": "for _i in range(3):\n    time.sleep(1)",
			},
			Children: []Step{
				{ID: "b0", Kind: KindWait, Params: map[string]string{"seconds": "1"}},
			},
		},
	}}

	data, err := Encode(l)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if diff := cmp.Diff(l, got); diff != "" {
		t.Errorf("round-trip mismatch (-orig +decoded):\n%s", diff)
	}
}

func TestDecodeKeepsUnknownKind(t *testing.T) {
	data := []byte(`{"steps": [{"id": "x", "kind": "teleport"}]}`)
	l, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(l.Steps) != 1 || l.Steps[0].Kind != "teleport" {
		t.Errorf("unknown kind not preserved: %+v", l.Steps)
	}
}

func TestEncodeEmptyListIsArray(t *testing.T) {
	data, err := Encode(List{})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !strings.Contains(string(data), `"steps": []`) {
		t.Errorf("empty list did not serialize as an array: %s", data)
	}
}

func TestRender(t *testing.T) {
	l := List{Steps: []Step{
		{Kind: KindWrite, Label: "Write *RST", BoundDeviceID: "scope"},
		{Kind: KindGroup, Label: "setup", Children: []Step{
			{Kind: KindWait, Label: "Wait 1s"},
			{Kind: KindQuery, Label: "Query *IDN?", BoundDeviceID: "scope"},
		}},
	}}

	got := Render(l)
	want := strings.Join([]string{
		"├─ Write *RST  [scope]",
		"└─ setup",
		"   ├─ Wait 1s",
		"   └─ Query *IDN?  [scope]",
		"",
	}, "\n")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("render mismatch (-want +got):\n%s", diff)
	}
}
