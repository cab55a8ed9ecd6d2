package value

import (
	"testing"

	"github.com/loykin/varstore/internal/util"
	"github.com/tidwall/gjson"
)

func TestIsValid(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want bool
	}{
		{"all fields", New("x", "1", "int"), true},
		{"missing type", Value{Name: "x", Data: "1"}, false},
		{"missing name", Value{Type: "int", Data: "1"}, false},
		{"missing data", Value{Type: "int", Name: "x"}, false},
		{"zero value", Value{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	values := []Value{
		New("x", "d1", "t1"),
		New("unicode", "привет", "string"),
		New("quoted", `say "hi" <b>&</b>`, "html"),
		New("multi", "line1\nline2", "text"),
	}
	for _, v := range values {
		raw, err := util.MarshalJSON(v.ToJSON(), "")
		if err != nil {
			t.Fatalf("MarshalJSON: %v", err)
		}
		if got := Parse([]byte(raw)); got != v {
			t.Errorf("round trip of %+v produced %+v", v, got)
		}
	}
}

func TestFromJSON_MissingKeys(t *testing.T) {
	docs := []string{
		`{"type":"t","name":"n"}`,
		`{"type":"t","data":"d"}`,
		`{"name":"n","data":"d"}`,
		`{}`,
	}
	for _, doc := range docs {
		if v := FromJSON(gjson.Parse(doc)); v.IsValid() || v != (Value{}) {
			t.Errorf("FromJSON(%s) = %+v, want zero Value", doc, v)
		}
	}
}

func TestFromJSON_NonStringFields(t *testing.T) {
	docs := []string{
		`{"type":"int","name":"n","data":5}`,
		`{"type":null,"name":"n","data":"d"}`,
		`{"type":"t","name":["n"],"data":"d"}`,
		`"just a string"`,
		`[1,2]`,
	}
	for _, doc := range docs {
		if v := FromJSON(gjson.Parse(doc)); v.IsValid() {
			t.Errorf("FromJSON(%s) should be invalid, got %+v", doc, v)
		}
	}
}

func TestFromJSON_EmptyStringsKeptVerbatim(t *testing.T) {
	v := FromJSON(gjson.Parse(`{"type":"t","name":"n","data":""}`))
	if v.Name != "n" || v.Type != "t" || v.Data != "" {
		t.Fatalf("unexpected %+v", v)
	}
	if v.IsValid() {
		t.Fatal("empty data must be invalid")
	}
}

func TestParse_Malformed(t *testing.T) {
	if v := Parse([]byte(`{"type":`)); v != (Value{}) {
		t.Fatalf("expected zero Value, got %+v", v)
	}
}

func TestSendData(t *testing.T) {
	got := New("greeting", "<hello>", "string").SendData()
	want := `{"data":"<hello>","name":"greeting","type":"string"}`
	if got != want {
		t.Fatalf("SendData() = %s, want %s", got, want)
	}
}

func TestMarshal_Indent(t *testing.T) {
	got, err := util.MarshalJSON([]map[string]string{New("a", "1", "int").ToJSON()}, "    ")
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	want := "[\n    {\n        \"data\": \"1\",\n        \"name\": \"a\",\n        \"type\": \"int\"\n    }\n]"
	if got != want {
		t.Fatalf("Marshal indent =\n%s\nwant\n%s", got, want)
	}
}
