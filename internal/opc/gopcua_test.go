package opc

import (
	"testing"
	"time"

	"github.com/gopcua/opcua/ua"
)

func TestSecurityPolicyURI(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"None", ua.SecurityPolicyURINone},
		{"none", ua.SecurityPolicyURINone},
		{"", ua.SecurityPolicyURINone},
		{"Basic256Sha256", ua.SecurityPolicyURIBasic256Sha256},
		{"basic256sha256", ua.SecurityPolicyURIBasic256Sha256},
		{"Aes128_Sha256_RsaOaep", ua.SecurityPolicyURIAes128Sha256RsaOaep},
		{"aes256sha256rsapss", ua.SecurityPolicyURIAes256Sha256RsaPss},
		{"bogus", ua.SecurityPolicyURINone}, // unknown falls back to no security
	}
	for _, tt := range tests {
		if got := securityPolicyURI(tt.name); got != tt.want {
			t.Errorf("securityPolicyURI(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestSecurityMode(t *testing.T) {
	tests := []struct {
		name string
		want ua.MessageSecurityMode
	}{
		{"None", ua.MessageSecurityModeNone},
		{"", ua.MessageSecurityModeNone},
		{"Sign", ua.MessageSecurityModeSign},
		{"signandencrypt", ua.MessageSecurityModeSignAndEncrypt},
		{"SignAndEncrypt", ua.MessageSecurityModeSignAndEncrypt},
		{"unknown", ua.MessageSecurityModeNone},
	}
	for _, tt := range tests {
		if got := securityMode(tt.name); got != tt.want {
			t.Errorf("securityMode(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestFromWireClass(t *testing.T) {
	tests := []struct {
		wire ua.NodeClass
		want NodeClass
	}{
		{ua.NodeClassObject, ClassObject},
		{ua.NodeClassVariable, ClassVariable},
		{ua.NodeClassMethod, ClassMethod},
		{ua.NodeClassView, ClassOther},
		{ua.NodeClassDataType, ClassOther},
	}
	for _, tt := range tests {
		if got := fromWireClass(tt.wire); got != tt.want {
			t.Errorf("fromWireClass(%v) = %v, want %v", tt.wire, got, tt.want)
		}
	}
}

func TestNodeClassString(t *testing.T) {
	if got := ClassVariable.String(); got != "Variable" {
		t.Errorf("ClassVariable.String() = %q", got)
	}
	if got := NodeClass(99).String(); got != "Other" {
		t.Errorf("NodeClass(99).String() = %q", got)
	}
}

func TestRenderDataValue(t *testing.T) {
	mustVariant := func(v interface{}) *ua.Variant {
		variant, err := ua.NewVariant(v)
		if err != nil {
			t.Fatalf("NewVariant(%v): %v", v, err)
		}
		return variant
	}

	tests := []struct {
		name string
		dv   *ua.DataValue
		want string
	}{
		{"nil data value", nil, ""},
		{"nil variant", &ua.DataValue{}, ""},
		{"int", &ua.DataValue{Value: mustVariant(int32(42))}, "42"},
		{"string", &ua.DataValue{Value: mustVariant("on")}, "on"},
		{"localized text", &ua.DataValue{Value: mustVariant(&ua.LocalizedText{Text: "Kessel"})}, "Kessel"},
		{"qualified name", &ua.DataValue{Value: mustVariant(&ua.QualifiedName{NamespaceIndex: 2, Name: "Temp"})}, "Temp"},
	}
	for _, tt := range tests {
		if got := renderDataValue(tt.dv); got != tt.want {
			t.Errorf("%s: renderDataValue = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestSourceTimeFallback(t *testing.T) {
	src := time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC)
	srv := src.Add(time.Second)

	if got := sourceTime(&ua.DataValue{SourceTimestamp: src, ServerTimestamp: srv}); !got.Equal(src) {
		t.Errorf("sourceTime preferred %v over source timestamp", got)
	}
	if got := sourceTime(&ua.DataValue{ServerTimestamp: srv}); !got.Equal(srv) {
		t.Errorf("sourceTime = %v, want server timestamp fallback", got)
	}
	// With neither timestamp the wall clock fills in.
	if got := sourceTime(&ua.DataValue{}); got.IsZero() {
		t.Error("sourceTime returned zero time")
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Basic256Sha256", "basic256sha256"},
		{"Aes128_Sha256_RsaOaep", "aes128sha256rsaoaep"},
		{"Sign And Encrypt", "signandencrypt"},
		{"none", "none"},
	}
	for _, tt := range tests {
		if got := normalize(tt.in); got != tt.want {
			t.Errorf("normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
