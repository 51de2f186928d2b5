package prompts

import (
	"strings"
	"testing"
)

func TestSystemNeutralHasNoToneClause(t *testing.T) {
	got := System("neutral")
	if strings.Contains(got, "tone") {
		t.Errorf("neutral prompt should carry no tone clause: %q", got)
	}
	if !strings.Contains(got, "You are zclaw") {
		t.Error("prompt is missing the identity line")
	}
}

func TestSystemAppendsPersonaClause(t *testing.T) {
	neutral := System("neutral")
	witty := System("witty")
	if witty == neutral {
		t.Error("witty prompt should differ from neutral")
	}
	if !strings.HasPrefix(witty, neutral) {
		t.Error("persona clause should append, not rewrite, the base prompt")
	}
}
