package audio

import "testing"

func TestEnvelopeInstant(t *testing.T) {
	e := NewEnvelope()
	e.GateOn()
	if want, got := uint8(EnvelopeAmplitude), e.Next(); want != got {
		t.Fatalf("instant attack: want %v, got %v", want, got)
	}
	for n := 0; n < 10; n++ {
		if want, got := uint8(EnvelopeAmplitude), e.Next(); want != got {
			t.Fatalf("full sustain: want %v, got %v", want, got)
		}
	}
	if want, got := stateSustain, e.state; want != got {
		t.Fatalf("want %v, got %v", want, got)
	}
	e.GateOff(false)
	if want, got := uint8(0), e.Next(); want != got {
		t.Fatalf("instant release: want %v, got %v", want, got)
	}
	if e.Active() {
		t.Error("envelope still active after release")
	}
}

func runEnvelope(e *Envelope, n int) []uint8 {
	levels := make([]uint8, n)
	for i := range levels {
		levels[i] = e.Next()
	}
	return levels
}

func maxJump(prev uint8, levels []uint8) int {
	var jump int
	for _, l := range levels {
		d := int(l) - int(prev)
		if d < 0 {
			d = -d
		}
		jump = max(jump, d)
		prev = l
	}
	return jump
}

func TestEnvelopeContinuity(t *testing.T) {
	for _, typ := range []EnvelopeType{Exponential, Linear} {
		e := NewEnvelope()
		e.SetType(typ)
		e.SetAttack(10)
		e.SetDecay(10)
		e.SetSustain(64)
		e.SetRelease(10)

		e.GateOn()
		levels := runEnvelope(e, SampleRate/4)
		if jump := maxJump(0, levels); jump > 8 {
			t.Errorf("%v: level jumped by %v", typ, jump)
		}
		if want, got := stateSustain, e.state; want != got {
			t.Fatalf("%v: want %v, got %v", typ, want, got)
		}
		if want, got := expand7(64), levels[len(levels)-1]; want != got {
			t.Errorf("%v: sustain level: want %v, got %v", typ, want, got)
		}

		e.GateOff(false)
		release := runEnvelope(e, SampleRate/4)
		if jump := maxJump(expand7(64), release); jump > 8 {
			t.Errorf("%v: release jumped by %v", typ, jump)
		}
		if e.Active() {
			t.Errorf("%v: envelope did not finish", typ)
		}
	}
}

func TestEnvelopeAttackRises(t *testing.T) {
	e := NewEnvelope()
	e.SetAttack(20)
	e.GateOn()
	prev := e.Next()
	for e.state == stateAttack {
		l := e.Next()
		if l < prev {
			t.Fatalf("attack fell from %v to %v", prev, l)
		}
		prev = l
	}
	if want, got := uint8(EnvelopeAmplitude), prev; want != got {
		t.Errorf("attack ended at %v", got)
	}
}

func TestEnvelopeReleaseFromAttack(t *testing.T) {
	e := NewEnvelope()
	e.SetAttack(60)
	e.SetRelease(30)
	e.GateOn()
	runEnvelope(e, 2000)
	level := e.Level()
	if level == 0 || level == EnvelopeAmplitude {
		t.Fatalf("expected to be inside the attack, level %v", level)
	}
	e.GateOff(false)
	if want, got := level, e.start; want != got {
		t.Errorf("release should start from %v, got %v", want, got)
	}
	if jump := maxJump(level, runEnvelope(e, 100)); jump > 8 {
		t.Errorf("release jumped by %v", jump)
	}
}

func TestEnvelopeGateChangeKeepsLevel(t *testing.T) {
	for _, typ := range []EnvelopeType{Exponential, Linear} {
		e := NewEnvelope()
		e.SetType(typ)
		e.SetAttack(60)
		e.SetRelease(30)
		e.GateOn()
		runEnvelope(e, 2000)

		before := e.Next()
		e.GateOff(false)
		if after := e.Next(); before != after {
			t.Errorf("%v: gate off moved the level from %v to %v", typ, before, after)
		}

		runEnvelope(e, 500)
		before = e.Next()
		if before == 0 {
			t.Fatalf("%v: release ended too early", typ)
		}
		e.GateOn()
		if after := e.Next(); before != after {
			t.Errorf("%v: gate on moved the level from %v to %v", typ, before, after)
		}
	}
}

func TestEnvelopeSustainFlat(t *testing.T) {
	e := NewEnvelope()
	e.SetSustain(20)
	e.GateOn()
	runEnvelope(e, 10)
	for _, l := range runEnvelope(e, 1000) {
		if want, got := expand7(20), l; want != got {
			t.Fatalf("sustain moved: want %v, got %v", want, got)
		}
	}
}

func TestEnvelopeParamsApplyToNextSegment(t *testing.T) {
	e := NewEnvelope()
	e.SetAttack(40)
	e.GateOn()
	e.Next()
	step := e.step
	if !e.SetAttack(100) {
		t.Fatal("expected a change")
	}
	e.Next()
	if want, got := step, e.step; want != got {
		t.Errorf("running attack changed speed")
	}
	e.GateOn()
	if want, got := envSteps[100], e.step; want != got {
		t.Errorf("next attack: want step %v, got %v", want, got)
	}
}

func TestEnvelopeSetters(t *testing.T) {
	e := NewEnvelope()
	for _, set := range []func(uint8) bool{e.SetAttack, e.SetDecay, e.SetRelease} {
		if set(0x80) {
			t.Error("accepted 0x80")
		}
		if !set(0x7f) {
			t.Error("rejected 0x7f")
		}
		if set(0x7f) {
			t.Error("unchanged value reported as a change")
		}
	}
	if e.SetSustain(0x7f) {
		t.Error("default sustain reported as a change")
	}
	if !e.SetSustain(0) {
		t.Error("rejected sustain 0")
	}
	if e.SetType(numEnvelopeTypes) {
		t.Error("accepted an invalid type")
	}
	if !e.SetType(Linear) || e.SetType(Linear) {
		t.Error("wrong change report for type")
	}
}

func TestEnvelopeForceOff(t *testing.T) {
	e := NewEnvelope()
	e.SetRelease(100)
	e.GateOn()
	runEnvelope(e, 10)
	e.GateOff(true)
	if e.Active() {
		t.Error("forced off envelope still active")
	}
	if want, got := uint8(0), e.Level(); want != got {
		t.Errorf("want %v, got %v", want, got)
	}
	if want, got := uint8(0), e.Next(); want != got {
		t.Errorf("want %v, got %v", want, got)
	}
	e.GateOff(false)
	if e.Active() {
		t.Error("gate off started a release from silence")
	}
}

func TestNilEnvelope(t *testing.T) {
	var e *Envelope
	e.GateOn()
	e.GateOff(true)
	if e.Next() != 0 || e.SetType(Linear) || e.Active() {
		t.Error("nil envelope should do nothing")
	}
}
