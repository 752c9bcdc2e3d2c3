package protocolstate

import "testing"

func TestHandshakeToStatusThenClosedAfterPing(t *testing.T) {
	m := New()
	if err := m.Apply(TriggerHandshakeToStatus); err != nil {
		t.Fatalf("handshake->status: %v", err)
	}
	if m.Current() != Status {
		t.Fatalf("state = %v, want Status", m.Current())
	}
	if err := m.Apply(TriggerStatusPing); err != nil {
		t.Fatalf("ping->closed: %v", err)
	}
	if m.Current() != Closed {
		t.Fatalf("state = %v, want Closed", m.Current())
	}
}

func TestLoginToConfigurationToPlay(t *testing.T) {
	m := New()
	must(t, m.Apply(TriggerHandshakeToLogin))
	must(t, m.Apply(TriggerLoginAcknowledged))
	if m.Current() != Configuration {
		t.Fatalf("state = %v, want Configuration", m.Current())
	}
	must(t, m.Apply(TriggerFinishConfigurationAck))
	if m.Current() != Play {
		t.Fatalf("state = %v, want Play", m.Current())
	}
}

func TestOutOfStateTriggerRejected(t *testing.T) {
	m := New()
	if err := m.Apply(TriggerFinishConfigurationAck); err == nil {
		t.Fatal("expected ProtocolViolation for out-of-state trigger")
	}
	if m.Current() != Handshaking {
		t.Fatal("rejected trigger must not mutate state")
	}
}

func TestTransportErrorClosesFromAnyState(t *testing.T) {
	for _, start := range []State{Handshaking, Status, Login, Configuration, Play} {
		m := &Machine{current: start}
		if err := m.Apply(TriggerTransportError); err != nil {
			t.Fatalf("from %v: %v", start, err)
		}
		if m.Current() != Closed {
			t.Fatalf("from %v: state = %v, want Closed", start, m.Current())
		}
	}
}

func TestClosedRejectsEverything(t *testing.T) {
	m := &Machine{current: Closed}
	if err := m.Apply(TriggerHandshakeToStatus); err == nil {
		t.Fatal("expected error applying trigger to a closed machine")
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
