package audit

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func testEntry() *Entry {
	return &Entry{
		AuditID:    uuid.New(),
		EntityType: EntityNegotiation,
		EntityID:   uuid.New().String(),
		Action:     ActionApprove,
		Actor:      uuid.New().String(),
		Reason:     "owner approved",
		CreatedAt:  time.Now().UTC(),
	}
}

func TestSignAndVerify(t *testing.T) {
	key := []byte("test-signing-key")
	e := testEntry()

	sig, err := Sign(e, key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if len(sig) == 0 {
		t.Fatal("empty signature")
	}
	e.Signature = sig

	ok, err := Verify(e, key)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatal("signature should verify")
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	key := []byte("test-signing-key")
	e := testEntry()
	sig, err := Sign(e, key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	e.Signature = sig

	e.Action = ActionDecline
	ok, err := Verify(e, key)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ok {
		t.Fatal("tampered entry should not verify")
	}
}

func TestVerifyWrongKey(t *testing.T) {
	e := testEntry()
	sig, err := Sign(e, []byte("key-one"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	e.Signature = sig

	ok, err := Verify(e, []byte("key-two"))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ok {
		t.Fatal("wrong key should not verify")
	}
}

func TestVerifyMissingSignature(t *testing.T) {
	ok, err := Verify(testEntry(), []byte("key"))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ok {
		t.Fatal("unsigned entry should not verify")
	}
}
