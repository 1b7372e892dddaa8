package domain

import (
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	now := time.Now().UTC()

	valid := User{
		ID:        "u1",
		Email:     "alice@example.com",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid user: %v", err)
	}

	missingID := valid
	missingID.ID = ""
	if err := missingID.Validate(); err == nil {
		t.Error("missing id should fail validation")
	}

	missingEmail := valid
	missingEmail.Email = ""
	if err := missingEmail.Validate(); err == nil {
		t.Error("missing email should fail validation")
	}
}
