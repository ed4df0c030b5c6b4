package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mcoot/greenlight/internal/model"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"empty", "", false},
		{"five characters", "Alice", false},
		{"six characters", "Alicia", true},
		{"with spaces", "Al Bob", true},
		{"multibyte counted as runes", "Zoë Ng", true},
		{"five multibyte runes", "ÅÄÖÜß", false},
		{"astral characters count once", "Ann😀😀", false},
		{"six runes with astral characters", "Anna😀😀", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateName(tt.input))
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"alice@example.com", true},
		{"first.last_name-1@sub.domain.io", true},
		{"a@b.info", true},
		{"a@b.c", false},
		{"a@b.museum", false},
		{"alice@example", false},
		{"alice.example.com", false},
		{"al+ice@example.com", false},
		{"alice@exa_mple.com", false},
		{"alice@example.c0m", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateEmail(tt.input))
		})
	}
}

func TestValidateMobile(t *testing.T) {
	assert.True(t, ValidateMobile(""))
	assert.True(t, ValidateMobile("0412345678"))
	assert.True(t, ValidateMobile("call me"), "content is not checked")
	assert.False(t, ValidateMobile("12345678901"))
	assert.True(t, ValidateMobile("041234567😀"), "ten runes, eleven UTF-16 units")
}

func TestValidateRegistrationAcceptsValidPlayer(t *testing.T) {
	errs := ValidateRegistration(model.Player{
		Name:   "Alice Smith",
		Email:  "alice@example.com",
		Mobile: "0412345678",
	})
	assert.Nil(t, errs)
}

func TestValidateRegistrationReportsEachField(t *testing.T) {
	errs := ValidateRegistration(model.Player{
		Name:   "Bob",
		Email:  "bob@nowhere",
		Mobile: "12345678901",
	})

	assert.Equal(t, NameMessage, errs[model.FieldName])
	assert.Equal(t, EmailMessage, errs[model.FieldEmail])
	assert.Equal(t, MobileMessage, errs[model.FieldMobile])
}

func TestValidateRegistrationRequiresAllFields(t *testing.T) {
	errs := ValidateRegistration(model.Player{})

	assert.Len(t, errs, 3)
	assert.Equal(t, "Mobile number is required.", errs[model.FieldMobile])
}

func TestValidateRegistrationOnlyMobileTooLong(t *testing.T) {
	errs := ValidateRegistration(model.Player{
		Name:   "Alice Smith",
		Email:  "alice@example.com",
		Mobile: "12345678901",
	})

	assert.Equal(t, model.FieldErrors{model.FieldMobile: MobileMessage}, errs)
}
